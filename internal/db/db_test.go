package db

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/raphaelgruber/sopkb/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *Client

// TestMain starts a SurrealDB container for the integration tests. In
// short mode, or when no container runtime is available, testDB stays nil
// and those tests skip.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Printf("surrealdb container unavailable, skipping integration tests: %v", err)
		os.Exit(m.Run())
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// testcontainers may report "null" as the host
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := container.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testDB, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := testDB.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func requireDB(t *testing.T) *RecordStore {
	t.Helper()
	if testDB == nil {
		t.Skip("skipping integration test: no SurrealDB")
	}
	require.NoError(t, testDB.WipeData(context.Background()))
	return NewRecordStore(testDB)
}

func TestRecordRowConversion(t *testing.T) {
	stamp := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	rec := models.Record{
		System: "Payroll", Process: "Run payroll", Instructions: "Open HR<br>Click run",
		SourceFile: "payroll.pdf", LastUpdated: stamp, Embedding: []float32{0.5, 1},
	}

	row := toRow(3, rec)
	assert.Equal(t, 3, row.Position)
	require.NotNil(t, row.LastUpdated)
	assert.Equal(t, rec, fromRow(row))

	bare := toRow(0, models.Record{System: "CRM", Process: "Add lead"})
	assert.Nil(t, bare.LastUpdated)
	assert.True(t, fromRow(bare).LastUpdated.IsZero())
}

func TestRecordStoreEmpty(t *testing.T) {
	s := requireDB(t)

	records, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecordStoreSaveLoad(t *testing.T) {
	s := requireDB(t)
	ctx := context.Background()
	stamp := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	want := []models.Record{
		{System: "Payroll", Process: "Run payroll", Instructions: "Open HR<br>Click run", SourceFile: "a.pdf", LastUpdated: stamp, Embedding: []float32{0.5, -0.25, 1}},
		{System: "CRM", Process: "Add lead", SourceFile: models.SourceManual, LastUpdated: stamp},
		{System: "HR", Process: "Onboard", Rationale: "Day one", SourceFile: "b.pdf", LastUpdated: stamp},
	}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range want {
		assert.Equal(t, want[i].System, got[i].System, "position %d", i)
		assert.Equal(t, want[i].Embedding, got[i].Embedding, "position %d", i)
		assert.True(t, want[i].LastUpdated.Equal(got[i].LastUpdated), "position %d", i)
	}
}

func TestRecordStoreSaveReplaces(t *testing.T) {
	s := requireDB(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []models.Record{{System: "A", Process: "a"}, {System: "B", Process: "b"}}))
	require.NoError(t, s.Save(ctx, []models.Record{{System: "C", Process: "c"}}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "C", got[0].System)

	require.NoError(t, s.Save(ctx, nil))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecordStoreRejectsInvalid(t *testing.T) {
	s := requireDB(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []models.Record{{System: "A", Process: "a"}}))
	err := s.Save(ctx, []models.Record{{System: "B", Process: "b"}, {System: " ", Process: "orphan"}})
	require.Error(t, err)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1, "failed transaction leaves previous snapshot")
	assert.Equal(t, "A", got[0].System)
}
