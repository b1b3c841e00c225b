package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/sopkb/internal/service"
	"golang.org/x/term"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Warning: lipgloss.Color("#FFAF00"), // amber
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) warningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warning).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// isTerminal reports whether stdout is an interactive terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// windowMsg reports that an extraction window finished.
type windowMsg struct {
	done  int
	total int
}

// ingestDoneMsg carries the final ingest result.
type ingestDoneMsg struct {
	report *service.IngestReport
	err    error
}

// ingestModel is the bubbletea model for ingest progress.
type ingestModel struct {
	name     string
	cancel   context.CancelFunc
	done     int
	total    int
	progress progress.Model
	theme    Theme
	report   *service.IngestReport
	err      error
	finished bool
	quitting bool
}

func newIngestModel(name string, cancel context.CancelFunc) ingestModel {
	return ingestModel{
		name:   name,
		cancel: cancel,
		progress: progress.New(
			progress.WithDefaultBlend(),
			progress.WithWidth(40),
		),
		theme: defaultTheme,
	}
}

func (m ingestModel) Init() tea.Cmd {
	return m.progress.Init()
}

func (m ingestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// The store is only written at the end, so cancelling leaves it untouched.
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case windowMsg:
		m.done, m.total = msg.done, msg.total
		return m, nil

	case ingestDoneMsg:
		m.report, m.err = msg.report, msg.err
		m.finished = true
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ingestModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m ingestModel) renderContent() string {
	if m.quitting {
		return m.theme.hintStyle().Render("\nCancelling, waiting for the current step to finish...\n")
	}
	if m.finished {
		return ""
	}

	status := m.theme.statusStyle().Render("[extracting]")
	if m.total == 0 {
		return fmt.Sprintf("%s %s\n", status, m.name)
	}

	pct := float64(m.done) / float64(m.total)
	counts := fmt.Sprintf("%d/%d windows", m.done, m.total)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to cancel")
	return fmt.Sprintf("%s %s %s\n%s\n", status, m.progress.ViewAs(pct), counts, hint)
}

// errSavedBeforeCancel reports a Ctrl+C that arrived after the document
// had already been written.
var errSavedBeforeCancel = fmt.Errorf("%w after the document was saved", context.Canceled)

// runIngestProgress runs ingest under the interactive progress UI. run
// receives the context to use and the progress callback to report windows.
// When the user cancels, it still waits for run to return so the reported
// outcome matches what reached the store.
func runIngestProgress(ctx context.Context, name string,
	run func(ctx context.Context, progress func(done, total int)) (*service.IngestReport, error),
) (*service.IngestReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newIngestModel(name, cancel))
	done := make(chan ingestDoneMsg, 1)
	go func() {
		report, err := run(ctx, func(done, total int) {
			p.Send(windowMsg{done: done, total: total})
		})
		msg := ingestDoneMsg{report: report, err: err}
		done <- msg
		p.Send(msg)
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := final.(ingestModel); ok && m.quitting {
		return awaitCancelled(done)
	}
	res := <-done
	return res.report, res.err
}

// awaitCancelled waits for a cancelled ingest to stop. A run that finished
// anyway is reported with its report and errSavedBeforeCancel.
func awaitCancelled(done <-chan ingestDoneMsg) (*service.IngestReport, error) {
	res := <-done
	if res.err != nil {
		return res.report, res.err
	}
	if res.report != nil && res.report.Outcome == service.OutcomeIngested && !res.report.DryRun {
		return res.report, errSavedBeforeCancel
	}
	return res.report, context.Canceled
}

// renderReport formats an ingest report for the terminal.
func renderReport(r *service.IngestReport, theme Theme) string {
	var b strings.Builder

	switch r.Outcome {
	case service.OutcomeIngested:
		title := "✓ Ingested " + r.SourceFile
		if r.DryRun {
			title = "✓ Dry run " + r.SourceFile + " (nothing saved)"
		}
		b.WriteString(theme.completedStyle().Render(title) + "\n\n")
	case service.OutcomeNoNewRecords:
		b.WriteString(theme.warningStyle().Render("• No new records in "+r.SourceFile) + "\n\n")
	case service.OutcomeExtractionEmpty:
		b.WriteString(theme.warningStyle().Render("• Nothing usable extracted from "+r.SourceFile) + "\n\n")
	default:
		b.WriteString(theme.errorStyle().Render(fmt.Sprintf("✗ Ingest failed (%s)", r.Outcome)) + "\n\n")
	}

	fmt.Fprintf(&b, "  Result:      %s\n", r.Summary())
	if r.Duplicates > 0 {
		fmt.Fprintf(&b, "  Duplicates:  %d\n", r.Duplicates)
	}
	fmt.Fprintf(&b, "  Pages:       %d", r.Pages)
	if r.EmptyPages > 0 {
		fmt.Fprintf(&b, " (%d without text)", r.EmptyPages)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Windows:     %d", r.Windows)
	if r.FailedWindows > 0 {
		fmt.Fprintf(&b, " (%d failed)", r.FailedWindows)
	}
	b.WriteString("\n")
	if !r.DryRun && r.Accepted > 0 {
		fmt.Fprintf(&b, "  Embedded:    %d", r.Embedded)
		if r.EmbedFailed > 0 {
			fmt.Fprintf(&b, " (%d without embedding, keyword search only)", r.EmbedFailed)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "  Run:         %s in %s\n", r.RunID, r.Duration.Round(time.Millisecond))
	return b.String()
}
