package db

const recordTable = "sop_record"

// SchemaSQL defines the record table. Position keeps the snapshot order
// that record numbers in the CLI refer to.
const SchemaSQL = `
    DEFINE TABLE IF NOT EXISTS sop_record SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS position ON sop_record TYPE int;
    DEFINE FIELD IF NOT EXISTS system ON sop_record TYPE string ASSERT string::len(string::trim($value)) > 0;
    DEFINE FIELD IF NOT EXISTS process ON sop_record TYPE string ASSERT string::len(string::trim($value)) > 0;
    DEFINE FIELD IF NOT EXISTS instructions ON sop_record TYPE string;
    DEFINE FIELD IF NOT EXISTS rationale ON sop_record TYPE string;
    DEFINE FIELD IF NOT EXISTS source_file ON sop_record TYPE string;
    DEFINE FIELD IF NOT EXISTS last_updated ON sop_record TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS embedding ON sop_record TYPE option<array<float>>;
    DEFINE INDEX IF NOT EXISTS idx_sop_record_position ON sop_record FIELDS position;
`
