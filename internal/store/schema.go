package store

// SchemaSQL is the authoritative alert store schema. Tests build
// in-memory databases from this constant so repository code and tests
// cannot drift apart.
//
// The partial unique index is what makes Upsert an atomic
// insert-or-update on the active natural key: at most one unresolved
// row may exist per (type, entity_type, entity_id).
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS alerts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	severity TEXT NOT NULL CHECK(severity IN ('low', 'medium', 'high', 'critical')),
	title TEXT NOT NULL,
	message TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id INTEGER NOT NULL,
	is_read INTEGER NOT NULL DEFAULT 0,
	is_resolved INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	resolved_at DATETIME,
	expires_at DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_active_natural_key
	ON alerts(type, entity_type, entity_id) WHERE is_resolved = 0;

CREATE INDEX IF NOT EXISTS idx_alerts_resolved_at ON alerts(resolved_at) WHERE is_resolved = 1;
CREATE INDEX IF NOT EXISTS idx_alerts_expires_at ON alerts(expires_at) WHERE expires_at IS NOT NULL;
`
