package store

// SchemaVersion is the current store schema version
const SchemaVersion = 2

const schema = `
-- Outbox queue: items buffered for remote delivery
CREATE TABLE IF NOT EXISTS sync_queue (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    kind TEXT NOT NULL,
    payload JSON NOT NULL,
    enqueued_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    delivered INTEGER NOT NULL DEFAULT 0
);

-- Derived analytics events retained locally
CREATE TABLE IF NOT EXISTS analytics (
    id TEXT PRIMARY KEY,
    activity_id TEXT NOT NULL DEFAULT '',
    subject TEXT NOT NULL DEFAULT '',
    payload JSON NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Cache of consumed activity records, keyed by activity id.
-- Retained in full: subject averages are recomputed from history and
-- leaderboard scope windows sum xp_gained over completed_at ranges.
CREATE TABLE IF NOT EXISTS activity_cache (
    activity_id TEXT PRIMARY KEY,
    subject TEXT NOT NULL,
    raw_score INTEGER NOT NULL,
    total_units INTEGER NOT NULL,
    correct_units INTEGER NOT NULL,
    elapsed_seconds INTEGER NOT NULL,
    difficulty TEXT NOT NULL,
    xp_gained INTEGER NOT NULL DEFAULT 0,
    completed_at DATETIME NOT NULL,
    record JSON NOT NULL
);

-- Single serialized profile blob per device
CREATE TABLE IF NOT EXISTS profile (
    id TEXT PRIMARY KEY,
    data JSON NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Schema metadata
CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Secondary indexes
CREATE INDEX IF NOT EXISTS idx_sync_queue_kind ON sync_queue(kind);
CREATE INDEX IF NOT EXISTS idx_sync_queue_enqueued ON sync_queue(enqueued_at);
CREATE INDEX IF NOT EXISTS idx_analytics_subject ON analytics(subject);
CREATE INDEX IF NOT EXISTS idx_analytics_created ON analytics(created_at);
CREATE INDEX IF NOT EXISTS idx_activity_subject ON activity_cache(subject);
CREATE INDEX IF NOT EXISTS idx_activity_completed ON activity_cache(completed_at);
`

// migrations maps a schema version to the statements that bring the
// previous version up to it. Version 1 is the base schema above.
var migrations = map[int][]string{
	2: {
		`CREATE INDEX IF NOT EXISTS idx_activity_difficulty ON activity_cache(difficulty)`,
	},
}
