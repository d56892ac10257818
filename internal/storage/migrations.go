package storage

type migration struct {
	version int
	sql     string
}

// migrations must stay in ascending version order.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id         TEXT PRIMARY KEY,
	text       TEXT NOT NULL CHECK(length(trim(text)) > 0),
	completed  INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	priority   TEXT NOT NULL DEFAULT '' CHECK(priority IN ('', 'high', 'medium', 'low')),
	due_date   TEXT DEFAULT NULL,
	category   TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
