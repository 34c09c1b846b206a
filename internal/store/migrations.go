package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS groups_snapshot (
	user_id         INTEGER NOT NULL,
	id              INTEGER NOT NULL,
	name            TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	leader_id       INTEGER,
	leader_name     TEXT NOT NULL DEFAULT '',
	member_count    INTEGER NOT NULL DEFAULT 0,
	total_tasks     INTEGER NOT NULL DEFAULT 0,
	completed_tasks INTEGER NOT NULL DEFAULT 0,
	completion_rate TEXT NOT NULL DEFAULT '0%',
	created_at      TEXT NOT NULL DEFAULT '',
	position        INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS notifications_snapshot (
	user_id      INTEGER NOT NULL,
	id           INTEGER NOT NULL,
	title        TEXT NOT NULL,
	message      TEXT NOT NULL DEFAULT '',
	type         TEXT NOT NULL,
	is_read      INTEGER NOT NULL DEFAULT 0 CHECK(is_read IN (0, 1)),
	is_important INTEGER NOT NULL DEFAULT 0 CHECK(is_important IN (0, 1)),
	created_at   TEXT NOT NULL DEFAULT '',
	read_at      TEXT,
	task_id      INTEGER,
	group_id     INTEGER,
	report_id    INTEGER,
	position     INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS feed_meta (
	user_id      INTEGER PRIMARY KEY,
	total        INTEGER NOT NULL DEFAULT 0,
	unread_count INTEGER NOT NULL DEFAULT 0,
	fetched_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_groups_snapshot_user ON groups_snapshot(user_id, position);
CREATE INDEX IF NOT EXISTS idx_notifications_snapshot_user ON notifications_snapshot(user_id, position);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
