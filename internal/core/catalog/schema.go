package catalog

// Schema for the scan catalog. The seq columns preserve discovery order so a
// loaded index iterates exactly as the scan that produced it.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	project TEXT NOT NULL,
	animal TEXT NOT NULL,
	session TEXT NOT NULL,
	trial TEXT NOT NULL DEFAULT '',
	dir TEXT NOT NULL,
	meta TEXT NOT NULL DEFAULT '{}',
	seq INTEGER NOT NULL,
	UNIQUE(project, animal, session)
);

CREATE TABLE IF NOT EXISTS files (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	path TEXT NOT NULL,
	size INTEGER NOT NULL DEFAULT 0,
	server_path TEXT NOT NULL DEFAULT '',
	seq INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS steps (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	params TEXT NOT NULL DEFAULT '{}',
	comments TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'in_progress',
	results_dir TEXT NOT NULL DEFAULT '',
	seq INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scans (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	root TEXT NOT NULL,
	scanned_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	indexed INTEGER NOT NULL,
	skipped INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project);
CREATE INDEX IF NOT EXISTS idx_files_session ON files(session_id);
CREATE INDEX IF NOT EXISTS idx_steps_session ON steps(session_id);
`
