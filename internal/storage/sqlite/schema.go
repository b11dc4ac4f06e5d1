package sqlite

const schema = `
-- Exploration sessions; knowledge and plan hold the latest state
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    goal TEXT NOT NULL,
    workspace TEXT NOT NULL DEFAULT '',
    max_iterations INTEGER NOT NULL,
    current_iteration INTEGER NOT NULL DEFAULT 0,
    active INTEGER NOT NULL DEFAULT 0,
    outcome TEXT NOT NULL DEFAULT '',
    started_at TEXT NOT NULL,
    ended_at TEXT,
    knowledge TEXT NOT NULL DEFAULT '{}',
    plan TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);
CREATE INDEX IF NOT EXISTS idx_sessions_outcome ON sessions(outcome);

-- One row per loop iteration
CREATE TABLE IF NOT EXISTS history_entries (
    session_id TEXT NOT NULL,
    iteration INTEGER NOT NULL CHECK(iteration >= 1),
    understanding REAL NOT NULL CHECK(understanding >= 0 AND understanding <= 1),
    action_type TEXT NOT NULL DEFAULT '',
    action_target TEXT NOT NULL DEFAULT '',
    action_success INTEGER NOT NULL DEFAULT 0,
    key_findings TEXT NOT NULL DEFAULT '[]',
    explored_files TEXT NOT NULL DEFAULT '[]',
    explored_directories TEXT NOT NULL DEFAULT '[]',
    observation TEXT,
    PRIMARY KEY (session_id, iteration),
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

-- Exploration events
CREATE TABLE IF NOT EXISTS exploration_events (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    timestamp TEXT NOT NULL,
    session_id TEXT NOT NULL,
    iteration INTEGER NOT NULL DEFAULT 0,
    severity TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    data TEXT NOT NULL DEFAULT '{}',
    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_events_session ON exploration_events(session_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON exploration_events(timestamp);
CREATE INDEX IF NOT EXISTS idx_events_severity ON exploration_events(severity);
`
