package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id            TEXT PRIMARY KEY,
	seq           INTEGER NOT NULL,
	user_id       TEXT NOT NULL,
	content       TEXT NOT NULL,
	sender        TEXT NOT NULL,
	detected_mood TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_user_seq ON conversations(user_id, seq);

CREATE TABLE IF NOT EXISTS memories (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	feelings         TEXT NOT NULL DEFAULT '[]',
	special_dates    TEXT NOT NULL DEFAULT '[]',
	conversation_ids TEXT NOT NULL DEFAULT '[]',
	created_at       TEXT NOT NULL,
	backed_up_at     TEXT
);
CREATE INDEX IF NOT EXISTS idx_memories_user_created ON memories(user_id, created_at);
`
