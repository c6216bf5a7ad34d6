package store

// migrations is the ordered list of schema statements applied on open.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY, -- UUID
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		uri TEXT,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_user_id ON documents(user_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY, -- UUID
		user_id INTEGER NOT NULL,
		title TEXT,
		mode TEXT NOT NULL DEFAULT 'open_chat' CHECK (mode IN ('open_chat', 'rag')),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_user_id ON conversations(user_id, updated_at)`,
	`CREATE TABLE IF NOT EXISTS conversation_documents (
		conversation_id TEXT NOT NULL,
		document_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (conversation_id, document_id),
		FOREIGN KEY (conversation_id) REFERENCES conversations (id),
		FOREIGN KEY (document_id) REFERENCES documents (id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
		content TEXT NOT NULL,
		tokens_used INTEGER NOT NULL DEFAULT 0,
		meta TEXT, -- JSON
		created_at DATETIME NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations (id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages(conversation_id, created_at)`,
}
