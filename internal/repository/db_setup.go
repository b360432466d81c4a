package repository

import (
	"database/sql"
	"fmt"
	"log"
)

func CreateTableIfNotExists(db *sql.DB) {
	query := `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email VARCHAR(255) NOT NULL UNIQUE,
    hashed_password VARCHAR(255) NOT NULL,
    full_name VARCHAR(255),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS projects (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    name VARCHAR(255) NOT NULL,
    description TEXT,
    color VARCHAR(7),
    icon VARCHAR(50),
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    project_id UUID REFERENCES projects (id) ON DELETE SET NULL,
    parent_task_id UUID REFERENCES tasks (id) ON DELETE CASCADE,
    title VARCHAR(500) NOT NULL,
    description TEXT,
    status VARCHAR(20) NOT NULL DEFAULT 'todo'
        CHECK (status IN ('pending', 'todo', 'in_progress', 'done', 'cancelled',
                          'a_fazer', 'em_progresso', 'concluida', 'cancelada')),
    priority VARCHAR(10) NOT NULL DEFAULT 'medium'
        CHECK (priority IN ('low', 'medium', 'high', 'urgent',
                            'baixa', 'media', 'alta', 'urgente')),
    due_date TIMESTAMPTZ,
    estimated_duration INT,
    actual_duration INT,
    completed_at TIMESTAMPTZ,
    tags TEXT[],
    metadata JSONB,
    natural_language_input TEXT,
    gpt_response JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS gpt_cache (
    id UUID PRIMARY KEY,
    input_hash VARCHAR(64) NOT NULL UNIQUE,
    input_text TEXT NOT NULL,
    output JSONB NOT NULL,
    model VARCHAR(50),
    tokens_used INT,
    cost NUMERIC(10, 6),
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_accessed TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    access_count INT NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS user_settings (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL UNIQUE REFERENCES users (id) ON DELETE CASCADE,
    llm_provider VARCHAR(20) NOT NULL DEFAULT 'gpt4',
    openai_api_key TEXT,
    llama_endpoint VARCHAR(255) NOT NULL DEFAULT 'http://localhost:11434',
    timezone VARCHAR(64) NOT NULL DEFAULT 'America/Sao_Paulo',
    default_task_duration INT NOT NULL DEFAULT 60,
    enable_auto_subtasks BOOLEAN NOT NULL DEFAULT FALSE,
    enable_auto_priority BOOLEAN NOT NULL DEFAULT TRUE,
    enable_auto_tags BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks (user_id);
CREATE INDEX IF NOT EXISTS idx_tasks_parent_task_id ON tasks (parent_task_id);
CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks (due_date);
    `

	_, err := db.Exec(query)
	if err != nil {
		log.Fatalf("Error creating table: %v", err)
	} else {
		fmt.Println("Tables 'users', 'projects', 'tasks', 'gpt_cache', 'user_settings' are ready.")
	}
}

func DeleteAllTable(db *sql.DB) {
	query := `
    DROP TABLE IF EXISTS gpt_cache;
    DROP TABLE IF EXISTS user_settings;
    DROP TABLE IF EXISTS tasks;
    DROP TABLE IF EXISTS projects;
    DROP TABLE IF EXISTS users;
    `

	_, err := db.Exec(query)
	if err != nil {
		log.Fatalf("Error deleting table: %v", err)
	} else {
		fmt.Println("Tables 'users', 'projects', 'tasks', 'gpt_cache', 'user_settings' are deleted.")
	}
}
