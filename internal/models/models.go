package models

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	FullName       *string   `json:"full_name"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Color       *string   `json:"color"`
	Icon        *string   `json:"icon"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Task struct {
	ID                   string          `json:"id"`
	UserID               string          `json:"user_id"`
	ProjectID            *string         `json:"project_id"`
	ParentTaskID         *string         `json:"parent_task_id"`
	Title                string          `json:"title"`
	Description          *string         `json:"description"`
	Status               string          `json:"status"`
	Priority             string          `json:"priority"`
	DueDate              *time.Time      `json:"due_date"`
	EstimatedDuration    *int            `json:"estimated_duration"`
	ActualDuration       *int            `json:"actual_duration"`
	CompletedAt          *time.Time      `json:"completed_at"`
	Tags                 pq.StringArray  `json:"tags"`
	Metadata             json.RawMessage `json:"metadata"`
	NaturalLanguageInput *string         `json:"natural_language_input"`
	GPTResponse          json.RawMessage `json:"gpt_response"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

type UserSettings struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	LLMProvider         string    `json:"llm_provider"`
	OpenAIAPIKey        *string   `json:"-"`
	LlamaEndpoint       string    `json:"llama_endpoint"`
	Timezone            string    `json:"timezone"`
	DefaultTaskDuration int       `json:"default_task_duration"`
	EnableAutoSubtasks  bool      `json:"enable_auto_subtasks"`
	EnableAutoPriority  bool      `json:"enable_auto_priority"`
	EnableAutoTags      bool      `json:"enable_auto_tags"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// GPTCacheEntry is one row of the memoization table for provider calls,
// keyed by a hash of the input text. Hits never rewrite Output, only the
// access bookkeeping.
type GPTCacheEntry struct {
	ID           string          `json:"id"`
	InputHash    string          `json:"input_hash"`
	InputText    string          `json:"input_text"`
	Output       json.RawMessage `json:"output"`
	Model        *string         `json:"model"`
	TokensUsed   *int            `json:"tokens_used"`
	Cost         *float64        `json:"cost"`
	CreatedAt    time.Time       `json:"created_at"`
	LastAccessed time.Time       `json:"last_accessed"`
	AccessCount  int             `json:"access_count"`
}
