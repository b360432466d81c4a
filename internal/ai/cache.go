package ai

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
)

// HashInput derives the gpt_cache key for a piece of input text.
func HashInput(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// CacheLookup returns the memoized output for an input hash, if present.
// A hit only bumps the access bookkeeping; the stored output is never
// rewritten on read.
func CacheLookup(db *sql.DB, inputHash string) (json.RawMessage, bool, error) {
	if db == nil {
		return nil, false, nil
	}
	var output json.RawMessage
	err := db.QueryRow(
		`UPDATE gpt_cache
		 SET access_count = access_count + 1, last_accessed = CURRENT_TIMESTAMP
		 WHERE input_hash = $1
		 RETURNING output`,
		inputHash).Scan(&output)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return output, true, nil
}

// CacheStore memoizes a provider result. Concurrent identical misses may
// both land here; output for the same key is deterministic enough that the
// second write is a safe overwrite.
func CacheStore(db *sql.DB, inputHash, inputText string, output json.RawMessage, model string, tokensUsed int, cost float64) error {
	if db == nil {
		return nil
	}
	_, err := db.Exec(
		`INSERT INTO gpt_cache (id, input_hash, input_text, output, model, tokens_used, cost)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (input_hash) DO UPDATE
		 SET output = EXCLUDED.output, last_accessed = CURRENT_TIMESTAMP`,
		uuid.New().String(), inputHash, inputText, []byte(output), model, tokensUsed, cost)
	return err
}
