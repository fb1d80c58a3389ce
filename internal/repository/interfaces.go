package repository

import (
	"context"
	"encoding/json"
	"time"
)

// Document is one persisted JSON body. Revision increases by one on every
// save of the same key.
type Document struct {
	Key       string
	Body      json.RawMessage
	Revision  int64
	UpdatedAt time.Time
}

// DocumentRepo stores whole documents by key. Saves replace the previous
// body; the replaced body is kept in the key's history.
type DocumentRepo interface {
	// Load returns domain.ErrNotFound when nothing was saved under key.
	Load(ctx context.Context, key string) (*Document, error)
	Save(ctx context.Context, key string, body json.RawMessage) (*Document, error)
	// SaveMany saves every document or none of them.
	SaveMany(ctx context.Context, docs map[string]json.RawMessage) error
	// History lists replaced bodies for key, newest first.
	History(ctx context.Context, key string, limit int) ([]Document, error)
}

// historyDepth is how many replaced bodies are kept per key.
const historyDepth = 20
