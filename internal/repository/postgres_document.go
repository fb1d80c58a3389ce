package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexanderramin/roadmap/internal/domain"
)

// PostgresDocumentRepo is the cloud DocumentRepo.
type PostgresDocumentRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresDocumentRepo(pool *pgxpool.Pool) *PostgresDocumentRepo {
	return &PostgresDocumentRepo{pool: pool}
}

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PostgresDocumentRepo) Load(ctx context.Context, key string) (*Document, error) {
	return loadPostgresDocument(ctx, r.pool, key)
}

func (r *PostgresDocumentRepo) Save(ctx context.Context, key string, body json.RawMessage) (*Document, error) {
	var saved *Document
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		doc, err := savePostgresDocument(ctx, tx, key, body)
		saved = doc
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *PostgresDocumentRepo) SaveMany(ctx context.Context, docs map[string]json.RawMessage) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, key := range sortedKeys(docs) {
			if _, err := savePostgresDocument(ctx, tx, key, docs[key]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresDocumentRepo) History(ctx context.Context, key string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = historyDepth
	}
	rows, err := r.pool.Query(ctx,
		`SELECT key, revision, body, replaced_at FROM document_history
		 WHERE key = $1 ORDER BY revision DESC LIMIT $2`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("query history for %s: %w", key, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			d    Document
			body []byte
		)
		if err := rows.Scan(&d.Key, &d.Revision, &body, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		d.Body = json.RawMessage(body)
		out = append(out, d)
	}
	return out, rows.Err()
}

func loadPostgresDocument(ctx context.Context, q rowQuerier, key string) (*Document, error) {
	var (
		d    = Document{Key: key}
		body []byte
	)
	err := q.QueryRow(ctx,
		`SELECT body, revision, updated_at FROM documents WHERE key = $1`, key,
	).Scan(&body, &d.Revision, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("load document %s: %w", key, err)
	}
	d.Body = json.RawMessage(body)
	return &d, nil
}

// savePostgresDocument archives the current body, if any, then replaces it.
// The row lock taken by FOR UPDATE orders concurrent writers; the last one
// wins.
func savePostgresDocument(ctx context.Context, tx pgx.Tx, key string, body json.RawMessage) (*Document, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("document %s: body is not valid JSON: %w", key, domain.ErrValidation)
	}

	var revision int64
	err := tx.QueryRow(ctx,
		`SELECT revision FROM documents WHERE key = $1 FOR UPDATE`, key,
	).Scan(&revision)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("lock document %s: %w", key, err)
	default:
		if _, err := tx.Exec(ctx,
			`INSERT INTO document_history (key, revision, body)
			 SELECT key, revision, body FROM documents WHERE key = $1`, key,
		); err != nil {
			return nil, fmt.Errorf("archive document %s: %w", key, err)
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM document_history WHERE key = $1 AND id NOT IN (
				SELECT id FROM document_history WHERE key = $1 ORDER BY revision DESC LIMIT $2)`,
			key, historyDepth,
		); err != nil {
			return nil, fmt.Errorf("prune history for %s: %w", key, err)
		}
	}

	doc := &Document{Key: key, Body: body}
	err = tx.QueryRow(ctx,
		`INSERT INTO documents (key, body, revision, updated_at) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, revision = EXCLUDED.revision,
		 updated_at = EXCLUDED.updated_at
		 RETURNING revision, updated_at`,
		key, []byte(body), revision+1,
	).Scan(&doc.Revision, &doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("save document %s: %w", key, err)
	}
	return doc, nil
}
