package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexanderramin/roadmap/internal/db"
	"github.com/alexanderramin/roadmap/internal/domain"
)

// SQLiteDocumentRepo is the local DocumentRepo.
type SQLiteDocumentRepo struct {
	db  db.DBTX
	uow db.UnitOfWork
}

func NewSQLiteDocumentRepo(conn db.DBTX, uow db.UnitOfWork) *SQLiteDocumentRepo {
	return &SQLiteDocumentRepo{db: conn, uow: uow}
}

func (r *SQLiteDocumentRepo) Load(ctx context.Context, key string) (*Document, error) {
	return loadSQLiteDocument(ctx, r.db, key)
}

func (r *SQLiteDocumentRepo) Save(ctx context.Context, key string, body json.RawMessage) (*Document, error) {
	var saved *Document
	err := r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		doc, err := saveSQLiteDocument(ctx, tx, key, body)
		saved = doc
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *SQLiteDocumentRepo) SaveMany(ctx context.Context, docs map[string]json.RawMessage) error {
	return r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		for _, key := range sortedKeys(docs) {
			if _, err := saveSQLiteDocument(ctx, tx, key, docs[key]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteDocumentRepo) History(ctx context.Context, key string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = historyDepth
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, revision, body, replaced_at FROM document_history
		 WHERE key = ? ORDER BY revision DESC LIMIT ?`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history for %s: %w", key, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			d          Document
			body, when string
		)
		if err := rows.Scan(&d.Key, &d.Revision, &body, &when); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		d.Body = json.RawMessage(body)
		d.UpdatedAt = parseTimestamp(when)
		out = append(out, d)
	}
	return out, rows.Err()
}

func loadSQLiteDocument(ctx context.Context, conn db.DBTX, key string) (*Document, error) {
	var (
		d          = Document{Key: key}
		body, when string
	)
	err := conn.QueryRowContext(ctx,
		`SELECT body, revision, updated_at FROM documents WHERE key = ?`, key,
	).Scan(&body, &d.Revision, &when)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("loading document %s: %w", key, err)
	}
	d.Body = json.RawMessage(body)
	d.UpdatedAt = parseTimestamp(when)
	return &d, nil
}

// saveSQLiteDocument archives the current body, if any, then replaces it.
func saveSQLiteDocument(ctx context.Context, tx db.DBTX, key string, body json.RawMessage) (*Document, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("document %s: body is not valid JSON: %w", key, domain.ErrValidation)
	}
	now := nowUTC()

	prev, err := loadSQLiteDocument(ctx, tx, key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		prev = &Document{Key: key}
	case err != nil:
		return nil, err
	default:
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO document_history (key, revision, body, replaced_at) VALUES (?, ?, ?, ?)`,
			key, prev.Revision, string(prev.Body), now.Format(timestampLayout),
		); err != nil {
			return nil, fmt.Errorf("archiving document %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM document_history WHERE key = ? AND id NOT IN (
				SELECT id FROM document_history WHERE key = ? ORDER BY revision DESC LIMIT ?)`,
			key, key, historyDepth,
		); err != nil {
			return nil, fmt.Errorf("pruning history for %s: %w", key, err)
		}
	}

	doc := &Document{Key: key, Body: body, Revision: prev.Revision + 1, UpdatedAt: now}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (key, body, revision, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body, revision = excluded.revision,
		 updated_at = excluded.updated_at`,
		key, string(body), doc.Revision, now.Format(timestampLayout),
	); err != nil {
		return nil, fmt.Errorf("saving document %s: %w", key, err)
	}
	return doc, nil
}
