package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alexanderramin/roadmap/internal/domain"
	"github.com/alexanderramin/roadmap/internal/repository"
)

// DocumentSaver is the write side of repository.DocumentRepo.
type DocumentSaver interface {
	Save(ctx context.Context, key string, body json.RawMessage) (*repository.Document, error)
}

// PersistObserver writes the whole collection under
// domain.TasksDocumentKey after every persistent change.
type PersistObserver struct {
	repo DocumentSaver
	log  *slog.Logger
}

func NewPersistObserver(repo DocumentSaver, log *slog.Logger) *PersistObserver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &PersistObserver{repo: repo, log: log}
}

func (p *PersistObserver) OnChange(ctx context.Context, ev ChangeEvent) error {
	if !ev.Persistent() {
		return nil
	}
	if err := Save(ctx, p.repo, ev.Items); err != nil {
		return err
	}
	p.log.Debug("roadmap saved", "op", ev.Op, "revision", ev.Revision, "items", len(ev.Items))
	return nil
}

// Save writes items as the tasks document.
func Save(ctx context.Context, repo DocumentSaver, items []domain.WorkItem) error {
	body, err := EncodeTasks(items)
	if err != nil {
		return err
	}
	if _, err := repo.Save(ctx, domain.TasksDocumentKey, body); err != nil {
		return fmt.Errorf("saving roadmap: %w", err)
	}
	return nil
}
