package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alexanderramin/roadmap/internal/cache"
	"github.com/alexanderramin/roadmap/internal/domain"
	"github.com/alexanderramin/roadmap/internal/importer"
	"github.com/alexanderramin/roadmap/internal/repository"
	"github.com/alexanderramin/roadmap/internal/store"
)

type roadmapService struct {
	store    *store.Store
	docs     repository.DocumentRepo
	res      ResourcingService
	trees    *cache.TreeCache
	log      *slog.Logger
	now      func() time.Time
	observer UseCaseObserver
}

// NewRoadmapService serves use cases over st. Persisting changes is the job
// of the store's observers; docs is read for loading, history and workbook
// side tables. res supplies the resourcing sheets of an exported workbook.
// trees may be nil, in which case every Tree call rebuilds.
func NewRoadmapService(
	st *store.Store,
	docs repository.DocumentRepo,
	res ResourcingService,
	trees *cache.TreeCache,
	log *slog.Logger,
	observers ...UseCaseObserver,
) RoadmapService {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if res == nil {
		res = NewResourcingService(docs, nil)
	}
	return &roadmapService{
		store:    st,
		docs:     docs,
		res:      res,
		trees:    trees,
		log:      log,
		now:      time.Now,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *roadmapService) loadSaved(ctx context.Context) ([]domain.WorkItem, error) {
	doc, err := s.docs.Load(ctx, domain.TasksDocumentKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading roadmap: %w", err)
	}
	return store.DecodeTasks(doc.Body)
}

func (s *roadmapService) Load(ctx context.Context) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer observe(ctx, s.observer, "load", startedAt, &err, fields)

	items, err := s.loadSaved(ctx)
	if err != nil {
		return err
	}
	fields["items"] = len(items)
	return s.store.Load(ctx, items)
}

func (s *roadmapService) Reload(ctx context.Context) error {
	items, err := s.loadSaved(ctx)
	if err != nil {
		return err
	}
	s.log.Info("roadmap changed elsewhere, reloaded", "items", len(items))
	return s.store.Reload(ctx, items)
}

func (s *roadmapService) List(context.Context) []domain.WorkItem {
	items, _ := s.store.Snapshot()
	return items
}

func (s *roadmapService) Get(_ context.Context, id string) (domain.WorkItem, error) {
	it, ok := s.store.Get(id)
	if !ok {
		return domain.WorkItem{}, fmt.Errorf("work item %s: %w", id, domain.ErrNotFound)
	}
	return it, nil
}

func (s *roadmapService) Tree(context.Context) *domain.Tree {
	items, rev := s.store.Snapshot()
	if s.trees != nil {
		if t, ok := s.trees.Get(rev); ok {
			return t
		}
	}
	t := domain.BuildHierarchy(items)
	if s.trees != nil {
		s.trees.Set(rev, t)
	}
	return t
}

func (s *roadmapService) Add(ctx context.Context, draft domain.WorkItem) (added domain.WorkItem, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"type": string(draft.Type)}
	defer observe(ctx, s.observer, "add-item", startedAt, &err, fields)

	added, err = s.store.Add(ctx, draft)
	fields["id"] = added.ID
	return added, err
}

func (s *roadmapService) Update(ctx context.Context, id string, patch domain.Patch) (updated domain.WorkItem, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"id": id, "changes": len(patch)}
	defer observe(ctx, s.observer, "update-item", startedAt, &err, fields)

	updated, err = s.store.Update(ctx, id, patch)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Warn("update ignored, no such work item", "id", id)
	}
	return updated, err
}

func (s *roadmapService) Delete(ctx context.Context, id string) (err error) {
	startedAt := time.Now().UTC()
	defer observe(ctx, s.observer, "delete-item", startedAt, &err, map[string]any{"id": id})

	return s.store.Delete(ctx, id)
}

func (s *roadmapService) Dedupe(ctx context.Context) (removed int, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer observe(ctx, s.observer, "dedupe", startedAt, &err, fields)

	removed, err = s.store.Dedupe(ctx)
	fields["removed"] = removed
	return removed, err
}

func (s *roadmapService) importOptions() importer.Options {
	return importer.Options{Today: s.now()}
}

func (s *roadmapService) ImportCSV(ctx context.Context, r io.Reader) (report *importer.Report, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer observe(ctx, s.observer, "import-csv", startedAt, &err, fields)

	rows, err := importer.ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv has no header row: %w", domain.ErrValidation)
	}
	items, rep := importer.ImportTable(rows, s.importOptions())
	fields["imported"] = rep.Imported
	fields["skipped"] = rep.Skipped
	if err = s.store.Import(ctx, items); err != nil {
		return &rep, err
	}
	return &rep, nil
}

func (s *roadmapService) ExportCSV(_ context.Context, w io.Writer) error {
	items, _ := s.store.Snapshot()
	return importer.WriteCSV(w, importer.ExportTable(items))
}

// ImportWorkbook replaces the roadmap with the workbook's Roadmap sheet and
// the resourcing plans with its other sheets, when present. The plans are
// written first so a failing save leaves the roadmap as it was.
func (s *roadmapService) ImportWorkbook(ctx context.Context, r io.Reader) (report *importer.WorkbookReport, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer observe(ctx, s.observer, "import-workbook", startedAt, &err, fields)

	wb, rep, err := importer.ReadWorkbook(r, s.importOptions())
	if err != nil {
		return nil, err
	}
	fields["imported"] = rep.Roadmap.Imported

	docs := make(map[string]json.RawMessage, 2)
	if wb.Personnel != nil {
		if docs[domain.PersonnelDocumentKey], err = json.Marshal(wb.Personnel); err != nil {
			return nil, fmt.Errorf("encoding personnel plan: %w", err)
		}
	}
	if wb.Hardware != nil {
		if docs[domain.HardwareDocumentKey], err = json.Marshal(wb.Hardware); err != nil {
			return nil, fmt.Errorf("encoding hardware plan: %w", err)
		}
	}
	if len(docs) > 0 {
		if err = s.docs.SaveMany(ctx, docs); err != nil {
			return nil, fmt.Errorf("saving resourcing plans: %w", err)
		}
	}
	if err = s.store.Import(ctx, wb.Items); err != nil {
		return &rep, err
	}
	return &rep, nil
}

func (s *roadmapService) ExportWorkbook(ctx context.Context, w io.Writer) error {
	items, _ := s.store.Snapshot()
	personnel, err := s.res.Personnel(ctx)
	if err != nil {
		return err
	}
	hardware, err := s.res.Hardware(ctx)
	if err != nil {
		return err
	}
	return importer.WriteWorkbook(w, importer.Workbook{Items: items, Personnel: personnel, Hardware: hardware})
}

func (s *roadmapService) History(ctx context.Context, limit int) ([]Version, error) {
	docs, err := s.docs.History(ctx, domain.TasksDocumentKey, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Version, 0, len(docs))
	for _, d := range docs {
		items, err := store.DecodeTasks(d.Body)
		if err != nil {
			s.log.Warn("skipping unreadable history entry", "revision", d.Revision, "error", err)
			continue
		}
		out = append(out, Version{Revision: d.Revision, Items: len(items), UpdatedAt: d.UpdatedAt})
	}
	return out, nil
}

func (s *roadmapService) Undo(ctx context.Context) (v *Version, err error) {
	startedAt := time.Now().UTC()
	defer observe(ctx, s.observer, "undo", startedAt, &err, nil)

	docs, err := s.docs.History(ctx, domain.TasksDocumentKey, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no earlier version to restore: %w", domain.ErrNotFound)
	}
	items, err := store.DecodeTasks(docs[0].Body)
	if err != nil {
		return nil, err
	}
	if err = s.store.Restore(ctx, items); err != nil {
		return nil, err
	}
	return &Version{Revision: docs[0].Revision, Items: len(items), UpdatedAt: docs[0].UpdatedAt}, nil
}

func (s *roadmapService) Status(context.Context) Status {
	st := Status{Items: s.store.Len(), Revision: s.store.Revision()}
	if r, ok := s.docs.(StorageStatus); ok {
		st.Storage = r.Status()
	} else {
		st.Storage = repository.Status{Backend: repository.BackendLocal}
	}
	return st
}
