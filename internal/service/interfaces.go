package service

import (
	"context"
	"io"
	"time"

	"github.com/alexanderramin/roadmap/internal/domain"
	"github.com/alexanderramin/roadmap/internal/importer"
	"github.com/alexanderramin/roadmap/internal/repository"
)

type RoadmapService interface {
	// Load reads the saved roadmap into the store. A missing document
	// starts an empty roadmap.
	Load(ctx context.Context) error
	// Reload re-reads the saved roadmap after another instance changed it.
	Reload(ctx context.Context) error
	List(ctx context.Context) []domain.WorkItem
	Get(ctx context.Context, id string) (domain.WorkItem, error)
	// Tree returns the hierarchy view of the current revision. The tree is
	// shared and must not be modified.
	Tree(ctx context.Context) *domain.Tree
	Add(ctx context.Context, draft domain.WorkItem) (domain.WorkItem, error)
	Update(ctx context.Context, id string, patch domain.Patch) (domain.WorkItem, error)
	Delete(ctx context.Context, id string) error
	Dedupe(ctx context.Context) (int, error)
	ImportCSV(ctx context.Context, r io.Reader) (*importer.Report, error)
	ExportCSV(ctx context.Context, w io.Writer) error
	ImportWorkbook(ctx context.Context, r io.Reader) (*importer.WorkbookReport, error)
	ExportWorkbook(ctx context.Context, w io.Writer) error
	History(ctx context.Context, limit int) ([]Version, error)
	// Undo restores the most recently replaced version. Undoing twice
	// returns to where the first undo started.
	Undo(ctx context.Context) (*Version, error)
	Status(ctx context.Context) Status
}

type ResourcingService interface {
	Personnel(ctx context.Context) (domain.PersonnelPlan, error)
	Hardware(ctx context.Context) (domain.HardwarePlan, error)
	SavePersonnel(ctx context.Context, plan domain.PersonnelPlan) error
	SaveHardware(ctx context.Context, plan domain.HardwarePlan) error
}

type ReportService interface {
	Summary(ctx context.Context) Summary
	Markdown(ctx context.Context) string
	HTML(ctx context.Context) (string, error)
}

// Version is one saved state of the roadmap.
type Version struct {
	Revision  int64     `json:"revision"`
	Items     int       `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Status reports the size of the roadmap and where it is stored.
type Status struct {
	Storage  repository.Status `json:"storage"`
	Items    int               `json:"items"`
	Revision uint64            `json:"revision"`
}

// StorageStatus is implemented by repositories that can report which
// backend is in use.
type StorageStatus interface {
	Status() repository.Status
}
