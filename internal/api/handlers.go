// Package api serves the roadmap over HTTP.
package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alexanderramin/roadmap/internal/domain"
	"github.com/alexanderramin/roadmap/internal/importer"
	"github.com/alexanderramin/roadmap/internal/service"
)

const (
	defaultBodyLimit = 1 << 20
	uploadBodyLimit  = 16 << 20
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Handlers holds the services behind the HTTP API.
type Handlers struct {
	Roadmap    service.RoadmapService
	Resourcing service.ResourcingService
	Reports    service.ReportService
	// Now is used to resolve dates without a year. Defaults to time.Now.
	Now func() time.Time
}

func (h *Handlers) today() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// itemRequest is the body of POST /items and PATCH /items/{id}. On PATCH,
// absent fields are left alone, an empty date clears the date, and Release
// hands the named fields back to the roll-up.
type itemRequest struct {
	Type        *string        `json:"type"`
	Title       *string        `json:"title"`
	Epic        *string        `json:"epic"`
	Feature     *string        `json:"feature"`
	Story       *string        `json:"story"`
	AssignedTo  *string        `json:"assignedTo"`
	State       *string        `json:"state"`
	Demo        *string        `json:"demo"`
	StartDate   *string        `json:"startDate"`
	FinishDate  *string        `json:"finishDate"`
	StoryPoints *float64       `json:"storyPoints"`
	Release     []domain.Field `json:"release"`
}

func (h *Handlers) parseDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d := domain.ParseDate(s, h.today())
	if d == nil {
		return nil, fmt.Errorf("%w: %s %q is not a date", domain.ErrValidation, field, s)
	}
	return d, nil
}

func (h *Handlers) toPatch(req itemRequest) (domain.Patch, error) {
	var patch domain.Patch
	text := []struct {
		field domain.Field
		v     *string
	}{
		{domain.FieldType, req.Type},
		{domain.FieldTitle, req.Title},
		{domain.FieldEpic, req.Epic},
		{domain.FieldFeature, req.Feature},
		{domain.FieldStory, req.Story},
		{domain.FieldAssignedTo, req.AssignedTo},
		{domain.FieldState, req.State},
		{domain.FieldDemo, req.Demo},
	}
	for _, t := range text {
		if t.v != nil {
			patch = append(patch, domain.SetText(t.field, *t.v))
		}
	}
	if req.StartDate != nil {
		d, err := h.parseDate("startDate", *req.StartDate)
		if err != nil {
			return nil, err
		}
		patch = append(patch, domain.SetStartDate(d))
	}
	if req.FinishDate != nil {
		d, err := h.parseDate("finishDate", *req.FinishDate)
		if err != nil {
			return nil, err
		}
		patch = append(patch, domain.SetFinishDate(d))
	}
	if req.StoryPoints != nil {
		patch = append(patch, domain.SetStoryPoints(*req.StoryPoints))
	}
	for _, f := range req.Release {
		patch = append(patch, domain.ReleaseOverride(f))
	}
	return patch, patch.Validate()
}

func (h *Handlers) toDraft(req itemRequest) (domain.WorkItem, error) {
	str := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	draft := domain.WorkItem{
		Title:      str(req.Title),
		Epic:       str(req.Epic),
		Feature:    str(req.Feature),
		Story:      str(req.Story),
		AssignedTo: str(req.AssignedTo),
		State:      str(req.State),
		Demo:       str(req.Demo),
	}
	draft.Type = domain.TypeStory
	if req.Type != nil {
		draft.Type = domain.ParseItemType(*req.Type)
	}
	var err error
	if draft.StartDate, err = h.parseDate("startDate", str(req.StartDate)); err != nil {
		return draft, err
	}
	if draft.FinishDate, err = h.parseDate("finishDate", str(req.FinishDate)); err != nil {
		return draft, err
	}
	if req.StoryPoints != nil {
		if *req.StoryPoints < 0 {
			return draft, fmt.Errorf("%w: story points must be non-negative", domain.ErrValidation)
		}
		draft.StoryPoints = *req.StoryPoints
	}
	draft = domain.PinAggregates(draft, req.StoryPoints != nil)
	if draft.Name() == "" {
		return draft, fmt.Errorf("%w: a title or name is required", domain.ErrValidation)
	}
	return draft, nil
}

// ListItems handles GET /api/v1/items. ?type= filters by item type.
func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	items := h.Roadmap.List(r.Context())
	if t := r.URL.Query().Get("type"); t != "" {
		want := domain.ParseItemType(t)
		filtered := items[:0]
		for _, it := range items {
			if it.Type == want {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	writeJSON(w, http.StatusOK, items)
}

// GetItem handles GET /api/v1/items/{id}
func (h *Handlers) GetItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.Roadmap.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "work item not found")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// CreateItem handles POST /api/v1/items
func (h *Handlers) CreateItem(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[itemRequest](w, r, defaultBodyLimit)
	if !ok {
		return
	}
	draft, err := h.toDraft(req)
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	added, err := h.Roadmap.Add(r.Context(), draft)
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

// UpdateItem handles PATCH /api/v1/items/{id}
func (h *Handlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[itemRequest](w, r, defaultBodyLimit)
	if !ok {
		return
	}
	patch, err := h.toPatch(req)
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	updated, err := h.Roadmap.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeDomainError(w, err, "work item not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteItem handles DELETE /api/v1/items/{id}
func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Roadmap.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err, "work item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Hierarchy handles GET /api/v1/hierarchy
func (h *Handlers) Hierarchy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Roadmap.Tree(r.Context()))
}

// Dedupe handles POST /api/v1/dedupe
func (h *Handlers) Dedupe(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Roadmap.Dedupe(r.Context())
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

type importResponse struct {
	Rows       int      `json:"rows"`
	Imported   int      `json:"imported"`
	Skipped    int      `json:"skipped"`
	Duplicates int      `json:"duplicates"`
	BadDates   int      `json:"badDates"`
	Warnings   []string `json:"warnings,omitempty"`
}

func toImportResponse(r importer.Report) importResponse {
	out := importResponse{
		Rows:       r.Rows,
		Imported:   r.Imported,
		Skipped:    r.Skipped,
		Duplicates: r.Duplicates,
		BadDates:   r.BadDates,
	}
	for _, w := range r.Warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}
	return out
}

// ImportCSV handles POST /api/v1/import with a text/csv body. The import
// replaces the whole roadmap.
func (h *Handlers) ImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, uploadBodyLimit)
	report, err := h.Roadmap.ImportCSV(r.Context(), r.Body)
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toImportResponse(*report))
}

// ExportCSV handles GET /api/v1/export
func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.Roadmap.ExportCSV(r.Context(), &buf); err != nil {
		writeDomainError(w, err, "")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="roadmap.csv"`)
	_, _ = w.Write(buf.Bytes())
}

// ExportWorkbook handles GET /api/v1/workbook
func (h *Handlers) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.Roadmap.ExportWorkbook(r.Context(), &buf); err != nil {
		writeDomainError(w, err, "")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="roadmap.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

// ImportWorkbook handles POST /api/v1/workbook with an xlsx body.
func (h *Handlers) ImportWorkbook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, uploadBodyLimit)
	report, err := h.Roadmap.ImportWorkbook(r.Context(), r.Body)
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]importResponse{
		"roadmap":   toImportResponse(report.Roadmap),
		"personnel": toImportResponse(report.Personnel),
		"hardware":  toImportResponse(report.Hardware),
	})
}

type resourcingResponse struct {
	Personnel       domain.PersonnelPlan              `json:"personnel"`
	Hardware        domain.HardwarePlan               `json:"hardware"`
	PersonnelTotals map[string]domain.PersonnelTotals `json:"personnelTotals"`
	HardwareTotals  map[string]float64                `json:"hardwareTotals"`
}

// GetResourcing handles GET /api/v1/resourcing
func (h *Handlers) GetResourcing(w http.ResponseWriter, r *http.Request) {
	personnel, err := h.Resourcing.Personnel(r.Context())
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	hardware, err := h.Resourcing.Hardware(r.Context())
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	resp := resourcingResponse{
		Personnel:       personnel,
		Hardware:        hardware,
		PersonnelTotals: make(map[string]domain.PersonnelTotals),
		HardwareTotals:  make(map[string]float64),
	}
	for _, y := range personnel.Years() {
		resp.PersonnelTotals[y] = personnel.Totals(y)
	}
	for _, y := range hardware.Years() {
		resp.HardwareTotals[y] = hardware.GrandTotal(y)
	}
	writeJSON(w, http.StatusOK, resp)
}

// PutPersonnel handles PUT /api/v1/resourcing/personnel
func (h *Handlers) PutPersonnel(w http.ResponseWriter, r *http.Request) {
	plan, ok := readJSON[domain.PersonnelPlan](w, r, defaultBodyLimit)
	if !ok {
		return
	}
	if err := h.Resourcing.SavePersonnel(r.Context(), plan); err != nil {
		writeDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// PutHardware handles PUT /api/v1/resourcing/hardware
func (h *Handlers) PutHardware(w http.ResponseWriter, r *http.Request) {
	plan, ok := readJSON[domain.HardwarePlan](w, r, defaultBodyLimit)
	if !ok {
		return
	}
	if err := h.Resourcing.SaveHardware(r.Context(), plan); err != nil {
		writeDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// Status handles GET /api/v1/status
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Roadmap.Status(r.Context()))
}

// History handles GET /api/v1/history
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	versions, err := h.Roadmap.History(r.Context(), 0)
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

// Undo handles POST /api/v1/undo
func (h *Handlers) Undo(w http.ResponseWriter, r *http.Request) {
	v, err := h.Roadmap.Undo(r.Context())
	if err != nil {
		writeDomainError(w, err, "nothing to undo")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Report handles GET /api/v1/report. ?format=md returns Markdown, otherwise
// HTML.
func (h *Handlers) Report(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(h.Reports.Markdown(r.Context())))
		return
	}
	html, err := h.Reports.HTML(r.Context())
	if err != nil {
		writeDomainError(w, err, "")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
