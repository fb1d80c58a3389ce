package service

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/alexanderramin/roadmap/internal/cache"
	"github.com/alexanderramin/roadmap/internal/domain"
	"github.com/alexanderramin/roadmap/internal/repository"
	"github.com/alexanderramin/roadmap/internal/store"
	"github.com/alexanderramin/roadmap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.events))
	for i, e := range o.events {
		out[i] = e.Name
	}
	return out
}

type fixture struct {
	store      *store.Store
	docs       *repository.FallbackRepo
	roadmap    RoadmapService
	resourcing ResourcingService
	report     ReportService
	observer   *recordingObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	local := repository.NewSQLiteDocumentRepo(database, testutil.NewTestUoW(database))
	docs := repository.NewLocalRepo(local, nil)

	st := store.New()
	st.Subscribe(store.NewPersistObserver(docs, nil))

	trees, err := cache.NewTreeCache(8)
	require.NoError(t, err)
	t.Cleanup(trees.Close)

	obs := &recordingObserver{}
	res := NewResourcingService(docs, []string{"2026"})
	rm := NewRoadmapService(st, docs, res, trees, nil, obs)
	return &fixture{
		store:      st,
		docs:       docs,
		roadmap:    rm,
		resourcing: res,
		report:     NewReportService(rm, res),
		observer:   obs,
	}
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Import(context.Background(), testutil.SampleRoadmap()))
}

func TestRoadmap_LoadMissingStartsEmpty(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.roadmap.Load(context.Background()))
	assert.Empty(t, f.roadmap.List(context.Background()))
	assert.Equal(t, []string{"load"}, f.observer.names())
}

func TestRoadmap_ChangesSurviveReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t)

	added, err := f.roadmap.Add(ctx, domain.WorkItem{Type: domain.TypeStory, Epic: "Platform", Feature: "Auth", Story: "Reset password"})
	require.NoError(t, err)

	fresh := NewRoadmapService(store.New(), f.docs, nil, nil, nil)
	require.NoError(t, fresh.Load(ctx))
	got, err := fresh.Get(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reset password", got.Name())
	assert.Len(t, fresh.List(ctx), 10)
}

func TestRoadmap_UpdateUnknownID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t)
	rev := f.store.Revision()

	_, err := f.roadmap.Update(ctx, "missing", domain.Patch{domain.SetText(domain.FieldState, "Done")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, rev, f.store.Revision())

	_, err = f.roadmap.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoadmap_UpdateRollsUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t)

	login := findByName(t, f.roadmap.List(ctx), "Login")
	_, err := f.roadmap.Update(ctx, login.ID, domain.Patch{domain.SetStoryPoints(8)})
	require.NoError(t, err)

	tree := f.roadmap.Tree(ctx)
	assert.Equal(t, 10.0, tree.Epic("Platform").Feature("Auth").Item.StoryPoints)
}

func TestRoadmap_TreeCachedPerRevision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t)

	first := f.roadmap.Tree(ctx)
	assert.Same(t, first, f.roadmap.Tree(ctx))

	_, err := f.roadmap.Add(ctx, domain.WorkItem{Type: domain.TypeEpic, Epic: "Ops"})
	require.NoError(t, err)
	second := f.roadmap.Tree(ctx)
	assert.NotSame(t, first, second)
	assert.NotNil(t, second.Epic("Ops"))
}

func TestRoadmap_ImportCSVReplaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t)

	csv := "Work Item Type,Title 1,Title 2,Title 3,Story Points\nEpic,New,,,\nFeature,,F,,\nUser Story,,,S,2\n,,,,\n"
	report, err := f.roadmap.ImportCSV(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Imported)
	assert.Equal(t, 1, report.Skipped)

	items := f.roadmap.List(ctx)
	assert.Len(t, items, 3)
	assert.Nil(t, f.roadmap.Tree(ctx).Epic("Platform"))
}

func TestRoadmap_ImportCSVEmpty(t *testing.T) {
	f := newFixture(t)
	_, err := f.roadmap.ImportCSV(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRoadmap_CSVRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t)

	var buf bytes.Buffer
	require.NoError(t, f.roadmap.ExportCSV(ctx, &buf))

	other := newFixture(t)
	report, err := other.roadmap.ImportCSV(ctx, &buf)
	require.NoError(t, err)
	assert.Zero(t, report.Skipped)
	assert.Len(t, other.roadmap.List(ctx), 9)
	assert.Equal(t, 5.0, other.roadmap.Tree(ctx).Epic("Reporting").Item.StoryPoints)
}

func TestRoadmap_WorkbookRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t)

	plan := domain.PersonnelPlan{"2030": {{Position: "Tech Lead", Source: domain.InHouseSource, Cost: 1, Qty: 2, StoryPointsPerMonth: 3}}}
	require.NoError(t, f.resourcing.SavePersonnel(ctx, plan))

	var buf bytes.Buffer
	require.NoError(t, f.roadmap.ExportWorkbook(ctx, &buf))

	other := newFixture(t)
	report, err := other.roadmap.ImportWorkbook(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 9, report.Roadmap.Imported)
	assert.Len(t, other.roadmap.List(ctx), 9)

	got, err := other.resourcing.Personnel(ctx)
	require.NoError(t, err)
	assert.Equal(t, plan, got)
	hw, err := other.resourcing.Hardware(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultHardwarePlan(), hw)
}

func TestRoadmap_UndoRestoresPreviousVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t)

	_, err := f.roadmap.Undo(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.roadmap.Add(ctx, domain.WorkItem{Type: domain.TypeTask, Title: "Extra"})
	require.NoError(t, err)
	require.Len(t, f.roadmap.List(ctx), 10)

	history, err := f.roadmap.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 9, history[0].Items)

	v, err := f.roadmap.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, v.Items)
	assert.Len(t, f.roadmap.List(ctx), 9)
}

func TestRoadmap_Dedupe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t)
	_, err := f.roadmap.Add(ctx, domain.WorkItem{Type: domain.TypeStory, Epic: "platform", Feature: "AUTH", Story: " login "})
	require.NoError(t, err)

	removed, err := f.roadmap.Dedupe(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Len(t, f.roadmap.List(ctx), 9)
}

func TestRoadmap_Status(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	st := f.roadmap.Status(context.Background())
	assert.Equal(t, 9, st.Items)
	assert.Equal(t, repository.BackendLocal, st.Storage.Backend)
	assert.False(t, st.Storage.CloudConfigured)
	assert.Empty(t, st.Storage.Banner)
}

func TestRoadmap_ReloadPicksUpExternalSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t)

	require.NoError(t, store.Save(ctx, f.docs, testutil.SampleRoadmap()[:2]))
	require.NoError(t, f.roadmap.Reload(ctx))
	assert.Len(t, f.roadmap.List(ctx), 2)
}

func TestResourcing_DefaultsAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	plan, err := f.resourcing.Personnel(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026"}, plan.Years())

	err = f.resourcing.SavePersonnel(ctx, domain.PersonnelPlan{"2026": {{Position: "", Qty: 1}}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	err = f.resourcing.SaveHardware(ctx, domain.HardwarePlan{"FY26": {{Item: "GPU", Cost: -1}}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	hw := domain.HardwarePlan{"FY30": {{Category: "Devices", Item: "GPU", Cost: 10, Qty: 2}}}
	require.NoError(t, f.resourcing.SaveHardware(ctx, hw))
	got, err := f.resourcing.Hardware(ctx)
	require.NoError(t, err)
	assert.Equal(t, hw, got)
}

func TestReport_SummaryAndRendering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t)

	sum := f.report.Summary(ctx)
	assert.Equal(t, 4, sum.ByType[domain.TypeStory])
	assert.Equal(t, 1, sum.ByType[domain.TypeTask])
	assert.Equal(t, 11.0, sum.TotalPoints)
	require.Len(t, sum.Epics, 2)
	assert.Equal(t, "Platform", sum.Epics[0].Name)
	assert.Equal(t, 5.0, sum.Epics[0].Points)
	assert.Equal(t, 3, sum.Epics[0].Stories)
	require.Len(t, sum.Unscheduled, 1)
	assert.Equal(t, "Spike", sum.Unscheduled[0].Story)
	assert.Equal(t, "2026", sum.VelocityYear)
	assert.Equal(t, 286.0, sum.Velocity)

	md := f.report.Markdown(ctx)
	assert.Contains(t, md, "| Platform | 5 | 2026-04-01 | 2026-04-09 | 1 | 3 |")
	assert.Contains(t, md, "- Spike (Platform / -)")

	html, err := f.report.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<h1>Roadmap summary</h1>")
}

func findByName(t *testing.T, items []domain.WorkItem, name string) domain.WorkItem {
	t.Helper()
	for _, it := range items {
		if it.Name() == name {
			return it
		}
	}
	t.Fatalf("no item named %q", name)
	return domain.WorkItem{}
}

