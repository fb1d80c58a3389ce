package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/roadmap/internal/cache"
	"github.com/alexanderramin/roadmap/internal/domain"
	"github.com/alexanderramin/roadmap/internal/repository"
	"github.com/alexanderramin/roadmap/internal/service"
	"github.com/alexanderramin/roadmap/internal/store"
	"github.com/alexanderramin/roadmap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cliToday = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) *App {
	t.Helper()
	database := testutil.NewTestDB(t)
	docs := repository.NewLocalRepo(repository.NewSQLiteDocumentRepo(database, testutil.NewTestUoW(database)), nil)

	st := store.New()
	st.Subscribe(store.NewPersistObserver(docs, nil))
	trees, err := cache.NewTreeCache(8)
	require.NoError(t, err)
	t.Cleanup(trees.Close)

	res := service.NewResourcingService(docs, []string{"2026"})
	rm := service.NewRoadmapService(st, docs, res, trees, nil)
	require.NoError(t, rm.Load(context.Background()))

	return &App{
		Roadmap:    rm,
		Resourcing: res,
		Reports:    service.NewReportService(rm, res),
		Now:        func() time.Time { return cliToday },
	}
}

// seedRoadmap adds the sample roadmap one item at a time.
func seedRoadmap(t *testing.T, app *App) {
	t.Helper()
	for _, it := range testutil.SampleRoadmap() {
		_, err := app.Roadmap.Add(context.Background(), it)
		require.NoError(t, err)
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func itemNamed(t *testing.T, app *App, name string) domain.WorkItem {
	t.Helper()
	for _, it := range app.Roadmap.List(context.Background()) {
		if it.Name() == name {
			return it
		}
	}
	t.Fatalf("no item named %q", name)
	return domain.WorkItem{}
}

// --- item ---

func TestItemAdd_Story(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "item", "add", "--epic", "Platform", "--story", "Login",
		"--points", "3", "--start", "4/1/2026", "--finish", "26-Apr")
	require.NoError(t, err)
	assert.Contains(t, out, "Login")

	it := itemNamed(t, app, "Login")
	assert.Equal(t, domain.TypeStory, it.Type)
	assert.Equal(t, 3.0, it.StoryPoints)
	assert.Equal(t, "2026-04-01", domain.FormatDate(it.StartDate))
	assert.Equal(t, "2026-04-26", domain.FormatDate(it.FinishDate))
}

func TestItemAdd_EpicDatesPinned(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)

	_, err := executeCmd(t, app, "item", "add", "--type", "epic", "--epic", "Ops", "--finish", "2026-06-30")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "item", "add", "--epic", "Ops", "--story", "Rotate keys", "--finish", "2026-08-01")
	require.NoError(t, err)

	ops := app.Roadmap.Tree(context.Background()).Epic("Ops")
	require.NotNil(t, ops)
	assert.True(t, ops.Item.ManuallySetFinish)
	assert.False(t, ops.Item.ManuallySetStart)
	assert.Equal(t, "2026-06-30", domain.FormatDate(ops.Item.FinishDate))
}

func TestItemAdd_RequiresName(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "item", "add", "--type", "epic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestItemAdd_BadDate(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "item", "add", "--story", "S", "--start", "soon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --start date")
}

func TestItemAdd_InteractiveNeedsTerminal(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "item", "add", "-i")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal")
}

func TestItemList_FiltersByType(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)

	out, err := executeCmd(t, app, "item", "list", "--type", "epic")
	require.NoError(t, err)
	assert.Contains(t, out, "Platform")
	assert.Contains(t, out, "Reporting")
	assert.NotContains(t, out, "Login")
}

func TestItemShow_ByName(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)

	out, err := executeCmd(t, app, "item", "show", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logout")
	assert.Contains(t, out, "2026-04-09")
}

func TestItemUpdate_PinsAndReleases(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)
	epic := itemNamed(t, app, "Platform")

	_, err := executeCmd(t, app, "item", "update", epic.ID, "--points", "40")
	require.NoError(t, err)
	pinned := itemNamed(t, app, "Platform")
	assert.Equal(t, 40.0, pinned.StoryPoints)
	assert.True(t, pinned.ManuallySetStoryPoints)

	_, err = executeCmd(t, app, "item", "update", epic.ID, "--release", "points")
	require.NoError(t, err)
	released := itemNamed(t, app, "Platform")
	assert.False(t, released.ManuallySetStoryPoints)
	assert.Equal(t, 5.0, app.Roadmap.Tree(context.Background()).Epic("Platform").Item.StoryPoints)
}

func TestItemUpdate_UnknownIDWarns(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)

	out, err := executeCmd(t, app, "item", "update", "no-such-item", "--state", "Done")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing changed")
	assert.Len(t, app.Roadmap.List(context.Background()), len(testutil.SampleRoadmap()))
}

func TestItemUpdate_NeedsAField(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)

	_, err := executeCmd(t, app, "item", "update", "Login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestItemUpdate_BadRelease(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)

	_, err := executeCmd(t, app, "item", "update", "Platform", "--release", "state")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--release")
}

func TestItemDelete_KeepsChildren(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)

	_, err := executeCmd(t, app, "item", "rm", "Auth")
	require.NoError(t, err)
	assert.Len(t, app.Roadmap.List(context.Background()), len(testutil.SampleRoadmap())-1)

	out, err := executeCmd(t, app, "tree")
	require.NoError(t, err)
	assert.Contains(t, out, "Auth")
	assert.Contains(t, out, "Login")
}

// --- tree ---

func TestTree_ShowsHierarchy(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)

	out, err := executeCmd(t, app, "tree")
	require.NoError(t, err)
	for _, want := range []string{"Platform", "Auth", "Login", "Spike", "Reporting", "TASKS", "Write runbook"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "MISSING PARENT")
}

// --- import / export ---

func TestImportExport_CSV(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)
	dir := t.TempDir()
	path := filepath.Join(dir, "roadmap.csv")

	_, err := executeCmd(t, app, "export", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Burn-down")

	fresh := testApp(t)
	out, err := executeCmd(t, fresh, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "imported")
	assert.Len(t, fresh.Roadmap.List(context.Background()), len(testutil.SampleRoadmap()))
}

func TestExport_Stdout(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)

	out, err := executeCmd(t, app, "export")
	require.NoError(t, err)
	assert.Contains(t, out, "Work Item Type")
	assert.Contains(t, out, "Logout")
}

func TestImport_MissingFile(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "import", filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestWorkbook_RoundTrip(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)
	path := filepath.Join(t.TempDir(), "roadmap.xlsx")

	_, err := executeCmd(t, app, "workbook", "export", path)
	require.NoError(t, err)

	fresh := testApp(t)
	out, err := executeCmd(t, fresh, "workbook", "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Roadmap")
	assert.Contains(t, out, "Personnel")
	assert.Len(t, fresh.Roadmap.List(context.Background()), len(testutil.SampleRoadmap()))
}

func TestDedupe(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)
	_, err := app.Roadmap.Add(context.Background(), testutil.NewStory("Platform", "Auth", "login"))
	require.NoError(t, err)

	out, err := executeCmd(t, app, "dedupe")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 duplicate")
}

// --- resourcing / report ---

func TestResourcingShow(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "resourcing", "show", "--year", "2026")
	require.NoError(t, err)
	assert.Contains(t, out, "2026")
}

func TestReport_MarkdownAndHTML(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)

	out, err := executeCmd(t, app, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "# Roadmap summary")

	path := filepath.Join(t.TempDir(), "report.html")
	_, err = executeCmd(t, app, "report", "--html", "-o", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<table>")
}

// --- status / history / undo ---

func TestStatus_LocalStore(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)

	out, err := executeCmd(t, app, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "local")
	assert.Contains(t, out, "not configured")
}

func TestUndo_RestoresAndToggles(t *testing.T) {
	app := testApp(t)
	seedRoadmap(t, app)
	before := len(app.Roadmap.List(context.Background()))

	_, err := executeCmd(t, app, "item", "delete", "Write runbook")
	require.NoError(t, err)
	require.Len(t, app.Roadmap.List(context.Background()), before-1)

	out, err := executeCmd(t, app, "history", "--limit", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "REVISION")

	out, err = executeCmd(t, app, "undo")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored revision")
	assert.Len(t, app.Roadmap.List(context.Background()), before)
}

func TestUndo_NothingToUndo(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "undo")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
