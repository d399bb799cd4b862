package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/cbremote/internal/models"
	"github.com/DevN0mad/cbremote/internal/testutil"
)

type result struct {
	out    string
	errOut string
	err    error
}

// run выполняет команду cb против фейкового сервера.
func run(t *testing.T, fake *testutil.FakeCodeBeamer, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{
		"--url", fake.URL,
		"--login", fake.Login,
		"--password", fake.Password,
		"--timeout", "5",
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

func demoProject(fake *testutil.FakeCodeBeamer) models.Project {
	p := fake.AddProject(models.Project{Name: "Demo"})
	docs := fake.AddArtifact(models.Artifact{Name: "docs", TypeID: models.ArtifactTypeDir, Project: p.Ref()})
	readme := fake.AddArtifact(models.Artifact{Name: "readme.txt", TypeID: models.ArtifactTypeFile, Project: p.Ref(), Parent: docs.Ref()})
	fake.SetBody(readme.ID, "readme.txt", []byte("hello"))
	return p
}

func TestDownload(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)
	demoProject(fake)
	dir := t.TempDir()

	res := run(t, fake, "download", "Demo", "readme.txt", "--dir", dir)
	require.NoError(t, res.err)

	data, err := os.ReadFile(filepath.Join(dir, "readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	assert.Contains(t, res.out, "Connecting to CodeBeamer web service at "+fake.URL)
	assert.Contains(t, res.out, "Signed in to CodeBeamer 5.3")
	assert.Contains(t, res.out, "(5 B)")
	assert.True(t, strings.HasSuffix(res.out, "Signing out...\nDone\n"))
	assert.Equal(t, 0, fake.OpenSessions())
}

func TestDownload_UnknownProject(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)

	res := run(t, fake, "download", "Nope", "readme.txt")
	require.Error(t, res.err)
	assert.Contains(t, res.out, "Signing out...")
	assert.NotContains(t, res.out, "Done")
	assert.Equal(t, 0, fake.OpenSessions())
}

func TestUpload(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)
	demoProject(fake)

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("report"), 0o644))

	res := run(t, fake, "upload", "Demo", path)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, `Uploaded "report.txt"`)

	var found bool
	for _, a := range fake.Artifacts() {
		if a.Name == "report.txt" {
			found = true
			assert.Equal(t, "report", string(fake.Body(a.ID).Data))
		}
	}
	assert.True(t, found)
}

func TestUpload_Sample(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)
	demoProject(fake)

	res := run(t, fake, "upload", "Demo")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "with a second revision")
}

func TestExport_CSVAndWorkbook(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)
	demoProject(fake)
	dir := t.TempDir()

	res := run(t, fake, "export",
		"--projects", filepath.Join(dir, "projects.csv"),
		"--artifacts", filepath.Join(dir, "artifacts.csv"),
		"--xlsx", filepath.Join(dir, "all.xlsx"),
	)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Exporting projects... 1\n")
	assert.Contains(t, res.out, "Exporting artifacts... 2\n")
	assert.Contains(t, res.out, "  Projects: 1\n")

	for _, name := range []string{"projects.csv", "artifacts.csv", "all.xlsx"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
}

func TestExport_NothingSelected(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)

	res := run(t, fake, "export")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "nothing to export")
	assert.Equal(t, 0, fake.Calls("login"))
}

func TestImport_Projects(t *testing.T) {
	src := testutil.NewFakeCodeBeamer(t)
	src.AddProject(models.Project{Name: "Alpha"})
	src.AddProject(models.Project{Name: "Beta"})
	path := filepath.Join(t.TempDir(), "projects.csv")
	require.NoError(t, run(t, src, "export", "--projects", path).err)

	dst := testutil.NewFakeCodeBeamer(t)
	res := run(t, dst, "import", "--projects", path)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Importing projects (IDs ignored)... 2\n")

	var names []string
	for _, p := range dst.Projects() {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"Alpha", "Beta"}, names)
}

func TestImport_MissingFile(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)

	res := run(t, fake, "import", "--users", filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "import users")
}

func TestProfile(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)
	demoProject(fake)

	res := run(t, fake, "profile")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Profiling run ")
	assert.Contains(t, res.out, "findAllProjects: 1 projects in ")
}

func TestItemCreateAndAttach(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)
	p := demoProject(fake)
	fake.AddTracker(models.Tracker{Name: "Bug", Project: p.Ref()})

	res := run(t, fake, "item", "create", "Demo", "--summary", "Crash")
	require.NoError(t, res.err)
	items := fake.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Crash ---", items[0].Name)

	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(path, []byte("trace"), 0o644))

	res = run(t, fake, "item", "attach", strconv.Itoa(items[0].ID), path, "--description", "stack trace")
	require.NoError(t, res.err)
	require.Len(t, fake.Attachments(items[0].ID), 1)
	assert.Equal(t, "stack trace", fake.Attachments(items[0].ID)[0].Description)
}

func TestItemAttach_InvalidID(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)

	res := run(t, fake, "item", "attach", "abc", "file.txt")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "invalid item id")
}

func TestAssociations(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)
	a := fake.AddAssociation(models.Association{Type: models.Ref{ID: 1, Name: "depends"}})

	res := run(t, fake, "associations")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, strconv.Itoa(a.ID)+": depends\n")
}

func TestWikiCreateAndAttach(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)
	p := demoProject(fake)
	home := fake.AddWikiPage(models.WikiPage{Name: "Home", Project: p.Ref()})

	res := run(t, fake, "wiki", "create", "Demo")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, `"TestPage"`)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("12"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o644))

	res = run(t, fake, "wiki", "attach", strconv.Itoa(home.ID), dir)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Uploading file 1/1 a.png (2 B)...")
	assert.Contains(t, res.out, "Attached 1 images to wiki page")
}

func TestWrongPassword(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)

	var out, errOut bytes.Buffer
	cmd := NewRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--url", fake.URL, "--login", fake.Login, "--password", "wrong", "associations"})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.NotContains(t, out.String(), "Signed in")
	assert.Contains(t, errOut.String(), "Error:")
}

func TestMissingLogin(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)

	var out, errOut bytes.Buffer
	cmd := NewRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--url", fake.URL, "--password", "x", "associations"})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid connection settings")
	assert.Equal(t, 0, fake.Calls("login"))
}

func TestEnvironmentSettings(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)
	fake.AddAssociation(models.Association{Type: models.Ref{ID: 1, Name: "depends"}})

	t.Setenv("CB_SERVICE_URL", fake.URL)
	t.Setenv("CB_LOGIN", fake.Login)
	t.Setenv("CB_PASSWORD", fake.Password)

	var out, errOut bytes.Buffer
	cmd := NewRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"associations"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "Connecting to CodeBeamer web service at "+fake.URL)
	assert.Contains(t, out.String(), ": depends\n")
	assert.True(t, strings.HasSuffix(out.String(), "Done\n"))
	assert.Equal(t, 1, fake.Calls("login"))
}

func TestConfigFile(t *testing.T) {
	fake := testutil.NewFakeCodeBeamer(t)
	fake.AddAssociation(models.Association{Type: models.Ref{ID: 1, Name: "depends"}})

	path := filepath.Join(t.TempDir(), "cb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"service_url: '"+fake.URL+"'\nlogin: '"+fake.Login+"'\npassword: '"+fake.Password+"'\n"), 0o600))

	var out, errOut bytes.Buffer
	cmd := NewRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--config", path, "associations"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), ": depends")
}
