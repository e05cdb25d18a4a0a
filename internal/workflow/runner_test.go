package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgov/docgov/internal/progress"
	"github.com/docgov/docgov/internal/registry"
	"github.com/docgov/docgov/internal/report"
	"github.com/docgov/docgov/internal/schema"
	"github.com/docgov/docgov/internal/testutil"
)

type fakeVCS struct {
	changed []string
	diffErr error
	log     string
	logErr  error
}

func (f *fakeVCS) ChangedFiles(context.Context, string) ([]string, error) {
	return f.changed, f.diffErr
}

func (f *fakeVCS) Log(context.Context, string, ...string) (string, error) {
	return f.log, f.logErr
}

type recordingProgress struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingProgress) StartStage(s progress.StageInfo) error {
	return p.record("start " + s.Name)
}

func (p *recordingProgress) CompleteStage(s progress.StageInfo) error {
	return p.record("done " + s.Name)
}

func (p *recordingProgress) FailStage(s progress.StageInfo, _ error) error {
	return p.record("fail " + s.Name)
}

func (p *recordingProgress) record(e string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func messages(fs []report.Finding) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Subject+": "+f.Message)
	}
	return out
}

func newRunner(vcs *fakeVCS, opts ...RunnerOption) *Runner {
	opts = append([]RunnerOption{
		WithVCS(func(string) VCS { return vcs }),
		WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
	}, opts...)
	return NewRunner(nil, opts...)
}

func TestRun_StrictMissingTier(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteDoc(t, root, "docs/a.md", "doc-001", testutil.WithoutField("tier"))
	testutil.WriteDoc(t, root, "docs/b.md", "doc-002", testutil.WithDependsOn("doc-001"))

	res, err := newRunner(&fakeVCS{}).Run(context.Background(), Options{Root: root, Profile: schema.ProfileStrict})
	require.NoError(t, err)

	assert.Equal(t, []string{"docs/a.md: Missing required frontmatter key: tier"}, messages(res.Report.Errors()))
	assert.Empty(t, res.Report.Warnings())
	assert.Equal(t, 1, res.Report.Status(false))
	assert.Equal(t, 2, res.Report.Validated)
	assert.Len(t, res.Registry.Artifacts, 2)
}

func TestRun_MinimalAppliesDefaults(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteDoc(t, root, "docs/a.md", "doc-001",
		testutil.WithoutField("status"), testutil.WithoutField("owner"), testutil.WithoutField("depends_on"))

	res, err := newRunner(&fakeVCS{}).Run(context.Background(), Options{Root: root, Profile: schema.ProfileMinimal})
	require.NoError(t, err)

	assert.Empty(t, res.Report.Findings())
	require.Len(t, res.Registry.Artifacts, 1)
	assert.Equal(t, "draft", res.Registry.Artifacts[0].Status)
	assert.Equal(t, []string{}, res.Registry.Artifacts[0].DependsOn)
}

func TestRun_SetupErrors(t *testing.T) {
	t.Parallel()

	r := newRunner(&fakeVCS{})

	_, err := r.Run(context.Background(), Options{Root: filepath.Join(t.TempDir(), "missing")})
	assert.True(t, errors.Is(err, ErrRootUnreadable))

	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, "README.md"), "# not scanned\n")
	_, err = r.Run(context.Background(), Options{Root: root})
	assert.True(t, errors.Is(err, ErrNoDocuments))
}

func TestRun_MissingFrontmatter(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, "docs", "plain.md"), "# Plain\n")

	res, err := newRunner(&fakeVCS{}).Run(context.Background(), Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/plain.md: Missing or invalid YAML frontmatter block."}, messages(res.Report.Errors()))
	assert.Equal(t, 0, res.Report.Validated)
}

func TestRun_UnreadableDocument(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteDoc(t, root, "docs/a.md", "doc-001")
	require.NoError(t, os.Symlink(filepath.Join(root, "missing.md"), filepath.Join(root, "docs", "b.md")))

	res, err := newRunner(&fakeVCS{}).Run(context.Background(), Options{Root: root, Profile: schema.ProfileMinimal})
	require.NoError(t, err)

	errs := messages(res.Report.Errors())
	require.Len(t, errs, 1)
	assert.True(t, strings.HasPrefix(errs[0], "docs/b.md: Could not read file: "), errs[0])
	assert.Equal(t, 1, res.Report.Validated)
	assert.Equal(t, 1, res.Report.Status(false))
}

func TestRun_Registry(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteDoc(t, root, "docs/a.md", "doc-001")
	r := newRunner(&fakeVCS{})
	ctx := context.Background()

	res, err := r.Run(ctx, Options{Root: root, CheckRegistry: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"artifacts/ARTIFACT_REGISTRY.json: Registry missing on disk. Run with --write-registry."},
		messages(res.Report.Warnings()))

	res, err = r.Run(ctx, Options{Root: root, WriteRegistry: true, CheckRegistry: true})
	require.NoError(t, err)
	assert.Empty(t, res.Report.Findings())
	assert.Equal(t, filepath.Join(root, "artifacts", "ARTIFACT_REGISTRY.json"), res.RegistryWritten)
	first := testutil.ReadFile(t, res.RegistryWritten)

	res, err = r.Run(ctx, Options{Root: root, WriteRegistry: true})
	require.NoError(t, err)
	assert.Equal(t, first, testutil.ReadFile(t, res.RegistryWritten), "unchanged input must serialise identically")

	testutil.WriteDoc(t, root, "docs/b.md", "doc-002")

	res, err = r.Run(ctx, Options{Root: root, CheckRegistry: true, Profile: schema.ProfileStrict})
	require.NoError(t, err)
	assert.Equal(t, []string{"artifacts/ARTIFACT_REGISTRY.json: Registry out of sync with current scan. Run with --write-registry."},
		messages(res.Report.Errors()))

	res, err = r.Run(ctx, Options{Root: root, CheckRegistry: true, Profile: schema.ProfileMinimal})
	require.NoError(t, err)
	assert.Empty(t, res.Report.Errors())
	assert.Len(t, res.Report.Warnings(), 1)
}

func TestRun_Drift(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteDoc(t, root, "docs/a.md", "doc-001")
	ctx := context.Background()

	t.Run("rules missing", func(t *testing.T) {
		t.Parallel()

		res, err := newRunner(&fakeVCS{changed: []string{"docs/a.md"}}).Run(ctx, Options{Root: root, CheckDrift: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"drift_rules.yaml: Drift checking enabled but drift_rules.yaml not found or empty."},
			messages(res.Report.Warnings()))
		assert.Equal(t, 1, res.Report.Status(true))
		assert.Equal(t, 0, res.Report.Status(false))
	})

	t.Run("git unavailable", func(t *testing.T) {
		t.Parallel()

		res, err := newRunner(&fakeVCS{diffErr: errors.New("no git")}).Run(ctx, Options{Root: root, CheckDrift: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"git: Drift checking enabled but git diff could not be computed."},
			messages(res.Report.Warnings()))
	})

	t.Run("violation", func(t *testing.T) {
		t.Parallel()

		rules := filepath.Join(t.TempDir(), "rules.yaml")
		testutil.WriteFile(t, rules, "rules:\n  - trigger_prefix_changed: [schemas/]\n    require_any_changed: [docs/adrs/]\n    message: Schema change needs an ADR\n")

		res, err := newRunner(&fakeVCS{changed: []string{"schemas/api.json"}}).
			Run(ctx, Options{Root: root, CheckDrift: true, RulesPath: rules})
		require.NoError(t, err)
		assert.Equal(t, []string{"drift_rules: Schema change needs an ADR"}, messages(res.Report.Errors()))
	})
}

func TestRun_ChangeReport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("written", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		testutil.WriteDoc(t, root, "docs/a.md", "doc-001")

		res, err := newRunner(&fakeVCS{log: "abc123 docs: add a\n"}).Run(ctx, Options{Root: root, ChangeReport: true})
		require.NoError(t, err)
		assert.Empty(t, res.Report.Findings())

		content := testutil.ReadFile(t, filepath.Join(root, "artifacts", "CHANGE_REPORT.md"))
		assert.True(t, strings.HasPrefix(content, "# CHANGE_REPORT.md\n\n"))
		assert.True(t, strings.HasSuffix(content, "abc123 docs: add a\n"))
	})

	t.Run("empty log warns", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		testutil.WriteDoc(t, root, "docs/a.md", "doc-001")

		res, err := newRunner(&fakeVCS{}).Run(ctx, Options{Root: root, ChangeReport: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"artifacts/CHANGE_REPORT.md: Unable to generate change report (git unavailable or no changes)."},
			messages(res.Report.Warnings()))
		assert.False(t, testutil.FileExists(filepath.Join(root, "artifacts", "CHANGE_REPORT.md")))
	})
}

func TestRun_FixTODOIDs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteDoc(t, root, "docs/adrs/0001.md", "adr-001")
	todo := testutil.WriteDoc(t, root, "docs/adrs/0002.md", "TODO")
	r := newRunner(&fakeVCS{})

	res, err := r.Run(context.Background(), Options{Root: root})
	require.NoError(t, err)
	assert.Len(t, res.Report.Errors(), 1, "validation alone must not rewrite files")
	assert.Contains(t, testutil.ReadFile(t, todo), "TODO")

	res, err = r.Run(context.Background(), Options{Root: root, FixTODOIDs: true})
	require.NoError(t, err)
	assert.Equal(t, []registry.Allocation{{Path: "docs/adrs/0002.md", ID: "adr-002"}}, res.Allocations)
	assert.Empty(t, res.Report.Findings())
	assert.Contains(t, testutil.ReadFile(t, todo), "adr-002")
	assert.Contains(t, testutil.ReadFile(t, todo), "2026-01-02")
}

func TestRun_RegistryLayout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, "skills", "pay", "SKILL.md"), "---\nname: pay\ndescription: \"\"\n---\n")
	testutil.WriteFile(t, filepath.Join(root, "agents", "helper.md"), "# helper\n")
	testutil.WriteDoc(t, root, "domains/billing/agents/biller.md", "agt-001", testutil.WithField("type", "agent"))

	s := schema.Default().WithTypes("agent", "skill")
	res, err := newRunner(&fakeVCS{}).Run(context.Background(), Options{
		Root:    root,
		Layout:  LayoutRegistry,
		Profile: schema.ProfileMinimal,
		Schema:  &s,
		Summary: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"skills/pay/SKILL.md: SKILL.md description must be a non-empty string"}, messages(res.Report.Errors()))
	assert.Equal(t, []string{"agents/helper.md: No frontmatter"}, messages(res.Report.Warnings()))
	assert.Equal(t, []string{"skills/pay/SKILL.md: No frontmatter doc_id (inferred type: skill)"}, messages(res.Report.Infos()))
	assert.Equal(t, []registry.TypeCount{{Type: "agent", Count: 1}, {Type: "skill", Count: 1}}, res.Summary)
}

func TestRunner_NextID(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteDoc(t, root, "docs/gov.md", "gov-004")
	testutil.WriteDoc(t, root, "docs/broken.md", "gov-002", testutil.WithoutField("tier"))

	id, err := newRunner(&fakeVCS{}).NextID(Options{Root: root}, "gov-")
	require.NoError(t, err)
	assert.Equal(t, "gov-005", id)

	id, err = newRunner(&fakeVCS{}).NextID(Options{Root: t.TempDir()}, "adr")
	require.NoError(t, err)
	assert.Equal(t, "adr-001", id)
}

func TestRun_Progress(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteDoc(t, root, "docs/a.md", "doc-001")
	p := &recordingProgress{}

	_, err := newRunner(&fakeVCS{}, WithProgress(p)).Run(context.Background(), Options{Root: root, CheckDrift: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"start scan", "done scan",
		"start validate", "done validate",
		"start registry", "done registry",
		"start drift", "done drift",
	}, p.events)

	p = &recordingProgress{}
	_, err = newRunner(&fakeVCS{}, WithProgress(p)).Run(context.Background(), Options{Root: filepath.Join(root, "nope")})
	require.Error(t, err)
	assert.Equal(t, []string{"start scan", "fail scan"}, p.events)
}

func TestRunner_Serialises(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteDoc(t, root, "docs/a.md", "doc-001")
	r := newRunner(&fakeVCS{})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Run(context.Background(), Options{Root: root, WriteRegistry: true})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	data, err := os.ReadFile(filepath.Join(root, "artifacts", "ARTIFACT_REGISTRY.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"doc_id": "doc-001"`)
}
