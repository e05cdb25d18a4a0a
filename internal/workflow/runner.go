package workflow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/docgov/docgov/internal/drift"
	"github.com/docgov/docgov/internal/git"
	"github.com/docgov/docgov/internal/progress"
	"github.com/docgov/docgov/internal/registry"
	"github.com/docgov/docgov/internal/report"
	"github.com/docgov/docgov/internal/schema"
)

var (
	// ErrRootUnreadable is returned when the scan root cannot be read.
	ErrRootUnreadable = errors.New("root is not readable")
	// ErrNoDocuments is returned when the scan finds no Markdown files.
	ErrNoDocuments = errors.New("no markdown files found to scan")
)

// Layout selects the directory set and the per-document rules.
type Layout string

const (
	// LayoutGovernance scans docs, schemas and prompts.
	LayoutGovernance Layout = "governance"
	// LayoutRegistry scans the agent registry directories and checks SKILL.md files.
	LayoutRegistry Layout = "registry"
)

// ChangeReportPath is where --change-report writes, relative to the root.
const ChangeReportPath = "artifacts/CHANGE_REPORT.md"

// Options configures one validation run.
type Options struct {
	Root    string
	Profile schema.Profile
	Layout  Layout
	// ScanDirs overrides the layout's directories when set.
	ScanDirs []string
	// Schema defaults to schema.Default().
	Schema *schema.Schema
	// RefLevel is the level of unknown depends_on references.
	RefLevel report.Level

	WriteRegistry bool
	CheckRegistry bool
	RegistryPath  string

	CheckDrift bool
	DiffRange  string
	RulesPath  string

	ChangeReport bool
	FixTODOIDs   bool
	Summary      bool
}

// Dirs returns the directories scanned for o.
func (o Options) Dirs() []string {
	switch {
	case len(o.ScanDirs) > 0:
		return o.ScanDirs
	case o.Layout == LayoutRegistry:
		return registry.RegistryScanDirs
	default:
		return registry.DefaultScanDirs
	}
}

func (o Options) withDefaults() Options {
	if o.Root == "" {
		o.Root = "."
	}
	if o.Profile == "" {
		o.Profile = schema.ProfileStrict
	}
	if o.Layout == "" {
		o.Layout = LayoutGovernance
	}
	if o.Schema == nil {
		s := schema.Default()
		o.Schema = &s
	}
	if o.RefLevel < report.LevelWarning {
		o.RefLevel = report.LevelError
	}
	if o.RegistryPath == "" {
		o.RegistryPath = registry.DefaultPath
	}
	if o.DiffRange == "" {
		o.DiffRange = git.DefaultRange
	}
	if o.RulesPath == "" {
		o.RulesPath = drift.DefaultPath
	}
	return o
}

// resolve joins p onto the root unless it is absolute.
func (o Options) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.Root, filepath.FromSlash(p))
}

// Result is the outcome of one run.
type Result struct {
	Report   *report.Report
	Registry registry.Registry
	// Allocations lists ids written by the TODO id pass.
	Allocations []registry.Allocation
	// RegistryWritten is the registry file path when it was written.
	RegistryWritten string
	// ChangeReportWritten is the change report path when it was written.
	ChangeReportWritten string
	Summary             []registry.TypeCount
}

// Runner executes validation runs one at a time.
type Runner struct {
	mu       sync.Mutex
	logger   *slog.Logger
	progress Progress
	newVCS   func(root string) VCS
	now      func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithProgress reports stage transitions to p.
func WithProgress(p Progress) RunnerOption {
	return func(r *Runner) { r.progress = p }
}

// WithVCS replaces the git client factory.
func WithVCS(fn func(root string) VCS) RunnerOption {
	return func(r *Runner) { r.newVCS = fn }
}

// WithClock replaces the clock used for allocated ids and reports.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner returns a runner logging to logger.
func NewRunner(logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Runner{
		logger:   logger,
		progress: nopProgress{},
		now:      time.Now,
	}
	r.newVCS = func(root string) VCS { return git.New(root, r.logger) }
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NextID scans the root and returns the next free id for prefix. It does
// not validate anything.
func (r *Runner) NextID(opts Options, prefix string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	opts = opts.withDefaults()
	docs, err := r.scan(opts)
	if err != nil {
		return "", err
	}
	return registry.NextID(registry.IDs(docs), prefix), nil
}

// Run executes the pipeline. Findings never produce an error; only setup
// failures do, wrapping ErrRootUnreadable or ErrNoDocuments.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	opts = opts.withDefaults()
	start := r.now()
	stages := newStageTracker(r.progress, opts)

	stages.start("scan")
	docs, err := r.scan(opts)
	if err != nil {
		stages.fail(err)
		return nil, err
	}

	res := &Result{Report: report.New()}

	if opts.FixTODOIDs {
		res.Allocations, err = registry.AllocateTODOIDs(docs, r.now())
		if err != nil {
			stages.fail(err)
			return nil, fmt.Errorf("fixing TODO ids: %w", err)
		}
		if len(res.Allocations) > 0 {
			if docs, err = r.scan(opts); err != nil {
				stages.fail(err)
				return nil, err
			}
		}
	}
	if len(docs) == 0 {
		err := fmt.Errorf("scanning %s: %w", opts.Root, ErrNoDocuments)
		stages.fail(err)
		return nil, err
	}
	res.Report.Scanned = len(docs)
	stages.complete()

	stages.start("validate")
	r.validateDocuments(res.Report, docs, opts)
	res.Report.Add(registry.CheckReferences(docs, opts.RefLevel)...)
	stages.complete()

	stages.start("registry")
	res.Registry = registry.Build(docs)
	if err := r.registryStage(res, opts); err != nil {
		stages.fail(err)
		return nil, err
	}
	stages.complete()

	if opts.ChangeReport || opts.CheckDrift {
		stages.start("drift")
		vcs := r.newVCS(opts.Root)
		if opts.ChangeReport {
			r.changeReport(ctx, vcs, res, opts)
		}
		if opts.CheckDrift {
			res.Report.Add(drift.Check(ctx, vcs, opts.DiffRange, opts.resolve(opts.RulesPath))...)
		}
		stages.complete()
	}

	if opts.Summary {
		res.Summary = registry.Summarize(docs)
	}

	r.logger.Debug("validation finished",
		slog.String("root", opts.Root),
		slog.Int("documents", len(docs)),
		slog.Int("errors", len(res.Report.Errors())),
		slog.Int("warnings", len(res.Report.Warnings())),
		slog.Duration("elapsed", r.now().Sub(start)))
	return res, nil
}

func (r *Runner) scan(opts Options) ([]registry.Document, error) {
	docs, err := registry.Scan(opts.Root, opts.Dirs())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRootUnreadable, err)
	}
	r.logger.Debug("scanned documents", slog.String("root", opts.Root), slog.Int("count", len(docs)))
	return docs, nil
}

func (r *Runner) validateDocuments(rep *report.Report, docs []registry.Document, opts Options) {
	for _, d := range docs {
		if d.ReadErr != nil {
			rep.Add(report.Errorf(d.RelPath, "Could not read file: %v", d.ReadErr))
			continue
		}
		if d.Frontmatter == nil {
			rep.Add(missingFrontmatter(d.RelPath, opts))
			continue
		}

		if opts.Layout == LayoutRegistry {
			if path.Base(d.RelPath) == "SKILL.md" {
				rep.Add(checkSkill(d)...)
			}
			if !d.Frontmatter.Has("doc_id") && opts.Profile == schema.ProfileMinimal {
				rep.Add(report.Infof(d.RelPath, "No frontmatter doc_id (inferred type: %s)", registry.InferType(d.RelPath)))
				continue
			}
		}

		rep.Add(schema.Validate(d.RelPath, d.Frontmatter, opts.Profile, *opts.Schema)...)
		rep.Validated++
	}
}

func missingFrontmatter(subject string, opts Options) report.Finding {
	if opts.Layout == LayoutRegistry && opts.Profile == schema.ProfileMinimal {
		return report.Warnf(subject, "No frontmatter")
	}
	return report.Errorf(subject, "Missing or invalid YAML frontmatter block.")
}

// checkSkill requires non-empty name and description on SKILL.md files.
func checkSkill(d registry.Document) []report.Finding {
	var findings []report.Finding
	for _, key := range []string{"name", "description"} {
		if !d.Frontmatter.Has(key) {
			findings = append(findings, report.Errorf(d.RelPath, "SKILL.md missing key: %s", key))
			continue
		}
		if s, ok := d.Frontmatter.String(key); !ok || strings.TrimSpace(s) == "" {
			findings = append(findings, report.Errorf(d.RelPath, "SKILL.md %s must be a non-empty string", key))
		}
	}
	return findings
}

func (r *Runner) registryStage(res *Result, opts Options) error {
	file := opts.resolve(opts.RegistryPath)

	if opts.WriteRegistry {
		if err := registry.Write(file, res.Registry); err != nil {
			return err
		}
		res.RegistryWritten = file
		r.logger.Info("wrote registry", slog.String("path", file), slog.Int("artifacts", len(res.Registry.Artifacts)))
	}

	if !opts.CheckRegistry {
		return nil
	}

	subject := filepath.ToSlash(opts.RegistryPath)
	onDisk, err := registry.Load(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res.Report.Add(report.Warnf(subject, "Registry missing on disk. Run with --write-registry."))
			return nil
		}
		res.Report.Add(report.Warnf(subject, "Registry could not be read: %v", err))
		return nil
	}

	current, err := registry.Marshal(res.Registry)
	if err != nil {
		return err
	}
	if registry.Equal(onDisk, current) {
		return nil
	}

	const msg = "Registry out of sync with current scan. Run with --write-registry."
	if opts.Profile == schema.ProfileStrict {
		res.Report.Add(report.Errorf(subject, msg))
	} else {
		res.Report.Add(report.Warnf(subject, msg))
	}
	return nil
}

func (r *Runner) changeReport(ctx context.Context, vcs VCS, res *Result, opts Options) {
	fail := report.Warnf(ChangeReportPath, "Unable to generate change report (git unavailable or no changes).")

	log, err := vcs.Log(ctx, opts.DiffRange, git.ReportPaths...)
	if err != nil || strings.TrimSpace(log) == "" {
		if err != nil {
			r.logger.Debug("change report unavailable", slog.String("error", err.Error()))
		}
		res.Report.Add(fail)
		return
	}

	var sb strings.Builder
	sb.WriteString("# CHANGE_REPORT.md\n\n")
	if state, err := git.CaptureState(opts.Root); err == nil {
		fmt.Fprintf(&sb, "Range `%s` at %s (%s), generated %s.\n\n",
			opts.DiffRange, state.ShortSHA(), state.Branch, r.now().UTC().Format(time.RFC3339))
	}
	sb.WriteString(strings.TrimSpace(log))
	sb.WriteString("\n")

	file := opts.resolve(ChangeReportPath)
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		res.Report.Add(fail)
		return
	}
	if err := os.WriteFile(file, []byte(sb.String()), 0o644); err != nil {
		res.Report.Add(fail)
		return
	}
	res.ChangeReportWritten = file
}

// stageTracker numbers the stages of a run for progress display.
type stageTracker struct {
	p       Progress
	total   int
	current progress.StageInfo
}

func newStageTracker(p Progress, opts Options) *stageTracker {
	total := 3
	if opts.ChangeReport || opts.CheckDrift {
		total++
	}
	return &stageTracker{p: p, total: total}
}

func (s *stageTracker) start(name string) {
	s.current = progress.StageInfo{Name: name, Number: s.current.Number + 1, TotalStages: s.total}
	_ = s.p.StartStage(s.current)
}

func (s *stageTracker) complete() { _ = s.p.CompleteStage(s.current) }

func (s *stageTracker) fail(err error) { _ = s.p.FailStage(s.current, err) }
