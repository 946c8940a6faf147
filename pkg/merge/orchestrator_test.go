package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/sdejongh/makeuniversal/pkg/logging"
	"github.com/sdejongh/makeuniversal/pkg/models"
	"github.com/sdejongh/makeuniversal/pkg/output"
	"github.com/sdejongh/makeuniversal/pkg/storage"
)

// fakeTools models lipo over a set of files: each file holds a set of
// architectures, or is not a binary at all. Combine adds the source's
// architectures to the destination, so a second run sees merged files
type fakeTools struct {
	mu          sync.Mutex
	archs       map[string]map[models.Arch]bool
	notBinary   map[string]bool
	inspectErr  map[string]error
	combineErr  map[string]error
	classified  []string
	combined    []string
	maxInFlight int
	inFlight    int
}

func newFakeTools() *fakeTools {
	return &fakeTools{
		archs:      make(map[string]map[models.Arch]bool),
		notBinary:  make(map[string]bool),
		inspectErr: make(map[string]error),
		combineErr: make(map[string]error),
	}
}

func (f *fakeTools) setArchs(path string, archs ...models.Arch) {
	set := make(map[models.Arch]bool)
	for _, a := range archs {
		set[a] = true
	}
	f.archs[path] = set
}

func (f *fakeTools) Classify(ctx context.Context, path string, arch models.Arch) (models.Classification, error) {
	f.mu.Lock()
	f.classified = append(f.classified, path)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if _, err := os.Stat(path); err != nil {
		return models.InspectionFailed, fmt.Errorf("failed to access %s: %w", path, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.inspectErr[path]; err != nil {
		return models.InspectionFailed, err
	}
	if f.notBinary[path] {
		return models.NotBinary, nil
	}
	if f.archs[path][arch] {
		return models.HasArchitecture, nil
	}
	return models.MissingArchitecture, nil
}

func (f *fakeTools) Combine(ctx context.Context, destination, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.combined = append(f.combined, destination+" <- "+source)
	if err := f.combineErr[destination]; err != nil {
		return err
	}

	merged := make(map[models.Arch]bool)
	for a := range f.archs[destination] {
		merged[a] = true
	}
	for a := range f.archs[source] {
		merged[a] = true
	}
	f.archs[destination] = merged
	return nil
}

func (f *fakeTools) classifiedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.classified...)
}

// testTrees lays out a destination (already replicated from x86_64) and a
// secondary arm64 tree
type testTrees struct {
	dest      string
	secondary string
}

func newTestTrees(t *testing.T) *testTrees {
	t.Helper()
	// Storage resolves roots through symlinks; match its paths
	base, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}
	trees := &testTrees{
		dest:      filepath.Join(base, "universal"),
		secondary: filepath.Join(base, "arm64"),
	}
	for _, dir := range []string{trees.dest, trees.secondary} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	return trees
}

func (tt *testTrees) destFile(t *testing.T, rel string) string {
	t.Helper()
	return writeTestFile(t, tt.dest, rel)
}

func (tt *testTrees) secondaryFile(t *testing.T, rel string) string {
	t.Helper()
	return writeTestFile(t, tt.secondary, rel)
}

func writeTestFile(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(rel), 0755); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
	return path
}

func newTestOrchestrator(t *testing.T, trees *testTrees, tools *fakeTools, configure func(*models.MergeRun)) (*Orchestrator, *bytes.Buffer) {
	t.Helper()

	dest, err := storage.NewLocal(trees.dest)
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	run := &models.MergeRun{
		ID:            "test-run",
		PrimaryRoot:   filepath.Join(filepath.Dir(trees.dest), "x86_64"),
		SecondaryRoot: trees.secondary,
		UniversalRoot: trees.dest,
		PrimaryArch:   models.ArchX86_64,
		SecondaryArch: models.ArchARM64,
		MaxWorkers:    1,
	}
	if configure != nil {
		configure(run)
	}

	var out bytes.Buffer
	o := NewOrchestrator(dest, tools, tools, output.NewHumanFormatter(true), &out, logging.NewNullLogger(), run)
	return o, &out
}

func resultFor(t *testing.T, report *models.MergeReport, rel string) models.FileResult {
	t.Helper()
	for _, r := range report.Results {
		if r.RelativePath == rel {
			return r
		}
	}
	t.Fatalf("no result for %s", rel)
	return models.FileResult{}
}

func TestOrchestrator_Outcomes(t *testing.T) {
	trees := newTestTrees(t)
	tools := newFakeTools()

	// Thin x86_64 binary with an arm64 counterpart
	app := trees.destFile(t, "bin/app")
	appArm := trees.secondaryFile(t, "bin/app")
	tools.setArchs(app, models.ArchX86_64)
	tools.setArchs(appArm, models.ArchARM64)

	// Already universal
	fat := trees.destFile(t, "lib/libfat.dylib")
	tools.setArchs(fat, models.ArchX86_64, models.ArchARM64)

	// Combination fails
	broken := trees.destFile(t, "bin/broken")
	brokenArm := trees.secondaryFile(t, "bin/broken")
	tools.setArchs(broken, models.ArchX86_64)
	tools.setArchs(brokenArm, models.ArchARM64)
	tools.combineErr[broken] = errors.New("lipo exited with status 1: same architectures")

	// No counterpart under the secondary root
	orphan := trees.destFile(t, "bin/orphan")
	tools.setArchs(orphan, models.ArchX86_64)

	// Counterpart exists but was built for the wrong architecture
	wrong := trees.destFile(t, "lib/libwrong.a")
	wrongArm := trees.secondaryFile(t, "lib/libwrong.a")
	tools.setArchs(wrong, models.ArchX86_64)
	tools.setArchs(wrongArm, models.ArchX86_64)

	// Not a binary
	readme := trees.destFile(t, "share/README")
	tools.notBinary[readme] = true

	// Inspection cannot run
	hung := trees.destFile(t, "bin/hung")
	tools.inspectErr[hung] = errors.New("lipo timed out")

	o, out := newTestOrchestrator(t, trees, tools, nil)
	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := map[string]models.Outcome{
		"bin/app":          models.OutcomeMerged,
		"lib/libfat.dylib": models.OutcomeSkipped,
		"bin/broken":       models.OutcomeFailed,
		"bin/orphan":       models.OutcomeUnresolvable,
		"lib/libwrong.a":   models.OutcomeUnresolvable,
		"share/README":     models.OutcomeNotBinary,
		"bin/hung":         models.OutcomeInspectionFailed,
	}
	for rel, outcome := range want {
		if got := resultFor(t, report, rel).Outcome; got != outcome {
			t.Errorf("%s outcome = %s, want %s", rel, got, outcome)
		}
	}

	if d := resultFor(t, report, "bin/orphan").Detail; d != "counterpart not found" {
		t.Errorf("orphan detail = %q", d)
	}
	if d := resultFor(t, report, "lib/libwrong.a").Detail; d != "counterpart lacks arm64" {
		t.Errorf("wrong-arch detail = %q", d)
	}

	stats := report.Stats
	if stats.Merged != 1 || stats.Skipped != 1 || stats.Failed != 1 {
		t.Errorf("merged/skipped/failed = %d/%d/%d, want 1/1/1", stats.Merged, stats.Skipped, stats.Failed)
	}
	if stats.Considered() != 3 {
		t.Errorf("Considered() = %d, want 3", stats.Considered())
	}
	if len(report.Errors) != 1 || report.Errors[0].FilePath != "bin/broken" {
		t.Errorf("Errors = %+v", report.Errors)
	}
	if report.Status != models.StatusPartial {
		t.Errorf("Status = %s, want partial", report.Status)
	}
	if !strings.Contains(out.String(), "Total binaries: 3, Skipped: 1, Failed: 1") {
		t.Errorf("summary missing from output:\n%s", out.String())
	}
}

func TestOrchestrator_CountsCoverEveryRegularFile(t *testing.T) {
	trees := newTestTrees(t)
	tools := newFakeTools()

	for i := 0; i < 6; i++ {
		p := trees.destFile(t, fmt.Sprintf("lib/lib%d.dylib", i))
		tools.setArchs(p, models.ArchX86_64)
		if i%2 == 0 {
			tools.setArchs(trees.secondaryFile(t, fmt.Sprintf("lib/lib%d.dylib", i)), models.ArchARM64)
		}
	}
	tools.notBinary[trees.destFile(t, "include/qt.h")] = true

	// Directories and symlinks are never candidates
	if err := os.Symlink("lib0.dylib", filepath.Join(trees.dest, "lib/libcurrent.dylib")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}
	if err := os.Symlink("lib", filepath.Join(trees.dest, "Libraries")); err != nil {
		t.Fatalf("failed to create dir symlink: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(trees.dest, "empty/dir"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	o, _ := newTestOrchestrator(t, trees, tools, nil)
	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	s := report.Stats
	sum := s.Merged + s.Failed + s.Skipped + s.Unresolvable + s.NotBinary + s.InspectionFailed + s.Excluded + s.WouldMerge
	if sum != 7 || s.FilesVisited != 7 {
		t.Errorf("outcome sum = %d, FilesVisited = %d, want 7", sum, s.FilesVisited)
	}
	if len(report.Results) != 7 {
		t.Errorf("Results = %d, want 7", len(report.Results))
	}

	for _, p := range tools.classifiedPaths() {
		if strings.HasSuffix(p, "libcurrent.dylib") || strings.Contains(p, "Libraries") || strings.Contains(p, "empty") {
			t.Errorf("non-regular entry reached the classifier: %s", p)
		}
	}
}

func TestOrchestrator_ClassifiesAgainstSecondaryArch(t *testing.T) {
	trees := newTestTrees(t)
	tools := newFakeTools()

	// Primary arm64, secondary x86_64: the destination already holds arm64
	app := trees.destFile(t, "bin/app")
	tools.setArchs(app, models.ArchARM64)
	tools.setArchs(trees.secondaryFile(t, "bin/app"), models.ArchX86_64)

	o, out := newTestOrchestrator(t, trees, tools, func(r *models.MergeRun) {
		r.PrimaryArch = models.ArchARM64
		r.SecondaryArch = models.ArchX86_64
	})
	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Stats.Merged != 1 {
		t.Errorf("Merged = %d, want 1", report.Stats.Merged)
	}
	if !strings.Contains(out.String(), "success adding x86_64 arch to binary: bin/app") {
		t.Errorf("output = %s", out.String())
	}
}

func TestOrchestrator_Idempotent(t *testing.T) {
	trees := newTestTrees(t)
	tools := newFakeTools()

	for _, rel := range []string{"bin/a", "bin/b", "lib/libc.dylib"} {
		tools.setArchs(trees.destFile(t, rel), models.ArchX86_64)
		tools.setArchs(trees.secondaryFile(t, rel), models.ArchARM64)
	}

	o, _ := newTestOrchestrator(t, trees, tools, nil)
	first, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if first.Stats.Merged != 3 {
		t.Fatalf("first run Merged = %d, want 3", first.Stats.Merged)
	}

	o, _ = newTestOrchestrator(t, trees, tools, nil)
	second, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if second.Stats.Skipped != 3 || second.Stats.Merged != 0 || second.Stats.Failed != 0 {
		t.Errorf("second run stats = %+v, want all skipped", second.Stats)
	}
	if len(tools.combined) != 3 {
		t.Errorf("combiner called %d times, want 3", len(tools.combined))
	}
}

func TestOrchestrator_DryRun(t *testing.T) {
	trees := newTestTrees(t)
	tools := newFakeTools()

	app := trees.destFile(t, "bin/app")
	tools.setArchs(app, models.ArchX86_64)
	tools.setArchs(trees.secondaryFile(t, "bin/app"), models.ArchARM64)

	o, _ := newTestOrchestrator(t, trees, tools, func(r *models.MergeRun) { r.DryRun = true })
	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Stats.WouldMerge != 1 || report.Stats.Merged != 0 {
		t.Errorf("stats = %+v, want one would_merge", report.Stats)
	}
	if len(tools.combined) != 0 {
		t.Errorf("dry run combined %v", tools.combined)
	}
	if !report.DryRun {
		t.Error("report should be flagged as dry run")
	}
}

func TestOrchestrator_Exclude(t *testing.T) {
	trees := newTestTrees(t)
	tools := newFakeTools()

	tools.setArchs(trees.destFile(t, "bin/app"), models.ArchX86_64, models.ArchARM64)
	trees.destFile(t, "include/qt.h")
	trees.destFile(t, "doc/html/index.html")

	o, _ := newTestOrchestrator(t, trees, tools, func(r *models.MergeRun) {
		r.ExcludePatterns = []string{"*.h", "doc/"}
	})
	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Stats.Excluded != 2 || report.Stats.Skipped != 1 {
		t.Errorf("stats = %+v", report.Stats)
	}
	for _, p := range tools.classifiedPaths() {
		if strings.HasSuffix(p, ".h") || strings.Contains(p, "/doc/") {
			t.Errorf("excluded file was classified: %s", p)
		}
	}
}

func TestOrchestrator_Parallel(t *testing.T) {
	trees := newTestTrees(t)
	tools := newFakeTools()

	const files = 40
	for i := 0; i < files; i++ {
		rel := fmt.Sprintf("lib/lib%02d.dylib", i)
		tools.setArchs(trees.destFile(t, rel), models.ArchX86_64)
		tools.setArchs(trees.secondaryFile(t, rel), models.ArchARM64)
	}

	o, _ := newTestOrchestrator(t, trees, tools, func(r *models.MergeRun) { r.MaxWorkers = 4 })
	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Stats.Merged != files {
		t.Errorf("Merged = %d, want %d", report.Stats.Merged, files)
	}
	if tools.maxInFlight > 4 {
		t.Errorf("max concurrent classifications = %d, want <= 4", tools.maxInFlight)
	}
	for i := 1; i < len(report.Results); i++ {
		if report.Results[i-1].RelativePath > report.Results[i].RelativePath {
			t.Fatal("results should be sorted by path")
		}
	}
}

func TestOrchestrator_Sequential(t *testing.T) {
	trees := newTestTrees(t)
	tools := newFakeTools()

	for i := 0; i < 10; i++ {
		tools.setArchs(trees.destFile(t, fmt.Sprintf("bin/tool%d", i)), models.ArchX86_64, models.ArchARM64)
	}

	o, _ := newTestOrchestrator(t, trees, tools, nil)
	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if tools.maxInFlight != 1 {
		t.Errorf("max concurrent classifications = %d, want 1", tools.maxInFlight)
	}
}

func TestOrchestrator_Cancelled(t *testing.T) {
	trees := newTestTrees(t)
	tools := newFakeTools()
	tools.setArchs(trees.destFile(t, "bin/app"), models.ArchX86_64)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o, _ := newTestOrchestrator(t, trees, tools, nil)
	report, err := o.Run(ctx)
	if err == nil {
		t.Fatal("Run() should fail on a cancelled context")
	}
	if report == nil || report.Status != models.StatusFailed && report.Status != models.StatusCancelled {
		t.Errorf("report = %+v", report)
	}
	if len(tools.combined) != 0 {
		t.Error("nothing should be combined after cancellation")
	}
}

func TestOrchestrator_InvalidRun(t *testing.T) {
	trees := newTestTrees(t)
	o, _ := newTestOrchestrator(t, trees, newFakeTools(), func(r *models.MergeRun) { r.MaxWorkers = 0 })

	var ve *models.ValidationError
	if _, err := o.Run(context.Background()); !errors.As(err, &ve) {
		t.Errorf("Run() error = %v, want *ValidationError", err)
	}
}
