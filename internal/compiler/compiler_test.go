package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presencelabs/presencec/internal/bundler"
	"github.com/presencelabs/presencec/internal/store"
)

// fakeBundler is a scriptable Bundler recording every invocation.
type fakeBundler struct {
	diagnostics map[string][]bundler.Diagnostic // keyed by unit dir base name
	failFor     map[string]error

	calls []fakeCall
}

type fakeCall struct {
	dir       string
	cfg       bundler.Config
	entries   bundler.Entries
	sawConfig bool // ephemeral config present during the invocation
}

func (f *fakeBundler) Bundle(_ context.Context, dir string, cfg bundler.Config, entries bundler.Entries) (*bundler.Result, error) {
	name := filepath.Base(dir)
	_, statErr := os.Stat(filepath.Join(dir, EphemeralConfigFile))
	f.calls = append(f.calls, fakeCall{dir: dir, cfg: cfg, entries: entries, sawConfig: statErr == nil})
	if err := f.failFor[name]; err != nil {
		return nil, err
	}
	return &bundler.Result{Diagnostics: f.diagnostics[name]}, nil
}

// fakeInstaller records directories it was asked to provision.
type fakeInstaller struct {
	dirs []string
	err  error
}

func (f *fakeInstaller) Install(_ context.Context, dir string) error {
	f.dirs = append(f.dirs, dir)
	return f.err
}

// recordingReporter captures friendly messages.
type recordingReporter struct {
	infos     []string
	successes []string
	errors    []string
}

func (r *recordingReporter) Infof(format string, args ...any) {
	r.infos = append(r.infos, fmt.Sprintf(format, args...))
}
func (r *recordingReporter) Successf(format string, args ...any) {
	r.successes = append(r.successes, fmt.Sprintf(format, args...))
}
func (r *recordingReporter) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}
func (r *recordingReporter) Diagnostic(bundler.Diagnostic) {}

func newStore(t *testing.T, presences map[string][]string) *store.Store {
	t.Helper()
	root := t.TempDir()
	for name, extra := range presences {
		dir := filepath.Join(root, store.Bucket(name), name)
		require.NoError(t, os.MkdirAll(dir, 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, store.PrimaryEntry), []byte("//\n"), 0o644))
		for _, f := range extra {
			require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("{}\n"), 0o644))
		}
	}
	return store.New(root)
}

func configAbsent(t *testing.T, st *store.Store, name string) {
	t.Helper()
	_, err := os.Stat(filepath.Join(st.PresencePath(name), EphemeralConfigFile))
	assert.True(t, os.IsNotExist(err), "ephemeral config for %s should be removed", name)
}

func TestCompileOne_CleanBuild(t *testing.T) {
	st := newStore(t, map[string][]string{"YouTube": nil})
	fb := &fakeBundler{}
	rep := &recordingReporter{}
	c := New(st, fb, &fakeInstaller{}, WithReporter(rep))

	diags, err := c.CompileOne(context.Background(), "YouTube", DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, diags)

	require.Len(t, fb.calls, 1)
	assert.True(t, fb.calls[0].sawConfig, "ephemeral config must exist during the bundle step")
	configAbsent(t, st, "YouTube")

	require.Len(t, rep.successes, 1)
	assert.Equal(t, "Successfully compiled YouTube", rep.successes[0])
}

func TestCompileOne_TranspiledPhrasing(t *testing.T) {
	st := newStore(t, map[string][]string{"YouTube": nil})
	rep := &recordingReporter{}
	c := New(st, &fakeBundler{}, &fakeInstaller{}, WithReporter(rep))

	opts := DefaultOptions()
	opts.TranspileOnly = true
	_, err := c.CompileOne(context.Background(), "YouTube", opts)
	require.NoError(t, err)

	require.Len(t, rep.successes, 1)
	assert.Equal(t, "Successfully transpiled YouTube", rep.successes[0])
}

func TestCompileOne_EntryPointSelection(t *testing.T) {
	st := newStore(t, map[string][]string{
		"WithIframe": {store.IframeEntry},
		"Plain":      nil,
	})
	fb := &fakeBundler{}
	c := New(st, fb, &fakeInstaller{})

	_, err := c.CompileOne(context.Background(), "WithIframe", DefaultOptions())
	require.NoError(t, err)
	_, err = c.CompileOne(context.Background(), "Plain", DefaultOptions())
	require.NoError(t, err)

	require.Len(t, fb.calls, 2)
	assert.Len(t, fb.calls[0].entries, 2)
	assert.Contains(t, fb.calls[0].entries, "iframe")
	assert.Len(t, fb.calls[1].entries, 1)
	assert.Contains(t, fb.calls[1].entries, "presence")
}

func TestCompileOne_InstallerGating(t *testing.T) {
	st := newStore(t, map[string][]string{
		"HasDeps": {store.ManifestFile},
		"NoDeps":  nil,
	})
	inst := &fakeInstaller{}
	c := New(st, &fakeBundler{}, inst)

	_, err := c.CompileOne(context.Background(), "NoDeps", DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, inst.dirs, "installer must not run without a manifest")

	_, err = c.CompileOne(context.Background(), "HasDeps", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, inst.dirs, 1)
	assert.Equal(t, st.PresencePath("HasDeps"), inst.dirs[0])
}

func TestCompileOne_InstallFailureCleansUpConfig(t *testing.T) {
	st := newStore(t, map[string][]string{"HasDeps": {store.ManifestFile}})
	fb := &fakeBundler{}
	c := New(st, fb, &fakeInstaller{err: errors.New("registry down")})

	_, err := c.CompileOne(context.Background(), "HasDeps", DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInstall)

	// The bundler never ran, yet the ephemeral config is gone.
	assert.Empty(t, fb.calls)
	configAbsent(t, st, "HasDeps")
}

func TestCompileOne_FatalBundlerErrorCleansUpConfig(t *testing.T) {
	st := newStore(t, map[string][]string{"Broken": nil})
	fb := &fakeBundler{failFor: map[string]error{"Broken": errors.New("engine crashed")}}
	rep := &recordingReporter{}
	c := New(st, fb, &fakeInstaller{}, WithReporter(rep))

	_, err := c.CompileOne(context.Background(), "Broken", DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBundle)
	assert.Empty(t, rep.successes)
	configAbsent(t, st, "Broken")
}

func TestCompileOne_DiagnosticsAreDataNotErrors(t *testing.T) {
	st := newStore(t, map[string][]string{"Flaky": nil})
	fb := &fakeBundler{diagnostics: map[string][]bundler.Diagnostic{
		"Flaky": {
			{Kind: bundler.KindModuleBuild, Message: "wrapper", File: "presence.ts", Line: 1, Column: 1},
			{Kind: "TSError", Message: "TS2304", File: "presence.ts", Line: 1, Column: 1},
		},
	}}
	rep := &recordingReporter{}
	c := New(st, fb, &fakeInstaller{}, WithReporter(rep))

	diags, err := c.CompileOne(context.Background(), "Flaky", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "TS2304", diags[0].Message)
	assert.Empty(t, rep.successes, "no success message with surviving diagnostics")
	configAbsent(t, st, "Flaky")
}

func TestCompileOne_Idempotent(t *testing.T) {
	st := newStore(t, map[string][]string{"Stable": nil})
	fb := &fakeBundler{diagnostics: map[string][]bundler.Diagnostic{
		"Stable": {{Kind: "TSError", Message: "TS1005", File: "presence.ts", Line: 2, Column: 3}},
	}}
	c := New(st, fb, &fakeInstaller{})

	first, err := c.CompileOne(context.Background(), "Stable", DefaultOptions())
	require.NoError(t, err)
	second, err := c.CompileOne(context.Background(), "Stable", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCompile_BatchAggregation(t *testing.T) {
	st := newStore(t, map[string][]string{"a": nil, "b": nil})
	fb := &fakeBundler{diagnostics: map[string][]bundler.Diagnostic{
		"b": {
			{Kind: "TSError", Message: "real problem", File: "presence.ts", Line: 5, Column: 1},
			{Kind: bundler.KindModuleBuild, Message: "Module build failed", File: "presence.ts", Line: 5, Column: 1},
		},
	}}
	rep := &recordingReporter{}
	c := New(st, fb, &fakeInstaller{}, WithReporter(rep))

	diags, err := c.Compile(context.Background(), []string{"a", "b"}, DefaultOptions())
	require.NoError(t, err)

	// Wrapper suppressed; the surviving diagnostic belongs to b.
	require.Len(t, diags, 1)
	assert.Equal(t, "real problem", diags[0].Message)

	// Batch size reported up front; no aggregate success message.
	require.Len(t, rep.infos, 1)
	assert.Equal(t, "Compiling 2 presences", rep.infos[0])
	assert.Empty(t, rep.successes)

	configAbsent(t, st, "a")
	configAbsent(t, st, "b")
}

func TestCompile_BatchOrderPreserved(t *testing.T) {
	st := newStore(t, map[string][]string{"x": nil, "y": nil, "z": nil})
	fb := &fakeBundler{diagnostics: map[string][]bundler.Diagnostic{
		"x": {{Kind: "TSError", Message: "from x"}},
		"y": {{Kind: "TSError", Message: "from y first"}, {Kind: "TSError", Message: "from y second"}},
		"z": {{Kind: "TSError", Message: "from z"}},
	}}
	c := New(st, fb, &fakeInstaller{})

	diags, err := c.Compile(context.Background(), []string{"x", "y", "z"}, DefaultOptions())
	require.NoError(t, err)

	got := make([]string, len(diags))
	for i, d := range diags {
		got[i] = d.Message
	}
	assert.Equal(t, []string{"from x", "from y first", "from y second", "from z"}, got)
}

func TestCompile_BatchCleanSuccessMessage(t *testing.T) {
	st := newStore(t, map[string][]string{"a": nil, "b": nil, "c": nil})
	rep := &recordingReporter{}
	c := New(st, &fakeBundler{}, &fakeInstaller{}, WithReporter(rep))

	diags, err := c.Compile(context.Background(), []string{"a", "b", "c"}, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, diags)

	require.Len(t, rep.successes, 1)
	assert.Equal(t, "Successfully compiled 3 presences", rep.successes[0])
}

func TestCompile_FatalAbortsRemainingBatch(t *testing.T) {
	st := newStore(t, map[string][]string{"ok": nil, "boom": nil, "never": nil})
	fb := &fakeBundler{failFor: map[string]error{"boom": errors.New("engine crashed")}}
	rep := &recordingReporter{}
	c := New(st, fb, &fakeInstaller{}, WithReporter(rep))

	_, err := c.Compile(context.Background(), []string{"ok", "boom", "never"}, DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBundle)

	// The unit after the failure was never invoked and no success reported.
	require.Len(t, fb.calls, 2)
	assert.Empty(t, rep.successes)

	// Ephemeral configs written before the abort are still removed.
	configAbsent(t, st, "ok")
	configAbsent(t, st, "boom")
	configAbsent(t, st, "never")
}

func TestUnitConfig_OutputDefaultsToUnitDir(t *testing.T) {
	st := newStore(t, map[string][]string{"u": nil})
	fb := &fakeBundler{}
	c := New(st, fb, &fakeInstaller{})

	_, err := c.CompileOne(context.Background(), "u", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, fb.calls, 1)
	assert.Equal(t, st.PresencePath("u"), fb.calls[0].cfg.OutputDir)

	opts := DefaultOptions()
	opts.Output = "/tmp/out"
	_, err = c.CompileOne(context.Background(), "u", opts)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", fb.calls[1].cfg.OutputDir)
}

func TestUnitConfig_RevisionDefine(t *testing.T) {
	st := newStore(t, map[string][]string{"u": nil})
	fb := &fakeBundler{}
	c := New(st, fb, &fakeInstaller{}, WithRevision("abc1234"))

	_, err := c.CompileOne(context.Background(), "u", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, fb.calls, 1)
	assert.Equal(t, "abc1234", fb.calls[0].cfg.Defines["PRESENCE_REVISION"])
}

func TestEphemeralConfigContent(t *testing.T) {
	st := newStore(t, map[string][]string{"u": nil})
	var captured string
	fb := &fakeBundler{}
	c := New(st, fb, &fakeInstaller{})

	// Capture the config content while it exists, via a wrapping bundler.
	probing := bundleFunc(func(ctx context.Context, dir string, cfg bundler.Config, entries bundler.Entries) (*bundler.Result, error) {
		data, err := os.ReadFile(filepath.Join(dir, EphemeralConfigFile))
		require.NoError(t, err)
		captured = string(data)
		return fb.Bundle(ctx, dir, cfg, entries)
	})
	c.bundler = probing

	opts := DefaultOptions()
	opts.Emit = false
	_, err := c.CompileOne(context.Background(), "u", opts)
	require.NoError(t, err)

	assert.Contains(t, captured, `"extends"`)
	assert.Contains(t, captured, `"noEmit": true`)
}

// bundleFunc adapts a function to the Bundler interface.
type bundleFunc func(context.Context, string, bundler.Config, bundler.Entries) (*bundler.Result, error)

func (f bundleFunc) Bundle(ctx context.Context, dir string, cfg bundler.Config, entries bundler.Entries) (*bundler.Result, error) {
	return f(ctx, dir, cfg, entries)
}
