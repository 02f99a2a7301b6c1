package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"stackpress/internal/deps"
	"stackpress/internal/fileutil"
	"stackpress/internal/logging"
	"stackpress/internal/manifest"
	"stackpress/internal/pipeline"
	"stackpress/internal/testsupport"
	"stackpress/internal/transform"
)

type cliEnv struct {
	base       string
	configPath string
	workDir    string
}

func setupCLIEnv(t *testing.T, extra string) *cliEnv {
	t.Helper()
	base := t.TempDir()
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("STACKPRESS_MAGICK_BINARY", "")

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
state_dir = %q

[transform]
backend = "builtin"

[logging]
level = "error"
%s
`, filepath.Join(base, "state"), extra)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	work := filepath.Join(base, "work")
	if err := os.MkdirAll(work, 0o755); err != nil {
		t.Fatalf("mkdir work: %v", err)
	}
	return &cliEnv{base: base, configPath: configPath, workDir: work}
}

func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommandBuiltinJSON(t *testing.T) {
	env := setupCLIEnv(t, "")
	testsupport.WriteGrayTIFF(t, filepath.Join(env.workDir, "sample.tif"),
		testsupport.GradientPage(64, 48, 1),
		testsupport.GradientPage(64, 48, 2),
		testsupport.GradientPage(64, 48, 3),
	)

	out, err := env.run(t, "run", env.workDir, "--json")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	var report pipeline.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.RunID == "" || len(report.Outcomes) != 1 || report.Outcomes[0].Pages != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}

	m, err := manifest.Read(filepath.Join(env.workDir, "manifest.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if len(m.Basenames) != 1 || m.Basenames[0] != "sample" {
		t.Fatalf("manifest = %v", m.Basenames)
	}
}

func TestRunCommandTableSurvivesAssetFailure(t *testing.T) {
	env := setupCLIEnv(t, "")
	testsupport.WriteGrayTIFF(t, filepath.Join(env.workDir, "good.tif"), testsupport.UniformPage(8, 8, 5))
	if err := os.WriteFile(filepath.Join(env.workDir, "broken.tif"), []byte("not a tiff"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := env.run(t, "run", env.workDir, "--workers", "2")
	if err != nil {
		t.Fatalf("asset failures must not fail the command: %v", err)
	}
	for _, want := range []string{"broken", "good", "failed", "inspect", "2 assets: 1 ok, 1 failed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommandMissingMagickExitsTwo(t *testing.T) {
	env := setupCLIEnv(t, "")
	t.Setenv("PATH", t.TempDir())

	_, err := env.run(t, "run", env.workDir, "--backend", "magick")
	if !errors.Is(err, deps.ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
	if code := exitCode(err); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	if _, statErr := os.Stat(filepath.Join(env.workDir, "manifest.json")); !os.IsNotExist(statErr) {
		t.Fatal("no manifest should be written when the tool is missing")
	}
}

func TestRunCommandLockedExitsOne(t *testing.T) {
	env := setupCLIEnv(t, "")
	held := flock.New(filepath.Join(env.workDir, pipeline.LockFileName))
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("pre-lock: %v", err)
	}
	defer held.Unlock()

	_, err := env.run(t, "run", env.workDir)
	if !errors.Is(err, pipeline.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if code := exitCode(err); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestRunCommandRejectsBadOverrides(t *testing.T) {
	env := setupCLIEnv(t, "")
	if _, err := env.run(t, "run", env.workDir, "--strategy", "teleport"); err == nil {
		t.Fatal("expected invalid strategy error")
	}
	if _, err := env.run(t, "run", env.workDir, "--workers", "0"); err == nil {
		t.Fatal("expected invalid workers error")
	}
}

func TestInvalidConfigExitsOne(t *testing.T) {
	env := setupCLIEnv(t, "[pipeline]\nworkers = 500\n")
	_, err := env.run(t, "run", env.workDir)
	if err == nil {
		t.Fatal("expected config validation error")
	}
	if code := exitCode(err); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestHistoryCommandListsRuns(t *testing.T) {
	env := setupCLIEnv(t, "\n[history]\nenabled = true\n")
	testsupport.WriteGrayTIFF(t, filepath.Join(env.workDir, "a.tif"), testsupport.UniformPage(4, 4, 1))

	out, err := env.run(t, "run", env.workDir, "--json")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var report pipeline.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}

	out, err = env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, report.RunID) {
		t.Fatalf("history output missing run %s:\n%s", report.RunID, out)
	}

	out, err = env.run(t, "history", "--run", report.RunID)
	if err != nil {
		t.Fatalf("history --run: %v", err)
	}
	if !strings.Contains(out, "a") || !strings.Contains(out, "FAILED STEP") {
		t.Fatalf("unexpected asset listing:\n%s", out)
	}
}

func TestHistoryCommandDisabled(t *testing.T) {
	env := setupCLIEnv(t, "")
	out, err := env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "disabled") {
		t.Fatalf("expected disabled notice, got %q", out)
	}
}

func TestCheckCommandBuiltin(t *testing.T) {
	env := setupCLIEnv(t, "")
	out, err := env.run(t, "check", env.workDir)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	for _, want := range []string{"Transform backend", "Input directory", "Directory lock", "[OK]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("check output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckCommandReportsFailures(t *testing.T) {
	env := setupCLIEnv(t, "")
	out, err := env.run(t, "check", filepath.Join(env.base, "missing"))
	if !errors.Is(err, errChecksFailed) {
		t.Fatalf("expected errChecksFailed, got %v", err)
	}
	if !strings.Contains(out, "[ERROR]") {
		t.Fatalf("expected an error line:\n%s", out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLIEnv(t, "")
	target := filepath.Join(env.base, "generated", "config.toml")

	out, err := env.run(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("unexpected init output %q", out)
	}
	if _, err := env.run(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal to overwrite")
	}

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--config", target, "config", "validate"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(buf.String(), "Configuration valid") {
		t.Fatalf("unexpected validate output %q", buf.String())
	}
}

func TestPipelineOptionsFollowConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(3), testsupport.WithStrategy("exchange"))
	opts := pipelineOptions(cfg)
	if opts.Workers != 3 {
		t.Fatalf("workers = %d, want 3", opts.Workers)
	}
	if opts.Strategy != fileutil.StrategyExchange {
		t.Fatalf("strategy = %q, want exchange", opts.Strategy)
	}
	if opts.ThumbnailDir != cfg.Pipeline.ThumbnailDir || opts.ManifestName != cfg.Pipeline.ManifestName {
		t.Fatalf("unexpected output names: %+v", opts)
	}
	if rel, err := filepath.Rel(testsupport.BaseDir(cfg), cfg.History.Path); err != nil || strings.HasPrefix(rel, "..") {
		t.Fatalf("history path %s escapes test base %s", cfg.History.Path, testsupport.BaseDir(cfg))
	}
}

func TestNewInvokerUsesResolvedMagick(t *testing.T) {
	script := testsupport.WriteScript(t, t.TempDir(), "magick", `echo "Version: ImageMagick 7.1.1"`)
	cfg := testsupport.NewConfig(t, testsupport.WithMagick(script))

	var override string
	cc := newCommandContext(nil)
	cc.resolveMagick = func(_ context.Context, binary string) (deps.Tool, error) {
		override = binary
		return deps.Tool{Command: binary, Version: "7.1.1"}, nil
	}
	invoker, err := cc.newInvoker(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("newInvoker: %v", err)
	}
	if override != script {
		t.Fatalf("resolver got %q, want %q", override, script)
	}
	m, ok := invoker.(*transform.Magick)
	if !ok {
		t.Fatalf("expected *transform.Magick, got %T", invoker)
	}
	if m.Binary() != script || m.Legacy() {
		t.Fatalf("unexpected invoker binary=%s legacy=%v", m.Binary(), m.Legacy())
	}
}
