package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prosody/internal/config"
	"prosody/internal/testsupport"
	"prosody/internal/textgrid"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

// setupCLITestEnv isolates HOME, writes a config file for a fresh corpus
// directory and seeds it with one TextGrid/WAV pair.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv(config.DictionaryEnv, "")
	cfg.Logging.Level = "error"

	testsupport.WriteTextGrid(t, filepath.Join(cfg.Paths.DataDir, "spk1.TextGrid"), "words",
		textgrid.Interval{Start: 0, End: 0.1, Label: ""},
		textgrid.Interval{Start: 0.1, End: 0.5, Label: "hello"},
		textgrid.Interval{Start: 0.5, End: 0.9, Label: "world"},
	)
	testsupport.WriteWAV(t, filepath.Join(cfg.Paths.DataDir, "spk1.wav"), testsupport.Tone(200, 0.3, 1.0))

	configPath := filepath.Join(base, "prosody.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
