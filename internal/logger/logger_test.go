package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	Sync()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// lumberjack creates the file on first write
		return ""
	}
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestInitWritesConsoleToStderr(t *testing.T) {
	dir := t.TempDir()
	stderr, err := os.Create(filepath.Join(dir, "stderr"))
	if err != nil {
		t.Fatal(err)
	}
	defer stderr.Close()
	stdout, err := os.Create(filepath.Join(dir, "stdout"))
	if err != nil {
		t.Fatal(err)
	}
	defer stdout.Close()

	oldErr, oldOut := os.Stderr, os.Stdout
	os.Stderr, os.Stdout = stderr, stdout
	t.Cleanup(func() {
		os.Stderr, os.Stdout = oldErr, oldOut
		Nop()
	})

	if err := Init("info", ""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info("wrote mesh", zap.String("path", "out.obj"))

	if got := readLog(t, stderr.Name()); !strings.Contains(got, "wrote mesh") {
		t.Errorf("stderr = %q, want the entry", got)
	}
	if got := readLog(t, stdout.Name()); got != "" {
		t.Errorf("stdout = %q, want nothing", got)
	}
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	t.Cleanup(Nop)
	if err := Init("loud", ""); err == nil {
		t.Error("expected an error for level \"loud\"")
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Cleanup(Nop)

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"debug", []string{"traced", "loaded"}, nil},
		{"info", []string{"loaded"}, []string{"traced"}},
		{"error", nil, []string{"traced", "loaded"}},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "meshtool.log")
			if err := setup(tt.level, nil, &Rotation{Path: path, MaxSizeMB: 1}); err != nil {
				t.Fatalf("setup: %v", err)
			}
			Debug("traced")
			Info("loaded")

			got := readLog(t, path)
			for _, want := range tt.expected {
				if !strings.Contains(got, want) {
					t.Errorf("expected %q at level %s in %q", want, tt.level, got)
				}
			}
			for _, skip := range tt.excluded {
				if strings.Contains(got, skip) {
					t.Errorf("unexpected %q at level %s", skip, tt.level)
				}
			}
		})
	}
}

func TestNamedReachesFile(t *testing.T) {
	t.Cleanup(Nop)
	path := filepath.Join(t.TempDir(), "named.log")
	if err := setup("debug", nil, &Rotation{Path: path, MaxSizeMB: 1}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	Named("tvertex").Named("worklist").Info("split", zap.Int("face", 7))

	got := readLog(t, path)
	for _, want := range []string{"tvertex.worklist", "split", `"face": 7`, "logger_test.go"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestNopDiscardsAfterInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nop.log")
	if err := setup("debug", nil, &Rotation{Path: path, MaxSizeMB: 1}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	Info("kept")
	Sync()

	Nop()
	Info("dropped")
	Named("weld").Info("dropped")
	Sync()

	got := readLog(t, path)
	if !strings.Contains(got, "kept") || strings.Contains(got, "dropped") {
		t.Errorf("log = %q, want only the entry before Nop", got)
	}
	if Log.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("nop logger should have every level disabled")
	}
}

func TestDefaultRotation(t *testing.T) {
	got := DefaultRotation("meshtool.log")
	want := Rotation{Path: "meshtool.log", MaxSizeMB: 20, MaxBackups: 3, MaxAgeDays: 7, Compress: true}
	if got != want {
		t.Errorf("DefaultRotation() = %+v, want %+v", got, want)
	}
}
