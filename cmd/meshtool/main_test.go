package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/meshkit/pkg/formats"
	"github.com/Faultbox/meshkit/pkg/mesh"
)

// crackOBJ has a T-vertex at (1,0,0) on the long edge of the first face.
const crackOBJ = `v 0 0 0
v 2 0 0
v 0 2 0
v 1 0 0
v 1 -1 0
f 1 2 3
f 1 5 4
f 4 5 2
`

// workdir isolates a test from config files on the machine.
func workdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return dir
}

func runCmd(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestRun_Usage(t *testing.T) {
	workdir(t)
	if _, _, code := runCmd(t); code != 1 {
		t.Errorf("no args: exit %d", code)
	}
	if out, _, code := runCmd(t, "help"); code != 0 || !strings.Contains(out, "Commands:") {
		t.Errorf("help: exit %d, output %q", code, out)
	}
	if _, errOut, code := runCmd(t, "frobnicate"); code != 1 || !strings.Contains(errOut, "Unknown command") {
		t.Errorf("unknown command: exit %d, stderr %q", code, errOut)
	}
	if _, errOut, code := runCmd(t, "tvertex"); code != 1 || !strings.Contains(errOut, "bad usage") {
		t.Errorf("missing input: exit %d, stderr %q", code, errOut)
	}
}

func TestRun_TVertex(t *testing.T) {
	dir := workdir(t)
	in := filepath.Join(dir, "crack.obj")
	if err := os.WriteFile(in, []byte(crackOBJ), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "fixed.pbmesh")

	stdout, stderr, code := runCmd(t, "tvertex", "-o", out, in)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Faces:      3 -> 4") || !strings.Contains(stdout, "Splits:     1") {
		t.Errorf("unexpected report:\n%s", stdout)
	}

	m, err := formats.Load(out, formats.Options{})
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if n := len(m.Indices(mesh.KeyPosition)); n != 12 {
		t.Errorf("expected 12 corners, got %d", n)
	}
}

func TestRun_SampleInfoConvert(t *testing.T) {
	dir := workdir(t)
	stl := filepath.Join(dir, "box.stl")

	if _, stderr, code := runCmd(t, "sample", "-cells", "8", "-o", stl, "box"); code != 0 {
		t.Fatalf("sample: exit %d: %s", code, stderr)
	}

	stdout, stderr, code := runCmd(t, "info", stl)
	if code != 0 {
		t.Fatalf("info: exit %d: %s", code, stderr)
	}
	for _, want := range []string{"POSITION", "NORMAL", "TRIANGLES", "Bounds:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("info output missing %q:\n%s", want, stdout)
		}
	}

	obj := filepath.Join(dir, "box.obj")
	if _, stderr, code := runCmd(t, "convert", stl, obj); code != 0 {
		t.Fatalf("convert: exit %d: %s", code, stderr)
	}
	if _, err := os.Stat(obj); err != nil {
		t.Errorf("converted file: %v", err)
	}

	welded := filepath.Join(dir, "welded.obj")
	stdout, stderr, code = runCmd(t, "weld", "-o", welded, obj)
	if code != 0 {
		t.Fatalf("weld: exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "POSITION") {
		t.Errorf("weld report missing POSITION:\n%s", stdout)
	}
}

func TestRun_Transform(t *testing.T) {
	dir := workdir(t)
	in := filepath.Join(dir, "crack.obj")
	if err := os.WriteFile(in, []byte(crackOBJ), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "moved.obj")

	if _, stderr, code := runCmd(t, "transform", "-t", "10,0,0", "-o", out, in); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "v 10 0 0\n") {
		t.Errorf("expected translated first vertex, got:\n%s", data)
	}

	if _, errOut, code := runCmd(t, "transform", "-s", "1,1", "-o", out, in); code != 1 || !strings.Contains(errOut, "-s") {
		t.Errorf("bad scale: exit %d, stderr %q", code, errOut)
	}
}

func TestRun_Config(t *testing.T) {
	dir := workdir(t)

	stdout, stderr, code := runCmd(t, "config", "-max-entries", "12")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "max_entries: 12") {
		t.Errorf("expected flag override in:\n%s", stdout)
	}

	path := filepath.Join(dir, "saved.yaml")
	if _, stderr, code := runCmd(t, "config", "-epsilon", "0.01", "-o", path); code != 0 {
		t.Fatalf("save: exit %d: %s", code, stderr)
	}
	stdout, _, code = runCmd(t, "config", "-config", path)
	if code != 0 || !strings.Contains(stdout, "epsilon: 0.01") {
		t.Errorf("reloaded config: exit %d\n%s", code, stdout)
	}

	if _, _, code := runCmd(t, "config", "-max-entries", "2"); code != 1 {
		t.Errorf("invalid fan-out should fail, exit %d", code)
	}
}
