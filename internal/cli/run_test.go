package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestRunInnerJoin(t *testing.T) {
	dir := t.TempDir()
	left := writeTemp(t, dir, "left.csv", "color,red\ncolor,green\nshape,circle")
	right := writeTemp(t, dir, "right.csv", "color,orange\nsize,small")

	var stdout, stderr bytes.Buffer
	code := Run(nil, &stdout, &stderr, []string{"rjoin", "-b", left, right})
	if code != 0 {
		t.Fatalf("Run() code = %d, stderr = %q; want 0", code, stderr.String())
	}
	want := "color,red,orange\ncolor,green,orange\n"
	if stdout.String() != want {
		t.Fatalf("Run() stdout = %q; want %q", stdout.String(), want)
	}
}

func TestRunFullOuterWithCustomKey(t *testing.T) {
	dir := t.TempDir()
	left := writeTemp(t, dir, "left.csv", "red,color\ngreen,color\ncircle,shape")
	right := writeTemp(t, dir, "right.csv", "orange,color\nsmall,size")

	var stdout, stderr bytes.Buffer
	code := Run(nil, &stdout, &stderr, []string{"rjoin", "-l", "-r", "-b", "-k", "2", left, right})
	if code != 0 {
		t.Fatalf("Run() code = %d, stderr = %q; want 0", code, stderr.String())
	}
	want := "color,red,orange\ncolor,green,orange\nshape,circle\nsize,small\n"
	if stdout.String() != want {
		t.Fatalf("Run() stdout = %q; want %q", stdout.String(), want)
	}
}

func TestRunMissingFileArgument(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run(nil, &stdout, &stderr, []string{"rjoin", "-b"})
	if code != 1 {
		t.Fatalf("Run() code = %d; want 1", code)
	}
	if stderr.Len() == 0 {
		t.Fatalf("Run() stderr empty; want a diagnostic")
	}
}

func TestRunNonexistentFile(t *testing.T) {
	dir := t.TempDir()
	left := writeTemp(t, dir, "left.csv", "color,red")

	var stdout, stderr bytes.Buffer
	code := Run(nil, &stdout, &stderr, []string{"rjoin", "-b", left, filepath.Join(dir, "nope.csv")})
	if code != 1 {
		t.Fatalf("Run() code = %d; want 1", code)
	}
}

func TestRunOutputFile(t *testing.T) {
	dir := t.TempDir()
	left := writeTemp(t, dir, "left.csv", "color,red\nshape,circle")
	right := writeTemp(t, dir, "right.csv", "color,orange")
	out := filepath.Join(dir, "out.csv")

	var stdout, stderr bytes.Buffer
	code := Run(nil, &stdout, &stderr, []string{"rjoin", "-b", "-o", out, left, right})
	if code != 0 {
		t.Fatalf("Run() code = %d, stderr = %q; want 0", code, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("Run() stdout = %q; want empty when -o is given", stdout.String())
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := "color,red,orange\n"
	if string(got) != want {
		t.Fatalf("output file = %q; want %q", string(got), want)
	}
}

func TestRunHeader(t *testing.T) {
	dir := t.TempDir()
	left := writeTemp(t, dir, "left.csv", "key,lval\na,1")
	right := writeTemp(t, dir, "right.csv", "key,rval\na,2")

	var stdout, stderr bytes.Buffer
	code := Run(nil, &stdout, &stderr, []string{"rjoin", "-b", "--header", left, right})
	if code != 0 {
		t.Fatalf("Run() code = %d, stderr = %q; want 0", code, stderr.String())
	}
	want := "key,lval,rval\na,1,2\n"
	if stdout.String() != want {
		t.Fatalf("Run() stdout = %q; want %q", stdout.String(), want)
	}
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	left := writeTemp(t, dir, "left.csv", "color,red\nshape,circle")
	right := writeTemp(t, dir, "right.csv", "color,orange")
	cfgPath := writeTemp(t, dir, "rjoin.hujson", `{
		"show_both": true,
	}`)

	var stdout, stderr bytes.Buffer
	code := Run(nil, &stdout, &stderr, []string{"rjoin", "--config", cfgPath, left, right})
	if code != 0 {
		t.Fatalf("Run() code = %d, stderr = %q; want 0", code, stderr.String())
	}
	want := "color,red,orange\n"
	if stdout.String() != want {
		t.Fatalf("Run() stdout = %q; want %q", stdout.String(), want)
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run(nil, &stdout, &stderr, []string{"rjoin", "--help"})
	if code != 0 {
		t.Fatalf("Run() code = %d; want 0", code)
	}
}
