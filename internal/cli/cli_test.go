package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/circuitdag/pkg/cache"
	"github.com/matzehuels/circuitdag/pkg/dag"
	apperr "github.com/matzehuels/circuitdag/pkg/errors"
	"github.com/matzehuels/circuitdag/pkg/graph"
)

const bellQASM = "qreg q[2];\ncreg c[2];\nh q[0];\ncx q[0], q[1];\nmeasure q -> c;\n"

// setup isolates the cache directory and silences status output.
func setup(t *testing.T) string {
	t.Helper()
	cacheHome := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	t.Setenv(redisURLEnv, "")
	old := statusOut
	statusOut = io.Discard
	t.Cleanup(func() { statusOut = old })
	return cacheHome
}

func writeProgram(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCacheDir(t *testing.T) {
	t.Run("XDG", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")
		dir, err := cacheDir()
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})

	t.Run("Home", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "")
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}
		dir, err := cacheDir()
		if err != nil {
			t.Fatal(err)
		}
		if want := filepath.Join(home, ".cache", appName); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})
}

func TestNewCache(t *testing.T) {
	cacheHome := setup(t)

	c, err := newCache(context.Background(), cacheFlags{noCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*cache.NullCache); !ok {
		t.Errorf("--no-cache gave %T", c)
	}

	c, err = newCache(context.Background(), cacheFlags{})
	if err != nil {
		t.Fatal(err)
	}
	fc, ok := c.(*cache.FileCache)
	if !ok {
		t.Fatalf("default cache is %T", c)
	}
	if want := filepath.Join(cacheHome, appName); fc.Dir() != want {
		t.Errorf("Dir() = %q, want %q", fc.Dir(), want)
	}
}

func TestConvertCommandJSON(t *testing.T) {
	setup(t)
	path := writeProgram(t, "bell.qasm", bellQASM)

	out, err := execute(t, "", "convert", path)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	g, err := graph.UnmarshalGraph([]byte(out))
	if err != nil {
		t.Fatalf("UnmarshalGraph: %v\n%s", err, out)
	}
	if g.Name != "bell" || g.Stats.Size != 4 || g.Stats.Depth != 3 {
		t.Errorf("graph %q size %d depth %d", g.Name, g.Stats.Size, g.Stats.Depth)
	}
}

func TestConvertCommandStdinText(t *testing.T) {
	setup(t)
	out, err := execute(t, bellQASM, "convert", "-", "--output", "text", "--no-cache")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 || !strings.Contains(lines[0], "h") {
		t.Errorf("schedule:\n%s", out)
	}
}

func TestConvertCommandOutFile(t *testing.T) {
	setup(t)
	path := writeProgram(t, "bell.qasm", bellQASM)
	target := filepath.Join(t.TempDir(), "bell.json")

	out, err := execute(t, "", "convert", path, "-o", target, "--recurse", "--share", "--stats")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if out != "" {
		t.Errorf("stdout should be empty when writing a file, got %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := graph.UnmarshalGraph(data); err != nil {
		t.Errorf("written file: %v", err)
	}
}

func TestConvertCommandErrors(t *testing.T) {
	setup(t)
	tests := []struct {
		name     string
		args     []string
		wantCode apperr.Code
		wantErr  error
	}{
		{
			name:     "MissingFile",
			args:     []string{"convert", filepath.Join(t.TempDir(), "nope.qasm")},
			wantCode: apperr.ErrCodeFileNotFound,
		},
		{
			name:     "UnknownExtension",
			args:     []string{"convert", writeProgram(t, "bell.txt", bellQASM)},
			wantCode: apperr.ErrCodeInvalidFormat,
		},
		{
			name:     "UnknownWire",
			args:     []string{"convert", writeProgram(t, "bad.qasm", "qreg q[1];\nx q[3];")},
			wantCode: apperr.ErrCodeConversion,
			wantErr:  dag.ErrUnknownWire,
		},
		{
			name:     "BadOutput",
			args:     []string{"convert", writeProgram(t, "ok.qasm", bellQASM), "--output", "svg"},
			wantCode: apperr.ErrCodeInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "", tt.args...)
			if !apperr.Is(err, tt.wantCode) {
				t.Fatalf("err = %v, want code %s", err, tt.wantCode)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCacheCommands(t *testing.T) {
	cacheHome := setup(t)
	path := writeProgram(t, "bell.qasm", bellQASM)

	out, err := execute(t, "", "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(cacheHome, appName)
	if strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, want %q", out, dir)
	}

	if _, err := execute(t, "", "convert", path); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if countFiles(t, dir) == 0 {
		t.Fatal("convert did not populate the cache")
	}
	if _, err := execute(t, "", "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if n := countFiles(t, dir); n != 0 {
		t.Errorf("%d files left after clear", n)
	}
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}

func TestVersionFlag(t *testing.T) {
	setup(t)
	out, err := execute(t, "", "--version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, appName+" version ") {
		t.Errorf("version output = %q", out)
	}
}
