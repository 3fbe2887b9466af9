package walker

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func sourceOnly(path string) bool {
	switch filepath.Ext(path) {
	case ".py", ".go", ".js":
		return true
	}
	return false
}

func collect(t *testing.T, root string) []string {
	t.Helper()
	var got []string
	w := NewWalker(func(path string) error {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		got = append(got, filepath.ToSlash(rel))
		return nil
	}, sourceOnly, nil)
	if err := w.Walk(root); err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	return got
}

func TestWalk(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py":               "x = 1\n",
		"b.go":               "package b\n",
		"notes.txt":          "not source\n",
		"bin.py":             "x\x00y",
		".hidden/c.py":       "pass\n",
		".gitignore":         "ignored\n*.gen.py\n",
		"ignored/d.py":       "pass\n",
		"sub/e.py":           "pass\n",
		"sub/x.gen.py":       "pass\n",
		"skip.log":           "log\n",
		"node_modules/f.js":  "1;\n",
		"vendor/lib/g.go":    "package lib\n",
		"__pycache__/h.py":   "pass\n",
		"web/app.js":         "let a = 1;\n",
		"web/.eslintrc.js":   "module.exports = {};\n",
		"web/sub/.gitignore": "*.js\n",
		"web/sub/skipped.js": "1;\n",
		"web/sub/kept.py":    "pass\n",
	})

	got := collect(t, root)
	want := []string{"a.py", "b.go", "sub/e.py", "web/app.js", "web/sub/kept.py"}
	if !slices.Equal(got, want) {
		t.Errorf("Walk() emitted %v, want %v", got, want)
	}
}

func TestWalkFile(t *testing.T) {
	root := writeTree(t, map[string]string{"notes.txt": "plain\n"})
	path := filepath.Join(root, "notes.txt")

	var got []string
	w := NewWalker(func(p string) error {
		got = append(got, p)
		return nil
	}, sourceOnly, nil)
	if err := w.Walk(path); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != path {
		t.Errorf("Walk(file) emitted %v", got)
	}
}

func TestWalkEmitterError(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "", "b.py": ""})
	boom := errors.New("boom")
	calls := 0
	w := NewWalker(func(string) error {
		calls++
		return boom
	}, nil, nil)
	if err := w.Walk(root); !errors.Is(err, boom) {
		t.Errorf("Walk() error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("emitter called %d times after failing", calls)
	}
}

func TestWalkMissing(t *testing.T) {
	w := NewWalker(func(string) error { return nil }, nil, nil)
	if err := w.Walk(filepath.Join(t.TempDir(), "nope")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Walk() error = %v, want not exist", err)
	}
}

func TestIsBinary(t *testing.T) {
	root := writeTree(t, map[string]string{
		"text": strings.Repeat("abc\n", 500),
		"bin":  "\x7fELF\x00\x01",
	})
	tests := []struct {
		name  string
		want  bool
		first byte
	}{
		{"text", false, 'a'},
		{"bin", true, 0x7f},
	}
	for _, tt := range tests {
		f, err := os.Open(filepath.Join(root, tt.name))
		if err != nil {
			t.Fatal(err)
		}
		if got := IsBinary(f); got != tt.want {
			t.Errorf("IsBinary(%s) = %v, want %v", tt.name, got, tt.want)
		}
		buf := make([]byte, 1)
		if n, _ := f.Read(buf); n != 1 || buf[0] != tt.first {
			t.Errorf("IsBinary(%s) did not rewind", tt.name)
		}
		f.Close()
	}
}
