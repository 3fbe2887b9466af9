package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/skrider/astpretty/pkg/lang"
)

const assignNoOffsets = `Module(
    body=[
        Assign(
            targets=[Name(id='x', ctx=Store())],
            value=Name(id='y', ctx=Load()),
            type_comment=None,
        ),
    ],
    type_ignores=[],
)
`

const exprNoOffsets = `Module(
    body=[
        Expr(
            value=Name(id='z', ctx=Load()),
        ),
    ],
    type_ignores=[],
)
`

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStdin(t *testing.T) {
	out, _, err := execute(t, "x = y\n", "--no-show-offsets")
	if err != nil {
		t.Fatal(err)
	}
	if out != assignNoOffsets {
		t.Errorf("output:\n%s\nwant:\n%s", out, assignNoOffsets)
	}
}

func TestStdinOffsets(t *testing.T) {
	out, _, err := execute(t, "x = y\n", "-")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "end_col_offset=5,") {
		t.Errorf("offsets missing from output:\n%s", out)
	}
}

func TestFileArgument(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.py", "x = y\n")

	out, _, err := execute(t, "", "--no-show-offsets", path)
	if err != nil {
		t.Fatal(err)
	}
	if out != assignNoOffsets {
		t.Errorf("output:\n%s\nwant:\n%s", out, assignNoOffsets)
	}
}

func TestMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.py", "x = y\n")
	b := writeFile(t, dir, "b.py", "z\n")

	out, _, err := execute(t, "", "--show-offsets=false", a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := "== " + a + " ==\n" + assignNoOffsets + "\n== " + b + " ==\n" + exprNoOffsets
	if out != want {
		t.Errorf("output:\n%s\nwant:\n%s", out, want)
	}
}

func TestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.py", "z\n")
	writeFile(t, dir, "notes.txt", "not code\n")

	out, _, err := execute(t, "", "--no-show-offsets", dir)
	if err != nil {
		t.Fatal(err)
	}
	if out != exprNoOffsets {
		t.Errorf("output:\n%s\nwant:\n%s", out, exprNoOffsets)
	}
}

func TestFailingFile(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.py", "z\n")
	bad := writeFile(t, dir, "bad.py", "def (\n")

	out, stderr, err := execute(t, "", "--no-show-offsets", bad, good)
	if err == nil {
		t.Fatal("Execute() succeeded")
	}
	if !strings.Contains(err.Error(), "1 of 2 inputs failed") {
		t.Errorf("Execute() error = %v", err)
	}
	if !strings.Contains(stderr, "bad.py") {
		t.Errorf("stderr does not name the failing file: %q", stderr)
	}
	if want := "== " + good + " ==\n" + exprNoOffsets; out != want {
		t.Errorf("output:\n%s\nwant:\n%s", out, want)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "c.toml", "show_offsets = false\nindent = \"  \"\nnamespace_prefix = \"ast\"\n")

	out, _, err := execute(t, "z\n", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := `ast.Module(
  body=[
    ast.Expr(
      value=ast.Name(id='z', ctx=ast.Load()),
    ),
  ],
  type_ignores=[],
)
`
	if out != want {
		t.Errorf("output:\n%s\nwant:\n%s", out, want)
	}

	// Flags win over the file.
	out, _, err = execute(t, "z\n", "--config", cfg, "--namespace-prefix", "")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "ast.") {
		t.Errorf("prefix flag ignored:\n%s", out)
	}
}

func TestConfigDiscovery(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".astpretty.yaml", "show_offsets: false\n")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	out, _, err := execute(t, "x = y\n")
	if err != nil {
		t.Fatal(err)
	}
	if out != assignNoOffsets {
		t.Errorf("output:\n%s\nwant:\n%s", out, assignNoOffsets)
	}
}

func TestInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"negative indent level", []string{"--indent-level", "-1"}, nil},
		{"negative jobs", []string{"-j", "-3"}, nil},
		{"unknown language", []string{"--lang", "cobol"}, lang.ErrUnknownLanguage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "x\n", tt.args...)
			if err == nil {
				t.Fatal("Execute() succeeded")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("Execute() error = %v, want %v", err, tt.is)
			}
			if out != "" {
				t.Errorf("unexpected output %q", out)
			}
		})
	}
}

func TestUnknownExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.txt", "x\n")
	_, stderr, err := execute(t, "", path)
	if err == nil {
		t.Fatal("Execute() succeeded")
	}
	if !strings.Contains(stderr, "unknown language") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestForcedLanguage(t *testing.T) {
	out, _, err := execute(t, "package p\n", "--lang", "go", "--no-show-offsets")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "File(\n") || !strings.Contains(out, "Name=Ident(Name=\"p\")") {
		t.Errorf("output:\n%s", out)
	}
}

func TestViewModel(t *testing.T) {
	m := viewModel{
		path:        "a.py",
		lang:        lang.Python,
		showOffsets: true,
		pages:       map[bool]string{true: "with offsets", false: "without offsets"},
	}
	if got := m.View(); got != "loading..." {
		t.Errorf("View() before size = %q", got)
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	m = next.(viewModel)
	if !strings.Contains(m.View(), "with offsets") || !strings.Contains(m.View(), "offsets on") {
		t.Errorf("View() = %q", m.View())
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")})
	m = next.(viewModel)
	if m.showOffsets || !strings.Contains(m.View(), "without offsets") {
		t.Errorf("o did not toggle offsets: %q", m.View())
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
