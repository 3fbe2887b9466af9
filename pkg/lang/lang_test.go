package lang

import (
	"errors"
	"testing"
)

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
		err  error
	}{
		{"a/b.py", Python, nil},
		{"stub.PYI", Python, nil},
		{"main.go", Go, nil},
		{"app.mjs", JavaScriptCST, nil},
		{"index.js", JavaScriptCST, nil},
		{"README.md", "", ErrUnknownLanguage},
		{"Makefile", "", ErrUnknownLanguage},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ForPath(tt.path)
			if !errors.Is(err, tt.err) {
				t.Fatalf("ForPath() error = %v, want %v", err, tt.err)
			}
			if got != tt.want {
				t.Errorf("ForPath() = %q, want %q", got, tt.want)
			}
			if Known(tt.path) != (tt.err == nil) {
				t.Errorf("Known() = %v", Known(tt.path))
			}
		})
	}
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q): %v", name, err)
		}
	}
	if _, err := Lookup("PYTHON"); err != nil {
		t.Errorf("Lookup is case sensitive: %v", err)
	}
	if _, err := Lookup("cobol"); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("Lookup(cobol) error = %v", err)
	}
	if len(Names()) != 5 {
		t.Errorf("Names() = %v", Names())
	}
}
