package walker

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	ignore "github.com/denormal/go-gitignore"
	"github.com/karrick/godirwalk"
)

// EmitterFunc receives every source file the walk accepts.
type EmitterFunc func(osPathname string) error

// FilterFunc reports whether a regular file should be emitted.
type FilterFunc func(osPathname string) bool

type Walker struct {
	root        string
	ignoreFiles []ignore.GitIgnore
	skipRe      *regexp.Regexp
	seenPaths   map[string]bool
	filter      FilterFunc
	emitter     EmitterFunc
	log         *slog.Logger
}

var SKIP_RE = regexp.MustCompile(`(/\.git|/node_modules|/vendor|/__pycache__|[^/]\.log|\w\.lock|\.zip|\.tgz)$`)

// IsBinary reports whether the first KiB of file holds a NUL byte. The
// file offset is restored.
func IsBinary(file *os.File) bool {
	bytes := make([]byte, 1024)
	n, _ := file.Read(bytes)
	defer file.Seek(0, io.SeekStart)
	for _, b := range bytes[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}

func isBinaryPath(osPathname string) (bool, error) {
	file, err := os.Open(osPathname)
	if err != nil {
		return false, err
	}
	defer file.Close()
	return IsBinary(file), nil
}

func (w *Walker) callback(osPathname string, directoryEntry *godirwalk.Dirent) error {
	if _, ok := w.seenPaths[osPathname]; ok {
		return godirwalk.SkipThis
	}
	w.seenPaths[osPathname] = true

	if w.skipRe.MatchString(filepath.ToSlash(osPathname)) {
		w.log.Debug("skip", "path", osPathname, "reason", "noise")
		return godirwalk.SkipThis
	}
	if name := directoryEntry.Name(); osPathname != w.root && strings.HasPrefix(name, ".") {
		w.log.Debug("skip", "path", osPathname, "reason", "hidden")
		return godirwalk.SkipThis
	}
	abs, err := filepath.Abs(osPathname)
	if err != nil {
		return err
	}
	for _, ignoreFile := range w.ignoreFiles {
		if ignoreFile.Ignore(abs) {
			w.log.Debug("skip", "path", osPathname, "reason", "gitignore")
			return godirwalk.SkipThis
		}
	}

	if directoryEntry.IsDir() {
		w.loadIgnore(abs)
		return nil
	}

	if directoryEntry.IsRegular() {
		if !w.filter(osPathname) {
			return nil
		}
		binary, err := isBinaryPath(osPathname)
		if err != nil {
			return err
		}
		if binary {
			w.log.Debug("skip", "path", osPathname, "reason", "binary")
			return nil
		}
		if err := w.emitter(osPathname); err != nil {
			return &emitError{err}
		}
	}
	return nil
}

var errEmit = errors.New("emit")

// emitError marks failures of the emitter so they halt the walk instead
// of being skipped like I/O errors.
type emitError struct{ err error }

func (e *emitError) Error() string        { return e.err.Error() }
func (e *emitError) Unwrap() error        { return e.err }
func (e *emitError) Is(target error) bool { return target == errEmit }

// loadIgnore reads dir/.gitignore before the walk enters dir.
func (w *Walker) loadIgnore(dir string) {
	ignorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(ignorePath); err != nil {
		return
	}
	ignoreFile, err := ignore.NewFromFile(ignorePath)
	if err != nil {
		w.log.Debug("unreadable gitignore", "path", ignorePath, "err", err)
		return
	}
	w.ignoreFiles = append(w.ignoreFiles, ignoreFile)
}

func NewWalker(emitter EmitterFunc, filter FilterFunc, log *slog.Logger) *Walker {
	if filter == nil {
		filter = func(string) bool { return true }
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Walker{
		ignoreFiles: make([]ignore.GitIgnore, 0),
		skipRe:      SKIP_RE,
		seenPaths:   make(map[string]bool),
		filter:      filter,
		emitter:     emitter,
		log:         log,
	}
}

// Walk emits the accepted files below path. A path naming a file is
// emitted as is, without filtering. Errors from the emitter stop the walk.
func (w *Walker) Walk(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.emitter(path)
	}

	w.root = filepath.Clean(path)
	var emitErr error
	err = godirwalk.Walk(path, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			err := w.callback(osPathname, de)
			if err != nil && errors.Is(err, errEmit) {
				emitErr = errors.Unwrap(err)
			}
			return err
		},
		FollowSymbolicLinks: true,
		ErrorCallback: func(osPathname string, err error) godirwalk.ErrorAction {
			if emitErr != nil {
				return godirwalk.Halt
			}
			w.log.Warn("walk error", "path", osPathname, "err", err)
			return godirwalk.SkipNode
		},
	})
	if emitErr != nil {
		return emitErr
	}
	return err
}
