// Package worktree reads and writes the local working directory through an
// afero filesystem.
package worktree

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/spf13/afero"

	"dgit/internal/domain"
)

// IgnoreFile lists gitignore-style patterns excluded from commits.
const IgnoreFile = ".dgitignore"

// DefaultExtensions are the file extensions tracked when none are configured.
var DefaultExtensions = []string{".mo", ".rs"}

// ErrOutsideTree is returned for paths that would escape the tree root.
var ErrOutsideTree = errors.New("path escapes working tree")

// Tree is a working tree rooted at the root of fs.
type Tree struct {
	fs         afero.Fs
	extensions []string
}

// New returns a tree over fs tracking files with the given extensions.
// Empty extensions fall back to DefaultExtensions.
func New(fs afero.Fs, extensions []string) *Tree {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Tree{fs: fs, extensions: slices.Clone(extensions)}
}

// NewOS returns a tree rooted at dir on the host filesystem.
func NewOS(dir string, extensions []string) *Tree {
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), extensions)
}

// Extensions returns the tracked extensions.
func (t *Tree) Extensions() []string { return slices.Clone(t.extensions) }

// ListTracked returns the tracked files directly inside dir, sorted by path.
// Subdirectories are not descended into.
func (t *Tree) ListTracked(dir string) ([]string, error) {
	entries, err := afero.ReadDir(t.fs, dir)
	if err != nil {
		return nil, ioErr("list", dir, err)
	}
	ignore, err := t.ignoreMatcher(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, fi := range entries {
		name := fi.Name()
		if fi.IsDir() || !t.tracked(name) {
			continue
		}
		if ignore != nil && ignore.Match([]string{name}, false) {
			continue
		}
		out = append(out, filepath.ToSlash(filepath.Join(dir, name)))
	}
	slices.Sort(out)
	return out, nil
}

func (t *Tree) tracked(name string) bool {
	for _, ext := range t.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (t *Tree) ignoreMatcher(dir string) (gitignore.Matcher, error) {
	data, err := afero.ReadFile(t.fs, filepath.Join(dir, IgnoreFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, ioErr("read", IgnoreFile, err)
	}

	var patterns []gitignore.Pattern
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	if err := sc.Err(); err != nil {
		return nil, ioErr("read", IgnoreFile, err)
	}
	if len(patterns) == 0 {
		return nil, nil
	}
	return gitignore.NewMatcher(patterns), nil
}

// Read returns the content of path.
func (t *Tree) Read(path string) ([]byte, error) {
	b, err := afero.ReadFile(t.fs, filepath.FromSlash(path))
	if err != nil {
		return nil, ioErr("read", path, err)
	}
	return b, nil
}

// Write replaces the content of path, creating parent directories.
func (t *Tree) Write(path string, content []byte) error {
	p, err := localPath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(p); dir != "." {
		if err := t.fs.MkdirAll(dir, 0o755); err != nil {
			return ioErr("create directory for", path, err)
		}
	}
	if err := afero.WriteFile(t.fs, p, content, 0o644); err != nil {
		return ioErr("write", path, err)
	}
	return nil
}

// EnsureDir creates dir and its parents if missing.
func (t *Tree) EnsureDir(dir string) error {
	p, err := localPath(dir)
	if err != nil {
		return err
	}
	if err := t.fs.MkdirAll(p, 0o755); err != nil {
		return ioErr("create directory", dir, err)
	}
	return nil
}

// Join resolves rel below dir, refusing relative paths that leave dir.
func Join(dir, rel string) (string, error) {
	r, err := localPath(rel)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(filepath.Join(dir, r)), nil
}

func localPath(p string) (string, error) {
	fp := filepath.FromSlash(p)
	if !filepath.IsLocal(fp) {
		return "", fmt.Errorf("%w: %w: %q", domain.ErrIO, ErrOutsideTree, p)
	}
	return filepath.Clean(fp), nil
}

func ioErr(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", domain.ErrIO, op, path, err)
}

var _ domain.WorkingTree = (*Tree)(nil)
