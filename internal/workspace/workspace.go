// Package workspace wraps the git working tree the agent operates on,
// including sandbox preparation for isolating destructive operations.
package workspace

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitRunner provides git commands. Interface for testing.
type GitRunner interface {
	Run(dir string, args ...string) (string, error)
}

// ExecGit implements GitRunner using exec.Command.
type ExecGit struct{}

func (g *ExecGit) Run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		return strings.TrimSpace(string(out)), fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Change is one working-tree change from git status --porcelain.
type Change struct {
	Status string // two-character porcelain status code
	Path   string
}

// Workspace is a git working tree rooted at Dir.
type Workspace struct {
	git GitRunner
	dir string
}

// New creates a Workspace over an existing directory.
func New(git GitRunner, dir string) (*Workspace, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("workspace dir %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace path %s is not a directory", dir)
	}
	return &Workspace{git: git, dir: dir}, nil
}

// Dir returns the working tree root.
func (w *Workspace) Dir() string {
	return w.dir
}

// Git runs a git command in the working tree.
func (w *Workspace) Git(args ...string) (string, error) {
	return w.git.Run(w.dir, args...)
}

// Status returns the working-tree changes from git status --porcelain.
func (w *Workspace) Status() ([]Change, error) {
	out, err := w.Git("status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	var changes []Change
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		path := strings.TrimSpace(line[3:])
		// Renames show as "old -> new"; the new path is what matters.
		if i := strings.Index(path, " -> "); i >= 0 {
			path = path[i+4:]
		}
		changes = append(changes, Change{
			Status: line[:2],
			Path:   strings.Trim(path, `"`),
		})
	}
	return changes, nil
}

// ModifiedSourceFiles returns changed paths filtered to source files,
// skipping test files themselves.
func (w *Workspace) ModifiedSourceFiles() ([]string, error) {
	changes, err := w.Status()
	if err != nil {
		return nil, err
	}
	var files []string
	for _, c := range changes {
		if isSourceFile(c.Path) && !isTestFile(c.Path) {
			files = append(files, c.Path)
		}
	}
	return files, nil
}

// RemoteURL returns the origin remote URL, or "" when none is configured.
func (w *Workspace) RemoteURL() string {
	out, err := w.Git("remote", "get-url", "origin")
	if err != nil {
		return ""
	}
	return out
}

var sourceExtensions = map[string]bool{
	".py":   true,
	".go":   true,
	".js":   true,
	".ts":   true,
	".jsx":  true,
	".tsx":  true,
	".rb":   true,
	".rs":   true,
	".java": true,
}

func isSourceFile(path string) bool {
	return sourceExtensions[filepath.Ext(path)]
}

func isTestFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, "test_") ||
		strings.HasSuffix(base, "_test.go") ||
		strings.HasSuffix(base, ".test.js") ||
		strings.HasSuffix(base, ".test.ts") ||
		strings.HasSuffix(base, "_test.py")
}

// GuessTestFile returns the conventional test file path for a source file:
// test_<name>.py next to Python sources, <name>_test.go next to Go sources,
// and so on. Returns "" when no convention applies.
func GuessTestFile(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	switch ext {
	case ".py":
		return filepath.Join(dir, "test_"+name+".py")
	case ".go":
		return filepath.Join(dir, name+"_test.go")
	case ".js", ".jsx":
		return filepath.Join(dir, name+".test.js")
	case ".ts", ".tsx":
		return filepath.Join(dir, name+".test.ts")
	}
	return ""
}

// PrepareSandbox copies the repository into sandboxDir and returns a
// Workspace over the copy. Destructive operations (rollback, failed patch
// applications) then never touch the caller's live tree. The copy skips
// nothing: git metadata must come along so git commands work in the sandbox.
func (w *Workspace) PrepareSandbox(sandboxDir string) (*Workspace, error) {
	if sandboxDir == "" {
		return nil, fmt.Errorf("sandbox dir is empty")
	}
	if err := os.RemoveAll(sandboxDir); err != nil {
		return nil, fmt.Errorf("clear sandbox: %w", err)
	}
	if err := copyTree(w.dir, sandboxDir); err != nil {
		return nil, fmt.Errorf("copy into sandbox: %w", err)
	}
	return &Workspace{git: w.git, dir: sandboxDir}, nil
}

// copyTree recursively copies src into dst, preserving file modes.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			return copyFile(path, target, info.Mode().Perm())
		}
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
