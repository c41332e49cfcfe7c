package git

import (
	"context"
	"fmt"
	"sort"
	"strings"

	goGit "github.com/go-git/go-git/v5"
)

// Querier runs the two version-control queries the detector depends on.
type Querier interface {
	// Status returns short-format status output for dir.
	Status(ctx context.Context, dir string) (string, error)
	// DiffStat returns `git diff --numstat` output for a single path.
	DiffStat(ctx context.Context, dir, path string) (string, error)
}

// Backend selects the Querier implementation.
type Backend string

const (
	BackendExec  Backend = "exec"
	BackendGoGit Backend = "go-git"
)

// NewQuerier builds the Querier for backend. Both backends use runner for
// diff-stat queries; go-git has no numstat for the working tree.
func NewQuerier(backend Backend, runner Runner) (Querier, error) {
	if runner == nil {
		runner = NewExecRunner("")
	}
	switch backend {
	case BackendExec, "":
		return NewExecQuerier(runner), nil
	case BackendGoGit:
		return NewGoGitQuerier(runner), nil
	default:
		return nil, fmt.Errorf("unsupported vcs backend: %s", backend)
	}
}

// ExecQuerier answers both queries with the git binary.
type ExecQuerier struct {
	runner Runner
}

func NewExecQuerier(runner Runner) *ExecQuerier {
	return &ExecQuerier{runner: runner}
}

func (q *ExecQuerier) Status(ctx context.Context, dir string) (string, error) {
	return q.runner.Run(ctx, dir, "status", "--short")
}

func (q *ExecQuerier) DiffStat(ctx context.Context, dir, path string) (string, error) {
	return q.runner.Run(ctx, dir, "diff", "--numstat", "--", path)
}

// GoGitQuerier reads the worktree status through go-git and renders it in
// the short format, so the same parser serves both backends.
type GoGitQuerier struct {
	runner Runner
}

func NewGoGitQuerier(runner Runner) *GoGitQuerier {
	return &GoGitQuerier{runner: runner}
}

func (q *GoGitQuerier) Status(ctx context.Context, dir string) (string, error) {
	repo, err := openRepository(dir)
	if err != nil {
		return "", err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("failed to read worktree status: %w", err)
	}

	paths := make([]string, 0, len(status))
	for path, fileStatus := range status {
		if fileStatus.Staging == goGit.Unmodified && fileStatus.Worktree == goGit.Unmodified {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var out strings.Builder
	for _, path := range paths {
		fileStatus := status[path]
		fmt.Fprintf(&out, "%c%c %s\n", fileStatus.Staging, fileStatus.Worktree, path)
	}
	return out.String(), nil
}

// DiffStat runs from the worktree root because go-git reports root-relative paths.
func (q *GoGitQuerier) DiffStat(ctx context.Context, dir, path string) (string, error) {
	root, err := RepositoryRoot(dir)
	if err != nil {
		return "", err
	}
	return q.runner.Run(ctx, root, "diff", "--numstat", "--", path)
}
