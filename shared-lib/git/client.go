package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goGit "github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when a directory is not inside a git worktree.
var ErrNotRepository = errors.New("not a git repository")

// IsRepository reports whether dir lies inside a git worktree. Parent
// directories are searched for the .git entry the same way git does.
func IsRepository(dir string) (bool, error) {
	_, err := openRepository(dir)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotRepository) {
		return false, nil
	}
	return false, err
}

// RepositoryRoot returns the absolute worktree root containing dir.
func RepositoryRoot(dir string) (string, error) {
	repo, err := openRepository(dir)
	if err != nil {
		return "", err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}
	return worktree.Filesystem.Root(), nil
}

func openRepository(dir string) (*goGit.Repository, error) {
	if dir == "" {
		return nil, fmt.Errorf("working directory cannot be empty")
	}
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access working directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("working directory %q is not a directory", absPath)
	}

	repo, err := goGit.PlainOpenWithOptions(absPath, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, goGit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s: %w", absPath, ErrNotRepository)
		}
		return nil, fmt.Errorf("failed to open repository at %s: %w", absPath, err)
	}
	return repo, nil
}
