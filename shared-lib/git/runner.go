package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Runner abstracts executing git commands inside a working directory.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner executes the git binary.
type ExecRunner struct {
	GitBin string
}

func NewExecRunner(gitBin string) *ExecRunner {
	if strings.TrimSpace(gitBin) == "" {
		gitBin = "git"
	}
	return &ExecRunner{GitBin: gitBin}
}

func (e *ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, e.GitBin, args...)
	if strings.TrimSpace(dir) != "" {
		cmd.Dir = dir
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", commandSummary(args), msg)
	}
	return stdout.String(), nil
}

var safeArg = regexp.MustCompile(`^-{0,2}[a-z][a-z-]*$`)

// commandSummary keeps the leading subcommand and flag tokens, dropping paths.
func commandSummary(args []string) string {
	if len(args) == 0 {
		return "<no-args>"
	}
	summary := make([]string, 0, len(args))
	for _, a := range args {
		if !safeArg.MatchString(a) {
			break
		}
		summary = append(summary, a)
	}
	if len(summary) == 0 {
		return "<redacted>"
	}
	return strings.Join(summary, " ")
}
