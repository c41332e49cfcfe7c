package main

import (
	"context"
	"strings"
	"sync"

	"github.com/gitclock/agent/agent/types"
	"github.com/gitclock/agent/shared-lib/github"
	"github.com/kr/pretty"
	"go.uber.org/zap"
)

const (
	readmePath    = "README.md"
	readmeMessage = "Add initial README.md"
)

const readmeContent = `# Git Clock

GitClock keeps a daily log of the work done in your local repositories so your contributions stay visible.

## How it works

- The agent checks the working directory for changes on a fixed interval (30 minutes or more).
- Every file that changed is added as a row to ` + "`CHANGELOG_<date>.md`" + ` in this repository.
- Rows record the time, the file and the number of added and deleted lines.

## Usage

1. Run ` + "`gitclock-agent login`" + ` once to connect your account.
2. (Optional) Run ` + "`gitclock-agent set-interval <minutes>`" + ` to change how often changes are logged.
3. Run ` + "`gitclock-agent run`" + ` inside the project you are working on.
`

// Bootstrapper makes sure the changelog repository exists before any
// cycle writes into it.
type Bootstrapper struct {
	newClient ClientFactory
	log       *zap.SugaredLogger

	mu      sync.Mutex
	ensured map[string]types.BootstrapResult
}

func NewBootstrapper(newClient ClientFactory, log *zap.SugaredLogger) *Bootstrapper {
	return &Bootstrapper{
		newClient: newClient,
		log:       log,
		ensured:   make(map[string]types.BootstrapResult),
	}
}

// EnsureRepository creates session.RepoName with a README when the token
// owner has no repository of that name. The outcome is remembered per
// repository name, so later calls make no remote requests.
func (b *Bootstrapper) EnsureRepository(ctx context.Context, session types.Session) (types.BootstrapResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if result, ok := b.ensured[session.RepoName]; ok {
		return result, nil
	}

	client, err := b.newClient(session)
	if err != nil {
		return "", types.BootstrapError(types.AgentOperationResolvingUser, err)
	}

	owner, err := client.CurrentUser(ctx)
	if err != nil {
		return "", types.BootstrapError(types.AgentOperationResolvingUser, err)
	}

	repos, err := client.ListUserRepos(ctx)
	if err != nil {
		return "", types.BootstrapError(types.AgentOperationListingRepos, err)
	}
	b.log.Debugw("Listed user repositories", "owner", owner, "count", len(repos))

	if hasRepository(repos, owner, session.RepoName) {
		b.log.Infow("Repository exists", "owner", owner, "repo", session.RepoName)
		b.ensured[session.RepoName] = types.BootstrapResultExists
		return types.BootstrapResultExists, nil
	}

	if err := client.CreateRepo(ctx, session.RepoName, false); err != nil {
		return "", types.BootstrapError(types.AgentOperationCreatingRepo, err).WithContext("repo", session.RepoName)
	}
	b.log.Infow("Repository created", "owner", owner, "repo", session.RepoName)

	err = client.PutFile(ctx, owner, session.RepoName, readmePath, github.PutFileRequest{
		Message: readmeMessage,
		Content: []byte(readmeContent),
	})
	if err != nil {
		return "", types.BootstrapError(types.AgentOperationSeedingReadme, err).WithContext("repo", session.RepoName)
	}

	b.ensured[session.RepoName] = types.BootstrapResultCreated
	b.log.Debugw("Repository bootstrapped", "state", pretty.Sprint(b.ensured))
	return types.BootstrapResultCreated, nil
}

// hasRepository matches on the full name: the listing also carries
// collaborator and organization repositories.
func hasRepository(repos []github.Repository, owner, name string) bool {
	fullName := owner + "/" + name
	for _, repo := range repos {
		if strings.EqualFold(repo.FullName, fullName) {
			return true
		}
	}
	return false
}
