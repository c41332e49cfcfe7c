package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gitclock/agent/agent/database"
	"github.com/gitclock/agent/agent/types"
	"github.com/gitclock/agent/shared-lib/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(dataDir string) *types.Config {
	return &types.Config{
		WorkDir: ".",
		DataDir: dataDir,
		Repository: types.RepositoryConfig{
			Name:       "GitClock",
			APIBaseURL: "https://api.github.com",
		},
		Sync: types.SyncConfig{IntervalMinutes: 30, VCSBackend: "exec"},
		Log:  types.LogConfig{Level: "info"},
	}
}

type agentFixture struct {
	agent    *Agent
	db       *database.Database
	remote   *fakeRemote
	notifier *recordingNotifier
	detector *fakeDetector
}

func newAgentFixture(t *testing.T) *agentFixture {
	t.Helper()
	cfg := testConfig(t.TempDir())
	db, err := database.NewDatabase(cfg.DataDir)
	require.NoError(t, err)

	fixture := &agentFixture{
		db:       db,
		remote:   newFakeRemote(),
		notifier: &recordingNotifier{},
		detector: &fakeDetector{records: sampleRecords()},
	}
	fixture.remote.listErr = &github.APIError{StatusCode: 404}

	agent, err := NewAgent(cfg, zap.NewNop().Sugar(),
		WithDatabase(db),
		WithNotifier(fixture.notifier),
		WithClientFactory(fixture.remote.factory()),
		WithDetector(fixture.detector),
	)
	require.NoError(t, err)
	fixture.agent = agent
	return fixture
}

func TestNewAgent_UnknownBackend(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.Sync.VCSBackend = "svn"

	_, err := NewAgent(cfg, zap.NewNop().Sugar())
	require.Error(t, err)
	assert.True(t, types.IsComponent(err, types.AgentComponentConfig))
}

func TestSetInterval_RejectsBelowFloor(t *testing.T) {
	f := newAgentFixture(t)
	require.NoError(t, f.agent.SetInterval("60"))

	err := f.agent.SetInterval("15")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrIntervalTooShort)

	minutes, ok := f.db.GetIntervalMinutes()
	require.True(t, ok)
	assert.Equal(t, 60, minutes)
	assert.Equal(t, 60*time.Minute, BuildSession(f.agent.config, f.db).Interval)

	infos, errs := f.notifier.snapshot()
	assert.Equal(t, []string{"Commit interval set to 60 minutes"}, infos)
	assert.Equal(t, []string{"Commit interval cannot be less than 30 minutes"}, errs)
}

func TestSetInterval_RejectsAboveCeiling(t *testing.T) {
	f := newAgentFixture(t)

	err := f.agent.SetInterval("200000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrIntervalTooLong)

	_, ok := f.db.GetIntervalMinutes()
	assert.False(t, ok)
	assert.Equal(t, 30*time.Minute, BuildSession(f.agent.config, f.db).Interval)

	_, errs := f.notifier.snapshot()
	assert.Equal(t, []string{"Commit interval cannot be more than 10080 minutes"}, errs)
}

func TestSetInterval_RejectsNonNumber(t *testing.T) {
	f := newAgentFixture(t)

	err := f.agent.SetInterval("soon")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidInterval)

	_, ok := f.db.GetIntervalMinutes()
	assert.False(t, ok)
	assert.Equal(t, 30*time.Minute, BuildSession(f.agent.config, f.db).Interval)

	_, errs := f.notifier.snapshot()
	assert.Equal(t, []string{"Please enter a valid number"}, errs)
}

func TestStart_RequiresToken(t *testing.T) {
	f := newAgentFixture(t)

	err := f.agent.Start(context.Background())
	require.Error(t, err)
	assert.True(t, types.IsComponent(err, types.AgentComponentAuth))
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Nil(t, f.agent.syncer)
	assert.Zero(t, f.remote.callCount())

	_, errs := f.notifier.snapshot()
	assert.Equal(t, []string{"You are not authenticated. Please log in using GitHub."}, errs)
}

func TestSyncNow_BootstrapsAndPublishes(t *testing.T) {
	f := newAgentFixture(t)
	require.NoError(t, f.db.SetAccessToken("gho_token"))

	require.NoError(t, f.agent.SyncNow(context.Background()))

	assert.Equal(t, []string{"GitClock"}, f.remote.created)
	require.Len(t, f.remote.puts, 2)
	assert.Equal(t, "README.md", f.remote.puts[0].Path)
	assert.Contains(t, f.remote.puts[1].Path, "CHANGELOG_")

	infos, errs := f.notifier.snapshot()
	assert.Empty(t, errs)
	assert.Equal(t, []string{`Repository "GitClock" created successfully.`, "Changes logged successfully!"}, infos)
}

func TestSyncNow_BootstrapFailureIsReportedNotFatal(t *testing.T) {
	f := newAgentFixture(t)
	require.NoError(t, f.db.SetAccessToken("gho_token"))
	f.remote.reposErr = &github.APIError{StatusCode: 502, Message: "bad gateway"}

	require.NoError(t, f.agent.SyncNow(context.Background()))

	infos, errs := f.notifier.snapshot()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Error checking repository")
	assert.Equal(t, []string{"Changes logged successfully!"}, infos)
}

func TestStartAndStop(t *testing.T) {
	f := newAgentFixture(t)
	require.NoError(t, f.db.SetAccessToken("gho_token"))
	f.remote.repos = []github.Repository{{Name: "GitClock", FullName: "octo/GitClock"}}

	require.NoError(t, f.agent.Start(context.Background()))
	require.NotNil(t, f.agent.syncer)
	f.agent.TriggerSync()
	f.agent.Stop()

	infos, _ := f.notifier.snapshot()
	assert.Contains(t, infos, `Repository "GitClock" exists.`)
}

func TestLogin_RequiresOAuthSettings(t *testing.T) {
	f := newAgentFixture(t)

	err := f.agent.Login(context.Background())
	require.Error(t, err)
	assert.True(t, types.IsComponent(err, types.AgentComponentConfig))

	_, errs := f.notifier.snapshot()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "oauth.clientId")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitNotAuthenticated, exitCode(types.AuthError(types.AgentOperationLoadingToken, ErrNotAuthenticated)))
	assert.Equal(t, exitInvalidConfig, exitCode(types.ConfigError(types.AgentOperationValidatingConfig, types.ErrIntervalTooShort)))
	assert.Equal(t, exitFailure, exitCode(types.PublishError(types.AgentOperationWritingFile, errors.New("conflict"))))
}

func TestConsoleNotifier(t *testing.T) {
	var out, errOut bytes.Buffer
	notifier := NewConsoleNotifier(&out, &errOut)

	notifier.Info("Changes logged successfully!")
	notifier.Error("Please enter a valid number")

	assert.Equal(t, "[gitclock] Changes logged successfully!\n", out.String())
	assert.Equal(t, "[gitclock] error: Please enter a valid number\n", errOut.String())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(types.LogConfig{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(types.LogConfig{Level: "chatty"})
	require.Error(t, err)
}
