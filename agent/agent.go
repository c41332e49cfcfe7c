package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/gitclock/agent/agent/database"
	"github.com/gitclock/agent/agent/types"
	"github.com/gitclock/agent/shared-lib/crypto"
	"github.com/gitclock/agent/shared-lib/git"
	httputils "github.com/gitclock/agent/shared-lib/http"
	"github.com/gitclock/agent/shared-lib/http/auth"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrNotAuthenticated = errors.New("no access token stored")

const notAuthenticatedMessage = "You are not authenticated. Please log in using GitHub."

const callbackShutdownTimeout = 5 * time.Second

// 1. Login through the browser and store the access token
// 2. Make sure the changelog repository exists
// 3. Detect local changes on an interval and append them to the daily changelog
type Agent struct {
	log          *zap.SugaredLogger
	config       types.Config
	database     database.DatabaseIfc
	notifier     Notifier
	newClient    ClientFactory
	detector     ChangeDetector
	exchanger    TokenExchanger
	httpClient   *http.Client
	bootstrapper *Bootstrapper
	syncer       ChangeSyncerIfc
}

type AgentOption func(*Agent)

func WithNotifier(notifier Notifier) AgentOption {
	return func(a *Agent) {
		a.notifier = notifier
	}
}

func WithClientFactory(factory ClientFactory) AgentOption {
	return func(a *Agent) {
		a.newClient = factory
	}
}

func WithDetector(detector ChangeDetector) AgentOption {
	return func(a *Agent) {
		a.detector = detector
	}
}

func WithDatabase(db database.DatabaseIfc) AgentOption {
	return func(a *Agent) {
		a.database = db
	}
}

// WithTokenExchanger replaces the OAuth client used by Login.
func WithTokenExchanger(exchanger TokenExchanger) AgentOption {
	return func(a *Agent) {
		a.exchanger = exchanger
	}
}

func NewAgent(cfg *types.Config, log *zap.SugaredLogger, opts ...AgentOption) (*Agent, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	httpClient, err := crypto.NewHTTPClient(cfg.Repository.CAFile)
	if err != nil {
		return nil, types.ConfigError(types.AgentOperationReadingConfig, err)
	}

	agent := &Agent{
		log:        log,
		config:     *cfg,
		notifier:   NewConsoleNotifier(os.Stdout, os.Stderr),
		newClient:  gitHubClientFactory(httpClient),
		httpClient: httpClient,
	}
	for _, opt := range opts {
		opt(agent)
	}

	if agent.database == nil {
		db, err := database.NewDatabase(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		agent.database = db
	}

	if agent.detector == nil {
		querier, err := git.NewQuerier(git.Backend(cfg.Sync.VCSBackend), git.NewExecRunner(""))
		if err != nil {
			return nil, types.ConfigError(types.AgentOperationValidatingConfig, err)
		}
		agent.detector = git.NewDetector(querier)
	}

	agent.bootstrapper = NewBootstrapper(agent.newClient, log)
	return agent, nil
}

// Start bootstraps the repository and starts the sync loop. Without a stored
// token no cycle is started.
func (a *Agent) Start(ctx context.Context) error {
	a.log.Info("Starting Agent")

	syncer, session, err := a.prepare(ctx)
	if err != nil {
		return err
	}
	a.syncer = syncer
	a.syncer.Start()

	a.log.Infow("Agent started successfully",
		"workDir", a.config.WorkDir,
		"repo", session.RepoName,
		"apiBaseUrl", session.APIBaseURL,
		"interval", session.Interval.String(),
		"vcsBackend", a.config.Sync.VCSBackend,
		"loggedInAt", a.database.GetSettings().LoggedInAt,
	)
	return nil
}

// SyncNow runs a single cycle in the foreground.
func (a *Agent) SyncNow(ctx context.Context) error {
	syncer, _, err := a.prepare(ctx)
	if err != nil {
		return err
	}
	_, err = syncer.RunCycle(ctx)
	return err
}

// TriggerSync asks a running agent for an immediate cycle.
func (a *Agent) TriggerSync() {
	if a.syncer == nil {
		return
	}
	a.log.Info("Sync requested")
	a.syncer.Trigger()
}

func (a *Agent) Stop() error {
	a.log.Info("Stopping Agent")

	if a.syncer != nil {
		a.syncer.Stop()
	}

	var err error
	if syncErr := a.log.Sync(); syncErr != nil && !isConsoleSyncError(syncErr) {
		err = multierr.Append(err, fmt.Errorf("failed to flush logger: %w", syncErr))
	}

	a.log.Info("Agent stopped")
	return err
}

// SetInterval validates and stores a new sync interval in minutes. A
// rejected value leaves the stored interval unchanged.
func (a *Agent) SetInterval(input string) error {
	minutes, err := types.ParseIntervalMinutes(input)
	if err != nil {
		a.notifier.Error(types.IntervalMessage(err))
		return types.ConfigError(types.AgentOperationValidatingConfig, err)
	}

	if err := a.database.SetIntervalMinutes(minutes); err != nil {
		a.notifier.Error("Failed to save commit interval: " + err.Error())
		return err
	}

	a.notifier.Info(fmt.Sprintf("Commit interval set to %d minutes", minutes))
	a.log.Infow("Sync interval updated", "minutes", minutes)
	return nil
}

// Login runs the browser based OAuth flow: it serves the redirect on the
// local callback address until one login completes or ctx is cancelled,
// stores the token and bootstraps the repository.
func (a *Agent) Login(ctx context.Context) error {
	oauthCfg := a.config.OAuth
	if err := oauthCfg.RequireOAuth(); err != nil {
		a.notifier.Error(err.Error())
		return types.ConfigError(types.AgentOperationValidatingConfig, err)
	}

	addr, path, err := httputils.CallbackAddress(oauthCfg.RedirectURI)
	if err != nil {
		return types.ConfigError(types.AgentOperationValidatingConfig, err)
	}
	if oauthCfg.ListenAddr != "" {
		addr = oauthCfg.ListenAddr
	}
	if oauthCfg.CallbackPath != "" {
		path = oauthCfg.CallbackPath
	}

	oauthClient, err := auth.NewOAuthClient(auth.OAuthSettings{
		ClientID:     oauthCfg.ClientID,
		ClientSecret: oauthCfg.ClientSecret,
		AuthURL:      oauthCfg.AuthURL,
		TokenURL:     oauthCfg.TokenURL,
		RedirectURL:  oauthCfg.RedirectURI,
		Scopes:       oauthCfg.Scopes,
	}, auth.WithHTTPClient(a.httpClient))
	if err != nil {
		return types.ConfigError(types.AgentOperationValidatingConfig, err)
	}
	exchanger := a.exchanger
	if exchanger == nil {
		exchanger = oauthClient
	}

	state := uuid.NewString()
	handler := NewOAuthCallbackHandler(path, state, exchanger, a.storeToken, a.log)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		a.notifier.Error("Error starting OAuth flow: " + err.Error())
		return types.AuthError(types.AgentOperationLogin, fmt.Errorf("failed to listen on %s: %w", addr, err))
	}
	server := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	a.notifier.Info("Opening GitHub login page...")
	a.notifier.Info("Open this URL in your browser to continue: " + oauthClient.AuthCodeURL(state))
	a.log.Infow("Waiting for oauth callback", "addr", listener.Addr().String(), "path", path)

	var loginErr error
	select {
	case result := <-handler.Done():
		loginErr = result.Err
	case err, ok := <-serveErr:
		if ok {
			loginErr = fmt.Errorf("oauth callback server failed: %w", err)
		} else {
			loginErr = fmt.Errorf("oauth callback server stopped")
		}
	case <-ctx.Done():
		loginErr = ctx.Err()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), callbackShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		loginErr = multierr.Append(loginErr, fmt.Errorf("failed to stop oauth callback server: %w", err))
	}

	if loginErr != nil {
		a.notifier.Error("Login failed: " + loginErr.Error())
		return types.AuthError(types.AgentOperationLogin, loginErr)
	}

	a.notifier.Info("GitHub login successful!")
	a.ensureRepository(ctx, BuildSession(a.config, a.database))
	return nil
}

func (a *Agent) storeToken(_ context.Context, token string) error {
	if err := a.database.SetAccessToken(token); err != nil {
		return err
	}
	a.log.Info("Access token stored")
	return nil
}

// prepare loads the session, bootstraps the repository and builds a syncer
// that is not started yet.
func (a *Agent) prepare(ctx context.Context) (*ChangeSyncer, types.Session, error) {
	session := BuildSession(a.config, a.database)
	if !session.HasToken() {
		a.notifier.Error(notAuthenticatedMessage)
		return nil, session, types.AuthError(types.AgentOperationLoadingToken, ErrNotAuthenticated)
	}

	a.ensureRepository(ctx, session)

	client, err := a.newClient(session)
	if err != nil {
		return nil, session, types.ConfigError(types.AgentOperationValidatingConfig, err)
	}
	publisher := NewChangelogPublisher(client, session.RepoName, a.log)
	syncer := NewChangeSyncer(a.detector, publisher, a.notifier, a.config.WorkDir, session.Interval, a.log)
	return syncer, session, nil
}

// ensureRepository reports bootstrap problems to the user without stopping
// the agent; a later cycle surfaces any lasting failure as a publish error.
func (a *Agent) ensureRepository(ctx context.Context, session types.Session) {
	result, err := a.bootstrapper.EnsureRepository(ctx, session)
	if err != nil {
		a.log.Errorw("Failed to ensure repository", "repo", session.RepoName, "error", err)
		a.notifier.Error("Error checking repository: " + err.Error())
		return
	}

	switch result {
	case types.BootstrapResultCreated:
		a.notifier.Info(fmt.Sprintf("Repository %q created successfully.", session.RepoName))
	case types.BootstrapResultExists:
		a.notifier.Info(fmt.Sprintf("Repository %q exists.", session.RepoName))
	}
}

// isConsoleSyncError matches the errors fsync returns for terminals and pipes.
func isConsoleSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EBADF)
}
