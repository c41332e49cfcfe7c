package types

import (
	"errors"
	"fmt"
)

type AgentComponent string

const (
	AgentComponentDetection AgentComponent = "detection"
	AgentComponentPublish   AgentComponent = "publish"
	AgentComponentBootstrap AgentComponent = "bootstrap"
	AgentComponentAuth      AgentComponent = "auth"
	AgentComponentConfig    AgentComponent = "config"
	AgentComponentDatabase  AgentComponent = "database"
)

type AgentOperation string

const (
	AgentOperationReadingConfig    AgentOperation = "reading-config"
	AgentOperationValidatingConfig AgentOperation = "validating-config"
	AgentOperationDetectingChanges AgentOperation = "detecting-changes"
	AgentOperationResolvingUser    AgentOperation = "resolving-user"
	AgentOperationListingContents  AgentOperation = "listing-contents"
	AgentOperationDownloadingFile  AgentOperation = "downloading-changelog"
	AgentOperationWritingFile      AgentOperation = "writing-changelog"
	AgentOperationListingRepos     AgentOperation = "listing-repositories"
	AgentOperationCreatingRepo     AgentOperation = "creating-repository"
	AgentOperationSeedingReadme    AgentOperation = "seeding-readme"
	AgentOperationLogin            AgentOperation = "login"
	AgentOperationTokenExchange    AgentOperation = "token-exchange"
	AgentOperationLoadingToken     AgentOperation = "loading-token"
	AgentOperationDatabaseRead     AgentOperation = "database-read"
	AgentOperationDatabaseWrite    AgentOperation = "database-write"
)

// AgentError provides structured error handling
type AgentError struct {
	Component AgentComponent
	Operation AgentOperation
	Err       error
	Retryable bool
	Context   map[string]interface{}
}

func (e AgentError) Error() string {
	if len(e.Context) > 0 {
		return fmt.Sprintf("[%s:%s] %v (context: %v)", e.Component, e.Operation, e.Err, e.Context)
	}
	return fmt.Sprintf("[%s:%s] %v", e.Component, e.Operation, e.Err)
}

func (e AgentError) Unwrap() error {
	return e.Err
}

func NewAgentError(component AgentComponent, operation AgentOperation, err error, retryable bool) AgentError {
	return AgentError{
		Component: component,
		Operation: operation,
		Err:       err,
		Retryable: retryable,
	}
}

func (e AgentError) WithContext(key string, value interface{}) AgentError {
	ctx := make(map[string]interface{}, len(e.Context)+1)
	for k, v := range e.Context {
		ctx[k] = v
	}
	ctx[key] = value
	e.Context = ctx
	return e
}

// Common error constructors for consistency

// DetectionError is retried implicitly by the next scheduled cycle.
func DetectionError(operation AgentOperation, err error) AgentError {
	return NewAgentError(AgentComponentDetection, operation, err, true)
}

func PublishError(operation AgentOperation, err error) AgentError {
	return NewAgentError(AgentComponentPublish, operation, err, true)
}

func BootstrapError(operation AgentOperation, err error) AgentError {
	return NewAgentError(AgentComponentBootstrap, operation, err, false)
}

func AuthError(operation AgentOperation, err error) AgentError {
	return NewAgentError(AgentComponentAuth, operation, err, false)
}

func ConfigError(operation AgentOperation, err error) AgentError {
	return NewAgentError(AgentComponentConfig, operation, err, false)
}

func DatabaseError(operation AgentOperation, err error) AgentError {
	return NewAgentError(AgentComponentDatabase, operation, err, true)
}

// IsComponent reports whether err carries an AgentError raised by component.
func IsComponent(err error, component AgentComponent) bool {
	var agentErr AgentError
	if errors.As(err, &agentErr) {
		return agentErr.Component == component
	}
	return false
}
