package types

import (
	"time"
)

// Session carries everything a sync cycle or bootstrap needs. It is built
// once from the configuration and the settings store and passed explicitly.
type Session struct {
	AccessToken string
	Interval    time.Duration
	RepoName    string
	APIBaseURL  string
}

// HasToken reports whether a login has completed.
func (s Session) HasToken() bool {
	return s.AccessToken != ""
}

// IntervalFromMinutes converts minutes into a duration, clamped to
// [MinIntervalMinutes, MaxIntervalMinutes].
func IntervalFromMinutes(minutes int) time.Duration {
	if minutes < MinIntervalMinutes {
		minutes = MinIntervalMinutes
	}
	if minutes > MaxIntervalMinutes {
		minutes = MaxIntervalMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// BootstrapResult is the outcome of ensuring the remote repository.
type BootstrapResult string

const (
	BootstrapResultExists  BootstrapResult = "exists"
	BootstrapResultCreated BootstrapResult = "created"
)
