package main

import (
	"github.com/gitclock/agent/agent/database"
	"github.com/gitclock/agent/agent/types"
)

// BuildSession combines the configuration with the persisted settings. A
// stored interval wins over the configured one.
func BuildSession(cfg types.Config, db database.DatabaseIfc) types.Session {
	token, _ := db.GetAccessToken()

	minutes := cfg.Sync.IntervalMinutes
	if stored, ok := db.GetIntervalMinutes(); ok {
		minutes = stored
	}

	return types.Session{
		AccessToken: token,
		Interval:    types.IntervalFromMinutes(minutes),
		RepoName:    cfg.Repository.Name,
		APIBaseURL:  cfg.Repository.APIBaseURL,
	}
}
