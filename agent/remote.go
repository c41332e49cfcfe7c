package main

import (
	"context"
	"net/http"

	"github.com/gitclock/agent/agent/types"
	"github.com/gitclock/agent/shared-lib/github"
)

// RemoteAPI is the part of the repository hosting API the agent uses.
type RemoteAPI interface {
	CurrentUser(ctx context.Context) (string, error)
	ListUserRepos(ctx context.Context) ([]github.Repository, error)
	CreateRepo(ctx context.Context, name string, private bool) error
	ListContents(ctx context.Context, owner, repo string) ([]github.ContentEntry, error)
	Download(ctx context.Context, downloadURL string) ([]byte, error)
	PutFile(ctx context.Context, owner, repo, path string, request github.PutFileRequest) error
}

// ClientFactory builds a RemoteAPI authenticated for session.
type ClientFactory func(session types.Session) (RemoteAPI, error)

func gitHubClientFactory(httpClient *http.Client) ClientFactory {
	return func(session types.Session) (RemoteAPI, error) {
		client, err := github.NewClient(session.APIBaseURL, session.AccessToken, github.WithHTTPClient(httpClient))
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
