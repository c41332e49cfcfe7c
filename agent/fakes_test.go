package main

import (
	"context"
	"sync"

	"github.com/gitclock/agent/agent/types"
	"github.com/gitclock/agent/shared-lib/git"
	"github.com/gitclock/agent/shared-lib/github"
)

type putCall struct {
	Owner   string
	Repo    string
	Path    string
	Request github.PutFileRequest
}

// fakeRemote records every call; the *Err fields make the matching call fail.
type fakeRemote struct {
	mu sync.Mutex

	login       string
	repos       []github.Repository
	entries     []github.ContentEntry
	files       map[string][]byte
	userErr     error
	reposErr    error
	listErr     error
	createErr   error
	downloadErr error
	putErr      error

	calls   []string
	created []string
	puts    []putCall
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{login: "octo", files: map[string][]byte{}}
}

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRemote) CurrentUser(ctx context.Context) (string, error) {
	f.record("CurrentUser")
	return f.login, f.userErr
}

func (f *fakeRemote) ListUserRepos(ctx context.Context) ([]github.Repository, error) {
	f.record("ListUserRepos")
	return f.repos, f.reposErr
}

func (f *fakeRemote) CreateRepo(ctx context.Context, name string, private bool) error {
	f.record("CreateRepo")
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, name)
	return nil
}

func (f *fakeRemote) ListContents(ctx context.Context, owner, repo string) ([]github.ContentEntry, error) {
	f.record("ListContents")
	return f.entries, f.listErr
}

func (f *fakeRemote) Download(ctx context.Context, downloadURL string) ([]byte, error) {
	f.record("Download")
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[downloadURL], nil
}

func (f *fakeRemote) PutFile(ctx context.Context, owner, repo, path string, request github.PutFileRequest) error {
	f.record("PutFile")
	if f.putErr != nil {
		return f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, putCall{Owner: owner, Repo: repo, Path: path, Request: request})
	return nil
}

func (f *fakeRemote) factory() ClientFactory {
	return func(session types.Session) (RemoteAPI, error) {
		return f, nil
	}
}

type recordingNotifier struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (n *recordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) snapshot() ([]string, []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.infos...), append([]string(nil), n.errors...)
}

type fakeDetector struct {
	records []git.ChangeRecord
	err     error
}

func (d *fakeDetector) DetectChanges(ctx context.Context, dir string) ([]git.ChangeRecord, error) {
	return d.records, d.err
}

// fakeQuerier answers status and diff-stat queries from fixed output.
type fakeQuerier struct {
	status string
	diffs  map[string]string
}

func (q *fakeQuerier) Status(ctx context.Context, dir string) (string, error) {
	return q.status, nil
}

func (q *fakeQuerier) DiffStat(ctx context.Context, dir, path string) (string, error) {
	return q.diffs[path], nil
}
