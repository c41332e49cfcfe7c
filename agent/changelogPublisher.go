package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gitclock/agent/agent/types"
	"github.com/gitclock/agent/shared-lib/changelog"
	"github.com/gitclock/agent/shared-lib/git"
	"github.com/gitclock/agent/shared-lib/github"
	"github.com/kr/pretty"
	"go.uber.org/zap"
)

type ChangelogPublisherIfc interface {
	MergeAndPublish(ctx context.Context, records []git.ChangeRecord) error
}

// ChangelogPublisher writes change rows into the per-day changelog of the
// remote repository.
type ChangelogPublisher struct {
	client   RemoteAPI
	repoName string
	clock    func() time.Time
	log      *zap.SugaredLogger
}

type PublisherOption func(*ChangelogPublisher)

func WithClock(clock func() time.Time) PublisherOption {
	return func(p *ChangelogPublisher) {
		p.clock = clock
	}
}

func NewChangelogPublisher(client RemoteAPI, repoName string, log *zap.SugaredLogger, opts ...PublisherOption) *ChangelogPublisher {
	publisher := &ChangelogPublisher{
		client:   client,
		repoName: repoName,
		clock:    time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(publisher)
	}
	return publisher
}

// MergeAndPublish appends one row per record to today's changelog, creating
// the document when it does not exist yet. An empty record list makes no
// remote call. Every failure is returned as a publish AgentError.
func (p *ChangelogPublisher) MergeAndPublish(ctx context.Context, records []git.ChangeRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := p.clock()
	documentName := changelog.DocumentName(now)
	rows := changelog.RenderRows(now, records)

	owner, err := p.client.CurrentUser(ctx)
	if err != nil {
		return types.PublishError(types.AgentOperationResolvingUser, err)
	}

	entries, err := p.client.ListContents(ctx, owner, p.repoName)
	if err != nil {
		if errors.Is(err, github.ErrNotFound) {
			p.log.Infow("Repository has no contents yet, creating changelog", "repo", p.repoName, "document", documentName)
			return p.create(ctx, owner, documentName, now, rows)
		}
		return types.PublishError(types.AgentOperationListingContents, err)
	}
	p.log.Debugw("Listed repository contents", "repo", p.repoName, "entries", pretty.Sprint(entries))

	entry, found := findDocument(entries, documentName)
	if !found {
		return p.create(ctx, owner, documentName, now, rows)
	}
	return p.update(ctx, owner, entry, rows)
}

func (p *ChangelogPublisher) create(ctx context.Context, owner, documentName string, day time.Time, rows []string) error {
	doc := changelog.New(day)
	doc.Append(rows...)

	err := p.client.PutFile(ctx, owner, p.repoName, documentName, github.PutFileRequest{
		Message: fmt.Sprintf("Create %s with initial content", documentName),
		Content: []byte(doc.String()),
	})
	if err != nil {
		return types.PublishError(types.AgentOperationWritingFile, err).WithContext("document", documentName)
	}
	p.log.Infow("Created changelog", "document", documentName, "rows", len(rows))
	return nil
}

func (p *ChangelogPublisher) update(ctx context.Context, owner string, entry github.ContentEntry, rows []string) error {
	content, err := p.client.Download(ctx, entry.DownloadURL)
	if err != nil {
		return types.PublishError(types.AgentOperationDownloadingFile, err).WithContext("document", entry.Name)
	}

	merged := changelog.Merge(string(content), rows)
	err = p.client.PutFile(ctx, owner, p.repoName, entry.Path, github.PutFileRequest{
		Message: fmt.Sprintf("Update %s with change log", entry.Name),
		Content: []byte(merged),
		SHA:     entry.SHA,
	})
	if err != nil {
		return types.PublishError(types.AgentOperationWritingFile, err).WithContext("document", entry.Name)
	}
	p.log.Infow("Updated changelog", "document", entry.Name, "rows", len(rows), "previousSha", entry.SHA)
	return nil
}

func findDocument(entries []github.ContentEntry, name string) (github.ContentEntry, bool) {
	for _, entry := range entries {
		if entry.Name == name && (entry.Type == "" || entry.Type == "file") {
			if entry.Path == "" {
				entry.Path = entry.Name
			}
			return entry, true
		}
	}
	return github.ContentEntry{}, false
}
