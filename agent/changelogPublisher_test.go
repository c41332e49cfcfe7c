package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gitclock/agent/agent/types"
	"github.com/gitclock/agent/shared-lib/changelog"
	"github.com/gitclock/agent/shared-lib/git"
	"github.com/gitclock/agent/shared-lib/github"
	"github.com/gitclock/agent/shared-lib/pointers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var publishTime = time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local)

const documentName = "CHANGELOG_2024-05-01.md"

func newTestPublisher(t *testing.T, remote *fakeRemote) *ChangelogPublisher {
	return NewChangelogPublisher(remote, "GitClock", zaptest.NewLogger(t).Sugar(), WithClock(func() time.Time {
		return publishTime
	}))
}

func sampleRecords() []git.ChangeRecord {
	return []git.ChangeRecord{
		{Path: "notes.txt", Status: git.ChangeStatusUntracked, Code: "??", Additions: pointers.Ptr(0), Deletions: pointers.Ptr(0)},
		{Path: "src/app.go", Status: git.ChangeStatusModified, Code: "M", Additions: pointers.Ptr(2), Deletions: pointers.Ptr(1)},
	}
}

func countRows(content string) int {
	count := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "| 2024-05-01") {
			count++
		}
	}
	return count
}

func TestMergeAndPublish_NoRecordsMakesNoCalls(t *testing.T) {
	remote := newFakeRemote()
	publisher := newTestPublisher(t, remote)

	require.NoError(t, publisher.MergeAndPublish(context.Background(), nil))
	require.NoError(t, publisher.MergeAndPublish(context.Background(), []git.ChangeRecord{}))
	assert.Zero(t, remote.callCount())
}

func TestMergeAndPublish_EmptyRepositoryCreatesDocument(t *testing.T) {
	remote := newFakeRemote()
	remote.listErr = &github.APIError{StatusCode: 404, Message: "This repository is empty."}
	publisher := newTestPublisher(t, remote)

	require.NoError(t, publisher.MergeAndPublish(context.Background(), sampleRecords()))

	require.Len(t, remote.puts, 1)
	put := remote.puts[0]
	assert.Equal(t, "octo", put.Owner)
	assert.Equal(t, "GitClock", put.Repo)
	assert.Equal(t, documentName, put.Path)
	assert.Equal(t, "Create "+documentName+" with initial content", put.Request.Message)
	assert.Empty(t, put.Request.SHA)

	content := string(put.Request.Content)
	assert.Equal(t, 1, strings.Count(content, changelog.HeaderLine))
	assert.Equal(t, 2, countRows(content))
	assert.NotContains(t, remote.calls, "Download")
}

func TestMergeAndPublish_CreatesWhenDocumentMissing(t *testing.T) {
	remote := newFakeRemote()
	remote.entries = []github.ContentEntry{
		{Name: "README.md", Path: "README.md", SHA: "r1", Type: "file"},
		{Name: "CHANGELOG_2024-04-30.md", Path: "CHANGELOG_2024-04-30.md", SHA: "y1", Type: "file"},
	}
	publisher := newTestPublisher(t, remote)

	require.NoError(t, publisher.MergeAndPublish(context.Background(), sampleRecords()))

	require.Len(t, remote.puts, 1)
	assert.Equal(t, documentName, remote.puts[0].Path)
	assert.Empty(t, remote.puts[0].Request.SHA)
}

func TestMergeAndPublish_AppendsToExistingDocument(t *testing.T) {
	existing := strings.Join([]string{
		"# Daily Changelog",
		"",
		changelog.HeaderLine,
		changelog.SeparatorLine,
		"| 2024-05-01 09:00:00 | go.mod | 1 Additions & 0 Deletions |",
		"| 2024-05-01 09:30:00 | main.go | 4 Additions & 2 Deletions |",
		"",
	}, "\n")

	remote := newFakeRemote()
	remote.entries = []github.ContentEntry{
		{Name: documentName, Path: documentName, SHA: "abc123", Type: "file", DownloadURL: "https://raw/" + documentName},
	}
	remote.files["https://raw/"+documentName] = []byte(existing)
	publisher := newTestPublisher(t, remote)

	require.NoError(t, publisher.MergeAndPublish(context.Background(), sampleRecords()))

	require.Len(t, remote.puts, 1)
	put := remote.puts[0]
	assert.Equal(t, "abc123", put.Request.SHA)
	assert.Equal(t, "Update "+documentName+" with change log", put.Request.Message)

	content := string(put.Request.Content)
	assert.Equal(t, 1, strings.Count(content, changelog.HeaderLine))
	assert.Equal(t, 4, countRows(content))
	assert.Less(t, strings.Index(content, "main.go"), strings.Index(content, "notes.txt"))
	assert.Less(t, strings.Index(content, "notes.txt"), strings.Index(content, "src/app.go"))
}

func TestMergeAndPublish_DetectedChangesEndToEnd(t *testing.T) {
	querier := &fakeQuerier{
		status: "?? notes.txt\nM src/app.go\n",
		diffs:  map[string]string{"src/app.go": "2\t1\tsrc/app.go\n"},
	}
	detector := git.NewDetector(querier, git.WithRepositoryCheck(func(string) (bool, error) { return true, nil }))
	records, err := detector.DetectChanges(context.Background(), ".")
	require.NoError(t, err)

	remote := newFakeRemote()
	remote.listErr = &github.APIError{StatusCode: 404}
	publisher := newTestPublisher(t, remote)
	require.NoError(t, publisher.MergeAndPublish(context.Background(), records))

	require.Len(t, remote.puts, 1)
	content := string(remote.puts[0].Request.Content)
	first := "| 2024-05-01 10:30:00 | notes.txt | 0 Additions & 0 Deletions |"
	second := "| 2024-05-01 10:30:00 | src/app.go | 2 Additions & 1 Deletions |"
	assert.Contains(t, content, first+"\n"+second+"\n")
}

func TestMergeAndPublish_Failures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name      string
		setup     func(*fakeRemote)
		operation types.AgentOperation
	}{
		{
			name:      "current user",
			setup:     func(r *fakeRemote) { r.userErr = boom },
			operation: types.AgentOperationResolvingUser,
		},
		{
			name:      "list contents",
			setup:     func(r *fakeRemote) { r.listErr = &github.APIError{StatusCode: 500, Message: "oops"} },
			operation: types.AgentOperationListingContents,
		},
		{
			name: "download",
			setup: func(r *fakeRemote) {
				r.entries = []github.ContentEntry{{Name: documentName, Path: documentName, SHA: "s", Type: "file"}}
				r.downloadErr = boom
			},
			operation: types.AgentOperationDownloadingFile,
		},
		{
			name:      "write",
			setup:     func(r *fakeRemote) { r.putErr = boom },
			operation: types.AgentOperationWritingFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newFakeRemote()
			tt.setup(remote)
			publisher := newTestPublisher(t, remote)

			err := publisher.MergeAndPublish(context.Background(), sampleRecords())
			require.Error(t, err)

			var agentErr types.AgentError
			require.True(t, errors.As(err, &agentErr))
			assert.Equal(t, types.AgentComponentPublish, agentErr.Component)
			assert.Equal(t, tt.operation, agentErr.Operation)
		})
	}
}

func TestFindDocument_IgnoresDirectories(t *testing.T) {
	entries := []github.ContentEntry{{Name: documentName, Type: "dir"}}
	_, found := findDocument(entries, documentName)
	assert.False(t, found)

	entry, found := findDocument([]github.ContentEntry{{Name: documentName}}, documentName)
	assert.True(t, found)
	assert.Equal(t, documentName, entry.Path)
}
