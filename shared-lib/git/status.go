package git

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/gitclock/agent/shared-lib/pointers"
)

// ParseStatusLine splits one line of `git status --short` output into its
// status code and path.
//
// The short format is a two-character code, a space and the path. Lines that
// were already trimmed (for example "M src/app.go") are accepted as well: the
// first whitespace separated token is then taken as the code. For renames the
// destination path is returned, and C-quoted paths are unquoted.
//
// Returns ok=false for blank lines and lines that do not carry both a code
// and a path.
func ParseStatusLine(line string) (code, path string, ok bool) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return "", "", false
	}

	if len(line) > 3 && line[2] == ' ' {
		code = strings.TrimSpace(line[:2])
		path = strings.TrimSpace(line[3:])
	} else {
		trimmed := strings.TrimSpace(line)
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			return "", "", false
		}
		code = fields[0]
		path = strings.TrimSpace(strings.TrimPrefix(trimmed, code))
	}

	if code == "" || path == "" {
		return "", "", false
	}

	if strings.Contains(path, " -> ") {
		parts := strings.Split(path, " -> ")
		path = strings.TrimSpace(parts[len(parts)-1])
	}
	if strings.HasPrefix(path, "\"") {
		if decoded, err := strconv.Unquote(path); err == nil {
			path = decoded
		}
	}
	return code, path, path != ""
}

// ClassifyStatusCode maps a short-format status code to a ChangeStatus.
//
// Codes made only of M, A and D letters are modifications and resolve with
// the priority Deleted > Added > Modified ("AM" is Added, "MD" is Deleted).
// "??" is Untracked, every other code is Other.
func ClassifyStatusCode(code string) ChangeStatus {
	code = strings.TrimSpace(code)
	if code == untrackedCode {
		return ChangeStatusUntracked
	}
	if code == "" {
		return ChangeStatusOther
	}

	var added, deleted, modified bool
	for _, c := range code {
		switch c {
		case 'A':
			added = true
		case 'D':
			deleted = true
		case 'M':
			modified = true
		case ' ':
		default:
			return ChangeStatusOther
		}
	}

	switch {
	case deleted:
		return ChangeStatusDeleted
	case added:
		return ChangeStatusAdded
	case modified:
		return ChangeStatusModified
	default:
		return ChangeStatusOther
	}
}

// ParseStatus turns the full status query output into change records in
// output order. Untracked and Other records carry zero line counts; records
// that need a diff-stat query are returned with nil counts.
func ParseStatus(output string) []ChangeRecord {
	records := make([]ChangeRecord, 0)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		code, path, ok := ParseStatusLine(scanner.Text())
		if !ok {
			continue
		}
		record := ChangeRecord{
			Path:   path,
			Status: ClassifyStatusCode(code),
			Code:   code,
		}
		if !record.needsDiffStat() {
			record.Additions = pointers.Ptr(0)
			record.Deletions = pointers.Ptr(0)
		}
		records = append(records, record)
	}
	return records
}

// ParseNumstat reads `<additions>\t<deletions>[\t<path>]` from the first line
// of a `git diff --numstat` output. Both results are nil when the output is
// empty or either field is not a number (git prints "-" for binary files).
func ParseNumstat(output string) (additions, deletions *int) {
	output = strings.TrimSpace(output)
	if output == "" {
		return nil, nil
	}
	firstLine, _, _ := strings.Cut(output, "\n")
	parts := strings.Split(strings.TrimSpace(firstLine), "\t")
	if len(parts) < 2 {
		return nil, nil
	}

	added, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || added < 0 {
		return nil, nil
	}
	removed, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || removed < 0 {
		return nil, nil
	}
	return &added, &removed
}
