package git

// ChangeStatus classifies a path reported by the status query.
type ChangeStatus string

const (
	ChangeStatusUntracked ChangeStatus = "Untracked"
	ChangeStatusModified  ChangeStatus = "Modified"
	ChangeStatusAdded     ChangeStatus = "Added"
	ChangeStatusDeleted   ChangeStatus = "Deleted"
	ChangeStatusOther     ChangeStatus = "Other"
)

// untrackedCode is the short-format code git uses for untracked paths.
const untrackedCode = "??"

// ChangeRecord is one changed path found in the working directory.
//
// Additions and Deletions are nil when the line counts could not be
// determined (binary content, empty diff output, failed diff query). A nil
// count is not the same thing as zero: zero means the diff reported no line
// changes.
type ChangeRecord struct {
	Path      string       `json:"path"`
	Status    ChangeStatus `json:"status"`
	Code      string       `json:"code"`
	Additions *int         `json:"additions,omitempty"`
	Deletions *int         `json:"deletions,omitempty"`
}

// needsDiffStat reports whether the record's line counts come from a diff-stat query.
func (c ChangeRecord) needsDiffStat() bool {
	switch c.Status {
	case ChangeStatusModified, ChangeStatusAdded, ChangeStatusDeleted:
		return true
	default:
		return false
	}
}
