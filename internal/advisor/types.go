package advisor

import "fmt"

// ChangeType describes what happened to a file.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
)

// ParseChangeType validates s as a ChangeType.
func ParseChangeType(s string) (ChangeType, error) {
	switch ct := ChangeType(s); ct {
	case ChangeCreated, ChangeModified, ChangeDeleted:
		return ct, nil
	default:
		return "", fmt.Errorf("unknown change type %q", s)
	}
}

// FileChange is one changed file in a batch.
type FileChange struct {
	FilePath   string     `json:"filePath"`
	ChangeType ChangeType `json:"changeType"`
}

// ChangeEvent is a batch of file changes produced by one host operation.
type ChangeEvent struct {
	Files     []FileChange `json:"files"`
	Operation string       `json:"operation"`
}

// Result holds the advisories for a batch, each list in detection order.
type Result struct {
	Notifications []string `json:"notifications,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

// newResult returns a Result with empty, non-nil lists.
func newResult() Result {
	return Result{
		Notifications: []string{},
		Warnings:      []string{},
		Errors:        []string{},
	}
}

// Empty reports whether the result carries no advisories.
func (r Result) Empty() bool {
	return len(r.Notifications) == 0 && len(r.Warnings) == 0 &&
		len(r.Errors) == 0
}

// fileReport collects the advisories for a single file.
type fileReport struct {
	notifications []string
	warnings      []string
	errors        []string
}

func (f *fileReport) notify(format string, args ...any) {
	f.notifications = append(f.notifications, fmt.Sprintf(format, args...))
}

func (f *fileReport) warn(format string, args ...any) {
	f.warnings = append(f.warnings, fmt.Sprintf(format, args...))
}

// merge appends the report onto r.
func (r *Result) merge(f fileReport) {
	r.Notifications = append(r.Notifications, f.notifications...)
	r.Warnings = append(r.Warnings, f.warnings...)
	r.Errors = append(r.Errors, f.errors...)
}
