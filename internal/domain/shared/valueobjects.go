package shared

import (
	"fmt"
	"strconv"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// Status
// ═══════════════════════════════════════════════════════════════════════════

// Status is the logical lifecycle state of a content entity or one of its
// children. Rows are never removed; deletion flips the status.
type Status string

const (
	StatusUsed    Status = "USED"
	StatusDeleted Status = "DELETED"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s == StatusUsed || s == StatusDeleted
}

// IsLive reports whether the record is visible to normal queries.
func (s Status) IsLive() bool {
	return s == StatusUsed
}

// String returns the stored representation.
func (s Status) String() string {
	return string(s)
}

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// ID is the numeric identity shared by places, postings, members and their children.
type ID = int64

// ParseID parses a positive decimal identifier.
func ParseID(raw string) (ID, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, WrapError("shared", "ParseID", ErrInvalidID, fmt.Sprintf("invalid id %q", raw), err)
	}
	return id, nil
}

// FormatID renders an identifier the way the popularity store keys it.
func FormatID(id ID) string {
	return strconv.FormatInt(id, 10)
}

// ═══════════════════════════════════════════════════════════════════════════
// Timestamps
// ═══════════════════════════════════════════════════════════════════════════

// Timestamps holds creation and modification times of a persisted record.
type Timestamps struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WritingDate returns the calendar date of creation in UTC, as shown to readers.
func (t Timestamps) WritingDate() string {
	return t.CreatedAt.UTC().Format("2006-01-02")
}
