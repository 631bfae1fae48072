package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jinzhu/gorm"
)

var (
	ErrEntryNotFound = errors.New("entry not found")
)

const (
	ListEntriesDefaultLimit = 50
	ListEntriesMaxLimit     = 100
)

// Entry is the unit of record: one caregiving event for exactly one
// child. Bulk submissions are fanned out before they reach this layer,
// so a row never references more than one child.
type Entry struct {
	EntryId          sql.NullString
	DaycareId        sql.NullString
	LocationId       sql.NullString
	ClassId          sql.NullString
	ChildId          sql.NullString
	CreatedByUserId  sql.NullString
	CreatedByRole    sql.NullString
	EntryType        sql.NullString
	Subtype          sql.NullString
	ToiletKind       sql.NullString
	Detail           sql.NullString
	PhotoUrl         sql.NullString
	OccurredAt       time.Time
	CreatedAt        time.Time
	VisibleToParents bool
	PublishedAt      *time.Time
}

func (Entry) TableName() string {
	return "entries"
}

type EntryFilter struct {
	DaycareId  string
	LocationId string
	ClassId    string
	ChildId    string
	ChildIds   []string
	EntryType  string
	DateFrom   time.Time
	DateTo     time.Time

	// VisibleToParentsOnly is the parent-scope hard filter. It is set by
	// the caller role, never by query parameters.
	VisibleToParentsOnly bool

	Limit int
}

// ClampLimit resolves a caller-supplied page size to the allowed range.
// Out-of-range values are clamped, not rejected. An absent limit is the
// caller's concern; zero means "as few as possible", so it clamps to 1.
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > ListEntriesMaxLimit {
		return ListEntriesMaxLimit
	}
	return limit
}

// AddEntry persists one fanned-out entry. EntryId and CreatedAt are
// assigned here and are never mutated afterwards.
func (s *Store) AddEntry(tx *gorm.DB, entry Entry) (Entry, error) {
	db := s.dbOrTx(tx)

	entry.EntryId = DbNullString(s.StringGenerator.GenerateUuid())
	entry.CreatedAt = s.ingestionTime()

	if err := db.Create(&entry).Error; err != nil {
		return Entry{}, err
	}

	return entry, nil
}

func (s *Store) GetEntry(tx *gorm.DB, entryId string) (Entry, error) {
	db := s.dbOrTx(tx)

	entry := Entry{}
	res := db.Where("entry_id = ?", entryId).First(&entry)
	if res.RecordNotFound() {
		return Entry{}, ErrEntryNotFound
	}
	if err := res.Error; err != nil {
		return Entry{}, err
	}

	return entry, nil
}

// ListEntries returns entries matching the filter, ordered by
// (occurred_at, created_at, entry_id) ascending so reports and feeds are
// deterministic even for identical timestamps.
func (s *Store) ListEntries(tx *gorm.DB, filter EntryFilter) ([]Entry, error) {
	db := s.dbOrTx(tx)

	query := db.Table("entries")
	if filter.DaycareId != "" {
		query = query.Where("entries.daycare_id = ?", filter.DaycareId)
	}
	if filter.LocationId != "" {
		query = query.Where("entries.location_id = ?", filter.LocationId)
	}
	if filter.ClassId != "" {
		query = query.Where("entries.class_id = ?", filter.ClassId)
	}
	if filter.ChildId != "" {
		query = query.Where("entries.child_id = ?", filter.ChildId)
	}
	if len(filter.ChildIds) > 0 {
		query = query.Where("entries.child_id IN (?)", filter.ChildIds)
	}
	if filter.EntryType != "" {
		query = query.Where("entries.entry_type = ?", filter.EntryType)
	}
	if !filter.DateFrom.IsZero() {
		query = query.Where("entries.occurred_at >= ?", filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		query = query.Where("entries.occurred_at <= ?", filter.DateTo)
	}
	if filter.VisibleToParentsOnly {
		query = query.Where("entries.visible_to_parents = ?", true)
	}

	query = query.Order("occurred_at asc").Order("created_at asc").Order("entry_id asc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	entries := []Entry{}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

// MarkEntriesPublished stamps published_at on a child's entries for one
// day. Already-published entries keep their original stamp.
func (s *Store) MarkEntriesPublished(tx *gorm.DB, childId string, dayStart, dayEnd, publishedAt time.Time) error {
	db := s.dbOrTx(tx)

	return db.Table("entries").
		Where("child_id = ?", childId).
		Where("occurred_at >= ? AND occurred_at <= ?", dayStart, dayEnd).
		Where("published_at IS NULL").
		Update("published_at", publishedAt).Error
}
