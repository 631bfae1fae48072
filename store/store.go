package store

import (
	"database/sql"
	"sync"
	"time"

	"github.com/jinzhu/gorm"
)

type Store struct {
	Db              *gorm.DB `inject:""`
	StringGenerator interface {
		GenerateUuid() string
	} `inject:""`

	mu            sync.Mutex
	lastCreatedAt time.Time
}

func (s *Store) Tx() *gorm.DB {
	return s.Db.Begin()
}

func (s *Store) dbOrTx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.Db
}

// Ping reports whether the underlying database can be reached. Bulk
// writes call it up front so a dead store fails the whole batch instead
// of producing per-item failures.
func (s *Store) Ping() error {
	return s.Db.DB().Ping()
}

// ingestionTime returns a creation timestamp that never goes backwards,
// even if the wall clock does.
func (s *Store) ingestionTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if now.Before(s.lastCreatedAt) {
		now = s.lastCreatedAt
	}
	s.lastCreatedAt = now
	return now
}

func DbNullString(value string) sql.NullString {
	if value != "" {
		return sql.NullString{
			String: value,
			Valid:  true,
		}
	}
	return sql.NullString{
		String: "",
		Valid:  false,
	}
}
