package mocks

import (
	"time"

	"github.com/sproutcare/daylog/store"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (s *MockStore) Ping() error {
	args := s.Called()
	return args.Error(0)
}

func (s *MockStore) Tx() *gorm.DB {
	return nil
}

func (s *MockStore) AddEntry(tx *gorm.DB, entry store.Entry) (store.Entry, error) {
	args := s.Called(tx, entry)
	return args.Get(0).(store.Entry), args.Error(1)
}

func (s *MockStore) GetEntry(tx *gorm.DB, entryId string) (store.Entry, error) {
	args := s.Called(tx, entryId)
	return args.Get(0).(store.Entry), args.Error(1)
}

func (s *MockStore) ListEntries(tx *gorm.DB, filter store.EntryFilter) ([]store.Entry, error) {
	args := s.Called(tx, filter)
	return args.Get(0).([]store.Entry), args.Error(1)
}

func (s *MockStore) MarkEntriesPublished(tx *gorm.DB, childId string, dayStart, dayEnd, publishedAt time.Time) error {
	args := s.Called(tx, childId, dayStart, dayEnd, publishedAt)
	return args.Error(0)
}

func (s *MockStore) MarkReportSent(tx *gorm.DB, reportId, childId string, day time.Time, sentAt time.Time) (store.ReportSentFlag, error) {
	args := s.Called(tx, reportId, childId, day, sentAt)
	return args.Get(0).(store.ReportSentFlag), args.Error(1)
}

func (s *MockStore) GetReportSentFlag(tx *gorm.DB, reportId string) (store.ReportSentFlag, error) {
	args := s.Called(tx, reportId)
	return args.Get(0).(store.ReportSentFlag), args.Error(1)
}

func (s *MockStore) ListReportSentFlags(tx *gorm.DB, reportIds []string) (map[string]store.ReportSentFlag, error) {
	args := s.Called(tx, reportIds)
	return args.Get(0).(map[string]store.ReportSentFlag), args.Error(1)
}

func (s *MockStore) ListChildIdsOfClass(tx *gorm.DB, classId string) ([]string, error) {
	args := s.Called(tx, classId)
	return args.Get(0).([]string), args.Error(1)
}

func (s *MockStore) ListChildIdsOfResponsible(tx *gorm.DB, responsibleId string) ([]string, error) {
	args := s.Called(tx, responsibleId)
	return args.Get(0).([]string), args.Error(1)
}

func (s *MockStore) ListResponsiblesOfChild(tx *gorm.DB, childId string) ([]string, error) {
	args := s.Called(tx, childId)
	return args.Get(0).([]string), args.Error(1)
}

func (s *MockStore) GetChildDisplayNames(tx *gorm.DB, childIds []string) (map[string]string, error) {
	args := s.Called(tx, childIds)
	return args.Get(0).(map[string]string), args.Error(1)
}

func (s *MockStore) GetUserDisplayNames(tx *gorm.DB, userIds []string) (map[string]string, error) {
	args := s.Called(tx, userIds)
	return args.Get(0).(map[string]string), args.Error(1)
}
