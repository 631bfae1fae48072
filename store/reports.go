package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jinzhu/gorm"
)

var (
	ErrReportNotFound = errors.New("report not found")
)

// ReportSentFlag records the one-way Draft -> Sent transition of a daily
// report. The report itself is derived on demand from entries; only the
// send state is persisted.
type ReportSentFlag struct {
	ReportId string
	ChildId  sql.NullString
	Day      time.Time
	SentAt   time.Time
}

func (ReportSentFlag) TableName() string {
	return "report_sent_flags"
}

// MarkReportSent stamps the flag for a report id. Re-sending an
// already-sent report is a no-op and returns the original stamp.
func (s *Store) MarkReportSent(tx *gorm.DB, reportId, childId string, day time.Time, sentAt time.Time) (ReportSentFlag, error) {
	db := s.dbOrTx(tx)

	existing := ReportSentFlag{}
	res := db.Where("report_id = ?", reportId).First(&existing)
	if res.Error == nil {
		return existing, nil
	}
	if !res.RecordNotFound() {
		return ReportSentFlag{}, res.Error
	}

	flag := ReportSentFlag{
		ReportId: reportId,
		ChildId:  DbNullString(childId),
		Day:      day,
		SentAt:   sentAt,
	}
	if err := db.Create(&flag).Error; err != nil {
		return ReportSentFlag{}, err
	}

	return flag, nil
}

func (s *Store) GetReportSentFlag(tx *gorm.DB, reportId string) (ReportSentFlag, error) {
	db := s.dbOrTx(tx)

	flag := ReportSentFlag{}
	res := db.Where("report_id = ?", reportId).First(&flag)
	if res.RecordNotFound() {
		return ReportSentFlag{}, ErrReportNotFound
	}
	if err := res.Error; err != nil {
		return ReportSentFlag{}, err
	}

	return flag, nil
}

// ListReportSentFlags returns the sent flags for the given report ids,
// keyed by report id.
func (s *Store) ListReportSentFlags(tx *gorm.DB, reportIds []string) (map[string]ReportSentFlag, error) {
	db := s.dbOrTx(tx)

	flags := []ReportSentFlag{}
	if len(reportIds) == 0 {
		return map[string]ReportSentFlag{}, nil
	}
	if err := db.Where("report_id IN (?)", reportIds).Find(&flags).Error; err != nil {
		return nil, err
	}

	byId := make(map[string]ReportSentFlag, len(flags))
	for _, flag := range flags {
		byId[flag.ReportId] = flag
	}
	return byId, nil
}
