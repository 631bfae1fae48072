package reports

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/sproutcare/daylog/authentication"
	"github.com/sproutcare/daylog/entries"
	"github.com/sproutcare/daylog/messaging"
	"github.com/sproutcare/daylog/shared"
	"github.com/sproutcare/daylog/store"

	"github.com/araddon/dateparse"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrMissingTenancy    = errors.New("daycareId and locationId are mandatory")
	ErrEmptyGuardianship = errors.New("caller has no children in their guardianship set")
	ErrInvalidReportId   = errors.New("report id must be of the form <childId>:<yyyy-mm-dd>")
	ErrInvalidDate       = errors.New("date filter is not a valid date")
)

const reportDayFormat = "2006-01-02"

// EventReportSent is published on the messaging topic when a report
// transitions to Sent; the event-manager consumes it.
const EventReportSent = "report.sent"

type ReportSentEvent struct {
	Type       string `json:"type"`
	ReportId   string `json:"reportId"`
	ChildId    string `json:"childId"`
	Date       string `json:"date"`
	DaycareId  string `json:"daycareId"`
	LocationId string `json:"locationId"`
}

type Service interface {
	TeacherDailyReports(ctx context.Context, identity authentication.Identity, query ReportQueryTransport) ([]DailyReportTransport, error)
	ParentDailyReports(ctx context.Context, identity authentication.Identity, query ReportQueryTransport) ([]DailyReportTransport, error)
	MarkReportSent(ctx context.Context, identity authentication.Identity, reportId string) (DailyReportTransport, error)
}

type ReportService struct {
	Store interface {
		ListEntries(tx *gorm.DB, filter store.EntryFilter) ([]store.Entry, error)
		MarkEntriesPublished(tx *gorm.DB, childId string, dayStart, dayEnd, publishedAt time.Time) error
		MarkReportSent(tx *gorm.DB, reportId, childId string, day time.Time, sentAt time.Time) (store.ReportSentFlag, error)
		GetReportSentFlag(tx *gorm.DB, reportId string) (store.ReportSentFlag, error)
		ListReportSentFlags(tx *gorm.DB, reportIds []string) (map[string]store.ReportSentFlag, error)
		ListChildIdsOfResponsible(tx *gorm.DB, responsibleId string) ([]string, error)
	} `inject:""`
	Messaging interface {
		Publish(ctx context.Context, message messaging.Message) error
	} `inject:""`
	Logger *shared.Logger `inject:""`
}

// ReportId derives the canonical report id for a child and day.
func ReportId(childId string, day time.Time) string {
	return childId + ":" + day.UTC().Format(reportDayFormat)
}

// ParseReportId is the inverse of ReportId.
func ParseReportId(reportId string) (childId string, day time.Time, err error) {
	for i := len(reportId) - 1; i >= 0; i-- {
		if reportId[i] == ':' {
			childId = reportId[:i]
			day, err = time.ParseInLocation(reportDayFormat, reportId[i+1:], time.UTC)
			if err != nil || childId == "" {
				return "", time.Time{}, ErrInvalidReportId
			}
			return childId, day, nil
		}
	}
	return "", time.Time{}, ErrInvalidReportId
}

// TeacherDailyReports builds the staff-facing report view. Both tenancy
// ids are required; visibility suppression does not apply to staff.
func (s *ReportService) TeacherDailyReports(ctx context.Context, identity authentication.Identity, query ReportQueryTransport) ([]DailyReportTransport, error) {
	if identity.DaycareId == "" || identity.LocationId == "" {
		return nil, ErrMissingTenancy
	}

	return s.aggregate(identity, query, nil, false)
}

// ParentDailyReports builds the parent-facing view, scoped to the
// caller's verified guardianship set and hard-filtered to entries
// visible to parents. The visibility filter cannot be bypassed by query
// parameters.
func (s *ReportService) ParentDailyReports(ctx context.Context, identity authentication.Identity, query ReportQueryTransport) ([]DailyReportTransport, error) {
	if identity.DaycareId == "" || identity.LocationId == "" {
		return nil, ErrMissingTenancy
	}

	parentChildIds, err := s.Store.ListChildIdsOfResponsible(nil, identity.UserId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve guardianship set")
	}

	return s.reportsForGuardianship(identity, parentChildIds, query)
}

// reportsForGuardianship aggregates for an explicit guardianship set. An
// empty set is rejected, never widened to "all children".
func (s *ReportService) reportsForGuardianship(identity authentication.Identity, parentChildIds []string, query ReportQueryTransport) ([]DailyReportTransport, error) {
	if len(parentChildIds) == 0 {
		return nil, ErrEmptyGuardianship
	}

	return s.aggregate(identity, query, parentChildIds, true)
}

func (s *ReportService) aggregate(identity authentication.Identity, query ReportQueryTransport, childIds []string, visibleOnly bool) ([]DailyReportTransport, error) {
	filter := store.EntryFilter{
		DaycareId:            identity.DaycareId,
		LocationId:           identity.LocationId,
		ClassId:              query.ClassId,
		ChildId:              query.ChildId,
		ChildIds:             childIds,
		VisibleToParentsOnly: visibleOnly,
	}

	var err error
	if filter.DateFrom, filter.DateTo, err = parseDateRange(query.DateFrom, query.DateTo); err != nil {
		return nil, err
	}

	stored, err := s.Store.ListEntries(nil, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list entries")
	}

	grouped := map[string][]store.Entry{}
	for _, entry := range stored {
		reportId := ReportId(entry.ChildId.String, entry.OccurredAt)
		grouped[reportId] = append(grouped[reportId], entry)
	}

	reportIds := make([]string, 0, len(grouped))
	for reportId := range grouped {
		reportIds = append(reportIds, reportId)
	}
	sort.Strings(reportIds)

	flags, err := s.Store.ListReportSentFlags(nil, reportIds)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load report sent flags")
	}

	reports := []DailyReportTransport{}
	for _, reportId := range reportIds {
		group := grouped[reportId]
		sortEntries(group)

		flag, sent := flags[reportId]
		if query.Sent != nil && *query.Sent != sent {
			continue
		}

		report := DailyReportTransport{
			Id:      reportId,
			ChildId: group[0].ChildId.String,
			Date:    group[0].OccurredAt.UTC().Format(reportDayFormat),
			Sent:    sent,
			Entries: []entries.EntryTransport{},
		}
		if sent {
			report.SentAt = flag.SentAt.UTC().Format(time.RFC3339)
		}
		for _, entry := range group {
			report.Entries = append(report.Entries, entries.ToTransport(entry))
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// MarkReportSent performs the one-way Draft -> Sent transition: stamps
// publishedAt on the report's entries, records the sent flag and emits a
// report.sent event. Re-sending is a no-op.
func (s *ReportService) MarkReportSent(ctx context.Context, identity authentication.Identity, reportId string) (DailyReportTransport, error) {
	if identity.DaycareId == "" || identity.LocationId == "" {
		return DailyReportTransport{}, ErrMissingTenancy
	}

	childId, day, err := ParseReportId(reportId)
	if err != nil {
		return DailyReportTransport{}, err
	}

	_, err = s.Store.GetReportSentFlag(nil, reportId)
	if err == nil {
		// already sent, nothing to do
		return s.reportForDay(identity, reportId, childId, day)
	}
	if errors.Cause(err) != store.ErrReportNotFound {
		return DailyReportTransport{}, errors.Wrap(err, "failed to check report state")
	}

	dayStart := day
	dayEnd := day.Add(24*time.Hour - time.Nanosecond)
	sentAt := time.Now().UTC()

	if err := s.Store.MarkEntriesPublished(nil, childId, dayStart, dayEnd, sentAt); err != nil {
		return DailyReportTransport{}, errors.Wrap(err, "failed to stamp entries")
	}
	if _, err := s.Store.MarkReportSent(nil, reportId, childId, day, sentAt); err != nil {
		return DailyReportTransport{}, errors.Wrap(err, "failed to mark report sent")
	}

	s.publishReportSent(ctx, identity, reportId, childId, day)

	return s.reportForDay(identity, reportId, childId, day)
}

// publishReportSent is best effort: a notification that cannot be
// published must not roll back the send.
func (s *ReportService) publishReportSent(ctx context.Context, identity authentication.Identity, reportId, childId string, day time.Time) {
	event := ReportSentEvent{
		Type:       EventReportSent,
		ReportId:   reportId,
		ChildId:    childId,
		Date:       day.UTC().Format(reportDayFormat),
		DaycareId:  identity.DaycareId,
		LocationId: identity.LocationId,
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.Logger.Warn(ctx, "failed to marshal report sent event", "reportId", reportId, "err", err.Error())
		return
	}
	if err := s.Messaging.Publish(ctx, messaging.Message{Data: data}); err != nil {
		s.Logger.Warn(ctx, "failed to publish report sent event", "reportId", reportId, "err", err.Error())
	}
}

func (s *ReportService) reportForDay(identity authentication.Identity, reportId, childId string, day time.Time) (DailyReportTransport, error) {
	query := ReportQueryTransport{
		ChildId:  childId,
		DateFrom: day.UTC().Format(reportDayFormat),
		DateTo:   day.Add(24*time.Hour - time.Nanosecond).UTC().Format(time.RFC3339),
	}

	reports, err := s.aggregate(identity, query, nil, false)
	if err != nil {
		return DailyReportTransport{}, err
	}
	for _, report := range reports {
		if report.Id == reportId {
			return report, nil
		}
	}

	// no entries for that day: synthesize the empty, sent report
	flag, err := s.Store.GetReportSentFlag(nil, reportId)
	if err != nil {
		return DailyReportTransport{}, errors.Wrap(err, "failed to load report state")
	}
	return DailyReportTransport{
		Id:      reportId,
		ChildId: childId,
		Date:    day.UTC().Format(reportDayFormat),
		Sent:    true,
		SentAt:  flag.SentAt.UTC().Format(time.RFC3339),
		Entries: []entries.EntryTransport{},
	}, nil
}

// sortEntries orders a report's entries by (occurredAt, createdAt,
// entryId) ascending; the id breaks remaining ties so output is
// deterministic.
func sortEntries(group []store.Entry) {
	sort.SliceStable(group, func(i, j int) bool {
		if !group[i].OccurredAt.Equal(group[j].OccurredAt) {
			return group[i].OccurredAt.Before(group[j].OccurredAt)
		}
		if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		}
		return group[i].EntryId.String < group[j].EntryId.String
	})
}

func parseDateRange(dateFrom, dateTo string) (from, to time.Time, err error) {
	if dateFrom != "" {
		if from, err = dateparse.ParseIn(dateFrom, time.UTC); err != nil {
			return time.Time{}, time.Time{}, errors.Wrap(ErrInvalidDate, dateFrom)
		}
	}
	if dateTo != "" {
		if to, err = dateparse.ParseIn(dateTo, time.UTC); err != nil {
			return time.Time{}, time.Time{}, errors.Wrap(ErrInvalidDate, dateTo)
		}
	}
	return from, to, nil
}

// ServiceMiddleware is a chainable behavior modifier for ReportService.
type ServiceMiddleware func(ReportService) ReportService
