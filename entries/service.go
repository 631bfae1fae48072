package entries

import (
	"context"
	"fmt"
	"time"

	"github.com/sproutcare/daylog/authentication"
	"github.com/sproutcare/daylog/shared"
	"github.com/sproutcare/daylog/store"

	"github.com/araddon/dateparse"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrMissingTenancy   = errors.New("daycareId and locationId are mandatory")
	ErrStoreUnavailable = errors.New("entry store is unreachable")
	ErrInvalidDate      = errors.New("date filter is not a valid date")
)

type Service interface {
	BulkSubmit(ctx context.Context, identity authentication.Identity, request BulkSubmissionTransport) (BulkResultTransport, error)
	ListEntries(ctx context.Context, identity authentication.Identity, request ListEntriesTransport) ([]EntryTransport, error)
}

type EntryService struct {
	Store interface {
		Ping() error
		AddEntry(tx *gorm.DB, entry store.Entry) (store.Entry, error)
		ListEntries(tx *gorm.DB, filter store.EntryFilter) ([]store.Entry, error)
		ListChildIdsOfClass(tx *gorm.DB, classId string) ([]string, error)
	} `inject:""`
	Logger *shared.Logger `inject:""`
}

// BulkSubmit validates, fans out and persists a batch of submissions.
// Per-item validation failures land in failed[] keyed by the original
// submission index; only an unreachable store fails the whole batch.
func (s *EntryService) BulkSubmit(ctx context.Context, identity authentication.Identity, request BulkSubmissionTransport) (BulkResultTransport, error) {
	if identity.DaycareId == "" || identity.LocationId == "" {
		return BulkResultTransport{}, ErrMissingTenancy
	}

	if err := s.Store.Ping(); err != nil {
		return BulkResultTransport{}, errors.Wrap(ErrStoreUnavailable, err.Error())
	}

	result := BulkResultTransport{
		Created: []CreatedEntryTransport{},
		Failed:  []FailedItemTransport{},
	}

	for index, item := range request.Items {
		norm, reason := validateSubmission(item, index)
		if reason != "" {
			result.Failed = append(result.Failed, FailedItemTransport{Index: index, Reason: reason})
			continue
		}

		targets := norm.ChildIds
		if norm.ApplyToAllInClass {
			roster, err := s.Store.ListChildIdsOfClass(nil, norm.ClassId)
			if err != nil {
				return BulkResultTransport{}, errors.Wrap(ErrStoreUnavailable, err.Error())
			}
			targets = append(targets, roster...)
		}

		fanned := fanOut(norm, targets, identity)
		if len(fanned) == 0 {
			result.Failed = append(result.Failed, FailedItemTransport{
				Index:  index,
				Reason: fmt.Sprintf("no_target_children_at_%d", index),
			})
			continue
		}

		itemFailed := false
		for _, entry := range fanned {
			created, err := s.Store.AddEntry(nil, entry)
			if err != nil {
				s.Logger.Warn(ctx, "failed to persist fan-out entry", "childId", entry.ChildId.String, "err", err.Error())
				if !itemFailed {
					result.Failed = append(result.Failed, FailedItemTransport{
						Index:  index,
						Reason: fmt.Sprintf("write_failed_at_%d", index),
					})
					itemFailed = true
				}
				continue
			}
			result.Created = append(result.Created, CreatedEntryTransport{
				Id:   created.EntryId.String,
				Type: created.EntryType.String,
			})
		}
	}

	return result, nil
}

func (s *EntryService) ListEntries(ctx context.Context, identity authentication.Identity, request ListEntriesTransport) ([]EntryTransport, error) {
	if identity.DaycareId == "" || identity.LocationId == "" {
		return nil, ErrMissingTenancy
	}

	limit := store.ListEntriesDefaultLimit
	if request.Limit != nil {
		limit = store.ClampLimit(*request.Limit)
	}

	filter := store.EntryFilter{
		DaycareId:  identity.DaycareId,
		LocationId: identity.LocationId,
		ClassId:    request.ClassId,
		ChildId:    request.ChildId,
		EntryType:  request.Type,
		Limit:      limit,
	}

	var err error
	if filter.DateFrom, filter.DateTo, err = parseDateRange(request.DateFrom, request.DateTo); err != nil {
		return nil, err
	}

	stored, err := s.Store.ListEntries(nil, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list entries")
	}

	transports := []EntryTransport{}
	for _, entry := range stored {
		transports = append(transports, ToTransport(entry))
	}
	return transports, nil
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

// ServiceMiddleware is a chainable behavior modifier for EntryService.
type ServiceMiddleware func(EntryService) EntryService
