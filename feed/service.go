package feed

import (
	"context"
	"strings"

	"github.com/sproutcare/daylog/authentication"
	"github.com/sproutcare/daylog/shared"
	"github.com/sproutcare/daylog/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrMissingTenancy    = errors.New("daycareId and locationId are mandatory")
	ErrEmptyGuardianship = errors.New("caller has no children in their guardianship set")
)

type Service interface {
	GetFeed(ctx context.Context, identity authentication.Identity) ([]FeedItemTransport, error)
}

type FeedService struct {
	Store interface {
		ListEntries(tx *gorm.DB, filter store.EntryFilter) ([]store.Entry, error)
		ListChildIdsOfResponsible(tx *gorm.DB, responsibleId string) ([]string, error)
		GetChildDisplayNames(tx *gorm.DB, childIds []string) (map[string]string, error)
		GetUserDisplayNames(tx *gorm.DB, userIds []string) (map[string]string, error)
	} `inject:""`
	Storage interface {
		Get(ctx context.Context, fileName string) (string, error)
	} `inject:""`
	Logger *shared.Logger `inject:""`
}

// GetFeed returns the chronological, parent-visible projection of
// entries for the caller's guardianship set. Timestamps are normalized
// to RFC 3339; an uninterpretable occurredAt is omitted rather than
// guessed at.
func (s *FeedService) GetFeed(ctx context.Context, identity authentication.Identity) ([]FeedItemTransport, error) {
	if identity.DaycareId == "" || identity.LocationId == "" {
		return nil, ErrMissingTenancy
	}

	childIds, err := s.Store.ListChildIdsOfResponsible(nil, identity.UserId)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve guardianship set")
	}
	if len(childIds) == 0 {
		return nil, ErrEmptyGuardianship
	}

	stored, err := s.Store.ListEntries(nil, store.EntryFilter{
		DaycareId:            identity.DaycareId,
		LocationId:           identity.LocationId,
		ChildIds:             childIds,
		VisibleToParentsOnly: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list entries")
	}

	childNames, teacherNames := s.displayNames(ctx, stored)

	items := []FeedItemTransport{}
	for _, entry := range stored {
		item := FeedItemTransport{
			Id:          entry.EntryId.String,
			ChildId:     entry.ChildId.String,
			ChildName:   childNames[entry.ChildId.String],
			TeacherName: teacherNames[entry.CreatedByUserId.String],
			ClassId:     entry.ClassId.String,
			Type:        entry.EntryType.String,
			Subtype:     entry.Subtype.String,
			ToiletKind:  entry.ToiletKind.String,
			Detail:      entry.Detail.String,
			PhotoUrl:    s.resolvePhotoUrl(ctx, entry.PhotoUrl.String),
		}

		if occurredAt, ok := NormalizeTimestamp(entry.OccurredAt); ok {
			item.OccurredAt = occurredAt
		} else if createdAt, ok := NormalizeTimestamp(entry.CreatedAt); ok {
			item.OccurredAt = createdAt
		}
		if createdAt, ok := NormalizeTimestamp(entry.CreatedAt); ok {
			item.CreatedAt = createdAt
		}

		items = append(items, item)
	}

	return items, nil
}

// displayNames loads the denormalized child and teacher names used to
// label feed items. Enrichment is best effort: a failed lookup leaves
// the names empty.
func (s *FeedService) displayNames(ctx context.Context, stored []store.Entry) (childNames, teacherNames map[string]string) {
	childIdSet := map[string]bool{}
	userIdSet := map[string]bool{}
	childIds := []string{}
	userIds := []string{}
	for _, entry := range stored {
		if childId := entry.ChildId.String; childId != "" && !childIdSet[childId] {
			childIdSet[childId] = true
			childIds = append(childIds, childId)
		}
		if userId := entry.CreatedByUserId.String; userId != "" && !userIdSet[userId] {
			userIdSet[userId] = true
			userIds = append(userIds, userId)
		}
	}

	var err error
	if childNames, err = s.Store.GetChildDisplayNames(nil, childIds); err != nil {
		s.Logger.Warn(ctx, "failed to load child names for feed", "err", err.Error())
		childNames = map[string]string{}
	}
	if teacherNames, err = s.Store.GetUserDisplayNames(nil, userIds); err != nil {
		s.Logger.Warn(ctx, "failed to load teacher names for feed", "err", err.Error())
		teacherNames = map[string]string{}
	}
	return childNames, teacherNames
}

// resolvePhotoUrl signs bucket object names; anything that already looks
// like a URL passes through untouched.
func (s *FeedService) resolvePhotoUrl(ctx context.Context, photoUrl string) string {
	if photoUrl == "" || strings.Contains(photoUrl, "://") {
		return photoUrl
	}
	signed, err := s.Storage.Get(ctx, photoUrl)
	if err != nil {
		s.Logger.Warn(ctx, "failed to sign photo url", "object", photoUrl, "err", err.Error())
		return photoUrl
	}
	return signed
}

// ServiceMiddleware is a chainable behavior modifier for FeedService.
type ServiceMiddleware func(FeedService) FeedService
