package feed_test

import (
	"context"
	"time"

	"github.com/sproutcare/daylog/authentication"
	. "github.com/sproutcare/daylog/feed"
	"github.com/sproutcare/daylog/shared"
	"github.com/sproutcare/daylog/storage/mocks"
	"github.com/sproutcare/daylog/store"
	storeMocks "github.com/sproutcare/daylog/store/mocks"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
)

var _ = Describe("Service", func() {

	var (
		ctx         = context.Background()
		feedService *FeedService
		mockStore   *storeMocks.MockStore
		mockStorage *mocks.MockGcs

		identity authentication.Identity

		items         []FeedItemTransport
		returnedError error

		stringGenerator = &shared.StringGenerator{}
		childName       string
		teacherName     string

		day = time.Date(2018, 4, 2, 0, 0, 0, 0, time.UTC)
	)

	BeforeEach(func() {
		mockStore = &storeMocks.MockStore{}
		mockStorage = &mocks.MockGcs{}
		feedService = &FeedService{
			Store:   mockStore,
			Storage: mockStorage,
			Logger:  shared.NewLogger("feed-test"),
		}
		identity = authentication.Identity{
			UserId:     "parent-1",
			DaycareId:  "daycare-1",
			LocationId: "location-1",
			Roles:      []string{shared.ROLE_ADULT},
		}

		childName = stringGenerator.GenerateRandomName()
		teacherName = stringGenerator.GenerateRandomName()
		mockStore.On("GetChildDisplayNames", mock.Anything, mock.Anything).
			Return(map[string]string{"child-1": childName}, nil)
		mockStore.On("GetUserDisplayNames", mock.Anything, mock.Anything).
			Return(map[string]string{"teacher-1": teacherName}, nil)
	})

	JustBeforeEach(func() {
		items, returnedError = feedService.GetFeed(ctx, identity)
	})

	Context("when the daycare scope is missing", func() {
		BeforeEach(func() {
			identity.LocationId = ""
		})

		It("should reject the request before touching the store", func() {
			Expect(errors.Cause(returnedError)).To(Equal(ErrMissingTenancy))
			mockStore.AssertNotCalled(GinkgoT(), "ListEntries", mock.Anything, mock.Anything)
		})
	})

	Context("when the caller has no children", func() {
		BeforeEach(func() {
			mockStore.On("ListChildIdsOfResponsible", mock.Anything, "parent-1").
				Return([]string{}, nil)
		})

		It("should reject instead of widening the scope", func() {
			Expect(errors.Cause(returnedError)).To(Equal(ErrEmptyGuardianship))
			mockStore.AssertNotCalled(GinkgoT(), "ListEntries", mock.Anything, mock.Anything)
		})
	})

	Context("when the caller has a guardianship set", func() {

		BeforeEach(func() {
			mockStore.On("ListChildIdsOfResponsible", mock.Anything, "parent-1").
				Return([]string{"child-1"}, nil)
		})

		Context("with a plain entry", func() {

			BeforeEach(func() {
				mockStore.On("ListEntries", mock.Anything, mock.Anything).Return([]store.Entry{
					{
						EntryId:          store.DbNullString("entry-1"),
						ChildId:          store.DbNullString("child-1"),
						CreatedByUserId:  store.DbNullString("teacher-1"),
						ClassId:          store.DbNullString("class-1"),
						EntryType:        store.DbNullString("Food"),
						Subtype:          store.DbNullString("Lunch"),
						OccurredAt:       day.Add(11 * time.Hour),
						CreatedAt:        day.Add(12 * time.Hour),
						VisibleToParents: true,
					},
				}, nil)
			})

			It("should scope the query to the guardianship set, visible entries only", func() {
				Expect(returnedError).To(BeNil())
				mockStore.AssertCalled(GinkgoT(), "ListEntries", mock.Anything, mock.MatchedBy(func(filter store.EntryFilter) bool {
					return filter.VisibleToParentsOnly &&
						len(filter.ChildIds) == 1 && filter.ChildIds[0] == "child-1"
				}))
			})

			It("should normalize timestamps to RFC 3339", func() {
				Expect(items).To(HaveLen(1))
				Expect(items[0].OccurredAt).To(Equal("2018-04-02T11:00:00Z"))
				Expect(items[0].CreatedAt).To(Equal("2018-04-02T12:00:00Z"))
			})

			It("should enrich the item with display names", func() {
				Expect(items[0].ChildName).To(Equal(childName))
				Expect(items[0].TeacherName).To(Equal(teacherName))
				Expect(items[0].ClassId).To(Equal("class-1"))
			})
		})

		Context("when occurredAt is unusable", func() {

			BeforeEach(func() {
				mockStore.On("ListEntries", mock.Anything, mock.Anything).Return([]store.Entry{
					{
						EntryId:          store.DbNullString("entry-1"),
						ChildId:          store.DbNullString("child-1"),
						EntryType:        store.DbNullString("Note"),
						Detail:           store.DbNullString("smiled a lot"),
						CreatedAt:        day.Add(12 * time.Hour),
						VisibleToParents: true,
					},
				}, nil)
			})

			It("should fall back to createdAt", func() {
				Expect(items[0].OccurredAt).To(Equal("2018-04-02T12:00:00Z"))
			})
		})

		Context("when no timestamp is usable", func() {

			BeforeEach(func() {
				mockStore.On("ListEntries", mock.Anything, mock.Anything).Return([]store.Entry{
					{
						EntryId:          store.DbNullString("entry-1"),
						ChildId:          store.DbNullString("child-1"),
						EntryType:        store.DbNullString("Note"),
						Detail:           store.DbNullString("smiled a lot"),
						VisibleToParents: true,
					},
				}, nil)
			})

			It("should omit the timestamp fields entirely", func() {
				Expect(items[0].OccurredAt).To(BeEmpty())
				Expect(items[0].CreatedAt).To(BeEmpty())
			})
		})

		Context("when a photo entry references a bucket object", func() {

			BeforeEach(func() {
				mockStore.On("ListEntries", mock.Anything, mock.Anything).Return([]store.Entry{
					{
						EntryId:          store.DbNullString("entry-1"),
						ChildId:          store.DbNullString("child-1"),
						EntryType:        store.DbNullString("Photo"),
						PhotoUrl:         store.DbNullString("photos/child-1/abc.jpg"),
						OccurredAt:       day.Add(11 * time.Hour),
						CreatedAt:        day.Add(11 * time.Hour),
						VisibleToParents: true,
					},
				}, nil)
				mockStorage.On("Get", mock.Anything, "photos/child-1/abc.jpg").
					Return("https://signed.example.com/abc.jpg?sig=xyz", nil)
			})

			It("should resolve it to a signed url", func() {
				Expect(items[0].PhotoUrl).To(Equal("https://signed.example.com/abc.jpg?sig=xyz"))
			})
		})

		Context("when the photo url is already absolute", func() {

			BeforeEach(func() {
				mockStore.On("ListEntries", mock.Anything, mock.Anything).Return([]store.Entry{
					{
						EntryId:          store.DbNullString("entry-1"),
						ChildId:          store.DbNullString("child-1"),
						EntryType:        store.DbNullString("Photo"),
						PhotoUrl:         store.DbNullString("https://cdn.example.com/abc.jpg"),
						OccurredAt:       day.Add(11 * time.Hour),
						CreatedAt:        day.Add(11 * time.Hour),
						VisibleToParents: true,
					},
				}, nil)
			})

			It("should pass it through untouched", func() {
				Expect(items[0].PhotoUrl).To(Equal("https://cdn.example.com/abc.jpg"))
				mockStorage.AssertNotCalled(GinkgoT(), "Get", mock.Anything, mock.Anything)
			})
		})

		Context("when signing fails", func() {

			BeforeEach(func() {
				mockStore.On("ListEntries", mock.Anything, mock.Anything).Return([]store.Entry{
					{
						EntryId:          store.DbNullString("entry-1"),
						ChildId:          store.DbNullString("child-1"),
						EntryType:        store.DbNullString("Photo"),
						PhotoUrl:         store.DbNullString("photos/child-1/abc.jpg"),
						OccurredAt:       day.Add(11 * time.Hour),
						CreatedAt:        day.Add(11 * time.Hour),
						VisibleToParents: true,
					},
				}, nil)
				mockStorage.On("Get", mock.Anything, mock.Anything).
					Return("", errors.New("bucket unavailable"))
			})

			It("should keep the raw object name rather than fail the feed", func() {
				Expect(returnedError).To(BeNil())
				Expect(items[0].PhotoUrl).To(Equal("photos/child-1/abc.jpg"))
			})
		})

		Context("when name enrichment fails", func() {

			BeforeEach(func() {
				mockStore.ExpectedCalls = nil
				mockStore.On("ListChildIdsOfResponsible", mock.Anything, "parent-1").
					Return([]string{"child-1"}, nil)
				mockStore.On("ListEntries", mock.Anything, mock.Anything).Return([]store.Entry{
					{
						EntryId:          store.DbNullString("entry-1"),
						ChildId:          store.DbNullString("child-1"),
						EntryType:        store.DbNullString("Food"),
						Subtype:          store.DbNullString("Lunch"),
						OccurredAt:       day.Add(11 * time.Hour),
						CreatedAt:        day.Add(11 * time.Hour),
						VisibleToParents: true,
					},
				}, nil)
				mockStore.On("GetChildDisplayNames", mock.Anything, mock.Anything).
					Return(map[string]string{}, errors.New("join table gone"))
				mockStore.On("GetUserDisplayNames", mock.Anything, mock.Anything).
					Return(map[string]string{}, errors.New("join table gone"))
			})

			It("should serve the feed with empty names", func() {
				Expect(returnedError).To(BeNil())
				Expect(items).To(HaveLen(1))
				Expect(items[0].ChildName).To(BeEmpty())
				Expect(items[0].TeacherName).To(BeEmpty())
			})
		})
	})
})
