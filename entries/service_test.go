package entries_test

import (
	"context"

	"github.com/sproutcare/daylog/authentication"
	. "github.com/sproutcare/daylog/entries"
	"github.com/sproutcare/daylog/shared"
	"github.com/sproutcare/daylog/store"
	. "github.com/sproutcare/daylog/store/mocks"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
)

var _ = Describe("Service", func() {

	var (
		ctx          = context.Background()
		entryService *EntryService
		mockStore    *MockStore

		identity authentication.Identity
	)

	BeforeEach(func() {
		mockStore = &MockStore{}
		entryService = &EntryService{
			Store:  mockStore,
			Logger: shared.NewLogger("entries-test"),
		}
		identity = authentication.Identity{
			UserId:     "teacher-1",
			DaycareId:  "daycare-1",
			LocationId: "location-1",
			Roles:      []string{shared.ROLE_TEACHER},
		}
	})

	Describe("BulkSubmit", func() {

		var (
			request       BulkSubmissionTransport
			result        BulkResultTransport
			returnedError error
		)

		var (
			assertNoError = func() {
				It("should not return an error", func() {
					Expect(returnedError).To(BeNil())
				})
			}
			assertErrorWithCause = func(cause error) {
				It("should return an error", func() {
					Expect(returnedError).NotTo(BeNil())
					Expect(errors.Cause(returnedError)).To(Equal(cause))
				})
			}
			assertFailedReasons = func(reasons ...string) {
				It("should report the failed items", func() {
					Expect(result.Failed).To(HaveLen(len(reasons)))
					for i, reason := range reasons {
						Expect(result.Failed[i].Reason).To(Equal(reason))
					}
				})
			}
		)

		BeforeEach(func() {
			mockStore.On("Ping").Return(nil)
			request = BulkSubmissionTransport{
				Items: []EntrySubmissionTransport{
					{
						Type:       "Food",
						Subtype:    "Lunch",
						OccurredAt: "2018-04-02T11:30:00Z",
						ChildIds:   []string{"child-1", "child-2"},
					},
				},
			}
		})

		JustBeforeEach(func() {
			result, returnedError = entryService.BulkSubmit(ctx, identity, request)
		})

		Context("when every item is valid", func() {

			BeforeEach(func() {
				mockStore.On("AddEntry", mock.Anything, mock.Anything).
					Return(store.Entry{
						EntryId:   store.DbNullString("entry-1"),
						EntryType: store.DbNullString("Food"),
					}, nil)
			})

			assertNoError()

			It("should create one entry per target child", func() {
				Expect(result.Created).To(HaveLen(2))
				Expect(result.Failed).To(BeEmpty())
				mockStore.AssertNumberOfCalls(GinkgoT(), "AddEntry", 2)
			})
		})

		Context("when the daycare scope is missing", func() {

			BeforeEach(func() {
				identity.DaycareId = ""
			})

			assertErrorWithCause(ErrMissingTenancy)
		})

		Context("when the store is unreachable", func() {

			BeforeEach(func() {
				mockStore.ExpectedCalls = nil
				mockStore.On("Ping").Return(errors.New("connection refused"))
			})

			assertErrorWithCause(ErrStoreUnavailable)

			It("should not report partial results", func() {
				Expect(result.Created).To(BeEmpty())
			})
		})

		Context("when one item is invalid among valid ones", func() {

			BeforeEach(func() {
				request.Items = []EntrySubmissionTransport{
					{Type: "Food", Subtype: "Lunch", OccurredAt: "2018-04-02T11:30:00Z", ChildIds: []string{"child-1"}},
					{Type: "Food", Subtype: "Dinner", OccurredAt: "2018-04-02T12:00:00Z", ChildIds: []string{"child-2"}},
					{Type: "Note", Detail: "slept well", OccurredAt: "2018-04-02T13:00:00Z", ChildIds: []string{"child-3"}},
				}
				mockStore.On("AddEntry", mock.Anything, mock.Anything).
					Return(store.Entry{
						EntryId:   store.DbNullString("entry-1"),
						EntryType: store.DbNullString("Food"),
					}, nil)
			})

			assertNoError()
			assertFailedReasons("food_subtype_required_at_1")

			It("should still create the valid items", func() {
				Expect(result.Created).To(HaveLen(2))
				Expect(result.Failed[0].Index).To(Equal(1))
			})
		})

		Context("when applyToAllInClass resolves the class roster", func() {

			BeforeEach(func() {
				request.Items = []EntrySubmissionTransport{
					{Type: "Activity", Detail: "painting", OccurredAt: "2018-04-02T10:00:00Z", ClassId: "class-1", ApplyToAllInClass: true},
				}
				mockStore.On("ListChildIdsOfClass", mock.Anything, "class-1").
					Return([]string{"child-1", "child-2", "child-3"}, nil)
				mockStore.On("AddEntry", mock.Anything, mock.Anything).
					Return(store.Entry{
						EntryId:   store.DbNullString("entry-1"),
						EntryType: store.DbNullString("Activity"),
					}, nil)
			})

			assertNoError()

			It("should fan out to every child of the class", func() {
				Expect(result.Created).To(HaveLen(3))
				mockStore.AssertNumberOfCalls(GinkgoT(), "AddEntry", 3)
			})
		})

		Context("when the resolved target set is empty", func() {

			BeforeEach(func() {
				request.Items = []EntrySubmissionTransport{
					{Type: "Activity", Detail: "painting", OccurredAt: "2018-04-02T10:00:00Z", ClassId: "class-1", ApplyToAllInClass: true},
				}
				mockStore.On("ListChildIdsOfClass", mock.Anything, "class-1").
					Return([]string{}, nil)
			})

			assertNoError()
			assertFailedReasons("no_target_children_at_0")
		})

		Context("when the roster lookup fails", func() {

			BeforeEach(func() {
				request.Items = []EntrySubmissionTransport{
					{Type: "Activity", Detail: "painting", OccurredAt: "2018-04-02T10:00:00Z", ClassId: "class-1", ApplyToAllInClass: true},
				}
				mockStore.On("ListChildIdsOfClass", mock.Anything, "class-1").
					Return([]string{}, errors.New("connection reset"))
			})

			assertErrorWithCause(ErrStoreUnavailable)
		})

		Context("when a single write fails inside the fan-out", func() {

			BeforeEach(func() {
				mockStore.On("AddEntry", mock.Anything, mock.MatchedBy(func(entry store.Entry) bool {
					return entry.ChildId.String == "child-1"
				})).Return(store.Entry{}, errors.New("constraint violation"))
				mockStore.On("AddEntry", mock.Anything, mock.MatchedBy(func(entry store.Entry) bool {
					return entry.ChildId.String == "child-2"
				})).Return(store.Entry{
					EntryId:   store.DbNullString("entry-2"),
					EntryType: store.DbNullString("Food"),
				}, nil)
			})

			assertNoError()
			assertFailedReasons("write_failed_at_0")

			It("should still create the sibling entries", func() {
				Expect(result.Created).To(HaveLen(1))
				Expect(result.Created[0].Id).To(Equal("entry-2"))
			})
		})
	})

	Describe("ListEntries", func() {

		var (
			request        ListEntriesTransport
			returned       []EntryTransport
			returnedError  error
			capturedFilter store.EntryFilter
		)

		BeforeEach(func() {
			request = ListEntriesTransport{}
			mockStore.On("ListEntries", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) {
					capturedFilter = args.Get(1).(store.EntryFilter)
				}).
				Return([]store.Entry{}, nil)
		})

		JustBeforeEach(func() {
			returned, returnedError = entryService.ListEntries(ctx, identity, request)
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

		Context("when no limit is supplied", func() {
			It("should default to 50", func() {
				Expect(returnedError).To(BeNil())
				Expect(capturedFilter.Limit).To(Equal(50))
			})
		})

		Context("when the limit is zero", func() {
			BeforeEach(func() {
				limit := 0
				request.Limit = &limit
			})

			It("should clamp to the minimum", func() {
				Expect(capturedFilter.Limit).To(Equal(1))
			})
		})

		Context("when the limit exceeds the maximum", func() {
			BeforeEach(func() {
				limit := 500
				request.Limit = &limit
			})

			It("should clamp to 100", func() {
				Expect(capturedFilter.Limit).To(Equal(100))
			})
		})

		Context("when a date filter cannot be parsed", func() {
			BeforeEach(func() {
				request.DateFrom = "yesterday-ish"
			})

			It("should return an invalid date error", func() {
				Expect(errors.Cause(returnedError)).To(Equal(ErrInvalidDate))
			})
		})

		Context("when the store returns entries", func() {
			BeforeEach(func() {
				mockStore.ExpectedCalls = nil
				mockStore.On("ListEntries", mock.Anything, mock.Anything).
					Return([]store.Entry{
						{
							EntryId:   store.DbNullString("entry-1"),
							ChildId:   store.DbNullString("child-1"),
							EntryType: store.DbNullString("Food"),
						},
					}, nil)
			})

			It("should map them to their wire shape", func() {
				Expect(returned).To(HaveLen(1))
				Expect(returned[0].Id).To(Equal("entry-1"))
				Expect(returned[0].ChildId).To(Equal("child-1"))
				Expect(returned[0].Type).To(Equal("Food"))
			})
		})
	})
})
