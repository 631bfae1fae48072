package reports_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	messagingMocks "github.com/sproutcare/daylog/messaging/mocks"
	. "github.com/sproutcare/daylog/reports"
	"github.com/sproutcare/daylog/shared"
	"github.com/sproutcare/daylog/store"
	. "github.com/sproutcare/daylog/store/mocks"

	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
)

var _ = Describe("Transport", func() {

	var (
		router   *mux.Router
		recorder *httptest.ResponseRecorder

		mockStore     *MockStore
		mockMessaging *messagingMocks.MockClient
		reportService *ReportService

		claims map[string]interface{}

		httpMethodToUse, httpEndpointToUse string

		day = time.Date(2018, 4, 2, 0, 0, 0, 0, time.UTC)
	)

	var assertHttpCode = func(code int) {
		It(fmt.Sprintf("should respond with status code %d", code), func() {
			Expect(recorder.Code).To(Equal(code))
		})
	}

	BeforeEach(func() {
		mockStore = &MockStore{}
		mockMessaging = &messagingMocks.MockClient{}
		reportService = &ReportService{
			Store:     mockStore,
			Messaging: mockMessaging,
			Logger:    shared.NewLogger("reports-test"),
		}
		claims = map[string]interface{}{
			"userId":            "teacher-1",
			"daycareId":         "daycare-1",
			"locationId":        "location-1",
			shared.ROLE_TEACHER: true,
		}

		opts := []kithttp.ServerOption{
			kithttp.ServerErrorEncoder(EncodeError),
			kithttp.ServerBefore(func(ctx context.Context, _ *http.Request) context.Context {
				return context.WithValue(ctx, "claims", claims)
			}),
		}
		handlerFactory := &HandlerFactory{Service: reportService}

		router = mux.NewRouter()
		apiRouterV1 := router.PathPrefix("/api/v1").Subrouter()
		apiRouterV1.Handle("/reports/daily", handlerFactory.TeacherDaily(opts)).Methods(http.MethodGet)
		apiRouterV1.Handle("/reports/daily/parent", handlerFactory.ParentDaily(opts)).Methods(http.MethodGet)
		apiRouterV1.Handle("/reports/{reportId}/send", handlerFactory.MarkSent(opts)).Methods(http.MethodPost)
	})

	JustBeforeEach(func() {
		recorder = httptest.NewRecorder()
		reqToUse := httptest.NewRequest(httpMethodToUse, httpEndpointToUse, nil)
		router.ServeHTTP(recorder, reqToUse)
	})

	Describe("GET /api/v1/reports/daily", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodGet
			httpEndpointToUse = "/api/v1/reports/daily"
			mockStore.On("ListEntries", mock.Anything, mock.Anything).Return([]store.Entry{}, nil)
			mockStore.On("ListReportSentFlags", mock.Anything, mock.Anything).
				Return(map[string]store.ReportSentFlag{}, nil)
		})

		Context("default case", func() {
			assertHttpCode(http.StatusOK)
		})

		Context("with a sent filter", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/v1/reports/daily?sent=true"
			})

			assertHttpCode(http.StatusOK)
		})

		Context("with a garbage sent filter", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/v1/reports/daily?sent=maybe"
			})

			assertHttpCode(http.StatusBadRequest)
		})

		Context("when the caller has no location scope", func() {
			BeforeEach(func() {
				delete(claims, "locationId")
			})

			assertHttpCode(http.StatusBadRequest)
		})
	})

	Describe("GET /api/v1/reports/daily/parent", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodGet
			httpEndpointToUse = "/api/v1/reports/daily/parent"
			claims["userId"] = "parent-1"
		})

		Context("when the caller has no children", func() {
			BeforeEach(func() {
				mockStore.On("ListChildIdsOfResponsible", mock.Anything, "parent-1").
					Return([]string{}, nil)
			})

			assertHttpCode(http.StatusBadRequest)
		})

		Context("when the caller has children", func() {
			BeforeEach(func() {
				mockStore.On("ListChildIdsOfResponsible", mock.Anything, "parent-1").
					Return([]string{"child-1"}, nil)
				mockStore.On("ListEntries", mock.Anything, mock.Anything).Return([]store.Entry{}, nil)
				mockStore.On("ListReportSentFlags", mock.Anything, mock.Anything).
					Return(map[string]store.ReportSentFlag{}, nil)
			})

			assertHttpCode(http.StatusOK)
		})
	})

	Describe("POST /api/v1/reports/{reportId}/send", func() {

		BeforeEach(func() {
			httpMethodToUse = http.MethodPost
			httpEndpointToUse = "/api/v1/reports/child-1:2018-04-02/send"
		})

		Context("when the report is a draft", func() {
			BeforeEach(func() {
				flag := store.ReportSentFlag{
					ReportId: "child-1:2018-04-02",
					ChildId:  store.DbNullString("child-1"),
					Day:      day,
					SentAt:   day.Add(18 * time.Hour),
				}
				mockStore.On("GetReportSentFlag", mock.Anything, "child-1:2018-04-02").
					Return(store.ReportSentFlag{}, store.ErrReportNotFound).Once()
				mockStore.On("MarkEntriesPublished", mock.Anything, "child-1", mock.Anything, mock.Anything, mock.Anything).
					Return(nil)
				mockStore.On("MarkReportSent", mock.Anything, "child-1:2018-04-02", "child-1", day, mock.Anything).
					Return(flag, nil)
				mockMessaging.On("Publish", mock.Anything, mock.Anything).Return(nil)
				mockStore.On("ListEntries", mock.Anything, mock.Anything).Return([]store.Entry{}, nil)
				mockStore.On("ListReportSentFlags", mock.Anything, mock.Anything).
					Return(map[string]store.ReportSentFlag{}, nil)
				mockStore.On("GetReportSentFlag", mock.Anything, "child-1:2018-04-02").
					Return(flag, nil)
			})

			assertHttpCode(http.StatusOK)

			It("should respond with the sent report", func() {
				report := DailyReportTransport{}
				Expect(json.Unmarshal(recorder.Body.Bytes(), &report)).To(Succeed())
				Expect(report.Id).To(Equal("child-1:2018-04-02"))
				Expect(report.Sent).To(BeTrue())
			})
		})

		Context("when the report id is malformed", func() {
			BeforeEach(func() {
				httpEndpointToUse = "/api/v1/reports/not-a-report-id/send"
			})

			assertHttpCode(http.StatusBadRequest)
		})
	})
})
