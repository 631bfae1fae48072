package reports

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sproutcare/daylog/authentication"
	"github.com/sproutcare/daylog/entries"
	"github.com/sproutcare/daylog/shared"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

var (
	ErrBadRouting   = errors.New("inconsistent mapping between route and handler (programmer error)")
	ErrInvalidQuery = errors.New("sent must be true or false")
)

type ReportQueryTransport struct {
	ClassId  string
	ChildId  string
	DateFrom string
	DateTo   string
	Sent     *bool
}

type markSentTransport struct {
	ReportId string
}

type DailyReportTransport struct {
	Id      string                   `json:"id"`
	ChildId string                   `json:"childId"`
	Date    string                   `json:"date"`
	Sent    bool                     `json:"sent"`
	SentAt  string                   `json:"sentAt,omitempty"`
	Entries []entries.EntryTransport `json:"entries"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) TeacherDaily(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeTeacherDailyEndpoint(h.Service),
		decodeReportQueryTransport,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) ParentDaily(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeParentDailyEndpoint(h.Service),
		decodeReportQueryTransport,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) MarkSent(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeMarkSentEndpoint(h.Service),
		decodeMarkSentTransport,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeTeacherDailyEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ReportQueryTransport)
		identity := authentication.IdentityFromContext(ctx)

		reports, err := svc.TeacherDailyReports(ctx, identity, req)
		if err != nil {
			return nil, err
		}
		return reports, nil
	}
}

func makeParentDailyEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ReportQueryTransport)
		identity := authentication.IdentityFromContext(ctx)

		reports, err := svc.ParentDailyReports(ctx, identity, req)
		if err != nil {
			return nil, err
		}
		return reports, nil
	}
}

func makeMarkSentEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(markSentTransport)
		identity := authentication.IdentityFromContext(ctx)

		report, err := svc.MarkReportSent(ctx, identity, req.ReportId)
		if err != nil {
			return nil, err
		}
		return report, nil
	}
}

func decodeReportQueryTransport(_ context.Context, r *http.Request) (interface{}, error) {
	query := r.URL.Query()
	request := ReportQueryTransport{
		ClassId:  query.Get("classId"),
		ChildId:  query.Get("childId"),
		DateFrom: query.Get("dateFrom"),
		DateTo:   query.Get("dateTo"),
	}
	if rawSent := query.Get("sent"); rawSent != "" {
		sent, err := strconv.ParseBool(rawSent)
		if err != nil {
			return nil, ErrInvalidQuery
		}
		request.Sent = &sent
	}
	return request, nil
}

func decodeMarkSentTransport(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	reportId, ok := vars["reportId"]
	if !ok {
		return nil, ErrBadRouting
	}
	return markSentTransport{ReportId: reportId}, nil
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch errors.Cause(err) {
	case ErrMissingTenancy, ErrEmptyGuardianship, ErrInvalidReportId, ErrInvalidDate, ErrInvalidQuery:
		w.WriteHeader(http.StatusBadRequest)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}
