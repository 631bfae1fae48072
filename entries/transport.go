package entries

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/sproutcare/daylog/authentication"
	"github.com/sproutcare/daylog/shared"
	"github.com/sproutcare/daylog/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"
)

// EntrySubmissionTransport is one raw, untrusted item of a bulk request.
type EntrySubmissionTransport struct {
	Type              string   `json:"type"`
	Subtype           string   `json:"subtype,omitempty"`
	ToiletKind        string   `json:"toiletKind,omitempty"`
	Detail            string   `json:"detail,omitempty"`
	PhotoUrl          string   `json:"photoUrl,omitempty"`
	OccurredAt        string   `json:"occurredAt"`
	ClassId           string   `json:"classId,omitempty"`
	ChildIds          []string `json:"childIds,omitempty"`
	ApplyToAllInClass bool     `json:"applyToAllInClass,omitempty"`
	VisibleToParents  *bool    `json:"visibleToParents,omitempty"`
}

type BulkSubmissionTransport struct {
	Items []EntrySubmissionTransport `json:"items"`
}

type CreatedEntryTransport struct {
	Id   string `json:"id"`
	Type string `json:"type"`
}

type FailedItemTransport struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type BulkResultTransport struct {
	Created []CreatedEntryTransport `json:"created"`
	Failed  []FailedItemTransport   `json:"failed"`
}

type ListEntriesTransport struct {
	ChildId  string
	ClassId  string
	Type     string
	DateFrom string
	DateTo   string

	// Limit is nil when the caller did not ask for one; zero is a real
	// value and clamps to the minimum, it does not mean "default".
	Limit *int
}

type EntryTransport struct {
	Id               string `json:"id"`
	DaycareId        string `json:"daycareId"`
	LocationId       string `json:"locationId"`
	ClassId          string `json:"classId,omitempty"`
	ChildId          string `json:"childId"`
	CreatedByUserId  string `json:"createdByUserId"`
	CreatedByRole    string `json:"createdByRole"`
	Type             string `json:"type"`
	Subtype          string `json:"subtype,omitempty"`
	ToiletKind       string `json:"toiletKind,omitempty"`
	Detail           string `json:"detail,omitempty"`
	PhotoUrl         string `json:"photoUrl,omitempty"`
	OccurredAt       string `json:"occurredAt"`
	CreatedAt        string `json:"createdAt"`
	VisibleToParents bool   `json:"visibleToParents"`
	PublishedAt      string `json:"publishedAt,omitempty"`
}

// ToTransport maps a stored entry to its wire shape, timestamps in
// RFC 3339 UTC.
func ToTransport(entry store.Entry) EntryTransport {
	transport := EntryTransport{
		Id:               entry.EntryId.String,
		DaycareId:        entry.DaycareId.String,
		LocationId:       entry.LocationId.String,
		ClassId:          entry.ClassId.String,
		ChildId:          entry.ChildId.String,
		CreatedByUserId:  entry.CreatedByUserId.String,
		CreatedByRole:    entry.CreatedByRole.String,
		Type:             entry.EntryType.String,
		Subtype:          entry.Subtype.String,
		ToiletKind:       entry.ToiletKind.String,
		Detail:           entry.Detail.String,
		PhotoUrl:         entry.PhotoUrl.String,
		OccurredAt:       entry.OccurredAt.UTC().Format(time.RFC3339),
		CreatedAt:        entry.CreatedAt.UTC().Format(time.RFC3339),
		VisibleToParents: entry.VisibleToParents,
	}
	if entry.PublishedAt != nil {
		transport.PublishedAt = entry.PublishedAt.UTC().Format(time.RFC3339)
	}
	return transport
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) BulkSubmit(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeBulkSubmitEndpoint(h.Service),
		decodeBulkSubmissionTransport,
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) List(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListEndpoint(h.Service),
		decodeListEntriesTransport,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeBulkSubmitEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(BulkSubmissionTransport)
		identity := authentication.IdentityFromContext(ctx)

		result, err := svc.BulkSubmit(ctx, identity, req)
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ListEntriesTransport)
		identity := authentication.IdentityFromContext(ctx)

		entries, err := svc.ListEntries(ctx, identity, req)
		if err != nil {
			return nil, err
		}
		return entries, nil
	}
}

func decodeBulkSubmissionTransport(_ context.Context, r *http.Request) (interface{}, error) {
	var request BulkSubmissionTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeListEntriesTransport(_ context.Context, r *http.Request) (interface{}, error) {
	query := r.URL.Query()
	request := ListEntriesTransport{
		ChildId:  query.Get("childId"),
		ClassId:  query.Get("classId"),
		Type:     query.Get("type"),
		DateFrom: query.Get("dateFrom"),
		DateTo:   query.Get("dateTo"),
	}
	if rawLimit := query.Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil {
			return nil, ErrInvalidLimit
		}
		request.Limit = &limit
	}
	return request, nil
}

var ErrInvalidLimit = errors.New("limit is not a number")

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch errors.Cause(err) {
	case ErrMissingTenancy, ErrInvalidDate, ErrInvalidLimit:
		w.WriteHeader(http.StatusBadRequest)
	case ErrStoreUnavailable:
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}
