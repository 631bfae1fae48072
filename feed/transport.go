package feed

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sproutcare/daylog/authentication"
	"github.com/sproutcare/daylog/shared"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"
)

type FeedItemTransport struct {
	Id          string `json:"id"`
	ChildId     string `json:"childId"`
	ChildName   string `json:"childName,omitempty"`
	TeacherName string `json:"teacherName,omitempty"`
	ClassId     string `json:"classId,omitempty"`
	Type        string `json:"type"`
	Subtype     string `json:"subtype,omitempty"`
	ToiletKind  string `json:"toiletKind,omitempty"`
	Detail      string `json:"detail,omitempty"`
	PhotoUrl    string `json:"photoUrl,omitempty"`
	OccurredAt  string `json:"occurredAt,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Feed(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeFeedEndpoint(h.Service),
		ignorePayload,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeFeedEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		identity := authentication.IdentityFromContext(ctx)

		items, err := svc.GetFeed(ctx, identity)
		if err != nil {
			return nil, err
		}
		return items, nil
	}
}

func ignorePayload(_ context.Context, r *http.Request) (interface{}, error) {
	return nil, nil
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch errors.Cause(err) {
	case ErrMissingTenancy, ErrEmptyGuardianship:
		w.WriteHeader(http.StatusBadRequest)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}
