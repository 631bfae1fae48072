package consumers

import (
	"context"

	daylog "github.com/sproutcare/daylog/shared"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

const (
	reportSentEventType = "report.sent"
)

// ReportSentHandler resolves the guardians of the report's child so the
// notification pipeline knows who to reach. Actual push delivery is
// handled downstream.
type ReportSentHandler struct {
	Store interface {
		ListResponsiblesOfChild(tx *gorm.DB, childId string) ([]string, error)
	} `inject:""`
	Logger *daylog.Logger `inject:""`
}

func (h *ReportSentHandler) CanHandle(event Event) bool {
	return event.Type == reportSentEventType
}

func (h *ReportSentHandler) Name() string {
	return reportSentEventType
}

func (h *ReportSentHandler) Handle(ctx context.Context, event Event) error {
	if event.ReportSent == nil {
		return errors.New("report sent payload is empty")
	}
	if event.ReportSent.ChildId == "" {
		return errors.New("childId is mandatory")
	}

	responsibleIds, err := h.Store.ListResponsiblesOfChild(nil, event.ReportSent.ChildId)
	if err != nil {
		return errors.Wrap(err, "failed to resolve guardians")
	}
	if len(responsibleIds) == 0 {
		h.Logger.Warn(ctx, "report sent but child has no guardians", "reportId", event.ReportSent.ReportId)
		return nil
	}

	for _, responsibleId := range responsibleIds {
		h.Logger.Info(ctx, "queueing report notification",
			"reportId", event.ReportSent.ReportId,
			"childId", event.ReportSent.ChildId,
			"date", event.ReportSent.Date,
			"responsibleId", responsibleId)
	}

	return nil
}
