package notification

import (
	"net/http"

	"go.uber.org/zap"

	"almoxarife/internal/commons"
	"almoxarife/internal/dto"
)

type Controller struct {
	service *Service
	logger  *zap.Logger
}

func NewController(service *Service, logger *zap.Logger) *Controller {
	return &Controller{
		service: service,
		logger:  logger,
	}
}

func (c *Controller) HandleFeed(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()

	feed, unread, err := c.service.Feed(r.Context())
	if err != nil {
		commons.HandleError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.NotificationFeedResponse{
		TraceID:       traceID,
		Unread:        unread,
		Notifications: dto.NewNotificationDTOs(feed),
	}, c.logger)
}

// HandleUnreadCount serves the badge count without the feed body.
func (c *Controller) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()

	unread, err := c.service.UnreadCount(r.Context())
	if err != nil {
		commons.HandleError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.UnreadCountResponse{TraceID: traceID, Unread: unread}, c.logger)
}

func (c *Controller) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	traceID := commons.NewTraceID()

	marked, err := c.service.MarkAllRead(r.Context())
	if err != nil {
		commons.HandleError(w, traceID, err, c.logger)
		return
	}

	commons.WriteJSON(w, http.StatusOK, dto.MarkReadResponse{TraceID: traceID, Marked: marked}, c.logger)
}
