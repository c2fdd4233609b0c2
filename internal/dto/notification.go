package dto

import (
	"time"

	"almoxarife/internal/domain"
)

type NotificationDTO struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
	LinkTo    string    `json:"linkTo,omitempty"`
}

type NotificationFeedResponse struct {
	TraceID       string            `json:"traceId"`
	Unread        int               `json:"unread"`
	Notifications []NotificationDTO `json:"notifications"`
}

type UnreadCountResponse struct {
	TraceID string `json:"traceId"`
	Unread  int    `json:"unread"`
}

type MarkReadResponse struct {
	TraceID string `json:"traceId"`
	Marked  int    `json:"marked"`
}

func NewNotificationDTOs(notifications []domain.Notification) []NotificationDTO {
	out := make([]NotificationDTO, len(notifications))
	for i, n := range notifications {
		out[i] = NotificationDTO{
			ID:        n.ID,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
			LinkTo:    n.LinkTo,
		}
	}
	return out
}
