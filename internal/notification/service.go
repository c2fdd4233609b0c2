package notification

import (
	"context"

	"go.uber.org/zap"

	"almoxarife/internal/domain"
)

type Repository interface {
	ListNotifications(ctx context.Context) ([]domain.Notification, error)
	MarkAllNotificationsRead(ctx context.Context) (int, error)
}

type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Feed returns every notification, most recent first, with the unread count.
func (s *Service) Feed(ctx context.Context) ([]domain.Notification, int, error) {
	feed, err := s.repo.ListNotifications(ctx)
	if err != nil {
		return nil, 0, err
	}
	return feed, countUnread(feed), nil
}

func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	feed, err := s.repo.ListNotifications(ctx)
	if err != nil {
		return 0, err
	}
	return countUnread(feed), nil
}

func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	marked, err := s.repo.MarkAllNotificationsRead(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("notifications marked read", zap.Int("marked", marked))
	return marked, nil
}

func countUnread(feed []domain.Notification) int {
	unread := 0
	for _, n := range feed {
		if !n.Read {
			unread++
		}
	}
	return unread
}
