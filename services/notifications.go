package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/asertelegram/Sparkaph/internal/notification"
	"github.com/asertelegram/Sparkaph/internal/store"
)

// Notifier is how the engine tells a user something happened. Callers
// treat delivery as fire-and-forget; a returned error means the event could
// not even be recorded.
type Notifier interface {
	Notify(ctx context.Context, userID int64, kind notification.Kind, data map[string]any) error
}

// NotificationService records notifications in the user's inbox and hands
// them to the async dispatcher for push delivery.
type NotificationService struct {
	notifications store.NotificationStore
	dispatcher    *NotificationDispatcher
	clock         clockwork.Clock
}

func NewNotificationService(notifications store.NotificationStore, clock clockwork.Clock) *NotificationService {
	service := &NotificationService{
		notifications: notifications,
		clock:         clock,
	}
	service.dispatcher = NewNotificationDispatcher()
	return service
}

// SetPushProvider injects the push backend from main.go. Without one,
// notifications stay inbox-only.
func (s *NotificationService) SetPushProvider(provider PushProvider) {
	s.dispatcher.SetPushProvider(provider)
}

func (s *NotificationService) Stop() {
	s.dispatcher.Stop()
}

// Notify renders the kind's template, persists the inbox row and queues a
// push. It implements Notifier.
func (s *NotificationService) Notify(ctx context.Context, userID int64, kind notification.Kind, data map[string]any) error {
	title, message := notification.Render(kind, data)

	n := &notification.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: s.clock.Now(),
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("store notification for user %d: %w", userID, err)
	}

	s.dispatcher.Dispatch(n)
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID int64, limit int) ([]*notification.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.notifications.ListByUser(ctx, userID, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.notifications.UnreadCount(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID int64, id uuid.UUID) error {
	return s.notifications.MarkRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.notifications.MarkAllRead(ctx, userID)
}
