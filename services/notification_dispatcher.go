package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/asertelegram/Sparkaph/internal/notification"
)

// PushProvider forwards a notification to an external push channel.
// internal/notification.FCMService is the production implementation.
type PushProvider interface {
	SendPush(ctx context.Context, userID int64, title, body string, data map[string]any) error
}

// NotificationDispatcher fans notifications out to the push provider on a
// small worker pool so a slow push backend never blocks the request path.
type NotificationDispatcher struct {
	pushProvider PushProvider
	workers      int
	jobQueue     chan *notification.Notification
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewNotificationDispatcher() *NotificationDispatcher {
	d := &NotificationDispatcher{
		workers:  5, // 5 workers is plenty for now
		jobQueue: make(chan *notification.Notification, 100),
		stopChan: make(chan struct{}),
	}
	d.startWorkers()
	return d
}

// SetPushProvider injects the real push backend. Until one is set, queued
// notifications are dropped after the inbox write.
func (d *NotificationDispatcher) SetPushProvider(provider PushProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.jobQueue:
			d.process(n)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) process(n *notification.Notification) {
	if d.pushProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Best effort: the inbox row already exists, a failed push is logged
	// and forgotten.
	if err := d.pushProvider.SendPush(ctx, n.UserID, n.Title, n.Message, n.Data); err != nil {
		log.Printf("Push failed for user %d (%s): %v", n.UserID, n.Kind, err)
	}
}

// Dispatch queues a notification for push delivery. A full queue drops the
// push rather than blocking the caller.
func (d *NotificationDispatcher) Dispatch(n *notification.Notification) {
	select {
	case d.jobQueue <- n:
	default:
		log.Printf("Push queue full, dropping %s for user %d", n.Kind, n.UserID)
	}
}

// Stop drains the workers. Safe to call more than once.
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopChan) })
	d.wg.Wait()
}
