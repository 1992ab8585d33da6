// Package notify records missed calls and pushes live notifications.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rajankumarrkr/sukoon/internal/logger"
	"github.com/rajankumarrkr/sukoon/internal/metrics"
	"github.com/rajankumarrkr/sukoon/internal/models"
	"github.com/rajankumarrkr/sukoon/internal/signaling"
	"github.com/rajankumarrkr/sukoon/internal/wire"
	pkgtypes "github.com/rajankumarrkr/sukoon/pkg/types"
)

const (
	defaultQueueSize = 256
	storeTimeout     = 5 * time.Second
)

// Store persists notifications. *models.Queries implements it.
type Store interface {
	CreateNotification(ctx context.Context, arg models.CreateNotificationParams) (models.Notification, error)
	AttachSenderDisplayFields(ctx context.Context, n models.Notification) (models.NotificationWithSender, error)
}

// DisplayNames resolves a user's display name. *models.Queries implements it.
type DisplayNames interface {
	GetUserDisplayName(ctx context.Context, userID string) (string, error)
}

// Pusher delivers a live event to a user if they are connected.
type Pusher interface {
	Relay(userID, event string, payload any) bool
}

// Options configures a Notifier.
type Options struct {
	QueueSize int
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

type missedCall struct {
	recipientID string
	callerID    string
	callerName  string
	callType    signaling.CallType
}

// Notifier turns missed calls into persisted notifications and live pushes.
//
// NotifyMissed only enqueues; a single worker does the store round-trips so
// that signaling never waits on the database.
type Notifier struct {
	store   Store
	names   DisplayNames
	pusher  Pusher
	metrics *metrics.Metrics
	now     func() time.Time

	mu     sync.Mutex
	closed bool
	events chan missedCall
	done   chan struct{}
}

// New starts a notifier worker. names may be nil.
func New(store Store, names DisplayNames, pusher Pusher, opts Options) *Notifier {
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	n := &Notifier{
		store:   store,
		names:   names,
		pusher:  pusher,
		metrics: opts.Metrics,
		now:     now,
		events:  make(chan missedCall, size),
		done:    make(chan struct{}),
	}
	go n.loop()
	return n
}

// NotifyMissed implements signaling.MissedCallNotifier.
func (n *Notifier) NotifyMissed(recipientID, callerID, callerName string, callType signaling.CallType) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		logger.Warnf("[notify] closed; dropping missed call %s <- %s", recipientID, callerID)
		n.metrics.MissedCall("dropped")
		return
	}
	select {
	case n.events <- missedCall{
		recipientID: recipientID,
		callerID:    callerID,
		callerName:  callerName,
		callType:    callType,
	}:
	default:
		logger.Warnf("[notify] queue full; dropping missed call %s <- %s", recipientID, callerID)
		n.metrics.MissedCall("dropped")
	}
}

// Push delivers an already-built notification to its recipient's live
// session. It reports whether a connection accepted it.
func (n *Notifier) Push(ctx context.Context, notification wire.Notification) bool {
	if err := ctx.Err(); err != nil {
		return false
	}
	return n.pusher.Relay(notification.Recipient, wire.EventNotification, notification)
}

// Close stops accepting work and waits until queued notifications are
// processed.
func (n *Notifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.events)
	}
	n.mu.Unlock()
	<-n.done
}

func (n *Notifier) loop() {
	defer close(n.done)
	for evt := range n.events {
		n.handle(evt)
	}
}

func (n *Notifier) handle(evt missedCall) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	name := n.displayName(ctx, evt)
	text := missedCallText(evt.callType, name)

	record, err := n.persist(ctx, evt, text)
	if err != nil {
		logger.Errorf("[notify] persist missed call %s <- %s: %v", evt.recipientID, evt.callerID, err)
		n.metrics.MissedCall("persist_failed")
	} else {
		n.metrics.MissedCall("persisted")
	}

	if n.Push(ctx, record) {
		n.metrics.MissedCall("pushed")
	}
}

// persist stores the notification and returns the record to push. On failure
// the returned record is the unpersisted notification.
func (n *Notifier) persist(ctx context.Context, evt missedCall, text string) (wire.Notification, error) {
	params := models.CreateNotificationParams{
		ID:          pkgtypes.NewID(),
		RecipientID: evt.recipientID,
		SenderID:    evt.callerID,
		Type:        pkgtypes.NotificationMissedCall,
		Text:        text,
		CreatedAt:   n.now(),
	}
	fallback := models.NotificationWithSender{Notification: models.Notification{
		ID:          params.ID,
		RecipientID: params.RecipientID,
		SenderID:    params.SenderID,
		Type:        params.Type,
		Text:        params.Text,
		CreatedAt:   params.CreatedAt.UTC(),
	}}

	row, err := n.store.CreateNotification(ctx, params)
	if err != nil {
		return fallback.Wire(), err
	}
	enriched, err := n.store.AttachSenderDisplayFields(ctx, row)
	if err != nil {
		logger.Warnf("[notify] sender fields for %s: %v", row.ID, err)
		return models.NotificationWithSender{Notification: row}.Wire(), nil
	}
	return enriched.Wire(), nil
}

func (n *Notifier) displayName(ctx context.Context, evt missedCall) string {
	if name := strings.TrimSpace(evt.callerName); name != "" {
		return name
	}
	if n.names != nil {
		name, err := n.names.GetUserDisplayName(ctx, evt.callerID)
		if err == nil && name != "" {
			return name
		}
		if err != nil {
			logger.Debugf("[notify] display name for %s: %v", evt.callerID, err)
		}
	}
	return "Unknown"
}

func missedCallText(callType signaling.CallType, name string) string {
	if callType == "" {
		callType = signaling.CallAudio
	}
	return fmt.Sprintf("Missed %s call from %s", callType, name)
}
