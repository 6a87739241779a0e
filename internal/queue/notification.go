// Package queue carries booking notifications from the API process to the
// mail sender through RabbitMQ.
package queue

import (
	"context"
	"time"
)

// QueueName is the durable queue notifications travel on.
const QueueName = "booking.notifications"

// Notification is one rendered message for one recipient.
type Notification struct {
	Event     string    `json:"event"`
	BookingID string    `json:"booking_id"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Dispatcher accepts a notification for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Direct dispatches synchronously through a Sender, bypassing the broker.
type Direct struct{ Sender Sender }

func (d Direct) Dispatch(ctx context.Context, n Notification) error {
	return d.Sender.Send(ctx, n.Recipient, n.Subject, n.Body)
}
