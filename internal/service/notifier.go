package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"github.com/iliyamo/rental-booking/internal/metrics"
	"github.com/iliyamo/rental-booking/internal/model"
	"github.com/iliyamo/rental-booking/internal/queue"
)

const (
	EventBookingRequested     = "booking.requested"
	EventBookingStatusChanged = "booking.status_changed"
)

// Notifier tells the parties of a booking what happened. Implementations
// never fail the caller: delivery problems are logged and dropped.
type Notifier interface {
	BookingRequested(ctx context.Context, b model.Booking, l model.Listing)
	BookingStatusChanged(ctx context.Context, b model.Booking)
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) BookingRequested(context.Context, model.Booking, model.Listing) {}
func (NopNotifier) BookingStatusChanged(context.Context, model.Booking)            {}

type userGetter interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

type listingGetter interface {
	GetByID(ctx context.Context, id string) (model.Listing, error)
}

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"date":  func(t time.Time) string { return t.Format(time.DateOnly) },
	"money": func(c int64) string { return formatCents(c) },
}).Parse(`
{{define "requested.subject"}}New booking request for {{.Listing.Title}}{{end}}
{{define "requested.body"}}Hello {{.Recipient.Name}},

{{.Tenant.Name}} requested {{.Listing.Title}} from {{date .Booking.StartDate}} to {{date .Booking.EndDate}}.
Total: {{money .Booking.TotalPriceCents}}
{{with .Booking.Notes}}Notes: {{.}}
{{end}}
Booking {{.Booking.ID}} is pending your confirmation.
{{end}}
{{define "status.subject"}}Booking {{.Booking.Status}}: {{.Listing.Title}}{{end}}
{{define "status.body"}}Hello {{.Recipient.Name}},

The booking for {{.Listing.Title}} from {{date .Booking.StartDate}} to {{date .Booking.EndDate}} is now {{.Booking.Status}}.
Booking {{.Booking.ID}}, total {{money .Booking.TotalPriceCents}}.
{{end}}
`))

type messageData struct {
	Recipient model.User
	Tenant    model.User
	Booking   model.Booking
	Listing   model.Listing
}

// TemplateNotifier renders messages and hands them to a dispatcher.
type TemplateNotifier struct {
	users      userGetter
	listings   listingGetter
	dispatcher queue.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	timeout    time.Duration
}

func NewTemplateNotifier(users userGetter, listings listingGetter, d queue.Dispatcher, m *metrics.Metrics, logger *slog.Logger) *TemplateNotifier {
	return &TemplateNotifier{users: users, listings: listings, dispatcher: d, metrics: m, logger: logger, timeout: 5 * time.Second}
}

// BookingRequested tells the landlord about a new pending booking.
func (n *TemplateNotifier) BookingRequested(ctx context.Context, b model.Booking, l model.Listing) {
	ctx, cancel := n.detach(ctx)
	defer cancel()

	landlord, err := n.users.GetByID(ctx, b.LandlordID)
	if err != nil {
		n.fail(ctx, EventBookingRequested, b.ID, err)
		return
	}
	tenant, err := n.users.GetByID(ctx, b.TenantID)
	if err != nil {
		tenant = model.User{Name: "A tenant"}
	}
	n.send(ctx, EventBookingRequested, "requested", messageData{Recipient: landlord, Tenant: tenant, Booking: b, Listing: l})
}

// BookingStatusChanged tells both the tenant and the landlord.
func (n *TemplateNotifier) BookingStatusChanged(ctx context.Context, b model.Booking) {
	ctx, cancel := n.detach(ctx)
	defer cancel()

	l, err := n.listings.GetByID(ctx, b.ListingID)
	if err != nil {
		l = model.Listing{ID: b.ListingID, Title: "your listing"}
	}
	for _, id := range []string{b.TenantID, b.LandlordID} {
		u, err := n.users.GetByID(ctx, id)
		if err != nil {
			n.fail(ctx, EventBookingStatusChanged, b.ID, err)
			continue
		}
		n.send(ctx, EventBookingStatusChanged, "status", messageData{Recipient: u, Booking: b, Listing: l})
	}
}

// detach keeps request values but not its cancellation: the response may
// already be on the wire when the dispatcher runs.
func (n *TemplateNotifier) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
}

func (n *TemplateNotifier) send(ctx context.Context, event, tmpl string, data messageData) {
	var subject, body bytes.Buffer
	if err := templates.ExecuteTemplate(&subject, tmpl+".subject", data); err != nil {
		n.fail(ctx, event, data.Booking.ID, err)
		return
	}
	if err := templates.ExecuteTemplate(&body, tmpl+".body", data); err != nil {
		n.fail(ctx, event, data.Booking.ID, err)
		return
	}
	err := n.dispatcher.Dispatch(ctx, queue.Notification{
		Event:     event,
		BookingID: data.Booking.ID,
		Recipient: data.Recipient.Email,
		Subject:   subject.String(),
		Body:      body.String(),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		n.fail(ctx, event, data.Booking.ID, err)
		return
	}
	n.metrics.NotificationSent(event)
}

func (n *TemplateNotifier) fail(ctx context.Context, event, bookingID string, err error) {
	n.metrics.NotificationFailed(event)
	n.logger.WarnContext(ctx, "notification not dispatched",
		slog.String("event", event),
		slog.String("booking_id", bookingID),
		slog.String("error", err.Error()))
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
