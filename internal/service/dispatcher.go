package service

import (
	"context"

	"gatherly/internal/middleware"
	"gatherly/internal/models"
	"gatherly/internal/notifications"
	"gatherly/internal/repository"
	"gatherly/internal/transport"
)

// Event identifies the domain action behind a notification, which in turn
// selects the delivery channel policy.
type Event string

const (
	// EventAvailabilityUpdated is the batched "added new availability" ping.
	EventAvailabilityUpdated Event = "availability_updated"
	// EventFriendRequest notifies the addressee of a new friend request.
	EventFriendRequest Event = "friend_request"
	// EventFriendAccept notifies the original requester of acceptance.
	EventFriendAccept Event = "friend_accept"
	// EventNudge is a user-initiated prompt asking a friend to share availability.
	EventNudge Event = "nudge"
	// EventHangoutInvite notifies a user they were invited to a hangout.
	EventHangoutInvite Event = "hangout_invite"
	// EventHangoutResponse notifies the creator of an invitee's RSVP.
	EventHangoutResponse Event = "hangout_response"
	// EventHangoutUpdate covers date/time edits and invitee removal.
	EventHangoutUpdate Event = "hangout_update"
	// EventHangoutCancel notifies invitees of a cancellation.
	EventHangoutCancel Event = "hangout_cancel"
	// EventHangoutChat notifies hangout participants of a new chat message.
	EventHangoutChat Event = "hangout_chat"
)

// channelPolicy declares which channels an event may use beyond the in-app
// row, which every event writes unconditionally. SMS is a fallback channel:
// it fires only when push produced zero successful endpoint deliveries.
type channelPolicy struct {
	Push        bool
	SMSFallback bool
}

// Only the nudge falls back to SMS. A nudge exists to reach someone who is
// not engaging with the app, so push-or-nothing would defeat it; every other
// event reaches an engaged user eventually through the in-app feed.
var channelPolicies = map[Event]channelPolicy{
	EventAvailabilityUpdated: {Push: true},
	EventFriendRequest:       {Push: true},
	EventFriendAccept:        {Push: true},
	EventNudge:               {Push: true, SMSFallback: true},
	EventHangoutInvite:       {Push: true},
	EventHangoutResponse:     {Push: true},
	EventHangoutUpdate:       {Push: true},
	EventHangoutCancel:       {Push: true},
	EventHangoutChat:         {},
}

// Delivery is one recipient's share of a dispatched event. The in-app row is
// already committed by the time a Delivery is built; the dispatcher only
// handles the volatile channels. Recipient is optional: when unset, the
// recipient ID comes from the notification row, and SMS fallback (which
// needs the loaded user's phone) is skipped.
type Delivery struct {
	Event        Event
	Recipient    *models.User
	Notification *models.Notification
	PushTitle    string
	PushBody     string
	PushURL      string
}

func (d Delivery) recipientID() uint {
	if d.Recipient != nil {
		return d.Recipient.ID
	}
	if d.Notification != nil {
		return d.Notification.RecipientID
	}
	return 0
}

// Dispatcher fans a committed notification out to realtime, push and SMS
// channels per the event's channel policy. All channel failures are logged
// and counted, never returned: delivery is best-effort by contract.
type Dispatcher struct {
	devices  repository.DeviceRepository
	pusher   transport.PushSender
	sms      transport.SMSSender
	notifier *notifications.Notifier
}

// NewDispatcher returns a new Dispatcher.
func NewDispatcher(
	devices repository.DeviceRepository,
	pusher transport.PushSender,
	sms transport.SMSSender,
	notifier *notifications.Notifier,
) *Dispatcher {
	return &Dispatcher{
		devices:  devices,
		pusher:   pusher,
		sms:      sms,
		notifier: notifier,
	}
}

// Deliver performs the channel attempts for one recipient: realtime publish,
// then push if the recipient has registered endpoints, then SMS when the
// event's policy allows fallback and push delivered nowhere.
func (d *Dispatcher) Deliver(ctx context.Context, del Delivery) {
	d.publishRealtime(ctx, del)
	middleware.NotificationsDispatched.WithLabelValues(string(del.Event), "in_app").Inc()

	policy := channelPolicies[del.Event]

	pushed := 0
	if policy.Push {
		pushed = d.deliverPush(ctx, del)
	}

	if policy.SMSFallback && pushed == 0 {
		d.deliverSMS(ctx, del)
	}
}

func (d *Dispatcher) publishRealtime(ctx context.Context, del Delivery) {
	data := map[string]interface{}{
		"message": del.PushBody,
	}
	if del.Notification != nil {
		data["id"] = del.Notification.ID
		data["kind"] = del.Notification.Kind
		data["message"] = del.Notification.Message
		data["created_at"] = del.Notification.CreatedAt
		if del.Notification.HangoutID != nil {
			data["hangout_id"] = *del.Notification.HangoutID
		}
	}
	if err := d.notifier.PublishUserEvent(ctx, del.recipientID(), "notification", data); err != nil {
		middleware.Logger.WarnContext(ctx, "realtime publish failed",
			"user_id", del.recipientID(), "error", err)
	}
}

// deliverPush attempts every registered endpoint and returns how many
// succeeded. Endpoints reporting permanent failure are pruned.
func (d *Dispatcher) deliverPush(ctx context.Context, del Delivery) int {
	devices, err := d.devices.ListForUser(ctx, del.recipientID())
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "push device lookup failed",
			"user_id", del.recipientID(), "error", err)
		return 0
	}
	if len(devices) == 0 {
		return 0
	}

	endpoints := make([]string, len(devices))
	for i, dev := range devices {
		endpoints[i] = dev.Endpoint
	}

	results := d.pusher.Send(ctx, endpoints, del.PushTitle, del.PushBody, del.PushURL)

	delivered := 0
	var stale []string
	for _, res := range results {
		switch {
		case res.Delivered:
			delivered++
		case res.Permanent:
			stale = append(stale, res.Endpoint)
			middleware.TransportFailures.WithLabelValues("push").Inc()
		default:
			middleware.TransportFailures.WithLabelValues("push").Inc()
		}
	}
	if delivered > 0 {
		middleware.NotificationsDispatched.WithLabelValues(string(del.Event), "push").Inc()
	}

	if len(stale) > 0 {
		if err := d.devices.DeleteByEndpoints(ctx, stale); err != nil {
			middleware.Logger.ErrorContext(ctx, "stale push endpoint prune failed", "error", err)
		}
	}
	return delivered
}

func (d *Dispatcher) deliverSMS(ctx context.Context, del Delivery) {
	if del.Recipient == nil || del.Recipient.PhoneNormalized == "" {
		return
	}
	phone := del.Recipient.PhoneNormalized
	message := del.PushBody
	if del.Notification != nil {
		message = del.Notification.Message
	}
	switch d.sms.Send(ctx, phone, message) {
	case transport.SMSError:
		middleware.TransportFailures.WithLabelValues("sms").Inc()
	default:
		middleware.NotificationsDispatched.WithLabelValues(string(del.Event), "sms").Inc()
	}
}
