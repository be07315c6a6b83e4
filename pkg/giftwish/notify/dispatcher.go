// Package notify maps domain events to email notifications.
//
// Rendering is deterministic: each Kind has a fixed subject/body template.
// Delivery is best-effort - failures are logged and surfaced as
// ErrDeliveryFailed, but workflows never roll back a committed write
// because an email could not be sent.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pmarstow/giftwish/pkg/giftwish/metrics"
	"github.com/pmarstow/giftwish/pkg/giftwish/models"
)

// ErrDeliveryFailed indicates the email transport rejected a notification.
// Non-fatal to the workflow that triggered it.
var ErrDeliveryFailed = errors.New("notification delivery failed")

// Kind identifies a notification template
type Kind string

const (
	// KindMemberAdded is sent to a user when they are added to a group
	KindMemberAdded Kind = "member_added"
	// KindItemAdded is sent to other group members when a non-surprise item is created
	KindItemAdded Kind = "item_added"
	// KindItemPurchased is sent to an item's owner when someone marks it gotten.
	// The body must never reveal the purchaser or any item detail.
	KindItemPurchased Kind = "item_purchased"
	// KindSurpriseAdded is sent to a wishlist owner when a surprise gift
	// appears on their list; the details stay hidden
	KindSurpriseAdded Kind = "surprise_added"
)

// Data carries the entities a template renders from. User is always the
// recipient; Group is required for every kind, Item and ActorName only
// where the template uses them.
type Data struct {
	User      models.User
	Group     *models.Group
	Item      *models.WishlistItem
	ActorName string
}

// Message is a rendered notification ready for the mail transport
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Render produces the message for a notification kind. It is pure: same
// inputs, same message.
func Render(kind Kind, data Data) (Message, error) {
	if data.Group == nil {
		return Message{}, fmt.Errorf("notify: group required for kind %q", kind)
	}

	switch kind {
	case KindMemberAdded:
		return Message{
			To:      data.User.Email,
			Subject: fmt.Sprintf("New Member in %s", data.Group.Name),
			HTML: fmt.Sprintf(`<h2>Welcome to %s!</h2>
<p>%s has added you to the group.</p>
<p>You can now share your wishlist and view others' wishlists.</p>`,
				data.Group.Name, data.ActorName),
		}, nil

	case KindItemAdded:
		if data.Item == nil {
			return Message{}, fmt.Errorf("notify: item required for kind %q", kind)
		}
		priceLine := ""
		if data.Item.Price != "" {
			priceLine = fmt.Sprintf("\n<p>Price: %s</p>", data.Item.Price)
		}
		return Message{
			To:      data.User.Email,
			Subject: fmt.Sprintf("New Item in %s", data.Group.Name),
			HTML: fmt.Sprintf(`<h2>New Wishlist Item</h2>
<p>%s has added a new item to their wishlist in %s:</p>
<p><strong>%s</strong></p>%s`,
				data.ActorName, data.Group.Name, data.Item.Name, priceLine),
		}, nil

	case KindItemPurchased:
		return Message{
			To:      data.User.Email,
			Subject: "Item Marked as Purchased",
			HTML: fmt.Sprintf(`<h2>Item Purchased</h2>
<p>Someone has marked an item as purchased from your wishlist in %s.</p>
<p>Remember, don't check your wishlist if you want to keep the surprise!</p>`,
				data.Group.Name),
		}, nil

	case KindSurpriseAdded:
		return Message{
			To:      data.User.Email,
			Subject: "Surprise Gift Added",
			HTML: fmt.Sprintf(`<h2>Surprise Gift Added</h2>
<p>Someone has added a surprise gift to your wishlist in %s!</p>
<p>The details are hidden to keep the surprise.</p>`,
				data.Group.Name),
		}, nil

	default:
		return Message{}, fmt.Errorf("notify: unknown kind %q", kind)
	}
}

// Dispatcher renders and delivers notifications through a Mailer
type Dispatcher struct {
	mailer Mailer
	log    *slog.Logger
}

// NewDispatcher creates a dispatcher backed by the given mailer
func NewDispatcher(mailer Mailer) *Dispatcher {
	return &Dispatcher{
		mailer: mailer,
		log:    slog.Default().With("component", "notify"),
	}
}

// Notify renders the template for kind and hands the message to the mailer.
// Recipients without an email address are skipped. Transport errors are
// logged and returned wrapped in ErrDeliveryFailed; callers are expected to
// treat them as non-fatal.
func (d *Dispatcher) Notify(ctx context.Context, kind Kind, data Data) error {
	if data.User.Email == "" {
		d.log.Debug("Skipping notification, recipient has no email",
			"kind", string(kind),
			"user_id", data.User.ID,
		)
		metrics.NotificationsSkipped.WithLabelValues(string(kind)).Inc()
		return nil
	}

	msg, err := Render(kind, data)
	if err != nil {
		return err
	}

	if err := d.mailer.Send(ctx, msg.To, msg.Subject, msg.HTML); err != nil {
		d.log.Warn("Failed to send notification",
			"kind", string(kind),
			"user_id", data.User.ID,
			"error", err,
		)
		metrics.NotificationsFailed.WithLabelValues(string(kind)).Inc()
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	metrics.NotificationsSent.WithLabelValues(string(kind)).Inc()
	return nil
}
