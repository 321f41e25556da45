package claims

import (
	"context"
	"fmt"

	"github.com/turtacn/ClaimBridge/internal/domain/claim"
	"github.com/turtacn/ClaimBridge/internal/domain/item"
	"github.com/turtacn/ClaimBridge/internal/domain/message"
	"github.com/turtacn/ClaimBridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClaimBridge/pkg/errors"
)

// DispatchType keys the message template used for a lifecycle event.
type DispatchType string

const (
	DispatchApprove            DispatchType = "approve"
	DispatchReject             DispatchType = "reject"
	DispatchPaymentReminder    DispatchType = "payment_reminder"
	DispatchPaymentReceived    DispatchType = "payment_received"
	DispatchVerificationNeeded DispatchType = "verification_needed"
	DispatchDeliveryScheduled  DispatchType = "delivery_scheduled"
)

// DispatcherConfig carries the admin identity used as message sender and the
// fixed payment channel details interpolated into approval messages.
type DispatcherConfig struct {
	AdminID           string `mapstructure:"admin_id"`
	MobileMoneyNumber string `mapstructure:"mobile_money_number"`
	BankAccount       string `mapstructure:"bank_account"`
}

// EventPublisher emits lifecycle events to the message broker.  Publishing is
// best effort; dispatch failures never roll back a persisted transition.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// Dispatcher composes templated messages for lifecycle events and persists
// them.  One message record per call; the caller retries on failure.
type Dispatcher interface {
	Dispatch(ctx context.Context, dt DispatchType, c *claim.Claim, it *item.Item) (*message.Message, error)
	NotifyNewClaim(ctx context.Context, c *claim.Claim, it *item.Item) (*message.Notification, error)
}

type dispatcher struct {
	cfg      DispatcherConfig
	messages message.Repository
	notifs   message.NotificationRepository
	logger   logging.Logger
}

// NewDispatcher builds the templated message dispatcher.
func NewDispatcher(cfg DispatcherConfig, messages message.Repository, notifs message.NotificationRepository, logger logging.Logger) Dispatcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &dispatcher{cfg: cfg, messages: messages, notifs: notifs, logger: logger}
}

func (d *dispatcher) render(dt DispatchType, c *claim.Claim, it *item.Item) string {
	switch dt {
	case DispatchApprove:
		return fmt.Sprintf(
			"Your claim %s for %q has been approved. The delivery fee is %d. "+
				"Pay via mobile money %s or bank account %s to schedule delivery.",
			c.ID, it.Name, c.DeliveryFee, d.cfg.MobileMoneyNumber, d.cfg.BankAccount)
	case DispatchReject:
		return fmt.Sprintf(
			"Your claim %s for %q was not approved. You may submit a new claim with additional proof of ownership.",
			c.ID, it.Name)
	case DispatchPaymentReminder:
		return fmt.Sprintf(
			"Reminder: the delivery fee for your approved claim %s on %q is still outstanding.",
			c.ID, it.Name)
	case DispatchPaymentReceived:
		return fmt.Sprintf(
			"Payment received for claim %s on %q. Delivery will be arranged shortly.",
			c.ID, it.Name)
	case DispatchVerificationNeeded:
		return fmt.Sprintf(
			"Your claim %s for %q needs additional verification. Please reply with more identifying details.",
			c.ID, it.Name)
	case DispatchDeliveryScheduled:
		return fmt.Sprintf(
			"Delivery for your claim %s on %q has been scheduled. Keep your contact line reachable.",
			c.ID, it.Name)
	default:
		return fmt.Sprintf("There is an update on your claim %s for %q.", c.ID, it.Name)
	}
}

func (d *dispatcher) Dispatch(ctx context.Context, dt DispatchType, c *claim.Claim, it *item.Item) (*message.Message, error) {
	m, err := message.NewMessage(d.render(dt, c, it), d.cfg.AdminID, message.RoleAdmin, c.ClaimantID, message.RoleUser)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDispatchFailed, "failed to compose message")
	}
	m.WithReferences(string(dt), c.ID, c.ItemID)

	if err := d.messages.Create(ctx, m); err != nil {
		d.logger.Error("failed to persist dispatched message",
			logging.String("claim_id", c.ID),
			logging.String("type", string(dt)),
			logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDispatchFailed, "failed to persist message")
	}
	return m, nil
}

func (d *dispatcher) NotifyNewClaim(ctx context.Context, c *claim.Claim, it *item.Item) (*message.Notification, error) {
	content := fmt.Sprintf("New claim %s submitted on item %q by user %s.", c.ID, it.Name, c.ClaimantID)
	n, err := message.NewNotification("new_claim", content, c.ID, c.ItemID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDispatchFailed, "failed to compose notification")
	}
	if err := d.notifs.Create(ctx, n); err != nil {
		d.logger.Error("failed to persist admin notification",
			logging.String("claim_id", c.ID),
			logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDispatchFailed, "failed to persist notification")
	}
	return n, nil
}
