package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/pkg/db/models"
	"github.com/grandmarche/backend/pkg/enums"
	"github.com/grandmarche/backend/pkg/metrics"
	"github.com/grandmarche/backend/pkg/outbox/payloads"
)

// userDirectory is the slice of the users repo the fan-out needs to turn
// event payloads into recipient identities.
type userDirectory interface {
	FindOperator(ctx context.Context) (*models.User, error)
	FindCustomerByPhone(ctx context.Context, phone string) (*models.User, error)
}

type notificationCreator interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Fanout expands one domain event into a notification per affected party.
// Delivery is per-recipient best effort: a failed insert for one recipient
// does not block the others, and the aggregated error drives the redelivery.
type Fanout struct {
	repo    notificationCreator
	users   userDirectory
	metrics *metrics.PipelineMetrics
}

// NewFanout builds the recipient fan-out engine.
func NewFanout(repo notificationCreator, users userDirectory, pipelineMetrics *metrics.PipelineMetrics) (*Fanout, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	return &Fanout{repo: repo, users: users, metrics: pipelineMetrics}, nil
}

// customerRecipients lists the customer's delivery channels: always the guest
// identity scoped to the order, plus the registered account when a customer
// signed up with the same phone number. Both channels get the same message so
// the order stays reachable before and after signup.
func (f *Fanout) customerRecipients(ctx context.Context, phone, shortCode string) ([]string, error) {
	recipients := []string{GuestRecipient(shortCode)}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return recipients, nil
	}
	user, err := f.users.FindCustomerByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return recipients, nil
		}
		return nil, err
	}
	return append(recipients, user.ID.String()), nil
}

func (f *Fanout) operatorRecipient(ctx context.Context) (string, error) {
	operator, err := f.users.FindOperator(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return operator.ID.String(), nil
}

func (f *Fanout) deliver(ctx context.Context, notifications []models.Notification) error {
	var errs error
	for i := range notifications {
		row := notifications[i]
		if err := f.repo.Create(ctx, &row); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("notify %s: %w", row.RecipientID, err))
			continue
		}
		f.metrics.IncNotification(string(row.Category))
	}
	return errs
}

// OrderCreated notifies the operator, the assigned partner, every distinct
// supplier with items in the order, and the customer.
func (f *Fanout) OrderCreated(ctx context.Context, event payloads.OrderCreatedEvent) error {
	link := orderLink(event.ShortCode)
	title := "New order " + event.ShortCode
	staffMessage := fmt.Sprintf("Order %s was placed for %d FCFA (%s).", event.ShortCode, event.TotalAmount, event.DeliveryMethod)

	var notifications []models.Notification

	operator, err := f.operatorRecipient(ctx)
	if err != nil {
		return err
	}
	if operator != "" {
		notifications = append(notifications, models.Notification{
			RecipientID: operator,
			Category:    enums.NotificationCategoryOrder,
			Title:       title,
			Message:     staffMessage,
			Link:        &link,
		})
	}
	if event.PartnerID != nil {
		notifications = append(notifications, models.Notification{
			RecipientID: event.PartnerID.String(),
			Category:    enums.NotificationCategoryOrder,
			Title:       title,
			Message:     staffMessage,
			Link:        &link,
		})
	}
	for _, supplierID := range dedupe(event.SupplierIDs) {
		notifications = append(notifications, models.Notification{
			RecipientID: supplierID.String(),
			Category:    enums.NotificationCategoryOrder,
			Title:       title,
			Message:     fmt.Sprintf("Order %s includes items from your catalogue.", event.ShortCode),
			Link:        &link,
		})
	}

	customers, err := f.customerRecipients(ctx, event.CustomerPhone, event.ShortCode)
	if err != nil {
		return err
	}
	for _, recipient := range customers {
		notifications = append(notifications, models.Notification{
			RecipientID: recipient,
			Category:    enums.NotificationCategoryOrder,
			Title:       "Order received",
			Message:     fmt.Sprintf("Your order %s has been received. Keep this code to track it.", event.ShortCode),
			Link:        &link,
		})
	}

	return f.deliver(ctx, notifications)
}

// StatusChanged tells the customer where the order stands and keeps the
// operator, the assigned partner and the suppliers in the loop.
func (f *Fanout) StatusChanged(ctx context.Context, event payloads.OrderStatusChangedEvent) error {
	link := orderLink(event.ShortCode)
	title := "Order " + event.ShortCode + " updated"
	staffMessage := fmt.Sprintf("Order %s moved from %s to %s.", event.ShortCode, event.PreviousStatus, event.NewStatus)

	var notifications []models.Notification

	operator, err := f.operatorRecipient(ctx)
	if err != nil {
		return err
	}
	if operator != "" {
		notifications = append(notifications, models.Notification{
			RecipientID: operator,
			Category:    enums.NotificationCategoryStatus,
			Title:       title,
			Message:     staffMessage,
			Link:        &link,
		})
	}
	if event.PartnerID != nil {
		notifications = append(notifications, models.Notification{
			RecipientID: event.PartnerID.String(),
			Category:    enums.NotificationCategoryStatus,
			Title:       title,
			Message:     staffMessage,
			Link:        &link,
		})
	}
	for _, supplierID := range dedupe(event.SupplierIDs) {
		notifications = append(notifications, models.Notification{
			RecipientID: supplierID.String(),
			Category:    enums.NotificationCategoryStatus,
			Title:       title,
			Message:     staffMessage,
			Link:        &link,
		})
	}

	customers, err := f.customerRecipients(ctx, event.CustomerPhone, event.ShortCode)
	if err != nil {
		return err
	}
	for _, recipient := range customers {
		notifications = append(notifications, models.Notification{
			RecipientID: recipient,
			Category:    enums.NotificationCategoryStatus,
			Title:       title,
			Message:     statusMessage(event),
			Link:        &link,
		})
	}

	return f.deliver(ctx, notifications)
}

// DisputeOpened alerts the operator, the handling partner and the suppliers
// whose products are disputed.
func (f *Fanout) DisputeOpened(ctx context.Context, event payloads.DisputeOpenedEvent) error {
	link := orderLink(event.OrderShortCode)
	message := fmt.Sprintf("A %s dispute was opened on order %s.", event.Type, event.OrderShortCode)

	var notifications []models.Notification

	operator, err := f.operatorRecipient(ctx)
	if err != nil {
		return err
	}
	if operator != "" {
		notifications = append(notifications, models.Notification{
			RecipientID: operator,
			Category:    enums.NotificationCategoryAlert,
			Title:       "Dispute opened",
			Message:     message,
			Link:        &link,
		})
	}
	if event.PartnerID != nil {
		notifications = append(notifications, models.Notification{
			RecipientID: event.PartnerID.String(),
			Category:    enums.NotificationCategoryAlert,
			Title:       "Dispute opened",
			Message:     message,
			Link:        &link,
		})
	}
	for _, supplierID := range dedupe(event.SupplierIDs) {
		notifications = append(notifications, models.Notification{
			RecipientID: supplierID.String(),
			Category:    enums.NotificationCategoryAlert,
			Title:       "Dispute opened",
			Message:     fmt.Sprintf("The %s dispute on order %s involves your products.", event.Type, event.OrderShortCode),
			Link:        &link,
		})
	}

	return f.deliver(ctx, notifications)
}

// DisputeResolved tells the customer the outcome of the review.
func (f *Fanout) DisputeResolved(ctx context.Context, event payloads.DisputeResolvedEvent) error {
	link := orderLink(event.OrderShortCode)

	message := fmt.Sprintf("Your return request on order %s was accepted.", event.OrderShortCode)
	if event.Decision == enums.DisputeDecisionRejected {
		message = fmt.Sprintf("Your return request on order %s was declined.", event.OrderShortCode)
		if event.Note != "" {
			message += " Reason: " + event.Note
		}
	}

	var notifications []models.Notification

	customers, err := f.customerRecipients(ctx, event.CustomerPhone, event.OrderShortCode)
	if err != nil {
		return err
	}
	for _, recipient := range customers {
		notifications = append(notifications, models.Notification{
			RecipientID: recipient,
			Category:    enums.NotificationCategoryInfo,
			Title:       "Return request reviewed",
			Message:     message,
			Link:        &link,
		})
	}

	if event.PartnerID != nil {
		notifications = append(notifications, models.Notification{
			RecipientID: event.PartnerID.String(),
			Category:    enums.NotificationCategoryInfo,
			Title:       "Dispute resolved",
			Message:     fmt.Sprintf("Dispute on order %s closed with decision %s.", event.OrderShortCode, event.Decision),
			Link:        &link,
		})
	}

	return f.deliver(ctx, notifications)
}

// RefundIssued hands the customer their voucher code.
func (f *Fanout) RefundIssued(ctx context.Context, event payloads.RefundIssuedEvent) error {
	link := orderLink(event.OrderShortCode)

	customers, err := f.customerRecipients(ctx, event.CustomerPhone, event.OrderShortCode)
	if err != nil {
		return err
	}

	var notifications []models.Notification
	for _, recipient := range customers {
		notifications = append(notifications, models.Notification{
			RecipientID: recipient,
			Category:    enums.NotificationCategoryCoupon,
			Title:       "Refund voucher issued",
			Message:     fmt.Sprintf("Order %s was refunded. Use voucher %s worth %d FCFA on your next order.", event.OrderShortCode, event.VoucherCode, event.VoucherValue),
			Link:        &link,
		})
	}

	operator, err := f.operatorRecipient(ctx)
	if err != nil {
		return err
	}
	if operator != "" {
		notifications = append(notifications, models.Notification{
			RecipientID: operator,
			Category:    enums.NotificationCategoryCoupon,
			Title:       "Refund voucher issued",
			Message:     fmt.Sprintf("Voucher %s (%d FCFA) issued for order %s.", event.VoucherCode, event.VoucherValue, event.OrderShortCode),
			Link:        &link,
		})
	}

	return f.deliver(ctx, notifications)
}

// LowStock warns the owning supplier and the operator.
func (f *Fanout) LowStock(ctx context.Context, event payloads.LowStockEvent) error {
	message := fmt.Sprintf("%s is down to %d units (threshold %d).", event.ProductName, event.Remaining, event.Threshold)

	var notifications []models.Notification

	if event.SupplierID != nil {
		notifications = append(notifications, models.Notification{
			RecipientID: event.SupplierID.String(),
			Category:    enums.NotificationCategoryAlert,
			Title:       "Low stock",
			Message:     message,
		})
	}

	operator, err := f.operatorRecipient(ctx)
	if err != nil {
		return err
	}
	if operator != "" {
		notifications = append(notifications, models.Notification{
			RecipientID: operator,
			Category:    enums.NotificationCategoryAlert,
			Title:       "Low stock",
			Message:     message,
		})
	}

	return f.deliver(ctx, notifications)
}

func orderLink(shortCode string) string {
	return "/orders/" + shortCode
}

func statusMessage(event payloads.OrderStatusChangedEvent) string {
	switch event.NewStatus {
	case enums.OrderStatusProcessing:
		return fmt.Sprintf("Order %s is being prepared.", event.ShortCode)
	case enums.OrderStatusInTransit:
		return fmt.Sprintf("Order %s is on its way.", event.ShortCode)
	case enums.OrderStatusOutForDelivery:
		return fmt.Sprintf("Order %s is out for delivery.", event.ShortCode)
	case enums.OrderStatusReady:
		return fmt.Sprintf("Order %s is ready for collection.", event.ShortCode)
	case enums.OrderStatusDelivered:
		return fmt.Sprintf("Order %s has been delivered.", event.ShortCode)
	case enums.OrderStatusCancelled:
		message := fmt.Sprintf("Order %s was cancelled.", event.ShortCode)
		if event.Note != "" {
			message += " " + event.Note
		}
		return message
	case enums.OrderStatusReturnRequested:
		return fmt.Sprintf("Return request on order %s is under review.", event.ShortCode)
	case enums.OrderStatusReturnAccepted:
		return fmt.Sprintf("Return on order %s was accepted.", event.ShortCode)
	case enums.OrderStatusReturnProcessing:
		return fmt.Sprintf("Return on order %s is being processed.", event.ShortCode)
	case enums.OrderStatusRefunded:
		return fmt.Sprintf("Order %s has been refunded.", event.ShortCode)
	default:
		return fmt.Sprintf("Order %s moved to %s.", event.ShortCode, event.NewStatus)
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
