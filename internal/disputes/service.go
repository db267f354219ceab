package disputes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grandmarche/backend/internal/orders"
	"github.com/grandmarche/backend/pkg/db/models"
	dbtypes "github.com/grandmarche/backend/pkg/db/types"
	"github.com/grandmarche/backend/pkg/enums"
	pkgerrors "github.com/grandmarche/backend/pkg/errors"
	"github.com/grandmarche/backend/pkg/outbox"
	"github.com/grandmarche/backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// orderTransitioner is the slice of the order service disputes drive. The
// transaction-scoped form lets dispute writes and the order's status change
// commit or roll back together.
type orderTransitioner interface {
	TransitionTx(ctx context.Context, tx *gorm.DB, input orders.TransitionInput) (*models.Order, error)
}

// OpenInput creates a dispute against an order.
type OpenInput struct {
	OrderShortCode     string
	Type               enums.DisputeType
	Description        string
	AffectedProductIDs []uuid.UUID
	PhotoReference     *string
}

// ResolveInput records the single accept/reject decision.
type ResolveInput struct {
	DisputeID uuid.UUID
	Decision  enums.DisputeDecision
	Note      *string
}

// Service is the dispute and return resolution engine.
type Service interface {
	Open(ctx context.Context, input OpenInput) (*models.Dispute, error)
	Resolve(ctx context.Context, input ResolveInput) (*models.Dispute, error)
	Get(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error)
	List(ctx context.Context, status *enums.DisputeStatus) ([]models.Dispute, error)
}

type service struct {
	repo      Repository
	orderRepo orders.Repository
	ordersSvc orderTransitioner
	tx        txRunner
	outbox    outboxPublisher
}

// NewService builds the dispute service.
func NewService(repo Repository, orderRepo orders.Repository, ordersSvc orderTransitioner, tx txRunner, outboxSvc outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("disputes repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if ordersSvc == nil {
		return nil, fmt.Errorf("order transitioner required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:      repo,
		orderRepo: orderRepo,
		ordersSvc: ordersSvc,
		tx:        tx,
		outbox:    outboxSvc,
	}, nil
}

// Open records the dispute and forces the order into RETURN_REQUESTED (the
// lifecycle table still applies) in one transaction, so a failed insert rolls
// the status change back and the request can simply be retried.
func (s *service) Open(ctx context.Context, input OpenInput) (*models.Dispute, error) {
	if strings.TrimSpace(input.OrderShortCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order short code required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid dispute type")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description required")
	}

	order, err := s.orderRepo.FindByShortCode(ctx, input.OrderShortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	dispute := &models.Dispute{
		OrderShortCode:     order.ShortCode,
		PartnerID:          order.AssignedPartnerID,
		Type:               input.Type,
		Description:        input.Description,
		Status:             enums.DisputeStatusOpen,
		AffectedProductIDs: dbtypes.UUIDArray(input.AffectedProductIDs),
		PhotoReference:     input.PhotoReference,
	}

	note := "return requested: " + input.Description
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.ordersSvc.TransitionTx(ctx, tx, orders.TransitionInput{
			OrderID: order.ID,
			Status:  enums.OrderStatusReturnRequested,
			Note:    &note,
		}); err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		created, err := repo.Create(ctx, dispute)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist dispute")
		}
		dispute = created

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDisputeOpened,
			AggregateType: enums.AggregateDispute,
			AggregateID:   dispute.ID,
			Version:       1,
			Data: payloads.DisputeOpenedEvent{
				DisputeID:          dispute.ID,
				OrderShortCode:     dispute.OrderShortCode,
				Type:               dispute.Type,
				PartnerID:          dispute.PartnerID,
				AffectedProductIDs: input.AffectedProductIDs,
				SupplierIDs:        affectedSuppliers(order.Items, input.AffectedProductIDs),
				CustomerPhone:      order.CustomerPhone,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return dispute, nil
}

// Resolve records the single accept/reject fork. A resolved dispute is
// immutable; escalation means opening a new dispute.
func (s *service) Resolve(ctx context.Context, input ResolveInput) (*models.Dispute, error) {
	if input.DisputeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dispute id required")
	}
	if !input.Decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid decision")
	}
	if input.Decision == enums.DisputeDecisionRejected && (input.Note == nil || strings.TrimSpace(*input.Note) == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection requires a reason")
	}

	dispute, err := s.repo.FindByID(ctx, input.DisputeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispute")
	}
	if dispute.Status == enums.DisputeStatusResolved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "dispute already resolved")
	}

	order, err := s.orderRepo.FindByShortCode(ctx, dispute.OrderShortCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	target := enums.OrderStatusReturnAccepted
	if input.Decision == enums.DisputeDecisionRejected {
		target = enums.OrderStatusDelivered
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		updates := map[string]any{
			"decision":    input.Decision,
			"resolved_at": now,
		}
		if input.Note != nil {
			updates["resolution_note"] = *input.Note
		}
		resolved, err := repo.ResolveGuarded(ctx, dispute.ID, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve dispute")
		}
		if !resolved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "dispute already resolved")
		}

		if _, err := s.ordersSvc.TransitionTx(ctx, tx, orders.TransitionInput{
			OrderID: order.ID,
			Status:  target,
			Note:    input.Note,
		}); err != nil {
			return err
		}

		noteValue := ""
		if input.Note != nil {
			noteValue = *input.Note
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDisputeResolved,
			AggregateType: enums.AggregateDispute,
			AggregateID:   dispute.ID,
			Version:       1,
			Data: payloads.DisputeResolvedEvent{
				DisputeID:      dispute.ID,
				OrderShortCode: dispute.OrderShortCode,
				Decision:       input.Decision,
				Note:           noteValue,
				PartnerID:      dispute.PartnerID,
				CustomerPhone:  order.CustomerPhone,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	dispute.Status = enums.DisputeStatusResolved
	decision := input.Decision
	dispute.Decision = &decision
	dispute.ResolutionNote = input.Note
	dispute.ResolvedAt = &now

	return dispute, nil
}

func (s *service) Get(ctx context.Context, disputeID uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.repo.FindByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dispute not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load dispute")
	}
	return dispute, nil
}

func (s *service) List(ctx context.Context, status *enums.DisputeStatus) ([]models.Dispute, error) {
	disputes, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list disputes")
	}
	return disputes, nil
}

// affectedSuppliers maps the disputed products back to the suppliers owning
// them, using the order's line item snapshots.
func affectedSuppliers(items []models.OrderItem, productIDs []uuid.UUID) []uuid.UUID {
	affected := make(map[uuid.UUID]struct{}, len(productIDs))
	for _, id := range productIDs {
		affected[id] = struct{}{}
	}
	var out []uuid.UUID
	for _, item := range items {
		if item.SupplierID == nil {
			continue
		}
		if _, ok := affected[item.ProductID]; !ok {
			continue
		}
		out = append(out, *item.SupplierID)
	}
	return out
}
