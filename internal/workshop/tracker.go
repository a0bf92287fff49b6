package workshop

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sightlinehq/optishop-backend/pkg/enums"
	pkgerrors "github.com/sightlinehq/optishop-backend/pkg/errors"
	"github.com/sightlinehq/optishop-backend/pkg/metrics"
)

// StatusOptions tunes a status change.
type StatusOptions struct {
	// Force bypasses the transition table and the fitting gate. Kept for
	// back-office overrides.
	Force bool
}

// StatusTracker validates and applies order status transitions.
type StatusTracker interface {
	SetStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, opts StatusOptions) error
	Revert(ctx context.Context, orderID uuid.UUID) error
	SetStatusBatch(ctx context.Context, selection Selection, target enums.OrderStatus, opts StatusOptions) Result
}

// forwardTransitions is the allowed forward edge set. The chain is linear;
// returned hangs off delivered as a side channel.
var forwardTransitions = map[enums.OrderStatus]map[enums.OrderStatus]bool{
	enums.OrderStatusPending:   {enums.OrderStatusInLab: true},
	enums.OrderStatusInLab:     {enums.OrderStatusInFitting: true},
	enums.OrderStatusInFitting: {enums.OrderStatusReady: true},
	enums.OrderStatusReady:     {enums.OrderStatusDelivered: true},
	enums.OrderStatusDelivered: {enums.OrderStatusReturned: true},
}

// revertTargets maps each status to the status exactly one step back.
var revertTargets = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusInLab:     enums.OrderStatusPending,
	enums.OrderStatusInFitting: enums.OrderStatusInLab,
	enums.OrderStatusReady:     enums.OrderStatusInFitting,
	enums.OrderStatusDelivered: enums.OrderStatusReady,
}

type statusTracker struct {
	repo    Repository
	gate    FittingGate
	runner  Runner
	metrics *metrics.WorkshopMetrics
}

// FittingGate answers whether an order may move into fitting.
type FittingGate interface {
	CanSendForFitting(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// NewStatusTracker builds the order status tracker.
func NewStatusTracker(repo Repository, gate FittingGate, runner Runner, m *metrics.WorkshopMetrics) (StatusTracker, error) {
	if repo == nil {
		return nil, fmt.Errorf("workshop repository required")
	}
	if gate == nil {
		return nil, fmt.Errorf("fitting gate required")
	}
	if runner == nil {
		return nil, fmt.Errorf("batch runner required")
	}
	return &statusTracker{repo: repo, gate: gate, runner: runner, metrics: m}, nil
}

func (s *statusTracker) SetStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, opts StatusOptions) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", target))
	}

	current := enums.OrderStatus("")
	if !opts.Force {
		order, err := s.repo.FindOrder(ctx, orderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		current = order.Status

		if !forwardTransitions[order.Status][target] {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
		}

		if target == enums.OrderStatusInFitting {
			eligible, err := s.gate.CanSendForFitting(ctx, orderID)
			if err != nil {
				return err
			}
			if !eligible {
				return pkgerrors.New(pkgerrors.CodePrecondition,
					"both job works must be received before fitting")
			}
		}
	}

	rows, err := s.repo.UpdateOrderStatus(ctx, orderID, target)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not modified")
	}

	s.metrics.IncTransition(current.String(), target.String())
	return nil
}

// Revert moves an order exactly one step back along the chain.
func (s *statusTracker) Revert(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	target, ok := revertTargets[order.Status]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot revert order from %s", order.Status))
	}

	rows, err := s.repo.UpdateOrderStatus(ctx, orderID, target)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not modified")
	}

	s.metrics.IncTransition(order.Status.String(), target.String())
	return nil
}

func (s *statusTracker) SetStatusBatch(ctx context.Context, selection Selection, target enums.OrderStatus, opts StatusOptions) Result {
	return s.runner.Run(ctx, "status-batch", selection, func(ctx context.Context, orderID uuid.UUID) error {
		return s.SetStatus(ctx, orderID, target, opts)
	})
}
