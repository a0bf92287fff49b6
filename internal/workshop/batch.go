package workshop

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	pkgerrors "github.com/sightlinehq/optishop-backend/pkg/errors"
	"github.com/sightlinehq/optishop-backend/pkg/logger"
	"github.com/sightlinehq/optishop-backend/pkg/metrics"
)

// Selection is an order-preserving, de-duplicated set of order ids chosen for
// a batch operation. It is a value object; callers cannot mutate it after
// construction.
type Selection struct {
	ids []uuid.UUID
}

// NewSelection builds a selection, dropping nil ids and duplicates while
// keeping first-seen order.
func NewSelection(ids ...uuid.UUID) Selection {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	kept := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, id)
	}
	return Selection{ids: kept}
}

// IDs returns a copy of the selected order ids.
func (s Selection) IDs() []uuid.UUID {
	out := make([]uuid.UUID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of selected orders.
func (s Selection) Len() int {
	return len(s.ids)
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return len(s.ids) == 0
}

// Failure records one order that could not be processed in a batch.
type Failure struct {
	OrderID uuid.UUID `json:"order_id"`
	Message string    `json:"message"`
}

// Result aggregates the outcome of a batch run.
type Result struct {
	SuccessCount int       `json:"success_count"`
	Failures     []Failure `json:"failures"`
}

// FailureCount returns the number of failed orders.
func (r Result) FailureCount() int {
	return len(r.Failures)
}

// FirstFailureMessage returns the message of the earliest failure, or "".
func (r Result) FirstFailureMessage() string {
	if len(r.Failures) == 0 {
		return ""
	}
	return r.Failures[0].Message
}

// Err collapses all failures into one error for logging, nil when clean.
func (r Result) Err() error {
	var combined error
	for _, f := range r.Failures {
		combined = multierr.Append(combined, fmt.Errorf("order %s: %s", f.OrderID, f.Message))
	}
	return combined
}

// Operation is one unit of batch work applied to a single order.
type Operation func(ctx context.Context, orderID uuid.UUID) error

// Runner applies an operation across a selection of orders, sequentially,
// never failing fast.
type Runner interface {
	Run(ctx context.Context, name string, selection Selection, op Operation) Result
}

type runner struct {
	logg    *logger.Logger
	metrics *metrics.WorkshopMetrics
}

// NewRunner builds the sequential batch runner. Both dependencies are
// optional.
func NewRunner(logg *logger.Logger, m *metrics.WorkshopMetrics) Runner {
	return &runner{logg: logg, metrics: m}
}

func (r *runner) Run(ctx context.Context, name string, selection Selection, op Operation) Result {
	start := time.Now()
	result := Result{}

	ids := selection.IDs()
	for i, orderID := range ids {
		if ctxErr := ctx.Err(); ctxErr != nil {
			for _, remaining := range ids[i:] {
				result.Failures = append(result.Failures, Failure{
					OrderID: remaining,
					Message: ctxErr.Error(),
				})
				r.metrics.IncBatchFailed(name)
			}
			break
		}

		if err := r.runOne(ctx, orderID, op); err != nil {
			result.Failures = append(result.Failures, Failure{
				OrderID: orderID,
				Message: failureMessage(err),
			})
			r.metrics.IncBatchFailed(name)
			continue
		}
		result.SuccessCount++
		r.metrics.IncBatchSucceeded(name)
	}

	r.metrics.ObserveBatchDuration(name, time.Since(start))
	if r.logg != nil {
		ctx = r.logg.WithFields(ctx, map[string]any{
			"operation": name,
			"selected":  selection.Len(),
			"succeeded": result.SuccessCount,
			"failed":    result.FailureCount(),
		})
		if err := result.Err(); err != nil {
			r.logg.Warn(ctx, "batch completed with failures")
		} else {
			r.logg.Info(ctx, "batch completed")
		}
	}
	return result
}

// runOne shields the loop from panics inside an operation; a panicking order
// becomes a failure entry like any other.
func (r *runner) runOne(ctx context.Context, orderID uuid.UUID, op Operation) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("panic: %v", rec))
		}
	}()
	return op(ctx, orderID)
}

func failureMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Message()
	}
	return err.Error()
}
