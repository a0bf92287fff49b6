package workshop

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	pkgdb "github.com/sightlinehq/optishop-backend/pkg/db"
	"github.com/sightlinehq/optishop-backend/pkg/db/models"
	"github.com/sightlinehq/optishop-backend/pkg/enums"
	pkgerrors "github.com/sightlinehq/optishop-backend/pkg/errors"
	"github.com/sightlinehq/optishop-backend/pkg/logger"
)

// Coordinator owns the job work side table: vendor assignment, damage
// replacement, receipt, and the fitting gate.
//
// Its multi-step operations are deliberately not transactional. A failure at
// step N leaves steps 1..N-1 applied; the order patch at the end always uses
// whichever new ids were actually obtained. The one-active-job-work-per-side
// invariant holds under a single writer; concurrent batches touching the same
// order can race.
type Coordinator interface {
	FittingGate
	AssignVendor(ctx context.Context, input AssignVendorInput) (*models.JobWork, error)
	AssignVendorBatch(ctx context.Context, input BatchAssignInput) Result
	MarkDamaged(ctx context.Context, input MarkDamagedInput) (*DamageResult, error)
	MarkDamagedBatch(ctx context.Context, input BatchDamageInput) Result
	MarkReceived(ctx context.Context, jobWorkID uuid.UUID) error
}

// activeSlotIndex is the partial unique index enforcing one active job work
// per (order, side).
const activeSlotIndex = "idx_job_works_active_slot"

type coordinator struct {
	repo   Repository
	runner Runner
	logg   *logger.Logger
}

// NewCoordinator builds the job work coordinator.
func NewCoordinator(repo Repository, runner Runner, logg *logger.Logger) (Coordinator, error) {
	if repo == nil {
		return nil, fmt.Errorf("workshop repository required")
	}
	if runner == nil {
		return nil, fmt.Errorf("batch runner required")
	}
	return &coordinator{repo: repo, runner: runner, logg: logg}, nil
}

// AssignVendor cancels the current job work for the side (if any), creates a
// fresh pending one for the chosen vendor, then patches the order pointer and
// status in one UPDATE.
func (c *coordinator) AssignVendor(ctx context.Context, input AssignVendorInput) (*models.JobWork, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Side.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid lens side %q", input.Side))
	}
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}

	order, err := c.repo.FindOrder(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	// Step 1: retire the active job work so the new one owns the slot.
	if active := order.CurrentJobWork(input.Side); active.IsActive() {
		rows, err := c.repo.UpdateJobWorkStatus(ctx, active.ID, enums.JobWorkStatusCanceled)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel previous job work")
		}
		if rows == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "previous job work not modified")
		}
	}

	// Step 2: create the replacement. A failure here leaves step 1 applied.
	vendorID := input.VendorID
	jobWork, err := c.repo.CreateJobWork(ctx, &models.JobWork{
		OrderID:     order.ID,
		SaleID:      order.SaleID,
		StoreID:     order.StoreID,
		Side:        input.Side,
		VendorID:    &vendorID,
		Status:      enums.JobWorkStatusPending,
		Lens:        order.Lens,
		PowerAtTime: order.PowerAtTime,
		Note:        input.Note,
	})
	if err != nil {
		if pkgdb.IsUniqueViolation(err, activeSlotIndex) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "another job work already occupies this side")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create job work")
	}

	// Step 3: point the order at the new record. A failure here leaves the
	// job work dangling.
	updates := map[string]any{
		currentJobWorkColumn(input.Side): jobWork.ID,
		"status":                         enums.OrderStatusInLab,
	}
	if input.Note != nil {
		updates["vendor_note"] = *input.Note
	}
	rows, err := c.repo.UpdateOrder(ctx, order.ID, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "patch order job work reference")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not modified")
	}

	return jobWork, nil
}

func (c *coordinator) AssignVendorBatch(ctx context.Context, input BatchAssignInput) Result {
	return c.runner.Run(ctx, "assign-batch", input.Selection, func(ctx context.Context, orderID uuid.UUID) error {
		_, err := c.AssignVendor(ctx, AssignVendorInput{
			OrderID:  orderID,
			Side:     input.Side,
			VendorID: input.VendorID,
			Note:     input.Note,
		})
		return err
	})
}

// MarkDamaged replaces the active job work on each requested side, reusing the
// prior vendor and lens. Sides fail independently; the order is patched once
// at the end with whichever replacement ids were obtained, and not patched at
// all when every side failed.
func (c *coordinator) MarkDamaged(ctx context.Context, input MarkDamagedInput) (*DamageResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	sides := dedupeSides(input.Sides)
	if len(sides) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one side required")
	}
	for _, side := range sides {
		if !side.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid lens side %q", side))
		}
	}

	order, err := c.repo.FindOrder(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	result := &DamageResult{Replacements: make(map[enums.LensSide]uuid.UUID)}
	for _, side := range sides {
		replacement, err := c.replaceDamagedSide(ctx, order, side, input.Note)
		if err != nil {
			result.SideFailures = append(result.SideFailures, SideFailure{Side: side, Err: err})
			continue
		}
		result.Replacements[side] = replacement.ID
	}

	if len(result.SideFailures) > 0 && c.logg != nil {
		orderCtx := c.logg.WithOrderID(ctx, order.ID.String())
		for _, failure := range result.SideFailures {
			logCtx := c.logg.WithField(orderCtx, "side", failure.Side.String())
			c.logg.Warn(logCtx, "damage replacement skipped side: "+failure.Message())
		}
	}

	if !result.Succeeded() {
		var combined error
		for _, failure := range result.SideFailures {
			combined = multierr.Append(combined, failure.Err)
		}
		return result, combined
	}

	updates := map[string]any{"status": enums.OrderStatusInLab}
	for side, id := range result.Replacements {
		updates[currentJobWorkColumn(side)] = id
	}
	if input.Note != nil {
		updates["vendor_note"] = *input.Note
	}
	rows, err := c.repo.UpdateOrder(ctx, order.ID, updates)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "patch order job work references")
	}
	if rows == 0 {
		return result, pkgerrors.New(pkgerrors.CodeNotFound, "order not modified")
	}

	return result, nil
}

// replaceDamagedSide is the per-side unit of MarkDamaged. The vendor check
// runs before any mutating call so a precondition failure leaves no trace.
func (c *coordinator) replaceDamagedSide(ctx context.Context, order *models.Order, side enums.LensSide, note *string) (*models.JobWork, error) {
	active := order.CurrentJobWork(side)
	if !active.IsActive() {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition,
			fmt.Sprintf("no active job work for %s side", side))
	}
	if active.VendorID == nil {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition,
			fmt.Sprintf("no vendor on record for %s side", side))
	}

	rows, err := c.repo.UpdateJobWorkStatus(ctx, active.ID, enums.JobWorkStatusDamaged)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark job work damaged")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job work not modified")
	}

	vendorID := *active.VendorID
	replacement, err := c.repo.CreateJobWork(ctx, &models.JobWork{
		OrderID:     order.ID,
		SaleID:      order.SaleID,
		StoreID:     order.StoreID,
		Side:        side,
		VendorID:    &vendorID,
		Status:      enums.JobWorkStatusPending,
		Lens:        active.Lens,
		PowerAtTime: active.PowerAtTime,
		Note:        note,
	})
	if err != nil {
		// The damaged mark stands; the side reports a failure and keeps
		// its previous reference.
		if pkgdb.IsUniqueViolation(err, activeSlotIndex) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "another job work already occupies this side")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create replacement job work")
	}
	return replacement, nil
}

func (c *coordinator) MarkDamagedBatch(ctx context.Context, input BatchDamageInput) Result {
	return c.runner.Run(ctx, "damage-batch", input.Selection, func(ctx context.Context, orderID uuid.UUID) error {
		_, err := c.MarkDamaged(ctx, MarkDamagedInput{
			OrderID: orderID,
			Sides:   input.Sides,
			Note:    input.Note,
		})
		return err
	})
}

// MarkReceived records that the vendor shipped the job work back.
func (c *coordinator) MarkReceived(ctx context.Context, jobWorkID uuid.UUID) error {
	if jobWorkID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "job work id required")
	}

	jobWork, err := c.repo.FindJobWork(ctx, jobWorkID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "job work not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job work")
	}
	if jobWork.Status != enums.JobWorkStatusPending {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("job work is %s, only pending work can be received", jobWork.Status))
	}

	rows, err := c.repo.UpdateJobWorkStatus(ctx, jobWorkID, enums.JobWorkStatusReceived)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update job work status")
	}
	if rows == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "job work not modified")
	}
	return nil
}

// CanSendForFitting reads the live job work rows; cached order flags are
// never consulted.
func (c *coordinator) CanSendForFitting(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if orderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := c.repo.FindOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	left := order.CurrentLeftJobWork
	right := order.CurrentRightJobWork
	if left == nil || right == nil {
		return false, nil
	}
	return left.Status == enums.JobWorkStatusReceived && right.Status == enums.JobWorkStatusReceived, nil
}

func currentJobWorkColumn(side enums.LensSide) string {
	if side == enums.LensSideLeft {
		return "current_left_job_work_id"
	}
	return "current_right_job_work_id"
}

func dedupeSides(sides []enums.LensSide) []enums.LensSide {
	seen := make(map[enums.LensSide]struct{}, len(sides))
	kept := make([]enums.LensSide, 0, len(sides))
	for _, side := range sides {
		if _, dup := seen[side]; dup {
			continue
		}
		seen[side] = struct{}{}
		kept = append(kept, side)
	}
	return kept
}
