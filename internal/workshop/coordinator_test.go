package workshop

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sightlinehq/optishop-backend/pkg/db/models"
	"github.com/sightlinehq/optishop-backend/pkg/enums"
	pkgerrors "github.com/sightlinehq/optishop-backend/pkg/errors"
	"github.com/sightlinehq/optishop-backend/pkg/logger"
)

func newCoordinatorForTest(t *testing.T, repo *fakeRepo) Coordinator {
	t.Helper()

	coord, err := NewCoordinator(repo, NewRunner(nil, nil), nil)
	if err != nil {
		t.Fatalf("build coordinator: %v", err)
	}
	return coord
}

func orderWithSide(repo *fakeRepo, side enums.LensSide, jobWorkStatus enums.JobWorkStatus, vendorID *uuid.UUID) (*models.Order, *models.JobWork) {
	order := repo.addOrder(&models.Order{Status: enums.OrderStatusInLab})
	jobWork := repo.addJobWork(&models.JobWork{
		OrderID:  order.ID,
		SaleID:   order.SaleID,
		StoreID:  order.StoreID,
		Side:     side,
		VendorID: vendorID,
		Status:   jobWorkStatus,
	})
	if side == enums.LensSideLeft {
		order.CurrentLeftJobWorkID = &jobWork.ID
	} else {
		order.CurrentRightJobWorkID = &jobWork.ID
	}
	return order, jobWork
}

func activeJobWorksForSide(repo *fakeRepo, orderID uuid.UUID, side enums.LensSide) []*models.JobWork {
	var active []*models.JobWork
	for _, jw := range repo.jobWorks {
		if jw.OrderID == orderID && jw.Side == side && jw.Status.IsActive() {
			active = append(active, jw)
		}
	}
	return active
}

func TestAssignVendorReplacesActiveJobWork(t *testing.T) {
	repo := newFakeRepo()
	coord := newCoordinatorForTest(t, repo)
	v1 := uuid.New()
	order, jw1 := orderWithSide(repo, enums.LensSideRight, enums.JobWorkStatusPending, &v1)
	order.Status = enums.OrderStatusPending

	v2 := uuid.New()
	jw2, err := coord.AssignVendor(context.Background(), AssignVendorInput{
		OrderID:  order.ID,
		Side:     enums.LensSideRight,
		VendorID: v2,
	})
	if err != nil {
		t.Fatalf("assign vendor: %v", err)
	}

	if repo.jobWorks[jw1.ID].Status != enums.JobWorkStatusCanceled {
		t.Fatalf("previous job work must be canceled, got %s", repo.jobWorks[jw1.ID].Status)
	}
	stored := repo.jobWorks[jw2.ID]
	if stored.Status != enums.JobWorkStatusPending || stored.VendorID == nil || *stored.VendorID != v2 {
		t.Fatalf("replacement must be pending for the new vendor: %+v", stored)
	}
	if order.CurrentRightJobWorkID == nil || *order.CurrentRightJobWorkID != jw2.ID {
		t.Fatalf("order must point at the new job work")
	}
	if order.Status != enums.OrderStatusInLab {
		t.Fatalf("order must move to in_lab, got %s", order.Status)
	}
}

func TestAssignVendorTwiceKeepsOneActive(t *testing.T) {
	repo := newFakeRepo()
	coord := newCoordinatorForTest(t, repo)
	vendorID := uuid.New()
	order, _ := orderWithSide(repo, enums.LensSideLeft, enums.JobWorkStatusPending, &vendorID)

	for i := 0; i < 2; i++ {
		if _, err := coord.AssignVendor(context.Background(), AssignVendorInput{
			OrderID:  order.ID,
			Side:     enums.LensSideLeft,
			VendorID: vendorID,
		}); err != nil {
			t.Fatalf("assign %d: %v", i, err)
		}
	}

	active := activeJobWorksForSide(repo, order.ID, enums.LensSideLeft)
	if len(active) != 1 {
		t.Fatalf("expected exactly one active job work, got %d", len(active))
	}
	if active[0].Status != enums.JobWorkStatusPending {
		t.Fatalf("active job work must be pending, got %s", active[0].Status)
	}
}

func TestAssignVendorCreateFailureLeavesCancellation(t *testing.T) {
	repo := newFakeRepo()
	coord := newCoordinatorForTest(t, repo)
	vendorID := uuid.New()
	order, jw1 := orderWithSide(repo, enums.LensSideLeft, enums.JobWorkStatusPending, &vendorID)
	repo.createJobWorkErr = errors.New("insert failed")

	_, err := coord.AssignVendor(context.Background(), AssignVendorInput{
		OrderID:  order.ID,
		Side:     enums.LensSideLeft,
		VendorID: vendorID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}

	// No compensation: the cancellation from step 1 stands.
	if repo.jobWorks[jw1.ID].Status != enums.JobWorkStatusCanceled {
		t.Fatalf("step 1 cancellation must not be rolled back, got %s", repo.jobWorks[jw1.ID].Status)
	}
	if *order.CurrentLeftJobWorkID != jw1.ID {
		t.Fatalf("order pointer must be untouched on create failure")
	}
}

func TestAssignVendorMapsSlotUniqueViolationToConflict(t *testing.T) {
	repo := newFakeRepo()
	coord := newCoordinatorForTest(t, repo)
	vendorID := uuid.New()
	order, _ := orderWithSide(repo, enums.LensSideLeft, enums.JobWorkStatusPending, &vendorID)
	repo.createJobWorkErr = &pgconn.PgError{Code: "23505", ConstraintName: "idx_job_works_active_slot"}

	_, err := coord.AssignVendor(context.Background(), AssignVendorInput{
		OrderID:  order.ID,
		Side:     enums.LensSideLeft,
		VendorID: vendorID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT for a concurrent slot claim, got %v", err)
	}
}

func TestMarkDamagedReplacesBothSides(t *testing.T) {
	repo := newFakeRepo()
	coord := newCoordinatorForTest(t, repo)
	vendorID := uuid.New()
	order, left := orderWithSide(repo, enums.LensSideLeft, enums.JobWorkStatusReceived, &vendorID)
	right := repo.addJobWork(&models.JobWork{
		OrderID:  order.ID,
		Side:     enums.LensSideRight,
		VendorID: &vendorID,
		Status:   enums.JobWorkStatusPending,
	})
	order.CurrentRightJobWorkID = &right.ID

	result, err := coord.MarkDamaged(context.Background(), MarkDamagedInput{
		OrderID: order.ID,
		Sides:   []enums.LensSide{enums.LensSideLeft, enums.LensSideRight},
	})
	if err != nil {
		t.Fatalf("mark damaged: %v", err)
	}
	if len(result.Replacements) != 2 || len(result.SideFailures) != 0 {
		t.Fatalf("expected both sides replaced, got %+v", result)
	}

	if repo.jobWorks[left.ID].Status != enums.JobWorkStatusDamaged {
		t.Fatalf("old left job work must be damaged")
	}
	if repo.jobWorks[right.ID].Status != enums.JobWorkStatusDamaged {
		t.Fatalf("old right job work must be damaged")
	}

	newLeft := repo.jobWorks[result.Replacements[enums.LensSideLeft]]
	if newLeft.Status != enums.JobWorkStatusPending || *newLeft.VendorID != vendorID {
		t.Fatalf("replacement must reuse the prior vendor: %+v", newLeft)
	}
	if *order.CurrentLeftJobWorkID != newLeft.ID {
		t.Fatalf("order must point at the left replacement")
	}
	if order.Status != enums.OrderStatusInLab {
		t.Fatalf("order must move to in_lab, got %s", order.Status)
	}
}

func TestMarkDamagedMissingVendorSkipsSide(t *testing.T) {
	repo := newFakeRepo()
	coord := newCoordinatorForTest(t, repo)
	order, jw := orderWithSide(repo, enums.LensSideLeft, enums.JobWorkStatusPending, nil)
	order.Status = enums.OrderStatusReady
	before := len(repo.jobWorks)

	result, err := coord.MarkDamaged(context.Background(), MarkDamagedInput{
		OrderID: order.ID,
		Sides:   []enums.LensSide{enums.LensSideLeft},
	})
	if err == nil {
		t.Fatalf("expected an error when the only side fails")
	}
	if len(result.SideFailures) != 1 || result.SideFailures[0].Side != enums.LensSideLeft {
		t.Fatalf("expected one left side failure, got %+v", result.SideFailures)
	}
	typed := pkgerrors.As(result.SideFailures[0].Err)
	if typed == nil || typed.Code() != pkgerrors.CodePrecondition {
		t.Fatalf("expected PRECONDITION_FAILED, got %v", result.SideFailures[0].Err)
	}

	if len(repo.jobWorks) != before {
		t.Fatalf("no job work may be created on a precondition failure")
	}
	if repo.jobWorks[jw.ID].Status != enums.JobWorkStatusPending {
		t.Fatalf("existing job work must be untouched")
	}
	if order.Status != enums.OrderStatusReady {
		t.Fatalf("order status must be unchanged, got %s", order.Status)
	}
}

func TestMarkDamagedWarnLogsOneSidePerEntry(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: buf})

	repo := newFakeRepo()
	coord, err := NewCoordinator(repo, NewRunner(nil, nil), logg)
	if err != nil {
		t.Fatalf("build coordinator: %v", err)
	}

	// Both sides lack a vendor, so both fail and both get a warning.
	order, _ := orderWithSide(repo, enums.LensSideLeft, enums.JobWorkStatusPending, nil)
	right := repo.addJobWork(&models.JobWork{
		OrderID: order.ID,
		Side:    enums.LensSideRight,
		Status:  enums.JobWorkStatusPending,
	})
	order.CurrentRightJobWorkID = &right.ID

	if _, err := coord.MarkDamaged(context.Background(), MarkDamagedInput{
		OrderID: order.ID,
		Sides:   []enums.LensSide{enums.LensSideLeft, enums.LensSideRight},
	}); err == nil {
		t.Fatalf("expected an error when every side fails")
	}

	warns := 0
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if !strings.Contains(line, "damage replacement skipped side") {
			continue
		}
		warns++
		if got := strings.Count(line, `"side":`); got != 1 {
			t.Fatalf("expected exactly one side key per entry, got %d in %s", got, line)
		}
	}
	if warns != 2 {
		t.Fatalf("expected one warning per failed side, got %d", warns)
	}
}

func TestMarkDamagedPartialSideFailureCommitsTheOther(t *testing.T) {
	repo := newFakeRepo()
	coord := newCoordinatorForTest(t, repo)
	vendorID := uuid.New()
	order, left := orderWithSide(repo, enums.LensSideLeft, enums.JobWorkStatusPending, nil)
	right := repo.addJobWork(&models.JobWork{
		OrderID:  order.ID,
		Side:     enums.LensSideRight,
		VendorID: &vendorID,
		Status:   enums.JobWorkStatusReceived,
	})
	order.CurrentRightJobWorkID = &right.ID

	result, err := coord.MarkDamaged(context.Background(), MarkDamagedInput{
		OrderID: order.ID,
		Sides:   []enums.LensSide{enums.LensSideLeft, enums.LensSideRight},
	})
	if err != nil {
		t.Fatalf("partial side failure must not fail the order: %v", err)
	}
	if len(result.Replacements) != 1 || len(result.SideFailures) != 1 {
		t.Fatalf("expected one replacement and one failure, got %+v", result)
	}

	if *order.CurrentRightJobWorkID != result.Replacements[enums.LensSideRight] {
		t.Fatalf("succeeding side must be committed")
	}
	if *order.CurrentLeftJobWorkID != left.ID {
		t.Fatalf("failed side must keep its previous reference")
	}
	if order.Status != enums.OrderStatusInLab {
		t.Fatalf("order must move to in_lab on partial success, got %s", order.Status)
	}
}

func TestMarkReceivedGatesFitting(t *testing.T) {
	repo := newFakeRepo()
	coord := newCoordinatorForTest(t, repo)
	vendorID := uuid.New()
	order, left := orderWithSide(repo, enums.LensSideLeft, enums.JobWorkStatusPending, &vendorID)
	right := repo.addJobWork(&models.JobWork{
		OrderID:  order.ID,
		Side:     enums.LensSideRight,
		VendorID: &vendorID,
		Status:   enums.JobWorkStatusPending,
	})
	order.CurrentRightJobWorkID = &right.ID

	eligible, err := coord.CanSendForFitting(context.Background(), order.ID)
	if err != nil || eligible {
		t.Fatalf("pending sides must not be eligible: %v %v", eligible, err)
	}

	if err := coord.MarkReceived(context.Background(), left.ID); err != nil {
		t.Fatalf("mark left received: %v", err)
	}
	eligible, err = coord.CanSendForFitting(context.Background(), order.ID)
	if err != nil || eligible {
		t.Fatalf("one received side must not be eligible")
	}

	if err := coord.MarkReceived(context.Background(), right.ID); err != nil {
		t.Fatalf("mark right received: %v", err)
	}
	eligible, err = coord.CanSendForFitting(context.Background(), order.ID)
	if err != nil || !eligible {
		t.Fatalf("both received sides must be eligible: %v %v", eligible, err)
	}

	// Receiving twice is a state conflict.
	err = coord.MarkReceived(context.Background(), right.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT receiving twice, got %v", err)
	}
}

func TestCanSendForFittingRequiresBothSides(t *testing.T) {
	repo := newFakeRepo()
	coord := newCoordinatorForTest(t, repo)
	vendorID := uuid.New()
	order, _ := orderWithSide(repo, enums.LensSideLeft, enums.JobWorkStatusReceived, &vendorID)

	eligible, err := coord.CanSendForFitting(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("can send for fitting: %v", err)
	}
	if eligible {
		t.Fatalf("missing right job work must not be eligible")
	}
}

func TestAtMostOneActiveJobWorkPerSide(t *testing.T) {
	repo := newFakeRepo()
	coord := newCoordinatorForTest(t, repo)
	v1, v2 := uuid.New(), uuid.New()
	order, _ := orderWithSide(repo, enums.LensSideLeft, enums.JobWorkStatusPending, &v1)

	if _, err := coord.AssignVendor(context.Background(), AssignVendorInput{
		OrderID: order.ID, Side: enums.LensSideLeft, VendorID: v2,
	}); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if _, err := coord.AssignVendor(context.Background(), AssignVendorInput{
		OrderID: order.ID, Side: enums.LensSideRight, VendorID: v1,
	}); err != nil {
		t.Fatalf("assign right: %v", err)
	}
	if _, err := coord.MarkDamaged(context.Background(), MarkDamagedInput{
		OrderID: order.ID,
		Sides:   []enums.LensSide{enums.LensSideLeft, enums.LensSideRight},
	}); err != nil {
		t.Fatalf("mark damaged: %v", err)
	}

	for _, side := range []enums.LensSide{enums.LensSideLeft, enums.LensSideRight} {
		active := activeJobWorksForSide(repo, order.ID, side)
		if len(active) != 1 {
			t.Fatalf("expected one active job work for %s, got %d", side, len(active))
		}
	}
}

func TestAssignVendorBatchPartialFailure(t *testing.T) {
	repo := newFakeRepo()
	coord := newCoordinatorForTest(t, repo)
	vendorID := uuid.New()
	good := repo.addOrder(&models.Order{Status: enums.OrderStatusPending})
	missing := uuid.New()

	result := coord.AssignVendorBatch(context.Background(), BatchAssignInput{
		Selection: NewSelection(good.ID, missing),
		Side:      enums.LensSideLeft,
		VendorID:  vendorID,
	})

	if result.SuccessCount != 1 {
		t.Fatalf("expected one success, got %d", result.SuccessCount)
	}
	if len(result.Failures) != 1 || result.Failures[0].OrderID != missing {
		t.Fatalf("expected one failure for the missing order, got %+v", result.Failures)
	}
	if good.CurrentLeftJobWorkID == nil {
		t.Fatalf("good order must have its job work assigned")
	}
}
