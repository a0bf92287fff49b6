package workshop

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sightlinehq/optishop-backend/api/responses"
	"github.com/sightlinehq/optishop-backend/api/validators"
	internalworkshop "github.com/sightlinehq/optishop-backend/internal/workshop"
	"github.com/sightlinehq/optishop-backend/pkg/config"
	"github.com/sightlinehq/optishop-backend/pkg/db/models"
	"github.com/sightlinehq/optishop-backend/pkg/enums"
	pkgerrors "github.com/sightlinehq/optishop-backend/pkg/errors"
	"github.com/sightlinehq/optishop-backend/pkg/logger"
)

type setStatusRequest struct {
	Status string `json:"status"`
	Force  bool   `json:"force"`
	Revert bool   `json:"revert"`
}

// SetStatus handles single-order status changes, including one-step reverts.
func SetStatus(tracker internalworkshop.StatusTracker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tracker == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "status tracker unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.Revert {
			if payload.Status != "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "revert does not take a target status"))
				return
			}
			if err := tracker.Revert(r.Context(), orderID); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, map[string]string{"order_id": orderID.String(), "result": "reverted"})
			return
		}

		target, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		if err := tracker.SetStatus(r.Context(), orderID, target, internalworkshop.StatusOptions{Force: payload.Force}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"order_id": orderID.String(), "status": target.String()})
	}
}

type setStatusBatchRequest struct {
	OrderIDs []string `json:"order_ids" validate:"required,min=1"`
	Status   string   `json:"status" validate:"required"`
	Force    bool     `json:"force"`
}

// SetStatusBatch applies one status change across a selection of orders.
func SetStatusBatch(tracker internalworkshop.StatusTracker, cfg config.WorkshopConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tracker == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "status tracker unavailable"))
			return
		}

		var payload setStatusBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		selection, err := parseSelection(payload.OrderIDs, cfg.MaxBatchSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		result := tracker.SetStatusBatch(r.Context(), selection, target, internalworkshop.StatusOptions{Force: payload.Force})
		responses.WriteSuccess(w, batchResponseFrom(result))
	}
}

type assignJobWorkRequest struct {
	Side     string  `json:"side" validate:"required"`
	VendorID string  `json:"vendor_id" validate:"required"`
	Note     *string `json:"note"`
}

// AssignJobWork sends one side of an order to a vendor, replacing any active
// job work on that side.
func AssignJobWork(coord internalworkshop.Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if coord == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "job work coordinator unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignJobWorkRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		side, vendorID, err := parseSideAndVendor(payload.Side, payload.VendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := coord.AssignVendor(r.Context(), internalworkshop.AssignVendorInput{
			OrderID:  orderID,
			Side:     side,
			VendorID: vendorID,
			Note:     sanitizeNote(payload.Note),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, jobWorkResponseFromModel(created))
	}
}

type assignJobWorkBatchRequest struct {
	OrderIDs []string `json:"order_ids" validate:"required,min=1"`
	Side     string   `json:"side" validate:"required"`
	VendorID string   `json:"vendor_id" validate:"required"`
	Note     *string  `json:"note"`
}

// AssignJobWorkBatch applies one vendor assignment across a selection.
func AssignJobWorkBatch(coord internalworkshop.Coordinator, cfg config.WorkshopConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if coord == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "job work coordinator unavailable"))
			return
		}

		var payload assignJobWorkBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		selection, err := parseSelection(payload.OrderIDs, cfg.MaxBatchSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		side, vendorID, err := parseSideAndVendor(payload.Side, payload.VendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := coord.AssignVendorBatch(r.Context(), internalworkshop.BatchAssignInput{
			Selection: selection,
			Side:      side,
			VendorID:  vendorID,
			Note:      sanitizeNote(payload.Note),
		})
		responses.WriteSuccess(w, batchResponseFrom(result))
	}
}

type markDamagedRequest struct {
	Sides []string `json:"sides" validate:"required,min=1"`
	Note  *string  `json:"note"`
}

// MarkDamaged marks the requested sides damaged and creates replacement job
// works for the sides that qualify.
func MarkDamaged(coord internalworkshop.Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if coord == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "job work coordinator unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload markDamagedRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sides, err := parseSides(payload.Sides)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := coord.MarkDamaged(r.Context(), internalworkshop.MarkDamagedInput{
			OrderID: orderID,
			Sides:   sides,
			Note:    sanitizeNote(payload.Note),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, damageResponseFrom(result))
	}
}

type markDamagedBatchRequest struct {
	OrderIDs []string `json:"order_ids" validate:"required,min=1"`
	Sides    []string `json:"sides" validate:"required,min=1"`
	Note     *string  `json:"note"`
}

// MarkDamagedBatch applies one damage replacement across a selection.
func MarkDamagedBatch(coord internalworkshop.Coordinator, cfg config.WorkshopConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if coord == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "job work coordinator unavailable"))
			return
		}

		var payload markDamagedBatchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		selection, err := parseSelection(payload.OrderIDs, cfg.MaxBatchSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sides, err := parseSides(payload.Sides)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := coord.MarkDamagedBatch(r.Context(), internalworkshop.BatchDamageInput{
			Selection: selection,
			Sides:     sides,
			Note:      sanitizeNote(payload.Note),
		})
		responses.WriteSuccess(w, batchResponseFrom(result))
	}
}

// MarkReceived records that the vendor shipped a pending job work back.
func MarkReceived(coord internalworkshop.Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if coord == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "job work coordinator unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "jobWorkId"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "job work id is required"))
			return
		}
		jobWorkID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid job work id"))
			return
		}

		if err := coord.MarkReceived(r.Context(), jobWorkID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"job_work_id": jobWorkID.String(), "status": enums.JobWorkStatusReceived.String()})
	}
}

// FittingEligibility reports whether an order may move into fitting.
func FittingEligibility(gate internalworkshop.FittingGate, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if gate == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fitting gate unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eligible, err := gate.CanSendForFitting(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"order_id": orderID, "eligible": eligible})
	}
}

const maxNoteLength = 500

func sanitizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	cleaned := validators.SanitizeString(*note, maxNoteLength)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}

func parseSelection(raw []string, maxSize int) (internalworkshop.Selection, error) {
	if maxSize > 0 && len(raw) > maxSize {
		return internalworkshop.Selection{}, pkgerrors.New(pkgerrors.CodeValidation,
			"selection exceeds the batch size limit").WithDetails(map[string]any{"max": maxSize})
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(strings.TrimSpace(value))
		if err != nil {
			return internalworkshop.Selection{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id in selection")
		}
		ids = append(ids, id)
	}

	selection := internalworkshop.NewSelection(ids...)
	if selection.IsEmpty() {
		return internalworkshop.Selection{}, pkgerrors.New(pkgerrors.CodeValidation, "selection is empty")
	}
	return selection, nil
}

func parseSideAndVendor(rawSide, rawVendor string) (enums.LensSide, uuid.UUID, error) {
	side, err := enums.ParseLensSide(strings.TrimSpace(rawSide))
	if err != nil {
		return "", uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid side")
	}
	vendorID, err := uuid.Parse(strings.TrimSpace(rawVendor))
	if err != nil {
		return "", uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor_id")
	}
	return side, vendorID, nil
}

func parseSides(raw []string) ([]enums.LensSide, error) {
	sides := make([]enums.LensSide, 0, len(raw))
	for _, value := range raw {
		side, err := enums.ParseLensSide(strings.TrimSpace(value))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid side")
		}
		sides = append(sides, side)
	}
	return sides, nil
}

type batchResponse struct {
	SuccessCount        int                        `json:"success_count"`
	FailureCount        int                        `json:"failure_count"`
	Failures            []internalworkshop.Failure `json:"failures"`
	FirstFailureMessage string                     `json:"first_failure_message,omitempty"`
}

func batchResponseFrom(result internalworkshop.Result) batchResponse {
	failures := result.Failures
	if failures == nil {
		failures = []internalworkshop.Failure{}
	}
	return batchResponse{
		SuccessCount:        result.SuccessCount,
		FailureCount:        result.FailureCount(),
		Failures:            failures,
		FirstFailureMessage: result.FirstFailureMessage(),
	}
}

type sideFailureResponse struct {
	Side    enums.LensSide `json:"side"`
	Message string         `json:"message"`
}

type damageResponse struct {
	Replacements map[enums.LensSide]uuid.UUID `json:"replacements"`
	SideFailures []sideFailureResponse        `json:"side_failures"`
}

func damageResponseFrom(result *internalworkshop.DamageResult) damageResponse {
	out := damageResponse{
		Replacements: map[enums.LensSide]uuid.UUID{},
		SideFailures: []sideFailureResponse{},
	}
	if result == nil {
		return out
	}
	for side, id := range result.Replacements {
		out.Replacements[side] = id
	}
	for _, failure := range result.SideFailures {
		out.SideFailures = append(out.SideFailures, sideFailureResponse{
			Side:    failure.Side,
			Message: failure.Message(),
		})
	}
	return out
}

type jobWorkResponse struct {
	ID          uuid.UUID           `json:"id"`
	OrderID     uuid.UUID           `json:"order_id"`
	SaleID      uuid.UUID           `json:"sale_id"`
	StoreID     uuid.UUID           `json:"store_id"`
	Side        enums.LensSide      `json:"side"`
	VendorID    *uuid.UUID          `json:"vendor_id"`
	Status      enums.JobWorkStatus `json:"status"`
	Note        *string             `json:"note"`
	ReceivedAt  *time.Time          `json:"received_at"`
	ResolvedAt  *time.Time          `json:"resolved_at"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func jobWorkResponseFromModel(m *models.JobWork) jobWorkResponse {
	return jobWorkResponse{
		ID:         m.ID,
		OrderID:    m.OrderID,
		SaleID:     m.SaleID,
		StoreID:    m.StoreID,
		Side:       m.Side,
		VendorID:   m.VendorID,
		Status:     m.Status,
		Note:       m.Note,
		ReceivedAt: m.ReceivedAt,
		ResolvedAt: m.ResolvedAt,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
