package vendors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sightlinehq/optishop-backend/pkg/db/models"
	pkgerrors "github.com/sightlinehq/optishop-backend/pkg/errors"
	pkgpagination "github.com/sightlinehq/optishop-backend/pkg/pagination"
)

type stubVendorsRepo struct {
	rows      []models.Vendor
	listErr   error
	createErr error
	lastOpt   listQuery
}

func (s *stubVendorsRepo) Create(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.rows = append(s.rows, *vendor)
	return vendor, nil
}

func (s *stubVendorsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	for i := range s.rows {
		if s.rows[i].ID == id {
			return &s.rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubVendorsRepo) List(ctx context.Context, opts listQuery) ([]models.Vendor, error) {
	s.lastOpt = opts
	if s.listErr != nil {
		return nil, s.listErr
	}
	if opts.limit < len(s.rows) {
		return s.rows[:opts.limit], nil
	}
	return s.rows, nil
}

func makeVendors(storeID uuid.UUID, n int) []models.Vendor {
	rows := make([]models.Vendor, n)
	base := time.Now().UTC()
	for i := range rows {
		rows[i] = models.Vendor{
			ID:        uuid.New(),
			StoreID:   storeID,
			Name:      "Lab",
			Active:    true,
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
	}
	return rows
}

func TestListVendorsRequiresStore(t *testing.T) {
	svc, err := NewService(&stubVendorsRepo{})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	_, err = svc.ListVendors(context.Background(), ListParams{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestListVendorsPaginates(t *testing.T) {
	storeID := uuid.New()
	repo := &stubVendorsRepo{rows: makeVendors(storeID, 30)}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	result, err := svc.ListVendors(context.Background(), ListParams{StoreID: storeID})
	if err != nil {
		t.Fatalf("list vendors: %v", err)
	}
	if len(result.Items) != 25 {
		t.Fatalf("expected default page of 25, got %d", len(result.Items))
	}
	if result.Cursor == "" {
		t.Fatalf("expected a next cursor with more rows available")
	}
	if repo.lastOpt.limit != 26 {
		t.Fatalf("expected limit with buffer 26, got %d", repo.lastOpt.limit)
	}
}

func TestListVendorsLastPageHasNoCursor(t *testing.T) {
	storeID := uuid.New()
	repo := &stubVendorsRepo{rows: makeVendors(storeID, 3)}
	svc, _ := NewService(repo)

	result, err := svc.ListVendors(context.Background(), ListParams{StoreID: storeID})
	if err != nil {
		t.Fatalf("list vendors: %v", err)
	}
	if len(result.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.Items))
	}
	if result.Cursor != "" {
		t.Fatalf("expected empty cursor on last page, got %q", result.Cursor)
	}
}

func TestListVendorsInvalidCursor(t *testing.T) {
	svc, _ := NewService(&stubVendorsRepo{})

	_, err := svc.ListVendors(context.Background(), ListParams{
		StoreID: uuid.New(),
		Params:  pkgpagination.Params{Cursor: "!!not-base64!!"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for bad cursor, got %v", err)
	}
}

func TestGetVendorReturnsItem(t *testing.T) {
	storeID := uuid.New()
	rows := makeVendors(storeID, 1)
	svc, _ := NewService(&stubVendorsRepo{rows: rows})

	item, err := svc.GetVendor(context.Background(), rows[0].ID)
	if err != nil {
		t.Fatalf("get vendor: %v", err)
	}
	if item.ID != rows[0].ID || item.StoreID != storeID {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestGetVendorNotFound(t *testing.T) {
	svc, _ := NewService(&stubVendorsRepo{})

	_, err := svc.GetVendor(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestCreateVendorDefaultsToActive(t *testing.T) {
	repo := &stubVendorsRepo{}
	svc, _ := NewService(repo)

	item, err := svc.CreateVendor(context.Background(), CreateParams{
		StoreID: uuid.New(),
		Name:    "  Crystal Lab  ",
	})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	if item.Name != "Crystal Lab" {
		t.Fatalf("name must be trimmed, got %q", item.Name)
	}
	if !item.Active {
		t.Fatalf("new vendor must default to active")
	}

	inactive := false
	item, err = svc.CreateVendor(context.Background(), CreateParams{
		StoreID: uuid.New(),
		Name:    "Mothballed Lab",
		Active:  &inactive,
	})
	if err != nil {
		t.Fatalf("create inactive vendor: %v", err)
	}
	if item.Active {
		t.Fatalf("explicit active:false must be honored")
	}
}

func TestCreateVendorValidates(t *testing.T) {
	svc, _ := NewService(&stubVendorsRepo{})

	_, err := svc.CreateVendor(context.Background(), CreateParams{Name: "No Store"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR without store, got %v", err)
	}

	_, err = svc.CreateVendor(context.Background(), CreateParams{StoreID: uuid.New(), Name: "   "})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for blank name, got %v", err)
	}
}

func TestCreateVendorWrapsRepoFailure(t *testing.T) {
	svc, _ := NewService(&stubVendorsRepo{createErr: errors.New("insert failed")})

	_, err := svc.CreateVendor(context.Background(), CreateParams{StoreID: uuid.New(), Name: "Lab"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
}

func TestListVendorsPassesFilters(t *testing.T) {
	storeID := uuid.New()
	repo := &stubVendorsRepo{}
	svc, _ := NewService(repo)

	_, err := svc.ListVendors(context.Background(), ListParams{
		StoreID:    storeID,
		Query:      "  prime  ",
		ActiveOnly: true,
	})
	if err != nil {
		t.Fatalf("list vendors: %v", err)
	}
	if repo.lastOpt.query != "prime" {
		t.Fatalf("query must be trimmed, got %q", repo.lastOpt.query)
	}
	if !repo.lastOpt.activeOnly {
		t.Fatalf("active filter must be forwarded")
	}
}
