package vendors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sightlinehq/optishop-backend/pkg/db/models"
	pkgerrors "github.com/sightlinehq/optishop-backend/pkg/errors"
	pkgpagination "github.com/sightlinehq/optishop-backend/pkg/pagination"
)

type vendorsRepository interface {
	Create(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	List(ctx context.Context, opts listQuery) ([]models.Vendor, error)
}

// Service exposes vendor reference data for the workshop board: the dropdown
// list, single-vendor lookups, and lab registration.
type Service interface {
	ListVendors(ctx context.Context, params ListParams) (*ListResult, error)
	GetVendor(ctx context.Context, id uuid.UUID) (*ListItem, error)
	CreateVendor(ctx context.Context, params CreateParams) (*ListItem, error)
}

type service struct {
	repo vendorsRepository
}

// NewService builds the vendor service.
func NewService(repo vendorsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendor repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListVendors(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := listQuery{
		storeID:    params.StoreID,
		query:      strings.TrimSpace(params.Query),
		activeOnly: params.ActiveOnly,
		limit:      pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	items := make([]ListItem, len(rows))
	for i, row := range rows {
		items[i] = toListItem(row)
	}

	return &ListResult{
		Items:  items,
		Cursor: nextCursor,
	}, nil
}

func (s *service) GetVendor(ctx context.Context, id uuid.UUID) (*ListItem, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}

	item := toListItem(*row)
	return &item, nil
}

func (s *service) CreateVendor(ctx context.Context, params CreateParams) (*ListItem, error) {
	if params.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor name required")
	}

	// New labs are active unless the caller says otherwise.
	active := true
	if params.Active != nil {
		active = *params.Active
	}

	created, err := s.repo.Create(ctx, &models.Vendor{
		ID:      uuid.New(),
		StoreID: params.StoreID,
		Name:    name,
		Phone:   params.Phone,
		Email:   params.Email,
		Address: params.Address,
		Active:  active,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
	}

	item := toListItem(*created)
	return &item, nil
}
