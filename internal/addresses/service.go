package addresses

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgcheckout "github.com/angelmondragon/storefront-backend/pkg/checkout"
	pkgdb "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Address is a saved delivery address.
type Address struct {
	ID uuid.UUID `json:"id"`
	types.Address
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Service manages a customer's address book. Writes are last-write-wins.
type Service interface {
	List(ctx context.Context, customerID string) ([]Address, error)
	Create(ctx context.Context, customerID string, addr types.Address) (*Address, error)
	Update(ctx context.Context, customerID, addressID string, addr types.Address) (*Address, error)
	Delete(ctx context.Context, customerID, addressID string) error
}

type service struct {
	repo  *Repository
	clock func() time.Time
}

func NewService(repo *Repository, clock func() time.Time) (Service, error) {
	if repo == nil {
		return nil, errors.New("address repository required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: repo, clock: clock}, nil
}

func (s *service) List(ctx context.Context, customerID string) ([]Address, error) {
	rows, err := s.repo.List(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	out := make([]Address, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromModel(row))
	}
	return out, nil
}

// Create saves a new address. The first address becomes the default.
func (s *service) Create(ctx context.Context, customerID string, addr types.Address) (*Address, error) {
	addr = addr.Trimmed()
	if err := pkgcheckout.ValidateAddress(addr); err != nil {
		return nil, err
	}
	existing, err := s.repo.Count(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count addresses")
	}
	now := s.clock().UTC()
	row := toModel(customerID, addr)
	row.IsDefault = existing == 0
	row.CreatedAt = now
	row.UpdatedAt = now
	if err := s.repo.Create(ctx, &row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	out := fromModel(row)
	return &out, nil
}

func (s *service) Update(ctx context.Context, customerID, addressID string, addr types.Address) (*Address, error) {
	id, err := parseID(addressID)
	if err != nil {
		return nil, err
	}
	addr = addr.Trimmed()
	if err := pkgcheckout.ValidateAddress(addr); err != nil {
		return nil, err
	}
	row := toModel(customerID, addr)
	row.ID = id
	row.UpdatedAt = s.clock().UTC()
	ok, err := s.repo.Update(ctx, &row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	saved, err := s.repo.Find(ctx, customerID, id)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	out := fromModel(*saved)
	return &out, nil
}

func (s *service) Delete(ctx context.Context, customerID, addressID string) error {
	id, err := parseID(addressID)
	if err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, customerID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return nil
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid address id")
	}
	return id, nil
}

func toModel(customerID string, addr types.Address) models.CustomerAddress {
	row := models.CustomerAddress{
		CustomerID: customerID,
		Name:       addr.Name,
		Phone:      addr.Phone,
		Street:     addr.Street,
		City:       addr.City,
		State:      addr.State,
		Zip:        addr.Zip,
		Country:    addr.Country,
	}
	if addr.Email != "" {
		email := addr.Email
		row.Email = &email
	}
	return row
}

func fromModel(row models.CustomerAddress) Address {
	addr := types.Address{
		Name:    row.Name,
		Phone:   row.Phone,
		Street:  row.Street,
		City:    row.City,
		State:   row.State,
		Zip:     row.Zip,
		Country: row.Country,
	}
	if row.Email != nil {
		addr.Email = *row.Email
	}
	return Address{
		ID:        row.ID,
		Address:   addr,
		IsDefault: row.IsDefault,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
