package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	domain "github.com/mohammadpnp/person-registry/internal/domain/person"
	"github.com/mohammadpnp/person-registry/internal/infrastructure/db"
)

// Transactor runs domain work on a db.Gateway unit of work.
type Transactor struct {
	gateway *db.Gateway
}

var _ domain.Transactor = (*Transactor)(nil)

func NewTransactor(gateway *db.Gateway) *Transactor {
	return &Transactor{gateway: gateway}
}

func (t *Transactor) WithinUnitOfWork(ctx context.Context, fn func(ctx context.Context, uow domain.UnitOfWork) error) error {
	err := t.gateway.Within(ctx, func(tx *gorm.DB) error {
		return fn(ctx, &unitOfWork{
			persons:   NewPersonRepository(tx),
			addresses: NewAddressRepository(tx),
		})
	})
	if errors.Is(err, db.ErrUnavailable) {
		return errors.Wrap(domain.ErrStoreUnavailable, err.Error())
	}
	return err
}

type unitOfWork struct {
	persons   *PersonRepository
	addresses *AddressRepository
}

func (u *unitOfWork) Persons() domain.PersonRepository {
	return u.persons
}

func (u *unitOfWork) Addresses() domain.AddressRepository {
	return u.addresses
}
