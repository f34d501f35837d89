package person

import "context"

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

type PersonRepository interface {
	Create(ctx context.Context, draft PersonDraft) (Person, error)
	GetByID(ctx context.Context, id int64) (Person, error)
	List(ctx context.Context, page Page) ([]Person, error)
	Update(ctx context.Context, id int64, draft PersonDraft) (Person, error)
	Delete(ctx context.Context, id int64) error
}

type AddressRepository interface {
	Create(ctx context.Context, draft AddressDraft) (Address, error)
	GetByID(ctx context.Context, id int64) (Address, error)
	List(ctx context.Context, filter AddressFilter, page Page) ([]Address, error)
	CountByPerson(ctx context.Context, personID int64) (int64, error)
	Update(ctx context.Context, id int64, draft AddressDraft) (Address, error)
	Delete(ctx context.Context, id int64) error
	DeleteByPerson(ctx context.Context, personID int64) (int64, error)
}

// UnitOfWork exposes repositories bound to one store transaction.
type UnitOfWork interface {
	Persons() PersonRepository
	Addresses() AddressRepository
}

// Transactor runs fn inside a unit of work. The work is committed when fn
// returns nil and rolled back otherwise.
type Transactor interface {
	WithinUnitOfWork(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}
