package person

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	domain "github.com/mohammadpnp/person-registry/internal/domain/person"
	"github.com/mohammadpnp/person-registry/internal/platform/metrics"
)

type AddressOutput struct {
	ID        int64     `json:"address_id"`
	PersonID  int64     `json:"person_id"`
	Street    string    `json:"street"`
	Number    string    `json:"number"`
	District  string    `json:"district"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newAddressOutput(a domain.Address) AddressOutput {
	return AddressOutput{
		ID:        a.ID,
		PersonID:  a.PersonID,
		Street:    a.Street,
		Number:    a.Number,
		District:  a.District,
		City:      a.City,
		State:     a.State,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type CreateAddressInput struct {
	PersonID int64  `json:"person_id"`
	Street   string `json:"street"`
	Number   string `json:"number"`
	District string `json:"district"`
	City     string `json:"city"`
	State    string `json:"state"`
}

type GetAddressInput struct {
	ID int64
}

// ListAddressesInput lists every address, or only those of PersonID when
// it is set.
type ListAddressesInput struct {
	PersonID int64
	Offset   int
	Limit    int
}

type ListAddressesOutput struct {
	Items  []AddressOutput `json:"items"`
	Offset int             `json:"offset"`
	Limit  int             `json:"limit"`
}

type UpdateAddressInput struct {
	ID       int64   `json:"-"`
	Street   *string `json:"street"`
	Number   *string `json:"number"`
	District *string `json:"district"`
	City     *string `json:"city"`
	State    *string `json:"state"`
}

type DeleteAddressInput struct {
	ID int64
}

type AddressService interface {
	Create(ctx context.Context, in CreateAddressInput) (AddressOutput, error)
	Get(ctx context.Context, in GetAddressInput) (AddressOutput, error)
	List(ctx context.Context, in ListAddressesInput) (ListAddressesOutput, error)
	Update(ctx context.Context, in UpdateAddressInput) (AddressOutput, error)
	Delete(ctx context.Context, in DeleteAddressInput) error
}

type addressService struct {
	tx        domain.Transactor
	validator domain.Validator[domain.AddressDraft]
	options
}

func NewAddressService(tx domain.Transactor, validator domain.Validator[domain.AddressDraft], opts ...Option) AddressService {
	if validator == nil {
		validator = domain.DefaultAddressValidator()
	}
	return &addressService{
		tx:        tx,
		validator: validator,
		options:   newOptions(opts),
	}
}

func missingPerson(id int64) error {
	return domain.NewValidationError("person_id", fmt.Sprintf("person %d does not exist", id))
}

// Create checks that the owning person exists before inserting. A person
// deleted concurrently surfaces through the foreign key as the same
// validation error.
func (s *addressService) Create(ctx context.Context, in CreateAddressInput) (AddressOutput, error) {
	ctx, span := tracer.Start(ctx, "Address.Service.Create")
	defer span.End()
	span.SetAttributes(attribute.Int64("person.id", in.PersonID))

	draft := domain.AddressDraft{
		PersonID: in.PersonID,
		Street:   in.Street,
		Number:   in.Number,
		District: in.District,
		City:     in.City,
		State:    in.State,
	}
	if err := s.validator.Validate(draft); err != nil {
		return AddressOutput{}, s.fail(ctx, span, metrics.KindAddress, "create", err, "person_id", in.PersonID)
	}

	var created domain.Address
	err := s.tx.WithinUnitOfWork(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		if _, err := uow.Persons().GetByID(ctx, draft.PersonID); err != nil {
			if errors.Is(err, domain.ErrPersonNotFound) {
				return missingPerson(draft.PersonID)
			}
			return err
		}

		var err error
		created, err = uow.Addresses().Create(ctx, draft)
		if errors.Is(err, domain.ErrPersonNotFound) {
			return missingPerson(draft.PersonID)
		}
		return err
	})
	if err != nil {
		return AddressOutput{}, s.fail(ctx, span, metrics.KindAddress, "create", translate(err), "person_id", in.PersonID)
	}

	span.SetAttributes(attribute.Int64("address.id", created.ID))
	s.metrics.IncrementCreated(metrics.KindAddress)
	s.logger.InfoContext(ctx, "address created", "address_id", created.ID, "person_id", created.PersonID)
	return newAddressOutput(created), nil
}

func (s *addressService) Get(ctx context.Context, in GetAddressInput) (AddressOutput, error) {
	ctx, span := tracer.Start(ctx, "Address.Service.Get")
	defer span.End()
	span.SetAttributes(attribute.Int64("address.id", in.ID))

	if in.ID <= 0 {
		return AddressOutput{}, s.fail(ctx, span, metrics.KindAddress, "get", ErrAddressNotFound, "address_id", in.ID)
	}

	var found domain.Address
	err := s.tx.WithinUnitOfWork(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		var err error
		found, err = uow.Addresses().GetByID(ctx, in.ID)
		return err
	})
	if err != nil {
		return AddressOutput{}, s.fail(ctx, span, metrics.KindAddress, "get", translate(err), "address_id", in.ID)
	}
	return newAddressOutput(found), nil
}

func (s *addressService) List(ctx context.Context, in ListAddressesInput) (ListAddressesOutput, error) {
	ctx, span := tracer.Start(ctx, "Address.Service.List")
	defer span.End()

	page, err := s.page(in.Offset, in.Limit)
	if err == nil && in.PersonID < 0 {
		err = domain.NewValidationError("person_id", "must be positive")
	}
	if err != nil {
		return ListAddressesOutput{}, s.fail(ctx, span, metrics.KindAddress, "list", err, "person_id", in.PersonID)
	}

	var addresses []domain.Address
	err = s.tx.WithinUnitOfWork(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		if in.PersonID > 0 {
			if _, err := uow.Persons().GetByID(ctx, in.PersonID); err != nil {
				return err
			}
		}
		var err error
		addresses, err = uow.Addresses().List(ctx, domain.AddressFilter{PersonID: in.PersonID}, page)
		return err
	})
	if err != nil {
		return ListAddressesOutput{}, s.fail(ctx, span, metrics.KindAddress, "list", translate(err), "person_id", in.PersonID)
	}

	items := make([]AddressOutput, 0, len(addresses))
	for _, a := range addresses {
		items = append(items, newAddressOutput(a))
	}
	return ListAddressesOutput{Items: items, Offset: page.Offset, Limit: page.Limit}, nil
}

// Update applies the set fields and re-validates the result. The owning
// person never changes.
func (s *addressService) Update(ctx context.Context, in UpdateAddressInput) (AddressOutput, error) {
	ctx, span := tracer.Start(ctx, "Address.Service.Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("address.id", in.ID))

	if in.ID <= 0 {
		return AddressOutput{}, s.fail(ctx, span, metrics.KindAddress, "update", ErrAddressNotFound, "address_id", in.ID)
	}
	patch := domain.AddressPatch{
		Street:   in.Street,
		Number:   in.Number,
		District: in.District,
		City:     in.City,
		State:    in.State,
	}

	var updated domain.Address
	err := s.tx.WithinUnitOfWork(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		current, err := uow.Addresses().GetByID(ctx, in.ID)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			updated = current
			return nil
		}

		draft := patch.Apply(current.Draft())
		if err := s.validator.Validate(draft); err != nil {
			return err
		}
		updated, err = uow.Addresses().Update(ctx, in.ID, draft)
		return err
	})
	if err != nil {
		return AddressOutput{}, s.fail(ctx, span, metrics.KindAddress, "update", translate(err), "address_id", in.ID)
	}

	if !patch.IsEmpty() {
		s.metrics.IncrementUpdated(metrics.KindAddress)
		s.logger.InfoContext(ctx, "address updated", "address_id", in.ID)
	}
	return newAddressOutput(updated), nil
}

func (s *addressService) Delete(ctx context.Context, in DeleteAddressInput) error {
	ctx, span := tracer.Start(ctx, "Address.Service.Delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("address.id", in.ID))

	if in.ID <= 0 {
		return s.fail(ctx, span, metrics.KindAddress, "delete", ErrAddressNotFound, "address_id", in.ID)
	}

	err := s.tx.WithinUnitOfWork(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		return uow.Addresses().Delete(ctx, in.ID)
	})
	if err != nil {
		return s.fail(ctx, span, metrics.KindAddress, "delete", translate(err), "address_id", in.ID)
	}

	s.metrics.AddDeleted(metrics.KindAddress, 1)
	s.logger.InfoContext(ctx, "address deleted", "address_id", in.ID)
	return nil
}
