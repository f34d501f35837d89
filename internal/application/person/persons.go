package person

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	domain "github.com/mohammadpnp/person-registry/internal/domain/person"
	"github.com/mohammadpnp/person-registry/internal/platform/metrics"
)

type PersonOutput struct {
	ID        int64     `json:"person_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newPersonOutput(p domain.Person) PersonOutput {
	return PersonOutput{
		ID:        p.ID,
		Name:      p.Name,
		Phone:     p.Phone,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type CreatePersonInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type GetPersonInput struct {
	ID int64
}

type ListPersonsInput struct {
	Offset int
	Limit  int
}

type ListPersonsOutput struct {
	Items  []PersonOutput `json:"items"`
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
}

// UpdatePersonInput changes only the fields that are set.
type UpdatePersonInput struct {
	ID    int64   `json:"-"`
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

type DeletePersonInput struct {
	ID int64
}

type DeletePersonOutput struct {
	ID               int64 `json:"person_id"`
	AddressesDeleted int64 `json:"addresses_deleted"`
}

type PersonService interface {
	Create(ctx context.Context, in CreatePersonInput) (PersonOutput, error)
	Get(ctx context.Context, in GetPersonInput) (PersonOutput, error)
	List(ctx context.Context, in ListPersonsInput) (ListPersonsOutput, error)
	Update(ctx context.Context, in UpdatePersonInput) (PersonOutput, error)
	Delete(ctx context.Context, in DeletePersonInput) (DeletePersonOutput, error)
}

type personService struct {
	tx        domain.Transactor
	validator domain.Validator[domain.PersonDraft]
	policy    domain.DeletePolicy
	options
}

// NewPersonService builds the person operations. A nil validator selects
// the default rules and an empty policy rejects deletes of persons that
// still own addresses.
func NewPersonService(tx domain.Transactor, validator domain.Validator[domain.PersonDraft], policy domain.DeletePolicy, opts ...Option) PersonService {
	if validator == nil {
		validator = domain.DefaultPersonValidator()
	}
	if policy == "" {
		policy = domain.DeleteReject
	}
	return &personService{
		tx:        tx,
		validator: validator,
		policy:    policy,
		options:   newOptions(opts),
	}
}

func (s *personService) Create(ctx context.Context, in CreatePersonInput) (PersonOutput, error) {
	ctx, span := tracer.Start(ctx, "Person.Service.Create")
	defer span.End()

	draft := domain.PersonDraft{Name: in.Name, Phone: in.Phone}
	if err := s.validator.Validate(draft); err != nil {
		return PersonOutput{}, s.fail(ctx, span, metrics.KindPerson, "create", err)
	}

	var created domain.Person
	err := s.tx.WithinUnitOfWork(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		var err error
		created, err = uow.Persons().Create(ctx, draft)
		return err
	})
	if err != nil {
		return PersonOutput{}, s.fail(ctx, span, metrics.KindPerson, "create", translate(err))
	}

	span.SetAttributes(attribute.Int64("person.id", created.ID))
	s.metrics.IncrementCreated(metrics.KindPerson)
	s.logger.InfoContext(ctx, "person created", "person_id", created.ID)
	return newPersonOutput(created), nil
}

func (s *personService) Get(ctx context.Context, in GetPersonInput) (PersonOutput, error) {
	ctx, span := tracer.Start(ctx, "Person.Service.Get")
	defer span.End()
	span.SetAttributes(attribute.Int64("person.id", in.ID))

	if in.ID <= 0 {
		return PersonOutput{}, s.fail(ctx, span, metrics.KindPerson, "get", ErrPersonNotFound, "person_id", in.ID)
	}

	var found domain.Person
	err := s.tx.WithinUnitOfWork(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		var err error
		found, err = uow.Persons().GetByID(ctx, in.ID)
		return err
	})
	if err != nil {
		return PersonOutput{}, s.fail(ctx, span, metrics.KindPerson, "get", translate(err), "person_id", in.ID)
	}
	return newPersonOutput(found), nil
}

func (s *personService) List(ctx context.Context, in ListPersonsInput) (ListPersonsOutput, error) {
	ctx, span := tracer.Start(ctx, "Person.Service.List")
	defer span.End()

	page, err := s.page(in.Offset, in.Limit)
	if err != nil {
		return ListPersonsOutput{}, s.fail(ctx, span, metrics.KindPerson, "list", err)
	}

	var persons []domain.Person
	err = s.tx.WithinUnitOfWork(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		var err error
		persons, err = uow.Persons().List(ctx, page)
		return err
	})
	if err != nil {
		return ListPersonsOutput{}, s.fail(ctx, span, metrics.KindPerson, "list", translate(err))
	}

	items := make([]PersonOutput, 0, len(persons))
	for _, p := range persons {
		items = append(items, newPersonOutput(p))
	}
	return ListPersonsOutput{Items: items, Offset: page.Offset, Limit: page.Limit}, nil
}

func (s *personService) Update(ctx context.Context, in UpdatePersonInput) (PersonOutput, error) {
	ctx, span := tracer.Start(ctx, "Person.Service.Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("person.id", in.ID))

	if in.ID <= 0 {
		return PersonOutput{}, s.fail(ctx, span, metrics.KindPerson, "update", ErrPersonNotFound, "person_id", in.ID)
	}
	patch := domain.PersonPatch{Name: in.Name, Phone: in.Phone}

	var updated domain.Person
	err := s.tx.WithinUnitOfWork(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		current, err := uow.Persons().GetByID(ctx, in.ID)
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
		updated, err = uow.Persons().Update(ctx, in.ID, draft)
		return err
	})
	if err != nil {
		return PersonOutput{}, s.fail(ctx, span, metrics.KindPerson, "update", translate(err), "person_id", in.ID)
	}

	if !patch.IsEmpty() {
		s.metrics.IncrementUpdated(metrics.KindPerson)
		s.logger.InfoContext(ctx, "person updated", "person_id", in.ID)
	}
	return newPersonOutput(updated), nil
}

// Delete removes a person. Owned addresses either block the delete or are
// removed in the same unit of work, depending on the delete policy.
func (s *personService) Delete(ctx context.Context, in DeletePersonInput) (DeletePersonOutput, error) {
	ctx, span := tracer.Start(ctx, "Person.Service.Delete")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("person.id", in.ID),
		attribute.String("delete.policy", s.policy.String()),
	)

	if in.ID <= 0 {
		return DeletePersonOutput{}, s.fail(ctx, span, metrics.KindPerson, "delete", ErrPersonNotFound, "person_id", in.ID)
	}

	var removed int64
	err := s.tx.WithinUnitOfWork(ctx, func(ctx context.Context, uow domain.UnitOfWork) error {
		if _, err := uow.Persons().GetByID(ctx, in.ID); err != nil {
			return err
		}

		owned, err := uow.Addresses().CountByPerson(ctx, in.ID)
		if err != nil {
			return err
		}
		if owned > 0 {
			if s.policy != domain.DeleteCascade {
				return ErrPersonHasAddresses
			}
			removed, err = uow.Addresses().DeleteByPerson(ctx, in.ID)
			if err != nil {
				return err
			}
		}
		return uow.Persons().Delete(ctx, in.ID)
	})
	if err != nil {
		return DeletePersonOutput{}, s.fail(ctx, span, metrics.KindPerson, "delete", translate(err), "person_id", in.ID)
	}

	s.metrics.AddDeleted(metrics.KindPerson, 1)
	s.metrics.AddDeleted(metrics.KindAddress, removed)
	s.logger.InfoContext(ctx, "person deleted", "person_id", in.ID, "addresses_deleted", removed)
	return DeletePersonOutput{ID: in.ID, AddressesDeleted: removed}, nil
}
