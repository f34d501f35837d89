package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	domain "github.com/mohammadpnp/person-registry/internal/domain/person"
	"github.com/mohammadpnp/person-registry/internal/infrastructure/db"
	"github.com/mohammadpnp/person-registry/internal/infrastructure/db/models"
)

type PersonRepository struct {
	db *gorm.DB
}

func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

func (r *PersonRepository) Create(ctx context.Context, draft domain.PersonDraft) (domain.Person, error) {
	row := models.Person{
		Name:  draft.Name,
		Phone: draft.Phone,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Person{}, errors.Wrap(err, "create person")
	}

	return personFromRow(row), nil
}

func (r *PersonRepository) GetByID(ctx context.Context, id int64) (domain.Person, error) {
	var row models.Person

	err := r.db.WithContext(ctx).First(&row, "person_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Person{}, domain.ErrPersonNotFound
		}
		return domain.Person{}, errors.Wrap(err, "get person by id")
	}

	return personFromRow(row), nil
}

func (r *PersonRepository) List(ctx context.Context, page domain.Page) ([]domain.Person, error) {
	var rows []models.Person

	err := r.db.WithContext(ctx).
		Order("person_id ASC").
		Offset(page.Offset).
		Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "list persons")
	}

	persons := make([]domain.Person, 0, len(rows))
	for _, row := range rows {
		persons = append(persons, personFromRow(row))
	}
	return persons, nil
}

func (r *PersonRepository) Update(ctx context.Context, id int64, draft domain.PersonDraft) (domain.Person, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Person{}).
		Where("person_id = ?", id).
		Updates(map[string]any{
			"name":  draft.Name,
			"phone": draft.Phone,
		})
	if result.Error != nil {
		return domain.Person{}, errors.Wrap(result.Error, "update person")
	}
	if result.RowsAffected == 0 {
		return domain.Person{}, domain.ErrPersonNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *PersonRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Person{}, "person_id = ?", id)
	if result.Error != nil {
		if db.IsForeignKeyViolation(result.Error) {
			return domain.ErrPersonReferenced
		}
		return errors.Wrap(result.Error, "delete person")
	}
	if result.RowsAffected == 0 {
		return domain.ErrPersonNotFound
	}
	return nil
}

func personFromRow(row models.Person) domain.Person {
	return domain.Person{
		ID:        row.PersonID,
		Name:      row.Name,
		Phone:     row.Phone,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
