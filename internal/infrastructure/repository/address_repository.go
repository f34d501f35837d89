package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	domain "github.com/mohammadpnp/person-registry/internal/domain/person"
	"github.com/mohammadpnp/person-registry/internal/infrastructure/db"
	"github.com/mohammadpnp/person-registry/internal/infrastructure/db/models"
)

type AddressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

// Create inserts the address. A person_id with no matching person row
// yields domain.ErrPersonNotFound.
func (r *AddressRepository) Create(ctx context.Context, draft domain.AddressDraft) (domain.Address, error) {
	row := models.Address{
		PersonID: draft.PersonID,
		Street:   draft.Street,
		Number:   draft.Number,
		District: draft.District,
		City:     draft.City,
		State:    draft.State,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if db.IsForeignKeyViolation(err) {
			return domain.Address{}, domain.ErrPersonNotFound
		}
		return domain.Address{}, errors.Wrap(err, "create address")
	}

	return addressFromRow(row), nil
}

func (r *AddressRepository) GetByID(ctx context.Context, id int64) (domain.Address, error) {
	var row models.Address

	err := r.db.WithContext(ctx).First(&row, "address_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Address{}, domain.ErrAddressNotFound
		}
		return domain.Address{}, errors.Wrap(err, "get address by id")
	}

	return addressFromRow(row), nil
}

func (r *AddressRepository) List(ctx context.Context, filter domain.AddressFilter, page domain.Page) ([]domain.Address, error) {
	var rows []models.Address

	query := r.db.WithContext(ctx).Order("address_id ASC")
	if filter.PersonID != 0 {
		query = query.Where("person_id = ?", filter.PersonID)
	}

	if err := query.Offset(page.Offset).Limit(page.Limit).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}

	addresses := make([]domain.Address, 0, len(rows))
	for _, row := range rows {
		addresses = append(addresses, addressFromRow(row))
	}
	return addresses, nil
}

func (r *AddressRepository) CountByPerson(ctx context.Context, personID int64) (int64, error) {
	var n int64

	err := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("person_id = ?", personID).
		Count(&n).Error
	if err != nil {
		return 0, errors.Wrap(err, "count addresses by person")
	}
	return n, nil
}

// Update rewrites the mutable columns. person_id is never touched.
func (r *AddressRepository) Update(ctx context.Context, id int64, draft domain.AddressDraft) (domain.Address, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("address_id = ?", id).
		Updates(map[string]any{
			"street":   draft.Street,
			"number":   draft.Number,
			"district": draft.District,
			"city":     draft.City,
			"state":    draft.State,
		})
	if result.Error != nil {
		return domain.Address{}, errors.Wrap(result.Error, "update address")
	}
	if result.RowsAffected == 0 {
		return domain.Address{}, domain.ErrAddressNotFound
	}

	return r.GetByID(ctx, id)
}

func (r *AddressRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Address{}, "address_id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "delete address")
	}
	if result.RowsAffected == 0 {
		return domain.ErrAddressNotFound
	}
	return nil
}

func (r *AddressRepository) DeleteByPerson(ctx context.Context, personID int64) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Address{}, "person_id = ?", personID)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "delete addresses by person")
	}
	return result.RowsAffected, nil
}

func addressFromRow(row models.Address) domain.Address {
	return domain.Address{
		ID:        row.AddressID,
		PersonID:  row.PersonID,
		Street:    row.Street,
		Number:    row.Number,
		District:  row.District,
		City:      row.City,
		State:     row.State,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
