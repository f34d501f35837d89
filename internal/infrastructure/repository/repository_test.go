package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/mohammadpnp/person-registry/internal/domain/person"
	"github.com/mohammadpnp/person-registry/internal/infrastructure/db"
	"github.com/mohammadpnp/person-registry/internal/infrastructure/repository"
	"github.com/mohammadpnp/person-registry/internal/testutil"
)

func newTransactor(t *testing.T) *repository.Transactor {
	t.Helper()
	return repository.NewTransactor(testutil.NewSQLiteGateway(t, db.Options{}))
}

func within(t *testing.T, tx domain.Transactor, fn func(ctx context.Context, uow domain.UnitOfWork) error) {
	t.Helper()
	require.NoError(t, tx.WithinUnitOfWork(context.Background(), fn))
}

func TestPersonRepositoryCreateAndGet(t *testing.T) {
	tx := newTransactor(t)

	var created domain.Person
	within(t, tx, func(ctx context.Context, uow domain.UnitOfWork) error {
		var err error
		created, err = uow.Persons().Create(ctx, domain.PersonDraft{Name: "Ada", Phone: "555-0100"})
		return err
	})
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Ada", created.Name)
	assert.False(t, created.CreatedAt.IsZero())

	within(t, tx, func(ctx context.Context, uow domain.UnitOfWork) error {
		got, err := uow.Persons().GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Ada", got.Name)
		assert.Equal(t, "555-0100", got.Phone)

		_, err = uow.Persons().GetByID(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrPersonNotFound)
		return nil
	})
}

func TestPersonRepositoryListIsOrderedAndPaged(t *testing.T) {
	tx := newTransactor(t)

	within(t, tx, func(ctx context.Context, uow domain.UnitOfWork) error {
		for _, name := range []string{"Ada", "Grace", "Edsger", "Barbara"} {
			if _, err := uow.Persons().Create(ctx, domain.PersonDraft{Name: name}); err != nil {
				return err
			}
		}
		return nil
	})

	within(t, tx, func(ctx context.Context, uow domain.UnitOfWork) error {
		page, err := uow.Persons().List(ctx, domain.Page{Offset: 1, Limit: 2})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "Grace", page[0].Name)
		assert.Equal(t, "Edsger", page[1].Name)
		assert.Less(t, page[0].ID, page[1].ID)

		rest, err := uow.Persons().List(ctx, domain.Page{Offset: 3, Limit: 10})
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, "Barbara", rest[0].Name)
		return nil
	})
}

func TestPersonRepositoryUpdate(t *testing.T) {
	tx := newTransactor(t)

	var created domain.Person
	within(t, tx, func(ctx context.Context, uow domain.UnitOfWork) error {
		var err error
		created, err = uow.Persons().Create(ctx, domain.PersonDraft{Name: "Ada", Phone: "123"})
		return err
	})

	within(t, tx, func(ctx context.Context, uow domain.UnitOfWork) error {
		updated, err := uow.Persons().Update(ctx, created.ID, domain.PersonDraft{Name: "Ada Lovelace"})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "Ada Lovelace", updated.Name)
		assert.Equal(t, "", updated.Phone)

		_, err = uow.Persons().Update(ctx, 42, domain.PersonDraft{Name: "Nobody"})
		assert.ErrorIs(t, err, domain.ErrPersonNotFound)
		return nil
	})
}

func TestPersonRepositoryDeleteDoesNotReuseIDs(t *testing.T) {
	tx := newTransactor(t)

	within(t, tx, func(ctx context.Context, uow domain.UnitOfWork) error {
		first, err := uow.Persons().Create(ctx, domain.PersonDraft{Name: "Ada"})
		require.NoError(t, err)
		require.NoError(t, uow.Persons().Delete(ctx, first.ID))
		assert.ErrorIs(t, uow.Persons().Delete(ctx, first.ID), domain.ErrPersonNotFound)

		second, err := uow.Persons().Create(ctx, domain.PersonDraft{Name: "Grace"})
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID)
		return nil
	})
}

func TestAddressRepositoryLifecycle(t *testing.T) {
	tx := newTransactor(t)

	var ada, grace domain.Person
	var home domain.Address
	within(t, tx, func(ctx context.Context, uow domain.UnitOfWork) error {
		var err error
		ada, err = uow.Persons().Create(ctx, domain.PersonDraft{Name: "Ada"})
		require.NoError(t, err)
		grace, err = uow.Persons().Create(ctx, domain.PersonDraft{Name: "Grace"})
		require.NoError(t, err)

		home, err = uow.Addresses().Create(ctx, domain.AddressDraft{PersonID: ada.ID, Street: "Main St", City: "London"})
		require.NoError(t, err)
		_, err = uow.Addresses().Create(ctx, domain.AddressDraft{PersonID: ada.ID, Street: "Second St"})
		require.NoError(t, err)
		_, err = uow.Addresses().Create(ctx, domain.AddressDraft{PersonID: grace.ID, Street: "Navy Rd"})
		return err
	})
	assert.Equal(t, int64(1), home.ID)
	assert.Equal(t, ada.ID, home.PersonID)

	within(t, tx, func(ctx context.Context, uow domain.UnitOfWork) error {
		got, err := uow.Addresses().GetByID(ctx, home.ID)
		require.NoError(t, err)
		assert.Equal(t, "Main St", got.Street)
		assert.Equal(t, "London", got.City)

		all, err := uow.Addresses().List(ctx, domain.AddressFilter{}, domain.Page{Limit: 10})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		owned, err := uow.Addresses().List(ctx, domain.AddressFilter{PersonID: ada.ID}, domain.Page{Limit: 10})
		require.NoError(t, err)
		require.Len(t, owned, 2)
		assert.Equal(t, "Main St", owned[0].Street)

		count, err := uow.Addresses().CountByPerson(ctx, ada.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		updated, err := uow.Addresses().Update(ctx, home.ID, domain.AddressDraft{Street: "Main Street", Number: "12", City: "London"})
		require.NoError(t, err)
		assert.Equal(t, "Main Street", updated.Street)
		assert.Equal(t, "12", updated.Number)
		assert.Equal(t, ada.ID, updated.PersonID)

		require.NoError(t, uow.Addresses().Delete(ctx, home.ID))
		_, err = uow.Addresses().GetByID(ctx, home.ID)
		assert.ErrorIs(t, err, domain.ErrAddressNotFound)
		assert.ErrorIs(t, uow.Addresses().Delete(ctx, home.ID), domain.ErrAddressNotFound)

		removed, err := uow.Addresses().DeleteByPerson(ctx, ada.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		remaining, err := uow.Addresses().List(ctx, domain.AddressFilter{}, domain.Page{Limit: 10})
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, grace.ID, remaining[0].PersonID)
		return nil
	})
}

func TestAddressRepositoryRejectsUnknownPerson(t *testing.T) {
	tx := newTransactor(t)

	err := tx.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow domain.UnitOfWork) error {
		_, err := uow.Addresses().Create(ctx, domain.AddressDraft{PersonID: 77, Street: "Main St"})
		return err
	})
	require.ErrorIs(t, err, domain.ErrPersonNotFound)

	within(t, tx, func(ctx context.Context, uow domain.UnitOfWork) error {
		all, err := uow.Addresses().List(ctx, domain.AddressFilter{}, domain.Page{Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, all)
		return nil
	})
}

func TestForeignKeysEnforcedOnSQLite(t *testing.T) {
	assertForeignKeysEnforced(t, newTransactor(t))
}

func TestTransactorRollsBackOnError(t *testing.T) {
	tx := newTransactor(t)
	boom := errors.New("boom")

	err := tx.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow domain.UnitOfWork) error {
		if _, err := uow.Persons().Create(ctx, domain.PersonDraft{Name: "Ada"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	within(t, tx, func(ctx context.Context, uow domain.UnitOfWork) error {
		persons, err := uow.Persons().List(ctx, domain.Page{Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, persons)
		return nil
	})
}

func TestTransactorReportsStoreUnavailable(t *testing.T) {
	gateway := testutil.NewSQLiteGateway(t, db.Options{MaxOpenConns: 1, AcquireTimeout: 50 * time.Millisecond})
	tx := repository.NewTransactor(gateway)

	held, err := gateway.Begin(context.Background())
	require.NoError(t, err)
	defer held.Rollback()

	err = tx.WithinUnitOfWork(context.Background(), func(ctx context.Context, uow domain.UnitOfWork) error {
		return nil
	})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
