package db_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mohammadpnp/person-registry/internal/infrastructure/db"
	"github.com/mohammadpnp/person-registry/internal/infrastructure/db/models"
	"github.com/mohammadpnp/person-registry/internal/testutil"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveUnitOfWork(outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) last() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.outcomes) == 0 {
		return ""
	}
	return o.outcomes[len(o.outcomes)-1]
}

func countPersons(t *testing.T, g *db.Gateway) int64 {
	t.Helper()

	var n int64
	err := g.Within(context.Background(), func(tx *gorm.DB) error {
		return tx.Model(&models.Person{}).Count(&n).Error
	})
	require.NoError(t, err)
	return n
}

func TestWithinCommitsOnSuccess(t *testing.T) {
	observer := &recordingObserver{}
	g := testutil.NewSQLiteGateway(t, db.Options{Observer: observer})

	var created models.Person
	err := g.Within(context.Background(), func(tx *gorm.DB) error {
		created = models.Person{Name: "Ada"}
		return tx.Create(&created).Error
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), created.PersonID)
	assert.Equal(t, int64(1), countPersons(t, g))
	assert.Equal(t, "commit", observer.last())
}

func TestWithinRollsBackOnError(t *testing.T) {
	observer := &recordingObserver{}
	g := testutil.NewSQLiteGateway(t, db.Options{Observer: observer})
	boom := errors.New("boom")

	err := g.Within(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&models.Person{Name: "Ada"}).Error; err != nil {
			return err
		}
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, "rollback", observer.last())
	assert.Equal(t, int64(0), countPersons(t, g))
}

func TestWithinRollsBackOnPanic(t *testing.T) {
	g := testutil.NewSQLiteGateway(t, db.Options{})

	require.Panics(t, func() {
		_ = g.Within(context.Background(), func(tx *gorm.DB) error {
			if err := tx.Create(&models.Person{Name: "Ada"}).Error; err != nil {
				return err
			}
			panic("handler bug")
		})
	})

	assert.Equal(t, int64(0), countPersons(t, g))
}

func TestUnitOfWorkHoldsSingleConnection(t *testing.T) {
	g := testutil.NewSQLiteGateway(t, db.Options{MaxOpenConns: 4})

	err := g.Within(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&models.Person{Name: "Ada"}).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.Person{}).Count(&n).Error; err != nil {
			return err
		}
		assert.Equal(t, int64(1), n, "reads inside the unit see its own writes")
		assert.Equal(t, 1, g.Stats().InUse)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, g.Stats().InUse)
}

func TestBeginFailsFastWhenPoolExhausted(t *testing.T) {
	g := testutil.NewSQLiteGateway(t, db.Options{
		MaxOpenConns:   1,
		AcquireTimeout: 50 * time.Millisecond,
	})

	held, err := g.Begin(context.Background())
	require.NoError(t, err)

	start := time.Now()
	err = g.Within(context.Background(), func(tx *gorm.DB) error {
		t.Fatal("unit of work must not run without a connection")
		return nil
	})
	require.ErrorIs(t, err, db.ErrUnavailable)
	assert.Less(t, time.Since(start), 2*time.Second)

	require.NoError(t, held.Rollback())

	err = g.Within(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&models.Person{Name: "Ada"}).Error
	})
	require.NoError(t, err)
}

func TestBeginReturnsCallerContextError(t *testing.T) {
	g := testutil.NewSQLiteGateway(t, db.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Begin(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, db.ErrUnavailable))
}

func TestCancelledUnitOfWorkIsRolledBack(t *testing.T) {
	g := testutil.NewSQLiteGateway(t, db.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	uow, err := g.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, uow.DB().Create(&models.Person{Name: "Ada"}).Error)
	cancel()

	require.Error(t, uow.Commit())
	assert.Equal(t, int64(0), countPersons(t, g))
}

func TestUnitOfWorkFinishesOnce(t *testing.T) {
	g := testutil.NewSQLiteGateway(t, db.Options{})

	uow, err := g.Begin(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, uow.ID())

	require.NoError(t, uow.Commit())
	require.ErrorIs(t, uow.Commit(), db.ErrUnitOfWorkDone)
	require.NoError(t, uow.Rollback())
}

func TestPingAndClose(t *testing.T) {
	g := testutil.NewSQLiteGateway(t, db.Options{})

	require.NoError(t, g.Ping(context.Background()))
	require.NoError(t, g.Close())
	require.Error(t, g.Ping(context.Background()))
}

func TestIsForeignKeyViolation(t *testing.T) {
	t.Parallel()

	assert.False(t, db.IsForeignKeyViolation(nil))
	assert.False(t, db.IsForeignKeyViolation(errors.New("boom")))
	assert.True(t, db.IsForeignKeyViolation(gorm.ErrForeignKeyViolated))
	assert.True(t, db.IsForeignKeyViolation(fmt.Errorf("insert address: %w", &pgconn.PgError{Code: "23503"})))
	assert.False(t, db.IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
}

func TestIsForeignKeyViolationOnSQLite(t *testing.T) {
	g := testutil.NewSQLiteGateway(t, db.Options{})

	err := g.Within(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&models.Address{PersonID: 77, Street: "Main St"}).Error
	})
	require.Error(t, err)
	assert.True(t, db.IsForeignKeyViolation(err))
}
