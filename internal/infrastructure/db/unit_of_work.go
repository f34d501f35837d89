package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrUnavailable    = errors.New("database connection unavailable")
	ErrUnitOfWorkDone = errors.New("unit of work already finished")
)

// UnitOfWork is one transaction on one dedicated connection. It stays valid
// until Commit or Rollback.
type UnitOfWork struct {
	id      string
	gateway *Gateway
	conn    *sql.Conn
	tx      *sql.Tx
	db      *gorm.DB
	started time.Time
	done    bool
}

// Begin acquires a connection and opens a transaction bound to ctx.
// Cancelling ctx before Commit rolls the transaction back.
func (g *Gateway) Begin(ctx context.Context) (*UnitOfWork, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, g.opts.AcquireTimeout)
	conn, err := g.sqlDB.Conn(acquireCtx)
	cancel()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrapf(ErrUnavailable, "acquire connection within %s: %v", g.opts.AcquireTimeout, err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		_ = conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrap(err, "begin transaction")
	}

	session := g.db.Session(&gorm.Session{Context: ctx, NewDB: true})
	session.Statement.ConnPool = tx

	return &UnitOfWork{
		id:      uuid.NewString(),
		gateway: g,
		conn:    conn,
		tx:      tx,
		db:      session,
		started: time.Now(),
	}, nil
}

func (u *UnitOfWork) ID() string {
	return u.id
}

// DB returns a gorm handle whose statements all run inside this unit.
func (u *UnitOfWork) DB() *gorm.DB {
	return u.db
}

func (u *UnitOfWork) Commit() error {
	if u.done {
		return ErrUnitOfWorkDone
	}
	u.done = true

	err := u.tx.Commit()
	if err != nil {
		u.release("rollback")
		return errors.Wrap(err, "commit transaction")
	}
	u.release("commit")
	return nil
}

// Rollback is a no-op once the unit has finished.
func (u *UnitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true

	err := u.tx.Rollback()
	u.release("rollback")
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return errors.Wrap(err, "rollback transaction")
	}
	return nil
}

func (u *UnitOfWork) release(outcome string) {
	if err := u.conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		u.gateway.opts.Logger.Warn("release connection failed", "uow_id", u.id, "error", err)
	}

	elapsed := time.Since(u.started)
	if u.gateway.opts.Observer != nil {
		u.gateway.opts.Observer.ObserveUnitOfWork(outcome, elapsed)
	}
	u.gateway.opts.Logger.Debug("unit of work finished",
		"uow_id", u.id,
		"outcome", outcome,
		"duration_ms", elapsed.Milliseconds(),
	)
}
