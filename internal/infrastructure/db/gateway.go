// Package db owns the process-wide connection pool to the relational store
// and hands out transactional units of work over it.
package db

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mohammadpnp/person-registry/internal/infrastructure/db/models"
)

var tracer = otel.Tracer("person-registry/db")

// Observer receives the outcome ("commit" or "rollback") and duration of
// every finished unit of work.
type Observer interface {
	ObserveUnitOfWork(outcome string, elapsed time.Duration)
}

type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// AcquireTimeout bounds the wait for a free connection. Exceeding it
	// fails the unit of work with ErrUnavailable.
	AcquireTimeout time.Duration
	SlowThreshold  time.Duration
	Logger         *slog.Logger
	Observer       Observer
}

func (o Options) withDefaults() Options {
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 10
	}
	if o.MaxIdleConns <= 0 || o.MaxIdleConns > o.MaxOpenConns {
		o.MaxIdleConns = o.MaxOpenConns
	}
	if o.ConnMaxLifetime <= 0 {
		o.ConnMaxLifetime = 30 * time.Minute
	}
	if o.AcquireTimeout <= 0 {
		o.AcquireTimeout = 2 * time.Second
	}
	if o.SlowThreshold <= 0 {
		o.SlowThreshold = 300 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

type Gateway struct {
	db    *gorm.DB
	sqlDB *sql.DB
	pool  *pgxpool.Pool
	opts  Options
}

// New opens a gateway over an arbitrary gorm dialector.
func New(dialector gorm.Dialector, opts Options) (*Gateway, error) {
	opts = opts.withDefaults()

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		Logger:                 newGormLogger(opts),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open gorm")
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql db")
	}
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	return &Gateway{db: gormDB, sqlDB: sqlDB, opts: opts}, nil
}

// OpenPostgres connects to PostgreSQL through a pgx pool and layers gorm on
// top of it.
func OpenPostgres(ctx context.Context, dsn string, opts Options) (*Gateway, error) {
	opts = opts.withDefaults()

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parse database url")
	}
	poolConfig.MaxConns = int32(opts.MaxOpenConns)
	poolConfig.MaxConnLifetime = opts.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, "create pgx pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	g, err := New(postgres.New(postgres.Config{Conn: sqlDB}), opts)
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return nil, err
	}
	g.pool = pool
	return g, nil
}

func newGormLogger(opts Options) logger.Interface {
	return logger.New(
		slog.NewLogLogger(opts.Logger.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             opts.SlowThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// EnsureSchema creates the person and address tables when missing.
func (g *Gateway) EnsureSchema(ctx context.Context) error {
	if err := g.db.WithContext(ctx).AutoMigrate(&models.Person{}, &models.Address{}); err != nil {
		return errors.Wrap(err, "ensure schema")
	}
	return nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	return g.sqlDB.PingContext(ctx)
}

func (g *Gateway) Stats() sql.DBStats {
	return g.sqlDB.Stats()
}

// Close releases every pooled connection. The gateway is unusable after.
func (g *Gateway) Close() error {
	err := g.sqlDB.Close()
	if g.pool != nil {
		g.pool.Close()
	}
	return err
}

// Within runs fn in a new unit of work. fn's error or panic rolls the unit
// back; otherwise it is committed. The connection is released on every path.
func (g *Gateway) Within(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ctx, span := tracer.Start(ctx, "db.UnitOfWork")
	defer span.End()

	uow, err := g.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin")
		return err
	}
	span.SetAttributes(attribute.String("uow.id", uow.ID()))

	committed := false
	defer func() {
		if !committed {
			_ = uow.Rollback()
		}
	}()

	if err := fn(uow.DB()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rollback")
		if rbErr := uow.Rollback(); rbErr != nil {
			g.opts.Logger.ErrorContext(ctx, "rollback failed", "uow_id", uow.ID(), "error", rbErr)
		}
		return err
	}

	committed = true
	if err := uow.Commit(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit")
		return err
	}
	return nil
}
