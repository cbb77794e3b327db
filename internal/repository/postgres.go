// Package repository содержит журнал платежей в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/bgremover/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrOrderExists возвращается при повторной записи заказа с тем же идентификатором.
var ErrOrderExists = errors.New("order already journaled")

// PostgresRepository хранит журнал созданных заказов и проверок подписи.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// SaveOrder записывает заказ, выпущенный шлюзом. Запись выполняется один раз, без повторов.
func (r *PostgresRepository) SaveOrder(ctx context.Context, order *model.Order) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO payment_orders (order_id, amount, currency, status) VALUES ($1, $2, $3, $4)`,
		order.ID, order.Amount, order.Currency, order.Status,
	)
	if err != nil {
		return orderInsertError(err, order.ID)
	}
	return nil
}

func orderInsertError(err error, orderID string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %s", ErrOrderExists, orderID)
	}
	return fmt.Errorf("insert order: %w", err)
}

// SaveVerification записывает попытку проверки подписи платежа.
func (r *PostgresRepository) SaveVerification(ctx context.Context, v model.Verification) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO payment_verifications (id, order_id, payment_id, authentic, verified_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		v.ID, v.OrderID, v.PaymentID, v.Authentic, v.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	return nil
}
