package gateway

import (
	"chat-relay/contract"
	"chat-relay/domain"
	relayerrors "chat-relay/errors"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var _ contract.IGateway = (*PostgresGateway)(nil)

const productColumns = `id::text, name, coalesce(description, ''), price::float8, stock, coalesce(category, ''), created_at`

// OpenPostgres opens and pings a Postgres pool. Caller must call Close when done.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// PostgresGateway reads the storefront tables directly, bypassing the REST layer.
type PostgresGateway struct {
	log *slog.Logger
	db  *sql.DB
}

func NewPostgresGateway(log *slog.Logger, db *sql.DB) *PostgresGateway {
	return &PostgresGateway{log: log, db: db}
}

func (g *PostgresGateway) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	var args []any
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (g *PostgresGateway) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := g.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id::text = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &p, nil
}

func (g *PostgresGateway) InsertMessage(ctx context.Context, msg domain.BotMessage) error {
	_, err := g.db.ExecContext(ctx,
		`INSERT INTO messages (name, email, message, read) VALUES ($1, $2, $3, false)`,
		msg.Name, msg.Email(), msg.Message)
	if isRowRejected(err) {
		return fmt.Errorf("insert message: %w: %w", relayerrors.ErrRecordRejected, err)
	}
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// isRowRejected matches data exceptions (22), integrity violations (23) and
// syntax or privilege errors (42). The same row will fail again.
func isRowRejected(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || len(pgErr.Code) < 2 {
		return false
	}
	switch pgErr.Code[:2] {
	case "22", "23", "42":
		return true
	}
	return false
}

func (g *PostgresGateway) CountMessagesSince(ctx context.Context, since time.Time) (int, error) {
	return g.count(ctx, `SELECT count(*) FROM messages WHERE created_at >= $1`, since)
}

func (g *PostgresGateway) CountCommentsSince(ctx context.Context, since time.Time) (int, error) {
	return g.count(ctx, `SELECT count(*) FROM comments WHERE created_at >= $1`, since)
}

func (g *PostgresGateway) CountProductsWithStockBelow(ctx context.Context, threshold int) (int, error) {
	return g.count(ctx, `SELECT count(*) FROM products WHERE stock < $1`, threshold)
}

func (g *PostgresGateway) count(ctx context.Context, query string, arg any) (int, error) {
	var n int
	if err := g.db.QueryRowContext(ctx, query, arg).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (domain.Product, error) {
	var p domain.Product
	err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.Category, &p.CreatedAt)
	return p, err
}
