package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/dataagent/dataagent/internal/config"
)

const (
	insertCustomerSQL = `INSERT INTO customers (id, name, email, city, created_at) VALUES (?, ?, ?, ?, ?)`
	insertProductSQL  = `INSERT INTO products (id, name, category, price) VALUES (?, ?, ?, ?)`
	insertOrderSQL    = `INSERT INTO orders (id, customer_id, product_id, quantity, order_date, total_amount) VALUES (?, ?, ?, ?, ?, ?)`
)

type SeedResult struct {
	Skipped   bool
	Customers int
	Products  int
	Orders    int
}

// Seeder fills an empty shop database with demo data.
type Seeder struct {
	db        *sqlx.DB
	cfg       config.SeedConfig
	generator *Generator
	log       *slog.Logger
}

func NewSeeder(db *sqlx.DB, cfg config.SeedConfig, logger *slog.Logger) (*Seeder, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.Customers < 0 || cfg.Products < 0 || cfg.Orders < 0 {
		return nil, fmt.Errorf("seed counts must be >= 0")
	}
	if cfg.Orders > 0 && (cfg.Customers == 0 || cfg.Products == 0) {
		return nil, fmt.Errorf("orders need at least one customer and one product")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Seeder{
		db:        db,
		cfg:       cfg,
		generator: NewGenerator(int64(cfg.RandomSeed)),
		log:       logger,
	}, nil
}

// Seed does nothing when customers already exist. Otherwise every row is
// inserted in a single transaction.
func (s *Seeder) Seed(ctx context.Context) (SeedResult, error) {
	var existing int64
	if err := s.db.GetContext(ctx, &existing, `SELECT COUNT(*) FROM customers`); err != nil {
		return SeedResult{}, fmt.Errorf("count customers: %w", err)
	}
	if existing > 0 {
		s.log.InfoContext(ctx, "demo data already present", slog.Int64("customers", existing))
		return SeedResult{Skipped: true}, nil
	}

	customers := make([]Customer, 0, s.cfg.Customers)
	for i := 1; i <= s.cfg.Customers; i++ {
		customers = append(customers, s.generator.Customer(int64(i)))
	}
	products := make([]Product, 0, s.cfg.Products)
	for i := 1; i <= s.cfg.Products; i++ {
		products = append(products, s.generator.Product(int64(i)))
	}
	orders := make([]Order, 0, s.cfg.Orders)
	for i := 1; i <= s.cfg.Orders; i++ {
		orders = append(orders, s.generator.Order(int64(i), customers, products))
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return SeedResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range customers {
		if _, err := tx.ExecContext(ctx, tx.Rebind(insertCustomerSQL), c.ID, c.Name, c.Email, c.City, c.CreatedAt); err != nil {
			return SeedResult{}, fmt.Errorf("insert customer %d: %w", c.ID, err)
		}
	}
	for _, p := range products {
		if _, err := tx.ExecContext(ctx, tx.Rebind(insertProductSQL), p.ID, p.Name, p.Category, p.Price); err != nil {
			return SeedResult{}, fmt.Errorf("insert product %d: %w", p.ID, err)
		}
	}
	for _, o := range orders {
		if _, err := tx.ExecContext(ctx, tx.Rebind(insertOrderSQL), o.ID, o.CustomerID, o.ProductID, o.Quantity, o.OrderDate, o.TotalAmount); err != nil {
			return SeedResult{}, fmt.Errorf("insert order %d: %w", o.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return SeedResult{}, fmt.Errorf("commit seed: %w", err)
	}

	result := SeedResult{Customers: len(customers), Products: len(products), Orders: len(orders)}
	s.log.InfoContext(ctx, "seeded demo data",
		slog.Int("customers", result.Customers),
		slog.Int("products", result.Products),
		slog.Int("orders", result.Orders),
	)
	return result, nil
}
