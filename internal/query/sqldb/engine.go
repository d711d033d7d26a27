// Package sqldb runs generated SQL against the live relational database.
package sqldb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dataagent/dataagent/internal/query"
)

type Engine struct {
	DB *sqlx.DB
}

func NewEngine(db *sqlx.DB) *Engine {
	return &Engine{DB: db}
}

// Execute runs the statement as-is. Statements that produce no result
// columns, such as UPDATE or CREATE, yield an empty result.
func (e *Engine) Execute(ctx context.Context, request query.Request) (query.Result, error) {
	if e.DB == nil {
		return query.Result{}, fmt.Errorf("database is required")
	}
	sqlText := strings.TrimSpace(request.SQL)
	if sqlText == "" {
		return query.Result{}, query.ErrSQLRequired
	}

	start := time.Now()
	rows, err := e.DB.QueryxContext(ctx, sqlText)
	if err != nil {
		return query.Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, resultRows, err := query.CollectRows(rows, request.RowLimit)
	if err != nil {
		return query.Result{}, err
	}

	return query.Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}
