// Package duckdb answers questions from a parquet snapshot of the shop
// tables. Each table becomes a DuckDB view over its downloaded files, so
// generated statements can never modify the source database.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/dataagent/dataagent/internal/query"
	"github.com/dataagent/dataagent/internal/storage"
)

type Engine struct {
	Store storage.ObjectStore
	// Files is the default snapshot, used when a request carries none.
	Files []query.TableFile
	// CacheDir keeps downloaded parquet between queries, keyed by object
	// version. Empty means every query downloads into a fresh temp dir.
	CacheDir string

	cacheMu sync.Mutex
}

func NewEngine(store storage.ObjectStore, files ...query.TableFile) *Engine {
	return &Engine{Store: store, Files: files}
}

func (e *Engine) Execute(ctx context.Context, request query.Request) (query.Result, error) {
	sqlText := query.StripTrailingSemicolons(request.SQL)
	if sqlText == "" {
		return query.Result{}, query.ErrSQLRequired
	}
	files := request.Files
	if len(files) == 0 {
		files = e.Files
	}
	if len(files) == 0 {
		return query.Result{}, fmt.Errorf("no files available for snapshot")
	}
	if e.Store == nil {
		return query.Result{}, fmt.Errorf("object store is required")
	}

	start := time.Now()
	workDir, err := os.MkdirTemp("", "dataagent-snapshot-")
	if err != nil {
		return query.Result{}, fmt.Errorf("create query temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	tablePaths := map[string][]string{}
	var scannedBytes int64
	for index, file := range files {
		localPath, err := e.localCopy(ctx, workDir, index, file)
		if err != nil {
			return query.Result{}, err
		}
		tablePaths[file.TableName] = append(tablePaths[file.TableName], localPath)
		scannedBytes += file.FileSizeBytes
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return query.Result{}, fmt.Errorf("open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := createViews(ctx, db, tablePaths); err != nil {
		return query.Result{}, err
	}

	if request.RowLimit > 0 {
		sqlText = fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", sqlText, request.RowLimit)
	}
	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return query.Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, resultRows, err := query.CollectRows(rows, 0)
	if err != nil {
		return query.Result{}, err
	}
	return query.Result{
		Columns:      columns,
		Rows:         resultRows,
		ScannedFiles: len(files),
		ScannedBytes: scannedBytes,
		Duration:     time.Since(start),
	}, nil
}

// createViews registers one view per table in name order.
func createViews(ctx context.Context, db *sql.DB, tablePaths map[string][]string) error {
	tables := make([]string, 0, len(tablePaths))
	for table := range tablePaths {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		viewSQL := fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet(%s)`, quoteIdent(table), quoteStringArray(tablePaths[table]))
		if _, err := db.ExecContext(ctx, viewSQL); err != nil {
			return fmt.Errorf("create view for table %q: %w", table, err)
		}
	}
	return nil
}

// localCopy returns a local path holding the object's bytes. With a cache
// directory, an object version already on disk is reused.
func (e *Engine) localCopy(ctx context.Context, workDir string, index int, file query.TableFile) (string, error) {
	if e.CacheDir == "" {
		localPath := filepath.Join(workDir, fmt.Sprintf("%s_%d.parquet", sanitizeFileComponent(file.TableName), index))
		return localPath, downloadObject(ctx, e.Store, file.ObjectPath, localPath)
	}

	info, err := e.Store.Stat(ctx, file.ObjectPath)
	if err != nil {
		return "", fmt.Errorf("stat object %q: %w", file.ObjectPath, err)
	}
	cached := filepath.Join(e.CacheDir, cacheFileName(file.ObjectPath, info))

	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	}
	if err := os.MkdirAll(e.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}
	partial := cached + ".partial"
	if err := downloadObject(ctx, e.Store, file.ObjectPath, partial); err != nil {
		_ = os.Remove(partial)
		return "", err
	}
	if err := os.Rename(partial, cached); err != nil {
		return "", fmt.Errorf("promote cached %q: %w", cached, err)
	}
	return cached, nil
}

// cacheFileName changes whenever the object is rewritten, so a re-exported
// snapshot under the same name never serves stale rows.
func cacheFileName(objectPath string, info storage.ObjectInfo) string {
	version := sanitizeFileComponent(strings.Trim(info.ETag, `"`))
	if info.ETag == "" {
		version = fmt.Sprintf("%d-%d", info.Size, info.LastModified.UnixNano())
	}
	return sanitizeFileComponent(objectPath) + "@" + version + ".parquet"
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteStringArray(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, value := range values {
		quoted = append(quoted, `'`+strings.ReplaceAll(value, `'`, `''`)+`'`)
	}
	return "[" + strings.Join(quoted, ",") + "]"
}

func sanitizeFileComponent(value string) string {
	value = strings.ReplaceAll(value, "/", "_")
	value = strings.ReplaceAll(value, "..", "_")
	if value == "" {
		return "table"
	}
	return value
}
