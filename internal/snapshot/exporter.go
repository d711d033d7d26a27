package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dataagent/dataagent/internal/query"
	"github.com/dataagent/dataagent/internal/storage"
	"github.com/dataagent/dataagent/internal/store"
)

const (
	parquetContentType = "application/vnd.apache.parquet"
	metadataRows       = "rows"
	metadataTable      = "table"
)

// Tables lists the tables a snapshot contains, in export order.
var Tables = []string{"customers", "products", "orders"}

// Exporter copies the shop tables into parquet objects so the snapshot query
// backend can answer questions without touching the live database.
type Exporter struct {
	db    *sqlx.DB
	store storage.ObjectStore
	log   *slog.Logger
}

func NewExporter(db *sqlx.DB, objectStore storage.ObjectStore, logger *slog.Logger) (*Exporter, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if objectStore == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Exporter{db: db, store: objectStore, log: logger}, nil
}

// Export writes one parquet object per table under the snapshot name and
// returns the files in the shape the duckdb engine expects.
func (e *Exporter) Export(ctx context.Context, name string) ([]query.TableFile, error) {
	if err := storage.ValidateSnapshotName(name); err != nil {
		return nil, err
	}
	files, err := e.export(ctx, name)
	if err != nil {
		exportRunsTotal.WithLabelValues("failed").Inc()
		e.log.WarnContext(ctx, "snapshot export failed", slog.String("snapshot", name), slog.Any("error", err))
		return nil, err
	}
	exportRunsTotal.WithLabelValues("completed").Inc()
	return files, nil
}

// List summarizes the snapshots held by the exporter's object store.
func (e *Exporter) List(ctx context.Context) ([]Summary, error) {
	return List(ctx, e.store)
}

// Delete removes every object of the named snapshot.
func (e *Exporter) Delete(ctx context.Context, name string) (int, error) {
	deleted, err := Delete(ctx, e.store, name)
	if err != nil {
		return deleted, err
	}
	e.log.InfoContext(ctx, "snapshot deleted", slog.String("snapshot", name), slog.Int("objects", deleted))
	return deleted, nil
}

func (e *Exporter) export(ctx context.Context, name string) ([]query.TableFile, error) {
	start := time.Now()
	files := make([]query.TableFile, 0, len(Tables))
	for _, table := range Tables {
		data, rowCount, err := e.encodeTable(ctx, table)
		if err != nil {
			return nil, err
		}
		key, err := storage.BuildSnapshotFilePath(name, table)
		if err != nil {
			return nil, err
		}
		info, err := e.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{
			ContentType: parquetContentType,
			Metadata: map[string]string{
				metadataRows:  strconv.Itoa(rowCount),
				metadataTable: table,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("put %s: %w", key, err)
		}
		size := info.Size
		if size <= 0 {
			size = int64(len(data))
		}
		files = append(files, query.TableFile{TableName: table, ObjectPath: key, FileSizeBytes: size})
		exportedRowsTotal.WithLabelValues(table).Add(float64(rowCount))
		exportedBytesTotal.Add(float64(len(data)))
		e.log.DebugContext(ctx, "exported table", slog.String("table", table), slog.Int("rows", rowCount), slog.String("key", key))
	}

	e.log.InfoContext(ctx, "snapshot exported",
		slog.String("snapshot", name),
		slog.Int("files", len(files)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return files, nil
}

func (e *Exporter) encodeTable(ctx context.Context, table string) ([]byte, int, error) {
	var (
		data  []byte
		count int
		err   error
	)
	switch table {
	case "customers":
		var rows []store.Customer
		if err = e.db.SelectContext(ctx, &rows, `SELECT id, name, email, city, created_at FROM customers ORDER BY id`); err == nil {
			count = len(rows)
			data, err = encodeCustomers(rows)
		}
	case "products":
		var rows []store.Product
		if err = e.db.SelectContext(ctx, &rows, `SELECT id, name, category, price FROM products ORDER BY id`); err == nil {
			count = len(rows)
			data, err = encodeProducts(rows)
		}
	case "orders":
		var rows []store.Order
		if err = e.db.SelectContext(ctx, &rows, `SELECT id, customer_id, product_id, quantity, order_date, total_amount FROM orders ORDER BY id`); err == nil {
			count = len(rows)
			data, err = encodeOrders(rows)
		}
	default:
		err = fmt.Errorf("unknown table %q", table)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("export %s: %w", table, err)
	}
	return data, count, nil
}

// Files resolves an existing snapshot in the object store. Every table must
// be present.
func Files(ctx context.Context, objectStore storage.ObjectStore, name string) ([]query.TableFile, error) {
	if objectStore == nil {
		return nil, fmt.Errorf("object store is required")
	}
	files := make([]query.TableFile, 0, len(Tables))
	for _, table := range Tables {
		key, err := storage.BuildSnapshotFilePath(name, table)
		if err != nil {
			return nil, err
		}
		info, err := objectStore.Stat(ctx, key)
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("snapshot %q is missing table %q", name, table)
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", key, err)
		}
		files = append(files, query.TableFile{TableName: table, ObjectPath: key, FileSizeBytes: info.Size})
	}
	return files, nil
}
