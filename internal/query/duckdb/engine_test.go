package duckdb

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/dataagent/dataagent/internal/query"
	"github.com/dataagent/dataagent/internal/storage"
)

type customerRow struct {
	ID   int64  `parquet:"id"`
	Name string `parquet:"name"`
	City string `parquet:"city"`
}

type orderRow struct {
	ID          int64   `parquet:"id"`
	CustomerID  int64   `parquet:"customer_id"`
	TotalAmount float64 `parquet:"total_amount"`
}

func TestExecuteReadsParquetThroughObjectStore(t *testing.T) {
	store, files := snapshotFixture(t)
	engine := NewEngine(store)

	result, err := engine.Execute(context.Background(), query.Request{
		SQL:   "SELECT COUNT(*) AS c FROM orders",
		Files: files,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %d", len(result.Rows))
	}
	if result.Rows[0][0] != int64(3) {
		t.Fatalf("count = %#v", result.Rows[0][0])
	}
	if result.ScannedFiles != 2 {
		t.Fatalf("ScannedFiles = %d", result.ScannedFiles)
	}
}

func TestExecuteUsesDefaultFilesAndJoins(t *testing.T) {
	store, files := snapshotFixture(t)
	engine := NewEngine(store, files...)

	rs := query.Execute(context.Background(), engine, `SELECT c.name, SUM(o.total_amount) AS total
FROM orders o JOIN customers c ON c.id = o.customer_id
GROUP BY c.name ORDER BY total DESC;`)
	if rs.Failed {
		t.Fatalf("Execute() failed: %v", rs.Err)
	}
	if len(rs.Rows) != 2 {
		t.Fatalf("rows = %d", len(rs.Rows))
	}
	if got, _ := rs.Rows[0].Get("name"); got != "Camille Martin" {
		t.Fatalf("top customer = %#v", got)
	}
	if got, _ := rs.Rows[0].Get("total"); got != 150.5 {
		t.Fatalf("top total = %#v", got)
	}
}

func TestExecuteSupportsTrailingSemicolonWithRowLimit(t *testing.T) {
	store, files := snapshotFixture(t)
	engine := NewEngine(store, files...)

	result, err := engine.Execute(context.Background(), query.Request{
		SQL:      "SELECT id FROM orders ORDER BY id;",
		RowLimit: 2,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d", len(result.Rows))
	}
}

func TestExecuteRejectsWritesAgainstSnapshot(t *testing.T) {
	store, files := snapshotFixture(t)
	rs := query.Execute(context.Background(), NewEngine(store, files...), "DELETE FROM orders")
	if !rs.Failed {
		t.Fatal("DELETE against snapshot views should fail")
	}
}

func TestExecuteReusesCachedDownloadsUntilObjectChanges(t *testing.T) {
	store, files := snapshotFixture(t)
	store.etags = map[string]string{
		"nightly/customers.parquet": `"c-1"`,
		"nightly/orders.parquet":    `"o-1"`,
	}
	engine := NewEngine(store, files...)
	engine.CacheDir = t.TempDir()

	count := func() int64 {
		t.Helper()
		result, err := engine.Execute(context.Background(), query.Request{SQL: "SELECT COUNT(*) FROM orders"})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		return result.Rows[0][0].(int64)
	}

	if got := count(); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
	if got := count(); got != 3 {
		t.Fatalf("cached count = %d, want 3", got)
	}
	if store.gets != 2 {
		t.Fatalf("downloads = %d, want 2", store.gets)
	}

	reexported, err := buildParquet([]orderRow{{ID: 9, CustomerID: 2, TotalAmount: 1}})
	if err != nil {
		t.Fatalf("buildParquet() error = %v", err)
	}
	store.objects["nightly/orders.parquet"] = reexported
	store.etags["nightly/orders.parquet"] = `"o-2"`

	if got := count(); got != 1 {
		t.Fatalf("count after re-export = %d, want 1", got)
	}
	if store.gets != 3 {
		t.Fatalf("downloads = %d, want 3", store.gets)
	}
}

func TestCacheFileName(t *testing.T) {
	withETag := cacheFileName("nightly/orders.parquet", storage.ObjectInfo{ETag: `"abc"`})
	if withETag != "nightly_orders.parquet@abc.parquet" {
		t.Fatalf("cacheFileName() = %q", withETag)
	}
	a := cacheFileName("nightly/orders.parquet", storage.ObjectInfo{Size: 10})
	b := cacheFileName("nightly/orders.parquet", storage.ObjectInfo{Size: 11})
	if a == b {
		t.Fatalf("size change should alter cache name: %q", a)
	}
}

func TestExecuteRequiresFiles(t *testing.T) {
	_, err := NewEngine(&memoryStore{}).Execute(context.Background(), query.Request{SQL: "SELECT 1"})
	if err == nil || !strings.Contains(err.Error(), "no files") {
		t.Fatalf("Execute() error = %v", err)
	}
}

func snapshotFixture(t *testing.T) (*memoryStore, []query.TableFile) {
	t.Helper()
	customers, err := buildParquet([]customerRow{
		{ID: 1, Name: "Camille Martin", City: "Paris"},
		{ID: 2, Name: "Louis Bernard", City: "Lyon"},
	})
	if err != nil {
		t.Fatalf("buildParquet(customers) error = %v", err)
	}
	orders, err := buildParquet([]orderRow{
		{ID: 1, CustomerID: 1, TotalAmount: 100.5},
		{ID: 2, CustomerID: 2, TotalAmount: 20},
		{ID: 3, CustomerID: 1, TotalAmount: 50},
	})
	if err != nil {
		t.Fatalf("buildParquet(orders) error = %v", err)
	}
	store := &memoryStore{objects: map[string][]byte{
		"nightly/customers.parquet": customers,
		"nightly/orders.parquet":    orders,
	}}
	return store, []query.TableFile{
		{TableName: "customers", ObjectPath: "nightly/customers.parquet", FileSizeBytes: int64(len(customers))},
		{TableName: "orders", ObjectPath: "nightly/orders.parquet", FileSizeBytes: int64(len(orders))},
	}
}

func buildParquet[T any](rows []T) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[T](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type memoryStore struct {
	objects map[string][]byte
	etags   map[string]string
	gets    int
}

func (m *memoryStore) Put(context.Context, string, io.Reader, int64, storage.PutOptions) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{}, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.gets++
	body, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (m *memoryStore) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	body, ok := m.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(body)), ETag: m.etags[key]}, nil
}

func (m *memoryStore) Delete(context.Context, string) error {
	return nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for key, body := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(body))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
