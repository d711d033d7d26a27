package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dataagent/dataagent/internal/storage"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// Summary describes one snapshot found in the object store. Complete is set
// when every table in Tables is present.
type Summary struct {
	Name      string    `json:"name"`
	Tables    []string  `json:"tables"`
	Rows      int64     `json:"rows"`
	Bytes     int64     `json:"bytes"`
	UpdatedAt time.Time `json:"updated_at"`
	Complete  bool      `json:"complete"`
}

// List groups the store's parquet objects by snapshot name. Objects outside
// the snapshot layout are ignored. Row counts come from object metadata, so
// files written by other tools count as zero rows.
func List(ctx context.Context, objectStore storage.ObjectStore) ([]Summary, error) {
	if objectStore == nil {
		return nil, fmt.Errorf("object store is required")
	}
	objects, err := objectStore.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	byName := map[string]*Summary{}
	for _, object := range objects {
		name, table, ok := storage.ParseSnapshotFilePath(object.Key)
		if !ok {
			continue
		}
		summary, found := byName[name]
		if !found {
			summary = &Summary{Name: name}
			byName[name] = summary
		}
		summary.Tables = append(summary.Tables, table)
		summary.Bytes += object.Size
		if object.LastModified.After(summary.UpdatedAt) {
			summary.UpdatedAt = object.LastModified
		}

		info, err := objectStore.Stat(ctx, object.Key)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", object.Key, err)
		}
		if rows, err := strconv.ParseInt(info.Metadata[metadataRows], 10, 64); err == nil {
			summary.Rows += rows
		}
	}

	out := make([]Summary, 0, len(byName))
	for _, summary := range byName {
		sort.Strings(summary.Tables)
		summary.Complete = hasAllTables(summary.Tables)
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes every object under the snapshot prefix and reports how many
// were removed. A snapshot with no objects yields ErrSnapshotNotFound.
func Delete(ctx context.Context, objectStore storage.ObjectStore, name string) (int, error) {
	if objectStore == nil {
		return 0, fmt.Errorf("object store is required")
	}
	prefix, err := storage.SnapshotPrefix(name)
	if err != nil {
		return 0, err
	}
	objects, err := objectStore.List(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("list snapshot %q: %w", name, err)
	}
	if len(objects) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrSnapshotNotFound, name)
	}

	deleted := 0
	for _, object := range objects {
		if err := objectStore.Delete(ctx, object.Key); err != nil {
			return deleted, fmt.Errorf("delete %s: %w", object.Key, err)
		}
		deleted++
	}
	deletedObjectsTotal.Add(float64(deleted))
	return deleted, nil
}

func hasAllTables(tables []string) bool {
	present := make(map[string]struct{}, len(tables))
	for _, table := range tables {
		present[table] = struct{}{}
	}
	for _, table := range Tables {
		if _, ok := present[table]; !ok {
			return false
		}
	}
	return true
}
