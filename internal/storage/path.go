package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

const snapshotFileExt = ".parquet"

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildSnapshotFilePath returns the object key of one table in a named
// snapshot: <snapshot>/<table>.parquet.
func BuildSnapshotFilePath(snapshotName, tableName string) (string, error) {
	if err := validatePathComponent(snapshotName, "snapshot name"); err != nil {
		return "", err
	}
	if err := validatePathComponent(tableName, "table name"); err != nil {
		return "", err
	}
	return path.Join(snapshotName, tableName+snapshotFileExt), nil
}

// SnapshotPrefix is the key prefix shared by every file of a snapshot.
func SnapshotPrefix(snapshotName string) (string, error) {
	if err := validatePathComponent(snapshotName, "snapshot name"); err != nil {
		return "", err
	}
	return snapshotName + "/", nil
}

// ParseSnapshotFilePath is the inverse of BuildSnapshotFilePath. Keys that
// do not follow the snapshot layout report ok=false.
func ParseSnapshotFilePath(key string) (snapshotName, tableName string, ok bool) {
	dir, file := path.Split(strings.TrimPrefix(key, "/"))
	dir = strings.TrimSuffix(dir, "/")
	if dir == "" || strings.Contains(dir, "/") || !strings.HasSuffix(file, snapshotFileExt) {
		return "", "", false
	}
	tableName = strings.TrimSuffix(file, snapshotFileExt)
	if !pathComponentPattern.MatchString(dir) || !pathComponentPattern.MatchString(tableName) {
		return "", "", false
	}
	return dir, tableName, true
}

func ValidateSnapshotName(name string) error {
	return validatePathComponent(name, "snapshot name")
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
