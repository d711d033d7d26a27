// Package migrations owns the shop schema. Scripts live in sql/ as
// <version>_<name>.up.sql and <version>_<name>.down.sql pairs and are
// embedded into the binary.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed sql/*.sql
var embeddedFS embed.FS

const migrationTable = "dataagent_schema_migrations"

var scriptName = regexp.MustCompile(`^([0-9]+)_(.+)\.(up|down)\.sql$`)

type Runner struct {
	fsys fs.FS
}

func NewRunner() *Runner {
	return &Runner{fsys: embeddedFS}
}

// NewRunnerWithFS runs the migrations found under sql/ in fsys.
func NewRunnerWithFS(fsys fs.FS) *Runner {
	return &Runner{fsys: fsys}
}

type migration struct {
	Version int64
	Name    string
	UpSQL   string
	DownSQL string
}

// Status reports one known migration and whether it is applied.
type Status struct {
	Version int64
	Name    string
	Applied bool
}

// state is the source migrations next to the versions recorded in the
// database, both in ascending order.
type state struct {
	source  []migration
	applied []int64
}

func (s state) isApplied(version int64) bool {
	i := sort.Search(len(s.applied), func(i int) bool { return s.applied[i] >= version })
	return i < len(s.applied) && s.applied[i] == version
}

func (s state) find(version int64) (migration, bool) {
	for _, item := range s.source {
		if item.Version == version {
			return item, true
		}
	}
	return migration{}, false
}

func (r *Runner) load(ctx context.Context, db *sqlx.DB) (state, error) {
	source, err := loadMigrations(r.fsys)
	if err != nil {
		return state{}, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS `+migrationTable+` (
	version BIGINT PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`); err != nil {
		return state{}, fmt.Errorf("ensure migration table: %w", err)
	}
	var applied []int64
	if err := db.SelectContext(ctx, &applied, `SELECT version FROM `+migrationTable+` ORDER BY version ASC`); err != nil {
		return state{}, fmt.Errorf("query applied versions: %w", err)
	}
	return state{source: source, applied: applied}, nil
}

// Up applies pending migrations in version order. steps <= 0 applies all.
func (r *Runner) Up(ctx context.Context, db *sqlx.DB, steps int) (int, error) {
	current, err := r.load(ctx, db)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, item := range current.source {
		if steps > 0 && done == steps {
			break
		}
		if current.isApplied(item.Version) {
			continue
		}
		record := `INSERT INTO ` + migrationTable + ` (version) VALUES (?)`
		if err := runStep(ctx, db, "apply", item.Version, item.UpSQL, record); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}

// Down reverts the newest applied migrations. steps <= 0 reverts one.
func (r *Runner) Down(ctx context.Context, db *sqlx.DB, steps int) (int, error) {
	if steps <= 0 {
		steps = 1
	}
	current, err := r.load(ctx, db)
	if err != nil {
		return 0, err
	}

	done := 0
	for i := len(current.applied) - 1; i >= 0 && done < steps; i-- {
		version := current.applied[i]
		item, ok := current.find(version)
		if !ok {
			return done, fmt.Errorf("applied migration %d is missing from source", version)
		}
		record := `DELETE FROM ` + migrationTable + ` WHERE version = ?`
		if err := runStep(ctx, db, "rollback", version, item.DownSQL, record); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}

// Status lists every migration in source order. Versions recorded in the
// database but absent from source follow with an empty name.
func (r *Runner) Status(ctx context.Context, db *sqlx.DB) ([]Status, error) {
	current, err := r.load(ctx, db)
	if err != nil {
		return nil, err
	}

	out := make([]Status, 0, len(current.source))
	for _, item := range current.source {
		out = append(out, Status{Version: item.Version, Name: item.Name, Applied: current.isApplied(item.Version)})
	}
	for _, version := range current.applied {
		if _, ok := current.find(version); !ok {
			out = append(out, Status{Version: version, Applied: true})
		}
	}
	return out, nil
}

// runStep executes script and updates the version table in one transaction.
// record uses ? placeholders and is rebound for the driver.
func runStep(ctx context.Context, db *sqlx.DB, op string, version int64, script, record string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s migration %d: begin tx: %w", op, version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("%s migration %d: %w", op, version, err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(record), version); err != nil {
		return fmt.Errorf("%s migration %d: record version: %w", op, version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s migration %d: commit: %w", op, version, err)
	}
	return nil
}

func loadMigrations(fsys fs.FS) ([]migration, error) {
	files, err := fs.Glob(fsys, "sql/*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migration scripts: %w", err)
	}

	byVersion := map[int64]*migration{}
	for _, file := range files {
		parts := scriptName.FindStringSubmatch(path.Base(file))
		if parts == nil {
			continue
		}
		version, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse migration version for %q: %w", file, err)
		}
		body, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read migration %q: %w", file, err)
		}

		item, ok := byVersion[version]
		if !ok {
			item = &migration{Version: version, Name: parts[2]}
			byVersion[version] = item
		}
		if parts[3] == "up" {
			item.UpSQL = string(body)
		} else {
			item.DownSQL = string(body)
		}
	}

	out := make([]migration, 0, len(byVersion))
	for _, item := range byVersion {
		switch {
		case strings.TrimSpace(item.UpSQL) == "":
			return nil, fmt.Errorf("migration %d missing up SQL", item.Version)
		case strings.TrimSpace(item.DownSQL) == "":
			return nil, fmt.Errorf("migration %d missing down SQL", item.Version)
		}
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
