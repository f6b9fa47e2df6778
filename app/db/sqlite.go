package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type Db struct {
	WriterDB *sqlx.DB
	ReaderDB *sqlx.DB
}

func NewConnection(dbPath string) (*Db, error) {
	if dbPath == "" {
		dbPath = "./mirror.db"
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db dir %s: %w", dir, err)
		}
	}
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db1, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// sqlite allows a single writer; serialize on one connection
	db1.SetMaxOpenConns(1)

	db2, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		_ = db1.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err = db1.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db1.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := MigrateSchema(db1); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := db1.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := db2.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Db{
		WriterDB: db1,
		ReaderDB: db2,
	}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS backup_runs (
	id                     TEXT PRIMARY KEY,
	shop                   TEXT NOT NULL DEFAULT '',
	include_products       INTEGER NOT NULL DEFAULT 0,
	include_product_images INTEGER NOT NULL DEFAULT 0,
	include_blogs          INTEGER NOT NULL DEFAULT 0,
	include_blog_images    INTEGER NOT NULL DEFAULT 0,
	include_collections    INTEGER NOT NULL DEFAULT 0,
	include_pages          INTEGER NOT NULL DEFAULT 0,
	include_menus          INTEGER NOT NULL DEFAULT 0,
	include_redirects      INTEGER NOT NULL DEFAULT 0,
	include_metafields     INTEGER NOT NULL DEFAULT 0,
	include_discounts      INTEGER NOT NULL DEFAULT 0,
	include_orders         INTEGER NOT NULL DEFAULT 0,
	include_customers      INTEGER NOT NULL DEFAULT 0,
	status                 TEXT NOT NULL,
	products_count         INTEGER NOT NULL DEFAULT 0,
	product_images_count   INTEGER NOT NULL DEFAULT 0,
	blogs_count            INTEGER NOT NULL DEFAULT 0,
	blog_posts_count       INTEGER NOT NULL DEFAULT 0,
	blog_images_count      INTEGER NOT NULL DEFAULT 0,
	collections_count      INTEGER NOT NULL DEFAULT 0,
	pages_count            INTEGER NOT NULL DEFAULT 0,
	menus_count            INTEGER NOT NULL DEFAULT 0,
	redirects_count        INTEGER NOT NULL DEFAULT 0,
	metafields_count       INTEGER NOT NULL DEFAULT 0,
	discounts_count        INTEGER NOT NULL DEFAULT 0,
	orders_count           INTEGER NOT NULL DEFAULT 0,
	customers_count        INTEGER NOT NULL DEFAULT 0,
	total_size             INTEGER NOT NULL DEFAULT 0,
	current_step           TEXT NOT NULL DEFAULT '',
	progress_message       TEXT NOT NULL DEFAULT '',
	error_message          TEXT NOT NULL DEFAULT '',
	created_at             INTEGER NOT NULL DEFAULT 0,
	started_at             INTEGER NOT NULL DEFAULT 0,
	completed_at           INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS blobs (
	hash TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	size INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_items (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL REFERENCES backup_runs(id) ON DELETE CASCADE,
	item_type   TEXT NOT NULL,
	external_id TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	payload     TEXT NOT NULL DEFAULT '',
	image_url   TEXT NOT NULL DEFAULT '',
	parent_id   TEXT NOT NULL DEFAULT '',
	blob_hash   TEXT NOT NULL DEFAULT '',
	blob_size   INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_items_run_type ON snapshot_items(run_id, item_type);
CREATE INDEX IF NOT EXISTS idx_items_run_parent ON snapshot_items(run_id, parent_id);
CREATE INDEX IF NOT EXISTS idx_items_blob ON snapshot_items(blob_hash);

CREATE TABLE IF NOT EXISTS restore_jobs (
	id               TEXT PRIMARY KEY,
	run_id           TEXT NOT NULL,
	policy           TEXT NOT NULL,
	categories       TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	success_count    INTEGER NOT NULL DEFAULT 0,
	exists_count     INTEGER NOT NULL DEFAULT 0,
	failed_count     INTEGER NOT NULL DEFAULT 0,
	skipped_count    INTEGER NOT NULL DEFAULT 0,
	current_step     TEXT NOT NULL DEFAULT '',
	progress_message TEXT NOT NULL DEFAULT '',
	error_message    TEXT NOT NULL DEFAULT '',
	created_at       INTEGER NOT NULL DEFAULT 0,
	started_at       INTEGER NOT NULL DEFAULT 0,
	completed_at     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS restore_logs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id          TEXT NOT NULL,
	run_id          TEXT NOT NULL,
	item_id         INTEGER NOT NULL,
	item_type       TEXT NOT NULL,
	external_id     TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	new_external_id TEXT NOT NULL DEFAULT '',
	message         TEXT NOT NULL DEFAULT '',
	created_at      INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_logs_job ON restore_logs(job_id);
`

func (db *Db) Close() error {
	var errs []error
	err := db.WriterDB.Close()
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to close writer: %v", err))
	}
	err = db.ReaderDB.Close()
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to close reader: %v", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// MigrateSchema adds columns introduced after the first release. Re-running it is harmless.
func MigrateSchema(db1 *sqlx.DB) error {
	columns := []struct {
		table, column, ddl string
	}{
		{"restore_logs", "title", "TEXT NOT NULL DEFAULT ''"},
	}
	for _, c := range columns {
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", c.table, c.column, c.ddl)
		if _, err := db1.Exec(stmt); err != nil {
			if !strings.Contains(err.Error(), "duplicate column name") {
				return fmt.Errorf("failed to add %s.%s column: %v", c.table, c.column, err)
			}
		}
	}
	return nil
}
