package repo

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/TarasYkv/shop-mirror-daemon/app/db"
	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
	"github.com/jmoiron/sqlx"
	"github.com/zeebo/blake3"
)

// SnapshotStore persists backup runs and their immutable items.
type SnapshotStore interface {
	CreateRun(ctx context.Context, run entity.BackupRun) error
	UpdateRun(ctx context.Context, run entity.BackupRun) error
	UpdateRunProgress(ctx context.Context, runID string, step string, message string) error
	GetRun(ctx context.Context, runID string) (entity.BackupRun, error)
	ListRuns(ctx context.Context, shop string) ([]entity.BackupRun, error)
	DeleteRun(ctx context.Context, runID string) error
	RunSize(ctx context.Context, runID string) (int64, error)

	SaveItem(ctx context.Context, item entity.SnapshotItem) (int64, error)
	GetItem(ctx context.Context, itemID int64) (entity.SnapshotItem, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]entity.SnapshotItem, error)
	CountItems(ctx context.Context, runID string, itemType entity.ItemType) (int, error)
	LoadBlob(ctx context.Context, hash string) ([]byte, error)
}

// ItemFilter narrows ListItems. Zero fields do not filter; a non-nil empty ParentID matches top level items.
type ItemFilter struct {
	RunID    string
	Type     entity.ItemType
	ParentID *string
	IDs      []int64
}

type SnapshotRepo struct {
	db *db.Db
}

func NewSnapshotRepo(db *db.Db) SnapshotStore {
	return &SnapshotRepo{db: db}
}

const runColumns = `id, shop,
	include_products, include_product_images, include_blogs, include_blog_images, include_collections,
	include_pages, include_menus, include_redirects, include_metafields, include_discounts,
	include_orders, include_customers, status,
	products_count, product_images_count, blogs_count, blog_posts_count, blog_images_count,
	collections_count, pages_count, menus_count, redirects_count, metafields_count, discounts_count,
	orders_count, customers_count, total_size, current_step, progress_message, error_message,
	created_at, started_at, completed_at`

func (s *SnapshotRepo) CreateRun(ctx context.Context, run entity.BackupRun) error {
	if run.CreatedAt == 0 {
		run.CreatedAt = entity.NowMillis()
	}
	query := `insert into backup_runs (` + runColumns + `) values (
		:id, :shop,
		:include_products, :include_product_images, :include_blogs, :include_blog_images, :include_collections,
		:include_pages, :include_menus, :include_redirects, :include_metafields, :include_discounts,
		:include_orders, :include_customers, :status,
		:products_count, :product_images_count, :blogs_count, :blog_posts_count, :blog_images_count,
		:collections_count, :pages_count, :menus_count, :redirects_count, :metafields_count, :discounts_count,
		:orders_count, :customers_count, :total_size, :current_step, :progress_message, :error_message,
		:created_at, :started_at, :completed_at)`
	if _, err := s.db.WriterDB.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("error creating run %s: %w", run.ID, err)
	}
	return nil
}

// UpdateRun rewrites the mutable part of a run. Selection and creation time never change.
func (s *SnapshotRepo) UpdateRun(ctx context.Context, run entity.BackupRun) error {
	query := `update backup_runs set
		status = :status,
		products_count = :products_count, product_images_count = :product_images_count,
		blogs_count = :blogs_count, blog_posts_count = :blog_posts_count, blog_images_count = :blog_images_count,
		collections_count = :collections_count, pages_count = :pages_count, menus_count = :menus_count,
		redirects_count = :redirects_count, metafields_count = :metafields_count,
		discounts_count = :discounts_count, orders_count = :orders_count, customers_count = :customers_count,
		total_size = :total_size, current_step = :current_step, progress_message = :progress_message,
		error_message = :error_message, started_at = :started_at, completed_at = :completed_at
		where id = :id`
	res, err := s.db.WriterDB.NamedExecContext(ctx, query, run)
	if err != nil {
		return fmt.Errorf("error updating run %s: %w", run.ID, err)
	}
	return expectRow(res, "run "+run.ID)
}

func (s *SnapshotRepo) UpdateRunProgress(ctx context.Context, runID string, step string, message string) error {
	res, err := s.db.WriterDB.ExecContext(ctx,
		`update backup_runs set current_step = $1, progress_message = $2 where id = $3`, step, message, runID)
	if err != nil {
		return fmt.Errorf("error updating progress of run %s: %w", runID, err)
	}
	return expectRow(res, "run "+runID)
}

func (s *SnapshotRepo) GetRun(ctx context.Context, runID string) (entity.BackupRun, error) {
	var run entity.BackupRun
	query := `select ` + runColumns + ` from backup_runs where id = $1`
	err := s.db.ReaderDB.QueryRowxContext(ctx, query, runID).StructScan(&run)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.BackupRun{}, fmt.Errorf("no run found with id %s: %w", runID, ErrNotFound)
		}
		return entity.BackupRun{}, fmt.Errorf("error getting run: %w", err)
	}
	return run, nil
}

func (s *SnapshotRepo) ListRuns(ctx context.Context, shop string) ([]entity.BackupRun, error) {
	query := `select ` + runColumns + ` from backup_runs`
	var args []any
	if shop != "" {
		query += ` where shop = $1`
		args = append(args, shop)
	}
	query += ` order by created_at desc, id`
	runs := []entity.BackupRun{}
	if err := s.db.ReaderDB.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("error listing runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes the run with its items and drops blobs no longer referenced by any item.
func (s *SnapshotRepo) DeleteRun(ctx context.Context, runID string) error {
	tx, err := s.db.WriterDB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from snapshot_items where run_id = $1`, runID); err != nil {
		return fmt.Errorf("error deleting items of run %s: %w", runID, err)
	}
	res, err := tx.ExecContext(ctx, `delete from backup_runs where id = $1`, runID)
	if err != nil {
		return fmt.Errorf("error deleting run %s: %w", runID, err)
	}
	if err := expectRow(res, "run "+runID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`delete from blobs where hash not in (select distinct blob_hash from snapshot_items where blob_hash != '')`); err != nil {
		return fmt.Errorf("error collecting orphan blobs: %w", err)
	}
	return tx.Commit()
}

func (s *SnapshotRepo) RunSize(ctx context.Context, runID string) (int64, error) {
	var size int64
	query := `select coalesce(sum(length(cast(payload as blob)) + blob_size), 0) from snapshot_items where run_id = $1`
	if err := s.db.WriterDB.GetContext(ctx, &size, query, runID); err != nil {
		return 0, fmt.Errorf("error computing size of run %s: %w", runID, err)
	}
	return size, nil
}

// SaveItem inserts an item; its blob, if any, is stored once per distinct content hash.
func (s *SnapshotRepo) SaveItem(ctx context.Context, item entity.SnapshotItem) (int64, error) {
	if item.CreatedAt == 0 {
		item.CreatedAt = entity.NowMillis()
	}
	tx, err := s.db.WriterDB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if len(item.Blob) > 0 {
		item.BlobHash = HashBlob(item.Blob)
		item.BlobSize = int64(len(item.Blob))
		if _, err := tx.ExecContext(ctx,
			`insert into blobs (hash, data, size) values ($1, $2, $3) on conflict(hash) do nothing`,
			item.BlobHash, item.Blob, item.BlobSize); err != nil {
			return 0, fmt.Errorf("error storing blob: %w", err)
		}
	}

	res, err := tx.NamedExecContext(ctx, `insert into snapshot_items
		(run_id, item_type, external_id, title, payload, image_url, parent_id, blob_hash, blob_size, created_at)
		values (:run_id, :item_type, :external_id, :title, :payload, :image_url, :parent_id, :blob_hash, :blob_size, :created_at)`,
		item)
	if err != nil {
		return 0, fmt.Errorf("error saving %s %s: %w", item.Type, item.ExternalID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("error reading item id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing item: %w", err)
	}
	return id, nil
}

const itemColumns = `id, run_id, item_type, external_id, title, payload, image_url, parent_id, blob_hash, blob_size, created_at`

func (s *SnapshotRepo) GetItem(ctx context.Context, itemID int64) (entity.SnapshotItem, error) {
	var item entity.SnapshotItem
	err := s.db.ReaderDB.QueryRowxContext(ctx, `select `+itemColumns+` from snapshot_items where id = $1`, itemID).StructScan(&item)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.SnapshotItem{}, fmt.Errorf("no item found with id %d: %w", itemID, ErrNotFound)
		}
		return entity.SnapshotItem{}, fmt.Errorf("error getting item: %w", err)
	}
	return item, nil
}

func (s *SnapshotRepo) ListItems(ctx context.Context, filter ItemFilter) ([]entity.SnapshotItem, error) {
	var (
		where []string
		args  []any
	)
	if filter.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Type != "" {
		where = append(where, "item_type = ?")
		args = append(args, filter.Type)
	}
	if filter.ParentID != nil {
		where = append(where, "parent_id = ?")
		args = append(args, *filter.ParentID)
	}
	if len(filter.IDs) > 0 {
		where = append(where, "id in (?)")
		args = append(args, filter.IDs)
	}
	query := `select ` + itemColumns + ` from snapshot_items`
	if len(where) > 0 {
		query += ` where ` + strings.Join(where, " and ")
	}
	query += ` order by id`

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error building item query: %w", err)
	}
	query = s.db.ReaderDB.Rebind(query)

	items := []entity.SnapshotItem{}
	if err := s.db.ReaderDB.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("error listing items: %w", err)
	}
	return items, nil
}

func (s *SnapshotRepo) CountItems(ctx context.Context, runID string, itemType entity.ItemType) (int, error) {
	var n int
	err := s.db.WriterDB.GetContext(ctx, &n,
		`select count(*) from snapshot_items where run_id = $1 and item_type = $2`, runID, itemType)
	if err != nil {
		return 0, fmt.Errorf("error counting %s items: %w", itemType, err)
	}
	return n, nil
}

func (s *SnapshotRepo) LoadBlob(ctx context.Context, hash string) ([]byte, error) {
	var data []byte
	err := s.db.ReaderDB.GetContext(ctx, &data, `select data from blobs where hash = $1`, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no blob %s: %w", hash, ErrNotFound)
		}
		return nil, fmt.Errorf("error loading blob: %w", err)
	}
	return data, nil
}

// HashBlob returns the hex BLAKE3 digest used as the blob key.
func HashBlob(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func expectRow(res sql.Result, what string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows for %s: %w", what, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
