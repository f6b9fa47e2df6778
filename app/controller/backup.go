package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
	"github.com/TarasYkv/shop-mirror-daemon/app/metrics"
	"github.com/TarasYkv/shop-mirror-daemon/app/repo"
	"github.com/TarasYkv/shop-mirror-daemon/app/shopify"
	"go.uber.org/zap"
)

const (
	maxErrorLength     = 500
	maxProgressTitle   = 50
	maxStoredCodePoint = 0xFFFF
)

type backupStep struct {
	itemType entity.ItemType
	// categories whose counters the step fills
	counts []entity.ItemType
	run    func(j *backupJob, ctx context.Context, t entity.ItemType) error
}

// backupSteps is the fixed category order of a run.
var backupSteps = []backupStep{
	{entity.ItemProduct, []entity.ItemType{entity.ItemProduct, entity.ItemProductImage}, (*backupJob).products},
	{entity.ItemCollection, []entity.ItemType{entity.ItemCollection}, (*backupJob).flat},
	{entity.ItemPage, []entity.ItemType{entity.ItemPage}, (*backupJob).flat},
	{entity.ItemBlog, []entity.ItemType{entity.ItemBlog, entity.ItemBlogPost, entity.ItemBlogImage}, (*backupJob).blogs},
	{entity.ItemMenu, []entity.ItemType{entity.ItemMenu}, (*backupJob).flat},
	{entity.ItemRedirect, []entity.ItemType{entity.ItemRedirect}, (*backupJob).flat},
	{entity.ItemMetafield, []entity.ItemType{entity.ItemMetafield}, (*backupJob).flat},
	{entity.ItemDiscount, []entity.ItemType{entity.ItemDiscount}, (*backupJob).flat},
	{entity.ItemOrder, []entity.ItemType{entity.ItemOrder}, (*backupJob).flat},
	{entity.ItemCustomer, []entity.ItemType{entity.ItemCustomer}, (*backupJob).flat},
}

// BackupEngine captures the selected categories of a shop into the snapshot store.
type BackupEngine struct {
	store  repo.SnapshotStore
	source *ShopSource
	client shopify.Doer
	logger *zap.SugaredLogger
}

func NewBackupEngine(store repo.SnapshotStore, source *ShopSource, client shopify.Doer, logger *zap.SugaredLogger) *BackupEngine {
	return &BackupEngine{
		store:  store,
		source: source,
		client: client,
		logger: logger.With(zap.String("component", "backup")),
	}
}

type backupJob struct {
	*BackupEngine
	run    entity.BackupRun
	logger *zap.SugaredLogger
}

// Run executes one backup run to a terminal status. It returns false with the stored error message
// when the run failed.
func (e *BackupEngine) Run(ctx context.Context, run entity.BackupRun) (ok bool, message string) {
	j := &backupJob{BackupEngine: e, run: run, logger: e.logger.With(zap.String("run", run.ID))}

	defer func() {
		if r := recover(); r != nil {
			j.logger.Errorw("backup panicked", "panic", r, "stack", string(debug.Stack()))
			ok, message = false, j.fail(ctx, fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	j.run.Status = entity.RunRunning
	j.run.StartedAt = entity.NowMillis()
	j.run.ErrorMessage = ""
	if err := e.store.UpdateRun(ctx, j.run); err != nil {
		return false, j.fail(ctx, err)
	}
	j.logger.Infow("backup started", "shop", run.Shop)

	for _, step := range backupSteps {
		if !j.run.Includes(step.itemType) {
			continue
		}
		j.run.CurrentStep = step.itemType.Label()
		if err := step.run(j, ctx, step.itemType); err != nil {
			return false, j.fail(ctx, err)
		}
		if err := j.updateCounters(ctx, step.counts); err != nil {
			return false, j.fail(ctx, err)
		}
	}

	j.run.Status = entity.RunCompleted
	j.run.CurrentStep = ""
	j.run.ProgressMessage = ""
	j.run.CompletedAt = entity.NowMillis()
	if err := e.store.UpdateRun(ctx, j.run); err != nil {
		return false, j.fail(ctx, err)
	}
	j.logger.Infow("backup completed", "items", j.run.Total(), "size", j.run.TotalSize)
	return true, ""
}

func (j *backupJob) fail(ctx context.Context, err error) string {
	msg := truncate(err.Error(), maxErrorLength)
	j.logger.Errorw("backup failed", "error", err)
	j.run.Status = entity.RunFailed
	j.run.ErrorMessage = msg
	j.run.CompletedAt = entity.NowMillis()
	if uerr := j.store.UpdateRun(context.WithoutCancel(ctx), j.run); uerr != nil {
		j.logger.Errorw("failed to persist failed run", "error", uerr)
	}
	return msg
}

func (j *backupJob) updateCounters(ctx context.Context, types []entity.ItemType) error {
	for _, t := range types {
		n, err := j.store.CountItems(ctx, j.run.ID, t)
		if err != nil {
			return err
		}
		j.run.Set(t, n)
	}
	size, err := j.store.RunSize(ctx, j.run.ID)
	if err != nil {
		return err
	}
	j.run.TotalSize = size
	return j.store.UpdateRun(ctx, j.run)
}

func (j *backupJob) progress(ctx context.Context, t entity.ItemType, index, total int, title string) error {
	msg := fmt.Sprintf("%s %d/%d: %s", t.Label(), index, total, truncate(SanitizeTitle(title), maxProgressTitle))
	j.run.ProgressMessage = msg
	return j.store.UpdateRunProgress(ctx, j.run.ID, j.run.CurrentStep, msg)
}

func (j *backupJob) save(ctx context.Context, item entity.SnapshotItem) error {
	item.RunID = j.run.ID
	item.Title = SanitizeTitle(item.Title)
	if _, err := j.store.SaveItem(ctx, item); err != nil {
		return err
	}
	metrics.ReportSnapshotItem(item.Type.String(), int64(len(item.Payload)+len(item.Blob)))
	return nil
}

func (j *backupJob) saveEntity(ctx context.Context, t entity.ItemType, e shopify.Entity, parentID string) error {
	return j.save(ctx, entity.SnapshotItem{
		Type:       t,
		ExternalID: e.ExternalID(),
		Title:      e.DisplayTitle(),
		Payload:    string(e.Raw()),
		ImageURL:   e.ImageURL(),
		ParentID:   parentID,
	})
}

func (j *backupJob) flat(ctx context.Context, t entity.ItemType) error {
	raws, err := j.source.Raw(ctx, t)
	if err != nil {
		return err
	}
	for i, raw := range raws {
		e, err := shopify.Decode(t, raw)
		if err != nil {
			return err
		}
		if err := j.saveEntity(ctx, t, e, ""); err != nil {
			return err
		}
		if err := j.progress(ctx, t, i+1, len(raws), e.DisplayTitle()); err != nil {
			return err
		}
	}
	return nil
}

func (j *backupJob) products(ctx context.Context, t entity.ItemType) error {
	raws, err := j.source.Raw(ctx, t)
	if err != nil {
		return err
	}
	withImages := j.run.Includes(entity.ItemProductImage)
	for i, raw := range raws {
		e, err := shopify.Decode(t, raw)
		if err != nil {
			return err
		}
		if err := j.saveEntity(ctx, t, e, ""); err != nil {
			return err
		}
		if withImages {
			if err := j.productImages(ctx, e.ExternalID(), raw); err != nil {
				return err
			}
		}
		if err := j.progress(ctx, t, i+1, len(raws), e.DisplayTitle()); err != nil {
			return err
		}
	}
	return nil
}

func (j *backupJob) productImages(ctx context.Context, productID string, raw json.RawMessage) error {
	var envelope struct {
		Images []json.RawMessage `json:"images"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to decode images of product %s: %w", productID, err)
	}
	for _, imgRaw := range envelope.Images {
		e, err := shopify.Decode(entity.ItemProductImage, imgRaw)
		if err != nil {
			return err
		}
		blob, ok := j.download(ctx, e.ImageURL())
		if !ok {
			continue
		}
		item := entity.SnapshotItem{
			Type:       entity.ItemProductImage,
			ExternalID: e.ExternalID(),
			Title:      e.DisplayTitle(),
			Payload:    string(imgRaw),
			ImageURL:   e.ImageURL(),
			ParentID:   productID,
			Blob:       blob,
		}
		if err := j.save(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// blogs stores every blog followed by its posts, fetched per blog.
func (j *backupJob) blogs(ctx context.Context, t entity.ItemType) error {
	raws, err := j.source.Raw(ctx, t)
	if err != nil {
		return err
	}
	withImages := j.run.Includes(entity.ItemBlogImage)
	for i, raw := range raws {
		blog, err := shopify.Decode(t, raw)
		if err != nil {
			return err
		}
		if err := j.saveEntity(ctx, t, blog, ""); err != nil {
			return err
		}
		if err := j.progress(ctx, t, i+1, len(raws), blog.DisplayTitle()); err != nil {
			return err
		}

		posts, err := j.source.Articles(ctx, blog.ExternalID())
		if err != nil {
			return err
		}
		for k, postRaw := range posts {
			post, err := shopify.Decode(entity.ItemBlogPost, postRaw)
			if err != nil {
				return err
			}
			if err := j.saveEntity(ctx, entity.ItemBlogPost, post, blog.ExternalID()); err != nil {
				return err
			}
			if withImages {
				if err := j.blogImage(ctx, post); err != nil {
					return err
				}
			}
			if err := j.progress(ctx, entity.ItemBlogPost, k+1, len(posts), post.DisplayTitle()); err != nil {
				return err
			}
		}
	}
	return nil
}

// blogImage stores the cover of a post under the post id; posts carry at most one image.
func (j *backupJob) blogImage(ctx context.Context, post shopify.Entity) error {
	article, ok := post.(*shopify.Article)
	if !ok || article.Image == nil || article.Image.Src == "" {
		return nil
	}
	blob, ok := j.download(ctx, article.Image.Src)
	if !ok {
		return nil
	}
	payload, err := json.Marshal(article.Image)
	if err != nil {
		return err
	}
	title := article.Title
	if article.Image.Alt != nil && *article.Image.Alt != "" {
		title = *article.Image.Alt
	}
	return j.save(ctx, entity.SnapshotItem{
		Type:       entity.ItemBlogImage,
		ExternalID: article.ExternalID(),
		Title:      title,
		Payload:    string(payload),
		ImageURL:   article.Image.Src,
		ParentID:   article.ExternalID(),
		Blob:       blob,
	})
}

// download is best effort; a failed image never fails the owning item.
func (j *backupJob) download(ctx context.Context, src string) ([]byte, bool) {
	if src == "" {
		return nil, false
	}
	data, err := shopify.Download(ctx, j.client, src)
	if err != nil {
		j.logger.Warnw("image download failed, skipping", "src", src, "error", err)
		metrics.ReportImageDownloadFailure()
		return nil, false
	}
	return data, true
}

// SanitizeTitle drops code points outside the basic multilingual plane and invalid UTF-8 bytes,
// then trims the result.
func SanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for len(title) > 0 {
		r, size := utf8.DecodeRuneInString(title)
		title = title[size:]
		if r > maxStoredCodePoint || (r == utf8.RuneError && size == 1) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
