package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
	"github.com/TarasYkv/shop-mirror-daemon/app/repo"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
)

const (
	manifestName  = "manifest.json"
	sidecarSuffix = ".manifest.json"
	assetsDir     = "assets"
	partSuffix    = ".part"
)

var (
	unsafeAssetName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
	assetExt        = regexp.MustCompile(`^\.[a-z0-9]{1,5}$`)
)

// exportItem is one entry of a <category>.json document.
type exportItem struct {
	ID         int64           `json:"id"`
	ExternalID string          `json:"external_id"`
	Title      string          `json:"title"`
	ParentID   string          `json:"parent_id,omitempty"`
	ImageURL   string          `json:"image_url,omitempty"`
	Asset      string          `json:"asset,omitempty"`
	CreatedAt  int64           `json:"created_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Exporter bundles a run into a zip archive, applies the retention rules to older archives and
// mirrors new archives to S3 when a client is configured.
type Exporter struct {
	store   repo.SnapshotStore
	storage repo.ExportRepository
	s3      S3ClientRepository
	rules   []Rule
	now     func() time.Time
	logger  *zap.SugaredLogger
}

// NewExporter parses evictionPolicy, e.g. "5/delete" or "1d/7d,30d/delete". An empty policy keeps every archive.
// s3 may be nil.
func NewExporter(store repo.SnapshotStore, storage repo.ExportRepository, s3 S3ClientRepository,
	evictionPolicy string, logger *zap.SugaredLogger) (*Exporter, error) {
	var rules []Rule
	if strings.TrimSpace(evictionPolicy) != "" {
		var err error
		if rules, err = parseRules(evictionPolicy); err != nil {
			return nil, fmt.Errorf("invalid export eviction policy: %w", err)
		}
	}
	return &Exporter{
		store:   store,
		storage: storage,
		s3:      s3,
		rules:   rules,
		now:     time.Now,
		logger:  logger.With(zap.String("component", "export")),
	}, nil
}

// Export writes the archive of run and reports whether it was uploaded to S3.
func (x *Exporter) Export(ctx context.Context, run entity.BackupRun) (entity.ExportArchive, bool, error) {
	archive, err := x.storage.OpenArchive(run.Shop, run.ID)
	if err != nil {
		return entity.ExportArchive{}, false, err
	}
	part := archive.Path + partSuffix
	manifest, err := x.write(ctx, run, part)
	if err != nil {
		_ = os.Remove(part)
		return entity.ExportArchive{}, false, err
	}
	if err := os.Rename(part, archive.Path); err != nil {
		_ = os.Remove(part)
		return entity.ExportArchive{}, false, fmt.Errorf("failed to finalize archive %s: %w", archive.Name, err)
	}
	if info, err := os.Stat(archive.Path); err == nil {
		archive.Size = info.Size()
	}
	x.logger.Infow("archive written", "run", run.ID, "archive", archive.Name, "size", archive.Size)

	sidecar := sidecarPath(archive)
	if err := writeSidecar(sidecar, manifest); err != nil {
		return archive, false, err
	}

	x.applyRetention(ctx, archive.Name)

	if x.s3 == nil {
		return archive, false, nil
	}
	if err := x.s3.UploadFiles(ctx, archive.Shop, archive.Path, sidecar); err != nil {
		return archive, false, fmt.Errorf("failed to upload archive %s to s3: %w", archive.Name, err)
	}
	return archive, true, nil
}

func (x *Exporter) write(ctx context.Context, run entity.BackupRun, dest string) (manifest entity.ExportManifest, err error) {
	f, err := os.Create(dest)
	if err != nil {
		return manifest, fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close archive: %w", cerr)
		}
	}()

	zw := zip.NewWriter(f)
	manifest = entity.ExportManifest{
		RunID:      run.ID,
		Shop:       run.Shop,
		Status:     run.Status,
		CreatedAt:  run.CreatedAt,
		ExportedAt: x.now().UnixMilli(),
		TotalSize:  run.TotalSize,
		Counts:     map[entity.ItemType]int{},
	}

	for _, t := range entity.AllItemTypes {
		items, err := x.store.ListItems(ctx, repo.ItemFilter{RunID: run.ID, Type: t})
		if err != nil {
			return manifest, err
		}
		if len(items) == 0 {
			continue
		}
		manifest.Counts[t] = len(items)

		docs := make([]exportItem, 0, len(items))
		for _, item := range items {
			doc := exportItem{
				ID:         item.ID,
				ExternalID: item.ExternalID,
				Title:      item.Title,
				ParentID:   item.ParentID,
				ImageURL:   item.ImageURL,
				CreatedAt:  item.CreatedAt,
				Payload:    item.RawPayload(),
			}
			if item.HasBlob() {
				name := assetName(item)
				if err := x.writeAsset(ctx, zw, name, item.BlobHash); err != nil {
					return manifest, err
				}
				doc.Asset = name
				manifest.Assets++
			}
			docs = append(docs, doc)
		}
		if err := writeJSON(zw, t.String()+".json", docs, false); err != nil {
			return manifest, err
		}
	}

	if err := writeJSON(zw, manifestName, manifest, true); err != nil {
		return manifest, err
	}
	if err := zw.Close(); err != nil {
		return manifest, fmt.Errorf("failed to finish archive: %w", err)
	}
	return manifest, nil
}

func (x *Exporter) writeAsset(ctx context.Context, zw *zip.Writer, name, hash string) error {
	data, err := x.store.LoadBlob(ctx, hash)
	if err != nil {
		return err
	}
	// images are already compressed
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store, Modified: x.now()})
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// writeSidecar stores the manifest next to the archive so it can be read without unpacking.
func writeSidecar(dest string, manifest entity.ExportManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest sidecar: %w", err)
	}
	return nil
}

func sidecarPath(a entity.ExportArchive) string {
	return a.Path + sidecarSuffix
}

// writeJSON adds one JSON document to the archive. Category documents are written compact and
// unescaped so every payload keeps the bytes captured at backup time.
func writeJSON(zw *zip.Writer, name string, v any, indent bool) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// assetName is assets/<type>/<external id>_<hash prefix><ext>.
func assetName(item entity.SnapshotItem) string {
	ext := strings.ToLower(path.Ext(imageFileName(item.ImageURL)))
	if !assetExt.MatchString(ext) {
		ext = ".bin"
	}
	hash := item.BlobHash
	if len(hash) > 12 {
		hash = hash[:12]
	}
	id := unsafeAssetName.ReplaceAllString(item.ExternalID, "-")
	return path.Join(assetsDir, item.Type.String(), id+"_"+hash+ext)
}

// applyRetention evicts archives dropped by the rules. The archive just written is always kept.
func (x *Exporter) applyRetention(ctx context.Context, keep string) {
	if len(x.rules) == 0 {
		return
	}
	archives, err := x.storage.List("")
	if err != nil {
		if !errors.Is(err, repo.ErrNoArchives) {
			x.logger.Errorw("failed to list archives for retention", "error", err)
		}
		return
	}
	for _, a := range evict(archives, x.rules, x.now()) {
		if a.Name == keep {
			continue
		}
		x.Remove(ctx, a)
	}
}

// Remove deletes an archive locally and from S3.
func (x *Exporter) Remove(ctx context.Context, a entity.ExportArchive) {
	if err := x.storage.Evict(a.Name); err != nil {
		x.logger.Errorw("failed to evict archive", "archive", a.Name, "error", err)
		return
	}
	if err := os.Remove(sidecarPath(a)); err != nil && !os.IsNotExist(err) {
		x.logger.Warnw("failed to remove manifest sidecar", "archive", a.Name, "error", err)
	}
	x.logger.Infow("archive evicted", "archive", a.Name)
	// the prefix covers the sidecar too
	if x.s3 == nil {
		return
	}
	if err := x.s3.DeletePrefix(ctx, ObjectKey(a)); err != nil {
		x.logger.Errorw("failed to delete archive from s3", "archive", a.Name, "error", err)
	}
}

// ObjectKey is the S3 key an archive is uploaded under.
func ObjectKey(a entity.ExportArchive) string {
	return path.Join(a.Shop, a.Name)
}
