package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
)

const ArchiveNameFormat = "20060102T150405"
const archiveExt = ".zip"

var ErrNoArchives = errors.New("no archives found")

// ExportRepository manages export archives under a local root folder.
type ExportRepository interface {
	OpenArchive(shop string, runID string) (entity.ExportArchive, error)
	GetArchive(name string) (entity.ExportArchive, error)
	List(runID string) ([]entity.ExportArchive, error)
	Evict(name string) error
	GetAsStream(name string) (*os.File, error)
}

type StorageRepo struct {
	root                  string
	archiveNameMatcher    *regexp.Regexp
	unsafeShopNameMatcher *regexp.Regexp
	now                   func() time.Time
}

func NewStorageRepo(root string) ExportRepository {
	return &StorageRepo{
		root:                  root,
		archiveNameMatcher:    regexp.MustCompile(`(?i)^\d{8}T\d{4,6}$`),
		unsafeShopNameMatcher: regexp.MustCompile(`[^a-zA-Z0-9.-]+`),
		now:                   time.Now,
	}
}

// OpenArchive reserves a fresh archive path; the file is created by the caller.
func (v *StorageRepo) OpenArchive(shop string, runID string) (entity.ExportArchive, error) {
	if err := os.MkdirAll(v.root, 0o755); err != nil {
		return entity.ExportArchive{}, fmt.Errorf("failed to create export root %s: %w", v.root, err)
	}
	shop = v.unsafeShopNameMatcher.ReplaceAllString(shop, "-")
	if shop == "" {
		shop = "shop"
	}
	ts := v.now().UTC()
	name := fmt.Sprintf("%s_%s_%s%s", shop, runID, ts.Format(ArchiveNameFormat), archiveExt)
	return entity.ExportArchive{
		Name:      name,
		Path:      filepath.Join(v.root, name),
		RunID:     runID,
		Shop:      shop,
		TimeStamp: ts.Truncate(time.Second).UnixMilli(),
	}, nil
}

func (v *StorageRepo) GetArchive(name string) (entity.ExportArchive, error) {
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return entity.ExportArchive{}, fmt.Errorf("invalid archive name %q: %w", name, ErrNotFound)
	}
	archive, ok := v.parseName(name)
	if !ok {
		return entity.ExportArchive{}, fmt.Errorf("archive %s: %w", name, ErrNotFound)
	}
	info, err := os.Stat(archive.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return entity.ExportArchive{}, fmt.Errorf("archive %s: %w", name, ErrNotFound)
		}
		return entity.ExportArchive{}, fmt.Errorf("failed to stat archive %s: %w", name, err)
	}
	archive.Size = info.Size()
	return archive, nil
}

// List returns archives sorted oldest first, optionally limited to one run.
func (v *StorageRepo) List(runID string) ([]entity.ExportArchive, error) {
	if !v.exists(v.root) {
		return []entity.ExportArchive{}, ErrNoArchives
	}
	files, err := os.ReadDir(v.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read dir %s: %v", v.root, err)
	}
	archives := []entity.ExportArchive{}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		archive, ok := v.parseName(file.Name())
		if !ok || (runID != "" && archive.RunID != runID) {
			continue
		}
		if info, err := file.Info(); err == nil {
			archive.Size = info.Size()
		}
		archives = append(archives, archive)
	}
	sort.Slice(archives, func(i, j int) bool {
		if archives[i].TimeStamp == archives[j].TimeStamp {
			return archives[i].Name < archives[j].Name
		}
		return archives[i].TimeStamp < archives[j].TimeStamp
	})
	return archives, nil
}

func (v *StorageRepo) Evict(name string) error {
	archive, err := v.GetArchive(name)
	if err != nil {
		return err
	}
	if err := os.Remove(archive.Path); err != nil {
		return fmt.Errorf("failed to remove %s: %v", archive.Path, err)
	}
	return nil
}

func (v *StorageRepo) GetAsStream(name string) (*os.File, error) {
	archive, err := v.GetArchive(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(archive.Path)
	if err != nil {
		return nil, fmt.Errorf("error opening archive file: %v", err)
	}
	return file, nil
}

// parseName splits "<shop>_<run id>_<timestamp>.zip". Shop names may contain underscores, so it parses from the right.
func (v *StorageRepo) parseName(name string) (entity.ExportArchive, bool) {
	if !strings.HasSuffix(name, archiveExt) {
		return entity.ExportArchive{}, false
	}
	parts := strings.Split(strings.TrimSuffix(name, archiveExt), "_")
	if len(parts) < 3 {
		return entity.ExportArchive{}, false
	}
	dateStr := parts[len(parts)-1]
	if !v.archiveNameMatcher.MatchString(dateStr) {
		return entity.ExportArchive{}, false
	}
	t, err := time.Parse(ArchiveNameFormat, dateStr)
	if err != nil {
		return entity.ExportArchive{}, false
	}
	return entity.ExportArchive{
		Name:      name,
		Path:      filepath.Join(v.root, name),
		RunID:     parts[len(parts)-2],
		Shop:      strings.Join(parts[:len(parts)-2], "_"),
		TimeStamp: t.UnixMilli(),
	}, true
}

func (v *StorageRepo) exists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
