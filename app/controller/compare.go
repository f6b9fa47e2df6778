package controller

import (
	"context"
	"fmt"
	"sort"

	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
	"github.com/TarasYkv/shop-mirror-daemon/app/repo"
	"github.com/TarasYkv/shop-mirror-daemon/app/shopify"
	"go.uber.org/zap"
)

var compareOrder = map[entity.CompareStatus]int{
	entity.CompareDeleted: 0,
	entity.CompareNew:     1,
	entity.CompareChanged: 2,
}

// CompareEngine diffs a stored snapshot against the live shop. It only reads.
type CompareEngine struct {
	store  repo.SnapshotStore
	source LiveSource
	logger *zap.SugaredLogger
}

func NewCompareEngine(store repo.SnapshotStore, source LiveSource, logger *zap.SugaredLogger) *CompareEngine {
	return &CompareEngine{store: store, source: source, logger: logger.With(zap.String("component", "compare"))}
}

// CompareAll compares every category captured by the run. Image categories are covered by their owners.
func (c *CompareEngine) CompareAll(ctx context.Context, run entity.BackupRun) (map[entity.ItemType][]entity.CompareResult, error) {
	out := make(map[entity.ItemType][]entity.CompareResult)
	for _, t := range entity.AllItemTypes {
		if t.IsImage() || !run.Includes(t) {
			continue
		}
		results, err := c.CompareCategory(ctx, run, t)
		if err != nil {
			return nil, err
		}
		out[t] = results
	}
	return out, nil
}

func (c *CompareEngine) CompareCategory(ctx context.Context, run entity.BackupRun, itemType entity.ItemType) ([]entity.CompareResult, error) {
	if itemType.IsImage() {
		return []entity.CompareResult{}, nil
	}
	items, err := c.store.ListItems(ctx, repo.ItemFilter{RunID: run.ID, Type: itemType})
	if err != nil {
		return nil, err
	}
	live, err := c.source.Fetch(ctx, itemType)
	if err != nil {
		return nil, err
	}

	liveByID := make(map[string]shopify.Entity, len(live))
	for _, e := range live {
		liveByID[e.ExternalID()] = e
	}

	results := []entity.CompareResult{}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		seen[item.ExternalID] = struct{}{}
		snap, err := shopify.Decode(itemType, []byte(item.Payload))
		if err != nil {
			return nil, fmt.Errorf("snapshot item %d: %w", item.ID, err)
		}
		cur, ok := liveByID[item.ExternalID]
		if !ok {
			results = append(results, entity.CompareResult{
				Type:       itemType,
				ExternalID: item.ExternalID,
				Title:      item.Title,
				Status:     entity.CompareDeleted,
				Snapshot:   item.RawPayload(),
				ItemID:     item.ID,
			})
			continue
		}
		if ch := diff(snap, cur); len(ch) > 0 {
			results = append(results, entity.CompareResult{
				Type:       itemType,
				ExternalID: item.ExternalID,
				Title:      item.Title,
				Status:     entity.CompareChanged,
				Changes:    ch,
				Snapshot:   item.RawPayload(),
				Live:       cur.Raw(),
				ItemID:     item.ID,
			})
		}
	}
	for _, e := range live {
		if _, ok := seen[e.ExternalID()]; ok {
			continue
		}
		results = append(results, entity.CompareResult{
			Type:       itemType,
			ExternalID: e.ExternalID(),
			Title:      SanitizeTitle(e.DisplayTitle()),
			Status:     entity.CompareNew,
			Live:       e.Raw(),
		})
	}

	sortResults(results)
	c.logger.Debugw("category compared", "run", run.ID, "type", itemType, "snapshot", len(items), "live", len(live), "differences", len(results))
	return results, nil
}

func sortResults(results []entity.CompareResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Status != b.Status {
			return compareOrder[a.Status] < compareOrder[b.Status]
		}
		return lessID(a.ExternalID, b.ExternalID)
	})
}

// lessID orders numeric ids and GraphQL gids by their number and everything else lexically after them.
func lessID(a, b string) bool {
	na, okA := shopify.NumericID(a)
	nb, okB := shopify.NumericID(b)
	switch {
	case okA && okB:
		if na != nb {
			return na < nb
		}
	case okA:
		return true
	case okB:
		return false
	}
	return a < b
}

// Summarize counts results per category and status.
func Summarize(results map[entity.ItemType][]entity.CompareResult) map[entity.ItemType]map[entity.CompareStatus]int {
	out := make(map[entity.ItemType]map[entity.CompareStatus]int, len(results))
	for t, list := range results {
		counts := map[entity.CompareStatus]int{
			entity.CompareDeleted: 0,
			entity.CompareNew:     0,
			entity.CompareChanged: 0,
		}
		for _, r := range list {
			counts[r.Status]++
		}
		out[t] = counts
	}
	return out
}
