package controller

import (
	"context"
	"strings"
	"testing"

	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statuses(logs []entity.RestoreLog) []entity.RestoreStatus {
	out := make([]entity.RestoreStatus, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.Status)
	}
	return out
}

func TestRestoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f.shop)
	run := f.backup(t, entity.AllSelection())
	f.shop.clear()

	logs := f.restore(t, run.ID, RestoreOptions{JobID: "job-1", Policy: entity.PolicyOverwrite})

	for _, itemType := range []entity.ItemType{
		entity.ItemProduct, entity.ItemPage, entity.ItemBlog, entity.ItemBlogPost,
		entity.ItemRedirect, entity.ItemMetafield, entity.ItemDiscount, entity.ItemMenu,
	} {
		require.Len(t, logs[itemType], 1, "logs of %s", itemType)
		log := logs[itemType][0]
		assert.Equal(t, entity.RestoreSuccess, log.Status, "%s: %s", itemType, log.Message)
		assert.NotEmpty(t, log.NewExternalID, itemType)
		assert.Equal(t, "job-1", log.JobID)
		assert.Equal(t, run.ID, log.RunID)
	}
	assert.Equal(t, []entity.RestoreStatus{entity.RestoreSuccess, entity.RestoreSuccess}, statuses(logs[entity.ItemCollection]))
	for _, itemType := range []entity.ItemType{entity.ItemOrder, entity.ItemCustomer, entity.ItemProductImage, entity.ItemBlogImage} {
		assert.Equal(t, []entity.RestoreStatus{entity.RestoreSkipped}, statuses(logs[itemType]), itemType)
	}

	assert.Equal(t, 1, f.shop.postCount("custom_collections.json"))
	assert.Equal(t, 1, f.shop.postCount("smart_collections.json"))
	assert.Zero(t, f.shop.postCount("orders.json"))
	assert.Zero(t, f.shop.postCount("customers.json"))

	product := f.shop.find("products", "handle", "shirt")
	require.NotNil(t, product)
	images, ok := product["images"].([]any)
	require.True(t, ok, "product is created with its images")
	require.Len(t, images, 1)
	image := images[0].(map[string]any)
	assert.NotEmpty(t, image["attachment"], "stored blob is inlined")
	assert.Equal(t, "shirt.png", image["filename"])
	assert.Equal(t, "Front", image["alt"])

	blog := f.shop.find("blogs", "handle", "news")
	require.NotNil(t, blog)
	blogID := logs[entity.ItemBlog][0].NewExternalID
	assert.Equal(t, 1, f.shop.postCount("blogs/"+blogID+"/articles.json"), "post goes to the re-created blog")
	assert.Equal(t, 1, f.shop.postCount("price_rules/"+logs[entity.ItemDiscount][0].NewExternalID+"/discount_codes.json"))
	assert.Equal(t, 1, f.shop.count("metafields"))

	// a second pass only finds what is already there
	again := f.restore(t, run.ID, RestoreOptions{JobID: "job-2", Policy: entity.PolicyOnlyMissing})
	for itemType, list := range again {
		for _, log := range list {
			if itemType.IsImage() || itemType == entity.ItemOrder || itemType == entity.ItemCustomer {
				assert.Equal(t, entity.RestoreSkipped, log.Status)
				continue
			}
			assert.Equal(t, entity.RestoreExists, log.Status, "%s %s: %s", itemType, log.ExternalID, log.Message)
		}
	}
	assert.Equal(t, 1, f.shop.count("products"))
	assert.Equal(t, 1, f.shop.count("blogs"))
}

func TestRestoreOnlyMissingCreatesWhatIsGone(t *testing.T) {
	f := newFixture(t)
	f.shop.add("pages", record{"id": 1, "title": "About", "handle": "about"})
	f.shop.add("pages", record{"id": 2, "title": "Terms", "handle": "terms"})
	run := f.backup(t, entity.Selection{IncludePages: true})
	f.shop.remove("pages", 2)

	logs := f.restore(t, run.ID, RestoreOptions{Policy: entity.PolicyOnlyMissing})

	byID := map[string]entity.RestoreLog{}
	for _, l := range logs[entity.ItemPage] {
		byID[l.ExternalID] = l
	}
	assert.Equal(t, entity.RestoreExists, byID["1"].Status)
	assert.Equal(t, "1", byID["1"].NewExternalID)
	assert.Equal(t, `handle "about" already exists`, byID["1"].Message)
	assert.Equal(t, entity.RestoreSuccess, byID["2"].Status)
	assert.Equal(t, 2, f.shop.count("pages"))
}

func TestRestoreDeletedItemFromCompare(t *testing.T) {
	f := newFixture(t)
	seedProducts(f.shop)
	run := f.backup(t, entity.Selection{IncludeProducts: true})
	f.shop.remove("products", 555)
	ctx := context.Background()

	results, err := NewCompareEngine(f.store, f.source(), f.logger).CompareCategory(ctx, run, entity.ItemProduct)
	require.NoError(t, err)
	var deleted *entity.CompareResult
	for i := range results {
		if results[i].Status == entity.CompareDeleted {
			require.Nil(t, deleted, "only one product is gone")
			deleted = &results[i]
		}
	}
	require.NotNil(t, deleted)
	assert.Equal(t, "555", deleted.ExternalID)

	item, err := f.store.GetItem(ctx, deleted.ItemID)
	require.NoError(t, err)
	assert.Equal(t, "555", item.ExternalID)

	engine := NewRestoreEngine(f.store, f.fetcher, RestoreOptions{Policy: entity.PolicyOnlyMissing}, f.logger)
	first := engine.RestoreItem(ctx, item)
	assert.Equal(t, entity.RestoreSuccess, first.Status, first.Message)
	assert.NotEmpty(t, first.NewExternalID)
	assert.NotEqual(t, "555", first.NewExternalID)
	assert.Equal(t, 3, f.shop.count("products"))

	second := engine.RestoreItem(ctx, item)
	assert.Equal(t, entity.RestoreExists, second.Status, second.Message)
	assert.Equal(t, first.NewExternalID, second.NewExternalID)
	assert.Equal(t, 3, f.shop.count("products"))
}

func TestRestoreOverwriteAlwaysCreates(t *testing.T) {
	f := newFixture(t)
	f.shop.add("redirects", record{"id": 1, "path": "/a", "target": "/b"})
	run := f.backup(t, entity.Selection{IncludeRedirects: true})

	logs := f.restore(t, run.ID, RestoreOptions{})

	assert.Equal(t, []entity.RestoreStatus{entity.RestoreSuccess}, statuses(logs[entity.ItemRedirect]))
	assert.Equal(t, 2, f.shop.count("redirects"))
}

func TestRestoreRetriesWithoutRejectedImages(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f.shop)
	run := f.backup(t, entity.Selection{IncludeProducts: true, IncludeProductImages: true})
	f.shop.clear()
	f.shop.setRejectImages(true)

	logs := f.restore(t, run.ID, RestoreOptions{Categories: []entity.ItemType{entity.ItemProduct}})

	require.Len(t, logs[entity.ItemProduct], 1)
	log := logs[entity.ItemProduct][0]
	assert.Equal(t, entity.RestoreSuccess, log.Status)
	assert.Equal(t, restoredWithoutImages, log.Message)
	assert.Equal(t, 2, f.shop.postCount("products.json"))
	product := f.shop.find("products", "handle", "shirt")
	require.NotNil(t, product)
	assert.NotContains(t, product, "images")
}

func TestRestorePostWithoutParentBlog(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f.shop)
	run := f.backup(t, entity.Selection{IncludeBlogs: true})
	f.shop.clear()

	logs := f.restore(t, run.ID, RestoreOptions{Categories: []entity.ItemType{entity.ItemBlogPost}})

	assert.NotContains(t, logs, entity.ItemBlog)
	require.Len(t, logs[entity.ItemBlogPost], 1)
	assert.Equal(t, entity.RestoreFailed, logs[entity.ItemBlogPost][0].Status)
	assert.Equal(t, "parent blog missing", logs[entity.ItemBlogPost][0].Message)
}

func TestRestorePostFindsBlogByHandle(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f.shop)
	run := f.backup(t, entity.Selection{IncludeBlogs: true})
	f.shop.clear()
	f.shop.add("blogs", record{"id": 4242, "title": "News", "handle": "news"})

	logs := f.restore(t, run.ID, RestoreOptions{Categories: []entity.ItemType{entity.ItemBlogPost}})

	require.Len(t, logs[entity.ItemBlogPost], 1)
	assert.Equal(t, entity.RestoreSuccess, logs[entity.ItemBlogPost][0].Status)
	assert.Equal(t, 1, f.shop.postCount("blogs/4242/articles.json"))
}

func TestRestoreExistingMetafield(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f.shop)
	run := f.backup(t, entity.Selection{IncludeMetafields: true})

	logs := f.restore(t, run.ID, RestoreOptions{Policy: entity.PolicyOverwrite})

	require.Len(t, logs[entity.ItemMetafield], 1)
	assert.Equal(t, entity.RestoreExists, logs[entity.ItemMetafield][0].Status)
	assert.Equal(t, "metafield custom.motto already exists", logs[entity.ItemMetafield][0].Message)
}

func TestRestoreDiscountWithFailingCodes(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f.shop)
	run := f.backup(t, entity.Selection{IncludeDiscounts: true})
	f.shop.clear()
	f.shop.setRejectCodes(true)

	logs := f.restore(t, run.ID, RestoreOptions{})

	require.Len(t, logs[entity.ItemDiscount], 1)
	log := logs[entity.ItemDiscount][0]
	assert.Equal(t, entity.RestoreSuccess, log.Status)
	assert.True(t, strings.HasPrefix(log.Message, "price rule created, 1 of 1 codes failed"), log.Message)
	assert.Equal(t, 1, f.shop.count("price_rules"))
}

func TestRestoreMenuDuplicateHandle(t *testing.T) {
	f := newFixture(t)
	seedCatalog(f.shop)
	run := f.backup(t, entity.Selection{IncludeMenus: true})

	logs := f.restore(t, run.ID, RestoreOptions{})

	require.Len(t, logs[entity.ItemMenu], 1)
	assert.Equal(t, entity.RestoreFailed, logs[entity.ItemMenu][0].Status)
	assert.Contains(t, logs[entity.ItemMenu][0].Message, "Handle has already been taken")
}

func TestRestoreSelectedItems(t *testing.T) {
	f := newFixture(t)
	for _, h := range []string{"a", "b", "c"} {
		f.shop.add("pages", record{"id": len(h) + int(h[0]), "title": strings.ToUpper(h), "handle": h})
	}
	run := f.backup(t, entity.Selection{IncludePages: true})
	f.shop.clear()
	pages := f.items(t, run.ID, entity.ItemPage)
	require.Len(t, pages, 3)

	type call struct{ index, total int }
	var calls []call
	logs := f.restore(t, run.ID, RestoreOptions{
		ItemIDs:  []int64{pages[1].ID},
		OnResult: func(_ entity.RestoreLog, index, total int) { calls = append(calls, call{index, total}) },
	})

	require.Len(t, logs[entity.ItemPage], 1)
	assert.Equal(t, pages[1].ID, logs[entity.ItemPage][0].ItemID)
	assert.Equal(t, []call{{1, 1}}, calls)
	assert.Equal(t, 1, f.shop.count("pages"))
}

func TestRestoreOrderHonorsDependencies(t *testing.T) {
	require.Len(t, restoreOrder, len(entity.AllItemTypes))
	require.Len(t, restoreDependencies, len(entity.AllItemTypes))

	position := map[entity.ItemType]int{}
	for i, itemType := range restoreOrder {
		position[itemType] = i
	}
	for _, itemType := range entity.AllItemTypes {
		pos, ok := position[itemType]
		require.True(t, ok, "%s missing from restore order", itemType)
		for _, dep := range restoreDependencies[itemType] {
			assert.Less(t, position[dep], pos, "%s must come before %s", dep, itemType)
		}
	}
}
