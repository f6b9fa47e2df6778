package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
	"github.com/TarasYkv/shop-mirror-daemon/app/shopify"
	"go.uber.org/zap"
)

// LiveSource lists the current state of one category on the shop.
type LiveSource interface {
	Fetch(ctx context.Context, itemType entity.ItemType) ([]shopify.Entity, error)
}

type endpoint struct {
	path string
	key  string
}

// list endpoints per category; a category may span several resources
var endpoints = map[entity.ItemType][]endpoint{
	entity.ItemProduct:    {{"products.json", "products"}},
	entity.ItemCollection: {{"custom_collections.json", "custom_collections"}, {"smart_collections.json", "smart_collections"}},
	entity.ItemPage:       {{"pages.json", "pages"}},
	entity.ItemBlog:       {{"blogs.json", "blogs"}},
	entity.ItemRedirect:   {{"redirects.json", "redirects"}},
	entity.ItemMetafield:  {{"metafields.json", "metafields"}},
	entity.ItemOrder:      {{"orders.json?status=any", "orders"}},
	entity.ItemCustomer:   {{"customers.json", "customers"}},
}

// ShopSource reads live categories through the paginated fetcher. Backup and compare share it so
// that both see the same query per category.
type ShopSource struct {
	fetcher *shopify.Fetcher
	logger  *zap.SugaredLogger
}

func NewShopSource(fetcher *shopify.Fetcher, logger *zap.SugaredLogger) *ShopSource {
	return &ShopSource{fetcher: fetcher, logger: logger}
}

// Raw returns the payloads of one category as received from the API.
func (s *ShopSource) Raw(ctx context.Context, itemType entity.ItemType) ([]json.RawMessage, error) {
	switch itemType {
	case entity.ItemMenu:
		return s.fetcher.FetchMenus(ctx)
	case entity.ItemDiscount:
		return s.discounts(ctx)
	case entity.ItemBlogPost:
		return s.allArticles(ctx)
	}
	eps, ok := endpoints[itemType]
	if !ok {
		return nil, fmt.Errorf("category %s is not listed on its own", itemType)
	}
	var out []json.RawMessage
	for _, ep := range eps {
		items, err := s.fetcher.FetchAll(ctx, ep.path, ep.key)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", itemType.Label(), err)
		}
		out = append(out, items...)
	}
	return out, nil
}

// Articles lists the posts of one blog.
func (s *ShopSource) Articles(ctx context.Context, blogID string) ([]json.RawMessage, error) {
	items, err := s.fetcher.FetchAll(ctx, "blogs/"+blogID+"/articles.json", "articles")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts of blog %s: %w", blogID, err)
	}
	return items, nil
}

func (s *ShopSource) allArticles(ctx context.Context) ([]json.RawMessage, error) {
	blogs, err := s.Raw(ctx, entity.ItemBlog)
	if err != nil {
		return nil, err
	}
	var out []json.RawMessage
	for _, raw := range blogs {
		blog, err := shopify.Decode(entity.ItemBlog, raw)
		if err != nil {
			return nil, err
		}
		posts, err := s.Articles(ctx, blog.ExternalID())
		if err != nil {
			return nil, err
		}
		out = append(out, posts...)
	}
	return out, nil
}

// Discounts bundles each price rule with its discount codes.
func (s *ShopSource) discounts(ctx context.Context) ([]json.RawMessage, error) {
	rules, err := s.fetcher.FetchAll(ctx, "price_rules.json", "price_rules")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price rules: %w", err)
	}
	out := make([]json.RawMessage, 0, len(rules))
	for _, rule := range rules {
		var head struct {
			ID shopify.FlexID `json:"id"`
		}
		if err := json.Unmarshal(rule, &head); err != nil {
			return nil, fmt.Errorf("failed to decode price rule: %w", err)
		}
		codes, err := s.fetcher.FetchAll(ctx, "price_rules/"+head.ID.String()+"/discount_codes.json", "discount_codes")
		if err != nil {
			return nil, fmt.Errorf("failed to fetch codes of price rule %s: %w", head.ID, err)
		}
		payload, err := shopify.NewDiscountPayload(rule, codes)
		if err != nil {
			return nil, err
		}
		out = append(out, payload)
	}
	return out, nil
}

func (s *ShopSource) Fetch(ctx context.Context, itemType entity.ItemType) ([]shopify.Entity, error) {
	raws, err := s.Raw(ctx, itemType)
	if err != nil {
		return nil, err
	}
	out := make([]shopify.Entity, 0, len(raws))
	for _, raw := range raws {
		e, err := shopify.Decode(itemType, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
