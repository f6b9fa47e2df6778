package controller

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
	"github.com/TarasYkv/shop-mirror-daemon/app/metrics"
	"github.com/TarasYkv/shop-mirror-daemon/app/repo"
	"github.com/TarasYkv/shop-mirror-daemon/app/shopify"
	"go.uber.org/zap"
)

// restoreDependencies lists, per category, the categories whose entities must exist live first.
var restoreDependencies = map[entity.ItemType][]entity.ItemType{
	entity.ItemProduct:      nil,
	entity.ItemProductImage: {entity.ItemProduct},
	entity.ItemCollection:   {entity.ItemProduct},
	entity.ItemPage:         nil,
	entity.ItemBlog:         nil,
	entity.ItemBlogPost:     {entity.ItemBlog},
	entity.ItemBlogImage:    {entity.ItemBlogPost},
	entity.ItemMenu:         {entity.ItemProduct, entity.ItemCollection, entity.ItemPage, entity.ItemBlog},
	entity.ItemRedirect:     {entity.ItemProduct, entity.ItemCollection, entity.ItemPage, entity.ItemBlogPost},
	entity.ItemMetafield:    nil,
	entity.ItemDiscount:     {entity.ItemProduct, entity.ItemCollection},
	entity.ItemCustomer:     nil,
	entity.ItemOrder:        {entity.ItemProduct, entity.ItemCustomer},
}

// restoreOrder is restoreDependencies flattened; parents always come first.
var restoreOrder = []entity.ItemType{
	entity.ItemProduct,
	entity.ItemProductImage,
	entity.ItemCollection,
	entity.ItemPage,
	entity.ItemBlog,
	entity.ItemBlogPost,
	entity.ItemBlogImage,
	entity.ItemMenu,
	entity.ItemRedirect,
	entity.ItemMetafield,
	entity.ItemDiscount,
	entity.ItemCustomer,
	entity.ItemOrder,
}

const restoredWithoutImages = "restored without images"

type RestoreOptions struct {
	JobID      string
	Policy     entity.RestorePolicy
	Categories []entity.ItemType
	ItemIDs    []int64
	// OnResult is called after every item with its position inside the category.
	OnResult func(log entity.RestoreLog, index, total int)
}

// resource describes where a category is looked up by natural key and where it is created.
type resource struct {
	list   string
	param  string
	key    string
	create string
	root   string
}

func (r resource) lookupURL(value string) string {
	sep := "?"
	if strings.Contains(r.list, "?") {
		sep = "&"
	}
	return r.list + sep + r.param + "=" + url.QueryEscape(value)
}

var (
	productResource          = resource{"products.json", "handle", "products", "products.json", "product"}
	customCollectionResource = resource{"custom_collections.json", "handle", "custom_collections", "custom_collections.json", "custom_collection"}
	smartCollectionResource  = resource{"smart_collections.json", "handle", "smart_collections", "smart_collections.json", "smart_collection"}
	pageResource             = resource{"pages.json", "handle", "pages", "pages.json", "page"}
	blogResource             = resource{"blogs.json", "handle", "blogs", "blogs.json", "blog"}
	redirectResource         = resource{"redirects.json", "path", "redirects", "redirects.json", "redirect"}
)

func articleResource(blogID string) resource {
	p := "blogs/" + blogID + "/articles.json"
	return resource{p, "handle", "articles", p, "article"}
}

type outcome struct {
	status  entity.RestoreStatus
	newID   string
	message string
}

func succeeded(id, message string) outcome {
	return outcome{status: entity.RestoreSuccess, newID: id, message: message}
}

func existed(id, message string) outcome {
	return outcome{status: entity.RestoreExists, newID: id, message: message}
}

func failed(err error) outcome {
	return outcome{status: entity.RestoreFailed, message: err.Error()}
}

func skipped(message string) outcome {
	return outcome{status: entity.RestoreSkipped, message: message}
}

// RestoreEngine replays snapshot items onto the live shop. One engine serves one restore job:
// it remembers which blogs the job re-created so that their posts find the new parent.
type RestoreEngine struct {
	store   repo.SnapshotStore
	fetcher *shopify.Fetcher
	client  shopify.Doer
	opts    RestoreOptions
	blogIDs map[string]string
	logger  *zap.SugaredLogger
}

func NewRestoreEngine(store repo.SnapshotStore, fetcher *shopify.Fetcher, opts RestoreOptions, logger *zap.SugaredLogger) *RestoreEngine {
	if opts.Policy == "" {
		opts.Policy = entity.PolicyOverwrite
	}
	return &RestoreEngine{
		store:   store,
		fetcher: fetcher,
		client:  fetcher.Client(),
		opts:    opts,
		blogIDs: map[string]string{},
		logger:  logger.With(zap.String("component", "restore"), zap.String("job", opts.JobID)),
	}
}

// RestoreAll restores the selected categories of a run in dependency order. Per item failures are
// recorded in the logs; only store failures abort and are returned.
func (e *RestoreEngine) RestoreAll(ctx context.Context, runID string) (map[entity.ItemType][]entity.RestoreLog, error) {
	out := make(map[entity.ItemType][]entity.RestoreLog)
	for _, t := range restoreOrder {
		if !e.selected(t) {
			continue
		}
		logs, err := e.RestoreCategory(ctx, runID, t)
		if err != nil {
			return out, err
		}
		if len(logs) > 0 {
			out[t] = logs
		}
	}
	return out, nil
}

func (e *RestoreEngine) selected(t entity.ItemType) bool {
	if len(e.opts.Categories) == 0 {
		return true
	}
	for _, c := range e.opts.Categories {
		if c == t {
			return true
		}
	}
	return false
}

func (e *RestoreEngine) RestoreCategory(ctx context.Context, runID string, itemType entity.ItemType) ([]entity.RestoreLog, error) {
	items, err := e.store.ListItems(ctx, repo.ItemFilter{RunID: runID, Type: itemType, IDs: e.opts.ItemIDs})
	if err != nil {
		return nil, err
	}
	logs := make([]entity.RestoreLog, 0, len(items))
	for i, item := range items {
		log := e.RestoreItem(ctx, item)
		logs = append(logs, log)
		if e.opts.OnResult != nil {
			e.opts.OnResult(log, i+1, len(items))
		}
	}
	return logs, nil
}

// RestoreItem attempts one item and reports the outcome; it never returns an error.
func (e *RestoreEngine) RestoreItem(ctx context.Context, item entity.SnapshotItem) entity.RestoreLog {
	res := e.restore(ctx, item)
	log := entity.RestoreLog{
		JobID:         e.opts.JobID,
		RunID:         item.RunID,
		ItemID:        item.ID,
		Type:          item.Type,
		ExternalID:    item.ExternalID,
		Title:         item.Title,
		Status:        res.status,
		NewExternalID: res.newID,
		Message:       truncate(res.message, maxErrorLength),
		CreatedAt:     entity.NowMillis(),
	}
	metrics.ReportRestore(item.Type.String(), string(res.status))
	if res.status == entity.RestoreFailed {
		e.logger.Warnw("item not restored", "type", item.Type, "id", item.ExternalID, "message", res.message)
	} else {
		e.logger.Debugw("item restored", "type", item.Type, "id", item.ExternalID, "status", res.status, "new_id", res.newID)
	}
	return log
}

func (e *RestoreEngine) restore(ctx context.Context, item entity.SnapshotItem) outcome {
	switch item.Type {
	case entity.ItemOrder:
		return skipped("orders cannot be recreated through the Admin API")
	case entity.ItemCustomer:
		return skipped("customers are not recreated; they would receive account invitations")
	case entity.ItemProductImage, entity.ItemBlogImage:
		return skipped("images are restored together with their product or post")
	}

	ent, err := shopify.Decode(item.Type, []byte(item.Payload))
	if err != nil {
		return failed(err)
	}
	switch v := ent.(type) {
	case *shopify.Product:
		return e.restoreRecord(ctx, v, productResource, func(payload map[string]any) error {
			images, err := e.productImages(ctx, item, v)
			if err != nil {
				return err
			}
			if len(images) > 0 {
				payload["images"] = images
			}
			return nil
		})
	case *shopify.Collection:
		res := customCollectionResource
		if v.IsSmart() {
			res = smartCollectionResource
		}
		return e.restoreRecord(ctx, v, res, func(payload map[string]any) error {
			if v.Image != nil && v.Image.Src != "" {
				payload["image"] = imageSource(v.Image)
			}
			return nil
		})
	case *shopify.Page:
		return e.restoreRecord(ctx, v, pageResource, nil)
	case *shopify.Redirect:
		return e.restoreRecord(ctx, v, redirectResource, nil)
	case *shopify.Blog:
		res := e.restoreRecord(ctx, v, blogResource, nil)
		if res.newID != "" {
			e.blogIDs[item.ExternalID] = res.newID
		}
		return res
	case *shopify.Article:
		return e.restoreArticle(ctx, item, v)
	case *shopify.Metafield:
		return e.restoreMetafield(ctx, v)
	case *shopify.Discount:
		return e.restoreDiscount(ctx, v)
	case *shopify.Menu:
		return e.restoreMenu(ctx, v)
	}
	return skipped(fmt.Sprintf("%s cannot be restored", item.Type))
}

// restoreRecord is the common path: natural key check under only_missing, then create.
func (e *RestoreEngine) restoreRecord(ctx context.Context, r shopify.Restorable, res resource, attach func(map[string]any) error) outcome {
	if e.opts.Policy == entity.PolicyOnlyMissing {
		id, found, err := e.existing(ctx, res, r.NaturalKey())
		if err != nil {
			return failed(fmt.Errorf("existence check failed: %w", err))
		}
		if found {
			return existed(id, fmt.Sprintf("%s %q already exists", res.param, r.NaturalKey()))
		}
	}
	payload, err := r.CreatePayload()
	if err != nil {
		return failed(err)
	}
	if attach != nil {
		if err := attach(payload); err != nil {
			return failed(err)
		}
	}
	return e.create(ctx, res, payload)
}

// existing finds a live entity whose natural key equals value. The key field of the returned entity is
// checked as well, since list endpoints silently ignore filters they do not know.
func (e *RestoreEngine) existing(ctx context.Context, res resource, value string) (string, bool, error) {
	if value == "" {
		return "", false, nil
	}
	raw, ok, err := e.fetcher.FindFirst(ctx, res.lookupURL(value), res.key)
	if err != nil || !ok {
		return "", false, err
	}
	var found map[string]json.RawMessage
	if err := json.Unmarshal(raw, &found); err != nil {
		return "", false, fmt.Errorf("failed to decode %s lookup: %w", res.key, err)
	}
	var key string
	if err := json.Unmarshal(found[res.param], &key); err != nil || key != value {
		return "", false, nil
	}
	var id shopify.FlexID
	if err := json.Unmarshal(found["id"], &id); err != nil {
		return "", false, fmt.Errorf("failed to decode %s id: %w", res.key, err)
	}
	return id.String(), true, nil
}

// create posts the payload. A client error mentioning images is retried once without image fields.
func (e *RestoreEngine) create(ctx context.Context, res resource, payload map[string]any) outcome {
	id, err := e.post(ctx, res.create, res.root, payload)
	if err == nil {
		return succeeded(id, "")
	}
	if !hasImages(payload) || !imageRejected(err) {
		return failed(err)
	}
	e.logger.Warnw("images rejected, retrying without them", "resource", res.root, "error", err)
	delete(payload, "images")
	delete(payload, "image")
	id, err = e.post(ctx, res.create, res.root, payload)
	if err != nil {
		return failed(err)
	}
	return succeeded(id, restoredWithoutImages)
}

func (e *RestoreEngine) post(ctx context.Context, endpoint, root string, payload map[string]any) (string, error) {
	opts := []shopify.RequestOption{shopify.WithJSONBody(map[string]any{root: payload})}
	if hasImages(payload) {
		opts = append(opts, shopify.WithTimeout(shopify.ImageTimeout))
	}
	resp, err := e.client.Execute(ctx, http.MethodPost, endpoint, opts...)
	if err != nil {
		return "", err
	}
	if err := shopify.CheckStatus(http.MethodPost, endpoint, resp); err != nil {
		return "", err
	}
	return shopify.IDFromCreate(resp.Body, root)
}

func hasImages(payload map[string]any) bool {
	_, many := payload["images"]
	_, one := payload["image"]
	return many || one
}

func imageRejected(err error) bool {
	var se *shopify.StatusError
	return errors.As(err, &se) && se.IsClientError() && se.Mentions("image")
}

// productImages prefers stored blobs and falls back to the source URLs captured at backup time.
func (e *RestoreEngine) productImages(ctx context.Context, item entity.SnapshotItem, p *shopify.Product) ([]map[string]any, error) {
	if len(p.Images) == 0 {
		return nil, nil
	}
	parent := item.ExternalID
	children, err := e.store.ListItems(ctx, repo.ItemFilter{RunID: item.RunID, Type: entity.ItemProductImage, ParentID: &parent})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]entity.SnapshotItem, len(children))
	for _, c := range children {
		byID[c.ExternalID] = c
	}

	out := make([]map[string]any, 0, len(p.Images))
	for i := range p.Images {
		img := &p.Images[i]
		m := map[string]any{}
		if img.Alt != nil && *img.Alt != "" {
			m["alt"] = *img.Alt
		}
		if img.Position > 0 {
			m["position"] = img.Position
		}
		if child, ok := byID[img.ExternalID()]; ok && child.HasBlob() {
			if e.attach(ctx, m, child, img.Src) {
				out = append(out, m)
				continue
			}
		}
		if img.Src == "" {
			continue
		}
		m["src"] = img.Src
		out = append(out, m)
	}
	return out, nil
}

// attach inlines a stored blob as base64; a missing blob leaves m untouched.
func (e *RestoreEngine) attach(ctx context.Context, m map[string]any, child entity.SnapshotItem, src string) bool {
	data, err := e.store.LoadBlob(ctx, child.BlobHash)
	if err != nil {
		e.logger.Warnw("stored image unavailable, using source url", "item", child.ID, "error", err)
		return false
	}
	m["attachment"] = base64.StdEncoding.EncodeToString(data)
	if name := imageFileName(src); name != "" {
		m["filename"] = name
	}
	return true
}

func imageSource(img *shopify.ArticleImage) map[string]any {
	m := map[string]any{"src": img.Src}
	if img.Alt != nil && *img.Alt != "" {
		m["alt"] = *img.Alt
	}
	return m
}

func imageFileName(src string) string {
	u, err := url.Parse(src)
	if err != nil || u.Path == "" {
		return ""
	}
	return path.Base(u.Path)
}

func (e *RestoreEngine) restoreArticle(ctx context.Context, item entity.SnapshotItem, a *shopify.Article) outcome {
	blogID, ok, err := e.resolveBlog(ctx, item, a)
	if err != nil {
		return failed(fmt.Errorf("parent blog lookup failed: %w", err))
	}
	if !ok {
		return failed(errors.New("parent blog missing"))
	}
	return e.restoreRecord(ctx, a, articleResource(blogID), func(payload map[string]any) error {
		if a.Image == nil || a.Image.Src == "" {
			return nil
		}
		img := imageSource(a.Image)
		parent := item.ExternalID
		children, err := e.store.ListItems(ctx, repo.ItemFilter{RunID: item.RunID, Type: entity.ItemBlogImage, ParentID: &parent})
		if err != nil {
			return err
		}
		if len(children) > 0 && children[0].HasBlob() && e.attach(ctx, img, children[0], a.Image.Src) {
			delete(img, "src")
		}
		payload["image"] = img
		return nil
	})
}

// resolveBlog finds the live blog of a post: the original blog, then a blog re-created by this job,
// then a live blog carrying the snapshot blog's handle.
func (e *RestoreEngine) resolveBlog(ctx context.Context, item entity.SnapshotItem, a *shopify.Article) (string, bool, error) {
	orig := a.BlogID.String()
	if orig == "" {
		orig = item.ParentID
	}
	if orig == "" {
		return "", false, nil
	}

	live, err := e.blogExists(ctx, orig)
	if err != nil {
		return "", false, err
	}
	if live {
		return orig, true, nil
	}
	if id, ok := e.blogIDs[orig]; ok {
		return id, true, nil
	}

	blogs, err := e.store.ListItems(ctx, repo.ItemFilter{RunID: item.RunID, Type: entity.ItemBlog})
	if err != nil {
		return "", false, err
	}
	for _, b := range blogs {
		if b.ExternalID != orig {
			continue
		}
		blog, err := shopify.Decode(entity.ItemBlog, []byte(b.Payload))
		if err != nil {
			return "", false, err
		}
		return e.existing(ctx, blogResource, blog.(shopify.Restorable).NaturalKey())
	}
	return "", false, nil
}

func (e *RestoreEngine) blogExists(ctx context.Context, id string) (bool, error) {
	endpoint := "blogs/" + id + ".json"
	resp, err := e.client.Execute(ctx, http.MethodGet, endpoint)
	if err != nil {
		return false, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err := shopify.CheckStatus(http.MethodGet, endpoint, resp); err != nil {
		return false, err
	}
	return true, nil
}

// restoreMetafield always posts; Shopify answers 422 for a namespace and key that already exist.
func (e *RestoreEngine) restoreMetafield(ctx context.Context, m *shopify.Metafield) outcome {
	payload, err := m.CreatePayload()
	if err != nil {
		return failed(err)
	}
	id, err := e.post(ctx, "metafields.json", "metafield", payload)
	if err != nil {
		var se *shopify.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusUnprocessableEntity {
			return existed("", fmt.Sprintf("metafield %s already exists", m.NaturalKey()))
		}
		return failed(err)
	}
	return succeeded(id, "")
}

// restoreDiscount creates the price rule and then its codes. Without the rule nothing is created.
func (e *RestoreEngine) restoreDiscount(ctx context.Context, d *shopify.Discount) outcome {
	if e.opts.Policy == entity.PolicyOnlyMissing {
		id, found, err := e.existingDiscount(ctx, d)
		if err != nil {
			return failed(fmt.Errorf("existence check failed: %w", err))
		}
		if found {
			return existed(id, fmt.Sprintf("discount %q already exists", d.NaturalKey()))
		}
	}
	rule, err := d.CreatePayload()
	if err != nil {
		return failed(err)
	}
	ruleID, err := e.post(ctx, "price_rules.json", "price_rule", rule)
	if err != nil {
		return failed(fmt.Errorf("price rule not created: %w", err))
	}

	codes := d.CodePayloads()
	var codeErrors []string
	for _, code := range codes {
		if _, err := e.post(ctx, "price_rules/"+ruleID+"/discount_codes.json", "discount_code", code); err != nil {
			codeErrors = append(codeErrors, fmt.Sprintf("%v: %v", code["code"], err))
		}
	}
	if len(codeErrors) > 0 {
		return succeeded(ruleID, fmt.Sprintf("price rule created, %d of %d codes failed: %s",
			len(codeErrors), len(codes), strings.Join(codeErrors, "; ")))
	}
	return succeeded(ruleID, "")
}

func (e *RestoreEngine) existingDiscount(ctx context.Context, d *shopify.Discount) (string, bool, error) {
	if len(d.Codes) == 0 {
		rules, err := e.fetcher.FetchAll(ctx, "price_rules.json", "price_rules")
		if err != nil {
			return "", false, err
		}
		for _, raw := range rules {
			var r shopify.PriceRule
			if err := json.Unmarshal(raw, &r); err != nil {
				return "", false, err
			}
			if r.Title == d.PriceRule.Title {
				return r.ExternalID(), true, nil
			}
		}
		return "", false, nil
	}

	endpoint := "discount_codes/lookup.json?code=" + url.QueryEscape(d.Codes[0].Code)
	resp, err := e.client.Execute(ctx, http.MethodGet, endpoint)
	if err != nil {
		return "", false, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if err := shopify.CheckStatus(http.MethodGet, endpoint, resp); err != nil {
		return "", false, err
	}
	var found struct {
		DiscountCode shopify.DiscountCode `json:"discount_code"`
	}
	if err := resp.Decode(&found); err != nil {
		return "", false, err
	}
	return found.DiscountCode.PriceRuleID.String(), true, nil
}

func (e *RestoreEngine) restoreMenu(ctx context.Context, m *shopify.Menu) outcome {
	if e.opts.Policy == entity.PolicyOnlyMissing {
		menus, err := e.fetcher.FetchMenus(ctx)
		if err != nil {
			return failed(fmt.Errorf("existence check failed: %w", err))
		}
		for _, raw := range menus {
			live, err := shopify.Decode(entity.ItemMenu, raw)
			if err != nil {
				return failed(err)
			}
			if live.(*shopify.Menu).Handle == m.Handle {
				return existed(live.ExternalID(), fmt.Sprintf("handle %q already exists", m.Handle))
			}
		}
	}
	vars, err := m.CreatePayload()
	if err != nil {
		return failed(err)
	}
	id, err := shopify.CreateMenu(ctx, e.client, vars)
	if err != nil {
		return failed(err)
	}
	return succeeded(id, "")
}
