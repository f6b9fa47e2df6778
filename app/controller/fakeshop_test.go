package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/TarasYkv/shop-mirror-daemon/app/db"
	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
	"github.com/TarasYkv/shop-mirror-daemon/app/repo"
	"github.com/TarasYkv/shop-mirror-daemon/app/shopify"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const fakeAPIPrefix = "/admin/api/" + shopify.DefaultAPIVersion + "/"

type record = map[string]any

// resource roots of the fake, keyed by list name
var fakeRoots = map[string]string{
	"products":           "product",
	"custom_collections": "custom_collection",
	"smart_collections":  "smart_collection",
	"pages":              "page",
	"blogs":              "blog",
	"redirects":          "redirect",
	"metafields":         "metafield",
	"orders":             "order",
	"customers":          "customer",
	"price_rules":        "price_rule",
}

// fakeShop is an in-memory Admin API: paginated lists with handle/path filters, creates,
// discount code lookups, GraphQL menus and a CDN for images.
type fakeShop struct {
	t   *testing.T
	srv *httptest.Server

	mu           sync.Mutex
	nextID       int64
	lists        map[string][]record
	articles     map[string][]record
	codes        map[string][]record
	menus        []record
	cdn          map[string][]byte
	rejectImages bool
	rejectCodes  bool
	posts        []string
}

func newFakeShop(t *testing.T) *fakeShop {
	t.Helper()
	s := &fakeShop{
		t:        t,
		nextID:   9000,
		lists:    map[string][]record{},
		articles: map[string][]record{},
		codes:    map[string][]record{},
		cdn:      map[string][]byte{},
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *fakeShop) URL() string { return s.srv.URL }

// image registers a CDN asset and returns its absolute url.
func (s *fakeShop) image(name string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cdn[name] = data
	return s.srv.URL + "/cdn/" + name
}

func (s *fakeShop) add(list string, r record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[list] = append(s.lists[list], r)
}

func (s *fakeShop) addArticle(blogID string, r record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles[blogID] = append(s.articles[blogID], r)
}

func (s *fakeShop) addCode(ruleID string, r record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[ruleID] = append(s.codes[ruleID], r)
}

func (s *fakeShop) addMenu(r record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menus = append(s.menus, r)
}

// remove deletes the record with id from a list, simulating a deletion on the live shop.
func (s *fakeShop) remove(list string, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.lists[list][:0]
	for _, r := range s.lists[list] {
		if toInt(r["id"]) != id {
			kept = append(kept, r)
		}
	}
	s.lists[list] = kept
}

func (s *fakeShop) update(list string, id int64, field string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.lists[list] {
		if toInt(r["id"]) == id {
			r[field] = value
		}
	}
}

// clear empties every list, as if the shop had been wiped.
func (s *fakeShop) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = map[string][]record{}
	s.articles = map[string][]record{}
	s.codes = map[string][]record{}
	s.menus = nil
	s.posts = nil
}

func (s *fakeShop) setRejectImages(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectImages = v
}

func (s *fakeShop) setRejectCodes(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectCodes = v
}

func (s *fakeShop) postCount(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.posts {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

func (s *fakeShop) count(list string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lists[list])
}

func (s *fakeShop) find(list, field, value string) record {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.lists[list] {
		if fmt.Sprint(r[field]) == value {
			return r
		}
	}
	return nil
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	}
	return 0
}

func (s *fakeShop) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.t.Errorf("fake shop: failed to encode response: %v", err)
	}
}

func (s *fakeShop) serve(w http.ResponseWriter, r *http.Request) {
	if name, ok := strings.CutPrefix(r.URL.Path, "/cdn/"); ok {
		s.mu.Lock()
		data, found := s.cdn[name]
		s.mu.Unlock()
		if !found {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
		return
	}
	p, ok := strings.CutPrefix(r.URL.Path, fakeAPIPrefix)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("X-Shopify-Access-Token") == "" {
		s.writeJSON(w, http.StatusUnauthorized, record{"errors": "missing token"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Method == http.MethodPost {
		s.posts = append(s.posts, p)
	}
	parts := strings.Split(strings.TrimSuffix(p, ".json"), "/")
	switch {
	case p == "graphql.json":
		s.graphql(w, r)
	case p == "discount_codes/lookup.json":
		s.lookupCode(w, r)
	case len(parts) == 2 && parts[0] == "blogs":
		s.getOne(w, "blogs", parts[1])
	case len(parts) == 3 && parts[0] == "blogs" && parts[2] == "articles":
		if r.Method == http.MethodPost {
			s.create(w, r, "article", func(rec record) { s.articles[parts[1]] = append(s.articles[parts[1]], rec) }, nil)
			return
		}
		s.list(w, r, "articles", s.articles[parts[1]])
	case len(parts) == 3 && parts[0] == "price_rules" && parts[2] == "discount_codes":
		if r.Method == http.MethodPost {
			if s.rejectCodes {
				s.writeJSON(w, http.StatusUnprocessableEntity, record{"errors": record{"code": []string{"must be unique"}}})
				return
			}
			s.create(w, r, "discount_code", func(rec record) { s.codes[parts[1]] = append(s.codes[parts[1]], rec) }, nil)
			return
		}
		s.list(w, r, "discount_codes", s.codes[parts[1]])
	case len(parts) == 1 && fakeRoots[parts[0]] != "":
		name := parts[0]
		if r.Method == http.MethodPost {
			s.create(w, r, fakeRoots[name], func(rec record) { s.lists[name] = append(s.lists[name], rec) }, s.lists[name])
			return
		}
		s.list(w, r, name, s.lists[name])
	default:
		http.NotFound(w, r)
	}
}

func (s *fakeShop) getOne(w http.ResponseWriter, list, id string) {
	for _, rec := range s.lists[list] {
		if strconv.FormatInt(toInt(rec["id"]), 10) == id {
			s.writeJSON(w, http.StatusOK, record{fakeRoots[list]: rec})
			return
		}
	}
	s.writeJSON(w, http.StatusNotFound, record{"errors": "Not Found"})
}

// list serves one page. The cursor is the offset of the page; handle and path filters only apply to the first page.
func (s *fakeShop) list(w http.ResponseWriter, r *http.Request, key string, all []record) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	offset, _ := strconv.Atoi(q.Get("page_info"))

	items := all
	if q.Get("page_info") == "" {
		for _, field := range []string{"handle", "path"} {
			value := q.Get(field)
			if value == "" {
				continue
			}
			var filtered []record
			for _, rec := range items {
				if fmt.Sprint(rec[field]) == value {
					filtered = append(filtered, rec)
				}
			}
			items = filtered
		}
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := min(offset+limit, len(items))
	if end < len(items) {
		next := fmt.Sprintf("%s%s%s.json?limit=%d&page_info=%d", s.srv.URL, fakeAPIPrefix, strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, fakeAPIPrefix), ".json"), limit, end)
		w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next"`, next))
	}
	page := items[offset:end]
	if page == nil {
		page = []record{}
	}
	s.writeJSON(w, http.StatusOK, record{key: page})
}

func (s *fakeShop) create(w http.ResponseWriter, r *http.Request, root string, store func(record), existing []record) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var body map[string]record
	if err := dec.Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, record{"errors": err.Error()})
		return
	}
	rec, ok := body[root]
	if !ok {
		s.writeJSON(w, http.StatusBadRequest, record{"errors": "missing " + root})
		return
	}
	_, many := rec["images"]
	_, one := rec["image"]
	if s.rejectImages && (many || one) {
		s.writeJSON(w, http.StatusUnprocessableEntity, record{"errors": record{"image": []string{"could not be downloaded"}}})
		return
	}
	if root == "metafield" {
		for _, m := range existing {
			if m["namespace"] == rec["namespace"] && m["key"] == rec["key"] {
				s.writeJSON(w, http.StatusUnprocessableEntity, record{"errors": record{"key": []string{"must be unique within this namespace"}}})
				return
			}
		}
	}
	s.nextID++
	rec["id"] = s.nextID
	store(rec)
	s.writeJSON(w, http.StatusCreated, record{root: rec})
}

func (s *fakeShop) lookupCode(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	for ruleID, codes := range s.codes {
		for _, c := range codes {
			if c["code"] == code {
				id, _ := strconv.ParseInt(ruleID, 10, 64)
				s.writeJSON(w, http.StatusOK, record{"discount_code": record{"id": c["id"], "price_rule_id": id, "code": code}})
				return
			}
		}
	}
	s.writeJSON(w, http.StatusNotFound, record{"errors": "Not Found"})
}

func (s *fakeShop) graphql(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, record{"errors": err.Error()})
		return
	}
	if strings.Contains(req.Query, "menuCreate") {
		handle, _ := req.Variables["handle"].(string)
		for _, m := range s.menus {
			if m["handle"] == handle {
				s.writeJSON(w, http.StatusOK, record{"data": record{"menuCreate": record{
					"menu":       nil,
					"userErrors": []record{{"field": []string{"handle"}, "message": "Handle has already been taken"}},
				}}})
				return
			}
		}
		s.nextID++
		id := fmt.Sprintf("gid://shopify/Menu/%d", s.nextID)
		s.menus = append(s.menus, record{"id": id, "handle": handle, "title": req.Variables["title"], "items": req.Variables["items"]})
		s.writeJSON(w, http.StatusOK, record{"data": record{"menuCreate": record{
			"menu":       record{"id": id, "handle": handle},
			"userErrors": []record{},
		}}})
		return
	}
	nodes := s.menus
	if nodes == nil {
		nodes = []record{}
	}
	s.writeJSON(w, http.StatusOK, record{"data": record{"menus": record{
		"nodes":    nodes,
		"pageInfo": record{"hasNextPage": false, "endCursor": ""},
	}}})
}

// fixture wires the engines against a fake shop and a temp SQLite database.
type fixture struct {
	shop        *fakeShop
	conn        *db.Db
	store       repo.SnapshotStore
	restoreRepo repo.RestoreRepository
	fetcher     *shopify.Fetcher
	logger      *zap.SugaredLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	shop := newFakeShop(t)
	conn, err := db.NewConnection(filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	logger := zap.NewNop().Sugar()
	client, err := shopify.NewClient(shopify.Config{
		BaseURL:     shop.URL(),
		AccessToken: "shpat_test",
		MaxAttempts: 1,
	}, logger)
	require.NoError(t, err)

	return &fixture{
		shop:        shop,
		conn:        conn,
		store:       repo.NewSnapshotRepo(conn),
		restoreRepo: repo.NewRestoreRepo(conn),
		fetcher:     shopify.NewFetcher(client, shopify.FetcherOptions{PageSize: 100}, logger),
		logger:      logger,
	}
}

func (f *fixture) source() *ShopSource {
	return NewShopSource(f.fetcher, f.logger)
}

// backup runs a synchronous backup and returns the stored run.
func (f *fixture) backup(t *testing.T, selection entity.Selection) entity.BackupRun {
	t.Helper()
	ctx := context.Background()
	run := entity.BackupRun{
		ID:        uuid.New().String(),
		Shop:      "demo.myshopify.com",
		Selection: selection,
		Status:    entity.RunPending,
		CreatedAt: entity.NowMillis(),
	}
	require.NoError(t, f.store.CreateRun(ctx, run))
	ok, msg := NewBackupEngine(f.store, f.source(), f.fetcher.Client(), f.logger).Run(ctx, run)
	require.True(t, ok, msg)
	stored, err := f.store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	return stored
}

func (f *fixture) restore(t *testing.T, runID string, opts RestoreOptions) map[entity.ItemType][]entity.RestoreLog {
	t.Helper()
	logs, err := NewRestoreEngine(f.store, f.fetcher, opts, f.logger).RestoreAll(context.Background(), runID)
	require.NoError(t, err)
	return logs
}

func (f *fixture) items(t *testing.T, runID string, itemType entity.ItemType) []entity.SnapshotItem {
	t.Helper()
	items, err := f.store.ListItems(context.Background(), repo.ItemFilter{RunID: runID, Type: itemType})
	require.NoError(t, err)
	return items
}

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake-image-bytes")

// seedCatalog fills the shop with one entity per restorable category.
func seedCatalog(s *fakeShop) {
	shirt := s.image("shirt.png", pngBytes)
	cover := s.image("cover.png", bytes.Repeat([]byte{7}, 64))

	s.add("products", record{
		"id": 101, "title": "Shirt", "handle": "shirt", "status": "active", "body_html": "<p>Cotton</p>",
		"tags": "summer", "variants": []record{{"id": 1001, "title": "Default", "price": "19.90"}},
		"images": []record{{"id": 5001, "product_id": 101, "src": shirt, "alt": "Front", "position": 1}},
	})
	s.add("custom_collections", record{"id": 201, "title": "Summer", "handle": "summer", "published_at": "2024-01-01T00:00:00Z"})
	s.add("smart_collections", record{"id": 202, "title": "Sale", "handle": "sale",
		"rules": []record{{"column": "tag", "relation": "equals", "condition": "sale"}}})
	s.add("pages", record{"id": 301, "title": "About", "handle": "about", "body_html": "<p>Us</p>", "published_at": "2024-01-01T00:00:00Z"})
	s.add("blogs", record{"id": 401, "title": "News", "handle": "news", "commentable": "no"})
	s.addArticle("401", record{"id": 411, "blog_id": 401, "title": "Launch", "handle": "launch", "author": "Team",
		"body_html": "<p>Hello</p>", "published_at": "2024-02-01T00:00:00Z", "image": record{"src": cover, "alt": "Cover"}})
	s.add("redirects", record{"id": 501, "path": "/old", "target": "/new"})
	s.add("metafields", record{"id": 601, "namespace": "custom", "key": "motto", "value": "Stay warm", "type": "single_line_text_field"})
	s.add("price_rules", record{"id": 701, "title": "WELCOME10", "value_type": "percentage", "value": "-10.0",
		"target_type": "line_item", "starts_at": "2024-01-01T00:00:00Z"})
	s.addCode("701", record{"id": 711, "price_rule_id": 701, "code": "WELCOME10"})
	s.addMenu(record{"id": "gid://shopify/Menu/801", "handle": "main-menu", "title": "Main menu", "isDefault": true,
		"items": []record{{"id": "gid://shopify/MenuItem/1", "title": "Home", "type": "FRONTPAGE", "url": "/", "items": []record{}}}})
	s.add("orders", record{"id": 901, "name": "#1001", "email": "a@example.com", "total_price": "19.90", "financial_status": "paid"})
	s.add("customers", record{"id": 951, "first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com", "state": "enabled"})
}
