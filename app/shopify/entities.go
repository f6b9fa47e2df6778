package shopify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
)

// FlexID accepts both numeric REST ids and string GraphQL ids. Numbers keep their decimal text.
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %s", b)
	}
	*id = FlexID(n.String())
	return nil
}

func (id FlexID) String() string {
	return string(id)
}

// Entity is the read side of every typed variant.
type Entity interface {
	ExternalID() string
	DisplayTitle() string
	ImageURL() string
	Raw() json.RawMessage
}

// Restorable entities can be recreated through the Admin API.
type Restorable interface {
	Entity
	Category() entity.ItemType
	NaturalKey() string
	CreatePayload() (map[string]any, error)
}

type Base struct {
	ID  FlexID `json:"id"`
	raw json.RawMessage
}

func (b *Base) ExternalID() string   { return string(b.ID) }
func (b *Base) Raw() json.RawMessage { return b.raw }
func (b *Base) setRaw(raw []byte)    { b.raw = append(json.RawMessage(nil), raw...) }
func (b *Base) ImageURL() string     { return "" }

// read-only attributes Shopify rejects or ignores on create
var readOnlyFields = []string{"id", "admin_graphql_api_id", "created_at", "updated_at"}

func (b *Base) payload(drop ...string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b.raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	for _, k := range readOnlyFields {
		delete(m, k)
	}
	for _, k := range drop {
		delete(m, k)
	}
	return m, nil
}

func stripNested(m map[string]any, key string, drop ...string) {
	list, ok := m[key].([]any)
	if !ok {
		return
	}
	for _, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		for _, k := range readOnlyFields {
			delete(obj, k)
		}
		for _, k := range drop {
			delete(obj, k)
		}
	}
}

type Image struct {
	Base
	ProductID FlexID  `json:"product_id"`
	Src       string  `json:"src"`
	Alt       *string `json:"alt"`
	Position  int     `json:"position"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

func (i *Image) DisplayTitle() string {
	if i.Alt != nil && *i.Alt != "" {
		return *i.Alt
	}
	return fileName(i.Src)
}
func (i *Image) ImageURL() string { return i.Src }

type Variant struct {
	ID    FlexID `json:"id"`
	Title string `json:"title"`
	Price string `json:"price"`
	SKU   string `json:"sku"`
}

type Product struct {
	Base
	Title       string    `json:"title"`
	Handle      string    `json:"handle"`
	BodyHTML    *string   `json:"body_html"`
	Status      string    `json:"status"`
	Vendor      string    `json:"vendor"`
	ProductType string    `json:"product_type"`
	Tags        string    `json:"tags"`
	Variants    []Variant `json:"variants"`
	Images      []Image   `json:"images"`
	Image       *Image    `json:"image"`
}

func (p *Product) DisplayTitle() string      { return p.Title }
func (p *Product) Category() entity.ItemType { return entity.ItemProduct }
func (p *Product) NaturalKey() string        { return p.Handle }

func (p *Product) ImageURL() string {
	if p.Image != nil && p.Image.Src != "" {
		return p.Image.Src
	}
	if len(p.Images) > 0 {
		return p.Images[0].Src
	}
	return ""
}

// FirstPrice is the price of the first variant or "" without variants.
func (p *Product) FirstPrice() string {
	if len(p.Variants) == 0 {
		return ""
	}
	return p.Variants[0].Price
}

// CreatePayload drops images; they are attached separately from stored blobs or source URLs.
func (p *Product) CreatePayload() (map[string]any, error) {
	m, err := p.payload("images", "image", "published_at")
	if err != nil {
		return nil, err
	}
	stripNested(m, "variants", "product_id", "inventory_item_id", "image_id", "old_inventory_quantity")
	stripNested(m, "options", "product_id")
	return m, nil
}

type Blog struct {
	Base
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	Commentable string `json:"commentable"`
	Tags        string `json:"tags"`
}

func (b *Blog) DisplayTitle() string      { return b.Title }
func (b *Blog) Category() entity.ItemType { return entity.ItemBlog }
func (b *Blog) NaturalKey() string        { return b.Handle }
func (b *Blog) CreatePayload() (map[string]any, error) {
	return b.payload()
}

type ArticleImage struct {
	Src string  `json:"src"`
	Alt *string `json:"alt"`
}

type Article struct {
	Base
	BlogID      FlexID        `json:"blog_id"`
	Title       string        `json:"title"`
	Handle      string        `json:"handle"`
	Author      string        `json:"author"`
	BodyHTML    *string       `json:"body_html"`
	PublishedAt *string       `json:"published_at"`
	Tags        string        `json:"tags"`
	Image       *ArticleImage `json:"image"`
}

func (a *Article) DisplayTitle() string      { return a.Title }
func (a *Article) Category() entity.ItemType { return entity.ItemBlogPost }
func (a *Article) NaturalKey() string        { return a.Handle }
func (a *Article) Published() bool           { return a.PublishedAt != nil && *a.PublishedAt != "" }

func (a *Article) ImageURL() string {
	if a.Image != nil {
		return a.Image.Src
	}
	return ""
}

func (a *Article) CreatePayload() (map[string]any, error) {
	m, err := a.payload("blog_id", "user_id", "image")
	if err != nil {
		return nil, err
	}
	m["published"] = a.Published()
	return m, nil
}

type Collection struct {
	Base
	Title       string            `json:"title"`
	Handle      string            `json:"handle"`
	BodyHTML    *string           `json:"body_html"`
	PublishedAt *string           `json:"published_at"`
	SortOrder   string            `json:"sort_order"`
	Rules       []json.RawMessage `json:"rules"`
	Disjunctive bool              `json:"disjunctive"`
	Image       *ArticleImage     `json:"image"`
}

func (c *Collection) DisplayTitle() string      { return c.Title }
func (c *Collection) Category() entity.ItemType { return entity.ItemCollection }
func (c *Collection) NaturalKey() string        { return c.Handle }
func (c *Collection) Published() bool           { return c.PublishedAt != nil && *c.PublishedAt != "" }

// IsSmart reports a rule based collection. Custom collections never carry rules.
func (c *Collection) IsSmart() bool {
	return len(c.Rules) > 0
}

func (c *Collection) ImageURL() string {
	if c.Image != nil {
		return c.Image.Src
	}
	return ""
}

func (c *Collection) CreatePayload() (map[string]any, error) {
	m, err := c.payload("products_count", "collection_type", "published_scope", "image")
	if err != nil {
		return nil, err
	}
	m["published"] = c.Published()
	delete(m, "published_at")
	return m, nil
}

type Page struct {
	Base
	Title          string  `json:"title"`
	Handle         string  `json:"handle"`
	BodyHTML       *string `json:"body_html"`
	Author         string  `json:"author"`
	PublishedAt    *string `json:"published_at"`
	TemplateSuffix *string `json:"template_suffix"`
}

func (p *Page) DisplayTitle() string      { return p.Title }
func (p *Page) Category() entity.ItemType { return entity.ItemPage }
func (p *Page) NaturalKey() string        { return p.Handle }
func (p *Page) Published() bool           { return p.PublishedAt != nil && *p.PublishedAt != "" }

func (p *Page) CreatePayload() (map[string]any, error) {
	m, err := p.payload("shop_id")
	if err != nil {
		return nil, err
	}
	m["published"] = p.Published()
	delete(m, "published_at")
	return m, nil
}

type Redirect struct {
	Base
	Path   string `json:"path"`
	Target string `json:"target"`
}

func (r *Redirect) DisplayTitle() string      { return r.Path + " -> " + r.Target }
func (r *Redirect) Category() entity.ItemType { return entity.ItemRedirect }
func (r *Redirect) NaturalKey() string        { return r.Path }
func (r *Redirect) CreatePayload() (map[string]any, error) {
	return r.payload()
}

type Metafield struct {
	Base
	Namespace     string          `json:"namespace"`
	Key           string          `json:"key"`
	Value         json.RawMessage `json:"value"`
	Type          string          `json:"type"`
	OwnerResource string          `json:"owner_resource"`
	OwnerID       FlexID          `json:"owner_id"`
}

func (m *Metafield) DisplayTitle() string      { return m.Namespace + "." + m.Key }
func (m *Metafield) Category() entity.ItemType { return entity.ItemMetafield }
func (m *Metafield) NaturalKey() string        { return m.Namespace + "." + m.Key }

// ValueString renders the value the way Shopify accepts it on create.
func (m *Metafield) ValueString() string {
	var s string
	if err := json.Unmarshal(m.Value, &s); err == nil {
		return s
	}
	return string(m.Value)
}

func (m *Metafield) CreatePayload() (map[string]any, error) {
	return map[string]any{
		"namespace": m.Namespace,
		"key":       m.Key,
		"value":     m.ValueString(),
		"type":      m.Type,
	}, nil
}

type PriceRule struct {
	Base
	Title       string `json:"title"`
	ValueType   string `json:"value_type"`
	Value       string `json:"value"`
	TargetType  string `json:"target_type"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
	UsageLimit  *int   `json:"usage_limit"`
	OncePerUser bool   `json:"once_per_customer"`
}

type DiscountCode struct {
	ID          FlexID `json:"id"`
	PriceRuleID FlexID `json:"price_rule_id"`
	Code        string `json:"code"`
	UsageCount  int    `json:"usage_count"`
}

// Discount is a price rule bundled with its discount codes. The snapshot payload is
// {"price_rule": {...}, "discount_codes": [...]}.
type Discount struct {
	raw       json.RawMessage
	PriceRule PriceRule      `json:"price_rule"`
	Codes     []DiscountCode `json:"discount_codes"`
}

func NewDiscountPayload(priceRule json.RawMessage, codes []json.RawMessage) (json.RawMessage, error) {
	if codes == nil {
		codes = []json.RawMessage{}
	}
	return json.Marshal(struct {
		PriceRule json.RawMessage   `json:"price_rule"`
		Codes     []json.RawMessage `json:"discount_codes"`
	}{priceRule, codes})
}

func (d *Discount) ExternalID() string        { return string(d.PriceRule.ID) }
func (d *Discount) DisplayTitle() string      { return d.PriceRule.Title }
func (d *Discount) ImageURL() string          { return "" }
func (d *Discount) Raw() json.RawMessage      { return d.raw }
func (d *Discount) setRaw(raw []byte)         { d.raw = append(json.RawMessage(nil), raw...) }
func (d *Discount) Category() entity.ItemType { return entity.ItemDiscount }

// NaturalKey is the first discount code; a rule without codes falls back to its title.
func (d *Discount) NaturalKey() string {
	if len(d.Codes) > 0 {
		return d.Codes[0].Code
	}
	return d.PriceRule.Title
}

// CreatePayload returns the price rule body. Codes are created in a second step by CodePayloads.
func (d *Discount) CreatePayload() (map[string]any, error) {
	var envelope struct {
		PriceRule json.RawMessage `json:"price_rule"`
	}
	if err := json.Unmarshal(d.raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode discount payload: %w", err)
	}
	rule := Base{raw: envelope.PriceRule}
	return rule.payload("prerequisite_saved_search_ids")
}

func (d *Discount) CodePayloads() []map[string]any {
	out := make([]map[string]any, 0, len(d.Codes))
	for _, c := range d.Codes {
		out = append(out, map[string]any{"code": c.Code})
	}
	return out
}

type MenuItem struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Type       string     `json:"type"`
	URL        string     `json:"url"`
	ResourceID *string    `json:"resourceId"`
	Tags       []string   `json:"tags"`
	Items      []MenuItem `json:"items"`
}

// CreateInput renders the item as MenuItemCreateInput.
func (i MenuItem) CreateInput() map[string]any {
	in := map[string]any{"title": i.Title, "type": i.Type}
	if i.URL != "" {
		in["url"] = i.URL
	}
	if i.ResourceID != nil && *i.ResourceID != "" {
		in["resourceId"] = *i.ResourceID
	}
	if len(i.Tags) > 0 {
		in["tags"] = i.Tags
	}
	if len(i.Items) > 0 {
		children := make([]map[string]any, 0, len(i.Items))
		for _, c := range i.Items {
			children = append(children, c.CreateInput())
		}
		in["items"] = children
	}
	return in
}

type Menu struct {
	Base
	Handle    string     `json:"handle"`
	Title     string     `json:"title"`
	IsDefault bool       `json:"isDefault"`
	Items     []MenuItem `json:"items"`
}

func (m *Menu) DisplayTitle() string      { return m.Title }
func (m *Menu) Category() entity.ItemType { return entity.ItemMenu }
func (m *Menu) NaturalKey() string        { return m.Handle }

// ItemCount counts menu entries at every nesting level.
func (m *Menu) ItemCount() int {
	var count func([]MenuItem) int
	count = func(items []MenuItem) int {
		n := len(items)
		for _, i := range items {
			n += count(i.Items)
		}
		return n
	}
	return count(m.Items)
}

func (m *Menu) CreatePayload() (map[string]any, error) {
	items := make([]map[string]any, 0, len(m.Items))
	for _, i := range m.Items {
		items = append(items, i.CreateInput())
	}
	return map[string]any{"title": m.Title, "handle": m.Handle, "items": items}, nil
}

type Order struct {
	Base
	Name              string `json:"name"`
	Email             string `json:"email"`
	TotalPrice        string `json:"total_price"`
	FinancialStatus   string `json:"financial_status"`
	FulfillmentStatus string `json:"fulfillment_status"`
}

func (o *Order) DisplayTitle() string {
	if o.Name != "" {
		return o.Name
	}
	return "#" + string(o.ID)
}

type Customer struct {
	Base
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	State     string `json:"state"`
	Tags      string `json:"tags"`
}

func (c *Customer) DisplayTitle() string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name != "" {
		return name
	}
	return c.Email
}

type rawSetter interface {
	setRaw([]byte)
}

// Decode parses a stored or live payload into the typed variant of t.
func Decode(t entity.ItemType, payload []byte) (Entity, error) {
	var e Entity
	switch t {
	case entity.ItemProduct:
		e = &Product{}
	case entity.ItemProductImage, entity.ItemBlogImage:
		e = &Image{}
	case entity.ItemBlog:
		e = &Blog{}
	case entity.ItemBlogPost:
		e = &Article{}
	case entity.ItemCollection:
		e = &Collection{}
	case entity.ItemPage:
		e = &Page{}
	case entity.ItemMenu:
		e = &Menu{}
	case entity.ItemRedirect:
		e = &Redirect{}
	case entity.ItemMetafield:
		e = &Metafield{}
	case entity.ItemDiscount:
		e = &Discount{}
	case entity.ItemOrder:
		e = &Order{}
	case entity.ItemCustomer:
		e = &Customer{}
	default:
		return nil, fmt.Errorf("unknown item type %q", t)
	}
	if err := json.Unmarshal(payload, e); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", t, err)
	}
	e.(rawSetter).setRaw(payload)
	return e, nil
}

// IDFromCreate reads the id of a freshly created resource wrapped under root, e.g. {"product": {"id": 1}}.
func IDFromCreate(body []byte, root string) (string, error) {
	var envelope map[string]struct {
		ID FlexID `json:"id"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("failed to decode created %s: %w", root, err)
	}
	id := envelope[root].ID
	if id == "" {
		return "", fmt.Errorf("created %s carries no id", root)
	}
	return string(id), nil
}

// NumericID is the numeric tail of a GraphQL gid or the id itself.
func NumericID(id string) (int64, bool) {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	n, err := strconv.ParseInt(id, 10, 64)
	return n, err == nil
}

func fileName(src string) string {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	if i := strings.LastIndex(src, "/"); i >= 0 {
		return src[i+1:]
	}
	return src
}
