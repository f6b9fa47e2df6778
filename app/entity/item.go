package entity

import (
	"encoding/json"
	"time"
)

type ItemType string

const (
	ItemProduct      ItemType = "product"
	ItemProductImage ItemType = "product_image"
	ItemBlog         ItemType = "blog"
	ItemBlogPost     ItemType = "blog_post"
	ItemBlogImage    ItemType = "blog_image"
	ItemCollection   ItemType = "collection"
	ItemPage         ItemType = "page"
	ItemMenu         ItemType = "menu"
	ItemRedirect     ItemType = "redirect"
	ItemMetafield    ItemType = "metafield"
	ItemDiscount     ItemType = "discount"
	ItemOrder        ItemType = "order"
	ItemCustomer     ItemType = "customer"
)

// AllItemTypes lists every type tag in backup order.
var AllItemTypes = []ItemType{
	ItemProduct, ItemProductImage, ItemCollection, ItemPage, ItemBlog, ItemBlogPost, ItemBlogImage,
	ItemMenu, ItemRedirect, ItemMetafield, ItemDiscount, ItemOrder, ItemCustomer,
}

var itemLabels = map[ItemType]string{
	ItemProduct:      "Products",
	ItemProductImage: "Product images",
	ItemBlog:         "Blogs",
	ItemBlogPost:     "Blog posts",
	ItemBlogImage:    "Blog images",
	ItemCollection:   "Collections",
	ItemPage:         "Pages",
	ItemMenu:         "Menus",
	ItemRedirect:     "Redirects",
	ItemMetafield:    "Metafields",
	ItemDiscount:     "Discounts",
	ItemOrder:        "Orders",
	ItemCustomer:     "Customers",
}

func (t ItemType) IsValid() bool {
	_, ok := itemLabels[t]
	return ok
}

func (t ItemType) Label() string {
	if l, ok := itemLabels[t]; ok {
		return l
	}
	return string(t)
}

// IsImage reports whether items of this type hold a downloaded image artifact.
func (t ItemType) IsImage() bool {
	return t == ItemProductImage || t == ItemBlogImage
}

func (t ItemType) String() string {
	return string(t)
}

// SnapshotItem is one entity captured by a backup run. Items are written once and never updated.
type SnapshotItem struct {
	ID         int64    `json:"id" db:"id"`
	RunID      string   `json:"run_id" db:"run_id"`
	Type       ItemType `json:"type" db:"item_type"`
	ExternalID string   `json:"external_id" db:"external_id"`
	Title      string   `json:"title" db:"title"`
	Payload    string   `json:"-" db:"payload"`
	ImageURL   string   `json:"image_url,omitempty" db:"image_url"`
	ParentID   string   `json:"parent_id,omitempty" db:"parent_id"`
	BlobHash   string   `json:"blob_hash,omitempty" db:"blob_hash"`
	BlobSize   int64    `json:"blob_size,omitempty" db:"blob_size"`
	CreatedAt  int64    `json:"created_at" db:"created_at"`

	// Blob is only populated while saving; listing never loads blob bytes.
	Blob []byte `json:"-" db:"-"`
}

func (i SnapshotItem) RawPayload() json.RawMessage {
	if i.Payload == "" {
		return json.RawMessage("null")
	}
	return json.RawMessage(i.Payload)
}

func (i SnapshotItem) HasBlob() bool {
	return i.BlobHash != ""
}

func NowMillis() int64 {
	return time.Now().UnixMilli()
}
