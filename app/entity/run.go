package entity

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Selection holds the category flags chosen when a backup is requested.
type Selection struct {
	IncludeProducts      bool `json:"include_products" db:"include_products"`
	IncludeProductImages bool `json:"include_product_images" db:"include_product_images"`
	IncludeBlogs         bool `json:"include_blogs" db:"include_blogs"`
	IncludeBlogImages    bool `json:"include_blog_images" db:"include_blog_images"`
	IncludeCollections   bool `json:"include_collections" db:"include_collections"`
	IncludePages         bool `json:"include_pages" db:"include_pages"`
	IncludeMenus         bool `json:"include_menus" db:"include_menus"`
	IncludeRedirects     bool `json:"include_redirects" db:"include_redirects"`
	IncludeMetafields    bool `json:"include_metafields" db:"include_metafields"`
	IncludeDiscounts     bool `json:"include_discounts" db:"include_discounts"`
	IncludeOrders        bool `json:"include_orders" db:"include_orders"`
	IncludeCustomers     bool `json:"include_customers" db:"include_customers"`
}

// Includes reports whether items of type t are captured under this selection.
// Image types additionally require their parent category.
func (s Selection) Includes(t ItemType) bool {
	switch t {
	case ItemProduct:
		return s.IncludeProducts
	case ItemProductImage:
		return s.IncludeProducts && s.IncludeProductImages
	case ItemBlog, ItemBlogPost:
		return s.IncludeBlogs
	case ItemBlogImage:
		return s.IncludeBlogs && s.IncludeBlogImages
	case ItemCollection:
		return s.IncludeCollections
	case ItemPage:
		return s.IncludePages
	case ItemMenu:
		return s.IncludeMenus
	case ItemRedirect:
		return s.IncludeRedirects
	case ItemMetafield:
		return s.IncludeMetafields
	case ItemDiscount:
		return s.IncludeDiscounts
	case ItemOrder:
		return s.IncludeOrders
	case ItemCustomer:
		return s.IncludeCustomers
	}
	return false
}

func (s Selection) Empty() bool {
	for _, t := range AllItemTypes {
		if s.Includes(t) {
			return false
		}
	}
	return true
}

type Counters struct {
	Products      int `json:"products_count" db:"products_count"`
	ProductImages int `json:"product_images_count" db:"product_images_count"`
	Blogs         int `json:"blogs_count" db:"blogs_count"`
	BlogPosts     int `json:"blog_posts_count" db:"blog_posts_count"`
	BlogImages    int `json:"blog_images_count" db:"blog_images_count"`
	Collections   int `json:"collections_count" db:"collections_count"`
	Pages         int `json:"pages_count" db:"pages_count"`
	Menus         int `json:"menus_count" db:"menus_count"`
	Redirects     int `json:"redirects_count" db:"redirects_count"`
	Metafields    int `json:"metafields_count" db:"metafields_count"`
	Discounts     int `json:"discounts_count" db:"discounts_count"`
	Orders        int `json:"orders_count" db:"orders_count"`
	Customers     int `json:"customers_count" db:"customers_count"`
}

func (c *Counters) field(t ItemType) *int {
	switch t {
	case ItemProduct:
		return &c.Products
	case ItemProductImage:
		return &c.ProductImages
	case ItemBlog:
		return &c.Blogs
	case ItemBlogPost:
		return &c.BlogPosts
	case ItemBlogImage:
		return &c.BlogImages
	case ItemCollection:
		return &c.Collections
	case ItemPage:
		return &c.Pages
	case ItemMenu:
		return &c.Menus
	case ItemRedirect:
		return &c.Redirects
	case ItemMetafield:
		return &c.Metafields
	case ItemDiscount:
		return &c.Discounts
	case ItemOrder:
		return &c.Orders
	case ItemCustomer:
		return &c.Customers
	}
	return nil
}

func (c *Counters) Set(t ItemType, n int) {
	if f := c.field(t); f != nil {
		*f = n
	}
}

func (c Counters) Get(t ItemType) int {
	if f := c.field(t); f != nil {
		return *f
	}
	return 0
}

func (c Counters) Total() int {
	total := 0
	for _, t := range AllItemTypes {
		total += c.Get(t)
	}
	return total
}

// BackupRun is one snapshot job. Progress fields are rewritten after every item so that
// pollers reading the same record by id can render live status.
type BackupRun struct {
	ID   string `json:"id" db:"id"`
	Shop string `json:"shop" db:"shop"`
	Selection
	Status RunStatus `json:"status" db:"status"`
	Counters
	TotalSize       int64  `json:"total_size" db:"total_size"`
	CurrentStep     string `json:"current_step" db:"current_step"`
	ProgressMessage string `json:"progress_message" db:"progress_message"`
	ErrorMessage    string `json:"error_message,omitempty" db:"error_message"`
	CreatedAt       int64  `json:"created_at" db:"created_at"`
	StartedAt       int64  `json:"started_at,omitempty" db:"started_at"`
	CompletedAt     int64  `json:"completed_at,omitempty" db:"completed_at"`
}
