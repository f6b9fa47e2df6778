package controller

import (
	"fmt"

	"github.com/TarasYkv/shop-mirror-daemon/app/shopify"
	"github.com/shopspring/decimal"
)

// changes collects readable field differences in a fixed order.
type changes []string

func (c *changes) field(name string, old, cur string) {
	if old != cur {
		*c = append(*c, fmt.Sprintf("%s: %q -> %q", name, old, cur))
	}
}

func (c *changes) flag(name string, old, cur bool) {
	if old != cur {
		*c = append(*c, fmt.Sprintf("%s: %t -> %t", name, old, cur))
	}
}

func (c *changes) count(name string, old, cur int) {
	if old != cur {
		*c = append(*c, fmt.Sprintf("%s: %d -> %d", name, old, cur))
	}
}

// body reports only that rich text differs; the text itself would drown the diff.
func (c *changes) body(name string, old, cur *string) {
	if deref(old) != deref(cur) {
		*c = append(*c, name+" changed")
	}
}

// amount compares prices numerically so "19.9" equals "19.90".
func (c *changes) amount(name string, old, cur string) {
	if old == cur {
		return
	}
	a, errA := decimal.NewFromString(old)
	b, errB := decimal.NewFromString(cur)
	if errA == nil && errB == nil && a.Equal(b) {
		return
	}
	*c = append(*c, fmt.Sprintf("%s: %s -> %s", name, old, cur))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// diff compares a snapshot entity with its live counterpart of the same category.
func diff(snap, live shopify.Entity) []string {
	var c changes
	switch s := snap.(type) {
	case *shopify.Product:
		l, ok := live.(*shopify.Product)
		if !ok {
			break
		}
		c.field("title", s.Title, l.Title)
		c.field("status", s.Status, l.Status)
		c.body("description", s.BodyHTML, l.BodyHTML)
		c.field("image", s.ImageURL(), l.ImageURL())
		c.field("tags", s.Tags, l.Tags)
		c.amount("price", s.FirstPrice(), l.FirstPrice())
		c.count("images", len(s.Images), len(l.Images))
	case *shopify.Collection:
		l, ok := live.(*shopify.Collection)
		if !ok {
			break
		}
		c.field("title", s.Title, l.Title)
		c.flag("published", s.Published(), l.Published())
		c.body("description", s.BodyHTML, l.BodyHTML)
		c.field("image", s.ImageURL(), l.ImageURL())
		c.count("rules", len(s.Rules), len(l.Rules))
	case *shopify.Page:
		l, ok := live.(*shopify.Page)
		if !ok {
			break
		}
		c.field("title", s.Title, l.Title)
		c.flag("published", s.Published(), l.Published())
		c.body("content", s.BodyHTML, l.BodyHTML)
	case *shopify.Blog:
		l, ok := live.(*shopify.Blog)
		if !ok {
			break
		}
		c.field("title", s.Title, l.Title)
		c.field("commentable", s.Commentable, l.Commentable)
		c.field("tags", s.Tags, l.Tags)
	case *shopify.Article:
		l, ok := live.(*shopify.Article)
		if !ok {
			break
		}
		c.field("title", s.Title, l.Title)
		c.flag("published", s.Published(), l.Published())
		c.body("content", s.BodyHTML, l.BodyHTML)
		c.field("image", s.ImageURL(), l.ImageURL())
		c.field("tags", s.Tags, l.Tags)
		c.field("author", s.Author, l.Author)
	case *shopify.Menu:
		l, ok := live.(*shopify.Menu)
		if !ok {
			break
		}
		c.field("title", s.Title, l.Title)
		c.count("items", s.ItemCount(), l.ItemCount())
	case *shopify.Redirect:
		l, ok := live.(*shopify.Redirect)
		if !ok {
			break
		}
		c.field("path", s.Path, l.Path)
		c.field("target", s.Target, l.Target)
	case *shopify.Metafield:
		l, ok := live.(*shopify.Metafield)
		if !ok {
			break
		}
		c.field("value", s.ValueString(), l.ValueString())
		c.field("type", s.Type, l.Type)
	case *shopify.Discount:
		l, ok := live.(*shopify.Discount)
		if !ok {
			break
		}
		c.field("title", s.PriceRule.Title, l.PriceRule.Title)
		c.amount("value", s.PriceRule.Value, l.PriceRule.Value)
		c.field("value type", s.PriceRule.ValueType, l.PriceRule.ValueType)
		c.count("codes", len(s.Codes), len(l.Codes))
	case *shopify.Order:
		l, ok := live.(*shopify.Order)
		if !ok {
			break
		}
		c.field("financial status", s.FinancialStatus, l.FinancialStatus)
		c.field("fulfillment status", s.FulfillmentStatus, l.FulfillmentStatus)
		c.amount("total", s.TotalPrice, l.TotalPrice)
	case *shopify.Customer:
		l, ok := live.(*shopify.Customer)
		if !ok {
			break
		}
		c.field("email", s.Email, l.Email)
		c.field("state", s.State, l.State)
		c.field("tags", s.Tags, l.Tags)
	}
	return c
}
