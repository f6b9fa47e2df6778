package entity

import "encoding/json"

type CompareStatus string

const (
	CompareDeleted   CompareStatus = "deleted"
	CompareNew       CompareStatus = "new"
	CompareChanged   CompareStatus = "changed"
	CompareUnchanged CompareStatus = "unchanged"
)

// CompareResult is computed on every compare call and never persisted.
type CompareResult struct {
	Type       ItemType        `json:"type"`
	ExternalID string          `json:"shopify_id"`
	Title      string          `json:"title"`
	Status     CompareStatus   `json:"status"`
	Changes    []string        `json:"changes,omitempty"`
	Snapshot   json.RawMessage `json:"snapshot,omitempty"`
	Live       json.RawMessage `json:"live,omitempty"`
	ItemID     int64           `json:"item_id,omitempty"`
}
