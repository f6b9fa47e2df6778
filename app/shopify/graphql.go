package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const graphQLPath = "graphql.json"

type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

// UserError is a mutation level validation error such as menuCreate.userErrors.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// GraphQL posts a query and decodes its data field into out.
func GraphQL(ctx context.Context, d Doer, query string, variables map[string]any, out any) error {
	payload := map[string]any{"query": query}
	if len(variables) > 0 {
		payload["variables"] = variables
	}
	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := PostJSON(ctx, d, graphQLPath, payload, &envelope); err != nil {
		return err
	}
	if len(envelope.Errors) > 0 {
		gqlErr := &GraphQLError{}
		for _, e := range envelope.Errors {
			gqlErr.Messages = append(gqlErr.Messages, e.Message)
		}
		return gqlErr
	}
	if out == nil {
		return nil
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return errors.New("graphql: empty data")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("graphql: failed to decode data: %w", err)
	}
	return nil
}

const menuItemFields = `id title type url resourceId tags`

// menus nest three levels deep in the storefront navigation editor
var menusQuery = `query Menus($first: Int!, $after: String) {
  menus(first: $first, after: $after) {
    nodes {
      id handle title isDefault
      items { ` + menuItemFields + ` items { ` + menuItemFields + ` items { ` + menuItemFields + ` } } }
    }
    pageInfo { hasNextPage endCursor }
  }
}`

// FetchMenus pages through navigation menus with GraphQL cursors under the same caps as FetchAll.
func (f *Fetcher) FetchMenus(ctx context.Context) ([]json.RawMessage, error) {
	var (
		menus  []json.RawMessage
		cursor *string
	)
	first := min(f.pageSize, 250)
	for page := 1; ; page++ {
		if page > f.maxPages {
			f.logger.Warnw("page cap reached, result truncated", "endpoint", "menus", "pages", f.maxPages)
			return menus, nil
		}
		vars := map[string]any{"first": first}
		if cursor != nil {
			vars["after"] = *cursor
		}
		var data struct {
			Menus struct {
				Nodes    []json.RawMessage `json:"nodes"`
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
			} `json:"menus"`
		}
		if err := GraphQL(ctx, f.client, menusQuery, vars, &data); err != nil {
			return nil, fmt.Errorf("failed to fetch menus: %w", err)
		}
		if len(data.Menus.Nodes) == 0 {
			return menus, nil
		}
		menus = append(menus, data.Menus.Nodes...)
		if len(menus) >= f.maxItems {
			f.logger.Warnw("item cap reached, result truncated", "endpoint", "menus", "items", f.maxItems)
			return menus[:f.maxItems], nil
		}
		if !data.Menus.PageInfo.HasNextPage || data.Menus.PageInfo.EndCursor == "" {
			return menus, nil
		}
		next := data.Menus.PageInfo.EndCursor
		cursor = &next
	}
}

var menuCreateMutation = `mutation MenuCreate($title: String!, $handle: String!, $items: [MenuItemCreateInput!]!) {
  menuCreate(title: $title, handle: $handle, items: $items) {
    menu { id handle }
    userErrors { field message }
  }
}`

// CreateMenu runs menuCreate with the variables built by (*Menu).CreatePayload and returns the id
// of the new menu.
func CreateMenu(ctx context.Context, d Doer, vars map[string]any) (string, error) {
	var data struct {
		MenuCreate struct {
			Menu *struct {
				ID string `json:"id"`
			} `json:"menu"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"menuCreate"`
	}
	if err := GraphQL(ctx, d, menuCreateMutation, vars, &data); err != nil {
		return "", err
	}
	if len(data.MenuCreate.UserErrors) > 0 {
		msgs := make([]string, 0, len(data.MenuCreate.UserErrors))
		for _, ue := range data.MenuCreate.UserErrors {
			msgs = append(msgs, ue.Message)
		}
		return "", &GraphQLError{Messages: msgs}
	}
	if data.MenuCreate.Menu == nil {
		return "", errors.New("menuCreate returned no menu")
	}
	return data.MenuCreate.Menu.ID, nil
}
