package shopify

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/tomnomnom/linkheader"
)

const pageInfoParam = "page_info"

// NextPageInfo extracts the cursor of the rel="next" entry of a Link header, e.g.
//
//	<https://shop.myshopify.com/admin/api/2024-10/products.json?limit=250&page_info=abc>; rel="next"
//
// It returns "" when there is no next page.
func NextPageInfo(header http.Header) string {
	for _, link := range linkheader.ParseMultiple(header.Values("Link")).FilterByRel("next") {
		u, err := url.Parse(link.URL)
		if err != nil {
			continue
		}
		if cursor := u.Query().Get(pageInfoParam); cursor != "" {
			return cursor
		}
	}
	return ""
}

// pageURL builds the request for one page. Shopify rejects filters next to page_info, so follow-up pages carry
// only the limit and the cursor.
func pageURL(endpoint string, pageSize int, cursor string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if cursor != "" {
		q = url.Values{}
		q.Set(pageInfoParam, cursor)
	}
	q.Set("limit", strconv.Itoa(pageSize))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
