package recordapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dandantas/pimpush/internal/model"
	"github.com/oliveagle/jsonpath"
)

// ErrPriceTierNotFound is returned when no price entry links to the requested tier
var ErrPriceTierNotFound = errors.New("price tier not found")

// PriceCollectionURL returns the price sub-resource of a record
func PriceCollectionURL(env model.EnvConfig, id string) string {
	return RecordURL(env, id) + "/price"
}

// FindPriceLink lists the record's price entries and returns the href of the
// entry whose link carries every key=value pair of tier (e.g. "pricelevel=1")
func (c *Client) FindPriceLink(ctx context.Context, env model.EnvConfig, id, tier string) (string, error) {
	resp, err := c.Do(ctx, env, http.MethodGet, PriceCollectionURL(env, id), nil)
	if err != nil {
		return "", fmt.Errorf("failed to list prices: %w", err)
	}
	if resp.Data == nil {
		return "", fmt.Errorf("price collection is not JSON")
	}

	found, err := lookup(resp.Data, c.opts.PriceItemsPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPriceTierNotFound, tier)
	}

	items, ok := found.([]interface{})
	if !ok {
		return "", fmt.Errorf("price collection at %s is %T, not a list", c.opts.PriceItemsPath, found)
	}

	for _, item := range items {
		for _, href := range entryLinks(item) {
			if linkMatchesTier(href, tier) {
				return href, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrPriceTierNotFound, tier)
}

// CurrentPrice reads the amount stored on a price row; nil when unset
func (c *Client) CurrentPrice(ctx context.Context, env model.EnvConfig, href string) (interface{}, error) {
	resp, err := c.Do(ctx, env, http.MethodGet, href, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read price: %w", err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("price row is not JSON")
	}

	value, err := lookup(resp.Data, "$."+c.opts.PriceValueField)
	if err != nil {
		return nil, nil
	}
	return value, nil
}

// PatchPrice writes a new amount to a price row
func (c *Client) PatchPrice(ctx context.Context, env model.EnvConfig, href string, amount float64) (*Response, error) {
	return c.Do(ctx, env, http.MethodPatch, href, map[string]interface{}{
		c.opts.PriceValueField: amount,
	})
}

// lookup extracts a value using a JSONPath expression
func lookup(data interface{}, expression string) (interface{}, error) {
	pattern, err := jsonpath.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONPath expression '%s': %w", expression, err)
	}

	result, err := pattern.Lookup(data)
	if err != nil {
		return nil, fmt.Errorf("JSONPath expression '%s' returned no results: %w", expression, err)
	}

	return result, nil
}

// entryLinks returns the hrefs of a collection entry's links
func entryLinks(item interface{}) []string {
	entry, ok := item.(map[string]interface{})
	if !ok {
		return nil
	}

	var hrefs []string
	if href, ok := entry["href"].(string); ok {
		hrefs = append(hrefs, href)
	}
	links, _ := entry["links"].([]interface{})
	for _, l := range links {
		if link, ok := l.(map[string]interface{}); ok {
			if href, ok := link["href"].(string); ok {
				hrefs = append(hrefs, href)
			}
		}
	}
	return hrefs
}

// linkMatchesTier reports whether each key=value pair of tier appears exactly
// in the last path segment of href, e.g. ".../price/quantity=0,pricelevel=1"
func linkMatchesTier(href, tier string) bool {
	segment := href
	if u, err := url.Parse(href); err == nil {
		segment = u.Path
	}
	segment = segment[strings.LastIndex(segment, "/")+1:]

	pairs := make(map[string]bool)
	for _, p := range strings.Split(segment, ",") {
		pairs[strings.TrimSpace(p)] = true
	}

	matched := false
	for _, want := range strings.Split(tier, ",") {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		if !pairs[want] {
			return false
		}
		matched = true
	}
	return matched
}
