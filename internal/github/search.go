package github

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

const (
	SearchUsersPath = "/search/users"
	sortFollowers   = "followers"
)

// SearchParams are encoded into the search query string. Fields use the
// ghparam tag for the parameter name; zero values are omitted.
type SearchParams struct {
	Query   string `ghparam:"q"`
	PerPage int    `ghparam:"per_page"`
	Page    int    `ghparam:"page"`
	Sort    string `ghparam:"sort"`
	Order   string `ghparam:"order"`
}

// Identity is one user summary from a search result page.
type Identity struct {
	Login   string         `json:"login"`
	ID      int64          `json:"id"`
	HTMLURL string         `json:"html_url"`
	Type    string         `json:"type"`
	Raw     map[string]any `json:"-" mapstructure:"-"`
}

type searchResponse struct {
	TotalCount        int              `json:"total_count"`
	IncompleteResults bool             `json:"incomplete_results"`
	Items             []map[string]any `json:"items"`
}

// SearchResult carries the classified outcome of one search call.
type SearchResult struct {
	Outcome Outcome
	Status  int
	Total   int
	Items   []Identity
}

// SearchUsers runs a single user search page. A non-nil error means the
// request never produced a classifiable response.
func (c *Client) SearchUsers(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.PerPage <= 0 {
		params.PerPage = searchPerPage
	}
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Sort == "" {
		params.Sort = sortFollowers
	}

	var response searchResponse
	status, err := c.getJSON(ctx, SearchUsersPath, buildParams(&params), &response)
	if err != nil {
		return nil, fmt.Errorf("search users %q: %w", params.Query, err)
	}

	result := &SearchResult{Outcome: Classify(status), Status: status}
	if result.Outcome != OutcomeOK {
		return result, nil
	}

	items, err := decodeIdentities(response.Items)
	if err != nil {
		return nil, fmt.Errorf("decode search items: %w", err)
	}

	result.Total = response.TotalCount
	result.Items = items

	return result, nil
}

func decodeIdentities(raw []map[string]any) ([]Identity, error) {
	identities := make([]Identity, 0, len(raw))
	for _, item := range raw {
		var identity Identity
		cfg := &mapstructure.DecoderConfig{
			Result:           &identity,
			TagName:          "json",
			WeaklyTypedInput: true,
		}
		decoder, err := mapstructure.NewDecoder(cfg)
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(item); err != nil {
			return nil, err
		}
		if identity.Login == "" {
			continue
		}
		identity.Raw = item
		identities = append(identities, identity)
	}
	return identities, nil
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	value := reflect.ValueOf(params).Elem()
	for _, field := range reflect.VisibleFields(value.Type()) {
		key := field.Tag.Get("ghparam")
		if key == "" {
			continue
		}

		fv := value.FieldByIndex(field.Index)
		switch fv.Kind() {
		case reflect.Slice:
			for i := 0; i < fv.Len(); i++ {
				q.Add(key, fmt.Sprintf("%v", fv.Index(i).Interface()))
			}
		case reflect.Int, reflect.Int64:
			if n := fv.Int(); n != 0 {
				q.Set(key, strconv.FormatInt(n, 10))
			}
		default:
			if s := fmt.Sprintf("%v", fv.Interface()); s != "" {
				q.Set(key, s)
			}
		}
	}

	return q
}
