package request

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
	"github.com/matst80/slask-filter/pkg/types"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

type fixedFields struct {
	Search string `schema:"search" json:"search"`
	Sort   string `schema:"sort" json:"sort"`
	Page   int    `schema:"page" json:"page"`
	Render string `schema:"render" json:"render"`
}

type wireBody struct {
	fixedFields
	Context map[string][]uint `json:"context,omitempty"`
	Filters map[string]any    `json:"filters,omitempty"`
}

// FromHTTP builds a normalized FilterRequest from either a GET query
// string or a JSON POST body. Filter values are read per configured
// filter key, range filters from <key>_min / <key>_max parameters.
func FromHTTP(cfg *types.Config, r *http.Request) (*types.FilterRequest, error) {
	if r.Method == http.MethodPost {
		return fromBody(cfg, r)
	}
	return FromQuery(cfg, r.URL.Query())
}

func FromQuery(cfg *types.Config, query url.Values) (*types.FilterRequest, error) {
	result := types.NewFilterRequest()
	var fixed fixedFields
	if err := decoder.Decode(&fixed, query); err != nil {
		return result, err
	}
	applyFixed(result, &fixed, cfg)

	raw := map[string]any{}
	for i := range cfg.Filters {
		def := &cfg.Filters[i]
		if def.IsRange() {
			bounds := map[string]string{}
			if v := query.Get(def.Key + "_min"); v != "" {
				bounds["min"] = v
			}
			if v := query.Get(def.Key + "_max"); v != "" {
				bounds["max"] = v
			}
			if len(bounds) > 0 {
				raw[def.Key] = bounds
			}
			continue
		}
		if values, ok := query[def.Key]; ok {
			raw[def.Key] = strings.Join(values, ",")
		}
	}
	result.Selections = Normalize(cfg, raw)
	result.Context = contextFromQuery(query)
	result.Sanitize()
	return result, nil
}

// contextFromQuery parses ambient page context entries of the form
// ctx=<taxonomy>:<term-id>, e.g. ctx=product_cat:9.
func contextFromQuery(query url.Values) types.PageContext {
	ctx := types.PageContext{}
	for _, entry := range query["ctx"] {
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			continue
		}
		tax := strings.TrimSpace(parts[0])
		id, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if tax == "" || err != nil {
			continue
		}
		if ctx.Taxonomies == nil {
			ctx.Taxonomies = map[string][]uint{}
		}
		ctx.Taxonomies[tax] = append(ctx.Taxonomies[tax], uint(id))
	}
	return ctx
}

func fromBody(cfg *types.Config, r *http.Request) (*types.FilterRequest, error) {
	result := types.NewFilterRequest()
	var body wireBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return result, err
	}
	applyFixed(result, &body.fixedFields, cfg)
	result.Selections = Normalize(cfg, body.Filters)
	if len(body.Context) > 0 {
		result.Context = types.PageContext{Taxonomies: body.Context}
	}
	result.Sanitize()
	return result, nil
}

func applyFixed(result *types.FilterRequest, fixed *fixedFields, cfg *types.Config) {
	result.Search = strings.TrimSpace(fixed.Search)
	result.Sort = fixed.Sort
	if result.Sort == "" {
		result.Sort = cfg.Settings.DefaultSort
	}
	result.Page = fixed.Page
	if fixed.Render == string(types.RenderShortcode) {
		result.Render = types.RenderShortcode
	}
}
