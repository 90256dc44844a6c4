package types

import (
	"fmt"
	"strings"
)

type FilterType string

const (
	FilterCheckbox FilterType = "checkbox"
	FilterDropdown FilterType = "dropdown"
	FilterSwatch   FilterType = "swatch"
	FilterRange    FilterType = "range"
	FilterSlider   FilterType = "slider"
)

type DataSource string

const (
	SourceTaxonomy  DataSource = "taxonomy"
	SourceAttribute DataSource = "attribute"
	SourceCategory  DataSource = "product_cat"
	SourceTag       DataSource = "product_tag"
	SourceMeta      DataSource = "meta"
)

type Operator string

const (
	OperatorOr  Operator = "or"
	OperatorAnd Operator = "and"
)

const (
	CategoryTaxonomy = "product_cat"
	TagTaxonomy      = "product_tag"
)

// Visibility controls where a filter is shown and how its term clauses
// treat hierarchy. Only IncludeChildren and HideEmpty matter for the
// query and counting paths, the rest is rendering input.
type Visibility struct {
	Categories      []uint `json:"categories,omitempty"`
	Tags            []uint `json:"tags,omitempty"`
	IncludeChildren bool   `json:"includeChildren"`
	HideEmpty       bool   `json:"hideEmpty"`
}

type FilterDefinition struct {
	Id                uint       `json:"id"`
	Key               string     `json:"key"`
	Type              FilterType `json:"type"`
	Source            DataSource `json:"source"`
	SourceKey         string     `json:"sourceKey"`
	MultiSelect       bool       `json:"multiSelect"`
	Operator          Operator   `json:"operator"`
	Visibility        Visibility `json:"visibility"`
	ShowMoreThreshold int        `json:"showMoreThreshold,omitempty"`
}

// IsRange reports if the filter carries a numeric min/max selection
// instead of a term selection. Meta backed filters are always ranges.
func (f *FilterDefinition) IsRange() bool {
	return f.Source == SourceMeta || f.Type == FilterRange || f.Type == FilterSlider
}

// AttributeTaxonomy maps an attribute slug to its taxonomy name,
// already prefixed keys pass through unchanged.
func AttributeTaxonomy(slug string) string {
	if strings.HasPrefix(slug, "pa_") {
		return slug
	}
	return "pa_" + slug
}

// Taxonomy resolves the taxonomy a filter constrains. Empty means the
// filter has no taxonomy (meta ranges) and never emits a term clause.
func (f *FilterDefinition) Taxonomy() string {
	switch f.Source {
	case SourceCategory:
		return CategoryTaxonomy
	case SourceTag:
		return TagTaxonomy
	case SourceAttribute:
		return AttributeTaxonomy(f.SourceKey)
	case SourceTaxonomy:
		return f.SourceKey
	}
	return ""
}

type Settings struct {
	PageSize       int    `json:"pageSize"`
	DefaultSort    string `json:"defaultSort"`
	CacheEnabled   bool   `json:"cacheEnabled"`
	CacheTTL       int    `json:"cacheTtl"`
	ShowCounts     bool   `json:"showCounts"`
	HideOutOfStock bool   `json:"hideOutOfStock"`
}

type Config struct {
	Version  int                `json:"version"`
	Filters  []FilterDefinition `json:"filters"`
	Settings Settings           `json:"settings"`
}

// Validate is run once at load time so the query and facet paths can
// trust the definitions instead of re-checking at every read site.
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Filters))
	for i := range c.Filters {
		f := &c.Filters[i]
		if f.Key == "" {
			return fmt.Errorf("filter %d has no key", f.Id)
		}
		if _, ok := seen[f.Key]; ok {
			return fmt.Errorf("duplicate filter key %q", f.Key)
		}
		seen[f.Key] = struct{}{}
		if f.Source == SourceMeta && f.SourceKey == "" {
			return fmt.Errorf("meta filter %q has no source key", f.Key)
		}
		if f.Source == SourceMeta && !f.IsRange() {
			return fmt.Errorf("meta filter %q must be a range type", f.Key)
		}
		if f.Operator == "" {
			f.Operator = OperatorOr
		}
	}
	if c.Settings.PageSize < 1 {
		c.Settings.PageSize = 24
	}
	return nil
}

func (c *Config) FilterByKey(key string) *FilterDefinition {
	for i := range c.Filters {
		if c.Filters[i].Key == key {
			return &c.Filters[i]
		}
	}
	return nil
}
