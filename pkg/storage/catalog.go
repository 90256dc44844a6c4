package storage

import (
	"encoding/json"
	"os"
	"path"

	"github.com/matst80/slask-filter/pkg/query"
	"github.com/matst80/slask-filter/pkg/types"
)

const catalogFile = "catalog.json"

type CatalogTaxonomy struct {
	Name         string       `json:"name"`
	Hierarchical bool         `json:"hierarchical"`
	Terms        []types.Term `json:"terms"`
}

// Catalog is the development mode product and term snapshot loaded at
// startup. A production deployment feeds the executor and provider
// from the storefront instead.
type Catalog struct {
	Products   []query.Product   `json:"products"`
	Taxonomies []CatalogTaxonomy `json:"taxonomies"`
}

func LoadCatalog(dir string) (*Catalog, error) {
	data, err := os.ReadFile(path.Join(dir, catalogFile))
	if err != nil {
		return nil, err
	}
	catalog := &Catalog{}
	if err := json.Unmarshal(data, catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}
