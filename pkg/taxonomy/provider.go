package taxonomy

import (
	"github.com/matst80/slask-filter/pkg/types"
)

// Provider is the narrow contract against the storefront's term data.
// GetTerms must include terms with zero assigned products, hiding
// empties is a presentation decision made later.
type Provider interface {
	GetTerms(taxonomy string) ([]types.Term, error)
	ResolveSlugs(taxonomy string, slugs []string) ([]uint, error)
	Exists(taxonomy string) bool
	IsHierarchical(taxonomy string) bool
	Descendants(taxonomy string, id uint) ([]uint, error)
}
