package taxonomy

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/matst80/slask-filter/pkg/cache"
	"github.com/matst80/slask-filter/pkg/types"
)

// GroupData holds the derived duplicate-name maps for one taxonomy.
// All maps are empty for a taxonomy without duplicate names, which is
// the common case and must stay effectively free.
type GroupData struct {
	PrimaryOf     map[uint]uint       `json:"primaryOf"`
	SecondariesOf map[uint][]uint     `json:"secondariesOf"`
	GroupOfTerm   map[uint][]uint     `json:"groupOfTerm"`
	GroupOfSlug   map[string][]string `json:"groupOfSlug"`
	PrimarySlugOf map[string]string   `json:"primarySlugOf"`
}

func emptyGroupData() *GroupData {
	return &GroupData{
		PrimaryOf:     map[uint]uint{},
		SecondariesOf: map[uint][]uint{},
		GroupOfTerm:   map[uint][]uint{},
		GroupOfSlug:   map[string][]string{},
		PrimarySlugOf: map[string]string{},
	}
}

func (g *GroupData) Empty() bool {
	return len(g.PrimaryOf) == 0
}

// Grouper detects taxonomy terms that share a display name but have
// distinct ids, a data quality artifact, and lets the rest of the
// engine treat each duplicate-name group as one logical option.
type Grouper struct {
	provider Provider
	store    cache.Store
	ttl      time.Duration
	mu       sync.RWMutex
	local    map[string]*GroupData
}

// NewGrouper wires the grouper to a term provider and an optional
// persisted cache tier. store may be nil.
func NewGrouper(provider Provider, store cache.Store, ttl time.Duration) *Grouper {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Grouper{
		provider: provider,
		store:    store,
		ttl:      ttl,
		local:    map[string]*GroupData{},
	}
}

func groupCacheKey(taxonomy string) string {
	return "slask-filter:term-groups:" + taxonomy
}

// GetGroupData returns the cached group maps for a taxonomy, building
// them from a full term scan on miss. Provider failures yield empty
// maps, never an error.
func (g *Grouper) GetGroupData(taxonomy string) *GroupData {
	g.mu.RLock()
	data, found := g.local[taxonomy]
	g.mu.RUnlock()
	if found {
		return data
	}
	if g.store != nil {
		cached := emptyGroupData()
		if err := g.store.Get(groupCacheKey(taxonomy), cached); err == nil {
			g.mu.Lock()
			g.local[taxonomy] = cached
			g.mu.Unlock()
			return cached
		}
	}
	data = g.build(taxonomy)
	g.mu.Lock()
	g.local[taxonomy] = data
	g.mu.Unlock()
	if g.store != nil {
		if err := g.store.Set(groupCacheKey(taxonomy), data, g.ttl); err != nil {
			log.Printf("failed to persist term groups for %s: %v", taxonomy, err)
		}
	}
	return data
}

func (g *Grouper) build(taxonomy string) *GroupData {
	data := emptyGroupData()
	terms, err := g.provider.GetTerms(taxonomy)
	if err != nil {
		log.Printf("term scan failed for %s: %v", taxonomy, err)
		return data
	}
	byName := map[string][]types.Term{}
	for _, term := range terms {
		name := strings.ToLower(strings.TrimSpace(term.Name))
		if name == "" {
			continue
		}
		byName[name] = append(byName[name], term)
	}
	for _, group := range byName {
		if len(group) < 2 {
			continue
		}
		// Primary is the member with the most assigned products,
		// ties resolved to the lowest id so the election does not
		// depend on provider ordering.
		primary := group[0]
		for _, member := range group[1:] {
			if member.Count > primary.Count ||
				(member.Count == primary.Count && member.Id < primary.Id) {
				primary = member
			}
		}
		ids := make([]uint, 0, len(group))
		slugs := make([]string, 0, len(group))
		for _, member := range group {
			ids = append(ids, member.Id)
			slugs = append(slugs, member.Slug)
		}
		for _, member := range group {
			data.GroupOfTerm[member.Id] = ids
			data.GroupOfSlug[member.Slug] = slugs
			if member.Id != primary.Id {
				data.PrimaryOf[member.Id] = primary.Id
				data.SecondariesOf[primary.Id] = append(data.SecondariesOf[primary.Id], member.Id)
				data.PrimarySlugOf[member.Slug] = primary.Slug
			}
		}
	}
	return data
}

// IsGroupedTaxonomy reports whether the taxonomy has at least one
// duplicate-name group.
func (g *Grouper) IsGroupedTaxonomy(taxonomy string) bool {
	return !g.GetGroupData(taxonomy).Empty()
}

// ExpandTermIDs replaces every id that belongs to a group with the
// whole group. Ungrouped ids pass through, order of first appearance
// is kept and the result is deduplicated, so expansion is idempotent.
func (g *Grouper) ExpandTermIDs(taxonomy string, ids []uint) []uint {
	data := g.GetGroupData(taxonomy)
	if data.Empty() {
		return ids
	}
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	add := func(id uint) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range ids {
		if group, ok := data.GroupOfTerm[id]; ok {
			for _, member := range group {
				add(member)
			}
		} else {
			add(id)
		}
	}
	return out
}

// ExpandSlugs is ExpandTermIDs over slugs.
func (g *Grouper) ExpandSlugs(taxonomy string, slugs []string) []string {
	data := g.GetGroupData(taxonomy)
	if data.Empty() {
		return slugs
	}
	out := make([]string, 0, len(slugs))
	seen := make(map[string]struct{}, len(slugs))
	add := func(slug string) {
		if _, ok := seen[slug]; ok {
			return
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	for _, slug := range slugs {
		if group, ok := data.GroupOfSlug[slug]; ok {
			for _, member := range group {
				add(member)
			}
		} else {
			add(slug)
		}
	}
	return out
}

// MergeCounts folds every secondary's count into its primary and drops
// the secondary key. Ungrouped entries pass through.
func (g *Grouper) MergeCounts(taxonomy string, counts map[uint]int) map[uint]int {
	data := g.GetGroupData(taxonomy)
	if data.Empty() {
		return counts
	}
	out := make(map[uint]int, len(counts))
	for id, count := range counts {
		if primary, ok := data.PrimaryOf[id]; ok {
			out[primary] += count
		} else {
			out[id] += count
		}
	}
	return out
}

// DedupeTerms drops every secondary from a term sequence, keeping the
// relative order of the rest.
func (g *Grouper) DedupeTerms(taxonomy string, terms []types.Term) []types.Term {
	data := g.GetGroupData(taxonomy)
	if data.Empty() {
		return terms
	}
	out := make([]types.Term, 0, len(terms))
	for _, term := range terms {
		if _, secondary := data.PrimaryOf[term.Id]; secondary {
			continue
		}
		out = append(out, term)
	}
	return out
}

// Invalidate drops the cached group data for one taxonomy, in process
// and persisted. Called when terms are created, edited or deleted.
func (g *Grouper) Invalidate(taxonomy string) {
	g.mu.Lock()
	delete(g.local, taxonomy)
	g.mu.Unlock()
	if g.store != nil {
		if err := g.store.Delete(groupCacheKey(taxonomy)); err != nil {
			log.Printf("failed to drop term groups for %s: %v", taxonomy, err)
		}
	}
}
