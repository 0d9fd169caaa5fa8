package catalog

import (
	"sort"
	"strings"
)

// Issuer is a catalog node. Sections group leaves; leaves own coins.
type Issuer struct {
	ID                 int64
	Name               string
	Slug               string
	ParentSlug         string
	TerritoryType      string
	IsSection          bool
	IsHistoricalPeriod bool
}

// IssuerTree is an arena of issuers linked by slug. Children are stored as
// ordered index lists and parents are resolved by lookup.
type IssuerTree struct {
	nodes  []issuerNode
	bySlug map[string]int
	byID   map[int64]int
	roots  []int
}

type issuerNode struct {
	issuer   Issuer
	parent   int
	children []int
}

// BuildIssuerTree links issuers by parent slug. Issuers whose parent slug is
// empty or unknown become roots. When slugs collide the first issuer wins.
func BuildIssuerTree(issuers []Issuer) *IssuerTree {
	tree := &IssuerTree{
		nodes:  make([]issuerNode, len(issuers)),
		bySlug: make(map[string]int, len(issuers)),
		byID:   make(map[int64]int, len(issuers)),
	}
	for i, issuer := range issuers {
		tree.nodes[i] = issuerNode{issuer: issuer, parent: -1}
		tree.byID[issuer.ID] = i
		if _, exists := tree.bySlug[issuer.Slug]; !exists && issuer.Slug != "" {
			tree.bySlug[issuer.Slug] = i
		}
	}
	for i := range tree.nodes {
		parentSlug := strings.TrimSpace(tree.nodes[i].issuer.ParentSlug)
		parent, ok := tree.bySlug[parentSlug]
		if parentSlug == "" || !ok || parent == i {
			tree.roots = append(tree.roots, i)
			continue
		}
		tree.nodes[i].parent = parent
		tree.nodes[parent].children = append(tree.nodes[parent].children, i)
	}
	byName := func(list []int) {
		sort.SliceStable(list, func(a, b int) bool {
			return strings.ToLower(tree.nodes[list[a]].issuer.Name) < strings.ToLower(tree.nodes[list[b]].issuer.Name)
		})
	}
	byName(tree.roots)
	for i := range tree.nodes {
		byName(tree.nodes[i].children)
	}
	return tree
}

// Len returns the number of issuers in the tree.
func (t *IssuerTree) Len() int { return len(t.nodes) }

// Issuer looks up an issuer by id.
func (t *IssuerTree) Issuer(id int64) (Issuer, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return Issuer{}, false
	}
	return t.nodes[idx].issuer, true
}

// Parent returns the parent issuer, if any.
func (t *IssuerTree) Parent(id int64) (Issuer, bool) {
	idx, ok := t.byID[id]
	if !ok || t.nodes[idx].parent < 0 {
		return Issuer{}, false
	}
	return t.nodes[t.nodes[idx].parent].issuer, true
}

// Children returns the ordered children of an issuer.
func (t *IssuerTree) Children(id int64) []Issuer {
	idx, ok := t.byID[id]
	if !ok {
		return nil
	}
	return t.collect(t.nodes[idx].children)
}

// Roots returns the ordered root issuers.
func (t *IssuerTree) Roots() []Issuer {
	return t.collect(t.roots)
}

// IsLeaf reports whether an issuer has no children in the tree.
func (t *IssuerTree) IsLeaf(id int64) bool {
	idx, ok := t.byID[id]
	return ok && len(t.nodes[idx].children) == 0
}

// Path returns the names from the root down to id joined by " > ".
func (t *IssuerTree) Path(id int64) string {
	idx, ok := t.byID[id]
	if !ok {
		return ""
	}
	var names []string
	for steps := 0; idx >= 0 && steps <= len(t.nodes); steps++ {
		names = append(names, t.nodes[idx].issuer.Name)
		idx = t.nodes[idx].parent
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " > ")
}

// Walk visits issuers depth-first in display order.
func (t *IssuerTree) Walk(fn func(depth int, issuer Issuer)) {
	var visit func(idx, depth int)
	visit = func(idx, depth int) {
		fn(depth, t.nodes[idx].issuer)
		for _, child := range t.nodes[idx].children {
			visit(child, depth+1)
		}
	}
	for _, root := range t.roots {
		visit(root, 0)
	}
}

// Filter returns a pruned tree keeping issuers that match keep and every
// ancestor of a kept issuer.
func (t *IssuerTree) Filter(keep func(Issuer) bool) *IssuerTree {
	visible := make([]bool, len(t.nodes))
	var mark func(idx int) bool
	mark = func(idx int) bool {
		shown := false
		for _, child := range t.nodes[idx].children {
			if mark(child) {
				shown = true
			}
		}
		visible[idx] = shown || keep(t.nodes[idx].issuer)
		return visible[idx]
	}
	for _, root := range t.roots {
		mark(root)
	}
	kept := make([]Issuer, 0, len(t.nodes))
	for i, node := range t.nodes {
		if visible[i] {
			kept = append(kept, node.issuer)
		}
	}
	return BuildIssuerTree(kept)
}

func (t *IssuerTree) collect(indexes []int) []Issuer {
	out := make([]Issuer, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, t.nodes[idx].issuer)
	}
	return out
}

// IssuerFilter selects issuers for the browser view.
type IssuerFilter struct {
	Text string
	// WithCoins, when non-nil, restricts the view to issuers in the set.
	WithCoins map[int64]struct{}
}

// Matches reports whether an issuer passes the text and content filters.
func (f IssuerFilter) Matches(issuer Issuer) bool {
	if text := strings.TrimSpace(f.Text); text != "" {
		if !strings.Contains(fold(issuer.Name), fold(text)) {
			return false
		}
	}
	if f.WithCoins != nil {
		if _, ok := f.WithCoins[issuer.ID]; !ok {
			return false
		}
	}
	return true
}
