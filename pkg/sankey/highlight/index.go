package highlight

import (
	"github.com/matzehuels/flowview/pkg/sankey/layout"
	"github.com/matzehuels/flowview/pkg/sankey/route"
)

// Index answers membership queries for one diagram without rescanning it
// for every element.
type Index struct {
	nodes  []layout.Node
	links  []route.Link
	byLink map[int]int
	byNode map[string][]int
}

// NewIndex indexes nodes and links. The slices are not copied and must not
// be modified afterwards.
func NewIndex(nodes []layout.Node, links []route.Link) *Index {
	idx := &Index{
		nodes:  nodes,
		links:  links,
		byLink: make(map[int]int, len(links)),
		byNode: make(map[string][]int),
	}
	for i, l := range links {
		idx.byLink[l.Index] = i
		idx.byNode[l.SourceID] = append(idx.byNode[l.SourceID], i)
		if l.TargetID != l.SourceID {
			idx.byNode[l.TargetID] = append(idx.byNode[l.TargetID], i)
		}
	}
	return idx
}

// Links returns the indices of the highlighted links in routing order.
func (x *Index) Links(s State) []int {
	switch s.kind {
	case KindLink:
		if _, ok := x.byLink[s.link]; ok {
			return []int{s.link}
		}
		return nil
	case KindNode:
		pos := x.byNode[s.node]
		out := make([]int, len(pos))
		for i, p := range pos {
			out[i] = x.links[p].Index
		}
		return out
	}
	out := make([]int, len(x.links))
	for i, l := range x.links {
		out[i] = l.Index
	}
	return out
}

// Nodes returns the highlighted nodes in layout order. Link states are
// resolved against the diagram first, so [LinkAt] works here.
func (x *Index) Nodes(s State) []layout.Node {
	s = x.Resolve(s)
	var out []layout.Node
	for _, n := range x.nodes {
		if IsNodeHighlighted(s, n) {
			out = append(out, n)
		}
	}
	return out
}

// Link returns the link with the given index.
func (x *Index) Link(index int) (route.Link, bool) {
	p, ok := x.byLink[index]
	if !ok {
		return route.Link{}, false
	}
	return x.links[p], true
}

// Resolve fills in the endpoints of a hovered link from the diagram.
// Other states, and links the diagram lacks, are returned unchanged.
func (x *Index) Resolve(s State) State {
	if s.kind != KindLink {
		return s
	}
	if l, ok := x.Link(s.link); ok {
		return LinkHovered(l)
	}
	return s
}

// Valid reports whether s refers to an element of the diagram.
// None is always valid.
func (x *Index) Valid(s State) bool {
	switch s.kind {
	case KindLink:
		_, ok := x.byLink[s.link]
		return ok
	case KindNode:
		for _, n := range x.nodes {
			if n.ID == s.node {
				return true
			}
		}
		return false
	}
	return true
}
