// Package highlight decides which parts of a flow diagram are emphasized
// while the pointer rests on a node or a link.
//
// The rules are pure functions of a [State] and one element:
//
//   - With nothing hovered, every node and link is highlighted.
//   - Hovering a link highlights that link and nothing else among links,
//     plus the nodes of its source and target entities.
//   - Hovering a node highlights every link touching that entity, in either
//     column, and that entity's node in both columns.
//
// [Tracker] owns a State for renderers that process hover events one at a
// time (the terminal explorer, the HTTP session). Browsers run the same rules
// in the script embedded by package sink.
package highlight

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/flowview/pkg/sankey/layout"
	"github.com/matzehuels/flowview/pkg/sankey/route"
)

// Kind discriminates the variants of [State].
type Kind int

const (
	KindNone Kind = iota
	KindLink
	KindNode
)

var kindNames = [...]string{"none", "link", "node"}

// String returns "none", "link" or "node".
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// State is the current hover target. The zero value is [None].
type State struct {
	kind Kind
	link int
	node string

	// Endpoints of the hovered link; empty until known.
	source, target string
}

// None is the state with nothing hovered.
func None() State { return State{} }

// LinkHovered is the state while l is hovered.
func LinkHovered(l route.Link) State {
	return State{kind: KindLink, link: l.Index, source: l.SourceID, target: l.TargetID}
}

// LinkAt is the state while the link with the given index is hovered, for
// callers that only know the index. It lights no node until its endpoints
// are filled in by [Index.Resolve].
func LinkAt(index int) State { return State{kind: KindLink, link: index} }

// NodeHovered is the state while the entity id is hovered, in either column.
func NodeHovered(id string) State { return State{kind: KindNode, node: id} }

// Kind returns the variant.
func (s State) Kind() Kind { return s.kind }

// Link returns the hovered link index. ok is false unless Kind is KindLink.
func (s State) Link() (index int, ok bool) { return s.link, s.kind == KindLink }

// Endpoints returns the source and target ids of the hovered link. ok is
// false unless Kind is KindLink and the endpoints are known.
func (s State) Endpoints() (source, target string, ok bool) {
	return s.source, s.target, s.kind == KindLink && (s.source != "" || s.target != "")
}

// Node returns the hovered entity id. ok is false unless Kind is KindNode.
func (s State) Node() (id string, ok bool) { return s.node, s.kind == KindNode }

func (s State) String() string {
	switch s.kind {
	case KindLink:
		return fmt.Sprintf("link(%d)", s.link)
	case KindNode:
		return fmt.Sprintf("node(%s)", s.node)
	}
	return "none"
}

// IsLinkHighlighted reports whether l is emphasized in state s.
func IsLinkHighlighted(s State, l route.Link) bool {
	switch s.kind {
	case KindLink:
		return l.Index == s.link
	case KindNode:
		return l.SourceID == s.node || l.TargetID == s.node
	}
	return true
}

// IsNodeHighlighted reports whether n is emphasized in state s.
// A hovered entity lights up in both columns, as do the endpoint entities
// of a hovered link.
func IsNodeHighlighted(s State, n layout.Node) bool {
	switch s.kind {
	case KindNode:
		return n.ID == s.node
	case KindLink:
		if _, _, ok := s.Endpoints(); !ok {
			return false
		}
		return n.ID == s.source || n.ID == s.target
	}
	return true
}

type stateJSON struct {
	Kind   string  `json:"kind"`
	Link   *int    `json:"link,omitempty"`
	Node   *string `json:"node,omitempty"`
	Source string  `json:"source,omitempty"`
	Target string  `json:"target,omitempty"`
}

// MarshalJSON encodes the state as
// {"kind":"link","link":3,"source":"A","target":"X"},
// {"kind":"node","node":"A"} or {"kind":"none"}. Unknown link endpoints
// are omitted.
func (s State) MarshalJSON() ([]byte, error) {
	v := stateJSON{Kind: s.kind.String()}
	switch s.kind {
	case KindLink:
		v.Link = &s.link
		v.Source, v.Target = s.source, s.target
	case KindNode:
		v.Node = &s.node
	}
	return json.Marshal(v)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (s *State) UnmarshalJSON(b []byte) error {
	var v stateJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v.Kind {
	case "", "none":
		*s = None()
	case "link":
		if v.Link == nil {
			return fmt.Errorf("highlight: link state without index")
		}
		*s = State{kind: KindLink, link: *v.Link, source: v.Source, target: v.Target}
	case "node":
		if v.Node == nil {
			return fmt.Errorf("highlight: node state without id")
		}
		*s = NodeHovered(*v.Node)
	default:
		return fmt.Errorf("highlight: unknown kind %q", v.Kind)
	}
	return nil
}
