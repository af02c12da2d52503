package flow

import "math"

// Edge is a directed, weighted relation from one entity to another.
type Edge struct {
	Source string  `json:"source" yaml:"source" toml:"source" bson:"source"`
	Dest   string  `json:"dest" yaml:"dest" toml:"dest" bson:"dest"`
	Qty    float64 `json:"qty" yaml:"qty" toml:"qty" bson:"qty"`
}

// Valid reports whether e survives aggregation: a positive, finite quantity
// between two different entities.
func (e Edge) Valid() bool {
	if e.Source == e.Dest {
		return false
	}
	return e.Qty > 0 && !math.IsInf(e.Qty, 1)
}

// Totals maps entity ids to summed quantities and remembers the order in
// which ids were first seen.
type Totals struct {
	ids    []string
	values map[string]float64
}

// NewTotals returns an empty Totals.
func NewTotals() Totals {
	return Totals{values: make(map[string]float64)}
}

// Add accumulates qty for id, registering id on first use.
func (t *Totals) Add(id string, qty float64) {
	if t.values == nil {
		t.values = make(map[string]float64)
	}
	if _, ok := t.values[id]; !ok {
		t.ids = append(t.ids, id)
	}
	t.values[id] += qty
}

// IDs returns the ids in encounter order. The slice is a copy.
func (t Totals) IDs() []string {
	return append([]string(nil), t.ids...)
}

// Value returns the total for id, or 0 if id is unknown.
func (t Totals) Value(id string) float64 { return t.values[id] }

// Has reports whether id has a total.
func (t Totals) Has(id string) bool {
	_, ok := t.values[id]
	return ok
}

// Len returns the number of entities.
func (t Totals) Len() int { return len(t.ids) }

// Sum returns the sum of all totals, added in encounter order.
func (t Totals) Sum() float64 {
	var sum float64
	for _, id := range t.ids {
		sum += t.values[id]
	}
	return sum
}

// Result is the output of [Aggregate].
type Result struct {
	SourceTotals Totals
	TargetTotals Totals

	// TotalFlow is the displayed total: the sum of all source totals, and
	// exactly 0 when no edge survived. Use [Denominator] when dividing.
	TotalFlow float64

	// Edges are the surviving edges in input order.
	Edges []Edge

	// Dropped counts input edges removed by the filter.
	Dropped int
}

// Empty reports whether no edge survived aggregation.
func (r Result) Empty() bool { return len(r.Edges) == 0 }

// Aggregate filters edges and computes per-entity totals.
// Self loops, non-positive and non-finite quantities are dropped silently.
// Duplicate (source, dest) rows are kept as separate edges.
func Aggregate(edges []Edge) Result {
	r := Result{
		SourceTotals: NewTotals(),
		TargetTotals: NewTotals(),
		Edges:        make([]Edge, 0, len(edges)),
	}
	for _, e := range edges {
		if !e.Valid() {
			r.Dropped++
			continue
		}
		r.Edges = append(r.Edges, e)
		r.SourceTotals.Add(e.Source, e.Qty)
		r.TargetTotals.Add(e.Dest, e.Qty)
	}
	if len(r.Edges) > 0 {
		r.TotalFlow = r.SourceTotals.Sum()
	}
	return r
}

// Denominator guards proportion math against zero totals: it returns
// max(total, 1).
func Denominator(total float64) float64 {
	return math.Max(total, 1)
}
