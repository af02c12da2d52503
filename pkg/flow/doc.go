// Package flow holds the input side of a flow diagram: weighted directed
// edges between named entities, the documents they are read from, and the
// aggregation step that cleans them and computes per-entity totals.
//
// # Aggregation
//
// [Aggregate] drops self loops and non-positive quantities without reporting
// an error, then sums quantities per source entity and per destination
// entity. Totals are kept in encounter order (the first surviving edge that
// mentions an entity fixes its position), which the layout stage relies on
// to break ties between equal totals.
//
//	agg := flow.Aggregate([]flow.Edge{
//	    {Source: "A", Dest: "X", Qty: 10},
//	    {Source: "A", Dest: "Y", Qty: 30},
//	    {Source: "B", Dest: "X", Qty: 20},
//	})
//	agg.SourceTotals.Value("A") // 40
//	agg.TotalFlow               // 60
//
// # Documents
//
// [Decode] and [ReadFile] read edge documents in JSON, YAML, TOML or CSV.
// A document may also carry display names for entities and a title.
package flow
