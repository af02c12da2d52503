// Package layout computes node geometry for a two-column flow diagram.
//
// Every entity that sends flow gets a node in the source column (left) and
// every entity that receives flow gets a node in the target column (right).
// An entity that does both appears once per column; the two nodes share an
// ID and differ in [Column].
//
// # Algorithm
//
// [Build] sorts each column by total descending (stable, so equal totals keep
// aggregation order), sizes the canvas from the larger of the two column
// requirements, and stacks nodes top-down. Node heights are proportional to
// their share of the total flow, scaled by [Config.Slack] and floored at
// [Config.MinNodeHeight]. If floor clamping would push a column past its
// allotted height, the part of each node above the floor is shrunk uniformly
// so the column fits again without reordering anything.
//
// The computation is pure: the same aggregate and options always produce the
// same nodes.
package layout
