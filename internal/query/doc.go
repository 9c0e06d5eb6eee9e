// Package query provides the read-only projections over a materialized
// graph: listings, the pulse/coverage summary, the timeline, pivot-chain
// traversal, and the export document for static rendering.
//
// Every function here is a pure function of the graph it is given; no read
// mutates it. The export document is a denormalized view regenerated on
// demand, never a source of truth.
package query
