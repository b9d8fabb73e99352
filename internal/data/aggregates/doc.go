// Package aggregates implements the catalog, audit and branch-response
// aggregates on top of the table repos in internal/data/repos.
//
// Every write that touches more than one row runs in a single transaction
// through executeWrite, which also classifies the failure and reports it to
// the write hooks.
package aggregates
