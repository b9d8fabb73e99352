// Package aggregates declares the write boundaries of the audit domain: the
// live catalog, an audit with its frozen snapshot, and the branch response.
// Implementations live in internal/data/aggregates; errors they return carry
// an ErrorCode from this package.
package aggregates
