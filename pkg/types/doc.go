// Package types defines the Ledger interface, the ledger entities (Client,
// Payment, Log), the snapshot shape used by backups, and the standard errors
// returned by every backend.
//
// Dates cross the package boundary as fixed DD/MM/YYYY strings. Date converts
// them to comparable calendar values for range queries and ordering.
package types
