// Package database owns the pooled connection (Provider), its configuration,
// query hooks, logging and driver error classification, and hands out
// table-scoped Bun query handles to repositories.
package database
