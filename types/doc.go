// Package types holds the row and filter shapes shared by the database and
// repository packages, plus small helpers for working with batches of rows.
package types
