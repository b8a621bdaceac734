// Package repository provides a map-row repository over a single table:
// reads, inserts with primary key derivation, filtered updates and deletes,
// batch replace and batch upsert, built on Bun query handles.
package repository
