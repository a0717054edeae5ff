// Package models contains GORM persistence models that map to database tables.
// Domain types stay free of ORM tags; the mappers here convert between the two.
//
//   - base.go: shared columns (id, timestamps, version, ledger id)
//   - ledger.go: ledger expense and income records (read-write)
//   - reservation.go: upstream reservation and allocation tables (read-only)
package models
