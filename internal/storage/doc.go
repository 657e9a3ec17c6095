// Package storage opens the relational store behind the resource engine and
// creates its schema.
//
// The store is SQLite through the pure-Go modernc.org/sqlite driver, either
// file-backed or in memory. Tables and columns come from the resource
// registry, so the schema always matches the registered contracts:
//
//	db, err := storage.Open(storage.Config{Path: ":memory:"})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	if err := storage.Migrate(ctx, db); err != nil {
//	    return err
//	}
//
// Every statement issued here is a single DDL statement; there is no
// migration history, only CREATE ... IF NOT EXISTS.
package storage
