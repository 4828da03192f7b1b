// Package database provides SQLite connectivity for Frontdesk Core.
//
// This package manages:
//   - The connection, with WAL mode, busy timeout and foreign keys enabled
//   - Embedded schema migrations recorded in schema_migrations
//   - Transaction helpers
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with a
// matching .down.sql, and live in the top-level migrations package which
// registers them through MigrationsFS.
package database
