package store

import "embed"

// embedMigrations contains the run-history schema migrations.
//
//go:embed migrations/*.sql
var embedMigrations embed.FS
