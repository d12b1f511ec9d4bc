package postgres

import "embed"

// Migrations holds the schema migrations applied by cmd/migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS
