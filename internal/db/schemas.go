package db

import "embed"

// sqlSchemas holds the migration files, embedded so the hook binary works
// from any directory.
//
//go:embed migrations/*.sql
var sqlSchemas embed.FS
