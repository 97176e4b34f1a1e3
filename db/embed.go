// Package db embeds the database schema so it can be applied at startup
// and by the integration test harness.
package db

import _ "embed"

// Schema contains the DDL for all tables used by the service.
//
//go:embed schema.sql
var Schema string
