// Package postgres implements the store interfaces on PostgreSQL through the
// pgx database/sql driver, and embeds the schema migrations for that backend.
package postgres
