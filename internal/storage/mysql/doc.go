// Package mysql opens pooled MySQL connections and applies the embedded schema
// migrations the SQL-backed stores depend on.
package mysql
