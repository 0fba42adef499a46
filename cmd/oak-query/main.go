// Package main provides the oak-query CLI for rendering, checking and running
// statement files.
//
// The CLI supports:
//   - render: Assemble statement files and print their SQL and arguments
//   - exec: Run one statement file against PostgreSQL
//   - doctor: Run health checks on statement files and the database
//   - config show: Print the effective configuration
//
// Usage:
//
//	oak-query [flags] <command>
//
// Commands that reach the database (exec, and doctor when configured) take
// --db or the database section of oak-query.yaml.
package main

func main() {
	Execute()
}
