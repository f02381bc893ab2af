// Autolog inspects the registered projects from the command line.
//
// Usage:
//
//	# Generate today's log entries
//	autolog generate
//
//	# Generate entries for a given day from a custom projects file
//	autolog generate --date 2026-10-15 --projects ./projects.yaml
//
//	# Show per-project change status
//	autolog status
package main

func main() {
	Execute()
}
