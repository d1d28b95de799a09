// Package schema is the declarative description of every canonical table the
// ingest pipeline produces and persists.
//
// # Overview
//
// Each canonical table is described once by a TableDefinition: its columns
// and their semantic types, uniqueness constraints, enum-constrained columns,
// foreign keys expressed as natural-key lookups, and the load strategy used
// to persist it. The validator and the loader both read the same compiled
// Registry, so a column the validator accepts is exactly a column the loader
// may write.
//
// # Registration
//
// Table definitions live in the tables subpackage and register themselves
// from init():
//
//	func init() {
//	    schema.Register(schema.TableDefinition{Name: "Funding", ...})
//	}
//
// Callers then compile the registered set once at startup:
//
//	reg, err := schema.Default()
//
// # Dependency order
//
// Compile derives a foreign-key graph from the definitions (including the
// implicit edges to the submission and round-link tables whose keys the
// loader injects) and sorts it topologically. A cycle is reported as a
// startup error instead of surfacing as an unresolvable lookup during an
// ingest.
//
// # Foreign keys
//
// A ForeignKey names a lookup column holding the parent's natural key and a
// target column that receives the parent's surrogate key. When the target
// column is the lookup column's own database column, the surrogate replaces
// the natural key in place; otherwise the lookup column is dropped once it
// has been resolved.
//
// # Coercion
//
// Coerce converts a raw cell into the value persisted for a field. The
// validator calls it to record type failures and the loader calls it again to
// build rows, so anything that validated also loads.
//
// CleanCell runs first for every type. It strips the artifacts spreadsheets
// leave behind: surrounding whitespace, a leading "=" or a ="..." formula
// wrapper, and stray double quotes. Enum values match case-insensitively and
// come back in the registry's spelling.
//
// # Dates
//
// ParseDate accepts day-first dates with four or two digit years, ISO dates
// and Excel serial numbers. Two digit years past the current year plus
// TwoDigitYearPivot belong to the previous century.
package schema
