// Package parser interprets a bitstream as a module: it checks the magic
// header, walks the module block, fills the blockinfo registry and rebuilds
// the type table.
//
// # State machine
//
// A Session moves through header validation, the module block and its
// dispatch loop:
//
//	header ──► module block ──► entry loop ──► done
//	                              │
//	                              ├─ BLOCKINFO      → registry (first block wins)
//	                              ├─ TYPE_BLOCK     → type table
//	                              ├─ other blocks   → skipped by length
//	                              └─ module records → version, triple, strings
//
// Any error ends the parse. Parse returns the first violation and no module.
//
// # Records
//
// Function, global variable, alias, purge-values and comdat records are
// consumed without producing anything. Function, constants, metadata,
// value symbol table, parameter attribute and use-list blocks are skipped.
// Module-level inline assembly and module versions other than 1 are
// reported as not supported.
//
// # Types
//
// Type records append to Module.Types in stream order. Every type index
// operand must name an entry that is already in the table and whose kind is
// legal for the position (see the ir predicates). STRUCT_NAME sets the name
// used by the next STRUCT_NAMED or OPAQUE record.
package parser
