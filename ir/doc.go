// Package ir holds the in-memory result of parsing: the Module with its flat
// type table, the Type variants stored in it, and the Context that owns the
// primitive type singletons.
//
// The type table is an index graph. Pointers, arrays, vectors, structs and
// functions name other entries by their position in Module.Types, never by
// reference, and the parser only accepts positions of entries that already
// exist. A parsed table therefore has no cycles.
//
// Composite entries are never unified: two identical Integer{32} records
// produce two distinct entries.
//
//	ctx := ir.NewContext()
//	mod, err := parser.NewSession(buf, parser.WithTypeContext(ctx)).Parse()
//	for i := range mod.Types {
//		fmt.Println(i, mod.TypeString(uint32(i)))
//	}
package ir
