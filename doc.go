// Package bcreader decodes LLVM-style bitcode containers into an in-memory module.
//
// A bitcode image is a bitstream of nested, length-prefixed blocks holding
// records of integer operands. Records may be packed through abbreviations,
// templates that describe how each operand was encoded. The library walks
// that structure and reconstructs the module's type table together with its
// module-level string fields.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	bcreader/            Root package with the ByteBuffer interface
//	├── buffer/          ByteBuffer implementations (memory, file, io.Reader)
//	├── bitstream/       Bit cursor, block scopes, abbreviations, blockinfo registry
//	├── ir/              Type variants, per-session type context, Module
//	├── parser/          Module parser state machine and parsing session
//	├── errors/          Structured error types (phase + kind)
//	├── dump/            Text and msgpack renderings of a parsed module
//	└── cmd/bcdump/      Command line dumper and interactive type browser
//
// # Quick Start
//
// Parse a bitcode file:
//
//	data, err := os.ReadFile("module.bc")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mod, err := parser.Parse(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(mod.TargetTriple)
//
//	for i := range mod.Types {
//	    fmt.Printf("%d: %s\n", i, mod.TypeString(uint32(i)))
//	}
//
// # Errors
//
// Every failure is reported as an *errors.Error carrying a Kind:
//
//   - eof, data_not_enough: the image ended before a field was complete
//   - data_error: the image violates the container or record format
//   - scope_mismatch: a block end without a matching block enter
//   - not_supported: a recognized but unimplemented feature
//   - internal: a parser invariant was broken
//
// Use errors.Is with the errors.Err* sentinels to test for a kind. A failed
// parse never returns a partial module.
//
// # Thread Safety
//
// A parser.Session is NOT thread-safe and is used for exactly one Parse call.
// The resulting Module and its types are immutable and may be shared across
// goroutines. An ir.Context may be shared by many sessions.
package bcreader
