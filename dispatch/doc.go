// Package dispatch defines the surface into which loaded host adapters
// contribute their operations.
//
// The component-model runtime supplies a Target (typically a linker
// instance); adapters call Define for each operation they expose. The
// in-memory Registry is a concrete Target for runtimes that collect host
// functions before instantiation, and for inspection tools.
package dispatch
