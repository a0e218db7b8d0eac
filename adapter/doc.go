// Package adapter loads host bundles' native libraries and links their
// operations into a runtime dispatch target.
//
// Loading a bundle executes its library's initialization routines in-process
// with the caller's privileges. Bundle directories are a trust boundary
// equivalent to the host process itself; never load a bundle from an
// untrusted source.
//
// Linking is a pluggable strategy. GeneratedLinker binds build-time
// generated glue per bundle and is the supported path. DynamicLinker (parse
// the WIT, resolve native symbols by name, marshal through the canonical
// ABI) is a declared extension point and reports a distinct unsupported
// failure until the ABI bridge exists.
//
// A bundle moves through: declared (manifest) → resolved (bundle.Bundle) →
// loaded (Adapter) → linked, or a terminal load/link failure. Failures are
// never retried here; the caller decides whether to skip the bundle or
// abort.
package adapter
