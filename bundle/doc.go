// Package bundle discovers and resolves host bundles.
//
// A host bundle is a directory pairing a WIT interface description with a
// native implementation library, described by a host.toml config file:
//
//	[host]
//	name = "duckdb"
//	lib = "lib/libduckdb_host.so"
//	wit = "wit/duckdb"
//
// A manifest (hosts.toml) declares multiple hosts plus shared search paths
// and resolves, in declaration order, into a slice of validated Bundles:
//
//	[global]
//	search_paths = ["./hosts"]
//
//	[[host]]
//	name = "duckdb"
//	bundle = "duckdb_host"
//
//	[[host]]
//	name = "pkcs11"
//	wit = "/opt/pkcs11-host/pkcs11.wit"
//	lib = "/opt/pkcs11-host/libpkcs11_host.so"
//
// Resolution is fail-fast: the first entry that cannot be resolved aborts
// the whole pass and no partial result is returned.
//
// Nothing in this package is safe for concurrent use; callers wanting
// parallelism must resolve independent manifests on separate goroutines
// with separate collections.
package bundle
