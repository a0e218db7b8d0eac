// Package hostbundles manages discovery, validation and registration of
// host bundles: directories that pair a native host library with the WIT
// description of the interface it implements.
//
// # Architecture Overview
//
//	host-bundles/
//	├── bundle/          Bundle configs, manifests, resolution, collections
//	├── dispatch/        Namespaced function-definition registry (link target)
//	├── adapter/         Native library loading, WIT operations, linking
//	├── internal/dylib/  Shared refcounted dlopen handle table
//	├── errors/          Structured error types for each pipeline phase
//	└── cmd/hosts/       Bundle inspector CLI
//
// # Quick Start
//
// Resolve a manifest and link its adapters into a dispatch registry:
//
//	bundles := bundle.NewBundles()
//	if err := bundles.AddManifest("hosts.toml"); err != nil {
//		return err
//	}
//
//	linker := adapter.NewGeneratedLinker()
//	linker.Register("keyvalue", keyvalueBind)
//
//	reg := adapter.NewRegistry(linker)
//	defer reg.Close()
//	for _, b := range bundles.All() {
//		if err := reg.Register(b); err != nil {
//			return err
//		}
//	}
//
//	target := dispatch.NewRegistry()
//	if err := reg.LinkAll(target); err != nil {
//		return err
//	}
//
// The populated registry is then handed to whatever runtime instantiates
// components against the defined host functions.
package hostbundles
