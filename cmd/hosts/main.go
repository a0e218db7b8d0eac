package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/host-bundles/adapter"
	"github.com/wippyai/host-bundles/bundle"
)

func main() {
	var (
		manifestFile = flag.String("manifest", "", "Path to hosts.toml manifest")
		bundleDir    = flag.String("bundle", "", "Path to a single bundle directory")
		probe        = flag.Bool("probe", false, "Load each bundle's library and probe operation symbols")
		interactive  = flag.Bool("i", false, "Interactive mode with TUI")
		verbose      = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *manifestFile == "" && *bundleDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: hosts -manifest <hosts.toml> [-probe] [-i]")
		fmt.Fprintln(os.Stderr, "       hosts -bundle <dir> [-probe]")
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		bundle.SetLogger(logger)
		adapter.SetLogger(logger)
	}

	bundles := bundle.NewBundles()
	var err error
	switch {
	case *manifestFile != "":
		err = bundles.AddManifest(*manifestFile)
	default:
		err = bundles.AddDir(*bundleDir)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*manifestFile, bundles); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := list(bundles, *probe); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func list(bundles *bundle.Bundles, probe bool) error {
	for _, b := range bundles.All() {
		fmt.Printf("%s\n", b.Name())
		fmt.Printf("  root: %s\n", b.Root)
		fmt.Printf("  lib:  %s\n", b.LibPath())
		fmt.Printf("  wit:  %s\n", b.WitPath())

		if probe {
			if err := probeBundle(b); err != nil {
				return err
			}
			continue
		}

		ops, err := bundleOperations(b)
		if err != nil {
			return err
		}
		for _, op := range ops {
			fmt.Printf("  %s\n", formatOp(op))
		}
	}
	return nil
}

// bundleOperations parses a bundle's declared operations without loading
// its native library.
func bundleOperations(b bundle.Bundle) ([]adapter.Operation, error) {
	a, err := adapter.Describe(b)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func probeBundle(b bundle.Bundle) error {
	a, err := adapter.Load(b)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.Probe()
	if err != nil {
		return err
	}
	for _, r := range results {
		status := "missing"
		if r.Found {
			status = "ok"
		}
		fmt.Printf("  %-7s %s (%s)\n", status, formatOp(r.Op), r.Symbol)
	}
	return nil
}

func formatOp(op adapter.Operation) string {
	var params []string
	for _, p := range op.Params {
		params = append(params, witTypeStr(p))
	}
	var results []string
	for _, t := range op.Results {
		results = append(results, witTypeStr(t))
	}

	s := op.Name
	if op.Namespace != "" {
		s = op.Namespace + "#" + op.Name
	}
	s += "(" + strings.Join(params, ", ") + ")"
	if len(results) > 0 {
		s += " -> " + strings.Join(results, ", ")
	}
	return s
}
