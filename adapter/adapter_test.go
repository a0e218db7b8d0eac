package adapter

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/host-bundles/bundle"
	"github.com/wippyai/host-bundles/errors"
)

const kvWit = `package keyvalue:store;

interface store {
  set: func(key: string, value: string) -> result<_, string>;
  get: func(key: string) -> option<string>;
  exists: func(key: string) -> bool;
  clear: func();
}
`

// writeKvBundle creates a keyvalue bundle directory and loads it.
func writeKvBundle(t *testing.T) bundle.Bundle {
	t.Helper()
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "libkv.so"), "\x7fELF")
	mustWrite(t, filepath.Join(dir, "kv.wit"), kvWit)
	mustWrite(t, filepath.Join(dir, bundle.ConfigFileName),
		"[host]\nname = \"keyvalue\"\nlib = \"libkv.so\"\nwit = \"kv.wit\"\n")

	b, err := bundle.LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// fakeHandle stands in for a loaded native library.
type fakeHandle struct {
	symbols map[string]bool
	closes  int
}

func (f *fakeHandle) Sym(name string) (uintptr, error) {
	if f.symbols[name] {
		return uintptr(len(name)), nil
	}
	return 0, fmt.Errorf("undefined symbol: %s", name)
}

func (f *fakeHandle) Close() error {
	f.closes++
	return nil
}

// installFakeLoader makes Load hand out fake handles.
func installFakeLoader(t *testing.T, symbols map[string]bool) *fakeHandle {
	t.Helper()
	handle := &fakeHandle{symbols: symbols}
	orig := openLibrary
	openLibrary = func(path string) (libHandle, error) {
		return handle, nil
	}
	t.Cleanup(func() { openLibrary = orig })
	return handle
}

func TestLoad(t *testing.T) {
	installFakeLoader(t, nil)
	b := writeKvBundle(t)

	a, err := Load(b)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer a.Close()

	if a.Name() != "keyvalue" {
		t.Errorf("Name = %q", a.Name())
	}
	if a.WitPath() != b.WitPath() {
		t.Errorf("WitPath = %q, want %q", a.WitPath(), b.WitPath())
	}
}

func TestLoad_RevalidatesPaths(t *testing.T) {
	installFakeLoader(t, nil)

	t.Run("library removed after resolution", func(t *testing.T) {
		b := writeKvBundle(t)
		if err := os.Remove(b.LibPath()); err != nil {
			t.Fatal(err)
		}

		_, err := Load(b)
		if err == nil {
			t.Fatal("expected error")
		}
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindValidation}) {
			t.Errorf("error = %v, want load/validation", err)
		}
		var e *errors.Error
		if stderrors.As(err, &e) && e.Bundle != "keyvalue" {
			t.Errorf("error names %q, want the bundle", e.Bundle)
		}
	})

	t.Run("wit removed after resolution", func(t *testing.T) {
		b := writeKvBundle(t)
		if err := os.Remove(b.WitPath()); err != nil {
			t.Fatal(err)
		}

		_, err := Load(b)
		if err == nil {
			t.Fatal("expected error")
		}
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindValidation}) {
			t.Errorf("error = %v, want load/validation", err)
		}
	})
}

func TestLoad_DlopenFailure(t *testing.T) {
	orig := openLibrary
	openLibrary = func(path string) (libHandle, error) {
		return nil, errors.New(errors.PhaseLoad, errors.KindLoad).
			Path(path).
			Detail("dlopen").
			Build()
	}
	t.Cleanup(func() { openLibrary = orig })

	b := writeKvBundle(t)
	_, err := Load(b)
	if err == nil {
		t.Fatal("expected error")
	}

	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("error %T is not *errors.Error", err)
	}
	if e.Bundle != "keyvalue" {
		t.Errorf("load failure should name the bundle, got %q", e.Bundle)
	}
}

func TestOperations(t *testing.T) {
	installFakeLoader(t, nil)
	b := writeKvBundle(t)

	a, err := Load(b)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ops, err := a.Operations()
	if err != nil {
		t.Fatalf("Operations: %v", err)
	}
	if len(ops) != 4 {
		t.Fatalf("ops = %d, want 4", len(ops))
	}
	if ops[0].Name != "set" || ops[0].Namespace != "keyvalue:store/store" {
		t.Errorf("first op = %+v", ops[0])
	}
	if len(ops[0].Params) != 2 {
		t.Errorf("set params = %d, want 2", len(ops[0].Params))
	}
	if len(ops[2].Results) != 1 {
		t.Errorf("exists results = %d, want 1", len(ops[2].Results))
	}
	if len(ops[3].Params) != 0 || len(ops[3].Results) != 0 {
		t.Errorf("clear should have no params or results: %+v", ops[3])
	}
}

func TestDescribe(t *testing.T) {
	b := writeKvBundle(t)

	ops, err := Describe(b)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if len(ops) != 4 {
		t.Fatalf("ops = %d, want 4", len(ops))
	}
}

func TestDescribe_BadWit(t *testing.T) {
	b := writeKvBundle(t)
	mustWrite(t, b.WitPath(), "interface broken {\n  oops: func(x: not-a-type);\n}\n")

	_, err := Describe(b)
	if err == nil {
		t.Fatal("expected error")
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseParse, Kind: errors.KindParse}) {
		t.Errorf("error = %v, want parse/parse", err)
	}
	var e *errors.Error
	if stderrors.As(err, &e) && e.Bundle != "keyvalue" {
		t.Errorf("parse failure should name the bundle, got %q", e.Bundle)
	}
}

func TestProbe(t *testing.T) {
	installFakeLoader(t, map[string]bool{
		"keyvalue_store_store_set":    true,
		"keyvalue_store_store_get":    true,
		"keyvalue_store_store_exists": true,
		// clear deliberately missing
	})
	b := writeKvBundle(t)

	a, err := Load(b)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	results, err := a.Probe()
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("results = %d, want 4", len(results))
	}

	found := make(map[string]bool)
	for _, r := range results {
		found[r.Op.Name] = r.Found
	}
	for _, op := range []string{"set", "get", "exists"} {
		if !found[op] {
			t.Errorf("%s should be found", op)
		}
	}
	if found["clear"] {
		t.Error("clear should be missing")
	}
}

func TestClose_ReleasesHandle(t *testing.T) {
	handle := installFakeLoader(t, nil)
	b := writeKvBundle(t)

	a, err := Load(b)
	if err != nil {
		t.Fatal(err)
	}

	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if handle.closes != 1 {
		t.Errorf("handle closed %d times, want 1", handle.closes)
	}
}
