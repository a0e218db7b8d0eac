package dylib

import (
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/wippyai/host-bundles/errors"
)

// fakeLoader replaces the platform loader with an in-memory one so
// refcount and unload behavior can be exercised without shared objects.
type fakeLoader struct {
	mu      sync.Mutex
	next    uintptr
	open    map[uintptr]string
	opens   atomic.Int64
	closes  atomic.Int64
	symbols map[string]bool
	failAll bool
}

func installFakeLoader(t *testing.T) *fakeLoader {
	t.Helper()

	f := &fakeLoader{
		next:    1,
		open:    make(map[uintptr]string),
		symbols: map[string]bool{"kv_set": true, "kv_get": true},
	}

	origOpen, origSym, origClose := dlopenFn, dlsymFn, dlcloseFn
	dlopenFn = func(path string) (uintptr, error) {
		if f.failAll {
			return 0, fmt.Errorf("cannot open %s", path)
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		h := f.next
		f.next++
		f.open[h] = path
		f.opens.Add(1)
		return h, nil
	}
	dlsymFn = func(handle uintptr, name string) (uintptr, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, live := f.open[handle]; !live {
			return 0, fmt.Errorf("stale handle %d", handle)
		}
		if !f.symbols[name] {
			return 0, fmt.Errorf("undefined symbol: %s", name)
		}
		return handle*1000 + uintptr(len(name)), nil
	}
	dlcloseFn = func(handle uintptr) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, live := f.open[handle]; !live {
			return fmt.Errorf("double close of handle %d", handle)
		}
		delete(f.open, handle)
		f.closes.Add(1)
		return nil
	}

	t.Cleanup(func() {
		dlopenFn, dlsymFn, dlcloseFn = origOpen, origSym, origClose
	})
	return f
}

func TestOpen_SharesHandlePerPath(t *testing.T) {
	f := installFakeLoader(t)

	h1, err := Open("/tmp/libkv.so")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	h2, err := Open("/tmp/libkv.so")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if f.opens.Load() != 1 {
		t.Errorf("dlopen called %d times, want 1 (shared handle)", f.opens.Load())
	}
	if refs(h1.Path()) != 2 {
		t.Errorf("refs = %d, want 2", refs(h1.Path()))
	}

	if err := h1.Close(); err != nil {
		t.Fatal(err)
	}
	if f.closes.Load() != 0 {
		t.Error("library unloaded while a reference remains")
	}

	if err := h2.Close(); err != nil {
		t.Fatal(err)
	}
	if f.closes.Load() != 1 {
		t.Errorf("dlclose called %d times, want 1 on last release", f.closes.Load())
	}
	if refs(h1.Path()) != 0 {
		t.Errorf("refs = %d after last close, want 0", refs(h1.Path()))
	}
}

func TestOpen_DistinctPathsDistinctHandles(t *testing.T) {
	f := installFakeLoader(t)

	h1, err := Open("/tmp/liba.so")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Open("/tmp/libb.so")
	if err != nil {
		t.Fatal(err)
	}
	defer h1.Close()
	defer h2.Close()

	if f.opens.Load() != 2 {
		t.Errorf("dlopen called %d times, want 2", f.opens.Load())
	}
}

func TestOpen_Failure(t *testing.T) {
	f := installFakeLoader(t)
	f.failAll = true

	_, err := Open("/tmp/libbroken.so")
	if err == nil {
		t.Fatal("expected error")
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindLoad}) {
		t.Errorf("error = %v, want load/load", err)
	}
	if refs("/tmp/libbroken.so") != 0 {
		t.Error("failed open must not leave a table entry")
	}
}

func TestSym(t *testing.T) {
	installFakeLoader(t)

	h, err := Open("/tmp/libkv.so")
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if _, err := h.Sym("kv_set"); err != nil {
		t.Errorf("Sym(kv_set): %v", err)
	}

	_, err = h.Sym("kv_missing")
	if err == nil {
		t.Fatal("expected error for undefined symbol")
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindNotFound}) {
		t.Errorf("error = %v, want load/not_found", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	f := installFakeLoader(t)

	h, err := Open("/tmp/libkv.so")
	if err != nil {
		t.Fatal(err)
	}

	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if f.closes.Load() != 1 {
		t.Errorf("dlclose called %d times, want 1", f.closes.Load())
	}

	if _, err := h.Sym("kv_set"); err == nil {
		t.Error("Sym on closed handle should fail")
	}
}

// Registry address reuse after unload must never surface through a still
// open handle: hammer open/close on a shared path from many goroutines and
// let the fake loader flag double closes and stale-handle lookups.
func TestOpenClose_Concurrent(t *testing.T) {
	f := installFakeLoader(t)

	const workers = 16
	const iterations = 200

	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				h, err := Open("/tmp/libshared.so")
				if err != nil {
					errs <- err
					return
				}
				if _, err := h.Sym("kv_set"); err != nil {
					errs <- err
					h.Close()
					return
				}
				if err := h.Close(); err != nil {
					errs <- err
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("worker error: %v", err)
	}

	if refs("/tmp/libshared.so") != 0 {
		t.Errorf("refs = %d after all closes, want 0", refs("/tmp/libshared.so"))
	}
	if f.opens.Load() != f.closes.Load() {
		t.Errorf("opens %d != closes %d", f.opens.Load(), f.closes.Load())
	}
}
