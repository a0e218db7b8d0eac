package bundle

// Bundles is an ordered, append-only collection of resolved bundles.
// It does not deduplicate: adding the same bundle twice yields two entries
// and Find returns the first. Callers needing strict uniqueness must check
// Find before adding. Not safe for concurrent use.
type Bundles struct {
	bundles []Bundle
}

// NewBundles creates an empty collection.
func NewBundles() *Bundles {
	return &Bundles{}
}

// AddDir loads a bundle from a directory and appends it.
func (bs *Bundles) AddDir(path string) error {
	b, err := LoadFromDir(path)
	if err != nil {
		return err
	}
	bs.bundles = append(bs.bundles, b)
	return nil
}

// AddManifest loads a manifest file, resolves all its entries, and appends
// the resolved bundles in manifest order. On failure nothing is appended.
func (bs *Bundles) AddManifest(path string) error {
	m, err := LoadManifest(path)
	if err != nil {
		return err
	}
	resolved, err := m.ResolveBundles(path)
	if err != nil {
		return err
	}
	bs.bundles = append(bs.bundles, resolved...)
	return nil
}

// All returns the bundles in accumulation order.
// The returned slice is shared; callers must not modify it.
func (bs *Bundles) All() []Bundle {
	return bs.bundles
}

// Find returns the first bundle with the given declared name.
func (bs *Bundles) Find(name string) (Bundle, bool) {
	for _, b := range bs.bundles {
		if b.Name() == name {
			return b, true
		}
	}
	return Bundle{}, false
}

// Len returns the number of bundles in the collection.
func (bs *Bundles) Len() int {
	return len(bs.bundles)
}
