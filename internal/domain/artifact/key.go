package artifact

// Key identifies one (scenario, selector, viewport) combination. The engine
// runner uses it to map artifact filenames seen on the engine's output back
// to the pair they belong to.
type Key struct {
	Label         string
	SelectorIndex int
	Selector      string
	ViewportIndex int
	ViewportLabel string
}

// FileName returns the canonical artifact filename for the key.
func (k Key) FileName() string {
	return FileName(k.Label, k.SelectorIndex, k.Selector, k.ViewportIndex, k.ViewportLabel)
}
