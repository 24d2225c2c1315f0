package cache

// Keyer derives cache keys.
type Keyer interface {
	// GraphKey returns the key of an exported graph.
	GraphKey(sourceHash string, opts GraphKeyOpts) string
}

// GraphKeyOpts holds every option that changes an exported graph.
type GraphKeyOpts struct {
	Name      string `json:"name"`
	Format    string `json:"format"`
	Ownership string `json:"ownership"`
	Recurse   bool   `json:"recurse"`
	Output    string `json:"output"`
}

// DefaultKeyer produces "graph:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// GraphKey implements Keyer.
func (DefaultKeyer) GraphKey(sourceHash string, opts GraphKeyOpts) string {
	return hashKey("graph", sourceHash, opts)
}
