package cache

import (
	"strings"
)

// Key types, used as key prefixes and as labels for cache metrics.
const (
	KeyTypeDiagram  = "diagram"
	KeyTypeArtifact = "artifact"
)

// DiagramKeyOpts holds everything besides the edges that changes a diagram.
type DiagramKeyOpts struct {
	Title    string            `json:"title,omitempty"`
	Names    map[string]string `json:"names,omitempty"`
	Theme    string            `json:"theme,omitempty"`  // hash or canonical form of the palette
	Layout   string            `json:"layout,omitempty"` // hash or canonical form of the geometry
	MinWidth float64           `json:"min_width,omitempty"`
}

// ArtifactKeyOpts holds everything besides the diagram that changes a
// rendered artifact.
type ArtifactKeyOpts struct {
	Format   string    `json:"format"`
	VizType  string    `json:"viz_type,omitempty"`
	Static   bool      `json:"static,omitempty"`
	Values   bool      `json:"values,omitempty"`
	Detailed bool      `json:"detailed,omitempty"`
	Scale    float64   `json:"scale,omitempty"`
	Headers  [2]string `json:"headers,omitempty"`
}

// Keyer derives cache keys for each pipeline stage.
type Keyer interface {
	// DiagramKey keys a diagram by the hash of its edges and its options.
	DiagramKey(edgesHash string, opts DiagramKeyOpts) string
	// ArtifactKey keys a rendered output by the hash of its diagram.
	ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes stage inputs into "type:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DiagramKey implements Keyer.
func (DefaultKeyer) DiagramKey(edgesHash string, opts DiagramKeyOpts) string {
	return hashKey(KeyTypeDiagram, edgesHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return hashKey(KeyTypeArtifact, diagramHash, opts)
}

// KeyType returns the key type a key was generated for, ignoring any scope
// prefix. Unknown keys report "other".
func KeyType(key string) string {
	for _, t := range []string{KeyTypeDiagram, KeyTypeArtifact} {
		if strings.HasPrefix(key, t+":") || strings.Contains(key, ":"+t+":") {
			return t
		}
	}
	return "other"
}
