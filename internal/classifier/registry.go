package classifier

import (
	"fmt"
	"sort"
	"strings"

	"NewsTracker/internal/ports"
)

// Strategy keys accepted by the selector.
const (
	KindLLM  = "llm"
	KindABSA = "absa"
)

// Constructor builds a classifier bound to a topic.
type Constructor func(topic string) (ports.Classifier, error)

// Registry keeps a mapping from strategy keys to their constructors.
type Registry struct {
	constructors map[string]Constructor
}

var _ ports.ClassifierFactory = (*Registry)(nil)

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: map[string]Constructor{}}
}

// Register adds or replaces a strategy.
func (r *Registry) Register(kind string, ctor Constructor) {
	if r.constructors == nil {
		r.constructors = map[string]Constructor{}
	}
	r.constructors[normalize(kind)] = ctor
}

// Kinds lists the registered strategy keys.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.constructors))
	for k := range r.constructors {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New constructs the strategy registered under kind for topic.
func (r *Registry) New(kind, topic string) (ports.Classifier, error) {
	ctor, ok := r.constructors[normalize(kind)]
	if !ok {
		return nil, fmt.Errorf("classifier %q is not registered (known: %s)", kind, strings.Join(r.Kinds(), ", "))
	}

	c, err := ctor(topic)
	if err != nil {
		return nil, fmt.Errorf("build %s classifier for %q: %w", kind, topic, err)
	}
	return c, nil
}

func normalize(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}
