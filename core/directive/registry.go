package directive

import (
	"sort"
	"sync"

	"github.com/aledsdavies/weave/core/diag"
	"github.com/aledsdavies/weave/core/invariant"
)

// DefaultSuggestDistance is the largest edit distance still suggested.
const DefaultSuggestDistance = 2

// StructuralNames are reserved attribute names resolved by template
// inheritance, not by the registry. They take part in typo suggestions.
var StructuralNames = []string{"block", "extends", "include", "with"}

// Entry is a registered directive.
type Entry struct {
	Descriptor
	Compiler Compiler
}

// Registry maps directive names to compilers.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	distance int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[string]Entry),
		distance: DefaultSuggestDistance,
	}
}

// Register adds a directive. Registering a name again replaces the earlier
// entry, which lets projects override built-ins.
func (r *Registry) Register(desc Descriptor, c Compiler) {
	invariant.Precondition(desc.Name != "", "directive name must not be empty")
	invariant.Precondition(desc.PassThrough || c != nil, "directive %q needs a compiler", desc.Name)
	if desc.Merge != nil && desc.Merge.Mode == MergeInto {
		invariant.Precondition(desc.Merge.Into != "" && desc.Merge.Combine != nil,
			"directive %q merge policy needs a target attribute and combine rule", desc.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[desc.Name] = Entry{Descriptor: desc, Compiler: c}
}

// SetSuggestDistance changes the largest edit distance suggested.
func (r *Registry) SetSuggestDistance(d int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.distance = d
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Lookup returns the entry for name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Get returns the entry for name or an UNKNOWN_DIRECTIVE syntax error
// carrying the nearest known name as suggestion.
func (r *Registry) Get(name string) (Entry, error) {
	if e, ok := r.Lookup(name); ok {
		return e, nil
	}
	return Entry{}, r.Unknown(name)
}

// Unknown builds the error reported for an unregistered name.
func (r *Registry) Unknown(name string) *diag.Error {
	err := diag.Syntax(diag.ErrUnknownDirective, "unknown directive %q", name)
	if s := r.Suggest(name); s != "" {
		err.WithSuggestion(s)
	}
	return err
}

// IsFollower reports whether any registered directive lists name as a
// follower.
func (r *Registry) IsFollower(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.Pairs(name) {
			return true
		}
	}
	return false
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Export returns all descriptors sorted by name (for tooling/docs).
func (r *Registry) Export() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Descriptor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Suggest returns the registered or structural name nearest to name, or ""
// when none is within the suggestion distance or name matches exactly.
func (r *Registry) Suggest(name string) string {
	r.mu.RLock()
	distance := r.distance
	r.mu.RUnlock()
	return Suggest(name, r.Names(), StructuralNames, distance)
}
