// ===========================================================================
//
// File Name:  registry.go
//
// Author:  David Eccles
//
// ==========================================================================

package affytools

// Registry assigns small integer identifiers to labels in first-seen order.
// Identifiers start at 0, are contiguous, and are never reused, so the label
// list doubles as the reverse map.
type Registry struct {
	name   string
	ids    map[string]int
	labels []string
}

// NewRegistry creates an empty registry, sized for the expected number of labels
func NewRegistry(name string, capacity int) *Registry {

	if capacity < 0 {
		capacity = 0
	}

	return &Registry{
		name:   name,
		ids:    make(map[string]int, capacity),
		labels: make([]string, 0, capacity),
	}
}

// Name returns the kind of label held, e.g. "marker"
func (reg *Registry) Name() string {

	return reg.name
}

// Lookup returns the identifier of a known label
func (reg *Registry) Lookup(label string) (int, bool) {

	id, ok := reg.ids[label]
	return id, ok
}

// Register returns the identifier for label, allocating the next one if the
// label is new. The second result reports whether allocation happened.
func (reg *Registry) Register(label string) (int, bool) {

	if id, ok := reg.ids[label]; ok {
		return id, false
	}

	id := len(reg.labels)
	reg.labels = append(reg.labels, label)
	reg.ids[label] = id

	return id, true
}

// Label returns the label for id, or "" if id was never allocated
func (reg *Registry) Label(id int) string {

	if id < 0 || id >= len(reg.labels) {
		return ""
	}

	return reg.labels[id]
}

// Len returns the number of registered labels
func (reg *Registry) Len() int {

	return len(reg.labels)
}

// Labels returns a copy of all labels in identifier order
func (reg *Registry) Labels() []string {

	out := make([]string, len(reg.labels))
	copy(out, reg.labels)

	return out
}
