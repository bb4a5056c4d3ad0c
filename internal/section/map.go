package section

// Map is an insertion-ordered mapping from canonical section label to
// accumulated body text. A plain Go map would lose the document order the
// downstream unit mapping depends on, so keys are tracked in a slice with a
// lookup index alongside.
type Map struct {
	labels []string
	index  map[string]int
	bodies []string
}

// NewMap returns an empty section map.
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

// Add ensures label exists as a key, creating it with an empty body on first
// sight. Insertion order is fixed by the first Add for a given label.
func (m *Map) Add(label string) {
	if _, ok := m.index[label]; ok {
		return
	}
	m.index[label] = len(m.labels)
	m.labels = append(m.labels, label)
	m.bodies = append(m.bodies, "")
}

// Append adds body text to label's entry, creating the entry if needed.
func (m *Map) Append(label, body string) {
	m.Add(label)
	m.bodies[m.index[label]] += body
}

// Get returns the body for label and whether the label exists.
func (m *Map) Get(label string) (string, bool) {
	i, ok := m.index[label]
	if !ok {
		return "", false
	}
	return m.bodies[i], true
}

// Labels returns the labels in insertion order. The returned slice is a
// copy.
func (m *Map) Labels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}

// Len returns the number of distinct labels.
func (m *Map) Len() int { return len(m.labels) }

// Each calls fn for every label/body pair in insertion order, stopping early
// if fn returns false.
func (m *Map) Each(fn func(label, body string) bool) {
	for i, label := range m.labels {
		if !fn(label, m.bodies[i]) {
			return
		}
	}
}
