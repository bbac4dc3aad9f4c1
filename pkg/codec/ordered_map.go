package codec

// OrderedMap is a string-keyed map that preserves insertion order, used
// everywhere the codec builds a mapping from a reply — callers that
// render tables care about field order even though Go maps don't
// preserve it.
type OrderedMap struct {
	keys   []string
	values map[string]string
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]string)}
}

// Set inserts or updates key. Re-setting an existing key keeps its
// original position (last-wins on value, not on order).
func (m *OrderedMap) Set(key, value string) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value for key and whether it was present.
func (m *OrderedMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns keys in insertion order.
func (m *OrderedMap) Keys() []string {
	return m.keys
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int {
	return len(m.keys)
}

// ToMap returns a plain map[string]string copy, discarding order — for
// call sites that only need lookups (JSON encoding, snapshot assembly).
func (m *OrderedMap) ToMap() map[string]string {
	out := make(map[string]string, len(m.keys))
	for _, k := range m.keys {
		out[k] = m.values[k]
	}
	return out
}

// MultiLevelMap is an ordered string-keyed map of *OrderedMap, produced by
// ToDictMultiLevel (udf-list, dc config: records keyed by an outer field
// name, each holding its own ordered field set).
type MultiLevelMap struct {
	keys   []string
	values map[string]*OrderedMap
}

// NewMultiLevelMap returns an empty MultiLevelMap.
func NewMultiLevelMap() *MultiLevelMap {
	return &MultiLevelMap{values: make(map[string]*OrderedMap)}
}

// SetIfAbsent inserts key -> fields if key is not already present and
// reports whether it inserted; a duplicate outer key is a no-op so
// first-seen wins.
func (m *MultiLevelMap) SetIfAbsent(key string, fields *OrderedMap) bool {
	if _, exists := m.values[key]; exists {
		return false
	}
	m.keys = append(m.keys, key)
	m.values[key] = fields
	return true
}

// Get returns the fields for key and whether it was present.
func (m *MultiLevelMap) Get(key string) (*OrderedMap, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns outer keys in first-seen order.
func (m *MultiLevelMap) Keys() []string {
	return m.keys
}

// Len returns the number of outer keys.
func (m *MultiLevelMap) Len() int {
	return len(m.keys)
}
