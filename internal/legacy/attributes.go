package legacy

import "strings"

// IsAbsent reports whether a legacy value carries no data. The CMS stored
// blanks as empty strings, whitespace or the literal text "null"; all of them
// mean absent. Every sentinel check in the engine goes through this function.
func IsAbsent(v string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || strings.EqualFold(trimmed, "null")
}

// Attributes holds the normalized post metadata of one entity. A key that
// maps to nil was present in the CMS but held an absent value; a key missing
// from the map was never stored. Both read as absent through Get.
type Attributes map[string]*string

// Get returns the value stored under key when it is present and not absent.
func (a Attributes) Get(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Lookup returns the value of key and whether the key was stored at all.
// A stored but absent value yields ("", true).
func (a Attributes) Lookup(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", ok
	}
	return *v, true
}

// set merges a raw metadata value into the map. A repeated key keeps its
// first non-absent value.
func (a Attributes) set(key string, raw *string) {
	var normalized *string
	if raw != nil && !IsAbsent(*raw) {
		v := *raw
		normalized = &v
	}

	if existing, ok := a[key]; ok && existing != nil {
		return
	}
	a[key] = normalized
}

// Record pairs a legacy entity with its attributes.
type Record struct {
	Entity     Entity
	Attributes Attributes
}
