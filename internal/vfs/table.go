package vfs

import "strings"

// table is an insertion-ordered map from key to content. Overwriting a key
// keeps its position; deleting and re-inserting moves it to the end.
type table struct {
	keys    []string
	content map[string]string
}

func newTable() *table {
	return &table{content: make(map[string]string)}
}

func (t *table) get(key string) (string, bool) {
	value, ok := t.content[key]
	return value, ok
}

func (t *table) has(key string) bool {
	_, ok := t.content[key]
	return ok
}

func (t *table) set(key, value string) {
	if _, ok := t.content[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.content[key] = value
}

func (t *table) remove(key string) bool {
	if _, ok := t.content[key]; !ok {
		return false
	}
	delete(t.content, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
	return true
}

func (t *table) len() int {
	return len(t.keys)
}

// anyWithPrefix reports whether at least one key starts with prefix. The
// empty prefix matches any non-empty table.
func (t *table) anyWithPrefix(prefix string) bool {
	for _, k := range t.keys {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// each visits keys in insertion order until fn returns false.
func (t *table) each(fn func(key, value string) bool) {
	for _, k := range t.keys {
		if !fn(k, t.content[k]) {
			return
		}
	}
}
