package manifest

import "sort"

func sortedKeys(assets map[string]Asset) []string {
	keys := make([]string, 0, len(assets))
	for k := range assets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Keys returns asset keys in sorted order.
func (m *Manifest) Keys() []string { return sortedKeys(m.Assets) }
