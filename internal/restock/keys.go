package restock

import "strconv"

// AssignKeys returns one display key per item, in input order. An item keeps
// its own id when that id is present and unseen in this pass; a missing id
// becomes "generated-<index>" and a repeated one "<id>-<index>". Keys are for
// presentation only and the items are never modified.
func AssignKeys[T any](items []T, id func(T) string) []string {
	keys := make([]string, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		idx := strconv.Itoa(i)
		raw := id(it)

		var key string
		switch _, dup := seen[raw]; {
		case raw == "":
			key = "generated-" + idx
		case dup:
			key = raw + "-" + idx
		default:
			key = raw
		}
		// a synthesized key may collide with a real id seen earlier
		for {
			if _, taken := seen[key]; !taken {
				break
			}
			key += "-" + idx
		}
		seen[key] = struct{}{}
		keys[i] = key
	}
	return keys
}
