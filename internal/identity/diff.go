package identity

// ChangeSet is the outcome of diffing a stored collection against a desired
// one: rows to delete and rows to insert. Rows present on both sides are
// untouched.
type ChangeSet[T any] struct {
	Deleted  []T
	Inserted []T
}

// Changes diffs old against new using key for row identity.
func Changes[T any, K comparable](oldItems, newItems []T, key func(T) K) ChangeSet[T] {
	oldKeys := make(map[K]struct{}, len(oldItems))
	for _, item := range oldItems {
		oldKeys[key(item)] = struct{}{}
	}

	newKeys := make(map[K]struct{}, len(newItems))
	for _, item := range newItems {
		newKeys[key(item)] = struct{}{}
	}

	var out ChangeSet[T]
	for _, item := range oldItems {
		if _, ok := newKeys[key(item)]; !ok {
			out.Deleted = append(out.Deleted, item)
		}
	}
	for _, item := range newItems {
		if _, ok := oldKeys[key(item)]; !ok {
			out.Inserted = append(out.Inserted, item)
		}
	}

	return out
}
