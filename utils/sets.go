package utils

func ToSet[S comparable](s []S) map[S]bool {
	ret := make(map[S]bool, len(s))
	for _, item := range s {
		ret[item] = true
	}
	return ret
}

// Intersection of two sets.
func Intersection[T comparable](a map[T]bool, b map[T]bool) map[T]bool {
	// Walk the smaller one
	if len(b) < len(a) {
		a, b = b, a
	}
	ret := make(map[T]bool)
	for k := range a {
		if b[k] {
			ret[k] = true
		}
	}
	return ret
}

// Return the set a-b
func Difference[T comparable](a map[T]bool, b map[T]bool) map[T]bool {
	ret := make(map[T]bool)
	for k := range a {
		if !b[k] {
			ret[k] = true
		}
	}
	return ret
}

// How many things in the set satisfy pred. Stops at the first error.
func CountWhere[T comparable](s map[T]bool, pred func(T) (bool, error)) (int, error) {
	var ret int
	for k := range s {
		ok, err := pred(k)
		if err != nil {
			return 0, err
		}
		if ok {
			ret++
		}
	}
	return ret, nil
}
