package registry

// foldEqual reports whether a and b have the same length and every byte pair
// is equal after ASCII lower-casing. It is an exact match, not a substring
// search: a prefix or suffix of a value does not match it.
func foldEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lower(a[i]) != lower(b[i]) {
			return false
		}
	}
	return true
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
