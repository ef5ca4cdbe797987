package searchquery

import "strings"

var hashFields = map[int]string{
	32:  "md5",
	40:  "sha1",
	64:  "sha256",
	128: "sha512",
}

// QueryFromHash turns a hex digest into a query on the matching hash field.
// In dhashOnly mode only SHA256-length input becomes a dhash query. Anything
// that is not a recognised digest is returned unchanged.
func QueryFromHash(hash string, dhashOnly bool) string {
	h := strings.ToLower(strings.TrimSpace(hash))
	if !isHex(h) {
		return hash
	}
	if dhashOnly {
		if len(h) == 64 {
			return "dhash:" + h
		}
		return hash
	}
	field, ok := hashFields[len(h)]
	if !ok {
		return hash
	}
	return field + ":" + h
}

// HashField names the hash field a digest of this length belongs to.
func HashField(hash string) (string, bool) {
	h := strings.TrimSpace(hash)
	if !isHex(strings.ToLower(h)) {
		return "", false
	}
	field, ok := hashFields[len(h)]
	return field, ok
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
