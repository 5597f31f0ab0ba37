package r2manager

import "strings"

// NormalizePrefix canonicalizes a key prefix: backslashes become forward
// slashes, leading and trailing slashes are stripped, and a single trailing
// slash is re-added when the prefix is non-empty.
func NormalizePrefix(prefix string) string {
	trimmed := strings.ReplaceAll(prefix, "\\", "/")
	trimmed = strings.Trim(trimmed, "/")
	if trimmed == "" {
		return ""
	}
	return trimmed + "/"
}

// ResolveKey combines a normalized prefix with a client-supplied relative
// key. Keys containing a ".." path segment are rejected so the resolved key
// can never escape the prefix.
func ResolveKey(prefix, key string) (string, error) {
	if key == "" {
		return "", NewValidationError("key is required")
	}

	normalized := strings.ReplaceAll(key, "\\", "/")
	normalized = strings.TrimLeft(normalized, "/")
	if normalized == "" {
		return "", NewValidationError("invalid file key")
	}

	if containsParentSegment(normalized) {
		return "", NewValidationError("invalid file key")
	}

	return NormalizePrefix(prefix) + normalized, nil
}

// containsParentSegment reports whether the slash-normalized path contains a
// ".." segment.
func containsParentSegment(path string) bool {
	for _, segment := range strings.Split(strings.ReplaceAll(path, "\\", "/"), "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}
