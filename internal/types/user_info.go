package types

import (
	"sort"
	"strings"
)

// UserInfo maps semantic keys ("full_name", "email", "resume_path") to values.
// Missing values are absent keys, never empty strings.
type UserInfo map[string]string

// FilePathKey returns the UserInfo key that holds the local path for a file type.
func FilePathKey(fileType string) string {
	return strings.TrimSpace(fileType) + "_path"
}

// FilePath resolves the local path stored for a file type (e.g. "resume" → resume_path).
func (u UserInfo) FilePath(fileType string) (string, bool) {
	p, ok := u[FilePathKey(fileType)]
	if !ok || p == "" {
		return "", false
	}
	return p, true
}

// Keys returns the keys in sorted order.
func (u UserInfo) Keys() []string {
	keys := make([]string, 0, len(u))
	for k := range u {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge returns a copy of u with the non-empty values of other applied on top.
func (u UserInfo) Merge(other UserInfo) UserInfo {
	out := make(UserInfo, len(u)+len(other))
	for k, v := range u {
		out[k] = v
	}
	for k, v := range other {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
