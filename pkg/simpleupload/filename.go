package simpleupload

import "strings"

// DestructureFilename splits a client supplied filename on its final dot.
// The extension is lower-cased and is empty when there is no dot. ok is false
// when v is not a string; callers treat that as missing input rather than an
// error.
func DestructureFilename(v any) (name, extension string, ok bool) {
	s, isString := v.(string)
	if !isString {
		return "", "", false
	}

	i := strings.LastIndex(s, ".")
	if i < 0 {
		return s, "", true
	}
	return s[:i], strings.ToLower(s[i+1:]), true
}

// Folder returns the immediate parent directory of a key, or "" for keys
// without one. "root/parent/test.txt" has folder "parent".
func Folder(key string) string {
	var segments []string
	for _, s := range strings.Split(key, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) < 2 {
		return ""
	}
	return segments[len(segments)-2]
}
