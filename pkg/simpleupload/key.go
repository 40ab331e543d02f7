package simpleupload

import (
	"path"
	"strings"
)

// BuildKey derives the storage key for a validated upload:
// "<path>/<name>.<extension>" with repeated slashes collapsed and no leading
// or trailing slash. It is a pure function of its inputs unless naming is
// anonymous.
func BuildKey(uc UploadContext, naming NameStrategy, dir PathStrategy) string {
	return buildKey(uc, naming.Resolve(uc), dir)
}

func buildKey(uc UploadContext, filename string, dir PathStrategy) string {
	file := filename
	if uc.Extension != "" {
		file += "." + uc.Extension
	}

	key := file
	if prefix := dir.Resolve(uc); prefix != "" {
		key = prefix + "/" + file
	}

	return normalizeKey(key)
}

func normalizeKey(key string) string {
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	return strings.Trim(key, "/")
}

// withKey fills in the key derived fields of the context
func withKey(uc UploadContext, key, filename string) UploadContext {
	uc.Key = key
	uc.File = path.Base(key)
	uc.Filename = filename
	uc.Folder = Folder(key)
	return uc
}
