package simpleupload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDestructureFilename(t *testing.T) {
	tests := []struct {
		in        any
		name, ext string
		ok        bool
	}{
		{"test.png", "test", "png", true},
		{"Photo.JPG", "Photo", "jpg", true},
		{"archive.tar.gz", "archive.tar", "gz", true},
		{"README", "README", "", true},
		{"trailing.", "trailing", "", true},
		{"", "", "", true},
		{nil, "", "", false},
		{42, "", "", false},
		{[]string{"a.png"}, "", "", false},
	}

	for _, tt := range tests {
		name, ext, ok := DestructureFilename(tt.in)
		assert.Equal(t, tt.name, name, "%v", tt.in)
		assert.Equal(t, tt.ext, ext, "%v", tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
	}
}

func TestDestructureFilenameRecomposes(t *testing.T) {
	for _, f := range []string{"test.png", "a.b", ".env", "folder/file.txt", "x."} {
		name, ext, ok := DestructureFilename(f)
		assert.True(t, ok)
		assert.Equal(t, f, name+"."+ext)

		again, againExt, _ := DestructureFilename(f)
		assert.Equal(t, name, again)
		assert.Equal(t, ext, againExt)
	}
}

func TestFolder(t *testing.T) {
	assert.Equal(t, "", Folder("test.txt"))
	assert.Equal(t, "parent", Folder("parent/test.txt"))
	assert.Equal(t, "parent", Folder("root/grandparent/parent/test.txt"))
	assert.Equal(t, "parent", Folder("/parent//test.txt"))
	assert.Equal(t, "", Folder(""))
}
