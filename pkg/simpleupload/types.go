package simpleupload

import (
	"time"
)

// Request is the upload intent declared by a client. Fields are untyped
// because they usually come straight from a form or JSON body and are only
// trusted after validation.
type Request struct {
	Name any `json:"name"`
	Type any `json:"type"`
	Size any `json:"size"`
	Meta any `json:"meta,omitempty"`
}

// NewRequest builds a Request from already-typed values
func NewRequest(name, mimeType string, size int64) Request {
	return Request{Name: name, Type: mimeType, Size: size}
}

// Attributes are the validated attributes of an upload
type Attributes struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
	MimeType  string `json:"type"`
	Size      int64  `json:"size"`
	Meta      any    `json:"meta,omitempty"`
}

// UploadContext is everything known about an upload while it is being
// authorized. It is passed to computed naming, path and data strategies.
// Key, File, Filename and Folder are only set once the key has been built.
type UploadContext struct {
	Attributes

	Endpoint string `json:"endpoint,omitempty"`
	Disk     string `json:"disk"`
	Bucket   string `json:"bucket"`
	Caller   string `json:"caller,omitempty"`

	Key      string `json:"key,omitempty"`
	File     string `json:"file,omitempty"`
	Filename string `json:"filename,omitempty"`
	Folder   string `json:"folder,omitempty"`
}

// Value looks up a context value by name. Recognized names are name,
// extension, type, size, meta, endpoint, disk, bucket, caller, key, file,
// filename and folder.
func (c UploadContext) Value(name string) (any, bool) {
	switch name {
	case "name":
		return c.Name, true
	case "extension":
		return c.Extension, true
	case "type":
		return c.MimeType, true
	case "size":
		return c.Size, true
	case "meta":
		return c.Meta, c.Meta != nil
	case "endpoint":
		return c.Endpoint, true
	case "disk":
		return c.Disk, true
	case "bucket":
		return c.Bucket, true
	case "caller":
		return c.Caller, true
	case "key":
		return c.Key, c.Key != ""
	case "file":
		return c.File, c.File != ""
	case "filename":
		return c.Filename, c.Filename != ""
	case "folder":
		return c.Folder, c.Folder != ""
	default:
		return nil, false
	}
}

// Result is what Create hands back to the client
type Result struct {
	Attributes map[string]string `json:"attributes"`
	Inputs     map[string]string `json:"inputs"`
	Data       any               `json:"data"`

	Upload    UploadContext `json:"-"`
	Rule      string        `json:"-"`
	ExpiresAt time.Time     `json:"-"`
}

// ObjectInfo describes an object that exists in a bucket
type ObjectInfo struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
