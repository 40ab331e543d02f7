package simpleupload

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Description tells a client what an endpoint accepts, for building file
// inputs and help text before any request is made.
type Description struct {
	Multiple   bool     `json:"multiple"`
	Message    string   `json:"message"`
	Accept     string   `json:"accept"`
	Extensions []string `json:"extensions"`
	Mimes      []string `json:"mimes"`
	Size       int64    `json:"size"`
}

// Describe summarizes the uploader's rules. Extensions and MIME types are
// the union over every registered rule and size is the largest maximum. An
// uploader without rules is described by its default rule.
func (u *Uploader) Describe() Description {
	rules := u.rules
	if len(rules) == 0 {
		rules = []*Rule{u.defaults}
	}

	d := Description{Multiple: u.multiple, Extensions: []string{}, Mimes: []string{}}
	for _, r := range rules {
		for _, e := range r.extensions {
			if !slices.Contains(d.Extensions, e) {
				d.Extensions = append(d.Extensions, e)
			}
		}
		for _, m := range r.mimes {
			if !slices.Contains(d.Mimes, m) {
				d.Mimes = append(d.Mimes, m)
			}
		}
		d.Size = max(d.Size, r.maxSize)
	}

	d.Accept = acceptAttribute(d.Mimes, d.Extensions)
	d.Message = describeMessage(d.Size, d.Extensions, d.Mimes, d.Multiple)
	return d
}

// describeMessage builds text like "JPG, PNG up to 1 KB". Extensions are
// listed when there are one to three of them, otherwise MIME types under the
// same limit, otherwise a generic description.
func describeMessage(size int64, extensions, mimes []string, multiple bool) string {
	var kinds string
	switch {
	case len(extensions) > 0 && len(extensions) < 4:
		upper := make([]string, len(extensions))
		for i, e := range extensions {
			upper[i] = strings.ToUpper(strings.TrimSpace(e))
		}
		kinds = strings.Join(upper, ", ")
	case len(mimes) > 0 && len(mimes) < 4:
		trimmed := make([]string, len(mimes))
		for i, m := range mimes {
			trimmed[i] = strings.Trim(m, " /")
		}
		kinds = upperFirst(strings.Join(trimmed, ", "))
	case multiple:
		kinds = "Files"
	default:
		kinds = "A single file"
	}
	return kinds + " up to " + FormatFileSize(size)
}

// acceptAttribute renders an HTML accept attribute: MIME prefixes become
// "image/*" and extensions ".png".
func acceptAttribute(mimes, extensions []string) string {
	parts := make([]string, 0, len(mimes)+len(extensions))
	for _, m := range mimes {
		if strings.HasSuffix(m, "/") {
			m += "*"
		}
		parts = append(parts, m)
	}
	for _, e := range extensions {
		parts = append(parts, "."+e)
	}
	return strings.Join(parts, ",")
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
