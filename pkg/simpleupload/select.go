package simpleupload

// SelectRule returns the first rule that matches the MIME type or extension,
// or nil when none does. Registration order decides ties.
func SelectRule(rules []*Rule, mimeType, extension string) *Rule {
	for _, r := range rules {
		if r.Matches(mimeType, extension) {
			return r
		}
	}
	return nil
}
