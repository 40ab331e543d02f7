// Package simpleupload authorizes direct-to-storage uploads.
//
// A client declares what it wants to upload (file name, MIME type and size).
// The Uploader picks the rule that applies to that file, validates the
// declaration against it, derives the object key and returns a signed
// POST policy the client can use to send the bytes straight to an
// S3-compatible bucket. The application never sees the file itself.
//
// # Basic Usage
//
//	registry := storage.NewRegistry(s3Disk)
//
//	uploader, err := simpleupload.New(
//	    simpleupload.WithName("avatars"),
//	    simpleupload.WithDisks(registry),
//	    simpleupload.WithRules(
//	        simpleupload.MustRule(
//	            simpleupload.Mimes("image/"),
//	            simpleupload.Extensions("png", "jpg"),
//	            simpleupload.MaxSize(2<<20),
//	        ),
//	    ),
//	    simpleupload.WithPath(simpleupload.StaticPath("avatars")),
//	    simpleupload.WithNaming(simpleupload.AnonymousName()),
//	)
//
//	result, err := uploader.Create(ctx, simpleupload.NewRequest("me.png", "image/png", 1024))
//	var verr *simpleupload.ValidationError
//	if errors.As(err, &verr) {
//	    // 422 with verr.Fields()
//	}
//
// result.Attributes describes the HTML form and result.Inputs holds the hidden
// fields, including the object key, that the client must submit.
//
// # Rules
//
// Rules are checked in the order they were registered and the first one that
// accepts the file's extension or MIME type wins. When no rule matches, the
// uploader's default rule applies. Rules are immutable once built and can be
// shared between uploaders.
//
// # Events
//
// PresignCreated and PresignFailed are delivered to the configured EventSink
// on a separate goroutine. A slow or failing sink never affects the result.
package simpleupload
