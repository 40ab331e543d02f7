// Package postpolicy signs S3 browser-based POST uploads (AWS Signature
// Version 4 POST policies).
//
// A POST policy lets a client upload one object straight to a bucket with a
// multipart/form-data request. The policy document lists the conditions the
// storage service re-checks when the bytes arrive (bucket, key, ACL, size
// range, content type) and is signed with the bucket owner's credentials.
//
// # Basic Usage
//
//	signer := postpolicy.New(
//	    postpolicy.WithStaticCredentials(accessKey, secretKey, ""),
//	    postpolicy.WithRegion("eu-west-1"),
//	)
//
//	post, err := signer.Presign(ctx, "my-bucket",
//	    map[string]string{"acl": "private", "key": "avatars/me.png"},
//	    []postpolicy.Condition{
//	        postpolicy.Eq("acl", "private"),
//	        postpolicy.Eq("key", "avatars/me.png"),
//	        postpolicy.Eq("bucket", "my-bucket"),
//	        postpolicy.ContentLengthRange(0, 2<<20),
//	        postpolicy.Eq("Content-Type", "image/png"),
//	    },
//	    2*time.Minute,
//	)
//
// post.Attributes describes the HTML form (action, method, enctype) and
// post.Inputs holds the hidden fields the client must send before the file.
//
// # S3-compatible services
//
// Use WithEndpoint for MinIO, R2 and friends:
//
//	signer := postpolicy.New(
//	    postpolicy.WithCredentials(awsCfg.Credentials),
//	    postpolicy.WithRegion("auto"),
//	    postpolicy.WithEndpoint("http://localhost:9000", true),
//	)
package postpolicy
