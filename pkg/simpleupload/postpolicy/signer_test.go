package postpolicy

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 9, 12, 30, 0, 0, time.UTC)

func newTestSigner(opts ...Option) (*Signer, *time.Time) {
	now := fixedNow
	base := []Option{
		WithStaticCredentials("AKIDEXAMPLE", "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY", ""),
		WithRegion("eu-west-1"),
		WithClock(func() time.Time { return now }),
	}
	return New(append(base, opts...)...), &now
}

func defaultConditions() []Condition {
	return []Condition{
		Eq("acl", "private"),
		Eq("key", "avatars/me.png"),
		Eq("bucket", "photos"),
		ContentLengthRange(0, 2048),
		Eq("Content-Type", "image/png"),
	}
}

func defaultInputs() map[string]string {
	return map[string]string{"acl": "private", "key": "avatars/me.png"}
}

func TestDeriveKey(t *testing.T) {
	// Reference vector from the AWS SigV4 documentation.
	key := deriveKey("wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY", "20120215", "us-east-1", "iam")
	assert.Equal(t, "f4780e2d9f65fa895f9c67b32ce1baf0b0d8a43505a000a1a9e090d414db404d", hex.EncodeToString(key))
}

func TestSigner_Presign(t *testing.T) {
	signer, _ := newTestSigner()

	post, err := signer.Presign(context.Background(), "photos", defaultInputs(), defaultConditions(), 5*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "https://photos.s3.eu-west-1.amazonaws.com", post.Attributes["action"])
	assert.Equal(t, "POST", post.Attributes["method"])
	assert.Equal(t, "multipart/form-data", post.Attributes["enctype"])

	assert.Equal(t, "private", post.Inputs["acl"])
	assert.Equal(t, "avatars/me.png", post.Inputs["key"])
	assert.Equal(t, "AKIDEXAMPLE/20240309/eu-west-1/s3/aws4_request", post.Inputs[InputCredential])
	assert.Equal(t, Algorithm, post.Inputs[InputAlgorithm])
	assert.Equal(t, "20240309T123000Z", post.Inputs[InputDate])
	assert.Len(t, post.Inputs[InputSignature], 64)
	assert.NotContains(t, post.Inputs, InputSecurityToken)
	assert.Equal(t, fixedNow.Add(5*time.Minute), post.ExpiresAt)

	raw, err := base64.StdEncoding.DecodeString(post.Inputs[InputPolicy])
	require.NoError(t, err)

	var doc struct {
		Expiration string            `json:"expiration"`
		Conditions []json.RawMessage `json:"conditions"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "2024-03-09T12:35:00.000Z", doc.Expiration)
	require.Len(t, doc.Conditions, 8)
	assert.JSONEq(t, `["eq","$acl","private"]`, string(doc.Conditions[0]))
	assert.JSONEq(t, `["eq","$key","avatars/me.png"]`, string(doc.Conditions[1]))
	assert.JSONEq(t, `["eq","$bucket","photos"]`, string(doc.Conditions[2]))
	assert.JSONEq(t, `["content-length-range",0,2048]`, string(doc.Conditions[3]))
	assert.JSONEq(t, `["eq","$Content-Type","image/png"]`, string(doc.Conditions[4]))
	assert.JSONEq(t, `["eq","$X-Amz-Date","20240309T123000Z"]`, string(doc.Conditions[5]))
}

func TestSigner_PresignDoesNotMutateInputs(t *testing.T) {
	signer, _ := newTestSigner()
	inputs := defaultInputs()

	_, err := signer.Presign(context.Background(), "photos", inputs, defaultConditions(), time.Minute)
	require.NoError(t, err)
	assert.Len(t, inputs, 2)
}

func TestSigner_PresignDefaultExpiration(t *testing.T) {
	signer, _ := newTestSigner(WithDefaultExpiration(90 * time.Second))

	post, err := signer.Presign(context.Background(), "photos", defaultInputs(), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(90*time.Second), post.ExpiresAt)
}

func TestSigner_SessionToken(t *testing.T) {
	signer := New(
		WithStaticCredentials("AKID", "SECRET", "TOKEN"),
		WithClock(func() time.Time { return fixedNow }),
	)

	post, err := signer.Presign(context.Background(), "photos", defaultInputs(), defaultConditions(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "TOKEN", post.Inputs[InputSecurityToken])

	conds, err := Conditions(post.Inputs[InputPolicy])
	require.NoError(t, err)
	assert.Equal(t, Eq(InputSecurityToken, "TOKEN"), conds[len(conds)-1])
}

func TestSigner_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New().Presign(ctx, "photos", nil, nil, time.Minute)
	assert.ErrorIs(t, err, ErrNoCredentials)

	signer, _ := newTestSigner()
	_, err = signer.Presign(ctx, "", nil, nil, time.Minute)
	assert.ErrorIs(t, err, ErrNoBucket)

	bad, _ := newTestSigner(WithEndpoint("::not a url", false))
	_, err = bad.Presign(ctx, "photos", nil, nil, time.Minute)
	assert.Error(t, err)
}

func TestSigner_Action(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{
			name: "us-east-1 global endpoint",
			opts: []Option{WithRegion("us-east-1")},
			want: "https://photos.s3.amazonaws.com",
		},
		{
			name: "regional endpoint",
			opts: []Option{WithRegion("ap-southeast-2")},
			want: "https://photos.s3.ap-southeast-2.amazonaws.com",
		},
		{
			name: "path style custom endpoint",
			opts: []Option{WithEndpoint("http://localhost:9000", true)},
			want: "http://localhost:9000/photos",
		},
		{
			name: "virtual hosted custom endpoint",
			opts: []Option{WithEndpoint("https://r2.example.com", false)},
			want: "https://photos.r2.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := New(tt.opts...)
			got, err := signer.action("photos")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSigner_Verify(t *testing.T) {
	ctx := context.Background()

	submitted := func(t *testing.T, signer *Signer) map[string]string {
		post, err := signer.Presign(ctx, "photos", defaultInputs(), defaultConditions(), 5*time.Minute)
		require.NoError(t, err)
		form := make(map[string]string, len(post.Inputs)+1)
		for k, v := range post.Inputs {
			form[k] = v
		}
		form["content-type"] = "image/png"
		form["bucket"] = "photos"
		return form
	}

	t.Run("valid", func(t *testing.T) {
		signer, _ := newTestSigner()
		assert.NoError(t, signer.Verify(ctx, submitted(t, signer)))
	})

	t.Run("tampered key", func(t *testing.T) {
		signer, _ := newTestSigner()
		form := submitted(t, signer)
		form["key"] = "somewhere/else.png"

		err := signer.Verify(ctx, form)
		assert.ErrorIs(t, err, ErrConditionFailed)
		assert.True(t, IsAuthError(err))
	})

	t.Run("tampered content type", func(t *testing.T) {
		signer, _ := newTestSigner()
		form := submitted(t, signer)
		form["content-type"] = "text/html"

		assert.ErrorIs(t, signer.Verify(ctx, form), ErrConditionFailed)
	})

	t.Run("omitted fields", func(t *testing.T) {
		for _, field := range []string{"content-type", "bucket", "acl"} {
			signer, _ := newTestSigner()
			form := submitted(t, signer)
			delete(form, field)

			err := signer.Verify(ctx, form)
			assert.ErrorIs(t, err, ErrConditionFailed, field)
			assert.ErrorContains(t, err, "missing field", field)
		}
	})

	t.Run("tampered policy", func(t *testing.T) {
		signer, _ := newTestSigner()
		form := submitted(t, signer)

		other, err := signer.Presign(ctx, "photos", defaultInputs(), []Condition{Eq("key", "x")}, time.Hour)
		require.NoError(t, err)
		form[InputPolicy] = other.Inputs[InputPolicy]

		assert.ErrorIs(t, signer.Verify(ctx, form), ErrInvalidSignature)
	})

	t.Run("different secret", func(t *testing.T) {
		signer, _ := newTestSigner()
		form := submitted(t, signer)

		other := New(
			WithStaticCredentials("AKIDEXAMPLE", "another-secret", ""),
			WithClock(func() time.Time { return fixedNow }),
		)
		assert.ErrorIs(t, other.Verify(ctx, form), ErrInvalidSignature)
	})

	t.Run("expired", func(t *testing.T) {
		signer, now := newTestSigner()
		form := submitted(t, signer)
		*now = now.Add(6 * time.Minute)

		err := signer.Verify(ctx, form)
		assert.ErrorIs(t, err, ErrExpired)
		assert.True(t, IsAuthError(err))
	})

	t.Run("missing fields", func(t *testing.T) {
		signer, _ := newTestSigner()
		assert.ErrorIs(t, signer.Verify(ctx, map[string]string{"key": "a"}), ErrMalformedPolicy)
	})

	t.Run("bad credential scope", func(t *testing.T) {
		signer, _ := newTestSigner()
		form := submitted(t, signer)
		form[InputCredential] = "AKIDEXAMPLE/20240309"

		assert.ErrorIs(t, signer.Verify(ctx, form), ErrMalformedPolicy)
	})
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(ErrInvalidSignature))
	assert.True(t, IsAuthError(ErrMalformedPolicy))
	assert.False(t, IsAuthError(ErrNoCredentials))
	assert.False(t, IsAuthError(nil))
}
