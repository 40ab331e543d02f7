package presets

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-upload/pkg/simpleupload"
)

func TestRulePresets(t *testing.T) {
	tests := []struct {
		preset string
		mime   string
		ext    string
		want   string
	}{
		{"images", "image/png", "png", "images"},
		{"images", "image/svg+xml", "svg", "images"},
		{"documents", "application/pdf", "pdf", "pdf"},
		{"documents", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "docx", "office"},
		{"documents", "text/csv", "csv", "text"},
		{"videos", "video/mp4", "mp4", "videos"},
		{"audio", "audio/mpeg", "mp3", "audio"},
		{"avatar", "image/webp", "webp", "avatar"},
	}
	for _, tt := range tests {
		t.Run(tt.preset+"/"+tt.ext, func(t *testing.T) {
			rules, err := Rules(tt.preset)
			require.NoError(t, err)
			rule := simpleupload.SelectRule(rules, tt.mime, tt.ext)
			require.NotNil(t, rule)
			assert.Equal(t, tt.want, rule.Name())
		})
	}

	rules, err := Rules("avatar")
	require.NoError(t, err)
	assert.Nil(t, simpleupload.SelectRule(rules, "image/gif", "gif"))

	_, err = Rules("spreadsheets")
	assert.Error(t, err)
	assert.Equal(t, []string{"audio", "avatar", "documents", "images", "videos"}, Names())
}

func TestRulePresets_FreshCopies(t *testing.T) {
	a, b := Images(), Images()
	assert.NotSame(t, a[0], b[0])
}

func TestVideos_Lifetime(t *testing.T) {
	assert.Equal(t, 15*time.Minute, Videos()[0].Lifetime())
}

func TestNewDevelopment(t *testing.T) {
	t.Run("default configuration", func(t *testing.T) {
		uploader, disk, err := NewDevelopment()
		require.NoError(t, err)
		defer uploader.Wait()

		ctx := context.Background()
		result, err := uploader.Create(ctx, simpleupload.NewRequest("notes.txt", "text/plain", 5))
		require.NoError(t, err)
		assert.Equal(t, "notes.txt", result.Inputs["key"])
		assert.Equal(t, "dev-uploads", disk.Bucket())

		form := map[string]string{"Content-Type": "text/plain"}
		for k, v := range result.Inputs {
			form[k] = v
		}
		require.NoError(t, disk.Submit(ctx, "dev-uploads", form, strings.NewReader("hello")))

		info, err := uploader.Stat(ctx, "notes.txt")
		require.NoError(t, err)
		assert.Equal(t, int64(5), info.Size)
	})

	t.Run("custom bucket and path", func(t *testing.T) {
		uploader, _, err := NewDevelopment(
			WithDevBucket("scratch"),
			WithDevPath("incoming"),
			WithDevOptions(simpleupload.WithNaming(simpleupload.LiteralName("fixed"))),
		)
		require.NoError(t, err)
		defer uploader.Wait()

		result, err := uploader.Create(context.Background(), simpleupload.NewRequest("a.png", "image/png", 10))
		require.NoError(t, err)
		assert.Equal(t, "incoming/fixed.png", result.Inputs["key"])
		assert.Equal(t, "scratch", result.Upload.Bucket)
	})

	t.Run("rejects oversized text", func(t *testing.T) {
		uploader, _, err := NewDevelopment()
		require.NoError(t, err)
		defer uploader.Wait()

		_, err = uploader.Create(context.Background(), simpleupload.NewRequest("notes.txt", "text/plain", 6<<20))
		assert.True(t, simpleupload.IsValidationError(err))
	})
}

func TestAvatar(t *testing.T) {
	uploader, disk := NewTesting(t, Avatar()...)
	ctx := simpleupload.WithCaller(context.Background(), "user-42")

	result, err := uploader.Create(ctx, simpleupload.NewRequest("me.png", "image/png", 3))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.Inputs["key"], "avatars/user-42/"))
	assert.True(t, strings.HasSuffix(result.Inputs["key"], ".png"))
	assert.NotContains(t, result.Inputs["key"], "me.png")
	assert.False(t, uploader.Describe().Multiple)

	form := map[string]string{"Content-Type": "image/png"}
	for k, v := range result.Inputs {
		form[k] = v
	}
	require.NoError(t, disk.Submit(context.Background(), disk.Bucket(), form, bytes.NewReader([]byte{1, 2, 3})))
	assert.Equal(t, 1, disk.Len())

	_, err = uploader.Create(ctx, simpleupload.NewRequest("big.png", "image/png", 3<<20))
	assert.True(t, simpleupload.IsValidationError(err))

	_, err = uploader.Create(ctx, simpleupload.NewRequest("evil.exe", "application/x-msdownload", 900<<20))
	var verr *simpleupload.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"extension", "size", "type"}, verr.FieldNames())
}
