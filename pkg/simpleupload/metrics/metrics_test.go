package metrics_test

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-upload/pkg/simpleupload"
	"github.com/tendant/simple-upload/pkg/simpleupload/metrics"
)

func TestSink(t *testing.T) {
	reg := promclient.NewRegistry()
	sink, err := metrics.NewSink("", reg)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sink.PresignCreated(ctx, &simpleupload.PresignCreatedEvent{
		Endpoint: "avatars", Disk: "s3", Attributes: simpleupload.Attributes{Size: 2048},
	}))
	require.NoError(t, sink.PresignCreated(ctx, &simpleupload.PresignCreatedEvent{
		Endpoint: "avatars", Disk: "s3", Attributes: simpleupload.Attributes{Size: 4096},
	}))
	require.NoError(t, sink.PresignFailed(ctx, &simpleupload.PresignFailedEvent{
		Endpoint: "avatars",
		Errors: []simpleupload.FieldError{
			{Field: "extension", Code: simpleupload.CodeUnsupportedExtension},
			{Field: "type", Code: simpleupload.CodeUnsupportedType},
		},
	}))

	count, err := testutil.GatherAndCount(reg, "simpleupload_presigns_created_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				values[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				values[mf.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	assert.Equal(t, 2.0, values["simpleupload_presigns_created_total"])
	assert.Equal(t, 1.0, values["simpleupload_presigns_rejected_total"])
	assert.Equal(t, 2.0, values["simpleupload_validation_errors_total"])
	assert.Equal(t, 2.0, values["simpleupload_declared_size_bytes"])
}

func TestNewSink_RegisterTwice(t *testing.T) {
	reg := promclient.NewRegistry()
	first, err := metrics.NewSink("app", reg)
	require.NoError(t, err)
	second, err := metrics.NewSink("app", reg)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, first.PresignFailed(ctx, &simpleupload.PresignFailedEvent{Endpoint: "x"}))
	require.NoError(t, second.PresignFailed(ctx, &simpleupload.PresignFailedEvent{Endpoint: "x"}))

	count, err := testutil.GatherAndCount(reg, "app_presigns_rejected_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "app_presigns_rejected_total" {
			assert.Equal(t, 2.0, mf.GetMetric()[0].GetCounter().GetValue())
		}
	}
}

func TestHandler(t *testing.T) {
	reg := promclient.NewRegistry()
	sink, err := metrics.NewSink("", reg)
	require.NoError(t, err)
	require.NoError(t, sink.PresignCreated(context.Background(), &simpleupload.PresignCreatedEvent{Endpoint: "docs", Disk: "s3"}))

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `simpleupload_presigns_created_total{disk="s3",endpoint="docs"} 1`)
}
