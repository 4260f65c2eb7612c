package scf_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/devmiek/tencent-cloud-sdk-go/scf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitMonitorIndicators(t *testing.T) {
	var gotBody map[string]interface{}
	var gotVersion, gotAuth string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PutMonitorData", r.Header.Get("X-TC-Action"))
		gotVersion = r.Header.Get("X-TC-Version")
		gotAuth = r.Header.Get("Authorization")
		gotBody = decodeBody(t, r)
		respond(w, `{"Response":{"RequestId":"req-1"}}`)
	}))
	// Route the cross-product call to the fake server too.
	client.SetMonitorEndpoint(client.Endpoint())

	timestamp := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	err := client.SubmitMonitorIndicators(context.Background(), scf.SubmitMonitorInput{
		RegionID:     "ap-shanghai",
		Namespace:    "default",
		FunctionName: "hello",
		Version:      "2",
		Timestamp:    timestamp,
		Indicators: []scf.MonitorIndicator{
			{Name: "orders_processed", Value: 18},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "2018-07-24", gotVersion)
	assert.True(t, strings.Contains(gotAuth, "/monitor/tc3_request"))
	assert.Equal(t, "default::hello::2", gotBody["AnnounceInstance"])
	assert.Equal(t, float64(timestamp.Unix()), gotBody["AnnounceTimestamp"])
	metrics := gotBody["Metrics"].([]interface{})
	require.Len(t, metrics, 1)
	metric := metrics[0].(map[string]interface{})
	assert.Equal(t, "orders_processed", metric["MetricName"])
	assert.Equal(t, float64(18), metric["Value"])
}

func TestSubmitMonitorIndicatorsValidation(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	err := client.SubmitMonitorIndicators(context.Background(), scf.SubmitMonitorInput{
		RegionID:     "ap-shanghai",
		FunctionName: "hello",
	})
	assert.Error(t, err)
}
