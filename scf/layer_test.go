package scf_test

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/devmiek/tencent-cloud-sdk-go/core"
	"github.com/devmiek/tencent-cloud-sdk-go/scf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLayerEagerVersionAndWait(t *testing.T) {
	var getCalls int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("X-TC-Action") {
		case "PublishLayerVersion":
			body := decodeBody(t, r)
			assert.Equal(t, "deps", body["LayerName"])
			assert.Equal(t, []interface{}{"Python3.6"}, body["CompatibleRuntimes"])
			respond(w, `{"Response":{"RequestId":"req-1","LayerVersion":3}}`)
		case "GetLayerVersion":
			if atomic.AddInt32(&getCalls, 1) == 1 {
				respond(w, `{"Response":{"RequestId":"req-2","Error":{
					"Code":"ResourceNotFound.LayerVersion","Message":"not found"}}}`)
				return
			}
			respond(w, `{"Response":{"RequestId":"req-3",
				"LayerName":"deps","LayerVersion":3,"Status":"Active"}}`)
		default:
			t.Errorf("unexpected action %s", r.Header.Get("X-TC-Action"))
		}
	}))

	operation, err := client.CreateLayer(context.Background(), scf.CreateLayerInput{
		RegionID:  "ap-shanghai",
		LayerName: "deps",
		Content:   scf.NewLayerContent().UseLocalZipArchive(zipArchive(t)),
	})
	require.NoError(t, err)

	// The version number is known before the layer becomes visible.
	assert.Equal(t, 3, operation.Result())
	assert.False(t, operation.Done())

	result, err := operation.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result)
	assert.True(t, operation.Done())
}

func TestDeleteLayerAllVersions(t *testing.T) {
	var mu sync.Mutex
	var deleted []float64
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("X-TC-Action") {
		case "ListLayerVersions":
			respond(w, `{"Response":{"RequestId":"req-1","LayerVersions":[
				{"LayerName":"deps","LayerVersion":1},
				{"LayerName":"deps","LayerVersion":2},
				{"LayerName":"deps","LayerVersion":3}]}}`)
		case "DeleteLayerVersion":
			body := decodeBody(t, r)
			mu.Lock()
			deleted = append(deleted, body["LayerVersion"].(float64))
			mu.Unlock()
			respond(w, `{"Response":{"RequestId":"req-2"}}`)
		default:
			t.Errorf("unexpected action %s", r.Header.Get("X-TC-Action"))
		}
	}))

	require.NoError(t, client.DeleteLayer(context.Background(), "ap-shanghai", "deps", 0))
	assert.ElementsMatch(t, []float64{1, 2, 3}, deleted)
}

func TestGetLayerInfoContent(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, `{"Response":{"RequestId":"req-1",
			"LayerName":"deps","LayerVersion":2,"Status":"Active",
			"CompatibleRuntimes":["Python3.6"],"LicenseInfo":"MIT",
			"Location":"https://example.com/layer.zip","CodeSha256":"abc123"}}`)
	}))

	info, err := client.GetLayerInfo(context.Background(), "ap-shanghai", "deps", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Version)
	assert.Equal(t, "MIT", info.License)
	require.NotNil(t, info.Content)
	assert.Equal(t, "https://example.com/layer.zip", info.Content.DownloadURL)
	assert.Equal(t, "abc123", info.Content.CodeSHA256)
}

func TestLayerIterator(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, "ListLayers", r.Header.Get("X-TC-Action"))
		assert.Equal(t, "deps", body["SearchKey"])
		respond(w, `{"Response":{"RequestId":"req-1","TotalCount":2,"Layers":[
			{"LayerName":"deps-a","LayerVersion":1},
			{"LayerName":"deps-b","LayerVersion":4}]}}`)
	}))

	it := client.Layers("ap-shanghai", "", "deps")
	first, err := it.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "deps-a", first.Name)

	second, err := it.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, second.Version)

	_, err = it.Next(context.Background())
	assert.ErrorIs(t, err, core.ErrNotFound)
}
