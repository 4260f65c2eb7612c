package scf_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devmiek/tencent-cloud-sdk-go/scf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoke(t *testing.T) {
	var gotBody map[string]interface{}
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		respond(w, `{"Response":{"RequestId":"req-1","Result":{
			"InvokeResult":0,"RetMsg":"{\"ok\":true}","Log":"START",
			"Duration":12.5,"BillDuration":100,"MemUsage":1048576,
			"FunctionRequestId":"fn-req-1"}}}`)
	}))

	result, err := client.Invoke(context.Background(), scf.InvokeInput{
		RegionID:     "ap-shanghai",
		Namespace:    "default",
		FunctionName: "hello",
		Event:        map[string]interface{}{"name": "world"},
		Version:      "3",
	})
	require.NoError(t, err)

	assert.Equal(t, "RequestResponse", gotBody["InvocationType"])
	assert.Equal(t, "hello", gotBody["FunctionName"])
	assert.Equal(t, "3", gotBody["Qualifier"])
	assert.JSONEq(t, `{"name":"world"}`, gotBody["ClientContext"].(string))

	assert.Equal(t, "fn-req-1", result.RequestID)
	assert.Equal(t, 12.5, result.RunDuration)
	assert.Equal(t, int64(1048576), result.MemoryUsage)
	assert.Equal(t, map[string]interface{}{"ok": true}, result.ReturnValue())
}

func TestInvokeAsynchronous(t *testing.T) {
	var gotBody map[string]interface{}
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody = decodeBody(t, r)
		respond(w, `{"Response":{"RequestId":"req-1","Result":{
			"InvokeResult":0,"FunctionRequestId":"fn-req-2"}}}`)
	}))

	result, err := client.Invoke(context.Background(), scf.InvokeInput{
		RegionID:     "ap-shanghai",
		FunctionName: "hello",
		Asynchronous: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Event", gotBody["InvocationType"])
	assert.Equal(t, "fn-req-2", result.RequestID)
}

func TestInvokeExecutionError(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, `{"Response":{"RequestId":"req-1","Result":{
			"InvokeResult":1,"ErrMsg":"handled exception","FunctionRequestId":"fn-req-3"}}}`)
	}))

	_, err := client.Invoke(context.Background(), scf.InvokeInput{
		RegionID:     "ap-shanghai",
		FunctionName: "hello",
	})

	var invokeErr *scf.InvokeError
	require.ErrorAs(t, err, &invokeErr)
	assert.Equal(t, "handled exception", invokeErr.Message)
	assert.Equal(t, "fn-req-3", invokeErr.RequestID)
}

func TestEasyInvoke(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, `{"Response":{"RequestId":"req-1","Result":{
			"InvokeResult":0,"RetMsg":"plain text result"}}}`)
	}))

	value, err := client.EasyInvoke(context.Background(), scf.InvokeInput{
		RegionID:     "ap-shanghai",
		FunctionName: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "plain text result", value)
}

func TestRoutineInvoke(t *testing.T) {
	var gotContext string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		gotContext, _ = body["ClientContext"].(string)
		respond(w, `{"Response":{"RequestId":"req-1","Result":{
			"InvokeResult":0,"RetMsg":"42"}}}`)
	}))

	value, err := client.RoutineInvoke(context.Background(), scf.InvokeInput{
		RegionID:     "ap-shanghai",
		FunctionName: "dispatch",
	}, "compute", map[string]interface{}{"n": 6})
	require.NoError(t, err)
	assert.Equal(t, float64(42), value)

	var envelope struct {
		Protocol struct {
			Version int    `json:"version"`
			Payload string `json:"payload"`
		} `json:"protocol"`
	}
	require.NoError(t, json.Unmarshal([]byte(gotContext), &envelope))
	assert.Equal(t, 1, envelope.Protocol.Version)

	payload, err := base64.StdEncoding.DecodeString(envelope.Protocol.Payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"routine_name":"compute","routine_parameter":{"n":6}}`, string(payload))
}

func TestEasyInvokeAsyncFuture(t *testing.T) {
	var logQueries int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("X-TC-Action") {
		case "Invoke":
			respond(w, `{"Response":{"RequestId":"req-1","Result":{
				"InvokeResult":0,"FunctionRequestId":"fn-req-4"}}}`)
		case "GetFunctionLogs":
			body := decodeBody(t, r)
			assert.Equal(t, "fn-req-4", body["FunctionRequestId"])
			// The result is not recorded on the first poll.
			if atomic.AddInt32(&logQueries, 1) == 1 {
				respond(w, `{"Response":{"RequestId":"req-2","TotalCount":0,"Data":[]}}`)
				return
			}
			respond(w, `{"Response":{"RequestId":"req-3","TotalCount":1,"Data":[{
				"FunctionName":"hello","RetMsg":"done","InvokeFinished":1,"RetCode":0,
				"Duration":10,"BillDuration":100,"MemUsage":1024,
				"RequestId":"fn-req-4"}]}}`)
		default:
			t.Errorf("unexpected action %s", r.Header.Get("X-TC-Action"))
		}
	}))

	future, err := client.EasyInvokeAsync(context.Background(), scf.InvokeInput{
		RegionID:     "ap-shanghai",
		FunctionName: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "fn-req-4", future.RequestID())

	future.PollInterval = time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := future.Get(ctx)
	require.NoError(t, err)
	assert.True(t, result.Successful)
	assert.Equal(t, "done", result.ReturnResult)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&logQueries), int32(2))
}
