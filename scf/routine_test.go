package scf_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/devmiek/tencent-cloud-sdk-go/core"
	"github.com/devmiek/tencent-cloud-sdk-go/scf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// routineTestEvent renders the protocol event a dispatch-style
// function receives for a routine call.
func routineTestEvent(t *testing.T, version int, name string, parameter interface{}) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"routine_name":      name,
		"routine_parameter": parameter,
	})
	require.NoError(t, err)
	event, err := json.Marshal(map[string]interface{}{
		"protocol": map[string]interface{}{
			"version": version,
			"payload": base64.StdEncoding.EncodeToString(payload),
		},
	})
	require.NoError(t, err)
	return event
}

func TestRoutineDispatcherHandle(t *testing.T) {
	dispatcher := scf.NewRoutineDispatcher()
	require.NoError(t, dispatcher.Register("compute", func(ctx context.Context, parameter interface{}) (interface{}, error) {
		n := parameter.(map[string]interface{})["n"].(float64)
		return n * 7, nil
	}))

	result, err := dispatcher.Handle(context.Background(),
		routineTestEvent(t, 1, "compute", map[string]interface{}{"n": 6}))
	require.NoError(t, err)
	assert.Equal(t, float64(42), result)
}

func TestRoutineDispatcherRejectsDuplicateBinding(t *testing.T) {
	dispatcher := scf.NewRoutineDispatcher()
	noop := func(ctx context.Context, parameter interface{}) (interface{}, error) {
		return nil, nil
	}
	require.NoError(t, dispatcher.Register("compute", noop))
	assert.ErrorIs(t, dispatcher.Register("compute", noop), core.ErrExisted)

	// A removed binding can be registered again.
	require.NoError(t, dispatcher.Unregister("compute"))
	assert.ErrorIs(t, dispatcher.Unregister("compute"), core.ErrNotFound)
	require.NoError(t, dispatcher.Register("compute", noop))
}

func TestRoutineDispatcherUnknownRoutine(t *testing.T) {
	dispatcher := scf.NewRoutineDispatcher()
	_, err := dispatcher.Handle(context.Background(),
		routineTestEvent(t, 1, "missing", nil))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRoutineDispatcherRejectsBadEvents(t *testing.T) {
	dispatcher := scf.NewRoutineDispatcher()
	require.NoError(t, dispatcher.Register("compute", func(ctx context.Context, parameter interface{}) (interface{}, error) {
		return nil, nil
	}))

	tests := []struct {
		name  string
		event []byte
	}{
		{name: "NotJSON", event: []byte("not json")},
		{name: "NoProtocolMember", event: []byte(`{"httpMethod":"GET"}`)},
		{name: "WrongVersion", event: routineTestEvent(t, 2, "compute", nil)},
		{name: "PayloadNotBase64", event: []byte(`{"protocol":{"version":1,"payload":"%%%"}}`)},
		{name: "PayloadNotJSON", event: []byte(fmt.Sprintf(`{"protocol":{"version":1,"payload":"%s"}}`,
			base64.StdEncoding.EncodeToString([]byte("not json"))))},
		{name: "MissingRoutineName", event: []byte(fmt.Sprintf(`{"protocol":{"version":1,"payload":"%s"}}`,
			base64.StdEncoding.EncodeToString([]byte(`{"routine_parameter":{}}`))))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dispatcher.Handle(context.Background(), tt.event)
			assert.Error(t, err)
		})
	}
}

func TestRoutineDispatcherRoundTrip(t *testing.T) {
	// The event built by the sending half dispatches cleanly through
	// the receiving half.
	var gotContext string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		gotContext, _ = body["ClientContext"].(string)
		respond(w, `{"Response":{"RequestId":"req-1","Result":{
			"InvokeResult":0,"RetMsg":"\"accepted\""}}}`)
	}))

	_, err := client.RoutineInvoke(context.Background(), scf.InvokeInput{
		RegionID:     "ap-shanghai",
		FunctionName: "dispatch",
	}, "greet", map[string]interface{}{"who": "world"})
	require.NoError(t, err)

	dispatcher := scf.NewRoutineDispatcher()
	require.NoError(t, dispatcher.Register("greet", func(ctx context.Context, parameter interface{}) (interface{}, error) {
		who := parameter.(map[string]interface{})["who"].(string)
		return "hello " + who, nil
	}))

	result, err := dispatcher.Handle(context.Background(), []byte(gotContext))
	require.NoError(t, err)
	assert.Equal(t, "hello world", result)
}
