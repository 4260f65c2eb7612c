package scf_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/devmiek/tencent-cloud-sdk-go/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespaceLifecycle(t *testing.T) {
	var gotActions []string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActions = append(gotActions, r.Header.Get("X-TC-Action"))
		body := decodeBody(t, r)
		assert.Equal(t, "staging", body["Namespace"])
		respond(w, `{"Response":{"RequestId":"req-1"}}`)
	}))

	ctx := context.Background()
	require.NoError(t, client.CreateNamespace(ctx, "ap-shanghai", "staging", "pre-release"))
	require.NoError(t, client.UpdateNamespace(ctx, "ap-shanghai", "staging", "updated"))
	require.NoError(t, client.DeleteNamespace(ctx, "ap-shanghai", "staging"))
	assert.Equal(t, []string{"CreateNamespace", "UpdateNamespace", "DeleteNamespace"}, gotActions)
}

func TestNamespaceIteratorPaginates(t *testing.T) {
	// Two full pages plus a short one, 45 namespaces total.
	const total = 45
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		offset := int(body["Offset"].(float64))
		limit := int(body["Limit"].(float64))
		assert.Equal(t, 20, limit)

		entries := ""
		for i := offset; i < offset+limit && i < total; i++ {
			if entries != "" {
				entries += ","
			}
			entries += fmt.Sprintf(`{"Name":"ns-%d","Type":"default"}`, i)
		}
		respond(w, fmt.Sprintf(`{"Response":{"RequestId":"req-1","TotalCount":%d,"Namespaces":[%s]}}`,
			total, entries))
	}))

	it := client.Namespaces("ap-shanghai")
	var names []string
	for {
		namespace, err := it.Next(context.Background())
		if err != nil {
			require.ErrorIs(t, err, core.ErrNotFound)
			break
		}
		names = append(names, namespace.Name)
	}
	require.Len(t, names, total)
	assert.Equal(t, "ns-0", names[0])
	assert.Equal(t, "ns-44", names[total-1])
}

func TestNamespaceIteratorPropagatesErrors(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(w, `{"Response":{"RequestId":"req-1","Error":{
			"Code":"UnauthorizedOperation","Message":"denied"}}}`)
	}))

	_, err := client.Namespaces("ap-shanghai").Next(context.Background())
	var actionErr *core.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, "UnauthorizedOperation", actionErr.Code)
}
