package controlplane_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/n-dise/ndnft/ft/controlplane"
	"github.com/stretchr/testify/require"
)

type gqlBody struct {
	OperationName string `json:"operationName"`
}

func newMockServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body gqlBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		switch body.OperationName {
		case "createFace":
			w.Write([]byte(`{"data":{"createFace":{"id":"face-1"}}}`))
		case "insertFibEntry":
			w.Write([]byte(`{"data":{"insertFibEntry":{"id":"fib-1"}}}`))
		case "delete":
			w.Write([]byte(`{"data":{"delete":true}}`))
		default:
			w.Write([]byte(`{"errors":[{"message":"unknown operation"}]}`))
		}
	}))
}

func TestClientLifecycle(t *testing.T) {
	srv := newMockServer(t)
	defer srv.Close()

	c := controlplane.New(srv.URL)
	ctx := context.Background()

	require.NoError(t, c.CreateFace(ctx, "/tmp/ndnft-test.sock", 9000))
	require.NoError(t, c.AdvertisePrefix(ctx, "/ndn/ft/data"))
	require.NoError(t, c.DeleteFace(ctx))
}

func TestClientCreateFaceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"boom"}]}`))
	}))
	defer srv.Close()

	c := controlplane.New(srv.URL)
	err := c.CreateFace(context.Background(), "/tmp/ndnft-test.sock", 9000)
	require.Error(t, err)
}
