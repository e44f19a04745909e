// Package controlplane implements the one-shot GraphQL exchange a
// producer or consumer performs at startup and shutdown (§4.4):
// create a face over the shared-memory transport, install a
// forwarding entry for the advertised prefix, and tear both down on
// close. Grounded on original_source/NDNc/graphql/client.cpp, which
// performs the same three mutations over libcurl; here the transport
// is stdlib net/http since no pack library specializes in one-shot
// GraphQL requests.
package controlplane

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/n-dise/ndnft/std/log"
)

const (
	// DefaultRxQueueSize, DefaultTxQueueSize, DefaultRingCapacity are
	// §4.4's locator defaults.
	DefaultRxQueueSize  = 1024
	DefaultTxQueueSize  = 1024
	DefaultRingCapacity = 4096
)

// Client issues GraphQL mutations against a forwarder's control-plane
// endpoint.
type Client struct {
	endpoint string
	http     *http.Client

	faceID     string
	fibEntryID string
}

// New returns a Client pointed at endpoint (e.g. "http://localhost:3030/").
func New(endpoint string) *Client {
	return &Client{endpoint: endpoint, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *Client) String() string { return "controlplane client " + c.endpoint }

type gqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

type gqlError struct {
	Path    any    `json:"path"`
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// Locator is the memif face locator accepted by createFace.
type Locator struct {
	SocketName   string `json:"socketName"`
	Scheme       string `json:"scheme"`
	ID           int    `json:"id"`
	Dataroom     int    `json:"dataroom"`
	RxQueueSize  int    `json:"rxQueueSize"`
	TxQueueSize  int    `json:"txQueueSize"`
	RingCapacity int    `json:"ringCapacity"`
}

// CreateFace runs the createFace mutation and records the assigned
// face id for use by AdvertisePrefix and DeleteFace.
func (c *Client) CreateFace(ctx context.Context, socketName string, dataroom int) error {
	loc := Locator{
		SocketName:   socketName,
		Scheme:       "memif",
		ID:           1,
		Dataroom:     dataroom,
		RxQueueSize:  DefaultRxQueueSize,
		TxQueueSize:  DefaultTxQueueSize,
		RingCapacity: DefaultRingCapacity,
	}

	var result struct {
		CreateFace struct {
			ID string `json:"id"`
		} `json:"createFace"`
	}
	req := gqlRequest{
		Query: `mutation createFace($locator: JSON!) {
  createFace(locator: $locator) { id }
}`,
		OperationName: "createFace",
		Variables:     map[string]any{"locator": loc},
	}
	if err := c.do(ctx, req, &result); err != nil {
		return fmt.Errorf("create face: %w", err)
	}
	if result.CreateFace.ID == "" {
		return fmt.Errorf("create face: empty face id in response")
	}
	c.faceID = result.CreateFace.ID
	log.Info(c, "face created", "faceID", c.faceID)
	return nil
}

// AdvertisePrefix runs the insertFibEntry mutation, routing prefix to
// the face created by a prior CreateFace call.
func (c *Client) AdvertisePrefix(ctx context.Context, prefix string) error {
	var result struct {
		InsertFibEntry struct {
			ID string `json:"id"`
		} `json:"insertFibEntry"`
	}
	req := gqlRequest{
		Query: `mutation insertFibEntry($name: Name!, $nexthops: [ID!]!, $strategy: ID) {
  insertFibEntry(name: $name, nexthops: $nexthops, strategy: $strategy) { id }
}`,
		OperationName: "insertFibEntry",
		Variables: map[string]any{
			"name":     prefix,
			"nexthops": []string{c.faceID},
		},
	}
	if err := c.do(ctx, req, &result); err != nil {
		return fmt.Errorf("advertise prefix: %w", err)
	}
	if result.InsertFibEntry.ID == "" {
		return fmt.Errorf("advertise prefix: unable to advertise %s", prefix)
	}
	c.fibEntryID = result.InsertFibEntry.ID
	log.Info(c, "prefix advertised", "prefix", prefix, "fibEntryID", c.fibEntryID)
	return nil
}

// DeleteFace runs the delete mutation against the FIB entry installed
// by AdvertisePrefix and then the face created by CreateFace (skipping
// either if it was never obtained), releasing the forwarder-side
// resources at shutdown.
func (c *Client) DeleteFace(ctx context.Context) error {
	for _, id := range []string{c.fibEntryID, c.faceID} {
		if id == "" {
			continue
		}
		var result struct {
			Delete bool `json:"delete"`
		}
		req := gqlRequest{
			Query:         `mutation delete($id: ID!) { delete(id: $id) }`,
			OperationName: "delete",
			Variables:     map[string]any{"id": id},
		}
		if err := c.do(ctx, req, &result); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
		if !result.Delete {
			return fmt.Errorf("delete %s: forwarder refused", id)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, req gqlRequest, out any) error {
	correlation := xid.New().String()

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", correlation)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var gql gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gql); err != nil {
		return err
	}
	if len(gql.Errors) > 0 {
		return fmt.Errorf("%s: %s", correlation, gql.Errors[0].Message)
	}
	if gql.Data == nil {
		return fmt.Errorf("%s: empty response data", correlation)
	}
	return json.Unmarshal(gql.Data, out)
}
