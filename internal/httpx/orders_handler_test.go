package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/y0ncha/E-commerce-sub001/internal/breaker"
	"github.com/y0ncha/E-commerce-sub001/internal/orders"
	"github.com/y0ncha/E-commerce-sub001/internal/publisher"
)

type stubPublisher struct{ fail error }

func (s *stubPublisher) Publish(ctx context.Context, key, value []byte, headers ...kafkago.Header) error {
	return s.fail
}

func newTestServer(pub *stubPublisher) (*httptest.Server, *orders.Store[orders.Order]) {
	store := orders.NewStore[orders.Order]()
	brk := breaker.New(10, 0.5, 30*time.Second)
	gw := publisher.NewGateway(store, pub, brk, time.Second, nil)

	r := NewRouter()
	h := &OrdersHandler{Gateway: gw, Store: store, Ready: func() bool { return true }}
	h.Register(r)
	return httptest.NewServer(r), store
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCreateOrderEndpoint(t *testing.T) {
	srv, _ := newTestServer(&stubPublisher{})
	defer srv.Close()

	resp := post(t, srv.URL+"/orders", `{"order_id":"1a3","item_count":2}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var o orders.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&o))
	assert.Equal(t, "ORD-000001A3", o.ID)
	assert.Equal(t, orders.StatusNew, o.Status)

	// duplicate id
	resp = post(t, srv.URL+"/orders", `{"order_id":"1a3","item_count":2}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// malformed id
	resp = post(t, srv.URL+"/orders", `{"order_id":"zz!","item_count":2}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(&stubPublisher{})
	defer srv.Close()
	post(t, srv.URL+"/orders", `{"order_id":"1a3","item_count":1}`)

	resp := post(t, srv.URL+"/orders/1a3/status", `{"status":"CONFIRMED"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// repeating the same status is a conflict, not a silent no-op
	resp = post(t, srv.URL+"/orders/1a3/status", `{"status":"CONFIRMED"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// skipping ahead is unprocessable
	resp = post(t, srv.URL+"/orders/1a3/status", `{"status":"COMPLETED"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// unknown status
	resp = post(t, srv.URL+"/orders/1a3/status", `{"status":"SHIPPED"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// unknown order
	resp = post(t, srv.URL+"/orders/ffff/status", `{"status":"CONFIRMED"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPublishFailureMapsToServiceUnavailable(t *testing.T) {
	srv, store := newTestServer(&stubPublisher{fail: kafkago.BrokerNotAvailable})
	defer srv.Close()

	resp := post(t, srv.URL+"/orders", `{"order_id":"1a3","item_count":1}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, 0, store.Len(), "failed create leaves no state behind")
}

func TestGetOrderEndpoint(t *testing.T) {
	srv, _ := newTestServer(&stubPublisher{})
	defer srv.Close()
	post(t, srv.URL+"/orders", `{"order_id":"1a3","item_count":1}`)

	resp, err := http.Get(srv.URL + "/orders/1a3")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/orders/ffff")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
