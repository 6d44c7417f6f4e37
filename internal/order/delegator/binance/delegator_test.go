package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

const _testSecret = "test-secret"

// assertSigned recomputes the signature over the received parameters
// and compares it with the one the client sent.
func assertSigned(t *testing.T, params url.Values) {
	t.Helper()
	sent := params.Get("signature")
	require.NotEmpty(t, sent)

	clone := url.Values{}
	for key, values := range params {
		if key == "signature" {
			continue
		}
		clone[key] = values
	}
	assert.Equal(t, Sign(clone, _testSecret).Get("signature"), sent)
}

func TestFetchDepthSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, _pathDepth, r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"lastUpdateId":100,"bids":[["10.00","1"]],"asks":[["10.01","2"]]}`))
	}))
	defer srv.Close()

	d := NewDelegator(srv.Client(), srv.URL, Credentials{})
	snapshot, err := d.FetchDepthSnapshot(context.Background(), "BTCUSDT", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(100), snapshot.LastUpdateID)
	require.Len(t, snapshot.Bids, 1)
	assert.Equal(t, [2]string{"10.00", "1"}, snapshot.Bids[0])
	require.Len(t, snapshot.Asks, 1)
	assert.Equal(t, [2]string{"10.01", "2"}, snapshot.Asks[0])
}

func TestFetchDepthSnapshotHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	d := NewDelegator(srv.Client(), srv.URL, Credentials{})
	_, err := d.FetchDepthSnapshot(context.Background(), "NOPE", 1000)
	assert.Error(t, err)
}

func TestPlaceOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, _pathOrder, r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-MBX-APIKEY"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "BTCUSDT", r.PostForm.Get("symbol"))
		assert.Equal(t, "SELL", r.PostForm.Get("side"))
		assert.Equal(t, "LIMIT", r.PostForm.Get("type"))
		assert.Equal(t, "GTC", r.PostForm.Get("timeInForce"))
		assert.Equal(t, "10.02", r.PostForm.Get("price"))
		assert.Equal(t, "0.60000000", r.PostForm.Get("quantity"))
		assert.Equal(t, "client-1", r.PostForm.Get("newClientOrderId"))
		assert.NotEmpty(t, r.PostForm.Get("timestamp"))
		assertSigned(t, r.PostForm)

		_, _ = w.Write([]byte(`{"orderId":77,"clientOrderId":"client-1","symbol":"BTCUSDT","status":"NEW","price":"10.02","origQty":"0.60000000","transactTime":1}`))
	}))
	defer srv.Close()

	d := NewDelegator(srv.Client(), srv.URL, Credentials{Key: "test-key", Secret: _testSecret})
	resp, err := d.PlaceOrder(context.Background(), PlaceRequest{
		Symbol:        "BTCUSDT",
		Side:          enum.OrderSideSell,
		Price:         "10.02",
		Quantity:      "0.60000000",
		ClientOrderID: "client-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), resp.OrderID)
	assert.Equal(t, "client-1", resp.ClientOrderID)

	echoed, err := model.ParsePrice(resp.Price.String(), 2)
	require.NoError(t, err)
	assert.Equal(t, model.Price(1002), echoed)
}

func TestPlaceOrderMissingExchangeID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"clientOrderId":"client-1","symbol":"BTCUSDT","status":"NEW"}`))
	}))
	defer srv.Close()

	d := NewDelegator(srv.Client(), srv.URL, Credentials{Secret: _testSecret})
	_, err := d.PlaceOrder(context.Background(), PlaceRequest{Symbol: "BTCUSDT", Side: enum.OrderSideBuy})
	assert.ErrorIs(t, err, exception.ErrOrderMissingExchangeID)
}

func TestPlaceOrderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-2010,"msg":"Account has insufficient balance."}`))
	}))
	defer srv.Close()

	d := NewDelegator(srv.Client(), srv.URL, Credentials{Secret: _testSecret})
	_, err := d.PlaceOrder(context.Background(), PlaceRequest{Symbol: "BTCUSDT", Side: enum.OrderSideBuy})
	assert.Error(t, err)
}

func TestCancelOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, _pathOrder, r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-MBX-APIKEY"))

		query := r.URL.Query()
		assert.Equal(t, "BTCUSDT", query.Get("symbol"))
		assert.Equal(t, "12345", query.Get("orderId"))
		assertSigned(t, query)

		_, _ = w.Write([]byte(`{"orderId":12345,"status":"CANCELED"}`))
	}))
	defer srv.Close()

	d := NewDelegator(srv.Client(), srv.URL, Credentials{Key: "test-key", Secret: _testSecret})
	assert.NoError(t, d.CancelOrder(context.Background(), "BTCUSDT", 12345))
}

func TestCancelOpenOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, _pathOpenOrders, r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assertSigned(t, r.URL.Query())

		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	d := NewDelegator(srv.Client(), srv.URL, Credentials{Secret: _testSecret})
	assert.NoError(t, d.CancelOpenOrders(context.Background(), "BTCUSDT"))
}

func TestCancelOrderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-2011,"msg":"Unknown order sent."}`))
	}))
	defer srv.Close()

	d := NewDelegator(srv.Client(), srv.URL, Credentials{Secret: _testSecret})
	assert.Error(t, d.CancelOrder(context.Background(), "BTCUSDT", 1))
}
