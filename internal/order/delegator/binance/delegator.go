// Package binance submits signed trading requests over the exchange
// REST API: order placement, single and bulk cancellation, and depth
// snapshot fetches.
package binance

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"

	"main/internal/model/enum"
	"main/pkg/exception"
)

const (
	_binanceBaseUrl = "https://api.binance.com"

	_pathDepth      = "/api/v3/depth"
	_pathOrder      = "/api/v3/order"
	_pathOpenOrders = "/api/v3/openOrders"

	_requestTimeout = 10 * time.Second
)

// Credentials holds the API key pair for signed endpoints.
type Credentials struct {
	Key    string
	Secret string
}

type Delegator struct {
	client  *http.Client
	baseURL string
	creds   Credentials
}

// NewDelegator creates a REST gateway. An empty baseURL uses the
// production endpoint.
func NewDelegator(client *http.Client, baseURL string, creds Credentials) *Delegator {
	if baseURL == "" {
		baseURL = _binanceBaseUrl
	}
	return &Delegator{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
	}
}

// PlaceRequest carries one limit order. Price and Quantity are already
// formatted at the instrument scales.
type PlaceRequest struct {
	Symbol        string
	Side          enum.OrderSide
	Price         string
	Quantity      string
	ClientOrderID string
}

// FetchDepthSnapshot requests the order book at the given depth limit.
// The endpoint is public and unsigned.
func (d *Delegator) FetchDepthSnapshot(ctx context.Context, symbol string, limit int) (DepthSnapshot, error) {
	var snapshot DepthSnapshot

	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("limit", strconv.Itoa(limit))

	ctx, cancel := context.WithTimeout(ctx, _requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+_pathDepth+"?"+query.Encode(), nil)
	if err != nil {
		return snapshot, errors.Wrap(err, "new snapshot request")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return snapshot, errors.Wrap(err, "fetch depth snapshot")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return snapshot, wrapExchangeError(resp, exception.ErrMarketDataSnapshot, "snapshot")
	}

	if err := sonic.ConfigFastest.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return snapshot, errors.Wrap(exception.ErrOrderDecodeResponseBody, err.Error())
	}
	return snapshot, nil
}

// PlaceOrder submits a signed GTC limit order and returns the exchange
// acknowledgement. Any non-success status, transport error, or
// malformed response is an error; the caller must not track the order.
func (d *Delegator) PlaceOrder(ctx context.Context, order PlaceRequest) (PlaceResponse, error) {
	var response PlaceResponse

	params := url.Values{}
	params.Set("symbol", order.Symbol)
	params.Set("side", order.Side.Wire())
	params.Set("type", "LIMIT")
	params.Set("timeInForce", "GTC")
	params.Set("quantity", order.Quantity)
	params.Set("price", order.Price)
	params.Set("newClientOrderId", order.ClientOrderID)
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	signed := Sign(params, d.creds.Secret)

	ctx, cancel := context.WithTimeout(ctx, _requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.baseURL+_pathOrder,
		strings.NewReader(signed.Encode()),
	)
	if err != nil {
		return response, errors.Wrap(err, "new place request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-MBX-APIKEY", d.creds.Key)

	resp, err := d.client.Do(req)
	if err != nil {
		return response, errors.Wrap(err, "submit order")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return response, wrapExchangeError(resp, exception.ErrOrderRejectedByExchange, "place order")
	}

	if err := sonic.ConfigFastest.NewDecoder(resp.Body).Decode(&response); err != nil {
		return response, errors.Wrap(exception.ErrOrderDecodeResponseBody, err.Error())
	}
	if response.OrderID == 0 {
		return response, exception.ErrOrderMissingExchangeID
	}
	return response, nil
}

// CancelOrder cancels one resting order by its exchange id.
func (d *Delegator) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(orderID, 10))
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))

	return d.deleteSigned(ctx, _pathOrder, params, "cancel order")
}

// CancelOpenOrders cancels every open order for the symbol in one call.
func (d *Delegator) CancelOpenOrders(ctx context.Context, symbol string) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))

	return d.deleteSigned(ctx, _pathOpenOrders, params, "cancel open orders")
}

func (d *Delegator) deleteSigned(ctx context.Context, path string, params url.Values, action string) error {
	signed := Sign(params, d.creds.Secret)

	ctx, cancel := context.WithTimeout(ctx, _requestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodDelete,
		d.baseURL+path+"?"+signed.Encode(),
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "new %s request", action)
	}
	req.Header.Set("X-MBX-APIKEY", d.creds.Key)

	resp, err := d.client.Do(req)
	if err != nil {
		return errors.Wrap(err, action)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return wrapExchangeError(resp, exception.ErrCancelRejected, action)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func wrapExchangeError(resp *http.Response, sentinel error, action string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var detail ResponseError
	if err := sonic.ConfigFastest.Unmarshal(body, &detail); err == nil && detail.Message != "" {
		return errors.Wrapf(sentinel, "%s: status %d code %d: %s", action, resp.StatusCode, detail.Code, detail.Message)
	}
	return errors.Wrapf(sentinel, "%s: status %d: %s", action, resp.StatusCode, string(body))
}
