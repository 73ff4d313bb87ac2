package rafflehttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cockroachdb/cockroach/pkg/util/retry"
	"github.com/pkg/errors"
	"github.com/scaledata/etcd/pkg/transport"

	"github.com/rubrikinc/raffle/history"
	"github.com/rubrikinc/raffle/lottery"
	"github.com/rubrikinc/raffle/raffleutil"
)

// APIError is returned by Client for non-200 responses. lottery.KindOf
// reports the kind the server classified the failure as.
type APIError struct {
	StatusCode int
	ErrKind    lottery.Kind
	Msg        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status: %v, kind: %v, msg: %s", e.StatusCode, e.ErrKind, e.Msg)
}

// Kind returns the error kind reported by the server.
func (e *APIError) Kind() lottery.Kind { return e.ErrKind }

// Client issues HTTP requests to a raffle server. It contains a http client
// that is thread-safe and should be reused to avoid leaking TCP connections.
// Close should be called after completing all the requests.
type Client struct {
	client    *http.Client
	transport *http.Transport
	url       url.URL
}

// NewClient returns a Client for the raffle server listening on addr
// (host:port). Requests time out after timeout; contexts with smaller
// deadlines can be passed per request.
func NewClient(addr string, tlsInfo transport.TLSInfo, timeout time.Duration) (*Client, error) {
	secure := !tlsInfo.Empty()
	hostURL := raffleutil.AddrToURL(addr, secure)
	raffleURL, err := hostURL.Parse(RafflePath)
	if err != nil {
		return nil, err
	}
	const dialTimeout = 10 * time.Second
	rt, err := transport.NewTransport(tlsInfo, dialTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{
		url:       *raffleURL,
		client:    &http.Client{Transport: rt, Timeout: timeout},
		transport: rt,
	}, nil
}

// do sends a request to requestType and decodes a 200 response into out.
func (c *Client) do(
	ctx context.Context, method string, requestType string, query url.Values, in, out interface{},
) error {
	reqURL := raffleutil.AddToURLPath(c.url, requestType)
	if query != nil {
		reqURL.RawQuery = query.Encode()
	}
	var body io.Reader
	if in != nil {
		requestJSON, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(requestJSON)
	}
	httpReq, err := http.NewRequest(method, reqURL.String(), body)
	if err != nil {
		return err
	}
	httpReq = httpReq.WithContext(ctx)
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := ioutil.ReadAll(resp.Body)
		return errors.WithMessage(
			&APIError{
				StatusCode: resp.StatusCode,
				ErrKind:    lottery.ParseKind(resp.Header.Get(ErrorKindHeader)),
				Msg:        string(bytes.TrimSpace(msg)),
			},
			fmt.Sprintf("%s request failed", requestType),
		)
	}
	if out == nil {
		return nil
	}
	respJSON, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(respJSON, out)
}

// Status returns the current round.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var s Status
	if err := c.do(ctx, http.MethodGet, requestTypeStatus, nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// WaitForServer polls Status until it succeeds or timeout passes.
func (c *Client) WaitForServer(ctx context.Context, timeout time.Duration) (*Status, error) {
	var s *Status
	err := retry.ForDuration(timeout, func() error {
		var err error
		s, err = c.Status(ctx)
		return err
	})
	return s, err
}

// Upkeep returns whether a draw can be started.
func (c *Client) Upkeep(ctx context.Context) (*Upkeep, error) {
	var u Upkeep
	if err := c.do(ctx, http.MethodGet, requestTypeUpkeep, nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Player returns the identity of the i-th player of the current round.
func (c *Client) Player(ctx context.Context, i int) (string, error) {
	var p Player
	if err := c.do(
		ctx, http.MethodGet, requestTypePlayers+"/"+strconv.Itoa(i), nil, nil, &p,
	); err != nil {
		return "", err
	}
	return p.Identity, nil
}

// History returns up to limit completed draws, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]history.DrawRecord, error) {
	var recs []history.DrawRecord
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if err := c.do(ctx, http.MethodGet, requestTypeHistory, query, nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Metrics returns the server's metric values by name.
func (c *Client) Metrics(ctx context.Context) (map[string]int64, error) {
	var m map[string]int64
	if err := c.do(ctx, http.MethodGet, requestTypeMetrics, nil, nil, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Balance returns the treasury balance of identity in wei.
func (c *Client) Balance(ctx context.Context, identity string) (*Balance, error) {
	var b Balance
	if err := c.do(
		ctx, http.MethodGet, requestTypeBalance+"/"+identity, nil, nil, &b,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

// Enter enters identity into the open round paying amount ether.
func (c *Client) Enter(ctx context.Context, identity, amount string) (*Status, error) {
	var s Status
	if err := c.do(
		ctx, http.MethodPost, requestTypeEnter, nil, &EnterRequest{Identity: identity, Amount: amount}, &s,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// Draw starts a draw and returns the randomness request id.
func (c *Client) Draw(ctx context.Context) (uint64, error) {
	var d DrawResponse
	if err := c.do(ctx, http.MethodPost, requestTypeDraw, nil, nil, &d); err != nil {
		return 0, err
	}
	return d.RequestID, nil
}

// Fulfill delivers randomValue for requestID.
func (c *Client) Fulfill(ctx context.Context, requestID uint64, randomValue string) (*Status, error) {
	var s Status
	if err := c.do(
		ctx,
		http.MethodPost,
		requestTypeFulfill,
		nil,
		&FulfillRequest{RequestID: requestID, RandomValue: randomValue},
		&s,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// Fund deposits amount ether into identity's treasury account.
func (c *Client) Fund(ctx context.Context, identity, amount string) (*Balance, error) {
	var b Balance
	if err := c.do(
		ctx, http.MethodPost, requestTypeFund, nil, &FundRequest{Identity: identity, Amount: amount}, &b,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

// Close closes idle connections of the client.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}
