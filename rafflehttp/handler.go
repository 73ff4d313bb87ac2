package rafflehttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/rubrikinc/raffle/history"
	"github.com/rubrikinc/raffle/lottery"
	"github.com/rubrikinc/raffle/raffleutil"
	"github.com/rubrikinc/raffle/raffleutil/log"
	"github.com/rubrikinc/raffle/treasury"
)

// RafflePath is the endpoint of the HTTP server which handles raffle requests.
const RafflePath = "raffle"

// ErrorKindHeader carries lottery.Kind.String() of a failed request.
const ErrorKindHeader = "X-Raffle-Error-Kind"

// supported HTTP URIs
const (
	requestTypeStatus  = "status"
	requestTypeUpkeep  = "upkeep"
	requestTypePlayers = "players"
	requestTypeHistory = "history"
	requestTypeMetrics = "metrics"
	requestTypeBalance = "balance"
	requestTypeEnter   = "enter"
	requestTypeDraw    = "draw"
	requestTypeFulfill = "fulfill"
	requestTypeFund    = "fund"
)

// HandlerConfig holds the collaborators of a RaffleHandler. Raffle is
// required, the rest are optional.
type HandlerConfig struct {
	Raffle *lottery.Raffle
	// Escrow, when set, debits entrants' treasury accounts on enter.
	Escrow *treasury.Escrow
	// Treasury, when set, enables /balance. Fund additionally requires
	// AllowFund.
	Treasury  *treasury.Treasury
	AllowFund bool
	History   *history.Store
	// InstanceID and Network are reported by /status.
	InstanceID string
	Network    string
}

// RaffleHandler serves the raffle over HTTP.
type RaffleHandler struct {
	HandlerConfig
}

// NewRaffleHandler returns a handler for cfg.
func NewRaffleHandler(cfg HandlerConfig) *RaffleHandler {
	return &RaffleHandler{HandlerConfig: cfg}
}

// httpError is a wrapper around error and is returned if there were any errors
// processing a HTTP request in raffle handler.
type httpError struct {
	error                 // base error
	handler string        // handler type where the error occurred
	request *http.Request // request which got the error
	event   string        // event describes the event which caused the error
}

func (h httpError) Error() string {
	return fmt.Sprintf(
		"handle error: handler: %s, request: %v %v, event: %s, error: %v",
		h.handler,
		h.request.Method,
		h.request.URL,
		h.event,
		h.error,
	)
}

// Cause returns the base error.
func (h httpError) Cause() error { return h.error }

// Unwrap returns the base error.
func (h httpError) Unwrap() error { return h.error }

// statusOf maps an error returned by the raffle or the treasury to an HTTP
// status code.
func statusOf(err error) int {
	switch {
	case errors.Is(err, lottery.ErrPayoutFailed):
		return http.StatusServiceUnavailable
	case errors.Is(err, treasury.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, treasury.ErrAccountFrozen):
		return http.StatusForbidden
	case errors.Is(err, treasury.ErrInvalidAmount):
		return http.StatusBadRequest
	}
	switch lottery.KindOf(err) {
	case lottery.KindValidation:
		return http.StatusBadRequest
	case lottery.KindState:
		return http.StatusConflict
	case lottery.KindProtocol:
		return http.StatusNotFound
	case lottery.KindResource:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, handler string, v interface{}) (int, error) {
	respJSON, err := json.Marshal(v)
	if err != nil {
		return http.StatusInternalServerError,
			httpError{error: err, handler: handler, request: r, event: "marshal-response"}
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(respJSON); err != nil {
		return http.StatusInternalServerError,
			httpError{error: err, handler: handler, request: r, event: "write-response"}
	}
	return http.StatusOK, nil
}

func (h *RaffleHandler) handleStatus(
	ctx context.Context, w http.ResponseWriter, r *http.Request,
) (int, error) {
	const handler = "raffleHandler-handleStatus"
	status := newStatus(h.Raffle.Snapshot())
	status.InstanceID = h.InstanceID
	status.Network = h.Network
	if h.Escrow != nil {
		status.EscrowBalance = h.Escrow.Balance().String()
	}
	return writeJSON(w, r, handler, status)
}

func (h *RaffleHandler) handleUpkeep(
	ctx context.Context, w http.ResponseWriter, r *http.Request,
) (int, error) {
	const handler = "raffleHandler-handleUpkeep"
	needed, uc := h.Raffle.CheckUpkeep(ctx)
	return writeJSON(w, r, handler, Upkeep{
		Needed:     needed,
		IsOpen:     uc.IsOpen,
		HasPlayers: uc.HasPlayers,
		HasBalance: uc.HasBalance,
		TimePassed: uc.TimePassed,
		Elapsed:    int64(uc.Elapsed),
	})
}

func (h *RaffleHandler) handlePlayer(
	ctx context.Context, w http.ResponseWriter, r *http.Request, arg string,
) (int, error) {
	const handler = "raffleHandler-handlePlayer"
	i, err := strconv.Atoi(arg)
	if err != nil {
		return http.StatusBadRequest,
			httpError{error: err, handler: handler, request: r, event: "parse-index"}
	}
	identity, err := h.Raffle.Player(i)
	if err != nil {
		return http.StatusNotFound,
			httpError{error: err, handler: handler, request: r, event: "player"}
	}
	return writeJSON(w, r, handler, Player{Index: i, Identity: string(identity)})
}

func (h *RaffleHandler) handleHistory(
	ctx context.Context, w http.ResponseWriter, r *http.Request,
) (int, error) {
	const handler = "raffleHandler-handleHistory"
	if h.History == nil {
		return http.StatusNotFound,
			httpError{error: errors.New("history is not recorded"), handler: handler, request: r, event: "history"}
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		var err error
		if limit, err = strconv.Atoi(v); err != nil {
			return http.StatusBadRequest,
				httpError{error: err, handler: handler, request: r, event: "parse-limit"}
		}
	}
	recs, err := h.History.List(ctx, limit)
	if err != nil {
		return http.StatusInternalServerError,
			httpError{error: err, handler: handler, request: r, event: "list-history"}
	}
	if recs == nil {
		recs = []history.DrawRecord{}
	}
	return writeJSON(w, r, handler, recs)
}

func (h *RaffleHandler) handleMetrics(
	ctx context.Context, w http.ResponseWriter, r *http.Request,
) (int, error) {
	const handler = "raffleHandler-handleMetrics"
	return writeJSON(w, r, handler, h.Raffle.Metrics().Snapshot())
}

func (h *RaffleHandler) handleBalance(
	ctx context.Context, w http.ResponseWriter, r *http.Request, arg string,
) (int, error) {
	const handler = "raffleHandler-handleBalance"
	if h.Treasury == nil {
		return http.StatusNotFound,
			httpError{error: errors.New("no treasury"), handler: handler, request: r, event: "balance"}
	}
	if arg == "" {
		return http.StatusBadRequest,
			httpError{error: lottery.ErrInvalidIdentity, handler: handler, request: r, event: "balance"}
	}
	bal := h.Treasury.Balance(lottery.Identity(arg))
	return writeJSON(w, r, handler, Balance{Identity: arg, Balance: bal.String()})
}

func (h *RaffleHandler) handleEnter(
	ctx context.Context, w http.ResponseWriter, r *http.Request,
) (int, error) {
	const handler = "raffleHandler-handleEnter"
	var request EnterRequest
	if err := decodeRequest(r.Body, &request); err != nil {
		return http.StatusBadRequest,
			httpError{error: err, handler: handler, request: r, event: "httpRequest-to-EnterRequest"}
	}
	amount, err := raffleutil.ParseEther(request.Amount)
	if err != nil {
		return http.StatusBadRequest,
			httpError{error: err, handler: handler, request: r, event: "parse-amount"}
	}
	identity := lottery.Identity(request.Identity)
	if h.Escrow != nil {
		err = h.Escrow.Enter(ctx, h.Raffle, identity, amount)
	} else {
		err = h.Raffle.Enter(ctx, identity, amount)
	}
	if err != nil {
		return statusOf(err),
			httpError{error: err, handler: handler, request: r, event: "enter"}
	}
	return writeJSON(w, r, handler, newStatus(h.Raffle.Snapshot()))
}

func (h *RaffleHandler) handleDraw(
	ctx context.Context, w http.ResponseWriter, r *http.Request,
) (int, error) {
	const handler = "raffleHandler-handleDraw"
	id, err := h.Raffle.StartDraw(ctx)
	if err != nil {
		return statusOf(err),
			httpError{error: err, handler: handler, request: r, event: "start-draw"}
	}
	return writeJSON(w, r, handler, DrawResponse{RequestID: uint64(id)})
}

func (h *RaffleHandler) handleFulfill(
	ctx context.Context, w http.ResponseWriter, r *http.Request,
) (int, error) {
	const handler = "raffleHandler-handleFulfill"
	var request FulfillRequest
	if err := decodeRequest(r.Body, &request); err != nil {
		return http.StatusBadRequest,
			httpError{error: err, handler: handler, request: r, event: "httpRequest-to-FulfillRequest"}
	}
	value, err := parseRandomValue(request.RandomValue)
	if err != nil {
		return statusOf(err),
			httpError{error: err, handler: handler, request: r, event: "parse-random-value"}
	}
	if err := h.Raffle.Fulfill(ctx, lottery.RequestID(request.RequestID), value); err != nil {
		return statusOf(err),
			httpError{error: err, handler: handler, request: r, event: "fulfill"}
	}
	return writeJSON(w, r, handler, newStatus(h.Raffle.Snapshot()))
}

func (h *RaffleHandler) handleFund(
	ctx context.Context, w http.ResponseWriter, r *http.Request,
) (int, error) {
	const handler = "raffleHandler-handleFund"
	if h.Treasury == nil || !h.AllowFund {
		return http.StatusForbidden,
			httpError{error: errors.New("funding is only allowed on development networks"),
				handler: handler, request: r, event: "fund"}
	}
	var request FundRequest
	if err := decodeRequest(r.Body, &request); err != nil {
		return http.StatusBadRequest,
			httpError{error: err, handler: handler, request: r, event: "httpRequest-to-FundRequest"}
	}
	if request.Identity == "" {
		return http.StatusBadRequest,
			httpError{error: lottery.ErrInvalidIdentity, handler: handler, request: r, event: "fund"}
	}
	amount, err := raffleutil.ParseEther(request.Amount)
	if err != nil {
		return http.StatusBadRequest,
			httpError{error: err, handler: handler, request: r, event: "parse-amount"}
	}
	identity := lottery.Identity(request.Identity)
	if err := h.Treasury.Deposit(ctx, identity, amount); err != nil {
		return statusOf(err),
			httpError{error: err, handler: handler, request: r, event: "deposit"}
	}
	return writeJSON(w, r, handler, Balance{
		Identity: request.Identity,
		Balance:  h.Treasury.Balance(identity).String(),
	})
}

func (h *RaffleHandler) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Error(ctx, err)
	} else if log.V(1) {
		log.Info(ctx, err)
	}
	w.Header().Set(ErrorKindHeader, lottery.KindOf(err).String())
	http.Error(w, err.Error(), status)
}

// ServeHTTP serves HTTP requests using RaffleHandler
func (h *RaffleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	// r.Body can be nil in GET calls.
	if r.Body != nil {
		defer r.Body.Close()
	}
	uri := r.URL.Path
	requestType := strings.TrimPrefix(uri, fmt.Sprintf("/%s/", RafflePath))
	var arg string
	if i := strings.Index(requestType, "/"); i >= 0 {
		requestType, arg = requestType[:i], requestType[i+1:]
	}
	if log.V(1) {
		log.Infof(ctx, "Received request, uri: %s, requestType: %s", uri, requestType)
	}
	var status int
	var err error
	switch r.Method {
	case http.MethodPost:
		switch requestType {
		case requestTypeEnter:
			status, err = h.handleEnter(ctx, w, r)
		case requestTypeDraw:
			status, err = h.handleDraw(ctx, w, r)
		case requestTypeFulfill:
			status, err = h.handleFulfill(ctx, w, r)
		case requestTypeFund:
			status, err = h.handleFund(ctx, w, r)
		default:
			for _, uri := range []string{requestTypeEnter, requestTypeDraw, requestTypeFulfill, requestTypeFund} {
				w.Header().Add("AllowURI", uri)
			}
			http.Error(w, "URI not allowed", http.StatusNotFound)
			return
		}
	case http.MethodGet:
		switch requestType {
		case requestTypeStatus:
			status, err = h.handleStatus(ctx, w, r)
		case requestTypeUpkeep:
			status, err = h.handleUpkeep(ctx, w, r)
		case requestTypePlayers:
			status, err = h.handlePlayer(ctx, w, r, arg)
		case requestTypeHistory:
			status, err = h.handleHistory(ctx, w, r)
		case requestTypeMetrics:
			status, err = h.handleMetrics(ctx, w, r)
		case requestTypeBalance:
			status, err = h.handleBalance(ctx, w, r, arg)
		default:
			for _, uri := range []string{
				requestTypeStatus, requestTypeUpkeep, requestTypePlayers,
				requestTypeHistory, requestTypeMetrics, requestTypeBalance,
			} {
				w.Header().Add("AllowURI", uri)
			}
			http.Error(w, "URI not allowed", http.StatusNotFound)
			return
		}
	default:
		w.Header().Add("Allow", http.MethodPost)
		w.Header().Add("Allow", http.MethodGet)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		h.writeError(ctx, w, status, err)
	}
}
