// Package api serves the explorer over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/VictoriaMetrics/metrics"
	"github.com/purvik6062/nitro-explorer/internal/connector"
	"github.com/purvik6062/nitro-explorer/internal/model"
	"github.com/purvik6062/nitro-explorer/internal/service"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

const (
	metricsPath    = "/metrics"
	healthPath     = "/health"
	blocksPath     = "/blocks"
	txPath         = "/tx/:hash"
	addressPath    = "/address/:address"
	devAccountPath = "/dev-account"
)

var errBadRequest = errors.New("bad request")

// DefaultMaxPageSize caps ?size= when Opts.MaxPageSize is unset.
const DefaultMaxPageSize = 100

// statusError carries an explicit HTTP status through the error middleware.
type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

// Explorer is the query surface the API exposes.
type Explorer interface {
	FetchPage(ctx context.Context, pageIndex, pageSize int) (*model.Page, error)
	GetTransaction(ctx context.Context, hash string) (*model.TransactionDetails, error)
	GetAccount(ctx context.Context, address string) (*model.Account, error)
	DevAccount(ctx context.Context) (*model.Account, error)
	Ping(ctx context.Context) (uint64, error)
}

// Opts configures the API router.
type Opts struct {
	Explorer    Explorer
	NodeURL     string
	MaxPageSize int
	Logger      *zap.Logger
}

type handlers struct {
	explorer    Explorer
	nodeURL     string
	maxPageSize int
	logger      *zap.Logger
}

// New creates the HTTP router with all API endpoints registered.
func New(o Opts) *bunrouter.Router {
	h := &handlers{
		explorer:    o.Explorer,
		nodeURL:     o.NodeURL,
		maxPageSize: o.MaxPageSize,
		logger:      o.Logger,
	}
	if h.maxPageSize <= 0 {
		h.maxPageSize = DefaultMaxPageSize
	}

	router := bunrouter.New(bunrouter.Use(h.errorHandler))

	router.GET(metricsPath, metricsHandler)
	router.GET(healthPath, h.health)
	router.GET(blocksPath, h.blocks)
	router.GET(txPath, h.transaction)
	router.GET(addressPath, h.address)
	router.GET(devAccountPath, h.devAccount)

	return router
}

// statusCode maps a handler error to its HTTP status.
func statusCode(err error) int {
	var (
		rpcErr    *connector.RPCError
		statusErr *statusError
	)
	switch {
	case errors.As(err, &statusErr):
		return statusErr.code
	case errors.Is(err, errBadRequest),
		errors.Is(err, service.ErrInvalidPage),
		errors.Is(err, service.ErrInvalidHash),
		errors.Is(err, service.ErrInvalidAddress):
		return http.StatusBadRequest
	case connector.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &rpcErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) errorHandler(next bunrouter.HandlerFunc) bunrouter.HandlerFunc {
	return func(w http.ResponseWriter, req bunrouter.Request) error {
		err := next(w, req)

		code := http.StatusOK
		if err != nil {
			code = statusCode(err)
			h.logger.Debug("API request failed",
				zap.String("route", req.Route()),
				zap.Int("status", code),
				zap.Error(err))

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			_ = bunrouter.JSON(w, bunrouter.H{"error": err.Error()})
		}

		metrics.GetOrCreateCounter(fmt.Sprintf(`explorer_api_requests_total{route=%q,code="%d"}`, req.Route(), code)).Inc()
		return nil
	}
}

func metricsHandler(w http.ResponseWriter, _ bunrouter.Request) error {
	metrics.WritePrometheus(w, true)
	return nil
}

func (h *handlers) health(w http.ResponseWriter, req bunrouter.Request) error {
	head, err := h.explorer.Ping(req.Context())
	if err != nil {
		h.logger.Warn("Node health check failed", zap.String("rpc_url", h.nodeURL), zap.Error(err))
		return &statusError{
			code: http.StatusServiceUnavailable,
			err:  fmt.Errorf("cannot connect to node at %s", h.nodeURL),
		}
	}
	return bunrouter.JSON(w, bunrouter.H{"status": "healthy", "head": head})
}

func queryInt(req bunrouter.Request, name string) (int, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return n, nil
}

func (h *handlers) blocks(w http.ResponseWriter, req bunrouter.Request) error {
	pageIndex, err := queryInt(req, "page")
	if err != nil {
		return err
	}
	pageSize, err := queryInt(req, "size")
	if err != nil {
		return err
	}
	if pageSize > h.maxPageSize {
		return fmt.Errorf("%w: size must be at most %d", errBadRequest, h.maxPageSize)
	}

	page, err := h.explorer.FetchPage(req.Context(), pageIndex, pageSize)
	if err != nil {
		return err
	}
	return bunrouter.JSON(w, page)
}

func (h *handlers) transaction(w http.ResponseWriter, req bunrouter.Request) error {
	details, err := h.explorer.GetTransaction(req.Context(), req.Param("hash"))
	if err != nil {
		return err
	}
	return bunrouter.JSON(w, details)
}

func (h *handlers) address(w http.ResponseWriter, req bunrouter.Request) error {
	account, err := h.explorer.GetAccount(req.Context(), req.Param("address"))
	if err != nil {
		return err
	}
	return bunrouter.JSON(w, account)
}

func (h *handlers) devAccount(w http.ResponseWriter, req bunrouter.Request) error {
	account, err := h.explorer.DevAccount(req.Context())
	if err != nil {
		return err
	}
	return bunrouter.JSON(w, account)
}
