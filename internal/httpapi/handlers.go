// Package httpapi is a thin net/http JSON surface over an
// *engine.Engine: it decodes requests into core Order values, calls
// the engine, and re-encodes the result. It holds no engine state of
// its own beyond a symbol index for routing bare-ID cancels; the core
// engine and order book never see raw request strings.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/oceanbook/matching-engine/pkg/engine"
	"github.com/oceanbook/matching-engine/pkg/model"
)

// Server wires an engine.Engine to a net/http.Handler.
type Server struct {
	eng  *engine.Engine
	idx  *symbolIndex
	feed *tradeFeed
	log  *logrus.Logger
}

// New builds a Server around eng. It registers a trade observer on
// eng so every fill is also fanned out to WebSocket subscribers.
func New(eng *engine.Engine, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}
	s := &Server{
		eng:  eng,
		idx:  newSymbolIndex(),
		feed: newTradeFeed(),
		log:  log,
	}
	eng.RegisterTradeObserver(func(t model.Trade) error {
		s.feed.publish(t)
		return nil
	})
	return s
}

// Routes returns the handler tree: submit/cancel/modify, market
// depth, a trade WebSocket stream, and standard health/metrics
// endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.eng.MetricsRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/api/v1/orders", s.handleSubmit)
	mux.HandleFunc("/api/v1/orders/", s.handleOrderByID)
	mux.HandleFunc("/api/v1/orderbook/", s.handleMarketDepth)
	mux.HandleFunc("/ws/trades", s.handleTradeStream)
	return withCORS(mux)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// orderRequest is the wire shape for submit and modify. Price travels
// as a string so a decimal.Decimal round-trips exactly through JSON;
// quantity is a plain integer.
type orderRequest struct {
	ID       uint64 `json:"id"`
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Kind     string `json:"kind"`
	Price    string `json:"price"`
	Quantity uint64 `json:"quantity"`
}

type orderResponse struct {
	Order  publicOrder   `json:"order"`
	Trades []publicTrade `json:"trades"`
}

type publicOrder struct {
	ID        uint64 `json:"id"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	Kind      string `json:"kind"`
	Price     string `json:"price"`
	Quantity  uint64 `json:"quantity"`
	Remaining uint64 `json:"remaining"`
}

type publicTrade struct {
	TradeID     uint64    `json:"trade_id"`
	Symbol      string    `json:"symbol"`
	BuyOrderID  uint64    `json:"buy_order_id"`
	SellOrderID uint64    `json:"sell_order_id"`
	Price       string    `json:"price"`
	Quantity    uint64    `json:"quantity"`
	Timestamp   time.Time `json:"timestamp"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	requestID := uuid.New().String()
	log := s.log.WithField("request_id", requestID)

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Warn("could not decode order request")
		writeError(w, http.StatusBadRequest, err)
		return
	}

	order, err := buildOrder(req)
	if err != nil {
		log.WithError(err).Warn("could not build order from request")
		writeError(w, http.StatusBadRequest, err)
		return
	}

	trades, err := s.eng.Submit(order)
	if err != nil {
		log.WithError(err).WithField("order_id", order.ID).Info("submit rejected")
		writeError(w, statusFor(err), err)
		return
	}

	log.WithFields(logrus.Fields{"order_id": order.ID, "trades": len(trades)}).Debug("submit accepted")
	s.idx.put(uint64(order.ID), order.Symbol)
	// Submit matches a copy, so apply this submission's fills here.
	for _, t := range trades {
		order.Remaining -= t.Quantity
	}
	writeJSON(w, http.StatusAccepted, orderResponse{
		Order:  toPublicOrder(order),
		Trades: toPublicTrades(trades),
	})
}

// handleOrderByID serves DELETE (cancel) and PUT (modify) against
// /api/v1/orders/{id}.
func (s *Server) handleOrderByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/orders/")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	symbol, ok := s.idx.get(id)
	if !ok {
		writeError(w, http.StatusNotFound, &model.UnknownSymbolError{Symbol: "(unindexed order)"})
		return
	}

	switch r.Method {
	case http.MethodDelete:
		ok := s.eng.Cancel(model.OrderID(id), symbol)
		if ok {
			s.idx.delete(id)
		}
		writeJSON(w, http.StatusOK, map[string]bool{"cancelled": ok})
	case http.MethodPut:
		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		price, err := decimal.NewFromString(req.Price)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		modified, err := s.eng.Modify(model.OrderID(id), symbol, price, req.Quantity)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"modified": modified})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type marketDepthResponse struct {
	Symbol      string        `json:"symbol"`
	Bids        []levelJSON   `json:"bids"`
	Asks        []levelJSON   `json:"asks"`
	BestBid     string        `json:"best_bid,omitempty"`
	BestAsk     string        `json:"best_ask,omitempty"`
	Spread      string        `json:"spread,omitempty"`
	TotalOrders int           `json:"total_orders"`
	Timestamp   time.Time     `json:"timestamp"`
}

type levelJSON struct {
	Price    string `json:"price"`
	Quantity uint64 `json:"quantity"`
}

func (s *Server) handleMarketDepth(w http.ResponseWriter, r *http.Request) {
	symbol := strings.TrimPrefix(r.URL.Path, "/api/v1/orderbook/")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, &model.InvalidOrderError{Reason: "symbol is required"})
		return
	}

	levels := 10
	if raw := r.URL.Query().Get("levels"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			levels = n
		}
	}

	depth, ok := s.eng.MarketDepth(symbol, levels)
	if !ok {
		writeError(w, http.StatusNotFound, &model.UnknownSymbolError{Symbol: symbol})
		return
	}

	resp := marketDepthResponse{
		Symbol:      depth.Symbol,
		TotalOrders: depth.TotalOrders,
		Timestamp:   depth.Timestamp,
	}
	for _, lvl := range depth.Bids {
		resp.Bids = append(resp.Bids, levelJSON{Price: lvl.Price.String(), Quantity: lvl.Quantity})
	}
	for _, lvl := range depth.Asks {
		resp.Asks = append(resp.Asks, levelJSON{Price: lvl.Price.String(), Quantity: lvl.Quantity})
	}
	if depth.HasBestBid {
		resp.BestBid = depth.BestBid.String()
	}
	if depth.HasBestAsk {
		resp.BestAsk = depth.BestAsk.String()
	}
	if depth.HasSpread {
		resp.Spread = depth.Spread.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func buildOrder(req orderRequest) (model.Order, error) {
	side, err := parseSide(req.Side)
	if err != nil {
		return model.Order{}, err
	}
	kind, err := parseKind(req.Kind)
	if err != nil {
		return model.Order{}, err
	}
	price := decimal.Zero
	if kind == model.Limit {
		price, err = decimal.NewFromString(req.Price)
		if err != nil {
			return model.Order{}, err
		}
	}
	return model.New(model.OrderID(req.ID), req.Symbol, side, kind, price, req.Quantity), nil
}

func parseSide(v string) (model.Side, error) {
	switch strings.ToUpper(v) {
	case "BUY":
		return model.Buy, nil
	case "SELL":
		return model.Sell, nil
	default:
		return 0, &model.InvalidOrderError{Reason: "unknown side " + v}
	}
}

func parseKind(v string) (model.Kind, error) {
	switch strings.ToUpper(v) {
	case "LIMIT":
		return model.Limit, nil
	case "MARKET":
		return model.Market, nil
	default:
		return 0, &model.InvalidOrderError{Reason: "unknown kind " + v}
	}
}

func toPublicOrder(o model.Order) publicOrder {
	return publicOrder{
		ID:        uint64(o.ID),
		Symbol:    o.Symbol,
		Side:      o.Side.String(),
		Kind:      o.Kind.String(),
		Price:     o.Price.String(),
		Quantity:  o.Quantity,
		Remaining: o.Remaining,
	}
}

func toPublicTrades(trades []model.Trade) []publicTrade {
	out := make([]publicTrade, 0, len(trades))
	for _, t := range trades {
		out = append(out, publicTradeOf(t))
	}
	return out
}

func publicTradeOf(t model.Trade) publicTrade {
	return publicTrade{
		TradeID:     uint64(t.TradeID),
		Symbol:      t.Symbol,
		BuyOrderID:  uint64(t.BuyOrderID),
		SellOrderID: uint64(t.SellOrderID),
		Price:       t.Price.String(),
		Quantity:    t.Quantity,
		Timestamp:   t.Timestamp,
	}
}

// statusFor maps a core error to the HTTP status code for the
// equivalent rejection.
func statusFor(err error) int {
	switch err.(type) {
	case *model.InvalidOrderError, *model.RiskLimitExceededError:
		return http.StatusBadRequest
	case *model.UnknownSymbolError:
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
