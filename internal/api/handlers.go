package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"

	"options-clearinghouse/internal/clearing"
	"options-clearinghouse/internal/config"
	"options-clearinghouse/internal/ledger"
	"options-clearinghouse/internal/token"
	"options-clearinghouse/pkg/types"
)

// Clearinghouse is the settlement surface exposed over HTTP.
type Clearinghouse interface {
	Settlement
	NewOptionType(terms types.OptionTerms) (types.TokenID, error)
	Write(actor common.Address, id types.TokenID, amount uint64) (types.TokenID, error)
	Exercise(actor common.Address, id types.TokenID, amount uint64) error
	Redeem(actor common.Address, id types.TokenID) (types.AssetAmounts, error)
	SweepDust(id types.TokenID) (types.AssetAmounts, error)
	Position(id types.TokenID) (types.Position, error)
	Underlying(id types.TokenID) (types.AssetAmounts, error)
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	settlement Clearinghouse
	assets     *token.AssetLedger
	cfg        config.Config
	hub        *Hub
	logger     *slog.Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(settlement Clearinghouse, assets *token.AssetLedger, cfg config.Config, hub *Hub, logger *slog.Logger) *Handlers {
	return &Handlers{
		settlement: settlement,
		assets:     assets,
		cfg:        cfg,
		hub:        hub,
		logger:     logger.With("component", "api-handlers"),
	}
}

// HandleHealth returns a simple health check response
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSnapshot returns the current clearinghouse state
func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot := BuildSnapshot(h.settlement, h.assets, h.cfg)
	writeJSON(w, http.StatusOK, snapshot)
}

// HandleNewOptionType registers a new option type from its immutable terms.
func (h *Handlers) HandleNewOptionType(w http.ResponseWriter, r *http.Request) {
	var req NewOptionTypeRequest
	if !h.decode(w, r, &req) {
		return
	}
	underlying, ok := parseAddress(w, req.UnderlyingAsset, "underlying_asset")
	if !ok {
		return
	}
	exercise, ok := parseAddress(w, req.ExerciseAsset, "exercise_asset")
	if !ok {
		return
	}

	optionID, err := h.settlement.NewOptionType(types.OptionTerms{
		UnderlyingAsset:   underlying,
		UnderlyingAmount:  req.UnderlyingAmount,
		ExerciseAsset:     exercise,
		ExerciseAmount:    req.ExerciseAmount,
		ExerciseTimestamp: req.ExerciseTimestamp,
		ExpiryTimestamp:   req.ExpiryTimestamp,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"option_id": optionID.Hex()})
}

// HandleWrite locks collateral and mints options against a type or claim.
func (h *Handlers) HandleWrite(w http.ResponseWriter, r *http.Request) {
	var req WriteRequest
	if !h.decode(w, r, &req) {
		return
	}
	actor, ok := parseAddress(w, req.Actor, "actor")
	if !ok {
		return
	}
	id, ok := parseTokenID(w, req.TokenID, "token_id")
	if !ok {
		return
	}

	claimID, err := h.settlement.Write(actor, id, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"claim_id": claimID.Hex()})
}

// HandleExercise exercises options against their type.
func (h *Handlers) HandleExercise(w http.ResponseWriter, r *http.Request) {
	var req ExerciseRequest
	if !h.decode(w, r, &req) {
		return
	}
	actor, ok := parseAddress(w, req.Actor, "actor")
	if !ok {
		return
	}
	id, ok := parseTokenID(w, req.TokenID, "token_id")
	if !ok {
		return
	}

	if err := h.settlement.Exercise(actor, id, req.Amount); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleRedeem retires a claim after expiry and reports the payout split.
func (h *Handlers) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if !h.decode(w, r, &req) {
		return
	}
	actor, ok := parseAddress(w, req.Actor, "actor")
	if !ok {
		return
	}
	id, ok := parseTokenID(w, req.ClaimID, "claim_id")
	if !ok {
		return
	}

	paid, err := h.settlement.Redeem(actor, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.amountsResponse(paid))
}

// HandleSweep routes an expired type's rounding dust to the sink.
func (h *Handlers) HandleSweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if !h.decode(w, r, &req) {
		return
	}
	id, ok := parseTokenID(w, req.OptionID, "option_id")
	if !ok {
		return
	}

	swept, err := h.settlement.SweepDust(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.amountsResponse(swept))
}

// HandlePosition returns the contract-count split for a claim token.
func (h *Handlers) HandlePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTokenID(w, r.URL.Query().Get("id"), "id")
	if !ok {
		return
	}

	pos, err := h.settlement.Position(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PositionResponse{
		ClaimID:     id.Hex(),
		Written:     pos.Written,
		Exercised:   pos.Exercised,
		Unexercised: pos.Unexercised,
		Redeemed:    pos.Redeemed,
	})
}

// HandleUnderlying returns the asset quantities a token currently represents.
func (h *Handlers) HandleUnderlying(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTokenID(w, r.URL.Query().Get("id"), "id")
	if !ok {
		return
	}

	amts, err := h.settlement.Underlying(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.amountsResponse(amts))
}

// HandleWebSocket upgrades the connection and creates a new WebSocket client
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return isOriginAllowed(r.Header.Get("Origin"), h.cfg.Dashboard, r.Host)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	// Create new client
	client := NewClient(h.hub, conn)

	// Send initial snapshot to the client
	snapshot := BuildSnapshot(h.settlement, h.assets, h.cfg)
	evt := DashboardEvent{
		Type: "snapshot",
		Data: snapshot,
	}

	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("failed to marshal initial snapshot", "error", err)
		return
	}

	select {
	case client.send <- data:
	default:
		h.logger.Warn("failed to send initial snapshot to client")
	}
}

// isOriginAllowed gates WebSocket upgrades. With no allowlist configured,
// same-host and localhost origins pass; with an allowlist only exact matches
// do. An absent Origin header (non-browser client) always passes.
func isOriginAllowed(origin string, cfg config.DashboardConfig, reqHost string) bool {
	if origin == "" {
		return true
	}
	if len(cfg.AllowedOrigins) > 0 {
		for _, allowed := range cfg.AllowedOrigins {
			if origin == allowed {
				return true
			}
		}
		return false
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == reqHost {
		return true
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1"
}

// decode reads a JSON body, answering 400 on malformed input.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return false
	}
	return true
}

// writeError maps settlement errors onto HTTP status codes:
// validation failures are 400, unknown entities 404, state conflicts 409,
// collateral shortfalls 402, and anything else (defect class) 500.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, clearing.ErrZeroAmount),
		errors.Is(err, clearing.ErrInvalidAssetPair),
		errors.Is(err, clearing.ErrExerciseWindowTooShort),
		errors.Is(err, clearing.ErrExpiryWindowTooShort),
		errors.Is(err, clearing.ErrNotAClaim),
		errors.Is(err, clearing.ErrNotAnOption):
		status = http.StatusBadRequest
	case errors.Is(err, clearing.ErrUnknownOptionType),
		errors.Is(err, clearing.ErrTokenNotFound):
		status = http.StatusNotFound
	case errors.Is(err, clearing.ErrOptionTypeExists),
		errors.Is(err, clearing.ErrOptionTypeExpired),
		errors.Is(err, clearing.ErrExerciseNotOpen),
		errors.Is(err, clearing.ErrNotClaimOwner),
		errors.Is(err, clearing.ErrInsufficientOptions),
		errors.Is(err, clearing.ErrClaimNotRedeemable),
		errors.Is(err, clearing.ErrDustNotReady):
		status = http.StatusConflict
	case errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance),
		errors.Is(err, token.ErrUnknownAsset):
		status = http.StatusPaymentRequired
	case errors.Is(err, ledger.ErrCapacityExhausted):
		h.logger.Error("settlement defect surfaced to API", "error", err)
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handlers) amountsResponse(a types.AssetAmounts) AmountsResponse {
	return AmountsResponse{
		UnderlyingAsset:  a.UnderlyingAsset.Hex(),
		UnderlyingAmount: formatAmount(a.UnderlyingAmount, h.assets.Decimals(a.UnderlyingAsset)),
		ExerciseAsset:    a.ExerciseAsset.Hex(),
		ExerciseAmount:   formatAmount(a.ExerciseAmount, h.assets.Decimals(a.ExerciseAsset)),
	}
}

func parseAddress(w http.ResponseWriter, s, field string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": field + " must be a hex address"})
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

func parseTokenID(w http.ResponseWriter, s, field string) (types.TokenID, bool) {
	id, ok := types.ParseTokenID(s)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": field + " must be a 32-byte hex token ID"})
		return types.TokenID{}, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
