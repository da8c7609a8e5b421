package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/randalmurphal/ruleast/pkg/ruleast"
	rerrors "github.com/randalmurphal/ruleast/pkg/ruleast/errors"
	"github.com/randalmurphal/ruleast/pkg/ruleast/store"
)

// DefaultMaxBodyBytes caps request bodies and stream messages.
const DefaultMaxBodyBytes int64 = 1 << 20

// Success messages.
const (
	MsgRuleCreated   = "Rule successfully parsed and stored"
	MsgRulesCombined = "Rules successfully combined and stored"
)

// Handler routes HTTP requests to a Service.
type Handler struct {
	svc          *Service
	router       *httprouter.Router
	entry        http.Handler
	origins      []string
	logger       *slog.Logger
	maxBodyBytes int64
	upgrader     websocket.Upgrader
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithMaxBodyBytes caps request bodies. Non-positive values are ignored.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

// WithAllowedOrigins enables CORS for the given origins ("*" allows any)
// and accepts WebSocket streams opened from them.
func WithAllowedOrigins(origins ...string) HandlerOption {
	return func(h *Handler) {
		h.origins = append(h.origins, origins...)
	}
}

// WithHandlerLogger sets the logger used for transport failures.
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler builds the HTTP surface of svc.
//
//	POST   /createRule
//	POST   /combineRules
//	POST   /evaluateRule
//	GET    /rules
//	GET    /rules/:id
//	DELETE /rules/:id
//	GET    /rules/:id/stream   (WebSocket)
//	GET    /healthz
func NewHandler(svc *Service, opts ...HandlerOption) *Handler {
	h := &Handler{
		svc:          svc,
		router:       httprouter.New(),
		maxBodyBytes: DefaultMaxBodyBytes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(h)
	}

	h.router.POST("/createRule", h.createRule)
	h.router.POST("/combineRules", h.combineRules)
	h.router.POST("/evaluateRule", h.evaluateRule)
	h.router.GET("/rules", h.listRules)
	h.router.GET("/rules/:id", h.getRule)
	h.router.DELETE("/rules/:id", h.deleteRule)
	h.router.GET("/rules/:id/stream", h.streamRule)
	h.router.GET("/healthz", h.healthz)

	h.router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
	})
	h.router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		if h.logger != nil {
			h.logger.Error("handler panic",
				slog.String("path", r.URL.Path),
				slog.Any("panic", v),
			)
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}

	h.entry = h.router
	if len(h.origins) > 0 {
		h.entry = supportCORS(h.router, h.origins)
		h.upgrader.CheckOrigin = h.allowedOrigin
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.entry.ServeHTTP(w, r)
}

type createRuleRequest struct {
	RuleString string `json:"rule_string"`
}

type combineRulesRequest struct {
	Rules json.RawMessage `json:"rules"`
}

type evaluateRuleRequest struct {
	RuleID string         `json:"rule_id"`
	AST    *ruleast.Node  `json:"ast"`
	Data   map[string]any `json:"data"`
}

type ruleResponse struct {
	Message string            `json:"message"`
	RuleID  string            `json:"rule_id"`
	AST     *ruleast.Document `json:"ast"`
}

type evaluateResponse struct {
	Result bool `json:"result"`
}

type listResponse struct {
	Rules []store.Info `json:"rules"`
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) createRule(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createRuleRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	rule, err := h.svc.CreateRule(r.Context(), req.RuleString)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ruleResponse{Message: MsgRuleCreated, RuleID: rule.ID, AST: rule.AST})
}

func (h *Handler) combineRules(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req combineRulesRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	texts, err := decodeRules(req.Rules)
	if err != nil {
		h.writeError(w, err)
		return
	}

	rule, err := h.svc.CombineRules(r.Context(), texts)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ruleResponse{Message: MsgRulesCombined, RuleID: rule.ID, AST: rule.AST})
}

func (h *Handler) evaluateRule(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req evaluateRuleRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	switch {
	case req.RuleID == "" && req.AST == nil:
		h.writeError(w, rerrors.Validation("rule_id", MsgNoRuleIDOrAST))
		return
	case req.RuleID != "" && req.AST != nil:
		h.writeError(w, rerrors.Validation("rule_id", MsgBothRuleIDAndAST))
		return
	case req.Data == nil:
		h.writeError(w, rerrors.Validation("data", MsgNoData))
		return
	}

	var result bool
	var err error
	if req.AST != nil {
		result, err = h.svc.EvaluateTree(r.Context(), req.AST, req.Data)
	} else {
		result, err = h.svc.EvaluateRule(r.Context(), req.RuleID, req.Data)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluateResponse{Result: result})
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	infos, err := h.svc.ListRules(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Rules: infos})
}

func (h *Handler) getRule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rule, err := h.svc.GetRule(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) deleteRule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.svc.DeleteRule(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.svc.Health(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// decode reads a JSON body into v. An empty body leaves v at its zero value
// so field validation reports what is missing.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	err := dec.Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return rerrors.Validation("body", "Invalid request body: %v", err)
}

// decodeRules accepts only a non-empty JSON array of strings. Falsy values
// (null, "", 0, false, {}, []) count as missing.
func decodeRules(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, rerrors.Validation("rules", MsgNoRules)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}

	items, ok := v.([]any)
	if !ok {
		if isFalsy(v) {
			return nil, rerrors.Validation("rules", MsgNoRules)
		}
		return nil, rerrors.Validation("rules", MsgRulesNotArray)
	}
	if len(items) == 0 {
		return nil, rerrors.Validation("rules", MsgNoRules)
	}

	texts := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, rerrors.Validation("rules", "Rule %d must be a string", i)
		}
		texts[i] = s
	}
	return texts, nil
}

func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return t == 0
	case bool:
		return !t
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := rerrors.HTTPStatus(err)

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
		err = fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
	}

	if status >= http.StatusInternalServerError && h.logger != nil {
		h.logger.Error("request failed",
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
