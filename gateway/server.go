package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sabridemirel/arayanibul-sub003/auth"
	"github.com/sabridemirel/arayanibul-sub003/domain"
	apperrors "github.com/sabridemirel/arayanibul-sub003/errors"
	"github.com/sabridemirel/arayanibul-sub003/runtime"
	"github.com/sabridemirel/arayanibul-sub003/services"
)

// Gateway exposes the identity operations over HTTP and the realtime
// channel over websocket. It owns no shared state itself; the registry is
// an explicit collaborator passed in at construction, never a global.
type Gateway struct {
	identity   services.IIdentityService
	issuer     *auth.TokenIssuer
	registry   *runtime.Registry
	presence   *runtime.PresenceTracker
	router     *runtime.ConversationRouter
	upgrader   websocket.Upgrader
	sendBuffer int
	log        *slog.Logger
}

func New(
	identity services.IIdentityService,
	issuer *auth.TokenIssuer,
	registry *runtime.Registry,
	presence *runtime.PresenceTracker,
	router *runtime.ConversationRouter,
	sendBuffer int,
	log *slog.Logger,
) *Gateway {
	return &Gateway{
		identity: identity,
		issuer:   issuer,
		registry: registry,
		presence: presence,
		router:   router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sendBuffer: sendBuffer,
		log:        log,
	}
}

// Routes wires the HTTP surface.
func (g *Gateway) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", g.handleRegister)
		r.Post("/login", g.handleLogin)
		r.Post("/social", g.handleSocial)
		r.Post("/guest", g.handleGuest)
	})
	r.Get("/api/presence/{accountID}", g.handlePresence)
	r.Get("/ws", g.handleWebsocket)

	return r
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type socialRequest struct {
	Provider    string `json:"provider"`
	AccessToken string `json:"access_token"`
}

type authResponse struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name"`
	IsGuest   bool   `json:"is_guest"`
	Token     string `json:"token"`
}

func (g *Gateway) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.ErrValidation)
		return
	}

	result, err := g.identity.RegisterLocal(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		g.writeIdentityError(w, err)
		return
	}
	writeAuthResult(w, http.StatusCreated, result)
}

func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.ErrValidation)
		return
	}

	result, err := g.identity.AuthenticateLocal(r.Context(), req.Email, req.Password)
	if err != nil {
		g.writeIdentityError(w, err)
		return
	}
	writeAuthResult(w, http.StatusOK, result)
}

func (g *Gateway) handleSocial(w http.ResponseWriter, r *http.Request) {
	var req socialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apperrors.ErrValidation)
		return
	}

	provider, err := domain.ParseProvider(strings.ToLower(req.Provider))
	if err != nil || provider == domain.ProviderLocal || provider == domain.ProviderGuest {
		writeError(w, http.StatusBadRequest, apperrors.ErrUnknownProvider)
		return
	}

	result, err := g.identity.AuthenticateFederated(r.Context(), provider, req.AccessToken)
	if err != nil {
		g.writeIdentityError(w, err)
		return
	}
	writeAuthResult(w, http.StatusOK, result)
}

func (g *Gateway) handleGuest(w http.ResponseWriter, r *http.Request) {
	result, err := g.identity.CreateGuest(r.Context())
	if err != nil {
		g.writeIdentityError(w, err)
		return
	}
	writeAuthResult(w, http.StatusCreated, result)
}

func (g *Gateway) handlePresence(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": accountID,
		"online":     g.presence.IsOnline(accountID),
	})
}

// handleWebsocket completes the realtime handshake: the bearer session
// token is validated before the upgrade, then the connection registers
// under its account and the pumps take over.
func (g *Gateway) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	accountID, err := g.issuer.Validate(bearerToken(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Debug("websocket upgrade failed", "error", err)
		return
	}

	client := newClient(uuid.NewString(), accountID, conn, g.registry, g.router, g.sendBuffer, g.log)
	client.open()

	go client.writePump()
	go client.readPump()
}

// bearerToken accepts the session token either as an Authorization header
// or, for browser websocket clients that cannot set headers, as a query
// parameter.
func bearerToken(r *http.Request) auth.Token {
	if header := r.Header.Get("Authorization"); header != "" {
		return auth.Token(strings.TrimPrefix(header, "Bearer "))
	}
	return auth.Token(r.URL.Query().Get("token"))
}

func (g *Gateway) writeIdentityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrUnknownProvider):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, apperrors.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, apperrors.ErrInvalidCredentials), errors.Is(err, apperrors.ErrInvalidProviderToken):
		writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, apperrors.ErrProviderUnavailable):
		// Transient: the client may safely retry.
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		g.log.Error("identity operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, apperrors.ErrAccountCreationFailed)
	}
}

func writeAuthResult(w http.ResponseWriter, status int, result services.AuthResult) {
	writeJSON(w, status, authResponse{
		AccountID: result.Account.ID,
		Email:     result.Account.Email,
		Name:      result.Account.Name,
		IsGuest:   result.Account.IsGuest,
		Token:     string(result.Token),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
