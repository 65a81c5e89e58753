package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/loyalty-club/internal/model"
	"github.com/sakif/loyalty-club/internal/service"
)

// UserHandler exposes member reads and the four domain mutations.
//
// The QR scanner collaborator decodes a member's code and posts the id to
// the visits endpoint; the camera and decoding live entirely outside this
// server.
type UserHandler struct {
	loyalty *service.LoyaltyService
	logger  *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(loyalty *service.LoyaltyService, logger *slog.Logger) *UserHandler {
	return &UserHandler{loyalty: loyalty, logger: logger}
}

// userPayload is the request body for create and update. Password is
// optional in both directions: blank on create means the default password,
// blank on update means "keep the current one".
type userPayload struct {
	Name     string `json:"nombre"`
	Phone    string `json:"telefono"`
	Visits   int    `json:"visitas"`
	Password string `json:"password,omitempty"`
}

// sanitize strips the hash before a record leaves the API.
func sanitize(u *model.User) *model.User {
	clean := *u
	clean.PasswordHash = ""
	return &clean
}

// HandleGet returns one member by id.
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.loyalty.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitize(user))
}

// HandleFind looks a member up by id or phone. This backs the member login
// screen, so an unknown identifier is a 404 with a friendly message rather
// than an empty 200 the UI would have to special-case.
//
// HTTP: GET /api/users/lookup?q={id-or-phone}
func (h *UserHandler) HandleFind(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	user, err := h.loyalty.FindUser(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "no member matches that id or phone",
		})
		return
	}
	writeJSON(w, http.StatusOK, sanitize(user))
}

// HandleList returns every member. Staff only.
//
// HTTP: GET /api/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.loyalty.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]*model.User, len(users))
	for i := range users {
		out[i] = sanitize(&users[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleCreate registers a new member. Staff only.
//
// HTTP: POST /api/users
// BODY: {"nombre": "...", "telefono": "...", "visitas": 0, "password": "..."}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in userPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("invalid create-user JSON", slog.String("error", err.Error()))
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	user, err := h.loyalty.CreateUser(r.Context(), service.CreateUserInput{
		Name:     in.Name,
		Phone:    in.Phone,
		Visits:   in.Visits,
		Password: in.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sanitize(user))
}

// HandleUpdate edits an existing member. Staff only.
//
// HTTP: PUT /api/users/{id}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in userPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Warn("invalid update-user JSON", slog.String("error", err.Error()))
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	user, err := h.loyalty.UpdateUser(r.Context(), chi.URLParam(r, "id"), service.UpdateUserInput{
		Name:     in.Name,
		Phone:    in.Phone,
		Visits:   in.Visits,
		Password: in.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitize(user))
}

// HandleAddVisit records one visit for a member. Staff only.
//
// HTTP: POST /api/users/{id}/visits
func (h *UserHandler) HandleAddVisit(w http.ResponseWriter, r *http.Request) {
	user, err := h.loyalty.AddVisit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitize(user))
}

// HandleRedeem exchanges a member's visits for a promotion. Staff only.
//
// HTTP: POST /api/users/{id}/redeem
// BODY: {"promoId": "p1"}
func (h *UserHandler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PromoID string `json:"promoId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	user, err := h.loyalty.RedeemPromo(r.Context(), chi.URLParam(r, "id"), in.PromoID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sanitize(user))
}
