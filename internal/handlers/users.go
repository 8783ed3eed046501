package handlers

import (
	"net/http"

	"bankledger/internal/middleware"
	"bankledger/internal/services"
)

type profileRequest struct {
	Email       *string `json:"email"`
	Password    *string `json:"password"`
	Nickname    *string `json:"nickname"`
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phone_number"`
}

func (req profileRequest) input() services.ProfileInput {
	return services.ProfileInput{
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
		Name:     req.Name,
		Phone:    req.PhoneNumber,
	}
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.users.Profile(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, userJSON(user))
}

func (h *Handler) ReplaceProfile(w http.ResponseWriter, r *http.Request) {
	h.updateProfile(w, r, false)
}

func (h *Handler) PatchProfile(w http.ResponseWriter, r *http.Request) {
	h.updateProfile(w, r, true)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request, partial bool) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), userID, req.input(), partial)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, userJSON(user))
}

func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.users.DeleteProfile(r.Context(), userID); err != nil {
		respondServiceError(w, err)
		return
	}
	h.clearCookie(w, middleware.AccessCookie)
	h.clearCookie(w, refreshCookie)
	respondJSON(w, http.StatusOK, map[string]string{"message": "deleted successfully"})
}
