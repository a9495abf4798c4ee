package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/RecipeApp/internal/auth"
	"github.com/GoArmGo/RecipeApp/internal/serializer"
	"github.com/GoArmGo/RecipeApp/internal/usecase"
)

// AuthorHandler — регистрация и профиль текущего автора.
type AuthorHandler struct {
	authorUseCase usecase.AuthorUseCase
	logger        *slog.Logger
}

func NewAuthorHandler(uc usecase.AuthorUseCase, logger *slog.Logger) *AuthorHandler {
	return &AuthorHandler{authorUseCase: uc, logger: logger}
}

// Register — POST /authors
func (h *AuthorHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input serializer.AuthorInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	user, err := h.authorUseCase.Register(r.Context(), auth.ActorFrom(r.Context()), input)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusCreated, serializer.Author(*user), h.logger)
}

// Me — GET /me
func (h *AuthorHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authorUseCase.Me(r.Context(), auth.ActorFrom(r.Context()))
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, serializer.Author(*user), h.logger)
}

// UpdateMe — PATCH /me
func (h *AuthorHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var input serializer.AuthorInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	user, err := h.authorUseCase.UpdateMe(r.Context(), auth.ActorFrom(r.Context()), input)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, serializer.Author(*user), h.logger)
}

// DeleteMe — DELETE /me
func (h *AuthorHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.authorUseCase.DeleteMe(r.Context(), auth.ActorFrom(r.Context())); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
