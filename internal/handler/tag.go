package handler

import (
	"log/slog"
	"net/http"

	"github.com/GoArmGo/RecipeApp/internal/auth"
	"github.com/GoArmGo/RecipeApp/internal/serializer"
	"github.com/GoArmGo/RecipeApp/internal/usecase"
)

// TagHandler — теги и категории.
type TagHandler struct {
	tagUseCase usecase.TagUseCase
	logger     *slog.Logger
}

func NewTagHandler(uc usecase.TagUseCase, logger *slog.Logger) *TagHandler {
	return &TagHandler{tagUseCase: uc, logger: logger}
}

// ListTags — GET /tags
func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tagUseCase.ListTags(r.Context())
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	records := make([]serializer.TagRecord, 0, len(tags))
	for _, t := range tags {
		records = append(records, serializer.Tag(t))
	}
	respondWithJSON(w, http.StatusOK, records, h.logger)
}

// GetTag — GET /tags/{id}
func (h *TagHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, detailNotFound, h.logger)
		return
	}
	tag, err := h.tagUseCase.GetTag(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, serializer.Tag(*tag), h.logger)
}

// UpdateTag — PATCH /tags/{id}, только для персонала
func (h *TagHandler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, detailNotFound, h.logger)
		return
	}
	var input serializer.TagInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	tag, err := h.tagUseCase.UpdateTag(r.Context(), auth.ActorFrom(r.Context()), id, input)
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, serializer.Tag(*tag), h.logger)
}

// DeleteTag — DELETE /tags/{id}; 204 с подтверждением в теле
func (h *TagHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusNotFound, detailNotFound, h.logger)
		return
	}
	if err := h.tagUseCase.DeleteTag(r.Context(), auth.ActorFrom(r.Context()), id); err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	respondNoContent(w, "tag deleted", h.logger)
}

// ListCategories — GET /categories
func (h *TagHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.tagUseCase.ListCategories(r.Context())
	if err != nil {
		respondWithDomainError(w, r, err, h.logger)
		return
	}
	records := make([]serializer.CategoryRecord, 0, len(categories))
	for _, c := range categories {
		records = append(records, serializer.Category(c))
	}
	respondWithJSON(w, http.StatusOK, records, h.logger)
}
