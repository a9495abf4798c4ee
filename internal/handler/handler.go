package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/GoArmGo/RecipeApp/internal/domain"
	"github.com/GoArmGo/RecipeApp/internal/usecase"
	"github.com/go-chi/chi/v5"
)

const (
	detailNotAuthenticated = "Authentication credentials were not provided."
	detailForbidden        = "You do not have permission to perform this action."
	detailNotFound         = "Not found."
	detailConflict         = "The resource was modified by another request. Reload it and retry."
	detailServerError      = "A server error occurred."

	maxJSONBody = 1 << 20
)

// respondWithJSON — отправляет JSON-ответ клиенту.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}, logger *slog.Logger) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		logger.Error("failed to marshal JSON response", "error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err = w.Write(response); err != nil {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithError — отправляет JSON-ответ с ошибкой.
func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, map[string]string{"detail": message}, logger)
}

// respondNoContent отвечает 204 с подтверждением. net/http не передаёт тело для 204,
// поэтому клиентам за реальным сервером достаются только статус и заголовки.
func respondNoContent(w http.ResponseWriter, detail string, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNoContent)
	body, _ := json.Marshal(map[string]string{"detail": detail})
	if _, err := w.Write(body); err != nil && !errors.Is(err, http.ErrBodyNotAllowed) {
		logger.Error("failed to write HTTP response", "error", err)
	}
}

// respondWithDomainError переводит ошибку usecase-слоя в HTTP-ответ.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var verr *domain.ValidationError
	var perr *domain.InvalidParameterError

	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusBadRequest, verr.Fields, logger)
	case errors.As(err, &perr):
		respondWithJSON(w, http.StatusBadRequest, map[string][]string{perr.Param: {perr.Message}}, logger)
	case errors.Is(err, domain.ErrNotAuthenticated):
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		respondWithError(w, http.StatusUnauthorized, detailNotAuthenticated, logger)
	case errors.Is(err, domain.ErrPermissionDenied):
		respondWithError(w, http.StatusForbidden, detailForbidden, logger)
	case errors.Is(err, domain.ErrNotFound):
		respondWithError(w, http.StatusNotFound, detailNotFound, logger)
	case errors.Is(err, domain.ErrConflict):
		respondWithError(w, http.StatusConflict, detailConflict, logger)
	case errors.Is(err, usecase.ErrCoversDisabled):
		respondWithError(w, http.StatusServiceUnavailable, "Cover uploads are not available.", logger)
	default:
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		respondWithError(w, http.StatusInternalServerError, detailServerError, logger)
	}
}

// decodeJSON читает тело запроса в dst; ошибка разбора возвращается текстом для клиента.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("JSON parse error: request body is empty")
		}
		return fmt.Errorf("JSON parse error: %v", err)
	}
	return nil
}

// decodeObject читает тело как JSON-объект с числами в виде json.Number.
func decodeObject(r *http.Request) (map[string]any, error) {
	var body any
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid data: expected a JSON object, got %s", jsonKind(body))
	}
	return obj, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case []any:
		return "list"
	case string:
		return "str"
	case json.Number:
		return "number"
	case bool:
		return "bool"
	case nil:
		return "null"
	}
	return "value"
}

// pathID разбирает положительный целочисленный параметр пути.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// baseURL: схема и хост запроса, например "http://localhost:8080".
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + r.Host
}

// absoluteURL восстанавливает полный адрес текущего запроса.
func absoluteURL(r *http.Request) *url.URL {
	u, err := url.Parse(baseURL(r) + r.URL.RequestURI())
	if err != nil {
		cp := *r.URL
		return &cp
	}
	return u
}
