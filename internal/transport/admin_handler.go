package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"compucobano/internal/middleware"
	"compucobano/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminRequest is the POST /api/admin envelope.
type AdminRequest struct {
	Action string          `json:"action" validate:"required"`
	Data   json.RawMessage `json:"data"`
}

// AdminHandler serves dashboard stats and catalog mutations
type AdminHandler struct {
	reader service.CatalogReader
	writer service.CatalogWriter
	errors errorResponder
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(reader service.CatalogReader, writer service.CatalogWriter, logger *zap.Logger, exposeDetails bool) *AdminHandler {
	return &AdminHandler{
		reader: reader,
		writer: writer,
		errors: errorResponder{logger: logger, exposeDetails: exposeDetails},
		logger: logger,
	}
}

// RegisterRoutes registers the dashboard routes on the admin subrouter.
// limit only wraps mutations.
func (h *AdminHandler) RegisterRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.Get("/", h.GetStats)
	r.With(limit).Post("/", h.PostAction)
}

// GetStats returns the dashboard counters
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reader.Stats(r.Context())
	if err != nil {
		h.errors.respond(w, "stats", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// PostAction decodes one admin action and applies it
func (h *AdminHandler) PostAction(w http.ResponseWriter, r *http.Request) {
	var req AdminRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		h.logger.Debug("Admin request decode failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	action, err := parseAdminAction(req.Action, req.Data)
	if err != nil {
		if errors.Is(err, errUnknownAction) {
			h.logger.Warn("Unknown admin action", zap.String("action", req.Action))
			middleware.RespondWithError(w, http.StatusBadRequest, errUnknownAction.Error())
			return
		}
		h.errors.respond(w, req.Action, err)
		return
	}

	h.dispatch(w, r, action)
}

func (h *AdminHandler) dispatch(w http.ResponseWriter, r *http.Request, action AdminAction) {
	ctx := r.Context()
	op := action.actionName()

	switch a := action.(type) {
	case createProductAction:
		product, err := h.writer.CreateProduct(ctx, a.input)
		if err != nil {
			h.errors.respond(w, op, err)
			return
		}
		respondWithData(w, http.StatusOK, product)

	case createCategoryAction:
		category, err := h.writer.CreateCategory(ctx, a.input)
		if err != nil {
			h.errors.respond(w, op, err)
			return
		}
		respondWithData(w, http.StatusOK, category)

	case updateProductAction:
		product, err := h.writer.UpdateProduct(ctx, a.id, a.patch)
		if err != nil {
			h.errors.respond(w, op, err)
			return
		}
		respondWithData(w, http.StatusOK, product)

	case updateCategoryAction:
		category, err := h.writer.UpdateCategory(ctx, a.id, a.patch)
		if err != nil {
			h.errors.respond(w, op, err)
			return
		}
		respondWithData(w, http.StatusOK, category)

	case deleteProductAction:
		if err := h.writer.DeleteProduct(ctx, a.id); err != nil {
			h.errors.respond(w, op, err)
			return
		}
		respondWithMessage(w, "product deleted")

	case deleteCategoryAction:
		if err := h.writer.DeleteCategory(ctx, a.id); err != nil {
			h.errors.respond(w, op, err)
			return
		}
		respondWithMessage(w, "category deleted")

	default:
		middleware.RespondWithError(w, http.StatusBadRequest, errUnknownAction.Error())
	}
}
