package memory

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"

	"github.com/aiox-platform/recall/internal/api"
)

// Handler handles memory HTTP endpoints.
type Handler struct {
	svc      *Service
	decoder  *form.Decoder
	validate *validator.Validate
}

// NewHandler creates a new memory handler.
func NewHandler(svc *Service) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return &Handler{
		svc:      svc,
		decoder:  form.NewDecoder(),
		validate: v,
	}
}

// GetMemories lists the memory texts of a user.
func (h *Handler) GetMemories(w http.ResponseWriter, r *http.Request) {
	var req GetMemoriesRequest
	if !h.bind(w, r, &req) {
		return
	}

	memories, err := h.svc.GetMemories(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			api.HandleError(w, api.NewNotFoundError("User not found"))
		case errors.Is(err, ErrInvalidResponse):
			api.HandleError(w, api.ErrInvalidUpstream)
		default:
			slog.Error("retrieving memories", "error", err, "user_id", req.UserID)
			api.HandleError(w, api.NewInternalError(err))
		}
		return
	}

	api.JSON(w, http.StatusOK, memories)
}

// AddMemory stores a memory for a user.
func (h *Handler) AddMemory(w http.ResponseWriter, r *http.Request) {
	var req AddMemoryRequest
	if !h.bind(w, r, &req) {
		return
	}

	res, err := h.svc.Add(r.Context(), &req)
	if err != nil {
		slog.Error("storing memory", "error", err, "user_id", req.UserID)
		api.HandleError(w, api.NewInternalError(err))
		return
	}

	api.JSON(w, http.StatusOK, AddMemoryResponse{
		Message:  "Memory added successfully",
		MemoryID: res,
		UserID:   req.UserID,
	})
}

// DeleteMemories deletes every memory of a user.
func (h *Handler) DeleteMemories(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if !h.bind(w, r, &req) {
		return
	}

	ack, err := h.svc.DeleteAll(r.Context(), req.UserID)
	if err != nil {
		slog.Error("deleting all memories", "error", err, "user_id", req.UserID)
		api.HandleError(w, api.NewInternalError(err))
		return
	}

	api.JSON(w, http.StatusOK, ResultResponse{
		Message: fmt.Sprintf("All memories of %s deleted successfully", req.UserID),
		Result:  ack,
	})
}

// GetMemory returns a single memory. Every failure, including an unknown id,
// is reported as a 500.
func (h *Handler) GetMemory(w http.ResponseWriter, r *http.Request) {
	var req MemoryIDRequest
	if !h.bind(w, r, &req) {
		return
	}

	rec, err := h.svc.Get(r.Context(), req.MemoryID)
	if err != nil {
		slog.Error("getting memory", "error", err, "memory_id", req.MemoryID)
		api.HandleError(w, api.NewInternalError(err))
		return
	}

	api.JSON(w, http.StatusOK, ResultResponse{Message: "Memory found", Result: rec})
}

// UpdateMemory replaces the text of a memory.
func (h *Handler) UpdateMemory(w http.ResponseWriter, r *http.Request) {
	var req UpdateMemoryRequest
	if !h.bind(w, r, &req) {
		return
	}

	rec, err := h.svc.Update(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrMemoryNotFound) {
			api.HandleError(w, api.NewNotFoundError("Memory not found"))
			return
		}
		slog.Error("updating memory", "error", err, "memory_id", req.MemoryID)
		api.HandleError(w, api.NewInternalError(err))
		return
	}

	api.JSON(w, http.StatusOK, UpdateMemoryResponse{UpdatedMemory: rec})
}

// DeleteMemory deletes a single memory.
func (h *Handler) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	var req MemoryIDRequest
	if !h.bind(w, r, &req) {
		return
	}

	ack, err := h.svc.Delete(r.Context(), req.MemoryID)
	if err != nil {
		slog.Error("deleting memory", "error", err, "memory_id", req.MemoryID)
		api.HandleError(w, api.NewInternalError(err))
		return
	}

	api.JSON(w, http.StatusOK, ResultResponse{Message: "Memory deleted successfully", Result: ack})
}

// SearchMemories performs a semantic search over a user's memories.
func (h *Handler) SearchMemories(w http.ResponseWriter, r *http.Request) {
	var req SearchMemoriesRequest
	if !h.bind(w, r, &req) {
		return
	}

	results, err := h.svc.Search(r.Context(), &req)
	if err != nil {
		slog.Error("searching memories", "error", err, "user_id", req.UserID)
		api.HandleError(w, api.NewInternalError(err))
		return
	}

	api.JSON(w, http.StatusOK, SearchResponse{Query: req.Query, Results: results})
}

// MemoryHistory returns the change log of a memory.
func (h *Handler) MemoryHistory(w http.ResponseWriter, r *http.Request) {
	var req MemoryIDRequest
	if !h.bind(w, r, &req) {
		return
	}

	history, err := h.svc.History(r.Context(), req.MemoryID)
	if err != nil {
		if errors.Is(err, ErrHistoryNotFound) {
			api.HandleError(w, api.NewNotFoundError("No history found for the given memory ID"))
			return
		}
		slog.Error("getting memory history", "error", err, "memory_id", req.MemoryID)
		api.HandleError(w, api.NewInternalError(err))
		return
	}

	api.JSON(w, http.StatusOK, HistoryResponse{MemoryID: req.MemoryID, History: history})
}

// bind decodes the request's form fields into req and validates it.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, req any) bool {
	values, err := api.Form(r)
	if err != nil {
		api.HandleError(w, api.NewBadRequestError(err.Error()))
		return false
	}
	if err := h.decoder.Decode(req, values); err != nil {
		api.HandleError(w, api.NewBadRequestError(err.Error()))
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(validationDetail(err)))
		return false
	}
	return true
}

// validationDetail names the first missing field using its form key.
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Sprintf("field required: %s", verrs[0].Field())
	}
	return err.Error()
}
