package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youclicker/backend/internal/model"
	"github.com/youclicker/backend/internal/store"
)

// QuestionListHandler handles HTTP requests for the question list store.
type QuestionListHandler struct {
	repo *store.QuestionListRepository
	gate *AccessGate
}

// NewQuestionListHandler creates a new QuestionListHandler.
func NewQuestionListHandler(repo *store.QuestionListRepository, gate *AccessGate) *QuestionListHandler {
	return &QuestionListHandler{
		repo: repo,
		gate: gate,
	}
}

// UpsertQuestionListRequest represents the body for saving a question list.
type UpsertQuestionListRequest struct {
	Name      string           `json:"name" binding:"required"`
	Questions []model.Question `json:"questions"`
}

// Upsert handles PUT /api/question-lists/:id - creates or replaces a
// question list. Privileged.
func (h *QuestionListHandler) Upsert(c *gin.Context) {
	id := c.Param("id")
	if !store.ValidListID(id) {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "List id must be a lowercase slug")
		return
	}

	var req UpsertQuestionListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	list := &model.QuestionList{
		ID:        id,
		Name:      req.Name,
		Questions: req.Questions,
	}

	if err := h.repo.Upsert(c.Request.Context(), list); err != nil {
		if errors.Is(err, model.ErrInvalidListID) || errors.Is(err, model.ErrNameRequired) {
			sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save question list: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, list)
}

// Get handles GET /api/question-lists/:id.
func (h *QuestionListHandler) Get(c *gin.Context) {
	id := c.Param("id")

	list, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrListNotFound) {
			sendError(c, http.StatusNotFound, "LIST_NOT_FOUND", "Question list "+id+" not found")
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get question list: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, list)
}

// List handles GET /api/question-lists.
func (h *QuestionListHandler) List(c *gin.Context) {
	lists, err := h.repo.List(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list question lists: "+err.Error())
		return
	}

	if lists == nil {
		lists = []*model.QuestionList{}
	}
	c.JSON(http.StatusOK, lists)
}

// Delete handles DELETE /api/question-lists/:id. Privileged.
func (h *QuestionListHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, model.ErrListNotFound) {
			sendError(c, http.StatusNotFound, "LIST_NOT_FOUND", "Question list "+id+" not found")
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete question list: "+err.Error())
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers the question list routes on a Gin router group.
// Reads are open; writes go through the access gate.
func (h *QuestionListHandler) RegisterRoutes(rg *gin.RouterGroup) {
	lists := rg.Group("/question-lists")
	{
		lists.GET("", h.List)
		lists.GET("/:id", h.Get)
		lists.PUT("/:id", h.gate.Require(), h.Upsert)
		lists.DELETE("/:id", h.gate.Require(), h.Delete)
	}
}
