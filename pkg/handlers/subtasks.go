package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/pkg/tasks"
)

type SubTaskHandler struct {
	svc *tasks.Service
}

func NewSubTaskHandler(svc *tasks.Service) *SubTaskHandler {
	return &SubTaskHandler{svc: svc}
}

// Create inserts a subtask directly under the parent task, outside the
// parent's reconciliation path.
func (h *SubTaskHandler) Create(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req SubTaskPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	st, err := req.toModel()
	if err != nil {
		writeError(c, err)
		return
	}
	st.ID = 0

	created, err := h.svc.CreateSubTask(c.Request.Context(), taskID, st)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *SubTaskHandler) ListByTask(c *gin.Context) {
	taskID, ok := parseID(c, "id")
	if !ok {
		return
	}
	items, err := h.svc.ListSubTasks(c.Request.Context(), taskID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *SubTaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req SubTaskPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	st, err := req.toModel()
	if err != nil {
		writeError(c, err)
		return
	}
	st.ID = id

	updated, err := h.svc.UpdateSubTask(c.Request.Context(), st)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *SubTaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteSubTask(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "subtask deleted"})
}
