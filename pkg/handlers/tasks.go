package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/pkg/models"
	"taskboard/pkg/taskerr"
	"taskboard/pkg/tasks"
)

const dateLayout = "2006-01-02"

type SubTaskPayload struct {
	ID       uint    `json:"id"`
	Title    string  `json:"title"`
	Priority string  `json:"priority"`
	Status   string  `json:"status"`
	Deadline *string `json:"deadline"`
}

// TaskPayload is the full-replace update body. A missing subtasks key (nil)
// clears the whole collection; missing scalar fields overwrite with zero
// values. That is the documented contract, not an accident.
type TaskPayload struct {
	Title    string           `json:"title"`
	Priority string           `json:"priority"`
	Status   string           `json:"status"`
	Deadline *string          `json:"deadline"`
	Subtasks []SubTaskPayload `json:"subtasks"`
}

type TaskHandler struct {
	svc *tasks.Service
}

func NewTaskHandler(svc *tasks.Service) *TaskHandler {
	return &TaskHandler{svc: svc}
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req TaskPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	task, err := req.toModel(0)
	if err != nil {
		writeError(c, err)
		return
	}

	created, err := h.svc.Create(c.Request.Context(), task)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	task, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) List(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req TaskPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	task, err := req.toModel(id)
	if err != nil {
		writeError(c, err)
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), task)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

func (h *TaskHandler) UploadAttachment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(c, err)
		return
	}

	task, err := h.svc.UploadAttachment(c.Request.Context(), id, data, header.Filename)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (p TaskPayload) toModel(id uint) (*models.Task, error) {
	deadline, err := parseDate(p.Deadline, "deadline")
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:       id,
		Title:    p.Title,
		Priority: models.Priority(p.Priority),
		Status:   models.Status(p.Status),
		Deadline: deadline,
	}

	if p.Subtasks != nil {
		task.Subtasks = make([]models.SubTask, 0, len(p.Subtasks))
		for i, sp := range p.Subtasks {
			st, err := sp.toModel()
			if err != nil {
				verr := taskerr.NewValidationError()
				verr.Add("subtasks["+strconv.Itoa(i)+"].deadline", "must be a date in the form YYYY-MM-DD")
				return nil, verr
			}
			task.Subtasks = append(task.Subtasks, *st)
		}
	}
	return task, nil
}

func (p SubTaskPayload) toModel() (*models.SubTask, error) {
	deadline, err := parseDate(p.Deadline, "deadline")
	if err != nil {
		return nil, err
	}
	return &models.SubTask{
		ID:       p.ID,
		Title:    p.Title,
		Priority: models.Priority(p.Priority),
		Status:   models.Status(p.Status),
		Deadline: deadline,
	}, nil
}

func parseDate(value *string, field string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *value)
	if err != nil {
		verr := taskerr.NewValidationError()
		verr.Add(field, "must be a date in the form YYYY-MM-DD")
		return nil, verr
	}
	return &t, nil
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func parseQuery(c *gin.Context) (tasks.Query, error) {
	var q tasks.Query
	verr := taskerr.NewValidationError()

	if v := c.Query("priority"); v != "" {
		p := models.Priority(v)
		q.Priority = &p
	}
	if v := c.Query("status"); v != "" {
		s := models.Status(v)
		q.Status = &s
	}
	if v := c.Query("deadlineBefore"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			verr.Add("deadlineBefore", "must be a date in the form YYYY-MM-DD")
		} else {
			q.DeadlineBefore = &t
		}
	}
	q.SortBy = c.Query("sortBy")
	q.Direction = c.Query("direction")

	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Add("page", "must be an integer")
		} else {
			q.Page = n
		}
	}
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Add("size", "must be an integer")
		} else {
			q.Size = n
		}
	}

	if !verr.Empty() {
		return q, verr
	}
	return q, nil
}
