package tasks

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"taskboard/pkg/models"
	"taskboard/pkg/taskerr"
)

// sortColumns whitelists the fields a caller may sort by. Anything else is a
// caller error, not a pass-through to SQL.
var sortColumns = map[string]string{
	"id":       "id",
	"title":    "title",
	"priority": "priority",
	"status":   "status",
	"deadline": "deadline",
	"version":  "version",
}

// Query composes the owner scope with optional conjunctive filters plus
// sort/paging. The zero value lists everything the owner has, page 0, size 10,
// sorted by id ascending.
type Query struct {
	Priority       *models.Priority
	Status         *models.Status
	DeadlineBefore *time.Time
	SortBy         string
	Direction      string
	Page           int
	Size           int
}

type Page struct {
	Items      []models.Task `json:"items"`
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	Size       int           `json:"size"`
}

// Normalize fills defaults and lowercases the direction. Call before Validate,
// Apply or CacheKey so identical parameter tuples canonicalize to one key.
func (q Query) Normalize() Query {
	if q.SortBy == "" {
		q.SortBy = "id"
	}
	q.Direction = strings.ToLower(q.Direction)
	if q.Direction == "" {
		q.Direction = "asc"
	}
	if q.Size == 0 {
		q.Size = 10
	}
	return q
}

func (q Query) Validate() error {
	verr := taskerr.NewValidationError()
	if _, ok := sortColumns[q.SortBy]; !ok {
		verr.Add("sortBy", "unsupported sort field")
	}
	if q.Direction != "asc" && q.Direction != "desc" {
		verr.Add("direction", "must be asc or desc")
	}
	if q.Priority != nil && !q.Priority.Valid() {
		verr.Add("priority", "must be one of LOW, MEDIUM, HIGH")
	}
	if q.Status != nil && !q.Status.Valid() {
		verr.Add("status", "must be one of PENDING, IN_PROGRESS, COMPLETED, CANCELLED")
	}
	if q.Page < 0 {
		verr.Add("page", "must not be negative")
	}
	if q.Size < 0 {
		verr.Add("size", "must not be negative")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// Apply scopes db to the owner's tasks and ANDs every supplied filter.
func (q Query) Apply(db *gorm.DB, ownerID uint) *gorm.DB {
	db = db.Where("user_id = ?", ownerID)
	if q.Priority != nil {
		db = db.Where("priority = ?", *q.Priority)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.DeadlineBefore != nil {
		db = db.Where("deadline < ?", *q.DeadlineBefore)
	}
	return db
}

func (q Query) OrderClause() string {
	dir := "ASC"
	if q.Direction == "desc" {
		dir = "DESC"
	}
	return sortColumns[q.SortBy] + " " + dir
}

// CacheKey encodes the full parameter tuple. Identical tuples for the same
// owner hit the same entry; any difference misses.
func (q Query) CacheKey(ownerID uint) string {
	priority, status, deadline := "", "", ""
	if q.Priority != nil {
		priority = string(*q.Priority)
	}
	if q.Status != nil {
		status = string(*q.Status)
	}
	if q.DeadlineBefore != nil {
		deadline = q.DeadlineBefore.Format("2006-01-02")
	}
	return fmt.Sprintf("tasks:list:%d:pr=%s&st=%s&dl=%s&sort=%s&dir=%s&page=%d&size=%d",
		ownerID, priority, status, deadline, q.SortBy, q.Direction, q.Page, q.Size)
}
