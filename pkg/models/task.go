package models

import (
	"strconv"
	"time"

	"taskboard/pkg/taskerr"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Task is the aggregate root. Subtasks are owned by the task and live or die
// with it; each subtask carries the parent id rather than a live back-pointer.
type Task struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	Title         string     `gorm:"size:255;not null" json:"title"`
	Priority      Priority   `gorm:"type:varchar(10);not null" json:"priority"`
	Status        Status     `gorm:"type:varchar(15);not null" json:"status"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	AttachmentURL string     `gorm:"column:attachment_url" json:"attachment_url,omitempty"`
	Version       int        `gorm:"not null;default:1" json:"version"`
	UserID        uint       `gorm:"index;not null" json:"-"`
	Subtasks      []SubTask  `gorm:"foreignKey:TaskID" json:"subtasks"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// SubTask never exists without a parent task.
type SubTask struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Priority  Priority   `gorm:"type:varchar(10);not null" json:"priority"`
	Status    Status     `gorm:"type:varchar(15);not null" json:"status"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Version   int        `gorm:"not null;default:1" json:"version"`
	TaskID    uint       `gorm:"index;not null" json:"task_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Validate checks field constraints at create/update time. The deadline rule
// compares against the start of the current day so a same-day deadline passes.
func (t *Task) Validate(now time.Time) error {
	verr := taskerr.NewValidationError()
	validateFields(verr, "", t.Title, t.Priority, t.Status, t.Deadline, now)
	for i := range t.Subtasks {
		st := &t.Subtasks[i]
		prefix := "subtasks[" + strconv.Itoa(i) + "]."
		validateFields(verr, prefix, st.Title, st.Priority, st.Status, st.Deadline, now)
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

func (st *SubTask) Validate(now time.Time) error {
	verr := taskerr.NewValidationError()
	validateFields(verr, "", st.Title, st.Priority, st.Status, st.Deadline, now)
	if verr.Empty() {
		return nil
	}
	return verr
}

func validateFields(verr *taskerr.ValidationError, prefix, title string, priority Priority, status Status, deadline *time.Time, now time.Time) {
	if n := len(title); n < 3 || n > 255 {
		verr.Add(prefix+"title", "must be between 3 and 255 characters")
	}
	if !priority.Valid() {
		verr.Add(prefix+"priority", "must be one of LOW, MEDIUM, HIGH")
	}
	if !status.Valid() {
		verr.Add(prefix+"status", "must be one of PENDING, IN_PROGRESS, COMPLETED, CANCELLED")
	}
	if deadline != nil {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if deadline.Before(today) {
			verr.Add(prefix+"deadline", "cannot be in the past")
		}
	}
}
