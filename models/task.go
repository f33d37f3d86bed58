package models

import "time"

type Task struct {
	ID                  string     `json:"id" gorm:"primaryKey"`
	ProjectID           string     `json:"project_id" gorm:"not null;index"`
	Title               string     `json:"title" gorm:"not null"`
	Description         string     `json:"description"`
	Type                string     `json:"type"` // e.g. "tweet", "article", "video"
	Deadline            *time.Time `json:"deadline,omitempty"`
	RequiresScreenshots bool       `json:"requires_screenshots" gorm:"default:false"`
	IsActive            bool       `json:"is_active" gorm:"default:true"`

	Timestamps

	// Calculated per requesting user (not stored in DB)
	SubmissionStatus string          `json:"submission_status,omitempty" gorm:"-"`
	Submission       *TaskSubmission `json:"submission,omitempty" gorm:"-"`
}

// TaskSubmission is a user's proof-of-completion for a project task.
// One submission per (task, user), enforced by the composite unique index.
type TaskSubmission struct {
	ID             string `json:"id" gorm:"primaryKey"`
	TaskID         string `json:"task_id" gorm:"not null;uniqueIndex:idx_task_submission_user"`
	ProjectID      string `json:"project_id" gorm:"not null;index"`
	UserID         string `json:"user_id" gorm:"not null;uniqueIndex:idx_task_submission_user"`
	SubmissionLink string `json:"submission_link" gorm:"not null"`
	Status         string `json:"status" gorm:"default:'submitted';index"` // submitted | approved | rejected
	AdminComment   string `json:"admin_comment,omitempty"`

	Screenshots []TaskScreenshot `json:"screenshots,omitempty" gorm:"foreignKey:SubmissionID"`

	Task    *Task    `json:"task,omitempty" gorm:"foreignKey:TaskID"`
	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type TaskScreenshot struct {
	ID           string `json:"id" gorm:"primaryKey"`
	SubmissionID string `json:"submission_id" gorm:"not null;index"`
	URL          string `json:"url"`
	SortOrder    int    `json:"sort_order" gorm:"column:sort_order;default:0"`
}
