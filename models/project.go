package models

import "time"

const (
	ProjectStatusActive   = "active"
	ProjectStatusArchived = "archived"
)

type Project struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Status      string `json:"status" gorm:"default:'active'"` // active | archived
	CreatedBy   string `json:"created_by" gorm:"not null"`

	// Relationships
	Assignments []ProjectAssignment `json:"assignments,omitempty" gorm:"foreignKey:ProjectID"`
	Tasks       []Task              `json:"tasks,omitempty" gorm:"foreignKey:ProjectID"`

	Timestamps
}

// ProjectAssignment links an external user to a project they may work on.
type ProjectAssignment struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ProjectID      string    `json:"project_id" gorm:"not null;uniqueIndex:idx_project_assignment_user"`
	ExternalUserID string    `json:"external_user_id" gorm:"not null;uniqueIndex:idx_project_assignment_user"`
	AssignedAt     time.Time `json:"assigned_at" gorm:"autoCreateTime"`
}
