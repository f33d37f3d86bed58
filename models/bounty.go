package models

import (
	"fmt"
	"time"
)

const (
	BountyStatusActive = "active"
	BountyStatusClosed = "closed"
)

const (
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusApproved  = "approved"
	SubmissionStatusRejected  = "rejected"
)

// Bounty is a time-boxed reward task open to user submissions.
// The window is derived from CreatedAt + duration and is never stored:
// duration edits on an active bounty move the end of the window implicitly.
type Bounty struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	Title           string    `json:"title" gorm:"not null"`
	Description     string    `json:"description"`
	Reward          string    `json:"reward" gorm:"not null"` // free-form, displayed verbatim, never parsed
	DurationHours   int       `json:"duration_hours" gorm:"not null;default:1"`
	DurationMinutes int       `json:"duration_minutes" gorm:"not null;default:0"`
	Status          string    `json:"status" gorm:"default:'active';index"` // active | closed
	CreatedBy       string    `json:"created_by" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Calculated fields (not stored in DB)
	StartTime       *time.Time `json:"start_time,omitempty" gorm:"-"`
	EndTime         *time.Time `json:"end_time,omitempty" gorm:"-"`
	SubmissionCount int64      `json:"submission_count,omitempty" gorm:"-"`
}

// ValidateDuration checks the duration bounds used by create and update.
func ValidateDuration(hours, minutes int) error {
	if hours < 0 {
		return fmt.Errorf("duration_hours must be >= 0, got %d", hours)
	}
	if minutes < 0 || minutes > 59 {
		return fmt.Errorf("duration_minutes must be between 0 and 59, got %d", minutes)
	}
	return nil
}

// TotalMinutes is the full length of the bounty window.
func (b *Bounty) TotalMinutes() int {
	return b.DurationHours*60 + b.DurationMinutes
}

// WindowStart is the instant the bounty opened.
func (b *Bounty) WindowStart() time.Time {
	return b.CreatedAt
}

// WindowEnd is WindowStart + duration. A zero-duration bounty ends the
// instant it is created.
func (b *Bounty) WindowEnd() time.Time {
	return b.CreatedAt.Add(time.Duration(b.TotalMinutes()) * time.Minute)
}

// ExpiredAt reports whether the window has passed at the given instant.
func (b *Bounty) ExpiredAt(now time.Time) bool {
	return !now.Before(b.WindowEnd())
}

// ComputedStatus is the live lifecycle state. Closure is one-way: a closed
// bounty never reads as active again, no matter the clock.
func (b *Bounty) ComputedStatus(now time.Time) string {
	if b.Status == BountyStatusClosed {
		return BountyStatusClosed
	}
	if b.ExpiredAt(now) {
		return BountyStatusClosed
	}
	return BountyStatusActive
}

// RemainingMinutes returns whole minutes left in the window, floored at 0.
func (b *Bounty) RemainingMinutes(now time.Time) int {
	left := b.WindowEnd().Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Minute)
}

// AttachWindow fills the calculated start/end fields for JSON responses.
func (b *Bounty) AttachWindow() {
	start := b.WindowStart()
	end := b.WindowEnd()
	b.StartTime = &start
	b.EndTime = &end
}

// BountySubmission is a user's claimed proof-of-completion for a bounty.
// The composite unique index is the authoritative guard against double
// submission; the application-level pre-check is only a fast path.
type BountySubmission struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	BountyID       string    `json:"bounty_id" gorm:"not null;uniqueIndex:idx_bounty_submission_user"`
	UserID         string    `json:"user_id" gorm:"not null;uniqueIndex:idx_bounty_submission_user"`
	SubmissionLink string    `json:"submission_link" gorm:"not null"`
	Description    string    `json:"description,omitempty"`
	Status         string    `json:"status" gorm:"default:'submitted';index"` // submitted | approved | rejected
	AdminComment   string    `json:"admin_comment,omitempty"`
	Reward         string    `json:"reward,omitempty"` // admin override, optional
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	Bounty *Bounty `json:"bounty,omitempty" gorm:"foreignKey:BountyID"`
}

// ValidSubmissionStatus reports whether s is a reviewable submission state.
func ValidSubmissionStatus(s string) bool {
	switch s {
	case SubmissionStatusSubmitted, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	}
	return false
}
