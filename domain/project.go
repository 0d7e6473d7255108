package domain

import "time"

// Project statuses as reported by the workspace API.
const (
	ProjectInProgress = "in_progress"
	ProjectClosing    = "closing"
	ProjectClosed     = "closed"
)

// Project is a workspace project record.
type Project struct {
	ID           string        `json:"id"`
	UserID       string        `json:"userId"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Image        string        `json:"image,omitempty"`
	Budget       float64       `json:"budget,omitempty"`
	Status       string        `json:"status"`
	StartsAt     *time.Time    `json:"startsAt,omitempty"`
	Participants []Participant `json:"participants,omitempty"`
}

// EntityID implements store.Entity.
func (p Project) EntityID() string { return p.ID }

// Invitation asks a user to join a project.
type Invitation struct {
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
	Email     string `json:"email,omitempty"`
}

// ProjectView captures the project list presentation preferences that
// survive across sessions.
type ProjectView struct {
	SortBy   string `json:"sortBy"`
	Checkout string `json:"checkout"`
}
