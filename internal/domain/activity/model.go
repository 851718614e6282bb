package activity

import "time"

// Category groups audit entries the way the platform's own log does.
type Category string

const (
	CategoryManageDesign Category = "Manage/Design"
	CategoryNewContact   Category = "New Contact"
)

// Entry is one audit log line written by the monitor.
type Entry struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Category  Category  `json:"category"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
