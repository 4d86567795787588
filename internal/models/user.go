package models

// UserRole mirrors the role claim issued by the hosted auth backend.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleEditor  UserRole = "EDITOR"
	RoleTrainer UserRole = "TRAINER"
	RoleStudent UserRole = "STUDENT"
)

// CalendarWriters may create, edit and delete calendar events.
var CalendarWriters = []UserRole{RoleAdmin, RoleEditor, RoleTrainer}

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleTrainer, RoleStudent:
		return true
	}
	return false
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
