package domain

import (
	"strings"
	"time"
)

// User is an enrolled student. Enrollment is the identity used in the gallery.
type User struct {
	Enrollment string    `json:"enrollment"`
	Name       string    `json:"name"`
	Class      string    `json:"class"`
	Semester   string    `json:"semester"`
	ImagePath  string    `json:"image_path"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (u *User) Identity() Identity {
	return Identity(u.Enrollment)
}

// Normalize trims surrounding whitespace from every text field.
func (u *User) Normalize() {
	u.Enrollment = strings.TrimSpace(u.Enrollment)
	u.Name = strings.TrimSpace(u.Name)
	u.Class = strings.TrimSpace(u.Class)
	u.Semester = strings.TrimSpace(u.Semester)
}

// MissingFields lists the required fields that are empty.
func (u *User) MissingFields() []string {
	var missing []string
	if u.Name == "" {
		missing = append(missing, "name")
	}
	if u.Enrollment == "" {
		missing = append(missing, "enrollment")
	}
	if u.Class == "" {
		missing = append(missing, "class")
	}
	if u.Semester == "" {
		missing = append(missing, "semester")
	}
	return missing
}
