// Package admin serves the reporting views of the back office.
package admin

import (
	"time"

	"github.com/irsalhamdi/ecolearn/core/course"
	"github.com/irsalhamdi/ecolearn/core/enrollment"
)

type Summary struct {
	Users       int `json:"users" db:"users"`
	Courses     int `json:"courses" db:"courses"`
	Enrollments int `json:"enrollments" db:"enrollments"`
	Completions int `json:"completions" db:"completions"`
}

type UserRow struct {
	ID        string    `json:"id" db:"user_id"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"fullName" db:"full_name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type EnrollmentRow struct {
	enrollment.Enrollment
	UserEmail   string `json:"userEmail" db:"user_email"`
	CourseTitle string `json:"courseTitle" db:"course_title"`
}

type SearchResult struct {
	Query       string          `json:"query"`
	Users       []UserRow       `json:"users"`
	Courses     []course.Course `json:"courses"`
	Enrollments []EnrollmentRow `json:"enrollments"`
}
