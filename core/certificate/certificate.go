package certificate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/irsalhamdi/ecolearn/random"
)

type Certificate struct {
	ID           int64     `json:"id" db:"certificate_id"`
	UserID       string    `json:"userId" db:"user_id"`
	CourseID     int64     `json:"courseId" db:"course_id"`
	Number       string    `json:"certificateNumber" db:"certificate_number"`
	IssueDate    time.Time `json:"issueDate" db:"issue_date"`
	UserFullName string    `json:"userFullName" db:"user_full_name"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// WithCourse is a certificate listed together with its course title.
type WithCourse struct {
	Certificate
	CourseTitle string `json:"courseTitle" db:"course_title"`
}

// ErrIncomplete is returned when the course has videos left to watch, or
// none at all.
var ErrIncomplete = errors.New("course not completed")

const suffixLen = 10

// NewNumber builds prefix followed by a random alphanumeric suffix.
func NewNumber(prefix string) (string, error) {
	s, err := random.StringSecure(suffixLen)
	if err != nil {
		return "", fmt.Errorf("generating certificate number: %w", err)
	}
	return prefix + s, nil
}

func ValidNumber(prefix string, n string) bool {
	s, ok := strings.CutPrefix(n, prefix)
	return ok && len(s) == suffixLen && random.IsAlphanumeric(s)
}
