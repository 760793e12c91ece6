package enrollment

import "time"

type Status string

const (
	Active    Status = "active"
	Completed Status = "completed"
	Expired   Status = "expired"
)

// GrantsAccess reports whether the enrollment unlocks every video.
func (s Status) GrantsAccess() bool {
	return s == Active || s == Completed
}

type Enrollment struct {
	ID             int64     `json:"id" db:"enrollment_id"`
	UserID         string    `json:"userId" db:"user_id"`
	CourseID       int64     `json:"courseId" db:"course_id"`
	Status         Status    `json:"status" db:"status"`
	PaymentID      *string   `json:"paymentId,omitempty" db:"payment_id"`
	EnrollmentDate time.Time `json:"enrollmentDate" db:"enrollment_date"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}
