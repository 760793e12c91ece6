package course

import "time"

// Course prices are kept in the smallest currency unit.
type Course struct {
	ID          int64     `json:"id" db:"course_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	ImageURL    string    `json:"imageUrl" db:"image_url"`
	Price       int64     `json:"price" db:"price"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type CourseNew struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" validate:"gte=0,lte=10000000"`
	ImageURL    string `json:"imageUrl"`
}

type CourseUp struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *int64  `json:"price" validate:"omitempty,gte=0,lte=10000000"`
	ImageURL    *string `json:"imageUrl"`
}

type Chapter struct {
	ID          int64     `json:"id" db:"chapter_id"`
	CourseID    int64     `json:"courseId" db:"course_id"`
	OrderIndex  int       `json:"orderIndex" db:"order_index"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type ChapterNew struct {
	CourseID    int64  `json:"courseId" validate:"required,gt=0"`
	OrderIndex  int    `json:"orderIndex" validate:"gte=0"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// Detail is what the storefront renders for a single course.
type Detail struct {
	Course
	Sections Sections `json:"sections"`
}
