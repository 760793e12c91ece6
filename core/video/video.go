package video

import "time"

// Video rows carry the course and chapter position they belong to, joined in
// by every read so that gating never needs a second lookup.
type Video struct {
	ID          int64     `json:"id" db:"video_id"`
	ChapterID   int64     `json:"chapterId" db:"chapter_id"`
	CourseID    int64     `json:"courseId" db:"course_id"`
	OrderIndex  int       `json:"-" db:"order_index"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	URL         string    `json:"-" db:"video_url"`
	Duration    *int      `json:"duration,omitempty" db:"duration"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type VideoNew struct {
	ChapterID   int64  `json:"chapterId" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	URL         string `json:"url" validate:"required,url"`
	Duration    *int   `json:"duration" validate:"omitempty,gte=0"`
}

// Playable is a video the caller may watch.
type Playable struct {
	Video
	URL       string `json:"url"`
	YoutubeID string `json:"youtubeId,omitempty"`
}

func NewPlayable(v Video) Playable {
	return Playable{Video: v, URL: v.URL, YoutubeID: YoutubeID(v.URL)}
}

// Entry is one line of a course outline. URL is only set when playable.
type Entry struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Duration  *int   `json:"duration,omitempty"`
	Locked    bool   `json:"locked"`
	URL       string `json:"url,omitempty"`
	YoutubeID string `json:"youtubeId,omitempty"`
}

type ChapterOutline struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	OrderIndex int     `json:"orderIndex"`
	Videos     []Entry `json:"videos"`
}

type Outline struct {
	CourseID int64            `json:"courseId"`
	Enrolled bool             `json:"enrolled"`
	FirstID  int64            `json:"firstVideoId,omitempty"`
	Chapters []ChapterOutline `json:"chapters"`
}
