package progress

import (
	"math"
	"time"
)

type Progress struct {
	UserID     string    `json:"userId" db:"user_id"`
	VideoID    int64     `json:"videoId" db:"video_id"`
	Watched    bool      `json:"watched" db:"watched"`
	Percentage int       `json:"progress" db:"progress_percentage"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

type ProgressUp struct {
	Progress int `json:"progress" validate:"gte=0,lte=100"`
}

type Result struct {
	Progress   int  `json:"progress"`
	Watched    int  `json:"watched"`
	Total      int  `json:"total"`
	AllWatched bool `json:"allWatched"`
}

// Calculate reports how much of a course, given by its video ids, has been
// watched. Duplicates in either list are counted once.
func Calculate(videoIDs []int64, watchedIDs []int64) Result {
	course := make(map[int64]struct{}, len(videoIDs))
	for _, id := range videoIDs {
		course[id] = struct{}{}
	}

	seen := make(map[int64]struct{}, len(watchedIDs))
	for _, id := range watchedIDs {
		if _, ok := course[id]; ok {
			seen[id] = struct{}{}
		}
	}

	r := Result{Watched: len(seen), Total: len(course)}
	if r.Total == 0 {
		return r
	}

	r.Progress = int(math.Round(100 * float64(r.Watched) / float64(r.Total)))
	r.AllWatched = r.Watched == r.Total
	return r
}
