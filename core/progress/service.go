package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/ecolearn/core/video"
	"github.com/irsalhamdi/ecolearn/database"
	"github.com/sirupsen/logrus"
)

// AdvisoryUnavailable is shown when progress could not be loaded.
const AdvisoryUnavailable = "Unable to load progress. Please refresh the page."

// ErrNotSaved is returned when a progress write is refused or did not land.
var ErrNotSaved = errors.New("progress not saved: check enrollment and sign-in")

type Store interface {
	Watched(ctx context.Context, userID string) ([]int64, error)
	Upsert(ctx context.Context, p Progress) (Progress, error)
}

type Videos interface {
	Fetch(ctx context.Context, id int64) (video.Video, error)
	ListByCourse(ctx context.Context, courseID int64) ([]video.Video, error)
}

// Completion is told when a user has watched a video, so it can award the
// course certificate. It reports whether a certificate was issued.
type Completion interface {
	CourseWatched(ctx context.Context, userID string, courseID int64) (bool, error)
}

type Service struct {
	store      Store
	videos     Videos
	access     video.Access
	completion Completion
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewService(log logrus.FieldLogger, s Store, vs Videos, acc video.Access, c Completion) *Service {
	return &Service{
		store:      s,
		videos:     vs,
		access:     acc,
		completion: c,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Watched returns the ids of every video userID has watched. When the store
// keeps failing the set is empty and the advisory is set.
func (s *Service) Watched(ctx context.Context, userID string) ([]int64, string) {
	ids, err := s.store.Watched(ctx, userID)
	if err != nil {
		s.log.WithField("user_id", userID).Errorf("loading watched videos: %v", err)
		return []int64{}, AdvisoryUnavailable
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, ""
}

type Report struct {
	Result
	CourseID   int64   `json:"courseId"`
	WatchedIDs []int64 `json:"watchedVideoIds"`
	Advisory   string  `json:"advisory,omitempty"`
}

func (s *Service) CourseProgress(ctx context.Context, userID string, courseID int64) (Report, error) {
	vs, err := s.videos.ListByCourse(ctx, courseID)
	if err != nil {
		return Report{}, err
	}

	ids := make([]int64, len(vs))
	inCourse := make(map[int64]bool, len(vs))
	for i, v := range vs {
		ids[i] = v.ID
		inCourse[v.ID] = true
	}

	watched, advisory := s.Watched(ctx, userID)

	mine := []int64{}
	for _, id := range watched {
		if inCourse[id] {
			mine = append(mine, id)
		}
	}

	return Report{
		Result:     Calculate(ids, watched),
		CourseID:   courseID,
		WatchedIDs: mine,
		Advisory:   advisory,
	}, nil
}

type Marked struct {
	VideoID           int64 `json:"videoId"`
	CourseID          int64 `json:"courseId"`
	Progress          int   `json:"progress"`
	Watched           bool  `json:"watched"`
	CertificateIssued bool  `json:"certificateIssued"`
}

// MarkComplete records videoID as watched by userID. Marking twice leaves the
// same state behind.
func (s *Service) MarkComplete(ctx context.Context, userID string, videoID int64) (Marked, error) {
	return s.save(ctx, userID, videoID, 100)
}

// SetProgress records a partial percentage. Reaching 100 counts as watched.
func (s *Service) SetProgress(ctx context.Context, userID string, videoID int64, pct int) (Marked, error) {
	if pct < 0 || pct > 100 {
		return Marked{}, fmt.Errorf("progress %d out of range", pct)
	}
	return s.save(ctx, userID, videoID, pct)
}

func (s *Service) save(ctx context.Context, userID string, videoID int64, pct int) (Marked, error) {
	if userID == "" {
		return Marked{}, ErrNotSaved
	}

	v, err := s.videos.Fetch(ctx, videoID)
	if err != nil {
		return Marked{}, err
	}

	vs, err := s.videos.ListByCourse(ctx, v.CourseID)
	if err != nil {
		return Marked{}, err
	}

	enrolled, err := s.access.IsEnrolled(ctx, userID, v.CourseID)
	if err != nil {
		return Marked{}, err
	}

	if !video.NewGate(enrolled, vs).Playable(v.ID) {
		return Marked{}, ErrNotSaved
	}

	now := s.now()
	p := Progress{
		UserID:     userID,
		VideoID:    v.ID,
		Watched:    pct == 100,
		Percentage: pct,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	saved, err := s.store.Upsert(ctx, p)
	if err != nil {
		if errors.Is(err, database.ErrDBNotFound) {
			return Marked{}, ErrNotSaved
		}
		return Marked{}, err
	}

	m := Marked{VideoID: v.ID, CourseID: v.CourseID, Progress: saved.Percentage, Watched: saved.Watched}
	if !p.Watched || s.completion == nil {
		return m, nil
	}

	issued, err := s.completion.CourseWatched(ctx, userID, v.CourseID)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id":   userID,
			"course_id": v.CourseID,
		}).Errorf("issuing certificate: %v", err)
		return m, nil
	}
	m.CertificateIssued = issued

	return m, nil
}
