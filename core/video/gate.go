package video

import (
	"errors"

	"github.com/irsalhamdi/ecolearn/core/course"
)

// ErrLocked is returned when a video is requested without access to it.
var ErrLocked = errors.New("video locked: enroll in the course to watch it")

// FirstVideo picks the video of the lowest ordered chapter, ties broken by
// chapter id, with the lowest id inside that chapter. The input order does
// not matter.
func FirstVideo(vs []Video) (Video, bool) {
	if len(vs) == 0 {
		return Video{}, false
	}

	first := vs[0]
	for _, v := range vs[1:] {
		if before(v, first) {
			first = v
		}
	}
	return first, true
}

func before(a, b Video) bool {
	if a.OrderIndex != b.OrderIndex {
		return a.OrderIndex < b.OrderIndex
	}
	if a.ChapterID != b.ChapterID {
		return a.ChapterID < b.ChapterID
	}
	return a.ID < b.ID
}

// Gate decides which videos of one course a user may play.
type Gate struct {
	Enrolled bool
	FirstID  int64
}

func NewGate(enrolled bool, vs []Video) Gate {
	g := Gate{Enrolled: enrolled}
	if f, ok := FirstVideo(vs); ok {
		g.FirstID = f.ID
	}
	return g
}

func (g Gate) Playable(videoID int64) bool {
	if g.Enrolled {
		return true
	}
	return g.FirstID != 0 && videoID == g.FirstID
}

// BuildOutline groups vs under their chapters in chapter order. Chapters
// without videos are kept with an empty list.
func BuildOutline(courseID int64, chs []course.Chapter, vs []Video, g Gate) Outline {
	byChapter := make(map[int64][]Entry, len(chs))
	for _, v := range vs {
		e := Entry{
			ID:       v.ID,
			Title:    v.Title,
			Duration: v.Duration,
			Locked:   !g.Playable(v.ID),
		}
		if !e.Locked {
			e.URL = v.URL
			e.YoutubeID = YoutubeID(v.URL)
		}
		byChapter[v.ChapterID] = append(byChapter[v.ChapterID], e)
	}

	o := Outline{
		CourseID: courseID,
		Enrolled: g.Enrolled,
		FirstID:  g.FirstID,
		Chapters: make([]ChapterOutline, 0, len(chs)),
	}
	for _, ch := range chs {
		es := byChapter[ch.ID]
		if es == nil {
			es = []Entry{}
		}
		o.Chapters = append(o.Chapters, ChapterOutline{
			ID:         ch.ID,
			Title:      ch.Title,
			OrderIndex: ch.OrderIndex,
			Videos:     es,
		})
	}
	return o
}
