package video

import "regexp"

var youtubeURL = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|embed/|shorts/|v/)|youtu\.be/)([A-Za-z0-9_-]{11})`)

// YoutubeID returns the 11 character id of a YouTube url, or "" for anything
// else.
func YoutubeID(url string) string {
	m := youtubeURL.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}
