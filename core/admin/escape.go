package admin

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escape makes q match literally inside an ILIKE pattern.
func escape(q string) string {
	return likeEscaper.Replace(strings.TrimSpace(q))
}
