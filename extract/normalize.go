package extract

import (
	"net/url"
	"regexp"
	"strings"

	"hlsgate/gatewayerr"
)

// watchURLPattern recovers an 11-character video id from watch?v=, /embed/,
// or youtu.be/ URL shapes, grounded on famomatic-ytv1/client/input.go's
// ExtractVideoID (watchURLPattern/youtubeIDPattern).
var (
	watchURLPattern  = regexp.MustCompile(`(?:v=|/embed/|youtu\.be/)([0-9A-Za-z_-]{11})`)
	youtubeIDPattern = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)
)

// Normalize implements spec.md §4.6 step 1: recover a video id from any of
// watch?v=ID, youtu.be/ID, embed/ID, rebuild as the canonical watch URL.
// Returns InvalidInput if no id is recoverable or the scheme isn't http(s).
func Normalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", gatewayerr.InvalidInput("invalid URL", err)
	}

	id := extractVideoID(raw)
	if id == "" {
		return "", gatewayerr.InvalidInput("invalid URL", nil)
	}

	return "https://www.youtube.com/watch?v=" + id, nil
}

func extractVideoID(raw string) string {
	if m := watchURLPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if trimmed := strings.TrimPrefix(raw, "https://www.youtube.com/watch?v="); youtubeIDPattern.MatchString(trimmed) {
		return trimmed
	}
	return ""
}
