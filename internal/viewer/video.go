package viewer

import (
	"net/url"
	"strings"
)

// EmbedURL rewrites YouTube watch and short links into the embeddable form.
// Any other URL is returned unchanged with embed=false and is played as a
// direct media file.
func EmbedURL(raw string) (string, bool) {
	if !strings.Contains(raw, "youtube") && !strings.Contains(raw, "youtu.be") {
		return raw, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.Replace(raw, "watch?v=", "embed/", 1), true
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch {
	case host == "youtu.be":
		id := strings.Trim(u.Path, "/")
		if id == "" {
			return raw, true
		}
		return "https://www.youtube.com/embed/" + id, true
	case strings.HasPrefix(u.Path, "/embed/"):
		return raw, true
	case u.Path == "/watch" && u.Query().Get("v") != "":
		embed := *u
		embed.Path = "/embed/" + u.Query().Get("v")
		q := u.Query()
		q.Del("v")
		embed.RawQuery = q.Encode()
		return embed.String(), true
	}
	return raw, true
}
