package viewer

import (
	"lovealbum/entity"
	"time"
)

const DefaultRevealLabel = "Tap to reveal the secret 💌"

// RenderedBlock is one block as the recipient sees it. Only the fields
// relevant to its type are filled; a hidden message carries its secret only
// while revealed.
type RenderedBlock struct {
	ID          string           `json:"id"`
	Type        entity.BlockType `json:"type"`
	Title       string           `json:"title,omitempty"`
	Text        string           `json:"text,omitempty"`
	URL         string           `json:"url,omitempty"`
	Embed       bool             `json:"embed,omitempty"`
	Playable    bool             `json:"playable,omitempty"`
	ButtonLabel string           `json:"button_label,omitempty"`
	Revealed    bool             `json:"revealed,omitempty"`
	Secret      string           `json:"secret,omitempty"`
	Counter     *Elapsed         `json:"counter,omitempty"`
	Color       string           `json:"color"`
	TextColor   string           `json:"text_color"`
}

// Render turns the album's blocks into their display form, in sequence order.
// Blocks with nothing to show (an empty media URL, a counter without a start
// date) are left out.
func Render(album *entity.Album, revealed map[string]bool, now time.Time) []RenderedBlock {
	start, hasStart := ParseStartDate(album.RelationshipStartDate)
	blocks := make([]RenderedBlock, 0, len(album.Blocks))
	for _, b := range album.Blocks {
		rb := RenderedBlock{
			ID:        b.ID,
			Type:      b.Type,
			Color:     fallback(b.Color, album.BackgroundColor),
			TextColor: fallback(b.TextColor, album.TextColor),
		}
		switch v := b.Variant().(type) {
		case entity.TextBlock:
			rb.Title = v.Title
			rb.Text = v.Body
		case entity.ImageBlock:
			if v.URL == "" {
				continue
			}
			rb.Title = v.Title
			rb.URL = v.URL
		case entity.MusicBlock:
			if v.URL == "" {
				continue
			}
			rb.URL = v.URL
			rb.Playable = true
		case entity.VideoBlock:
			if v.URL == "" {
				continue
			}
			rb.URL, rb.Embed = EmbedURL(v.URL)
			rb.Playable = !rb.Embed
		case entity.HiddenMessageBlock:
			rb.ButtonLabel = fallback(v.ButtonLabel, DefaultRevealLabel)
			if revealed[b.ID] {
				rb.Revealed = true
				rb.Secret = v.Secret
			}
		case entity.CounterBlock:
			if !hasStart {
				continue
			}
			elapsed := ElapsedSince(start, now)
			rb.Counter = &elapsed
		default:
			continue
		}
		blocks = append(blocks, rb)
	}
	return blocks
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
