package entity

import (
	"lovealbum/lib/validate"
	"net/http"
)

type BlockType string

const (
	BlockText          BlockType = "text"
	BlockImage         BlockType = "image"
	BlockMusic         BlockType = "music"
	BlockVideo         BlockType = "video"
	BlockHiddenMessage BlockType = "hidden-message"
	BlockCounter       BlockType = "counter"
)

var blockTypes = []BlockType{
	BlockText,
	BlockImage,
	BlockMusic,
	BlockVideo,
	BlockHiddenMessage,
	BlockCounter,
}

func AllBlockTypes() []BlockType {
	result := make([]BlockType, len(blockTypes))
	copy(result, blockTypes)
	return result
}

func IsValidBlockType(t BlockType) bool {
	for _, bt := range blockTypes {
		if bt == t {
			return true
		}
	}
	return false
}

// Block is the stored form of one album content unit.
// Content and Title mean different things per type; use Variant to read them.
type Block struct {
	ID        string    `json:"id" bson:"id"`
	Type      BlockType `json:"type" bson:"type"`
	Content   string    `json:"content" bson:"content"`
	Title     string    `json:"title,omitempty" bson:"title,omitempty"`
	Color     string    `json:"color,omitempty" bson:"color,omitempty"`
	TextColor string    `json:"text_color,omitempty" bson:"text_color,omitempty"`
	Order     int       `json:"order" bson:"order"`
}

// BlockPatch is a partial block update; the block type cannot be changed.
type BlockPatch struct {
	Content   *string `json:"content,omitempty"`
	Title     *string `json:"title,omitempty" validate:"omitempty,max=500"`
	Color     *string `json:"color,omitempty" validate:"omitempty,max=32"`
	TextColor *string `json:"text_color,omitempty" validate:"omitempty,max=32"`
}

func (p *BlockPatch) Bind(_ *http.Request) error {
	return validate.Struct(p)
}

func (p *BlockPatch) Apply(b *Block) {
	setString(&b.Content, p.Content)
	setString(&b.Title, p.Title)
	setString(&b.Color, p.Color)
	setString(&b.TextColor, p.TextColor)
}

// NewBlockRequest is the body of the "add block" call.
type NewBlockRequest struct {
	Type BlockType `json:"type" validate:"required,oneof=text image music video hidden-message counter"`
}

func (r *NewBlockRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}
