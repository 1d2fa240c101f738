package entity

import (
	"lovealbum/lib/validate"
	"net/http"
)

type Speed string

const (
	SpeedSlow   Speed = "slow"
	SpeedNormal Speed = "normal"
	SpeedFast   Speed = "fast"
)

// Album is the document built for one access code; ID is the uppercase code.
// An empty Password means the album opens without a lock screen.
type Album struct {
	ID                    string   `json:"id" bson:"_id"`
	SenderName            string   `json:"sender_name" bson:"sender_name"`
	ReceiverName          string   `json:"receiver_name" bson:"receiver_name"`
	Password              string   `json:"password" bson:"password"`
	PasswordHint          string   `json:"password_hint" bson:"password_hint"`
	MainMessage           string   `json:"main_message" bson:"main_message"`
	BackgroundColor       string   `json:"background_color" bson:"background_color"`
	TextColor             string   `json:"text_color" bson:"text_color"`
	BorderColor           string   `json:"border_color" bson:"border_color"`
	EnableHearts          bool     `json:"enable_hearts" bson:"enable_hearts"`
	EnableLights          bool     `json:"enable_lights" bson:"enable_lights"`
	AnimationSpeed        Speed    `json:"animation_speed" bson:"animation_speed"`
	TextSpeed             Speed    `json:"text_speed" bson:"text_speed"`
	RelationshipStartDate string   `json:"relationship_start_date" bson:"relationship_start_date"`
	Blocks                []*Block `json:"blocks" bson:"blocks"`
	CreatedAt             int64    `json:"created_at" bson:"created_at"`
}

// Clone returns a deep copy so callers can hand out albums without sharing blocks.
func (a *Album) Clone() *Album {
	if a == nil {
		return nil
	}
	c := *a
	c.Blocks = make([]*Block, len(a.Blocks))
	for i, b := range a.Blocks {
		bc := *b
		c.Blocks[i] = &bc
	}
	return &c
}

func (a *Album) FindBlock(id string) *Block {
	for _, b := range a.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// AlbumPatch is a partial album update; nil fields are left untouched.
type AlbumPatch struct {
	SenderName            *string `json:"sender_name,omitempty" validate:"omitempty,max=200"`
	ReceiverName          *string `json:"receiver_name,omitempty" validate:"omitempty,max=200"`
	Password              *string `json:"password,omitempty" validate:"omitempty,max=200"`
	PasswordHint          *string `json:"password_hint,omitempty" validate:"omitempty,max=500"`
	MainMessage           *string `json:"main_message,omitempty"`
	BackgroundColor       *string `json:"background_color,omitempty" validate:"omitempty,max=32"`
	TextColor             *string `json:"text_color,omitempty" validate:"omitempty,max=32"`
	BorderColor           *string `json:"border_color,omitempty" validate:"omitempty,max=32"`
	EnableHearts          *bool   `json:"enable_hearts,omitempty"`
	EnableLights          *bool   `json:"enable_lights,omitempty"`
	AnimationSpeed        *Speed  `json:"animation_speed,omitempty" validate:"omitempty,oneof=slow normal fast"`
	TextSpeed             *Speed  `json:"text_speed,omitempty" validate:"omitempty,oneof=slow normal fast"`
	RelationshipStartDate *string `json:"relationship_start_date,omitempty" validate:"omitempty,max=64"`
}

func (p *AlbumPatch) Bind(_ *http.Request) error {
	return validate.Struct(p)
}

// Apply shallow-merges the patch into the album.
func (p *AlbumPatch) Apply(a *Album) {
	setString(&a.SenderName, p.SenderName)
	setString(&a.ReceiverName, p.ReceiverName)
	setString(&a.Password, p.Password)
	setString(&a.PasswordHint, p.PasswordHint)
	setString(&a.MainMessage, p.MainMessage)
	setString(&a.BackgroundColor, p.BackgroundColor)
	setString(&a.TextColor, p.TextColor)
	setString(&a.BorderColor, p.BorderColor)
	setString(&a.RelationshipStartDate, p.RelationshipStartDate)
	if p.EnableHearts != nil {
		a.EnableHearts = *p.EnableHearts
	}
	if p.EnableLights != nil {
		a.EnableLights = *p.EnableLights
	}
	if p.AnimationSpeed != nil {
		a.AnimationSpeed = *p.AnimationSpeed
	}
	if p.TextSpeed != nil {
		a.TextSpeed = *p.TextSpeed
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// UnlockRequest carries the recipient's password guess.
type UnlockRequest struct {
	Password string `json:"password" validate:"max=200"`
}

func (r *UnlockRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}
