package entity

import (
	"lovealbum/lib/validate"
	"net/http"
	"strings"
	"time"
)

// EditWindow is how long an album stays editable after its code is first redeemed.
const EditWindow = 24 * time.Hour

// AccessCode gates both the existence and the mutability of an Album.
// Codes are stored uppercase; lookups normalize input with NormalizeCode.
// ExpiresAt is derived from FirstUsedAt and is kept for display only.
type AccessCode struct {
	Code        string    `json:"code" bson:"code"`
	Used        bool      `json:"used" bson:"used"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	FirstUsedAt time.Time `json:"first_used_at,omitzero" bson:"first_used_at"`
	ExpiresAt   time.Time `json:"expires_at,omitzero" bson:"expires_at"`
}

func NewAccessCode(code string, now time.Time) *AccessCode {
	return &AccessCode{
		Code:      NormalizeCode(code),
		CreatedAt: now,
	}
}

// Redeemed reports whether the first redemption has been stamped.
func (c *AccessCode) Redeemed() bool {
	return c.Used && !c.FirstUsedAt.IsZero()
}

// Redeem stamps the first redemption; repeated calls keep the original stamp.
func (c *AccessCode) Redeem(now time.Time) bool {
	if c.Redeemed() {
		return false
	}
	c.Used = true
	c.FirstUsedAt = now
	c.ExpiresAt = now.Add(EditWindow)
	return true
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CodeRequest is the body of the entry and admin "add code" calls.
type CodeRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

func (r *CodeRequest) Bind(_ *http.Request) error {
	r.Code = strings.TrimSpace(r.Code)
	return validate.Struct(r)
}

// ExtendRequest carries the number of hours to leave on an edit window.
type ExtendRequest struct {
	Hours int `json:"hours" validate:"omitempty,min=1,max=720"`
}

func (r *ExtendRequest) Bind(_ *http.Request) error {
	if r.Hours == 0 {
		r.Hours = int(EditWindow / time.Hour)
	}
	return validate.Struct(r)
}

// EntryRequest is the body of the entry screen; an empty code is answered
// with a prompt rather than rejected.
type EntryRequest struct {
	Code string `json:"code" validate:"max=64"`
}

func (r *EntryRequest) Bind(_ *http.Request) error {
	return validate.Struct(r)
}
