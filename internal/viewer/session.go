// Package viewer decides what a recipient may see of an album and in what
// order: the password lock, the entrance card, the rendered blocks, reveal
// toggles for hidden messages and the relationship counter.
package viewer

import (
	"crypto/subtle"
	"lovealbum/entity"
	"sync"
	"time"
)

type Stage string

const (
	StageLocked   Stage = "locked"
	StageUnlocked Stage = "unlocked"
	StageEntered  Stage = "entered"
)

// Entrance is the card shown between unlocking and entering.
type Entrance struct {
	ReceiverName string `json:"receiver_name"`
	SenderName   string `json:"sender_name"`
	MainMessage  string `json:"main_message,omitempty"`
}

const (
	DefaultReceiverName = "my love"
	DefaultSenderName   = "your lover"
)

// Theme is the album-level look the client applies around the blocks.
type Theme struct {
	BackgroundColor string       `json:"background_color"`
	TextColor       string       `json:"text_color"`
	BorderColor     string       `json:"border_color"`
	EnableHearts    bool         `json:"enable_hearts"`
	EnableLights    bool         `json:"enable_lights"`
	AnimationSpeed  entity.Speed `json:"animation_speed"`
	TextSpeed       entity.Speed `json:"text_speed"`

	// AnimationDelayMs is the stagger between blocks for AnimationSpeed.
	AnimationDelayMs int64 `json:"animation_delay_ms"`
}

// View is a snapshot of a session. Fields beyond Stage are filled only as
// far as the stage allows: nothing but the hint while locked, the entrance
// card once unlocked, the blocks once entered.
type View struct {
	SessionID     string          `json:"session_id"`
	AlbumID       string          `json:"album_id"`
	Stage         Stage           `json:"stage"`
	PasswordHint  string          `json:"password_hint,omitempty"`
	WrongPassword bool            `json:"wrong_password,omitempty"`
	Entrance      *Entrance       `json:"entrance,omitempty"`
	Theme         *Theme          `json:"theme,omitempty"`
	Blocks        []RenderedBlock `json:"blocks,omitempty"`
}

// Session is one recipient's pass through an album. It is never persisted.
type Session struct {
	mu            sync.Mutex
	id            string
	album         *entity.Album
	stage         Stage
	wrongPassword bool
	revealed      map[string]bool
}

// NewSession starts locked when the album has a password, unlocked otherwise.
func NewSession(id string, album *entity.Album) *Session {
	s := &Session{
		id:       id,
		album:    album.Clone(),
		stage:    StageUnlocked,
		revealed: make(map[string]bool),
	}
	if album.Password != "" {
		s.stage = StageLocked
	}
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) AlbumID() string {
	return s.album.ID
}

func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Unlock compares the guess with the album password, case-sensitively.
// A wrong guess keeps the session locked and may be retried without limit.
func (s *Session) Unlock(guess string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageLocked {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(guess), []byte(s.album.Password)) != 1 {
		s.wrongPassword = true
		return entity.ErrPasswordMismatch
	}
	s.wrongPassword = false
	s.stage = StageUnlocked
	return nil
}

// Enter opens the album past the entrance card. Entered is terminal.
func (s *Session) Enter() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage == StageLocked {
		return entity.ErrLocked
	}
	s.stage = StageEntered
	return nil
}

// ToggleReveal flips the reveal flag of a hidden-message block and returns the new value.
func (s *Session) ToggleReveal(blockID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageEntered {
		return false, entity.ErrNotEntered
	}
	block := s.album.FindBlock(blockID)
	if block == nil || block.Type != entity.BlockHiddenMessage {
		return false, entity.ErrBlockNotFound
	}
	s.revealed[blockID] = !s.revealed[blockID]
	return s.revealed[blockID], nil
}

// CounterStart reports the parsed start date when the counter can be shown.
func (s *Session) CounterStart() (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage != StageEntered {
		return time.Time{}, entity.ErrNotEntered
	}
	start, ok := ParseStartDate(s.album.RelationshipStartDate)
	if !ok {
		return time.Time{}, entity.ErrBlockNotFound
	}
	return start, nil
}

func (s *Session) View(now time.Time) *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &View{
		SessionID: s.id,
		AlbumID:   s.album.ID,
		Stage:     s.stage,
	}
	if s.stage == StageLocked {
		v.PasswordHint = s.album.PasswordHint
		v.WrongPassword = s.wrongPassword
		return v
	}
	v.Entrance = &Entrance{
		ReceiverName: fallback(s.album.ReceiverName, DefaultReceiverName),
		SenderName:   fallback(s.album.SenderName, DefaultSenderName),
		MainMessage:  s.album.MainMessage,
	}
	v.Theme = &Theme{
		BackgroundColor:  s.album.BackgroundColor,
		TextColor:        s.album.TextColor,
		BorderColor:      s.album.BorderColor,
		EnableHearts:     s.album.EnableHearts,
		EnableLights:     s.album.EnableLights,
		AnimationSpeed:   s.album.AnimationSpeed,
		TextSpeed:        s.album.TextSpeed,
		AnimationDelayMs: AnimationDelay(s.album.AnimationSpeed).Milliseconds(),
	}
	if s.stage == StageEntered {
		v.Blocks = Render(s.album, s.revealed, now)
	}
	return v
}

// AnimationDelay is the stagger between blocks appearing.
func AnimationDelay(speed entity.Speed) time.Duration {
	switch speed {
	case entity.SpeedSlow:
		return 400 * time.Millisecond
	case entity.SpeedFast:
		return 100 * time.Millisecond
	}
	return 200 * time.Millisecond
}
