// Package builder edits album drafts in memory. Nothing here persists: a
// draft reaches storage only through an explicit save or publish.
package builder

import (
	"lovealbum/entity"
	"sync"

	"github.com/google/uuid"
)

// NewBlockID returns a fresh block id.
func NewBlockID() string {
	return "block_" + uuid.New().String()
}

// Draft is the in-memory album a builder works on.
type Draft struct {
	mu    sync.Mutex
	album *entity.Album
	newID func() string
	dirty bool
}

func NewDraft(album *entity.Album) *Draft {
	return &Draft{
		album: album.Clone(),
		newID: NewBlockID,
	}
}

// Album returns a copy of the current draft.
func (d *Draft) Album() *entity.Album {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.album.Clone()
}

// Dirty reports whether the draft changed since it was opened or last saved.
func (d *Draft) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty
}

func (d *Draft) MarkSaved() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dirty = false
}

// Update merges a partial album update.
func (d *Draft) Update(patch *entity.AlbumPatch) *entity.Album {
	d.mu.Lock()
	defer d.mu.Unlock()
	patch.Apply(d.album)
	d.dirty = true
	return d.album.Clone()
}

// AddBlock appends an empty block of the given type, coloured like the album.
func (d *Draft) AddBlock(t entity.BlockType) (*entity.Block, error) {
	if !entity.IsValidBlockType(t) {
		return nil, entity.ErrUnknownBlockType
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	block := &entity.Block{
		ID:        d.newID(),
		Type:      t,
		Color:     d.album.BackgroundColor,
		TextColor: d.album.TextColor,
		Order:     len(d.album.Blocks),
	}
	d.album.Blocks = append(d.album.Blocks, block)
	d.dirty = true
	out := *block
	return &out, nil
}

// UpdateBlock merges the patch into the block with the given id.
// It reports false, leaving the draft untouched, when there is no such block.
func (d *Draft) UpdateBlock(id string, patch *entity.BlockPatch) (*entity.Block, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	block := d.album.FindBlock(id)
	if block == nil {
		return nil, false
	}
	patch.Apply(block)
	d.dirty = true
	out := *block
	return &out, true
}

func (d *Draft) RemoveBlock(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	kept := make([]*entity.Block, 0, len(d.album.Blocks))
	for _, b := range d.album.Blocks {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(d.album.Blocks) {
		return false
	}
	d.album.Blocks = kept
	d.dirty = true
	return true
}

// DuplicateBlock appends a copy of the block at the end of the sequence,
// not next to the original.
func (d *Draft) DuplicateBlock(id string) (*entity.Block, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	block := d.album.FindBlock(id)
	if block == nil {
		return nil, false
	}
	dup := *block
	dup.ID = d.newID()
	dup.Order = len(d.album.Blocks)
	d.album.Blocks = append(d.album.Blocks, &dup)
	d.dirty = true
	out := dup
	return &out, true
}
