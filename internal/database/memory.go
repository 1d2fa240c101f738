package database

import (
	"context"
	"lovealbum/entity"
	"sync"
)

// Memory keeps codes and albums in process memory. Records are copied on the
// way in and out so callers never share state with the store.
type Memory struct {
	mu     sync.RWMutex
	codes  []*entity.AccessCode
	albums map[string]*entity.Album
}

func NewMemory() *Memory {
	return &Memory{
		albums: make(map[string]*entity.Album),
	}
}

func (m *Memory) Codes(_ context.Context) ([]*entity.AccessCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := make([]*entity.AccessCode, len(m.codes))
	for i, c := range m.codes {
		cc := *c
		codes[i] = &cc
	}
	return codes, nil
}

func (m *Memory) FindCode(_ context.Context, code string) (*entity.AccessCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.codes {
		if c.Code == code {
			cc := *c
			return &cc, nil
		}
	}
	return nil, nil
}

func (m *Memory) InsertCode(_ context.Context, code *entity.AccessCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc := *code
	m.codes = append(m.codes, &cc)
	return nil
}

// UpdateCode overwrites the first record carrying the same code.
func (m *Memory) UpdateCode(_ context.Context, code *entity.AccessCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.codes {
		if c.Code == code.Code {
			cc := *code
			m.codes[i] = &cc
			return nil
		}
	}
	return entity.ErrCodeNotFound
}

func (m *Memory) DeleteCode(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.codes[:0]
	for _, c := range m.codes {
		if c.Code != code {
			kept = append(kept, c)
		}
	}
	m.codes = kept
	return nil
}

func (m *Memory) GetAlbum(_ context.Context, id string) (*entity.Album, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	album, ok := m.albums[id]
	if !ok {
		return nil, nil
	}
	return album.Clone(), nil
}

func (m *Memory) SaveAlbum(_ context.Context, album *entity.Album) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.albums[album.ID] = album.Clone()
	return nil
}

func (m *Memory) DeleteAlbum(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.albums, id)
	return nil
}

func (m *Memory) Close() {}
