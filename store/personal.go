package store

import (
	"sync"

	"QRKara/model"
)

// PersonalStore is the submitter's own song list, including pending songs
// that no shared queue shows. It is refetched, never patched: song_finished
// events carry no payload.
type PersonalStore struct {
	mu    sync.RWMutex
	songs []model.Song
	subs  []func()
}

// NewPersonalStore creates an empty personal list.
func NewPersonalStore() *PersonalStore {
	return &PersonalStore{}
}

// Subscribe registers fn to run after every replacement.
func (p *PersonalStore) Subscribe(fn func()) {
	p.mu.Lock()
	p.subs = append(p.subs, fn)
	p.mu.Unlock()
}

// Replace swaps the list wholesale with a fresh fetch.
func (p *PersonalStore) Replace(songs []model.Song) {
	p.mu.Lock()
	p.songs = append([]model.Song(nil), songs...)
	subs := make([]func(), len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Songs returns a copy of the list.
func (p *PersonalStore) Songs() []model.Song {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]model.Song(nil), p.songs...)
}
