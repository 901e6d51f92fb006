// Package store owns the expense history and UI theme, mirroring both to
// durable local slots.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
)

// Slot names in local storage
const (
	SlotHistory = "expenseHistory"
	SlotTheme   = "appTheme"
)

// ErrDuplicateID is returned when an entry id is already stored
var ErrDuplicateID = errors.New("store: duplicate entry id")

// KV is durable named-slot storage
type KV interface {
	Get(ctx context.Context, name string) ([]byte, bool, error)
	Set(ctx context.Context, name string, value []byte) error
	Delete(ctx context.Context, name string) error
}

// Snapshot is the state handed to subscribers after every change
type Snapshot struct {
	Entries []entity.ExpenseEntry
	Theme   entity.Theme
}

// Listener receives snapshots after each mutation
type Listener func(Snapshot)

// ReportStore is the single writer of the expense list. The in-memory state
// stays authoritative when persistence fails.
type ReportStore struct {
	kv     KV
	logger *zap.Logger

	mu        sync.RWMutex
	entries   []entity.ExpenseEntry
	theme     entity.Theme
	loaded    bool
	listeners map[int]Listener
	nextSub   int
}

// New creates an empty store backed by kv
func New(kv KV, logger *zap.Logger) *ReportStore {
	return &ReportStore{
		kv:        kv,
		logger:    logger,
		entries:   []entity.ExpenseEntry{},
		theme:     entity.ThemeLight,
		listeners: make(map[int]Listener),
	}
}

// Load rehydrates entries and theme from storage. Only the first call reads;
// corrupt slots are removed and treated as empty.
func (s *ReportStore) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return
	}
	s.loaded = true

	if data, ok := s.read(ctx, SlotHistory); ok {
		var entries []entity.ExpenseEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			s.logger.Warn("Discarding corrupt history slot", zap.Error(err))
			s.remove(ctx, SlotHistory)
		} else if entries != nil {
			s.entries = entries
		}
	}

	if data, ok := s.read(ctx, SlotTheme); ok {
		theme := entity.Theme(data)
		if theme.Valid() {
			s.theme = theme
		} else {
			s.logger.Warn("Discarding unknown theme", zap.String("theme", string(data)))
			s.remove(ctx, SlotTheme)
		}
	}

	s.logger.Info("Report store loaded",
		zap.Int("entries", len(s.entries)),
		zap.String("theme", string(s.theme)))
}

// Entries returns a copy of the list, most recent first
func (s *ReportStore) Entries() []entity.ExpenseEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.ExpenseEntry{}, s.entries...)
}

// Get looks an entry up by id
func (s *ReportStore) Get(id string) (entity.ExpenseEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return entity.ExpenseEntry{}, false
}

// Add prepends entry, swapping in a freshly built list, then persists it
func (s *ReportStore) Add(ctx context.Context, entry entity.ExpenseEntry) error {
	s.mu.Lock()
	for _, e := range s.entries {
		if e.ID == entry.ID {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID)
		}
	}

	next := make([]entity.ExpenseEntry, 0, len(s.entries)+1)
	next = append(next, entry)
	next = append(next, s.entries...)
	s.entries = next
	s.persistEntries(ctx)
	snap := s.snapshot()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Clear empties the list and deletes the history slot
func (s *ReportStore) Clear(ctx context.Context) {
	s.mu.Lock()
	s.entries = []entity.ExpenseEntry{}
	s.remove(ctx, SlotHistory)
	snap := s.snapshot()
	s.mu.Unlock()

	s.logger.Info("Expense history cleared")
	s.notify(snap)
}

// Theme returns the current UI theme
func (s *ReportStore) Theme() entity.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// SetTheme stores a new theme
func (s *ReportStore) SetTheme(ctx context.Context, theme entity.Theme) error {
	if !theme.Valid() {
		return &entity.ValidationError{Field: "theme", Message: fmt.Sprintf("Unknown theme %q.", theme)}
	}

	s.mu.Lock()
	s.theme = theme
	s.write(ctx, SlotTheme, []byte(theme))
	snap := s.snapshot()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// ToggleTheme flips between light and dark and returns the new theme
func (s *ReportStore) ToggleTheme(ctx context.Context) entity.Theme {
	s.mu.Lock()
	s.theme = s.theme.Toggle()
	s.write(ctx, SlotTheme, []byte(s.theme))
	snap := s.snapshot()
	s.mu.Unlock()

	s.notify(snap)
	return snap.Theme
}

// Subscribe registers fn for change notifications. The returned func
// unregisters it.
func (s *ReportStore) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *ReportStore) snapshot() Snapshot {
	return Snapshot{
		Entries: append([]entity.ExpenseEntry{}, s.entries...),
		Theme:   s.theme,
	}
}

func (s *ReportStore) notify(snap Snapshot) {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (s *ReportStore) persistEntries(ctx context.Context) {
	data, err := json.Marshal(s.entries)
	if err != nil {
		s.logger.Warn("Failed to serialize history", zap.Error(err))
		return
	}
	s.write(ctx, SlotHistory, data)
}

// read, write and remove log storage failures and never return them

func (s *ReportStore) read(ctx context.Context, slot string) ([]byte, bool) {
	data, ok, err := s.kv.Get(ctx, slot)
	if err != nil {
		s.logger.Warn("Failed to read slot", zap.String("slot", slot), zap.Error(err))
		return nil, false
	}
	return data, ok
}

func (s *ReportStore) write(ctx context.Context, slot string, data []byte) {
	if err := s.kv.Set(ctx, slot, data); err != nil {
		s.logger.Warn("Failed to persist slot", zap.String("slot", slot), zap.Error(err))
	}
}

func (s *ReportStore) remove(ctx context.Context, slot string) {
	if err := s.kv.Delete(ctx, slot); err != nil {
		s.logger.Warn("Failed to delete slot", zap.String("slot", slot), zap.Error(err))
	}
}
