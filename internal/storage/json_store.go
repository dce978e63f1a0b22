package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	apperr "github.com/julianstephens/habitlog/internal/errors"
	"github.com/julianstephens/habitlog/internal/models"
	"github.com/julianstephens/habitlog/internal/utils"
)

// Document is the on-disk layout of the JSON store.
type Document struct {
	Habits    []models.Habit    `json:"habits"`
	HabitLogs []models.HabitLog `json:"habitLogs"`
	Settings  models.Settings   `json:"settings"`
}

// JSONStore keeps the whole document in memory and rewrites the file on every change.
type JSONStore struct {
	path string

	mu  sync.RWMutex
	doc *Document
}

var _ Provider = (*JSONStore)(nil)

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init(ctx context.Context) error {
	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// An existing document is kept as is
	if _, err := os.Stat(s.path); err == nil {
		return s.Load(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = &Document{
		Habits:    []models.Habit{},
		HabitLogs: []models.HabitLog{},
		Settings:  DefaultSettings(),
	}
	return s.write(s.doc)
}

func (s *JSONStore) Load(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'habitlog init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Habits == nil {
		doc.Habits = []models.Habit{}
	}
	if doc.HabitLogs == nil {
		doc.HabitLogs = []models.HabitLog{}
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}

// commit writes next to disk and only then makes it the in-memory document,
// so a failed write leaves memory matching the file. Callers hold the write lock
// and must not share backing arrays between next and the current document.
func (s *JSONStore) commit(next Document) error {
	if err := s.write(&next); err != nil {
		return err
	}
	*s.doc = next
	return nil
}

// write replaces the file atomically.
func (s *JSONStore) write(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

func (s *JSONStore) loaded() error {
	if s.doc == nil {
		return fmt.Errorf("storage not loaded")
	}
	return nil
}

func (s *JSONStore) GetSettings(ctx context.Context) (models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return models.Settings{}, err
	}
	return s.doc.Settings, nil
}

func (s *JSONStore) SaveSettings(ctx context.Context, settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	next := *s.doc
	next.Settings = settings
	return s.commit(next)
}

func (s *JSONStore) habitIndex(id string) int {
	for i, h := range s.doc.Habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}

func (s *JSONStore) logIndex(habitID, date string) int {
	for i, l := range s.doc.HabitLogs {
		if l.HabitID == habitID && l.Date == date {
			return i
		}
	}
	return -1
}

func (s *JSONStore) AddHabit(ctx context.Context, habit models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	if s.habitIndex(habit.ID) >= 0 {
		return fmt.Errorf("habit %s already exists", habit.ID)
	}
	next := *s.doc
	next.Habits = append(slices.Clone(s.doc.Habits), habit)
	return s.commit(next)
}

func (s *JSONStore) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return models.Habit{}, err
	}
	if i := s.habitIndex(id); i >= 0 {
		return s.doc.Habits[i], nil
	}
	return models.Habit{}, apperr.NotFound("habit", id)
}

func (s *JSONStore) ListHabits(ctx context.Context, ownerID string) ([]models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return nil, err
	}
	habits := []models.Habit{}
	for _, h := range s.doc.Habits {
		if h.OwnerID == ownerID {
			habits = append(habits, h)
		}
	}
	sortHabits(habits)
	return habits, nil
}

func (s *JSONStore) GetAllHabits(ctx context.Context) ([]models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return nil, err
	}
	habits := append([]models.Habit{}, s.doc.Habits...)
	sortHabits(habits)
	return habits, nil
}

func sortHabits(habits []models.Habit) {
	sort.SliceStable(habits, func(i, j int) bool {
		if !habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].CreatedAt.Before(habits[j].CreatedAt)
		}
		return habits[i].ID < habits[j].ID
	})
}

func (s *JSONStore) UpdateHabit(ctx context.Context, habit models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	i := s.habitIndex(habit.ID)
	if i < 0 {
		return apperr.NotFound("habit", habit.ID)
	}
	next := *s.doc
	next.Habits = slices.Clone(s.doc.Habits)
	next.Habits[i] = habit
	return s.commit(next)
}

func (s *JSONStore) DeleteHabit(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	i := s.habitIndex(id)
	if i < 0 {
		return apperr.NotFound("habit", id)
	}
	next := *s.doc
	next.Habits = slices.Delete(slices.Clone(s.doc.Habits), i, i+1)
	next.HabitLogs = s.logsWithout(id)
	return s.commit(next)
}

// logsWithout returns a fresh slice of every log not belonging to habitID.
func (s *JSONStore) logsWithout(habitID string) []models.HabitLog {
	kept := make([]models.HabitLog, 0, len(s.doc.HabitLogs))
	for _, l := range s.doc.HabitLogs {
		if l.HabitID != habitID {
			kept = append(kept, l)
		}
	}
	return kept
}

func (s *JSONStore) collectLogs(keep func(models.HabitLog) bool) []models.HabitLog {
	logs := []models.HabitLog{}
	for _, l := range s.doc.HabitLogs {
		if keep(l) {
			logs = append(logs, l)
		}
	}
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].HabitID != logs[j].HabitID {
			return logs[i].HabitID < logs[j].HabitID
		}
		return logs[i].Date > logs[j].Date
	})
	return logs
}

func (s *JSONStore) ListLogs(ctx context.Context, habitID string) ([]models.HabitLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return nil, err
	}
	return s.collectLogs(func(l models.HabitLog) bool { return l.HabitID == habitID }), nil
}

func (s *JSONStore) ListLogsInRange(ctx context.Context, habitID string, start, end utils.Day) ([]models.HabitLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return nil, err
	}
	return s.collectLogs(func(l models.HabitLog) bool {
		if l.HabitID != habitID {
			return false
		}
		day, err := utils.ParseDay(l.Date)
		if err != nil {
			return false
		}
		return !day.Before(start) && !day.After(end)
	}), nil
}

func (s *JSONStore) ListLogsForOwner(ctx context.Context, ownerID string) ([]models.HabitLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return nil, err
	}
	owned := make(map[string]bool)
	for _, h := range s.doc.Habits {
		if h.OwnerID == ownerID {
			owned[h.ID] = true
		}
	}
	return s.collectLogs(func(l models.HabitLog) bool { return owned[l.HabitID] }), nil
}

func (s *JSONStore) GetAllLogs(ctx context.Context) ([]models.HabitLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return nil, err
	}
	return s.collectLogs(func(models.HabitLog) bool { return true }), nil
}

func (s *JSONStore) GetLog(ctx context.Context, habitID string, day utils.Day) (models.HabitLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.loaded(); err != nil {
		return models.HabitLog{}, err
	}
	if i := s.logIndex(habitID, day.String()); i >= 0 {
		return s.doc.HabitLogs[i], nil
	}
	return models.HabitLog{}, apperr.NotFound("habit log", habitID+"@"+day.String())
}

func (s *JSONStore) PutLog(ctx context.Context, log models.HabitLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	next := *s.doc
	next.HabitLogs = slices.Clone(s.doc.HabitLogs)
	if i := s.logIndex(log.HabitID, log.Date); i >= 0 {
		next.HabitLogs[i] = log
	} else {
		next.HabitLogs = append(next.HabitLogs, log)
	}
	return s.commit(next)
}

func (s *JSONStore) MutateLog(ctx context.Context, habitID string, day utils.Day, fn LogMutator) (models.HabitLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return models.HabitLog{}, err
	}

	i := s.logIndex(habitID, day.String())
	var existing *models.HabitLog
	if i >= 0 {
		current := s.doc.HabitLogs[i]
		existing = &current
	}

	next, err := fn(existing)
	if err != nil {
		return models.HabitLog{}, err
	}

	doc := *s.doc
	doc.HabitLogs = slices.Clone(s.doc.HabitLogs)
	if i >= 0 {
		doc.HabitLogs[i] = next
	} else {
		doc.HabitLogs = append(doc.HabitLogs, next)
	}
	if err := s.commit(doc); err != nil {
		return models.HabitLog{}, err
	}
	return next, nil
}

func (s *JSONStore) DeleteLogsForHabit(ctx context.Context, habitID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loaded(); err != nil {
		return err
	}
	next := *s.doc
	next.HabitLogs = s.logsWithout(habitID)
	return s.commit(next)
}
