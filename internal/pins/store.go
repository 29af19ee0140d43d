package pins

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kurofune-app/bakumap/backend/internal/catalog"
	"github.com/kurofune-app/bakumap/backend/internal/snapshot"
)

// defaultSelectedYear is where the timeline opens: the year of the Satsuma-
// Choshu alliance.
const defaultSelectedYear = 1866

// StoreConfig collects the Store dependencies. Gateway may be nil for a
// purely in-memory store; when set, SnapshotKey names the persisted blob.
type StoreConfig struct {
	Gateway     snapshot.Gateway
	SnapshotKey string
	Clock       func() time.Time
	IDProvider  IDProvider
	Logger      *zap.Logger
}

type pendingDeletion struct {
	event   CustomEvent
	orphans map[string]CustomPerson
}

// Store owns all mutable app state. Mutations are synchronous and guarded by
// one mutex; snapshot writes happen off the mutation path and are never
// awaited.
type Store struct {
	clock  func() time.Time
	ids    IDProvider
	logger *zap.Logger
	writer *snapshot.Writer
	events *dispatcher

	mu              sync.Mutex
	records         map[string]PinRecord
	customPersons   map[string]CustomPerson
	customEvents    []CustomEvent
	selectedYear    int
	selectedPersons []string
	pending         *pendingDeletion
}

// NewStore restores persisted state from the gateway (when configured) and
// returns a ready store. A missing or malformed snapshot loads as empty
// state; only misconfiguration is an error.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Gateway != nil && cfg.SnapshotKey == "" {
		return nil, errors.New("pins: snapshot key is required when a gateway is configured")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	ids := cfg.IDProvider
	if ids == nil {
		ids = NewUUIDProvider()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		clock:           clock,
		ids:             ids,
		logger:          logger,
		events:          newDispatcher(),
		records:         make(map[string]PinRecord),
		customPersons:   make(map[string]CustomPerson),
		selectedYear:    defaultSelectedYear,
		selectedPersons: nil,
	}

	if cfg.Gateway != nil {
		s.restore(cfg.Gateway, cfg.SnapshotKey)
		s.writer = snapshot.NewWriter(cfg.Gateway, cfg.SnapshotKey, logger)
	}
	return s, nil
}

func (s *Store) restore(gateway snapshot.Gateway, key string) {
	blob, err := gateway.Load(context.Background(), key)
	if errors.Is(err, snapshot.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("snapshot load failed, starting empty", zap.String("key", key), zap.Error(err))
		return
	}
	payload, err := decodeSnapshot(blob)
	if err != nil {
		s.logger.Warn("snapshot blob malformed, starting empty", zap.String("key", key), zap.Error(err))
		return
	}
	s.records = payload.PinRecords
	s.customPersons = payload.CustomPersons
	s.customEvents = payload.CustomEvents
	s.logger.Info("snapshot restored",
		zap.Int("pin_records", len(s.records)),
		zap.Int("custom_persons", len(s.customPersons)),
		zap.Int("custom_events", len(s.customEvents)))
}

// Close flushes any pending snapshot write.
func (s *Store) Close() {
	if s.writer != nil {
		s.writer.Close()
	}
}

// Subscribe delivers a ChangeEvent after every mutation until ctx ends.
func (s *Store) Subscribe(ctx context.Context) (<-chan ChangeEvent, func()) {
	return s.events.subscribe(ctx)
}

func (s *Store) notify(kind ChangeKind) {
	s.events.publish(ChangeEvent{Kind: kind, At: s.clock().UTC()})
}

// encodeStateLocked captures the persisted slice of state. Returns nil when
// encoding fails, which turns the snapshot write into a logged no-op.
func (s *Store) encodeStateLocked() []byte {
	payload := snapshotPayload{
		PinRecords:    s.records,
		CustomPersons: s.customPersons,
		CustomEvents:  s.customEvents,
	}
	blob, err := payload.encode()
	if err != nil {
		s.logger.Error("snapshot encode failed", zap.Error(err))
		return nil
	}
	return blob
}

func (s *Store) persist(blob []byte) {
	if s.writer != nil && blob != nil {
		s.writer.Enqueue(blob)
	}
}

// SelectedYear returns the current timeline year.
func (s *Store) SelectedYear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedYear
}

// SelectedPersons returns the current person filter in selection order.
// Empty means "no filter": every event matches.
func (s *Store) SelectedPersons() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selectedPersons...)
}

// SetSelectedYear moves the timeline, clamping into the Bakumatsu range.
func (s *Store) SetSelectedYear(year int) {
	s.mu.Lock()
	s.selectedYear = catalog.ClampYear(year)
	s.mu.Unlock()
	s.notify(ChangeSelection)
}

// SetSelectedPersons replaces the person filter. When the new filter leaves
// the current year without events, the year snaps to the nearest year that
// has one; when the filter matches nothing at all the year stays put.
func (s *Store) SetSelectedPersons(personIDs []string) {
	s.mu.Lock()
	s.setSelectedPersonsLocked(personIDs)
	s.mu.Unlock()
	s.notify(ChangeSelection)
}

// TogglePerson adds or removes one person from the filter, reusing the year
// snapping of SetSelectedPersons.
func (s *Store) TogglePerson(personID string) {
	s.mu.Lock()
	next := make([]string, 0, len(s.selectedPersons)+1)
	found := false
	for _, id := range s.selectedPersons {
		if id == personID {
			found = true
			continue
		}
		next = append(next, id)
	}
	if !found {
		next = append(next, personID)
	}
	s.setSelectedPersonsLocked(next)
	s.mu.Unlock()
	s.notify(ChangeSelection)
}

// ClearPersonFilter shows every person again.
func (s *Store) ClearPersonFilter() {
	s.SetSelectedPersons(nil)
}

func (s *Store) setSelectedPersonsLocked(personIDs []string) {
	s.selectedPersons = append([]string(nil), personIDs...)
	if len(personIDs) == 0 {
		return
	}
	years := s.yearsWithEventsLocked(personIDs)
	if len(years) == 0 {
		return
	}
	closest := years[0]
	minDiff := absInt(years[0] - s.selectedYear)
	for _, year := range years {
		if year == s.selectedYear {
			return
		}
		if diff := absInt(year - s.selectedYear); diff < minDiff {
			minDiff = diff
			closest = year
		}
	}
	s.selectedYear = closest
}

// GoToPrevYear steps to the previous year that has events under the current
// filter. A year that dropped out of the list jumps to the greatest listed
// year below it; no such year means no-op.
func (s *Store) GoToPrevYear() {
	s.mu.Lock()
	years := s.yearsWithEventsLocked(s.selectedPersons)
	target, ok := prevYear(years, s.selectedYear)
	if ok {
		s.selectedYear = target
	}
	s.mu.Unlock()
	if ok {
		s.notify(ChangeSelection)
	}
}

// GoToNextYear mirrors GoToPrevYear in the other direction.
func (s *Store) GoToNextYear() {
	s.mu.Lock()
	years := s.yearsWithEventsLocked(s.selectedPersons)
	target, ok := nextYear(years, s.selectedYear)
	if ok {
		s.selectedYear = target
	}
	s.mu.Unlock()
	if ok {
		s.notify(ChangeSelection)
	}
}

func prevYear(years []int, current int) (int, bool) {
	best, ok := 0, false
	for _, year := range years {
		if year < current && (!ok || year > best) {
			best, ok = year, true
		}
	}
	return best, ok
}

func nextYear(years []int, current int) (int, bool) {
	best, ok := 0, false
	for _, year := range years {
		if year > current && (!ok || year < best) {
			best, ok = year, true
		}
	}
	return best, ok
}

// FilteredEvents returns built-in and custom events for the selected year
// matching the person filter, built-in first, order preserved.
func (s *Store) FilteredEvents() []catalog.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []catalog.Event
	for _, event := range s.combinedEventsLocked() {
		if event.Year == s.selectedYear && event.MentionsAny(s.selectedPersons) {
			out = append(out, event)
		}
	}
	return out
}

// EventsForYear returns the selected year's events ignoring the person
// filter.
func (s *Store) EventsForYear() []catalog.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []catalog.Event
	for _, event := range s.combinedEventsLocked() {
		if event.Year == s.selectedYear {
			out = append(out, event)
		}
	}
	return out
}

// EventByID resolves an id across built-in and custom events.
func (s *Store) EventByID(id string) (catalog.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range s.combinedEventsLocked() {
		if event.ID == id {
			return event, true
		}
	}
	return catalog.Event{}, false
}

// RepresentativeEvent returns the first filtered event, used as the detail
// header when nothing specific is selected.
func (s *Store) RepresentativeEvent() (catalog.Event, bool) {
	filtered := s.FilteredEvents()
	if len(filtered) == 0 {
		return catalog.Event{}, false
	}
	return filtered[0], true
}

// YearsWithEvents returns the distinct ascending years that have at least
// one event under the current person filter.
func (s *Store) YearsWithEvents() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.yearsWithEventsLocked(s.selectedPersons)
}

// AllYearsWithEvents ignores the person filter.
func (s *Store) AllYearsWithEvents() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.yearsWithEventsLocked(nil)
}

func (s *Store) yearsWithEventsLocked(personIDs []string) []int {
	seen := make(map[int]bool)
	for _, event := range s.combinedEventsLocked() {
		if event.MentionsAny(personIDs) {
			seen[event.Year] = true
		}
	}
	years := make([]int, 0, len(seen))
	for year := range seen {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

func (s *Store) combinedEventsLocked() []catalog.Event {
	combined := catalog.Events()
	for _, custom := range s.customEvents {
		combined = append(combined, custom.Event)
	}
	return combined
}

// AllPersons returns built-in persons overlaid with custom persons, keyed by
// id.
func (s *Store) AllPersons() map[string]catalog.Person {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]catalog.Person)
	for _, person := range catalog.Persons() {
		out[person.ID] = person
	}
	for id, custom := range s.customPersons {
		out[id] = custom.Person
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
