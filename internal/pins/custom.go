package pins

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kurofune-app/bakumap/backend/internal/catalog"
)

// AddCustomPerson inserts or overwrites a user-created person by id. Callers
// generate the id before calling.
func (s *Store) AddCustomPerson(person catalog.Person) {
	if person.ID == "" {
		return
	}
	s.mu.Lock()
	s.customPersons[person.ID] = CustomPerson{Person: person, IsCustom: true}
	blob := s.encodeStateLocked()
	s.mu.Unlock()
	s.persist(blob)
	s.notify(ChangeCustomContent)
}

// RemoveCustomPerson deletes a user-created person; unknown ids no-op.
// Events referencing the id keep the dangling reference, which consumers
// skip.
func (s *Store) RemoveCustomPerson(personID string) {
	s.mu.Lock()
	if _, ok := s.customPersons[personID]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.customPersons, personID)
	blob := s.encodeStateLocked()
	s.mu.Unlock()
	s.persist(blob)
	s.notify(ChangeCustomContent)
}

// CustomPersons returns a copy of the user-created person set.
func (s *Store) CustomPersons() map[string]CustomPerson {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]CustomPerson, len(s.customPersons))
	for id, person := range s.customPersons {
		out[id] = person
	}
	return out
}

// AddCustomEvent stores a new user-created event under a generated id and
// returns it. The supplied id is ignored; the year is clamped into the
// Bakumatsu range.
func (s *Store) AddCustomEvent(event catalog.Event) CustomEvent {
	s.mu.Lock()
	event.ID = s.newCustomEventIDLocked()
	event.Year = catalog.ClampYear(event.Year)
	custom := CustomEvent{Event: event, IsCustom: true}
	s.customEvents = append(s.customEvents, custom)
	blob := s.encodeStateLocked()
	s.mu.Unlock()
	s.persist(blob)
	s.notify(ChangeCustomContent)
	return custom
}

func (s *Store) newCustomEventIDLocked() string {
	suffix, err := s.ids.NewID()
	if err != nil {
		s.logger.Warn("id provider failed, falling back to clock", zap.Error(err))
		return fmt.Sprintf("%s%d", customIDPrefix, s.clock().UTC().UnixNano())
	}
	return customIDPrefix + suffix
}

// UpdateCustomEvent merges the update into the matching event; unknown ids
// no-op. Custom persons dropped from the reference list stay in the person
// set until some event deletion triggers the orphan scan.
func (s *Store) UpdateCustomEvent(eventID string, update EventUpdate) {
	s.mu.Lock()
	index := s.customEventIndexLocked(eventID)
	if index < 0 {
		s.mu.Unlock()
		return
	}
	applyEventUpdate(&s.customEvents[index].Event, update)
	blob := s.encodeStateLocked()
	s.mu.Unlock()
	s.persist(blob)
	s.notify(ChangeCustomContent)
}

func applyEventUpdate(event *catalog.Event, update EventUpdate) {
	if update.Year != nil {
		event.Year = catalog.ClampYear(*update.Year)
	}
	if update.Title != nil {
		event.Title = *update.Title
	}
	if update.Summary != nil {
		event.Summary = *update.Summary
	}
	if update.PlaceName != nil {
		event.PlaceName = *update.PlaceName
	}
	if update.Latitude != nil {
		event.Latitude = *update.Latitude
	}
	if update.Longitude != nil {
		event.Longitude = *update.Longitude
	}
	if update.PersonIDs != nil {
		event.PersonIDs = append([]string(nil), *update.PersonIDs...)
	}
	if update.Sources != nil {
		event.Sources = append([]catalog.Source(nil), *update.Sources...)
	}
	if update.CoverImage != nil {
		event.CoverImage = *update.CoverImage
	}
}

// RemoveCustomEvent deletes the event and prunes custom persons no remaining
// custom event references. Event and pruned persons move together into the
// undo buffer, replacing whatever the buffer held.
func (s *Store) RemoveCustomEvent(eventID string) {
	s.mu.Lock()
	index := s.customEventIndexLocked(eventID)
	if index < 0 {
		s.mu.Unlock()
		return
	}
	deleted := s.customEvents[index]
	remaining := make([]CustomEvent, 0, len(s.customEvents)-1)
	remaining = append(remaining, s.customEvents[:index]...)
	remaining = append(remaining, s.customEvents[index+1:]...)

	kept := make(map[string]CustomPerson)
	orphans := make(map[string]CustomPerson)
	for personID, person := range s.customPersons {
		referenced := false
		for _, event := range remaining {
			if event.Mentions(personID) {
				referenced = true
				break
			}
		}
		if referenced {
			kept[personID] = person
		} else {
			orphans[personID] = person
		}
	}

	s.customEvents = remaining
	s.customPersons = kept
	s.pending = &pendingDeletion{event: deleted, orphans: orphans}
	blob := s.encodeStateLocked()
	s.mu.Unlock()
	s.persist(blob)
	s.notify(ChangeCustomContent)
}

// UndoDeleteEvent restores the buffered event and its pruned persons.
// Returns false when the buffer is empty; calling twice without a deletion
// in between restores once.
func (s *Store) UndoDeleteEvent() bool {
	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return false
	}
	restored := s.pending
	s.pending = nil
	s.customEvents = append(s.customEvents, restored.event)
	for personID, person := range restored.orphans {
		s.customPersons[personID] = person
	}
	blob := s.encodeStateLocked()
	s.mu.Unlock()
	s.persist(blob)
	s.notify(ChangeCustomContent)
	return true
}

// ClearDeletedBuffer drops the undo buffer without restoring anything, e.g.
// when the undo affordance times out.
func (s *Store) ClearDeletedBuffer() {
	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.mu.Unlock()
	s.notify(ChangeCustomContent)
}

// PendingDeletion exposes the buffered event so the caller can render the
// undo affordance.
func (s *Store) PendingDeletion() (CustomEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return CustomEvent{}, false
	}
	return s.pending.event, true
}

// CustomEvents returns a copy of the user-created event list in insertion
// order.
func (s *Store) CustomEvents() []CustomEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CustomEvent(nil), s.customEvents...)
}

func (s *Store) customEventIndexLocked(eventID string) int {
	for index, event := range s.customEvents {
		if event.ID == eventID {
			return index
		}
	}
	return -1
}
