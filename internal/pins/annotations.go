package pins

// UpsertRecord is the single annotation mutation primitive. The first call
// for an event id creates its record with CreatedAt = UpdatedAt = now; later
// calls shallow-merge the update and refresh UpdatedAt. Records are never
// created for events the user has not touched.
func (s *Store) UpsertRecord(eventID string, update RecordUpdate) {
	if eventID == "" {
		return
	}
	s.mu.Lock()
	s.upsertLocked(eventID, update)
	blob := s.encodeStateLocked()
	s.mu.Unlock()
	s.persist(blob)
	s.notify(ChangeAnnotations)
}

func (s *Store) upsertLocked(eventID string, update RecordUpdate) {
	now := s.clock().UTC()
	record, ok := s.records[eventID]
	if !ok {
		record = PinRecord{EventID: eventID, CreatedAt: now}
	}
	record.apply(update)
	record.UpdatedAt = now
	s.records[eventID] = record
}

func (r *PinRecord) apply(update RecordUpdate) {
	if update.Photos != nil {
		r.Photos = clampPhotos(*update.Photos)
	}
	if update.Note != nil {
		r.Note = truncateNote(*update.Note)
	}
	if update.RankClear {
		r.Rank = nil
	} else if update.Rank != nil && update.Rank.Valid() {
		rank := *update.Rank
		r.Rank = &rank
	}
	if update.CoverImage != nil {
		r.CoverImage = *update.CoverImage
	}
	if update.MainBackground != nil {
		r.MainBackground = *update.MainBackground
	}
}

// AddPhoto appends a photo URI. Full records (three photos) and duplicate
// URIs make this a no-op that touches nothing, not even UpdatedAt.
func (s *Store) AddPhoto(eventID, photoURI string) {
	if eventID == "" || photoURI == "" {
		return
	}
	s.mu.Lock()
	current := s.records[eventID].Photos
	if len(current) >= maxPhotos || containsString(current, photoURI) {
		s.mu.Unlock()
		return
	}
	photos := append(append([]string(nil), current...), photoURI)
	s.upsertLocked(eventID, RecordUpdate{Photos: &photos})
	blob := s.encodeStateLocked()
	s.mu.Unlock()
	s.persist(blob)
	s.notify(ChangeAnnotations)
}

// RemovePhoto removes a stored photo URI; no-op when the record or the URI
// is absent.
func (s *Store) RemovePhoto(eventID, photoURI string) {
	s.mu.Lock()
	record, ok := s.records[eventID]
	if !ok || !containsString(record.Photos, photoURI) {
		s.mu.Unlock()
		return
	}
	photos := make([]string, 0, len(record.Photos))
	for _, uri := range record.Photos {
		if uri != photoURI {
			photos = append(photos, uri)
		}
	}
	s.upsertLocked(eventID, RecordUpdate{Photos: &photos})
	blob := s.encodeStateLocked()
	s.mu.Unlock()
	s.persist(blob)
	s.notify(ChangeAnnotations)
}

// SetNote stores the note, truncated to the 140 scalar value limit.
func (s *Store) SetNote(eventID, note string) {
	trimmed := truncateNote(note)
	s.UpsertRecord(eventID, RecordUpdate{Note: &trimmed})
}

// SetRank stores the rank; nil clears it. The "tap the same rank again to
// clear" gesture is a caller convention layered on top of this.
func (s *Store) SetRank(eventID string, rank *Rank) {
	if rank == nil {
		s.UpsertRecord(eventID, RecordUpdate{RankClear: true})
		return
	}
	if !rank.Valid() {
		return
	}
	value := *rank
	s.UpsertRecord(eventID, RecordUpdate{Rank: &value})
}

// SetCoverImage overrides the event's header image; an empty URI clears the
// override.
func (s *Store) SetCoverImage(eventID, uri string) {
	s.UpsertRecord(eventID, RecordUpdate{CoverImage: &uri})
}

// SetMainBackground overrides the detail background; an empty URI clears it.
func (s *Store) SetMainBackground(eventID, uri string) {
	s.UpsertRecord(eventID, RecordUpdate{MainBackground: &uri})
}

// Record returns a copy of the annotation for the event, if any.
func (s *Store) Record(eventID string) (PinRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[eventID]
	if !ok {
		return PinRecord{}, false
	}
	return record.clone(), true
}

// clampPhotos copies the list, dropping duplicates and everything past the
// photo limit. Empty input stays nil.
func clampPhotos(uris []string) []string {
	var out []string
	for _, uri := range uris {
		if containsString(out, uri) {
			continue
		}
		out = append(out, uri)
		if len(out) == maxPhotos {
			break
		}
	}
	return out
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
