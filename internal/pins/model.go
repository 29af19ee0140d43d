// Package pins implements the state container behind the Bakumatsu map: the
// built-in catalog joined with user-created events and persons, per-event
// annotation records, the year/person selection, and a single-slot undo
// buffer for deleted custom events.
//
// Every operation is total: unknown ids no-op, out-of-range values are
// clamped or truncated, and callers that need confirmation rely on boolean
// returns instead of errors.
package pins

import (
	"time"

	"github.com/kurofune-app/bakumap/backend/internal/catalog"
)

// Rank grades how strongly an event registered with the user.
type Rank int

const (
	RankOrdinary      Rank = 1
	RankMemorable     Rank = 2
	RankUnforgettable Rank = 3
)

// Valid reports whether the rank is one of the three defined levels.
func (r Rank) Valid() bool {
	return r >= RankOrdinary && r <= RankUnforgettable
}

// RankColors maps each rank to its pin border color.
var RankColors = map[Rank]string{
	RankOrdinary:      "#4A90D9",
	RankMemorable:     "#4CAF50",
	RankUnforgettable: "#D4A574",
}

// RankLabels maps each rank to its display label.
var RankLabels = map[Rank]string{
	RankOrdinary:      "普通",
	RankMemorable:     "いいね",
	RankUnforgettable: "最高",
}

const (
	maxPhotos     = 3
	maxNoteLength = 140 // unicode scalar values, not bytes
)

// PinRecord is the user's annotation for a single event. At most one record
// exists per event id; it is created lazily on the first annotation action
// and outlives the event it refers to.
type PinRecord struct {
	EventID        string    `json:"eventId"`
	Photos         []string  `json:"photos,omitempty"`
	Note           string    `json:"note,omitempty"`
	Rank           *Rank     `json:"rank,omitempty"`
	CoverImage     string    `json:"coverImage,omitempty"`
	MainBackground string    `json:"mainBackground,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (r PinRecord) clone() PinRecord {
	out := r
	if r.Photos != nil {
		out.Photos = append([]string(nil), r.Photos...)
	}
	if r.Rank != nil {
		rank := *r.Rank
		out.Rank = &rank
	}
	return out
}

// RecordUpdate is a partial annotation payload. Nil fields are left
// untouched. RankClear removes the rank regardless of Rank; an empty string
// behind CoverImage or MainBackground clears that override.
type RecordUpdate struct {
	Photos         *[]string
	Note           *string
	Rank           *Rank
	RankClear      bool
	CoverImage     *string
	MainBackground *string
}

// CustomPerson is a user-created historical figure.
type CustomPerson struct {
	catalog.Person
	IsCustom bool `json:"isCustom"`
}

// CustomEvent is a user-created event. Its id carries the "custom-" prefix
// so it can never collide with a built-in event id.
type CustomEvent struct {
	catalog.Event
	IsCustom bool `json:"isCustom"`
}

// EventUpdate is a partial custom event payload. Nil fields are left
// untouched; a provided year is clamped to the Bakumatsu range.
type EventUpdate struct {
	Year       *int
	Title      *string
	Summary    *string
	PlaceName  *string
	Latitude   *float64
	Longitude  *float64
	PersonIDs  *[]string
	Sources    *[]catalog.Source
	CoverImage *string
}

// truncateNote cuts a note to the 140 scalar value limit. Counting runes
// keeps multi-byte Japanese text intact.
func truncateNote(note string) string {
	runes := []rune(note)
	if len(runes) <= maxNoteLength {
		return note
	}
	return string(runes[:maxNoteLength])
}
