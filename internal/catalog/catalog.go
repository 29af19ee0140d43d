// Package catalog holds the built-in Bakumatsu reference data: factions,
// historical persons, and the fixed event set. The data is embedded at build
// time and immutable after load; every lookup is a pure function.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

const (
	// YearMin is the lower bound of the Bakumatsu timeline (Perry's arrival).
	YearMin = 1853
	// YearMax is the upper bound of the Bakumatsu timeline (end of the Boshin War).
	YearMax = 1869
)

// FactionID identifies one of the six fixed historical allegiances.
type FactionID string

const (
	FactionSatsuma     FactionID = "satsuma"
	FactionChoshu      FactionID = "choshu"
	FactionTosa        FactionID = "tosa"
	FactionShinsengumi FactionID = "shinsengumi"
	FactionBakufu      FactionID = "bakufu"
	FactionOther       FactionID = "other"
)

// Faction describes a historical allegiance used to group persons.
type Faction struct {
	ID    FactionID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color"`
}

// Person describes a historical figure. Built-in persons are immutable;
// user-created persons reuse this shape with a generated id.
type Person struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	NameKanji         string    `json:"nameKanji"`
	Color             string    `json:"color"`
	Faction           FactionID `json:"faction"`
	CustomFactionName string    `json:"customFactionName,omitempty"`
}

// SourceKind classifies where an event's reference material comes from.
type SourceKind string

const (
	SourceWikipedia SourceKind = "wikipedia"
	SourceBook      SourceKind = "book"
	SourceWebsite   SourceKind = "website"
)

// Source is a descriptive reference attached to an event. Sources are never
// mutated independently of their event.
type Source struct {
	Kind     SourceKind `json:"type"`
	Title    string     `json:"title"`
	URL      string     `json:"url"`
	ImageURL string     `json:"imageUrl,omitempty"`
}

// Event is a pinned historical event. PersonIDs may reference ids that no
// longer resolve; consumers skip dangling references instead of failing.
type Event struct {
	ID         string   `json:"id"`
	Year       int      `json:"year"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	PlaceName  string   `json:"placeName"`
	Latitude   float64  `json:"lat"`
	Longitude  float64  `json:"lng"`
	PersonIDs  []string `json:"persons"`
	Sources    []Source `json:"sources"`
	CoverImage string   `json:"coverImage,omitempty"`
}

// Mentions reports whether the event references the given person id.
func (e Event) Mentions(personID string) bool {
	for _, id := range e.PersonIDs {
		if id == personID {
			return true
		}
	}
	return false
}

// MentionsAny reports whether the event references at least one of the given
// person ids. An empty set matches every event; the person filter treats
// "nobody selected" as "no filter", not "match nobody".
func (e Event) MentionsAny(personIDs []string) bool {
	if len(personIDs) == 0 {
		return true
	}
	for _, id := range personIDs {
		if e.Mentions(id) {
			return true
		}
	}
	return false
}

//go:embed data/events.json
var rawEvents []byte

//go:embed data/persons.json
var rawPersons []byte

var (
	builtinEvents   []Event
	builtinFactions []Faction
	builtinPersons  []Person
	personIndex     map[string]Person
	factionIndex    map[FactionID]Faction
)

func init() {
	if err := json.Unmarshal(rawEvents, &builtinEvents); err != nil {
		panic(fmt.Sprintf("catalog: embedded event data is invalid: %v", err))
	}

	var reference struct {
		Factions []Faction `json:"factions"`
		Persons  []Person  `json:"persons"`
	}
	if err := json.Unmarshal(rawPersons, &reference); err != nil {
		panic(fmt.Sprintf("catalog: embedded person data is invalid: %v", err))
	}
	builtinFactions = reference.Factions
	builtinPersons = reference.Persons

	personIndex = make(map[string]Person, len(builtinPersons))
	for _, person := range builtinPersons {
		personIndex[person.ID] = person
	}
	factionIndex = make(map[FactionID]Faction, len(builtinFactions))
	for _, faction := range builtinFactions {
		factionIndex[faction.ID] = faction
	}
}

// Events returns the built-in events in declaration order.
func Events() []Event {
	out := make([]Event, len(builtinEvents))
	copy(out, builtinEvents)
	return out
}

// Persons returns the built-in persons in declaration order.
func Persons() []Person {
	out := make([]Person, len(builtinPersons))
	copy(out, builtinPersons)
	return out
}

// Factions returns the six factions in declaration order.
func Factions() []Faction {
	out := make([]Faction, len(builtinFactions))
	copy(out, builtinFactions)
	return out
}

// PersonByID looks up a built-in person.
func PersonByID(id string) (Person, bool) {
	person, ok := personIndex[id]
	return person, ok
}

// FactionByID looks up a faction.
func FactionByID(id FactionID) (Faction, bool) {
	faction, ok := factionIndex[id]
	return faction, ok
}

// EventsByYear returns built-in events for the given year, order-preserving.
// Unknown years yield an empty result.
func EventsByYear(year int) []Event {
	var out []Event
	for _, event := range builtinEvents {
		if event.Year == year {
			out = append(out, event)
		}
	}
	return out
}

// EventsByPerson returns built-in events referencing the given person id.
func EventsByPerson(personID string) []Event {
	var out []Event
	for _, event := range builtinEvents {
		if event.Mentions(personID) {
			out = append(out, event)
		}
	}
	return out
}

// FilteredEvents returns built-in events matching the year exactly and, when
// personIDs is non-empty, referencing at least one of the given ids.
func FilteredEvents(year int, personIDs []string) []Event {
	var out []Event
	for _, event := range builtinEvents {
		if event.Year == year && event.MentionsAny(personIDs) {
			out = append(out, event)
		}
	}
	return out
}

// ClampYear forces a year into [YearMin, YearMax].
func ClampYear(year int) int {
	if year < YearMin {
		return YearMin
	}
	if year > YearMax {
		return YearMax
	}
	return year
}
