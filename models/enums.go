package models

import (
	"encoding/json"
	"fmt"
)

// Breed ist die Rasse einer Ziege. Zehn Rassen sind bekannt, jeder andere
// Text wird unverändert als "sonstige" Rasse mitgeführt.
type Breed string

const (
	BreedBeetal      Breed = "Beetal"
	BreedJamunapari  Breed = "Jamunapari"
	BreedBarbari     Breed = "Barbari"
	BreedSirohi      Breed = "Sirohi"
	BreedOsmanabadi  Breed = "Osmanabadi"
	BreedBlackBengal Breed = "BlackBengal"
	BreedKutchi      Breed = "Kutchi"
	BreedKaghani     Breed = "Kaghani"
	BreedChegu       Breed = "Chegu"
	BreedJakhrana    Breed = "Jakhrana"
)

// KnownBreeds listet alle benannten Rassen.
var KnownBreeds = []Breed{
	BreedBeetal, BreedJamunapari, BreedBarbari, BreedSirohi, BreedOsmanabadi,
	BreedBlackBengal, BreedKutchi, BreedKaghani, BreedChegu, BreedJakhrana,
}

// ParseBreed ordnet einen gespeicherten Text einer Rasse zu (case-sensitive).
// Unbekannte Werte werden nicht abgelehnt, sondern als sonstige Rasse übernommen.
func ParseBreed(s string) Breed {
	for _, b := range KnownBreeds {
		if string(b) == s {
			return b
		}
	}
	return OtherBreed(s)
}

// OtherBreed erzeugt eine sonstige Rasse mit dem Originaltext.
func OtherBreed(label string) Breed {
	return Breed(label)
}

// IsOther meldet, ob die Rasse keine der benannten Rassen ist.
func (b Breed) IsOther() bool {
	for _, known := range KnownBreeds {
		if b == known {
			return false
		}
	}
	return true
}

func (b Breed) String() string {
	return string(b)
}

func (b *Breed) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*b = ParseBreed(s)
	return nil
}

// Gender ist das Geschlecht einer Ziege. Es gibt genau zwei gültige Werte.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// ParseGender akzeptiert exakt "Male" und "Female", Groß-/Kleinschreibung zählt.
func ParseGender(s string) (Gender, error) {
	switch Gender(s) {
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	default:
		return "", &ParseEnumError{Input: s, Enum: "Gender"}
	}
}

func (g Gender) String() string {
	return string(g)
}

func (g *Gender) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseGender(s)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// ParseEnumError wird zurückgegeben, wenn ein Text keinem Wert der Ziel-Enumeration entspricht.
type ParseEnumError struct {
	Input string
	Enum  string
}

func (e *ParseEnumError) Error() string {
	return fmt.Sprintf("value %q is not a valid variant of enum %s", e.Input, e.Enum)
}
