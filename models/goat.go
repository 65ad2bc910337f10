package models

import (
	"gorm.io/datatypes"
)

// Goat ist die vollständige Ziege inklusive Impfungen und Krankheiten, wie sie die API liefert und annimmt.
type Goat struct {
	ID           *uint           `json:"id,omitempty"`
	Breed        Breed           `json:"breed"`
	Name         string          `json:"name"`
	Gender       Gender          `json:"gender"`
	Offspring    int             `json:"offspring"`
	Cost         float64         `json:"cost"`
	Weight       float64         `json:"weight"`
	CurrentPrice float64         `json:"current_price"`
	Diet         string          `json:"diet"`
	LastBred     *datatypes.Date `json:"last_bred,omitempty"`
	HealthStatus string          `json:"health_status"`
	Vaccinations []Reference     `json:"vaccinations"`
	Diseases     []Reference     `json:"diseases"`
}

// GoatRecord ist die flache Zeile der Tabelle goats. Enums liegen als Text vor.
type GoatRecord struct {
	ID           uint   `gorm:"primaryKey"`
	Breed        string `gorm:"not null"`
	Name         string `gorm:"not null;index"`
	Gender       string `gorm:"not null"`
	Offspring    int    `gorm:"not null;default:0;check:offspring >= 0"`
	Cost         float64
	Weight       float64
	CurrentPrice float64
	Diet         string
	LastBred     *datatypes.Date
	HealthStatus string
}

// TableName gibt explizit den Tabellennamen an.
func (GoatRecord) TableName() string {
	return "goats"
}

// ToRecord übersetzt die Ziege in ihre Tabellenzeile. Die ID wird nicht übernommen.
func (g *Goat) ToRecord() GoatRecord {
	return GoatRecord{
		Breed:        g.Breed.String(),
		Name:         g.Name,
		Gender:       g.Gender.String(),
		Offspring:    g.Offspring,
		Cost:         g.Cost,
		Weight:       g.Weight,
		CurrentPrice: g.CurrentPrice,
		Diet:         g.Diet,
		LastBred:     g.LastBred,
		HealthStatus: g.HealthStatus,
	}
}

// ToGoat dekodiert die Zeile. Ein ungültiges Geschlecht liefert einen *ParseEnumError,
// damit kaputte Daten sichtbar bleiben statt still ersetzt zu werden.
// Relationen werden hier nicht geladen.
func (r *GoatRecord) ToGoat() (*Goat, error) {
	gender, err := ParseGender(r.Gender)
	if err != nil {
		return nil, err
	}
	id := r.ID
	return &Goat{
		ID:           &id,
		Breed:        ParseBreed(r.Breed),
		Name:         r.Name,
		Gender:       gender,
		Offspring:    r.Offspring,
		Cost:         r.Cost,
		Weight:       r.Weight,
		CurrentPrice: r.CurrentPrice,
		Diet:         r.Diet,
		LastBred:     r.LastBred,
		HealthStatus: r.HealthStatus,
		Vaccinations: []Reference{},
		Diseases:     []Reference{},
	}, nil
}
