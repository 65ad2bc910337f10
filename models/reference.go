package models

// Reference verweist auf einen Impfstoff oder eine Krankheit. Ohne ID wird der Eintrag über den Namen aufgelöst.
type Reference struct {
	ID   *uint  `json:"id,omitempty"`
	Name string `json:"name"`
}

// Vaccine ist ein geteilter Nachschlage-Eintrag für Impfstoffe.
type Vaccine struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

func (Vaccine) TableName() string { return "vaccines" }

// Disease ist ein geteilter Nachschlage-Eintrag für Krankheiten.
type Disease struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

func (Disease) TableName() string { return "diseases" }

// GoatVaccine verknüpft eine Ziege mit einem Impfstoff.
type GoatVaccine struct {
	GoatID    uint       `gorm:"primaryKey;autoIncrement:false"`
	VaccineID uint       `gorm:"primaryKey;autoIncrement:false;index"`
	Goat      GoatRecord `gorm:"foreignKey:GoatID;constraint:OnDelete:CASCADE"`
	Vaccine   Vaccine    `gorm:"foreignKey:VaccineID;constraint:OnDelete:RESTRICT"`
}

func (GoatVaccine) TableName() string { return "goat_vaccines" }

// GoatDisease verknüpft eine Ziege mit einer Krankheit.
type GoatDisease struct {
	GoatID    uint       `gorm:"primaryKey;autoIncrement:false"`
	DiseaseID uint       `gorm:"primaryKey;autoIncrement:false;index"`
	Goat      GoatRecord `gorm:"foreignKey:GoatID;constraint:OnDelete:CASCADE"`
	Disease   Disease    `gorm:"foreignKey:DiseaseID;constraint:OnDelete:RESTRICT"`
}

func (GoatDisease) TableName() string { return "goat_diseases" }
