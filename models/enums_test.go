package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestBreedRoundTrip(t *testing.T) {
	is := is.New(t)
	for _, b := range KnownBreeds {
		is.Equal(ParseBreed(b.String()), b)
		is.True(!b.IsOther())
	}

	other := ParseBreed("Boer")
	is.True(other.IsOther())
	is.Equal(other.String(), "Boer")
	is.Equal(ParseBreed(other.String()), other)

	// matching is case-sensitive, so a lower-case label is carried as other
	is.True(ParseBreed("beetal").IsOther())
	is.Equal(ParseBreed(""), OtherBreed(""))
}

func TestParseGenderAcceptsExactlyTwoValues(t *testing.T) {
	is := is.New(t)

	g, err := ParseGender("Male")
	is.NoErr(err)
	is.Equal(g, GenderMale)
	g, err = ParseGender("Female")
	is.NoErr(err)
	is.Equal(g, GenderFemale)

	for _, in := range []string{"male", "FEMALE", "", "Other", " Male"} {
		_, err := ParseGender(in)
		var pe *ParseEnumError
		is.True(errors.As(err, &pe)) // expected parse error
		is.Equal(pe.Input, in)
		is.Equal(pe.Enum, "Gender")
	}
}

func TestGoatJSONDecoding(t *testing.T) {
	is := is.New(t)

	var g Goat
	err := json.Unmarshal([]byte(`{
		"breed": "Nubian",
		"name": "Bella",
		"gender": "Female",
		"offspring": 1,
		"last_bred": "2024-03-14T00:00:00Z",
		"vaccinations": [{"name": "Rabies"}, {"id": 3, "name": ""}]
	}`), &g)
	is.NoErr(err)
	is.True(g.Breed.IsOther())
	is.Equal(g.Breed.String(), "Nubian")
	is.Equal(g.Gender, GenderFemale)
	is.True(g.LastBred != nil)
	is.Equal(len(g.Vaccinations), 2)
	is.Equal(*g.Vaccinations[1].ID, uint(3))

	err = json.Unmarshal([]byte(`{"name": "Bella", "gender": "female"}`), &g)
	var pe *ParseEnumError
	is.True(errors.As(err, &pe))
}

func TestRecordConversion(t *testing.T) {
	is := is.New(t)
	id := uint(9)
	g := Goat{ID: &id, Breed: BreedSirohi, Name: "Clara", Gender: GenderMale, Offspring: 3}

	rec := g.ToRecord()
	is.Equal(rec.ID, uint(0))
	is.Equal(rec.Breed, "Sirohi")
	is.Equal(rec.Gender, "Male")

	rec.ID = 5
	back, err := rec.ToGoat()
	is.NoErr(err)
	is.Equal(*back.ID, uint(5))
	is.Equal(back.Breed, BreedSirohi)
	is.Equal(len(back.Vaccinations), 0)

	rec.Gender = "Unknown"
	_, err = rec.ToGoat()
	var pe *ParseEnumError
	is.True(errors.As(err, &pe))
}
