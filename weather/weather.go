// Package weather is the mock weather lookup exposed to the agent as the
// get_weather tool.
package weather

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is either a Success or a Failure.
type Result interface {
	Status() string
	isResult()
}

// Success carries the weather report of a known city.
type Success struct {
	Report string
}

func (Success) Status() string { return StatusSuccess }
func (Success) isResult()      {}

func (s Success) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"status": StatusSuccess, "report": s.Report})
}

// Failure explains why no report is available.
type Failure struct {
	ErrorMessage string
}

func (Failure) Status() string { return StatusError }
func (Failure) isResult()      {}

func (f Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"status": StatusError, "error_message": f.ErrorMessage})
}

// CityKey is a normalized city name.
type CityKey string

// NormalizeCity lowercases city and drops all whitespace, so "New York",
// "new york" and "NewYork" share the key "newyork". Tabs and other Unicode
// spaces are dropped as well, not only ' '.
func NormalizeCity(city string) CityKey {
	return CityKey(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, city))
}

// Table maps city keys to weather reports. It is read-only once built.
type Table map[CityKey]string

// DefaultTable returns the mock weather database.
func DefaultTable() Table {
	return Table{
		"newyork": "The weather in New York is sunny with a temperature of 25°C.",
		"london":  "It's cloudy in London with a temperature of 15°C.",
		"tokyo":   "Tokyo is experiencing light rain and a temperature of 18°C.",
	}
}

// Lookup returns the report for city. A miss echoes the city as given.
func (t Table) Lookup(city string) Result {
	if report, ok := t[NormalizeCity(city)]; ok {
		return Success{Report: report}
	}
	return Failure{ErrorMessage: fmt.Sprintf("Sorry, I don't have weather information for '%s'.", city)}
}
