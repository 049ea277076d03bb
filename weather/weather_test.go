package weather

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCity(t *testing.T) {
	tests := []struct {
		in   string
		want CityKey
	}{
		{"London", "london"},
		{"LONDON", "london"},
		{"New York", "newyork"},
		{"  new   york ", "newyork"},
		{"New\tYork", "newyork"},
		{"newyork", "newyork"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCity(tt.in), tt.in)
	}
}

func TestNormalizeCityIdempotent(t *testing.T) {
	for _, city := range []string{"New York", "Tokyo", " Lon don ", "Paris"} {
		once := NormalizeCity(city)
		assert.Equal(t, once, NormalizeCity(string(once)), city)
	}
}

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()
	assert.Len(t, table, 3)
	for _, key := range []CityKey{"newyork", "london", "tokyo"} {
		assert.Contains(t, table, key)
	}
}

func TestLookupHit(t *testing.T) {
	table := DefaultTable()
	for _, city := range []string{"london", "London", "LONDON", " Lon don "} {
		res := table.Lookup(city)
		require.IsType(t, Success{}, res, city)
		assert.Equal(t, StatusSuccess, res.Status())
		assert.Equal(t, "It's cloudy in London with a temperature of 15°C.", res.(Success).Report)
	}

	res := table.Lookup("new york")
	assert.Equal(t, Success{Report: "The weather in New York is sunny with a temperature of 25°C."}, res)
	res = table.Lookup("Tokyo")
	assert.Equal(t, Success{Report: "Tokyo is experiencing light rain and a temperature of 18°C."}, res)
}

func TestLookupMissEchoesInput(t *testing.T) {
	res := DefaultTable().Lookup("  Paris ")
	require.IsType(t, Failure{}, res)
	assert.Equal(t, StatusError, res.Status())
	assert.Equal(t, "Sorry, I don't have weather information for '  Paris '.", res.(Failure).ErrorMessage)
}

func TestResultJSON(t *testing.T) {
	raw, err := json.Marshal(Result(Success{Report: "sunny"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"success","report":"sunny"}`, string(raw))

	raw, err = json.Marshal(Result(Failure{ErrorMessage: "nope"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","error_message":"nope"}`, string(raw))
}

func TestLookupKnownCities(t *testing.T) {
	table := DefaultTable()
	tests := []struct {
		city   string
		report string
	}{
		{"New York", "The weather in New York is sunny with a temperature of 25°C."},
		{"london", "It's cloudy in London with a temperature of 15°C."},
		{"TOKYO", "Tokyo is experiencing light rain and a temperature of 18°C."},
	}
	for _, tt := range tests {
		t.Run(tt.city, func(t *testing.T) {
			res := table.Lookup(tt.city)
			require.IsType(t, Success{}, res)
			assert.Equal(t, StatusSuccess, res.Status())
			assert.Equal(t, tt.report, res.(Success).Report)
		})
	}
}

func TestLookupRepeatable(t *testing.T) {
	table := DefaultTable()
	for _, city := range []string{"Paris", "New York", "TOKYO"} {
		first := table.Lookup(city)
		second := table.Lookup(city)
		assert.Equal(t, first, second, city)
	}

	miss := table.Lookup("Paris")
	assert.Equal(t, Failure{ErrorMessage: "Sorry, I don't have weather information for 'Paris'."}, miss)
	assert.Equal(t, miss, table.Lookup("Paris"))
}
