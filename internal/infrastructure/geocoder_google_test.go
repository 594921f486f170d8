package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/reel-summarize-go/internal/domain"
	"go.uber.org/zap"
)

func setupTestGeocoder(t *testing.T, handler http.HandlerFunc) (*GoogleGeocoder, func()) {
	server := httptest.NewServer(handler)

	config := &domain.GeocodingConfig{
		APIKey:         "test-key",
		RequestTimeout: 5 * time.Second,
		RequestSpacing: time.Millisecond,
		MaxLocations:   10,
	}
	geocoder := NewGoogleGeocoder(config, zap.NewNop(), WithGeocoderBaseURL(server.URL))

	return geocoder, server.Close
}

func geocodeOKResponse(address string, lat, lng float64) map[string]interface{} {
	return map[string]interface{}{
		"status": "OK",
		"results": []map[string]interface{}{
			{
				"formatted_address": address,
				"geometry": map[string]interface{}{
					"location": map[string]float64{"lat": lat, "lng": lng},
				},
			},
		},
	}
}

func TestExtractLocationsSection(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "heading with emoji",
			text:     "### 📝 Summary\nStuff.\n\n### 📍 Locations:\nParis, France\nTokyo\n\n---\n**Constraint:** n/a",
			expected: "Paris, France\nTokyo",
		},
		{
			name:     "heading without emoji",
			text:     "## Locations\n- Rome\n\n## Next Section\nmore",
			expected: "- Rome",
		},
		{
			name:     "bold label",
			text:     "**Locations:**\nLisbon\n\n**Highlights:**\nnone",
			expected: "Lisbon",
		},
		{
			name:     "bold label same line",
			text:     "**Locations:** Madrid, Spain",
			expected: "Madrid, Spain",
		},
		{
			name:     "bare label",
			text:     "Summary here.\n\nLocations:\nBerlin\n",
			expected: "Berlin",
		},
		{
			name:     "no section",
			text:     "### Summary\nJust a summary, no places.",
			expected: "",
		},
		{
			name:     "empty section body",
			text:     "### 📍 Locations:\n\n### Next\nx",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractLocationsSection(tt.text))
		})
	}
}

func TestParseLocationLines(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "bulleted lines",
			content:  "- Paris, France\n- Tokyo\n* Rome",
			expected: []string{"Paris, France", "Tokyo", "Rome"},
		},
		{
			name:     "numbered lines",
			content:  "1. Lisbon\n2. Porto",
			expected: []string{"Lisbon", "Porto"},
		},
		{
			name:     "city country stays intact",
			content:  "Queenstown, New Zealand",
			expected: []string{"Queenstown, New Zealand"},
		},
		{
			name:     "comma list splits",
			content:  "Paris, London, Tokyo, Sydney",
			expected: []string{"Paris", "London", "Tokyo", "Sydney"},
		},
		{
			name:     "and splits without commas",
			content:  "Paris and London",
			expected: []string{"Paris", "London"},
		},
		{
			name:     "none mentioned section",
			content:  "None mentioned",
			expected: nil,
		},
		{
			name:     "no location line skipped",
			content:  "Oslo\nNo specific locations shown",
			expected: []string{"Oslo"},
		},
		{
			name:     "leading no location phrase drops section",
			content:  "No specific locations shown\nOslo",
			expected: nil,
		},
		{
			name:     "narrative lines filtered",
			content:  "The video shows various places\nKyoto",
			expected: []string{"Kyoto"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLocationLines(tt.content))
		})
	}
}

func TestCleanLocationName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Paris", "Paris"},
		{"  Tokyo, Japan  ", "Tokyo, Japan"},
		{"at the Eiffel Tower", "Eiffel Tower"},
		{"in Bali [Indonesia]", "Bali"},
		{"Central Park (New York)", "Central Park"},
		{"Santorini - a Greek island", "Santorini"},
		{`"Kyoto"`, "Kyoto"},
		{"Lisbon, which has great food", "Lisbon"},
		{"Rome.", "Rome"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanLocationName(tt.input))
		})
	}
}

func TestIsValidLocation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple city", "Paris", true},
		{"city and country", "Paris, France", true},
		{"too short", "x", false},
		{"too long", strings.Repeat("a", 101), false},
		{"skip phrase", "the video background", false},
		{"no location phrase", "None mentioned", false},
		{"only digits", "123456", false},
		{"mostly digits", "1234567 ab", false},
		{"no letters", "!!! ---", false},
		{"sentence", "this place has many interesting things to see", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, isValidLocation(tt.input))
		})
	}
}

func TestGoogleGeocoderExtractLocations(t *testing.T) {
	geocoder, cleanup := setupTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {})
	defer cleanup()

	t.Run("full summary", func(t *testing.T) {
		text := "### 📝 Executive Summary\nA food tour.\n\n" +
			"### 📍 Locations:\n- Paris, France\n- Tokyo\n- paris, france\n\n" +
			"---\n**Constraint:** n/a"

		locations := geocoder.ExtractLocations(text)
		assert.Equal(t, []string{"Paris, France", "Tokyo"}, locations)
	})

	t.Run("respects max locations", func(t *testing.T) {
		geocoder.config.MaxLocations = 2
		defer func() { geocoder.config.MaxLocations = 10 }()

		text := "### 📍 Locations:\n- Paris\n- London\n- Rome\n"
		locations := geocoder.ExtractLocations(text)
		assert.Equal(t, []string{"Paris", "London"}, locations)
	})

	t.Run("none mentioned", func(t *testing.T) {
		text := "### 📍 Locations:\nNone mentioned\n"
		assert.Empty(t, geocoder.ExtractLocations(text))
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, geocoder.ExtractLocations(""))
	})
}

func TestGoogleGeocoderGeocode(t *testing.T) {
	t.Run("resolves a location", func(t *testing.T) {
		requests := 0
		geocoder, cleanup := setupTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
			assert.Equal(t, "Paris, France", r.URL.Query().Get("address"))
			assert.Equal(t, "test-key", r.URL.Query().Get("key"))
			json.NewEncoder(w).Encode(geocodeOKResponse("Paris, France", 48.8566, 2.3522))
		})
		defer cleanup()

		location, err := geocoder.Geocode(context.Background(), "Paris, France")
		require.NoError(t, err)
		require.NotNil(t, location)
		assert.Equal(t, "Paris, France", location.Name)
		assert.Equal(t, 48.8566, location.Latitude)
		assert.Equal(t, 2.3522, location.Longitude)
		assert.Equal(t, "Paris, France", location.DisplayName)
		assert.Equal(t, 1, requests)
	})

	t.Run("zero results", func(t *testing.T) {
		geocoder, cleanup := setupTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"status": "ZERO_RESULTS"})
		})
		defer cleanup()

		location, err := geocoder.Geocode(context.Background(), "Atlantis")
		require.NoError(t, err)
		assert.Nil(t, location)
	})

	t.Run("request denied", func(t *testing.T) {
		geocoder, cleanup := setupTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"status": "REQUEST_DENIED"})
		})
		defer cleanup()

		_, err := geocoder.Geocode(context.Background(), "Paris")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "REQUEST_DENIED")
	})

	t.Run("invalid name skipped without request", func(t *testing.T) {
		requests := 0
		geocoder, cleanup := setupTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
			requests++
		})
		defer cleanup()

		location, err := geocoder.Geocode(context.Background(), "none mentioned")
		require.NoError(t, err)
		assert.Nil(t, location)
		assert.Equal(t, 0, requests)
	})

	t.Run("not configured", func(t *testing.T) {
		geocoder := NewGoogleGeocoder(&domain.GeocodingConfig{}, zap.NewNop())
		_, err := geocoder.Geocode(context.Background(), "Paris")
		assert.Error(t, err)
	})
}

func TestGoogleGeocoderGeocodeAll(t *testing.T) {
	coords := map[string][2]float64{
		"Paris, France": {48.857, 2.352},
		"Paris":         {48.857, 2.352},
		"Tokyo":         {35.676, 139.650},
	}

	geocoder, cleanup := setupTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		address := r.URL.Query().Get("address")
		c, ok := coords[address]
		if !ok {
			json.NewEncoder(w).Encode(map[string]interface{}{"status": "ZERO_RESULTS"})
			return
		}
		json.NewEncoder(w).Encode(geocodeOKResponse(address, c[0], c[1]))
	})
	defer cleanup()

	locations := geocoder.GeocodeAll(context.Background(), []string{
		"Paris, France",
		"Paris", // same coordinates, dropped as duplicate
		"Tokyo",
		"Atlantis", // no results
	})

	require.Len(t, locations, 2)
	assert.Equal(t, "Paris, France", locations[0].Name)
	assert.Equal(t, "Tokyo", locations[1].Name)
}

func TestGeocodeAllNotConfigured(t *testing.T) {
	geocoder := NewGoogleGeocoder(&domain.GeocodingConfig{}, zap.NewNop())
	assert.Empty(t, geocoder.GeocodeAll(context.Background(), []string{"Paris"}))
}

func TestRoundCoord(t *testing.T) {
	assert.Equal(t, 48.857, roundCoord(48.85661))
	assert.Equal(t, -2.353, roundCoord(-2.35251))
	assert.Equal(t, 0.0, roundCoord(0.0004))
}
