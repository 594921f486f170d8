package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/yourusername/reel-summarize-go/internal/domain"
	"go.uber.org/zap"
)

const defaultGeocodeBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// noLocationPhrases mark a line or section as "nothing to geocode".
var noLocationPhrases = []string{
	"none mentioned", "none", "n/a", "not mentioned",
	"no specific", "no locations", "not specified",
	"none were mentioned", "no places", "not applicable",
	"no location", "unidentified", "unknown location",
	"no geographical", "not identifiable", "indoors",
	"indoor setting", "studio", "unspecified",
}

// locationSkipPhrases appear in narrative text the model sometimes puts in the
// locations section instead of place names.
var locationSkipPhrases = []string{
	"the video", "this video", "the reel", "various",
	"multiple locations", "several places", "different areas",
	"background", "setting", "scene", "shot", "frame",
	"mentioned", "shown", "visible", "appears", "featured",
}

// Descriptors stripped from location names before geocoding: parentheticals,
// brackets, articles, dash-suffixed descriptions and trailing clauses.
var locationDescriptorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(.*?\)`),
	regexp.MustCompile(`\[.*?\]`),
	regexp.MustCompile(`(?i)(?:^|\s)(?:the|a|an)\s+`),
	regexp.MustCompile(`(?i)(?:\s*[-–—]\s*.+)$`),
	regexp.MustCompile(`(?i)(?:,\s*(?:which|where|that|a|the)\s+.+)$`),
}

var locationPrefixPattern = regexp.MustCompile(`(?i)^(?:at|in|near|around|from|to)\s+`)

// Heading forms the model emits for the locations section, most specific
// first.
var locationSectionHeaders = []*regexp.Regexp{
	regexp.MustCompile(`(?mi)^#{1,4}[ \t]*(?:\x{1F4CD}\x{FE0F}?\s*)?Locations?[ \t]*:?[ \t]*$`),
	regexp.MustCompile(`(?mi)^\*\*[ \t]*(?:\x{1F4CD}\x{FE0F}?\s*)?Locations?[ \t]*:?[ \t]*\*\*[ \t]*\n?`),
	regexp.MustCompile(`(?mi)^(?:\x{1F4CD}\x{FE0F}?\s*)?Locations?[ \t]*:[ \t]*$`),
}

var locationSectionEnd = regexp.MustCompile(`(?m)^(#{1,4}[ \t]|---|\*\*)`)

var bulletPrefixPattern = regexp.MustCompile(`^[\s\-*•►▸→·‣⁃\d.)]+`)

var andSplitPattern = regexp.MustCompile(`(?i)\s+and\s+`)

// GoogleGeocoder extracts location names from summary text and resolves them
// to coordinates through the Google Geocoding API.
type GoogleGeocoder struct {
	config     *domain.GeocodingConfig
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// GeocoderOption customizes the geocoder.
type GeocoderOption func(*GoogleGeocoder)

// WithGeocoderHTTPClient overrides the default HTTP client.
func WithGeocoderHTTPClient(client *http.Client) GeocoderOption {
	return func(g *GoogleGeocoder) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithGeocoderBaseURL overrides the API endpoint (useful for tests).
func WithGeocoderBaseURL(baseURL string) GeocoderOption {
	return func(g *GoogleGeocoder) {
		if baseURL != "" {
			g.baseURL = baseURL
		}
	}
}

// NewGoogleGeocoder creates a new geocoder
func NewGoogleGeocoder(config *domain.GeocodingConfig, logger *zap.Logger, opts ...GeocoderOption) *GoogleGeocoder {
	geocoder := &GoogleGeocoder{
		config:     config,
		baseURL:    defaultGeocodeBaseURL,
		httpClient: &http.Client{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(geocoder)
	}
	return geocoder
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// ExtractLocations pulls location names out of a summary's locations section.
// Returns at most MaxLocations unique names, in order of appearance.
func (g *GoogleGeocoder) ExtractLocations(text string) []string {
	if text == "" {
		return nil
	}

	section := extractLocationsSection(text)
	if section == "" {
		return nil
	}

	locations := parseLocationLines(section)
	if len(locations) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	unique := make([]string, 0, len(locations))
	for _, loc := range locations {
		lower := strings.ToLower(loc)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		unique = append(unique, loc)
	}

	if limit := g.config.MaxLocations; limit > 0 && len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}

// Geocode resolves a single location name. Returns (nil, nil) when the name
// is not worth geocoding or the API found nothing.
func (g *GoogleGeocoder) Geocode(ctx context.Context, name string) (*domain.Location, error) {
	if !g.config.Configured() {
		return nil, errors.New("geocoding api key not configured")
	}

	cleaned := cleanLocationName(name)
	if !isValidLocation(cleaned) {
		return nil, nil
	}

	reqCtx := ctx
	if g.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, g.config.RequestTimeout)
		defer cancel()
	}

	params := url.Values{}
	params.Set("address", cleaned)
	params.Set("key", g.config.APIKey)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: new request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("geocode: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: http %d", resp.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}

	switch decoded.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, fmt.Errorf("geocode: status %s", decoded.Status)
	}

	if len(decoded.Results) == 0 {
		return nil, nil
	}

	result := decoded.Results[0]
	displayName := result.FormattedAddress
	if displayName == "" {
		displayName = cleaned
	}

	return &domain.Location{
		Name:        cleaned,
		Latitude:    result.Geometry.Location.Lat,
		Longitude:   result.Geometry.Location.Lng,
		DisplayName: displayName,
	}, nil
}

// GeocodeAll resolves a batch of names, spacing requests to stay under the
// API rate limit and dropping duplicates that resolve to the same
// coordinates. Failures are logged and skipped.
func (g *GoogleGeocoder) GeocodeAll(ctx context.Context, names []string) []domain.Location {
	if !g.config.Configured() {
		g.logger.Warn("geocoding api key not configured, skipping location resolution")
		return nil
	}

	var locations []domain.Location
	seen := make(map[[2]float64]bool)

	for i, name := range names {
		if ctx.Err() != nil {
			return locations
		}
		if i > 0 && g.config.RequestSpacing > 0 {
			select {
			case <-ctx.Done():
				return locations
			case <-time.After(g.config.RequestSpacing):
			}
		}

		location, err := g.Geocode(ctx, name)
		if err != nil {
			g.logger.Warn("geocoding failed",
				zap.String("location", name),
				zap.Error(err))
			continue
		}
		if location == nil {
			continue
		}

		// Same place often comes back under different names
		key := [2]float64{roundCoord(location.Latitude), roundCoord(location.Longitude)}
		if seen[key] {
			continue
		}
		seen[key] = true
		locations = append(locations, *location)
	}

	return locations
}

func roundCoord(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// extractLocationsSection returns the body of the locations section, or ""
// when the text has none.
func extractLocationsSection(text string) string {
	for _, header := range locationSectionHeaders {
		loc := header.FindStringIndex(text)
		if loc == nil {
			continue
		}
		rest := text[loc[1]:]
		if end := locationSectionEnd.FindStringIndex(rest); end != nil {
			rest = rest[:end[0]]
		}
		if content := strings.TrimSpace(rest); content != "" {
			return content
		}
	}
	return ""
}

// parseLocationLines splits section content into candidate location names.
func parseLocationLines(content string) []string {
	contentLower := strings.ToLower(strings.TrimSpace(content))
	for _, phrase := range noLocationPhrases {
		if contentLower == phrase || strings.HasPrefix(contentLower, phrase) {
			return nil
		}
	}

	var locations []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lineLower := strings.ToLower(line)
		skip := false
		for _, phrase := range noLocationPhrases {
			if strings.Contains(lineLower, phrase) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		line = strings.TrimSpace(bulletPrefixPattern.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}

		// More than two commas means a list; two or fewer is usually a
		// "City, Country" form that must stay intact.
		var parts []string
		commaCount := strings.Count(line, ",")
		switch {
		case commaCount > 2:
			parts = strings.Split(line, ",")
		case commaCount == 0 && strings.Contains(strings.ToLower(line), " and "):
			parts = andSplitPattern.Split(line, -1)
		default:
			parts = []string{line}
		}

		for _, part := range parts {
			if cleaned := cleanLocationName(part); isValidLocation(cleaned) {
				locations = append(locations, cleaned)
			}
		}
	}
	return locations
}

// cleanLocationName normalizes a raw location name for geocoding.
func cleanLocationName(name string) string {
	cleaned := strings.TrimSpace(name)
	cleaned = locationPrefixPattern.ReplaceAllString(cleaned, "")
	for _, pattern := range locationDescriptorPatterns {
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.Trim(cleaned, `"'“”‘’`)
	cleaned = strings.TrimRight(cleaned, ".,;:!?")
	return strings.Join(strings.Fields(cleaned), " ")
}

// isValidLocation filters out fragments that are clearly not place names.
func isValidLocation(name string) bool {
	length := utf8.RuneCountInString(name)
	if length < 2 || length > 100 {
		return false
	}

	lower := strings.ToLower(name)
	for _, phrase := range locationSkipPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	for _, phrase := range noLocationPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}

	digits, letters := 0, 0
	for _, r := range name {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		}
	}
	if letters == 0 {
		return false
	}
	if digits*2 > length {
		return false
	}

	if len(strings.Fields(name)) > 6 {
		return false
	}
	return true
}
