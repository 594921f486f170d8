package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// SummaryMethod identifies which pathway produced a summary.
type SummaryMethod string

const (
	// MethodVideoAnalysis means the downloaded media file was analyzed.
	MethodVideoAnalysis SummaryMethod = "video_analysis"
	// MethodMetadataOnly means only the resolved metadata was summarized.
	MethodMetadataOnly SummaryMethod = "metadata_only"
)

// Location is a geocoded place mentioned in a summary.
type Location struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name,omitempty"`
}

// SummaryResult is the terminal outcome of a summarize run.
//
// On success the summary and method are set and the error is empty; on
// failure the error is set and summary and method are empty. MediaInfo is
// populated whenever URL resolution succeeded, including on failures that
// happen after that point.
type SummaryResult struct {
	Success        bool          `json:"success"`
	URL            string        `json:"url"`
	Summary        string        `json:"summary,omitempty"`
	GeneratedTitle string        `json:"generated_title,omitempty"`
	Method         SummaryMethod `json:"method,omitempty"`
	MediaInfo      *MediaInfo    `json:"media_info,omitempty"`
	Locations      []Location    `json:"locations,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// NewSuccessResult builds a successful result.
func NewSuccessResult(url, summary string, method SummaryMethod, info *MediaInfo) *SummaryResult {
	return &SummaryResult{
		Success:   true,
		URL:       url,
		Summary:   summary,
		Method:    method,
		MediaInfo: info,
	}
}

// NewFailureResult builds a failed result. info may be nil when resolution
// itself failed.
func NewFailureResult(url, errMsg string, info *MediaInfo) *SummaryResult {
	return &SummaryResult{
		Success:   false,
		URL:       url,
		MediaInfo: info,
		Error:     errMsg,
	}
}

// Title heading forms the model emits: a markdown heading, a bold label, or a
// bare label at line start, with the title on the same or the following line.
var titlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?mi)^#{1,4}[ \t]*(?:\x{1F3F7}\x{FE0F}?\s*)?Title[ \t]*:?[ \t]*\n*[ \t]*(.+)`),
	regexp.MustCompile(`(?mi)^\*\*[ \t]*(?:\x{1F3F7}\x{FE0F}?\s*)?Title[ \t]*:?[ \t]*\*\*[ \t]*\n?[ \t]*(.+)`),
	regexp.MustCompile(`(?mi)^(?:\x{1F3F7}\x{FE0F}?\s*)?Title[ \t]*:[ \t]*\n?[ \t]*(.+)`),
}

var titleWhitespace = regexp.MustCompile(`\s+`)

// ASCII and curly quotes, plus stray markdown emphasis.
const titleTrimCutset = "\"'“”‘’*"

// ExtractTitle pulls the generated title out of summary text. Returns "" when
// no usable title is found.
func ExtractTitle(summary string) string {
	for _, pattern := range titlePatterns {
		match := pattern.FindStringSubmatch(summary)
		if match == nil {
			continue
		}
		title := strings.TrimSpace(match[1])
		if strings.HasPrefix(title, "#") {
			// ran into the next heading, the title line was empty
			continue
		}
		title = strings.Trim(title, titleTrimCutset)
		title = strings.Trim(title, ".")
		title = titleWhitespace.ReplaceAllString(title, " ")
		title = strings.TrimSpace(title)
		if n := utf8.RuneCountInString(title); n >= 3 && n <= 150 {
			return title
		}
	}
	return ""
}
