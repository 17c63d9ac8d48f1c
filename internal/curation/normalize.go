package curation

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

// Title cleaning limits.
const (
	maxTitleRunes       = 90
	truncatedTitleRunes = 87
	legacyTitleRunes    = 65

	untitled       = "Untitled"
	untitledLegacy = "Untitled Page"
	ellipsis       = "..."
)

var (
	// Trailing site decorations such as " - YouTube" or " • Inbox".
	titleSuffix       = regexp.MustCompile(`\s[-|\x{2022}]\s.*$`)
	legacyTitleSuffix = regexp.MustCompile(`\s-.*`)
	whitespaceRun     = regexp.MustCompile(`\s+`)

	genericTitlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^new tab$`),
		regexp.MustCompile(`^home$`),
		regexp.MustCompile(`^homepage$`),
		regexp.MustCompile(`^untitled$`),
		regexp.MustCompile(`sign in`),
		regexp.MustCompile(`log in`),
		regexp.MustCompile(`login`),
		regexp.MustCompile(`account`),
		regexp.MustCompile(`verify`),
		regexp.MustCompile(`security`),
		regexp.MustCompile(`welcome`),
		regexp.MustCompile(`index of`),
	}
)

// CanonicalHost lowercases and trims a host and strips one leading "www.".
func CanonicalHost(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(h, "www.")
}

// HostFromURL extracts the canonical host of a URL, or "" if it cannot be parsed.
func HostFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return CanonicalHost(u.Host)
}

// EntryHost returns the canonical host of an entry. A host holding a full
// URL is reduced to its host part, and an empty host falls back to the URL.
func EntryHost(h domain.HistoryEntry) string {
	switch {
	case strings.Contains(h.Host, "://"):
		return HostFromURL(h.Host)
	case strings.TrimSpace(h.Host) == "" && h.URL != "":
		return HostFromURL(h.URL)
	default:
		return CanonicalHost(h.Host)
	}
}

// CleanTitle strips trailing site decorations, collapses whitespace and
// truncates long titles. It never returns "".
func CleanTitle(title string) string {
	t := strings.TrimSpace(title)
	if t == "" {
		return untitled
	}
	t = strings.TrimSpace(titleSuffix.ReplaceAllString(t, ""))
	t = strings.TrimSpace(whitespaceRun.ReplaceAllString(t, " "))
	if utf8.RuneCountInString(t) > maxTitleRunes {
		t = string([]rune(t)[:truncatedTitleRunes]) + ellipsis
	}
	if t == "" {
		return untitled
	}
	return t
}

// CleanTitleLegacy is the older, more aggressive cleaner: it drops everything
// after the first whitespace-dash and keeps at most 65 characters.
func CleanTitleLegacy(title string) string {
	if title == "" {
		return untitledLegacy
	}
	t := strings.TrimSpace(legacyTitleSuffix.ReplaceAllString(title, ""))
	t = strings.TrimSpace(whitespaceRun.ReplaceAllString(t, " "))
	if utf8.RuneCountInString(t) > legacyTitleRunes {
		return string([]rune(t)[:legacyTitleRunes]) + ellipsis
	}
	if t == "" {
		return untitledLegacy
	}
	return t
}

// IsGenericTitle reports whether a title carries no signal: very short
// titles, browser chrome and login or account pages.
func IsGenericTitle(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if utf8.RuneCountInString(t) <= 3 {
		return true
	}
	for _, re := range genericTitlePatterns {
		if re.MatchString(t) {
			return true
		}
	}
	return false
}

// TitleCleaner is a title normalisation function.
type TitleCleaner func(string) string
