package domain

import (
	"encoding/json"
	"strings"
)

// HistoryEntry is one browsing-history record as uploaded by the browser extension.
// Any field may be missing; the pipeline normalises leniently.
type HistoryEntry struct {
	// Host is the page hostname, possibly with a "www." prefix.
	Host string `json:"host,omitempty"`

	// URL is used to derive Host when Host is missing.
	URL string `json:"url,omitempty"`

	// Title is the page title. Entries without one are discarded.
	Title string `json:"title,omitempty"`

	// LastVisitTime is carried through untouched.
	LastVisitTime json.RawMessage `json:"lastVisitTime,omitempty"`

	// VisitCount is the browser's visit counter; zero is treated as one.
	VisitCount int `json:"visitCount,omitempty"`
}

// Visits returns the visit count, defaulting to one.
func (e HistoryEntry) Visits() int {
	if e.VisitCount < 1 {
		return 1
	}
	return e.VisitCount
}

// CandidateItem is a cleaned, tagged history item.
type CandidateItem struct {
	Host          string          `json:"host"`
	Title         string          `json:"title"`
	VisitCount    int             `json:"visitCount"`
	LastVisitTime json.RawMessage `json:"lastVisitTime,omitempty"`
	Tag           string          `json:"tag,omitempty"`
}

// Pair returns the item's identity.
func (c CandidateItem) Pair() Pair {
	return NewPair(c.Host, c.Title)
}

// Entry converts the item back to a HistoryEntry for persistence.
func (c CandidateItem) Entry() HistoryEntry {
	return HistoryEntry{
		Host:          c.Host,
		Title:         c.Title,
		VisitCount:    c.VisitCount,
		LastVisitTime: c.LastVisitTime,
	}
}

// RealItem is a member of the curated pool offered to the generative service.
// ID is the index the service uses to reference the item.
type RealItem struct {
	ID    int    `json:"id"`
	Host  string `json:"host"`
	Title string `json:"title"`
	Tag   string `json:"tag"`
}

// Pair returns the item's identity.
func (r RealItem) Pair() Pair {
	return NewPair(r.Host, r.Title)
}

// Pair identifies a history item by canonical host and cleaned title.
type Pair struct {
	Host  string
	Title string
}

// NewPair builds a Pair.
func NewPair(host, title string) Pair {
	return Pair{Host: host, Title: title}
}

// Folded returns the pair with a lowercased title, for duplicate detection.
func (p Pair) Folded() Pair {
	return Pair{Host: p.Host, Title: strings.ToLower(p.Title)}
}

// HostStats summarises all entries sharing a canonical host.
type HostStats struct {
	// Count is the number of entries for the host.
	Count int

	// UniqTitles is the number of distinct lowercased titles.
	UniqTitles int

	// Variety is UniqTitles divided by Count.
	Variety float64
}

// DefaultHostStats is used when a host has no statistics.
var DefaultHostStats = HostStats{Count: 1, UniqTitles: 1, Variety: 1.0}
