package domain

import (
	"fmt"
	"slices"
	"strings"

	"feed_triage/internal/markup"
)

// Status is the user-assigned triage state of an entry.
type Status string

const (
	StatusUnread   Status = "unread"
	StatusLiked    Status = "liked"
	StatusDisliked Status = "disliked"
	StatusSkipped  Status = "skipped"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusUnread, StatusLiked, StatusDisliked, StatusSkipped:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// Record is the shape an entry takes at the storage boundary.
type Record struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Author       string   `json:"author"`
	Link         string   `json:"link"`
	GUID         string   `json:"guid"`
	Timestamp    int64    `json:"timestamp"`
	Tags         []string `json:"tags"`
	Status       Status   `json:"status"`
	ClickedLinks []string `json:"clicked_links"`
}

// Entry is one feed item plus its triage state. Everything but the status
// and the clicked links is immutable once created.
type Entry struct {
	Title     string
	Summary   string
	Author    string
	Link      string
	GUID      string
	Timestamp int64
	Tags      []string

	status       Status
	clickedLinks []string

	links         []string
	linksOK       bool
	ratingDomains []string
	ratingOK      bool
	trainingText  string
	trainingOK    bool
}

// NewEntry builds an entry from its stored record. An empty status is
// treated as unread.
func NewEntry(r Record) *Entry {
	status := r.Status
	if status == "" {
		status = StatusUnread
	}
	return &Entry{
		Title:        r.Title,
		Summary:      r.Summary,
		Author:       r.Author,
		Link:         r.Link,
		GUID:         r.GUID,
		Timestamp:    r.Timestamp,
		Tags:         slices.Clone(r.Tags),
		status:       status,
		clickedLinks: slices.Clone(r.ClickedLinks),
	}
}

// Record returns the storable form of the entry.
func (e *Entry) Record() Record {
	return Record{
		Title:        e.Title,
		Summary:      e.Summary,
		Author:       e.Author,
		Link:         e.Link,
		GUID:         e.GUID,
		Timestamp:    e.Timestamp,
		Tags:         slices.Clone(e.Tags),
		Status:       e.status,
		ClickedLinks: slices.Clone(e.clickedLinks),
	}
}

func (e *Entry) Status() Status { return e.status }

func (e *Entry) ClickedLinks() []string { return slices.Clone(e.clickedLinks) }

// SetStatus reclassifies the entry.
func (e *Entry) SetStatus(s Status) {
	e.status = s
	e.invalidate()
}

// Click records a link the user opened from this entry.
func (e *Entry) Click(link string) {
	e.clickedLinks = append(e.clickedLinks, link)
	e.invalidate()
}

// Links returns the outbound links found in the summary.
func (e *Entry) Links() []string {
	if !e.linksOK {
		e.links = markup.Links(e.Summary)
		e.linksOK = true
	}
	return e.links
}

// LinksForRating returns the clicked links of a liked entry when there are
// any, and the summary's outbound links otherwise.
func (e *Entry) LinksForRating() []string {
	if e.status == StatusLiked && len(e.clickedLinks) > 0 {
		return e.clickedLinks
	}
	return e.Links()
}

// RatingDomains returns the distinct second-level domains of LinksForRating,
// sorted.
func (e *Entry) RatingDomains() []string {
	if !e.ratingOK {
		seen := make(map[string]struct{})
		var domains []string
		for _, link := range e.LinksForRating() {
			d, ok := markup.SecondLevelDomain(link)
			if !ok {
				continue
			}
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			domains = append(domains, d)
		}
		slices.Sort(domains)
		e.ratingDomains = domains
		e.ratingOK = true
	}
	return e.ratingDomains
}

// TrainingText is the document the text classifier learns from. Sources are
// weighted by repetition: title twice, summary text once, tags three times
// and a rendering of every outbound link once.
func (e *Entry) TrainingText() string {
	if !e.trainingOK {
		var b strings.Builder
		for i := 0; i < 2; i++ {
			b.WriteString(e.Title)
			b.WriteString("\n")
		}
		b.WriteString(markup.Text(e.Summary))
		b.WriteString("\n")
		tags := strings.Join(e.Tags, " ")
		for i := 0; i < 3; i++ {
			b.WriteString(tags)
			b.WriteString("\n")
		}
		for _, link := range e.Links() {
			b.WriteString(markup.LinkText(link))
			b.WriteString("\n")
		}
		e.trainingText = b.String()
		e.trainingOK = true
	}
	return e.trainingText
}

func (e *Entry) invalidate() {
	e.linksOK = false
	e.ratingOK = false
	e.trainingOK = false
}
