package jsondb

// entryFile is one <id>.json document of an entry directory. Any field may
// be null.
type entryFile struct {
	Title        *string  `json:"title"`
	Summary      *string  `json:"summary"`
	Author       *string  `json:"author"`
	Link         *string  `json:"link"`
	GUID         *string  `json:"guid"`
	Timestamp    *float64 `json:"timestamp"`
	Tags         []string `json:"tags"`
	Status       *string  `json:"status"`
	ClickedLinks []string `json:"clicked_links"`
}
