package models

// SearchResult is a single rendered search hit.
type SearchResult struct {
	Document  *Document `json:"document"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Permalink string    `json:"permalink"`
	Rank      int       `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
	Terms     []string        `json:"terms"`
	// Suggestions holds "Did you mean?" alternatives, only filled when nothing matched.
	Suggestions []string `json:"suggestions,omitempty"`
}
