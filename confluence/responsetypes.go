package confluence

// ContentSearchResult is the envelope for v1 content search and child-page
// listings.  A zero Size means the search found nothing.
type ContentSearchResult struct {
	Results []Content `json:"results"`
	Start   int       `json:"start"`
	Limit   int       `json:"limit"`
	Size    int       `json:"size"`
}

// AttachmentList is the envelope for child/attachment queries.
type AttachmentList struct {
	Results []Attachment `json:"results"`
	Size    int          `json:"size"`
}

// AllSpaces response type
type AllSpaces struct {
	Results []Space `json:"results"`

	Links struct {
		// Contains the relative URL for the next set of results, using a cursor query
		// parameter. This property will not be present if there is no additional data available.
		Next string `json:"next"`
	} `json:"_links"`
}
