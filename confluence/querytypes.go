package confluence

// ContentSearchQuery defines the query parameters for the v1 content search:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-get
//
// Searching by (spaceKey, title) is how the pipeline resolves its report
// pages; expand=version so the result can seed a stale-free update.
type ContentSearchQuery struct {
	SpaceKey string `url:"spaceKey,omitempty"`
	Title    string `url:"title,omitempty"`
	Type     string `url:"type,omitempty"`   // defaults to page server-side
	Status   string `url:"status,omitempty"` // current, trashed, ...
	Expand   string `url:"expand,omitempty"`

	Start int `url:"start,omitempty"`
	Limit int `url:"limit,omitempty"` // server default 25
}

// ContentByIDQuery defines the query parameters for fetching one content item:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-id-get
type ContentByIDQuery struct {
	ID     string `url:"-"` // required
	Expand string `url:"expand,omitempty"`
}

// ChildrenQuery defines the query parameters for listing a page's children,
// both child pages (parent index rebuild) and child attachments (upsert by
// filename):
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content---children-and-descendants/
type ChildrenQuery struct {
	ID string `url:"-"` // parent content ID; required

	Filename string `url:"filename,omitempty"` // attachments only
	Expand   string `url:"expand,omitempty"`

	Start int `url:"start,omitempty"`
	Limit int `url:"limit,omitempty"`
}

// SpacesQuery defines the query parameters for:
// https://developer.atlassian.com/cloud/confluence/rest/v2/api-group-space/#api-spaces-get
type SpacesQuery struct {
	// Filter the results to spaces based on...
	Keys   []string `url:"keys,omitempty,comma"` // their keys.
	Type   string   `url:"type,omitempty"`       // their types. Valid values: "global" or "personal"
	Status string   `url:"status,omitempty"`     // their status: current, archived.

	Sort string `url:"sort,omitempty"` // Sort order: id, -id, key, -key, name, -name

	// 'Cursor' is used for pagination; this opaque cursor will be returned in the 'next' URL in the
	// 'Link' response header.  Use the relative URL in the 'Link' header to retrieve the next set
	// of results.
	Cursor string `url:"cursor,omitempty"`
	Limit  int    `url:"limit,omitempty"` // page limit; default 25, range 1-250
}
