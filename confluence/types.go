package confluence

// Content is the v1 REST representation of a page (or attachment; the API
// models both as "content"):
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/
//
// Only the fields the publish pipeline actually touches are mapped.
type Content struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type,omitempty"`   // page, attachment
	Status string `json:"status,omitempty"` // current, trashed, ...
	Title  string `json:"title,omitempty"`

	Space     *SpaceRef  `json:"space,omitempty"`
	Ancestors []Ancestor `json:"ancestors,omitempty"`
	Version   *Version   `json:"version,omitempty"`
	Body      *Body      `json:"body,omitempty"`

	Links Links `json:"_links,omitempty"`
}

// SpaceRef is how v1 payloads point at a space.
type SpaceRef struct {
	Key string `json:"key"`
}

// Ancestor places a page under a parent in create payloads.
type Ancestor struct {
	ID string `json:"id"`
}

// Version defines the content version number
// the version number is used for updating content
type Version struct {
	Number    int    `json:"number"`
	When      string `json:"when,omitempty"`
	Message   string `json:"message,omitempty"`
	MinorEdit bool   `json:"minorEdit"`
}

// Body holds the storage information
type Body struct {
	Storage Storage `json:"storage"`
}

// Storage defines the storage information
type Storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// Links carries the web locations the API hands back; WebUI is relative to
// the site base.
type Links struct {
	WebUI    string `json:"webui,omitempty"`
	Download string `json:"download,omitempty"`
}

// Attachment is the slice of Content we care about when talking to the
// child/attachment endpoints.  Title is the filename, which is the upsert key.
type Attachment struct {
	ID      string   `json:"id,omitempty"`
	Title   string   `json:"title,omitempty"`
	Version *Version `json:"version,omitempty"`
	Links   Links    `json:"_links,omitempty"`
}

// See https://developer.atlassian.com/cloud/confluence/rest/v2/api-group-space/#api-spaces-get.
type Space struct {
	ID     string `json:"id,omitempty"`
	Key    string `json:"key,omitempty"`
	Name   string `json:"name,omitempty"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
}

// See https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-users/#api-wiki-rest-api-user-current-get
type User struct {
	Type        string `json:"type"`
	Username    string `json:"username"`
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}
