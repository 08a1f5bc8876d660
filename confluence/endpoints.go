package confluence

import (
	"fmt"
	"net/url"
	"path"

	"github.com/google/go-querystring/query"
)

// searchContentEndpoint returns the (v1) API endpoint to search content by
// space and title:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content/#api-wiki-rest-api-content-get
func (a *API) searchContentEndpoint(opts ContentSearchQuery) (*url.URL, error) {
	ep, err := a.resolveEndpoint("rest/api/content")
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// createContentEndpoint returns the (v1) API endpoint that new pages are
// POSTed to.
func (a *API) createContentEndpoint() (*url.URL, error) {
	return a.resolveEndpoint("rest/api/content")
}

// contentByIDEndpoint returns the (v1) API endpoint for one content item;
// GET reads it, PUT updates it.
func (a *API) contentByIDEndpoint(opts ContentByIDQuery) (*url.URL, error) {
	if opts.ID == "" {
		return nil, fmt.Errorf("confluence: please provide ID to get content by ID")
	}

	ep, err := a.resolveEndpoint(fmt.Sprintf("rest/api/content/%s", opts.ID))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// childPagesEndpoint returns the (v1) API endpoint listing a page's child
// pages, used to rebuild the parent index:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content---children-and-descendants/#api-wiki-rest-api-content-id-child-page-get
func (a *API) childPagesEndpoint(opts ChildrenQuery) (*url.URL, error) {
	if opts.ID == "" {
		return nil, fmt.Errorf("confluence: please provide parent ID to list child pages")
	}

	ep, err := a.resolveEndpoint(fmt.Sprintf("rest/api/content/%s/child/page", opts.ID))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// childAttachmentsEndpoint returns the (v1) API endpoint for a page's
// attachments.  GET with ?filename= answers "is it already there"; POST
// uploads a new one.
func (a *API) childAttachmentsEndpoint(opts ChildrenQuery) (*url.URL, error) {
	if opts.ID == "" {
		return nil, fmt.Errorf("confluence: please provide page ID for attachments")
	}

	ep, err := a.resolveEndpoint(fmt.Sprintf("rest/api/content/%s/child/attachment", opts.ID))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// attachmentDataEndpoint returns the (v1) API endpoint that replaces an
// existing attachment's binary in place, preserving its version history:
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-content---attachments/#api-wiki-rest-api-content-id-child-attachment-attachmentid-data-post
func (a *API) attachmentDataEndpoint(pageID, attachmentID string) (*url.URL, error) {
	if pageID == "" || attachmentID == "" {
		return nil, fmt.Errorf("confluence: please provide page and attachment IDs")
	}

	return a.resolveEndpoint(fmt.Sprintf("rest/api/content/%s/child/attachment/%s/data", pageID, attachmentID))
}

// getSpacesEndpoint returns the (v2) API endpoint to list spaces
// https://developer.atlassian.com/cloud/confluence/rest/v2/api-group-space/#api-spaces-get
func (a *API) getSpacesEndpoint(opts SpacesQuery) (*url.URL, error) {
	ep, err := a.resolveEndpoint("api/v2/spaces")
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't resolve endpoint: %w", err)
	}

	v, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't encode query params: %w", err)
	}
	ep.RawQuery = v.Encode()

	return ep, nil
}

// getCurrentUserEndpoint returns the (v1) API endpoint to query current user
// https://developer.atlassian.com/cloud/confluence/rest/v1/api-group-users/#api-wiki-rest-api-user-current-get
func (a *API) getCurrentUserEndpoint() (*url.URL, error) {
	return a.resolveEndpoint("rest/api/user/current")
}

// Do a bit of error checking on endpoint format, and return it under the base
// URI.  Endpoints are given relative (no leading slash) so that a base with a
// context path, e.g. https://org.atlassian.net/wiki, keeps its /wiki prefix.
func (a *API) resolveEndpoint(endpoint string) (*url.URL, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("confluence: failed to parse endpoint ref: %w", err)
	}

	resolved := *a.BaseURI
	resolved.Path = path.Join(a.BaseURI.Path, ref.Path)

	return &resolved, nil
}
