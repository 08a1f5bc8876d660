package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrPageNotFound means no current page matched the space and title.
	ErrPageNotFound = errors.New("page not found")
	// ErrPageExists means a create collided with a page of the same title.
	ErrPageExists = errors.New("page already exists")
	// ErrAttachmentNotFound means the page carries no attachment with that filename.
	ErrAttachmentNotFound = errors.New("attachment not found")
)

// RequestError is the error for any non-2xx answer from the wiki.  It keeps
// the status code so callers can map interesting ones (404, 409) onto
// sentinel errors, and a snippet of the response body for the log.
type RequestError struct {
	StatusCode int
	Endpoint   string
	Snippet    string
}

func (e *RequestError) Error() string {
	if e.StatusCode == http.StatusUnauthorized {
		return fmt.Sprintf("confluence: %s: 401 unauthorized, check your username and API token", e.Endpoint)
	}
	return fmt.Sprintf("confluence: %s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Snippet)
}

// request builds a plain HTTP request against the wiki and funnels it
// through do.  payload may be nil for GETs.
func (a *API) request(ctx context.Context, method string, endpoint *url.URL, contentType string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), payload)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't create request object: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return a.do(req)
}

// do is the single choke point all wiki traffic goes through: auth headers,
// body read, status check.
func (a *API) do(req *http.Request) ([]byte, error) {
	req.Header.Add("Accept", "application/json, */*")

	// if user & token are not set, do not add authorization header
	if a.username != "" && a.token != "" {
		req.SetBasicAuth(a.username, a.token)
	} else if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't perform request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Endpoint:   req.URL.Path,
			Snippet:    snippet(body),
		}
	}

	return body, nil
}

// uploadMultipart POSTs data as a multipart file field, the way the wiki
// wants attachments delivered.
func (a *API) uploadMultipart(ctx context.Context, endpoint *url.URL, filename string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't create multipart field: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("confluence: couldn't write multipart payload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("confluence: couldn't finalise multipart payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), &buf)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't create request object: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	// Confluence rejects multipart uploads without this as potential XSRF.
	req.Header.Set("X-Atlassian-Token", "nocheck")

	return a.do(req)
}

// FindPage looks up a current page by space key and title.  The search
// endpoint answers 200 with an empty result list for a missing page, so
// absence is signalled by ErrPageNotFound rather than a status code.
func (a *API) FindPage(ctx context.Context, spaceKey, title string) (*Content, error) {
	ep, err := a.searchContentEndpoint(ContentSearchQuery{
		SpaceKey: spaceKey,
		Title:    title,
		Type:     "page",
		Status:   "current",
		Expand:   "version",
		Limit:    1,
	})
	if err != nil {
		return nil, err
	}

	body, err := a.request(ctx, http.MethodGet, ep, "", nil)
	if err != nil {
		return nil, err
	}

	var result ContentSearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	if len(result.Results) == 0 {
		return nil, fmt.Errorf("confluence: page %q in space %s: %w", title, spaceKey, ErrPageNotFound)
	}

	return &result.Results[0], nil
}

// GetContentByID fetches one content item, with the given expansions.
func (a *API) GetContentByID(ctx context.Context, id, expand string) (*Content, error) {
	ep, err := a.contentByIDEndpoint(ContentByIDQuery{ID: id, Expand: expand})
	if err != nil {
		return nil, err
	}

	body, err := a.request(ctx, http.MethodGet, ep, "", nil)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("confluence: content %s: %w", id, ErrPageNotFound)
		}
		return nil, err
	}

	var content Content
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &content, nil
}

// CreatePage creates a page in the given space, optionally under an
// ancestor, with a storage-format body.  A title collision comes back as
// ErrPageExists so callers can fall through to an update.
func (a *API) CreatePage(ctx context.Context, spaceKey, title, storageBody, ancestorID string) (*Content, error) {
	payload := Content{
		Type:  "page",
		Title: title,
		Space: &SpaceRef{Key: spaceKey},
		Body: &Body{
			Storage: Storage{Value: storageBody, Representation: "storage"},
		},
	}
	if ancestorID != "" {
		payload.Ancestors = []Ancestor{{ID: ancestorID}}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't marshal page payload: %w", err)
	}

	ep, err := a.createContentEndpoint()
	if err != nil {
		return nil, err
	}

	body, err := a.request(ctx, http.MethodPost, ep, "application/json", bytes.NewReader(raw))
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) && isTitleCollision(reqErr) {
			return nil, fmt.Errorf("confluence: create %q in space %s: %w", title, spaceKey, ErrPageExists)
		}
		return nil, err
	}

	var created Content
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &created, nil
}

// UpdatePage replaces a page's title and body in place.  The wiki insists
// the version number be exactly current+1, so we re-read the version right
// before the PUT instead of trusting whatever the caller saw earlier.
func (a *API) UpdatePage(ctx context.Context, id, title, storageBody string) (*Content, error) {
	current, err := a.GetContentByID(ctx, id, "version")
	if err != nil {
		return nil, err
	}

	next := 1
	if current.Version != nil {
		next = current.Version.Number + 1
	}

	payload := Content{
		ID:      id,
		Type:    "page",
		Title:   title,
		Version: &Version{Number: next},
		Body: &Body{
			Storage: Storage{Value: storageBody, Representation: "storage"},
		},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't marshal page payload: %w", err)
	}

	ep, err := a.contentByIDEndpoint(ContentByIDQuery{ID: id})
	if err != nil {
		return nil, err
	}

	body, err := a.request(ctx, http.MethodPut, ep, "application/json", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	var updated Content
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &updated, nil
}

// ChildPages lists the direct child pages of a parent, following v1
// start/limit pagination to the end.
func (a *API) ChildPages(ctx context.Context, parentID string) ([]Content, error) {
	const pageSize = 50

	var all []Content
	start := 0
	for {
		ep, err := a.childPagesEndpoint(ChildrenQuery{ID: parentID, Expand: "version", Start: start, Limit: pageSize})
		if err != nil {
			return nil, err
		}

		body, err := a.request(ctx, http.MethodGet, ep, "", nil)
		if err != nil {
			return nil, err
		}

		var page ContentSearchResult
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
		}

		all = append(all, page.Results...)
		if len(page.Results) < pageSize {
			return all, nil
		}
		start += pageSize
	}
}

// FindAttachment looks for an attachment on a page by exact filename.
func (a *API) FindAttachment(ctx context.Context, pageID, filename string) (*Attachment, error) {
	ep, err := a.childAttachmentsEndpoint(ChildrenQuery{ID: pageID, Filename: filename})
	if err != nil {
		return nil, err
	}

	body, err := a.request(ctx, http.MethodGet, ep, "", nil)
	if err != nil {
		return nil, err
	}

	var list AttachmentList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	if len(list.Results) == 0 {
		return nil, fmt.Errorf("confluence: %q on page %s: %w", filename, pageID, ErrAttachmentNotFound)
	}

	return &list.Results[0], nil
}

// CreateAttachment uploads a brand-new attachment to a page.
func (a *API) CreateAttachment(ctx context.Context, pageID, filename string, data []byte) (*Attachment, error) {
	ep, err := a.childAttachmentsEndpoint(ChildrenQuery{ID: pageID})
	if err != nil {
		return nil, err
	}

	body, err := a.uploadMultipart(ctx, ep, filename, data)
	if err != nil {
		return nil, err
	}

	// Creation answers with a result list even for a single file.
	var list AttachmentList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}
	if len(list.Results) == 0 {
		return nil, fmt.Errorf("confluence: upload of %q to page %s returned no attachment", filename, pageID)
	}

	return &list.Results[0], nil
}

// UpdateAttachmentData replaces an existing attachment's binary in place,
// keeping its identity and version history.
func (a *API) UpdateAttachmentData(ctx context.Context, pageID, attachmentID, filename string, data []byte) (*Attachment, error) {
	ep, err := a.attachmentDataEndpoint(pageID, attachmentID)
	if err != nil {
		return nil, err
	}

	body, err := a.uploadMultipart(ctx, ep, filename, data)
	if err != nil {
		return nil, err
	}

	var updated Attachment
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &updated, nil
}

// UpsertAttachment uploads data under filename, replacing the binary if the
// page already carries an attachment of that name.  Re-running a publish
// therefore bumps attachment versions instead of piling up duplicates.  The
// bool reports whether a new attachment was created.
func (a *API) UpsertAttachment(ctx context.Context, pageID, filename string, data []byte) (*Attachment, bool, error) {
	existing, err := a.FindAttachment(ctx, pageID, filename)
	switch {
	case err == nil:
		att, err := a.UpdateAttachmentData(ctx, pageID, existing.ID, filename, data)
		return att, false, err
	case errors.Is(err, ErrAttachmentNotFound):
		att, err := a.CreateAttachment(ctx, pageID, filename, data)
		return att, true, err
	default:
		return nil, false, err
	}
}

// CurrentUser asks the wiki who the configured token belongs to.  Handy as
// a cheap credentials check before a long publish.
func (a *API) CurrentUser(ctx context.Context) (*User, error) {
	ep, err := a.getCurrentUserEndpoint()
	if err != nil {
		return nil, err
	}

	body, err := a.request(ctx, http.MethodGet, ep, "", nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &user, nil
}

// isTitleCollision spots the two shapes the wiki uses for "that title is
// taken": a 409, or a 400 whose message mentions the existing page.
func isTitleCollision(e *RequestError) bool {
	if e.StatusCode == http.StatusConflict {
		return true
	}
	return e.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(e.Snippet), "already exists")
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
