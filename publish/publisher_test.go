package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devopsuser8413/reportpipe/confluence"
	"github.com/devopsuser8413/reportpipe/report"
)

// fakeWiki is an in-memory stand-in for the content REST API with just
// enough surface for the publish workflow.
type fakeWiki struct {
	mu     sync.Mutex
	pages  map[string]*fakePage
	atts   map[string]*fakeAttachment
	nextID int

	// failure injection
	failChildCreate bool
	hideFirstSearch map[string]bool
}

type fakePage struct {
	id      string
	title   string
	space   string
	parent  string
	body    string
	version int
}

type fakeAttachment struct {
	id      string
	pageID  string
	name    string
	version int
	data    []byte
}

func newFakeWiki() *fakeWiki {
	return &fakeWiki{
		pages:           map[string]*fakePage{},
		atts:            map[string]*fakeAttachment{},
		hideFirstSearch: map[string]bool{},
	}
}

func (f *fakeWiki) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, 9000+f.nextID)
}

func (f *fakeWiki) pageByTitle(title string) *fakePage {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pages {
		if p.title == title {
			return p
		}
	}
	return nil
}

func (f *fakeWiki) titleCount(title string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.pages {
		if p.title == title {
			n++
		}
	}
	return n
}

func (f *fakeWiki) attachmentsFor(pageID string) []*fakeAttachment {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakeAttachment
	for _, a := range f.atts {
		if a.pageID == pageID {
			out = append(out, a)
		}
	}
	return out
}

func pageJSON(p *fakePage) map[string]any {
	return map[string]any{
		"id":      p.id,
		"type":    "page",
		"title":   p.title,
		"version": map[string]any{"number": p.version},
	}
}

func attJSON(a *fakeAttachment) map[string]any {
	return map[string]any{
		"id":      a.id,
		"title":   a.name,
		"version": map[string]any{"number": a.version},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (f *fakeWiki) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/wiki")

	switch {
	case path == "/rest/api/user/current":
		writeJSON(w, map[string]any{"type": "known", "displayName": "Pipeline Bot"})
		return
	case path == "/rest/api/content" && r.Method == http.MethodGet:
		f.search(w, r)
		return
	case path == "/rest/api/content" && r.Method == http.MethodPost:
		f.create(w, r)
		return
	}

	parts := strings.Split(strings.TrimPrefix(path, "/rest/api/content/"), "/")
	switch {
	case len(parts) == 1:
		f.page(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "child" && parts[2] == "page":
		f.children(w, parts[0])
	case len(parts) == 3 && parts[1] == "child" && parts[2] == "attachment":
		f.attachments(w, r, parts[0])
	case len(parts) == 5 && parts[1] == "child" && parts[2] == "attachment" && parts[4] == "data":
		f.attachmentData(w, r, parts[3])
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeWiki) search(w http.ResponseWriter, r *http.Request) {
	space := r.URL.Query().Get("spaceKey")
	title := r.URL.Query().Get("title")

	if f.hideFirstSearch[title] {
		delete(f.hideFirstSearch, title)
		writeJSON(w, map[string]any{"results": []any{}, "size": 0})
		return
	}

	for _, p := range f.pages {
		if p.space == space && p.title == title {
			writeJSON(w, map[string]any{"results": []any{pageJSON(p)}, "size": 1})
			return
		}
	}
	writeJSON(w, map[string]any{"results": []any{}, "size": 0})
}

func (f *fakeWiki) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Space struct {
			Key string `json:"key"`
		} `json:"space"`
		Ancestors []struct {
			ID string `json:"id"`
		} `json:"ancestors"`
		Body struct {
			Storage struct {
				Value string `json:"value"`
			} `json:"storage"`
		} `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if f.failChildCreate && strings.HasSuffix(req.Title, " - Latest Run") {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
		return
	}

	for _, p := range f.pages {
		if p.space == req.Space.Key && p.title == req.Title {
			http.Error(w,
				`{"message":"A page with this title already exists in the space"}`,
				http.StatusBadRequest)
			return
		}
	}

	page := &fakePage{
		id:      f.newID(""),
		title:   req.Title,
		space:   req.Space.Key,
		body:    req.Body.Storage.Value,
		version: 1,
	}
	if len(req.Ancestors) > 0 {
		page.parent = req.Ancestors[0].ID
	}
	f.pages[page.id] = page

	writeJSON(w, pageJSON(page))
}

func (f *fakeWiki) page(w http.ResponseWriter, r *http.Request, id string) {
	page, ok := f.pages[id]
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, pageJSON(page))
	case http.MethodPut:
		var req struct {
			Title   string `json:"title"`
			Version struct {
				Number int `json:"number"`
			} `json:"version"`
			Body struct {
				Storage struct {
					Value string `json:"value"`
				} `json:"storage"`
			} `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Version.Number != page.version+1 {
			http.Error(w, `{"message":"version must be incremented by one"}`, http.StatusConflict)
			return
		}
		page.version = req.Version.Number
		page.title = req.Title
		page.body = req.Body.Storage.Value
		writeJSON(w, pageJSON(page))
	}
}

func (f *fakeWiki) children(w http.ResponseWriter, parentID string) {
	results := []any{}
	for _, p := range f.pages {
		if p.parent == parentID {
			results = append(results, pageJSON(p))
		}
	}
	writeJSON(w, map[string]any{"results": results, "size": len(results)})
}

func (f *fakeWiki) attachments(w http.ResponseWriter, r *http.Request, pageID string) {
	switch r.Method {
	case http.MethodGet:
		filename := r.URL.Query().Get("filename")
		results := []any{}
		for _, a := range f.atts {
			if a.pageID == pageID && (filename == "" || a.name == filename) {
				results = append(results, attJSON(a))
			}
		}
		writeJSON(w, map[string]any{"results": results, "size": len(results)})

	case http.MethodPost:
		if r.Header.Get("X-Atlassian-Token") != "nocheck" {
			http.Error(w, `{"message":"XSRF check failed"}`, http.StatusForbidden)
			return
		}
		data, filename, ok := readUpload(w, r)
		if !ok {
			return
		}

		att := &fakeAttachment{
			id:      f.newID("att"),
			pageID:  pageID,
			name:    filename,
			version: 1,
			data:    data,
		}
		f.atts[att.id] = att
		writeJSON(w, map[string]any{"results": []any{attJSON(att)}, "size": 1})
	}
}

func (f *fakeWiki) attachmentData(w http.ResponseWriter, r *http.Request, attID string) {
	att, ok := f.atts[attID]
	if !ok {
		http.NotFound(w, r)
		return
	}

	data, _, okUpload := readUpload(w, r)
	if !okUpload {
		return
	}

	att.version++
	att.data = data
	writeJSON(w, attJSON(att))
}

func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, "", false
	}
	return data, header.Filename, true
}

func newTestPublisher(t *testing.T, wiki *fakeWiki, dir string) *Publisher {
	t.Helper()

	srv := httptest.NewServer(wiki)
	t.Cleanup(srv.Close)

	api, err := confluence.NewAPI(srv.URL+"/wiki", "bot@example.com", "token")
	require.NoError(t, err)

	return &Publisher{
		API:         api,
		Space:       "QA",
		Title:       "DevSecOps Report",
		ArtifactDir: dir,
		Logger:      log.New(io.Discard, "", 0),
	}
}

func seedArtifacts(t *testing.T, dir string) {
	t.Helper()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write(report.PytestLog, "===== 5 passed, 1 failed in 2.04s =====")
	write(report.VersionFile, "3")
	write(report.TrivyReport, "CVE-2024-0001 High\n")
	write(report.BanditReport, `<table><tr class="issue"></tr></table>`)
}

func TestRunFirstPublishCreatesHierarchy(t *testing.T) {
	wiki := newFakeWiki()
	dir := t.TempDir()
	seedArtifacts(t, dir)

	pub := newTestPublisher(t, wiki, dir)
	require.NoError(t, pub.Run(context.Background()))

	parent := wiki.pageByTitle("DevSecOps Report")
	require.NotNil(t, parent)
	child := wiki.pageByTitle(ChildTitle("DevSecOps Report"))
	require.NotNil(t, child)
	require.Equal(t, parent.id, child.parent)

	require.Contains(t, child.body, "<b>Version:</b> 3")
	require.Contains(t, child.body, "<b>Status:</b> FAIL")
	require.Contains(t, parent.body, `ri:content-title="DevSecOps Report - Latest Run"`)

	// bandit report, trivy report and the version stamp ship as attachments;
	// the pytest log never does.
	require.Len(t, wiki.attachmentsFor(child.id), 3)
	require.Empty(t, wiki.attachmentsFor(parent.id))
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	wiki := newFakeWiki()
	dir := t.TempDir()
	seedArtifacts(t, dir)

	pub := newTestPublisher(t, wiki, dir)
	ctx := context.Background()

	require.NoError(t, pub.Run(ctx))

	child := wiki.pageByTitle(ChildTitle("DevSecOps Report"))
	require.NotNil(t, child)
	firstID := child.id
	firstVersion := child.version

	require.NoError(t, pub.Run(ctx))

	require.Equal(t, 1, wiki.titleCount("DevSecOps Report"))
	require.Equal(t, 1, wiki.titleCount(ChildTitle("DevSecOps Report")))

	child = wiki.pageByTitle(ChildTitle("DevSecOps Report"))
	require.Equal(t, firstID, child.id, "re-publishing must reuse the page")
	require.Greater(t, child.version, firstVersion)

	atts := wiki.attachmentsFor(child.id)
	require.Len(t, atts, 3, "attachments must be replaced, not duplicated")
	for _, a := range atts {
		require.Equal(t, 2, a.version, "expected %s to be replaced in place", a.name)
	}
}

func TestRunCreateConflictFallsBackToFind(t *testing.T) {
	wiki := newFakeWiki()
	dir := t.TempDir()
	seedArtifacts(t, dir)

	// A parent that the first search pretends not to see, the way a
	// concurrent pipeline's create would race ours.
	wiki.pages["7777"] = &fakePage{id: "7777", title: "DevSecOps Report", space: "QA", version: 1}
	wiki.hideFirstSearch["DevSecOps Report"] = true

	pub := newTestPublisher(t, wiki, dir)
	require.NoError(t, pub.Run(context.Background()))

	require.Equal(t, 1, wiki.titleCount("DevSecOps Report"))
}

func TestRunChildFailureStillUpdatesParentIndex(t *testing.T) {
	wiki := newFakeWiki()
	wiki.failChildCreate = true
	dir := t.TempDir()
	seedArtifacts(t, dir)

	pub := newTestPublisher(t, wiki, dir)
	err := pub.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "resolve child")

	// The parent index steps are independent of the child and still ran:
	// v1 from creation, v2 from the index update.
	parent := wiki.pageByTitle("DevSecOps Report")
	require.NotNil(t, parent)
	require.Equal(t, 2, parent.version)
	require.Empty(t, wiki.attachmentsFor(parent.id))
}

func TestRunEmptyArtifactDirStillPublishesPages(t *testing.T) {
	wiki := newFakeWiki()
	dir := t.TempDir()

	pub := newTestPublisher(t, wiki, dir)
	require.NoError(t, pub.Run(context.Background()))

	child := wiki.pageByTitle(ChildTitle("DevSecOps Report"))
	require.NotNil(t, child)
	require.Contains(t, child.body, "<b>Version:</b> N/A")
	require.Empty(t, wiki.attachmentsFor(child.id))
}
