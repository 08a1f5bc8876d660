package confluence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, handler http.Handler) *API {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api, err := NewAPI(srv.URL+"/wiki", "reporter@example.com", "sekrit-token")
	require.NoError(t, err)

	return api
}

func TestNewAPIRejectsBadBase(t *testing.T) {
	_, err := NewAPI("", "user", "token")
	require.Error(t, err)

	_, err = NewAPI("not a url", "user", "token")
	require.Error(t, err)
}

func TestNewAPITrimsTrailingSlash(t *testing.T) {
	api, err := NewAPI("https://example.atlassian.net/wiki/", "user", "token")
	require.NoError(t, err)
	require.Equal(t, "/wiki", api.BaseURI.Path)
}

func TestResolveEndpointKeepsContextPath(t *testing.T) {
	api, err := NewAPI("https://example.atlassian.net/wiki", "user", "token")
	require.NoError(t, err)

	ep, err := api.resolveEndpoint("rest/api/content")
	require.NoError(t, err)
	require.Equal(t, "/wiki/rest/api/content", ep.Path)
}

func TestFindPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/rest/api/content", func(w http.ResponseWriter, r *http.Request) {
		user, token, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "reporter@example.com", user)
		require.Equal(t, "sekrit-token", token)

		require.Equal(t, "QA", r.URL.Query().Get("spaceKey"))
		require.Equal(t, "Test Reports", r.URL.Query().Get("title"))
		require.Equal(t, "version", r.URL.Query().Get("expand"))

		fmt.Fprint(w, `{"results":[{"id":"98304","type":"page","title":"Test Reports","version":{"number":4}}],"size":1}`)
	})

	api := newTestAPI(t, mux)

	page, err := api.FindPage(context.Background(), "QA", "Test Reports")
	require.NoError(t, err)
	require.Equal(t, "98304", page.ID)
	require.Equal(t, 4, page.Version.Number)
}

func TestFindPageAbsent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/rest/api/content", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[],"size":0}`)
	})

	api := newTestAPI(t, mux)

	_, err := api.FindPage(context.Background(), "QA", "No Such Page")
	require.ErrorIs(t, err, ErrPageNotFound)
}

func TestCreatePage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/rest/api/content", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var payload Content
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "page", payload.Type)
		require.Equal(t, "QA", payload.Space.Key)
		require.Equal(t, "storage", payload.Body.Storage.Representation)
		require.Len(t, payload.Ancestors, 1)
		require.Equal(t, "12345", payload.Ancestors[0].ID)

		fmt.Fprint(w, `{"id":"98305","type":"page","title":"Test Reports - Latest Run","version":{"number":1}}`)
	})

	api := newTestAPI(t, mux)

	page, err := api.CreatePage(context.Background(), "QA", "Test Reports - Latest Run", "<p>hi</p>", "12345")
	require.NoError(t, err)
	require.Equal(t, "98305", page.ID)
}

func TestCreatePageTitleCollision(t *testing.T) {
	for name, respond := range map[string]http.HandlerFunc{
		"conflict": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"message":"Conflict"}`)
		},
		"bad request": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"message":"A page with this title already exists in the space"}`)
		},
	} {
		t.Run(name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/wiki/rest/api/content", respond)

			api := newTestAPI(t, mux)

			_, err := api.CreatePage(context.Background(), "QA", "Test Reports", "<p/>", "")
			require.ErrorIs(t, err, ErrPageExists)
		})
	}
}

func TestUpdatePageBumpsVersion(t *testing.T) {
	var putSeen bool

	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/rest/api/content/98304", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `{"id":"98304","type":"page","title":"Test Reports","version":{"number":7}}`)
		case http.MethodPut:
			putSeen = true

			var payload Content
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			require.Equal(t, 8, payload.Version.Number)
			require.Equal(t, "<p>new body</p>", payload.Body.Storage.Value)

			fmt.Fprint(w, `{"id":"98304","type":"page","title":"Test Reports","version":{"number":8}}`)
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	})

	api := newTestAPI(t, mux)

	updated, err := api.UpdatePage(context.Background(), "98304", "Test Reports", "<p>new body</p>")
	require.NoError(t, err)
	require.True(t, putSeen)
	require.Equal(t, 8, updated.Version.Number)
}

func TestUpsertAttachment(t *testing.T) {
	// A stateful fake: the first upsert has to create, the second has to
	// replace the binary of the attachment created by the first.
	var created bool

	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/rest/api/content/98304/child/attachment", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			require.Equal(t, "report.html", r.URL.Query().Get("filename"))
			if created {
				fmt.Fprint(w, `{"results":[{"id":"att900","title":"report.html","version":{"number":1}}],"size":1}`)
			} else {
				fmt.Fprint(w, `{"results":[],"size":0}`)
			}
		case http.MethodPost:
			require.Equal(t, "nocheck", r.Header.Get("X-Atlassian-Token"))
			require.NoError(t, r.ParseMultipartForm(1<<20))
			_, header, err := r.FormFile("file")
			require.NoError(t, err)
			require.Equal(t, "report.html", header.Filename)

			created = true
			fmt.Fprint(w, `{"results":[{"id":"att900","title":"report.html","version":{"number":1}}],"size":1}`)
		}
	})
	mux.HandleFunc("/wiki/rest/api/content/98304/child/attachment/att900/data", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "nocheck", r.Header.Get("X-Atlassian-Token"))

		fmt.Fprint(w, `{"id":"att900","title":"report.html","version":{"number":2}}`)
	})

	api := newTestAPI(t, mux)

	att, wasNew, err := api.UpsertAttachment(context.Background(), "98304", "report.html", []byte("<html/>"))
	require.NoError(t, err)
	require.True(t, wasNew)
	require.Equal(t, "att900", att.ID)

	att, wasNew, err = api.UpsertAttachment(context.Background(), "98304", "report.html", []byte("<html>2</html>"))
	require.NoError(t, err)
	require.False(t, wasNew)
	require.Equal(t, 2, att.Version.Number)
}

func TestRequestErrorCarriesStatusAndSnippet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/rest/api/content", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message":"java.lang.NullPointerException"}`)
	})

	api := newTestAPI(t, mux)

	_, err := api.FindPage(context.Background(), "QA", "Test Reports")
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	require.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	require.Contains(t, reqErr.Snippet, "NullPointerException")
}
