package confluence

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// NewAPI builds a client for one Confluence site.  baseURL is the wiki root
// including any context path, e.g. https://myorg.atlassian.net/wiki, the
// same value the pipeline reads from CONFLUENCE_BASE.
func NewAPI(baseURL string, username string, token string) (*API, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("confluence: configure your wiki base URL with --confluence-base or CONFLUENCE_BASE")
	}

	u, err := url.ParseRequestURI(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse REST API URL: %w", err)
	}

	a := &API{
		BaseURI:  u,
		username: username,
		token:    token,
	}
	a.Client = &http.Client{}

	return a, nil
}

type API struct {
	// Root of the wiki, e.g. https://ORG.atlassian.net/wiki
	BaseURI *url.URL

	// An HTTP client - you can substitute VCR or whatnot.
	Client *http.Client

	// Auth info.  Empty credentials are allowed at construction time; the
	// remote will answer 401 when a call actually needs them.
	username, token string
}
