package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ListAllSpaces walks the v2 spaces listing, following cursor pagination
// until the wiki runs out of pages.
func (a *API) ListAllSpaces(ctx context.Context, includePersonal bool) (map[string]Space, error) {
	spaces := map[string]Space{}

	query := SpacesQuery{
		Limit: 10,
	}

	if !includePersonal {
		// Logic here is a bit confusing.  The `type` parameter may be "global", "personal", or
		// nothing at all for both.  "global" will return team spaces, while "personal" returns
		// each user's space.  Leaving it empty gives us everything, so we only set this if we
		// _do not_ intend to include personal spaces in our query.
		query.Type = "global"
	}

	for {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		allspaces, err := a.getSpaces(ctx, query)

		if err != nil {
			return nil, fmt.Errorf("confluence: couldn't list spaces: %w", err)
		}

		for _, space := range allspaces.Results {
			spaces[space.Key] = space
		}

		if allspaces.Links.Next == "" {
			break
		} else {
			q, err := url.Parse(allspaces.Links.Next)
			if err != nil {
				return nil, fmt.Errorf("confluence: couldn't parse _links.next: %w", err)
			}
			query.Cursor = q.Query().Get("cursor")
			if query.Cursor == "" {
				return nil, fmt.Errorf("confluence: expected parameter 'cursor' was empty")
			}
		}
	}

	return spaces, nil
}

func (a *API) getSpaces(ctx context.Context, opts SpacesQuery) (*AllSpaces, error) {
	ep, err := a.getSpacesEndpoint(opts)
	if err != nil {
		return nil, fmt.Errorf("confluence: couldn't get spaces endpoint: %w", err)
	}

	body, err := a.request(ctx, http.MethodGet, ep, "", nil)
	if err != nil {
		return nil, err
	}

	var allSpaces AllSpaces

	if err := json.Unmarshal(body, &allSpaces); err != nil {
		return nil, fmt.Errorf("confluence: couldn't parse json response: %w", err)
	}

	return &allSpaces, nil
}
