package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// MaxPages caps how many pages an iterator fetches before stopping.
const MaxPages = 50

// PageIterator lazily fetches pages from a paginated endpoint, following
// Link rel="next" headers. It stops after MaxPages pages.
//
// The iterator is not safe for concurrent use.
type PageIterator[T any] struct {
	client  *Client
	op      string
	nextURL string
	pages   int
}

func list[T any](client *Client, op, path string) *PageIterator[T] {
	return &PageIterator[T]{
		client:  client,
		op:      op,
		nextURL: client.baseURL + path,
	}
}

// Next fetches the next page. It returns nil, nil when no pages remain.
func (it *PageIterator[T]) Next(ctx context.Context) ([]T, error) {
	if it.nextURL == "" || it.pages >= MaxPages {
		return nil, nil
	}

	body, header, err := it.client.doURL(ctx, it.op, http.MethodGet, it.nextURL, nil)
	if err != nil {
		return nil, err
	}
	it.pages++

	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("github: decoding %s page: %w", it.op, err)
	}
	it.nextURL = parseLinkNext(header.Get("Link"))
	if len(items) == 0 {
		it.nextURL = ""
		return nil, nil
	}
	return items, nil
}

// Collect fetches all remaining pages and returns the items concatenated.
func (it *PageIterator[T]) Collect(ctx context.Context) ([]T, error) {
	var all []T
	for {
		items, err := it.Next(ctx)
		if err != nil {
			return all, err
		}
		if items == nil {
			return all, nil
		}
		all = append(all, items...)
	}
}

// parseLinkNext extracts the rel="next" URL from an RFC 5988 Link header.
//
// Format: <https://api.github.com/...?page=2>; rel="next", <...>; rel="last"
func parseLinkNext(header string) string {
	if header == "" {
		return ""
	}
	for _, part := range strings.Split(header, ",") {
		segments := strings.SplitN(strings.TrimSpace(part), ";", 2)
		if len(segments) != 2 {
			continue
		}
		urlPart := strings.TrimSpace(segments[0])
		if !strings.Contains(segments[1], `rel="next"`) {
			continue
		}
		if strings.HasPrefix(urlPart, "<") && strings.HasSuffix(urlPart, ">") {
			return urlPart[1 : len(urlPart)-1]
		}
	}
	return ""
}
