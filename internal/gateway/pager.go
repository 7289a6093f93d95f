package gateway

import (
	"context"
	"encoding/json"
	"fmt"
)

// Querier abstracts Client for the pager.
type Querier interface {
	Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)
}

// Pager walks a cursor-paginated connection lazily: each page is fetched
// only when the consumer calls Next, so stopping early costs no extra
// requests. Pagers are forward-only and not restartable.
type Pager struct {
	querier  Querier
	query    string
	vars     map[string]any
	path     []string
	maxPages int
	fetched  int
	done     bool
}

// NewPager prepares pagination for the connection found at path inside
// the response data (e.g. "user", "pullRequests"). The cursor is passed
// through the "cursor" variable. maxPages <= 0 means unbounded.
func NewPager(querier Querier, query string, variables map[string]any, maxPages int, path ...string) *Pager {
	vars := make(map[string]any, len(variables)+1)
	for k, v := range variables {
		vars[k] = v
	}
	if _, ok := vars["cursor"]; !ok {
		vars["cursor"] = nil
	}
	return &Pager{
		querier:  querier,
		query:    query,
		vars:     vars,
		path:     path,
		maxPages: maxPages,
	}
}

// Next fetches the next page. ok is false once the connection is
// exhausted or the page ceiling was reached.
func (p *Pager) Next(ctx context.Context) (page json.RawMessage, ok bool, err error) {
	if p.done || (p.maxPages > 0 && p.fetched >= p.maxPages) {
		return nil, false, nil
	}

	data, err := p.querier.Query(ctx, p.query, p.vars)
	if err != nil {
		return nil, false, err
	}
	p.fetched++

	hasNext, endCursor, err := p.pageInfo(data)
	if err != nil {
		return nil, false, err
	}
	if hasNext {
		p.vars["cursor"] = endCursor
	} else {
		p.done = true
	}
	return data, true, nil
}

// Stop ends the iteration; later Next calls return no pages.
func (p *Pager) Stop() { p.done = true }

// Pages is the number of pages fetched so far.
func (p *Pager) Pages() int { return p.fetched }

// pageInfo walks the configured path and reads pageInfo.hasNextPage /
// endCursor. A missing node along the path ends pagination instead of
// failing: the server reported an empty branch.
func (p *Pager) pageInfo(data json.RawMessage) (hasNext bool, endCursor string, err error) {
	var node map[string]json.RawMessage
	if err := json.Unmarshal(data, &node); err != nil {
		return false, "", &MalformedError{Err: fmt.Errorf("page is not an object: %w", err)}
	}
	current := node
	for _, key := range p.path {
		raw, ok := current[key]
		if !ok || string(raw) == "null" {
			return false, "", nil
		}
		next := map[string]json.RawMessage{}
		if err := json.Unmarshal(raw, &next); err != nil {
			return false, "", &MalformedError{Err: fmt.Errorf("walking %q: %w", key, err)}
		}
		current = next
	}

	raw, ok := current["pageInfo"]
	if !ok {
		return false, "", nil
	}
	var info struct {
		HasNextPage bool   `json:"hasNextPage"`
		EndCursor   string `json:"endCursor"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return false, "", &MalformedError{Err: fmt.Errorf("decoding pageInfo: %w", err)}
	}
	return info.HasNextPage, info.EndCursor, nil
}
