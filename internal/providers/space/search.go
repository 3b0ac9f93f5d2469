package space

import (
	"context"
	"strings"

	"github.com/GriffinCanCode/notebook/internal/service"
)

// Match is a page line containing the search query
type Match struct {
	Page string `json:"page"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

const defaultSearchLimit = 50

// search finds pages whose text contains the query, case-insensitively
func (p *Provider) search(ctx context.Context, args []any) (any, error) {
	query, err := service.StringArg(args, 0, "query")
	if err != nil {
		return nil, err
	}
	limit := service.OptionalIntArg(args, 1, defaultSearchLimit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	needle := strings.ToLower(query)
	matches := []Match{}
	for _, page := range p.store.Pages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := p.store.ReadPage(ctx, page)
		if err != nil {
			continue
		}
		for i, line := range strings.Split(text, "\n") {
			if !strings.Contains(strings.ToLower(line), needle) {
				continue
			}
			matches = append(matches, Match{Page: page, Line: i + 1, Text: strings.TrimSpace(line)})
			if len(matches) >= limit {
				return matches, nil
			}
		}
	}
	return matches, nil
}
