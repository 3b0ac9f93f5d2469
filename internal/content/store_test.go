package content

import (
	"context"
	"fmt"
)

type memStore map[string]string

func (s memStore) FileExists(name string) bool {
	_, ok := s[name]
	return ok
}

func (s memStore) ReadPage(ctx context.Context, page string) (string, error) {
	text, ok := s[page+".md"]
	if !ok {
		return "", fmt.Errorf("page %s not found", page)
	}
	return text, nil
}
