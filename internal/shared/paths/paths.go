package paths

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// PageExtension is the file suffix of every page in the space
const PageExtension = ".md"

// IsLocalPath reports whether url points into the space rather than at a
// protocol-qualified resource.
func IsLocalPath(url string) bool {
	if strings.Contains(url, "://") {
		return false
	}
	for _, scheme := range []string{"mailto:", "data:", "tel:", "blob:"} {
		if strings.HasPrefix(url, scheme) {
			return false
		}
	}
	return true
}

// EncodeColons percent-encodes literal colons so a local path such as
// "2024:notes.png" is never read as a URL scheme.
func EncodeColons(p string) string {
	return strings.ReplaceAll(p, ":", "%3A")
}

// Resolve resolves target against the folder containing currentPage.
// Absolute targets ("/folder/page") are taken from the space root.
func Resolve(currentPage, target string) string {
	if strings.HasPrefix(target, "/") {
		return clean(target)
	}
	return clean(path.Join(path.Dir(currentPage), target))
}

func clean(p string) string {
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// Ref is a parsed page reference
type Ref struct {
	Page   string
	Pos    int // -1 when absent
	Header string
	Anchor string
}

var refPattern = regexp.MustCompile(`^(.*?)(?:@(\d+)|#(.+)|\$(.+))?$`)

// ParseRef splits "page@pos", "page#header" and "page$anchor" references.
func ParseRef(ref string) Ref {
	out := Ref{Page: ref, Pos: -1}
	m := refPattern.FindStringSubmatch(ref)
	if m == nil {
		return out
	}
	out.Page = m[1]
	if m[2] != "" {
		if pos, err := strconv.Atoi(m[2]); err == nil {
			out.Pos = pos
		}
	}
	out.Header = m[3]
	out.Anchor = m[4]
	return out
}

// PageFile returns the file name backing a page
func PageFile(page string) string {
	return page + PageExtension
}

// PageName strips the page extension from a file name, reporting whether it
// named a page at all.
func PageName(file string) (string, bool) {
	return strings.CutSuffix(file, PageExtension)
}

// Validate checks that p is a clean, relative space path
func Validate(p string) error {
	if p == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.HasPrefix(p, "/") {
		return fmt.Errorf("path %q must be relative to the space", p)
	}
	if path.Clean(p) != p || p == ".." || strings.HasPrefix(p, "../") {
		return fmt.Errorf("path %q contains invalid components", p)
	}
	return nil
}
