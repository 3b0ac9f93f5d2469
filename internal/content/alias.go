package content

import (
	"strings"

	"github.com/GriffinCanCode/notebook/internal/content/widget"
)

// Alias is the parsed caption of an embed: an optional display name and
// optional dimensions.
//
// Supported forms: "name", "name|100", "name|100x200", "100", "100x200", "x200".
type Alias struct {
	Name string
	Dims *widget.Dimensions
}

// Equal reports structural equality
func (a Alias) Equal(other Alias) bool {
	if a.Name != other.Name {
		return false
	}
	if a.Dims == nil || other.Dims == nil {
		return a.Dims == other.Dims
	}
	return *a.Dims == *other.Dims
}

// ParseAlias parses an embed caption. It never fails: malformed dimension
// components are dropped.
func ParseAlias(text string) Alias {
	if name, dims, ok := strings.Cut(text, "|"); ok {
		if i := strings.IndexByte(dims, '|'); i >= 0 {
			dims = dims[:i]
		}
		return Alias{Name: name, Dims: parseDims(dims)}
	}
	if text != "" && (text[0] == 'x' || (text[0] >= '0' && text[0] <= '9')) {
		return Alias{Dims: parseDims(text)}
	}
	return Alias{Name: text}
}

func parseDims(text string) *widget.Dimensions {
	parts := strings.Split(text, "x")
	d := &widget.Dimensions{Width: leadingInt(parts[0])}
	if len(parts) > 1 {
		d.Height = leadingInt(parts[1])
	}
	return d
}

// maxDimension caps a parsed width or height in pixels
const maxDimension = 1 << 20

// leadingInt reads the decimal digits at the start of s, after optional
// spaces, clamped to maxDimension. Anything else, including zero, yields 0.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t")
	n := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
		if n > maxDimension {
			return maxDimension
		}
	}
	return n
}
