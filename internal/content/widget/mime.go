package widget

import (
	"mime"
	"strings"
)

// Media types the standard table does not carry on every platform.
var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".ogv":  "video/ogg",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".pdf":  "application/pdf",
}

func init() {
	for ext, typ := range mediaTypes {
		_ = mime.AddExtensionType(ext, typ)
	}
}

// MIMEType infers the media type of url from the text after its last dot.
// It returns "" when the extension is unknown.
func MIMEType(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 && !isLocal(url) {
		url = url[:i]
	}
	ext := url[strings.LastIndex(url, ".")+1:]
	if ext == "" {
		return ""
	}
	typ := mime.TypeByExtension("." + strings.ToLower(ext))
	if typ == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(typ)
	if err != nil {
		return ""
	}
	return mediaType
}
