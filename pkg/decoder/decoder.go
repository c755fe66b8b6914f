package decoder

import (
	"fmt"
	"mime"
	"regexp"
	"strings"
	"unicode/utf8"

	"doc-chat-be/pkg/apperrors"
)

// Decoder turns raw document bytes into plain text, dispatching on content
// type. Formats that need a real parser (pdf, docx) are handled by a
// dedicated decoding collaborator and are unsupported here.
type Decoder interface {
	Decode(data []byte, contentType string) (string, error)
}

type textDecoder struct{}

func New() Decoder {
	return &textDecoder{}
}

var (
	htmlTagPattern    = regexp.MustCompile(`(?s)<script.*?</script>|<style.*?</style>|<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`[ \t]+`)
)

func (d *textDecoder) Decode(data []byte, contentType string) (string, error) {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}
	mediaType = strings.ToLower(mediaType)

	switch {
	case mediaType == "text/html":
		return decodeHTML(data)
	case strings.HasPrefix(mediaType, "text/"):
		return decodePlain(data, mediaType)
	case mediaType == "application/json":
		return decodePlain(data, mediaType)
	default:
		return "", fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, contentType)
	}
}

func decodePlain(data []byte, mediaType string) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s content is not valid UTF-8", apperrors.ErrUnsupportedFormat, mediaType)
	}
	return string(data), nil
}

// decodeHTML strips tags and collapses runs of whitespace. Good enough for
// ingested web pages; not a substitute for a proper readability pass.
func decodeHTML(data []byte) (string, error) {
	text, err := decodePlain(data, "text/html")
	if err != nil {
		return "", err
	}
	text = htmlTagPattern.ReplaceAllString(text, " ")
	text = whitespacePattern.ReplaceAllString(text, " ")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
