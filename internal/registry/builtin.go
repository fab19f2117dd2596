package registry

import (
	"context"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/adverant/kreuzberg-go/internal/config"
	kerrors "github.com/adverant/kreuzberg-go/internal/errors"
	"github.com/adverant/kreuzberg-go/internal/types"
)

// PlainTextExtractor handles text/plain and text/markdown directly: it
// is the degenerate extractor for formats that are already text, doing
// only the UTF-8 safety decode spec §4.4 step 3 describes as the
// registry-miss fallback, exposed here as a real registered extractor
// for those two media types instead of relying on the orchestrator's
// no-match path.
type PlainTextExtractor struct {
	// AsMarkdown reports the MIME type to attach to the result.
	AsMarkdown bool
}

func (e *PlainTextExtractor) Extract(ctx context.Context, data []byte, path string, mediaType types.MediaType, cfg *config.ExtractionConfig) (*types.ExtractionResult, error) {
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, kerrors.NewParsingError("reading plain text file", map[string]interface{}{"path": path}, err)
		}
		data = b
	}

	content := DecodeUTF8Safely(data)
	mime := types.MediaTypePlainText
	if e.AsMarkdown {
		mime = types.MediaTypeMarkdown
	}
	return &types.ExtractionResult{Content: content, MimeType: mime}, nil
}

// DecodeUTF8Safely returns data as a string, replacing invalid UTF-8
// sequences with the Unicode replacement character rather than
// returning an error — spec §4.4 step 3 treats an unrecognized media
// type as "raw bytes safely decoded as UTF-8", not a parse failure.
// Exported for reuse by internal/orchestrator's registry-miss fallback.
func DecodeUTF8Safely(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data))
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
			i++
			continue
		}
		b.WriteRune(r)
		i += size
	}
	return b.String()
}
