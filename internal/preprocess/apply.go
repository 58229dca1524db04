package preprocess

import (
	"fmt"
	"strings"

	"github.com/wgomg/vocabula/internal/config"
)

// Apply runs the per-file step of kind over text. The cleaner works on
// whole directories before globbing, so per file it is the identity.
func Apply(kind config.PreprocessKind, text string) (string, error) {
	switch kind {
	case config.PreprocessNone, config.PreprocessCleaner:
		return text, nil
	case config.PreprocessNormalize:
		return NormalizeLinebreaks(text), nil
	case config.PreprocessHTML:
		return ExtractHTMLText(strings.NewReader(text))
	default:
		return "", fmt.Errorf("unsupported preprocess kind %v", kind)
	}
}
