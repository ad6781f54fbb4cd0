package repoindex

import (
	"strings"

	"pault.ag/go/debian/control"

	"go.trai.ch/zerr"
)

// splitParagraphs cuts a control file into its verbatim paragraphs: runs of
// non-blank lines separated by one or more blank lines. Each returned chunk
// keeps the original line content and ends without a trailing newline.
func splitParagraphs(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	var paragraphs []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, "\n"))
			current = nil
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()

	return paragraphs
}

// parseParagraph parses one verbatim paragraph into its field map.
func parseParagraph(text string) (control.Paragraph, error) {
	var parsed struct {
		control.Paragraph
	}
	decoder, err := control.NewDecoder(strings.NewReader(text+"\n"), nil)
	if err != nil {
		return control.Paragraph{}, zerr.Wrap(err, "failed to create control decoder")
	}
	if err := decoder.Decode(&parsed); err != nil {
		return control.Paragraph{}, zerr.Wrap(err, "failed to parse control paragraph")
	}
	return parsed.Paragraph, nil
}
