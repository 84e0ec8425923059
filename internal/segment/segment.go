// Package segment splits extracted document text into bounded
// fragments for embedding. It is pure: no I/O, deterministic output
// for identical input, so re-ingesting a document always reproduces
// the same fragment sequence.
package segment

import (
	"strings"
	"unicode/utf8"
)

// Policy selects how text is cut into fragments.
type Policy string

const (
	// PolicyParagraph packs whole blank-line-delimited paragraphs into
	// a fragment until the next one would overflow the limit. A single
	// paragraph longer than the limit is hard-sliced.
	PolicyParagraph Policy = "paragraph"
	// PolicyFixed collapses all whitespace to single spaces and cuts
	// the result into fixed-size windows.
	PolicyFixed Policy = "fixed"
)

// Config is one named segmentation tuning. The two ingestion entry
// points carry different configs (paragraph/1200 for re-embedding
// attached text, fixed/900 for the PDF pipeline).
type Config struct {
	Policy   Policy
	MaxChars int
}

const paragraphSeparator = "\n\n"

// Split cuts text into fragments of at most cfg.MaxChars characters.
// Empty or whitespace-only input yields nil. No fragment is empty.
func Split(text string, cfg Config) []string {
	if cfg.MaxChars < 1 {
		return nil
	}
	switch cfg.Policy {
	case PolicyFixed:
		return splitFixed(text, cfg.MaxChars)
	default:
		return splitParagraphs(text, cfg.MaxChars)
	}
}

func splitFixed(text string, maxChars int) []string {
	clean := strings.Join(strings.Fields(text), " ")
	if clean == "" {
		return nil
	}
	// Window by rune count so a multibyte character is never cut in
	// half.
	runes := []rune(clean)
	var out []string
	for len(runes) > maxChars {
		out = append(out, string(runes[:maxChars]))
		runes = runes[maxChars:]
	}
	return append(out, string(runes))
}

func splitParagraphs(text string, maxChars int) []string {
	cleaned := strings.TrimSpace(strings.ReplaceAll(text, "\r", ""))
	if cleaned == "" {
		return nil
	}

	var paragraphs []string
	for _, p := range splitBlankLines(cleaned) {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var fragments []string
	current := ""
	for _, p := range paragraphs {
		candidate := p
		if current != "" {
			candidate = current + paragraphSeparator + p
		}
		if utf8.RuneCountInString(candidate) <= maxChars {
			current = candidate
			continue
		}
		if current != "" {
			fragments = append(fragments, current)
			current = ""
		}
		if runes := []rune(p); len(runes) > maxChars {
			// Oversized paragraph: hard-slice into rune windows, no
			// attempt to respect sentence boundaries.
			for start := 0; start < len(runes); start += maxChars {
				end := start + maxChars
				if end > len(runes) {
					end = len(runes)
				}
				fragments = append(fragments, string(runes[start:end]))
			}
			continue
		}
		current = p
	}
	if current != "" {
		fragments = append(fragments, current)
	}
	return fragments
}

// splitBlankLines splits on one or more blank lines, tolerating
// whitespace on the blank line itself.
func splitBlankLines(text string) []string {
	lines := strings.Split(text, "\n")
	var blocks []string
	var buf []string
	flush := func() {
		if len(buf) > 0 {
			blocks = append(blocks, strings.Join(buf, "\n"))
			buf = buf[:0]
		}
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return blocks
}
