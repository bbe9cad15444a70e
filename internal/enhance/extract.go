package enhance

import (
	"strings"
	"unicode"
)

// Marker is the section label the model is asked to emit ahead of the
// rewritten description.
const Marker = "ENHANCED DESCRIPTION:"

// sectionHeaderMaxLen bounds the terminator heuristic: short, fully
// upper-case lines with a colon look like section headers, long ones are
// assumed to be shouting prose.
const sectionHeaderMaxLen = 50

// ExtractOutcome distinguishes "the model never emitted the marker" from
// "the marker was there but nothing followed it". Both degrade to an
// empty description at the API boundary, but callers log them apart.
type ExtractOutcome int

const (
	Extracted ExtractOutcome = iota
	MarkerMissing
	EmptyBody
)

func (o ExtractOutcome) String() string {
	switch o {
	case Extracted:
		return "extracted"
	case MarkerMissing:
		return "marker_missing"
	case EmptyBody:
		return "empty_body"
	}
	return "unknown"
}

// Extraction is the result of parsing raw model output.
type Extraction struct {
	Outcome     ExtractOutcome
	Description string
}

// Extract scans raw model output line by line. Accumulation starts at
// the first line whose upper-cased form contains the marker; text after
// the first colon on that line is kept, trimmed, as the first line.
// Accumulation stops at the first line that looks like a new section
// header, which is itself discarded.
func Extract(raw string) Extraction {
	lines := strings.Split(raw, "\n")

	var collected []string
	found := false

	for _, line := range lines {
		if !found {
			if strings.Contains(strings.ToUpper(line), Marker) {
				found = true
				if idx := strings.Index(line, ":"); idx >= 0 {
					if trailing := strings.TrimSpace(line[idx+1:]); trailing != "" {
						collected = append(collected, trailing)
					}
				}
			}
			continue
		}

		if isSectionHeader(line) {
			break
		}
		collected = append(collected, line)
	}

	if !found {
		return Extraction{Outcome: MarkerMissing}
	}

	description := strings.TrimSpace(strings.Join(collected, "\n"))
	if description == "" {
		return Extraction{Outcome: EmptyBody}
	}

	return Extraction{Outcome: Extracted, Description: description}
}

// isSectionHeader reports whether a line terminates accumulation: after
// trimming it is shorter than sectionHeaderMaxLen, contains a colon, and
// is entirely upper-case (at least one letter, none of them lower-case).
func isSectionHeader(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || len(trimmed) >= sectionHeaderMaxLen {
		return false
	}
	if !strings.Contains(trimmed, ":") {
		return false
	}

	hasLetter := false
	for _, r := range trimmed {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
