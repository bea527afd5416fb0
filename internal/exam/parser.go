// Package exam recovers structure from the free-text question blobs the
// model returns and scores student selections against it.
package exam

import (
	"regexp"
	"strings"
)

var (
	questionPrefixRe = regexp.MustCompile(`(?i)^q\d+:\s*`)
	optionLineRe     = regexp.MustCompile(`^[A-D][.)]\s+`)
	optionBoundaryRe = regexp.MustCompile(`(?m)^[A-D][.)][ \t]+`)
	optionLabelRe    = regexp.MustCompile(`^([A-D])[.)]\s+`)
)

// Option is one labeled answer choice with the correctness marker removed.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Parsed is the structured form of one question blob. A question with no
// recognizable option lines has an empty Options slice and an empty Correct
// label; that is a valid theory-style result, not a failure.
type Parsed struct {
	Stem    string   `json:"stem"`
	Options []Option `json:"options"`
	Correct string   `json:"correct"`
}

// Parse converts a raw question blob into a stem plus labeled options.
// It is total: malformed input degrades to a zero-option result and is
// never an error. Parsing the same text twice yields identical results.
func Parse(raw string) Parsed {
	text := strings.TrimSpace(raw)
	text = strings.TrimSpace(questionPrefixRe.ReplaceAllString(text, ""))

	lines := strings.Split(text, "\n")

	// The options block is the longest trailing run of lines that begin
	// with A-D followed by "." or ")" and at least one space.
	start := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		if !optionLineRe.MatchString(lines[i]) {
			break
		}
		start = i
	}

	stem := strings.TrimSpace(strings.Join(lines[:start], "\n"))
	if start == len(lines) {
		return Parsed{Stem: stem}
	}

	block := strings.Join(lines[start:], "\n")
	parsed := Parsed{Stem: stem}
	for _, seg := range splitOptions(block) {
		label := extractLabel(seg)
		display := optionLabelRe.ReplaceAllString(seg, "")
		if strings.Contains(seg, "*") && parsed.Correct == "" {
			// First marked option wins; later markers are not
			// additionally treated as correct.
			parsed.Correct = label
		}
		display = strings.Replace(display, "*", "", 1)
		parsed.Options = append(parsed.Options, Option{
			Label: label,
			Text:  strings.TrimSpace(display),
		})
	}
	return parsed
}

// splitOptions cuts the options block at each position where a label
// pattern starts a line, trimming the pieces and dropping empty ones.
func splitOptions(block string) []string {
	idxs := optionBoundaryRe.FindAllStringIndex(block, -1)
	if len(idxs) == 0 {
		return nil
	}
	var segs []string
	for i, idx := range idxs {
		end := len(block)
		if i+1 < len(idxs) {
			end = idxs[i+1][0]
		}
		seg := strings.TrimSpace(block[idx[0]:end])
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}

// extractLabel returns the option's letter label. When the delimiter form
// is not present it falls back to the first character of the text, which
// can mislabel options whose text merely starts with A-D; the fallback is
// kept as-is because existing papers rely on it.
func extractLabel(opt string) string {
	if m := optionLabelRe.FindStringSubmatch(opt); m != nil {
		return m[1]
	}
	if opt == "" {
		return ""
	}
	return string(opt[0])
}
