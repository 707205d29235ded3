// Package textnorm folds catalog text into a canonical half-width form
// before any pattern matching happens.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// dashes covers the dash and space variants that width folding leaves alone.
var dashes = strings.NewReplacer(
	"－", "-",
	"−", "-",
	"ー", "-",
	"―", "-",
	"‐", "-",
	"　", " ",
)

var reKeyPrefix = regexp.MustCompile(`^\s*\d{1,2}\s*[:：]\s*`)

// Normalize maps full-width digits, letters and punctuation to their
// half-width forms, collapses dash variants to "-", and trims surrounding
// whitespace. Empty input yields "".
//
// Half-width katakana are widened by the fold, which keeps Japanese tokens
// such as 号館 and 時限 matchable.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(dashes.Replace(width.Fold.String(s)))
}

// StripKeyPrefix removes a leading "NN:" line key (either colon width).
func StripKeyPrefix(s string) string {
	return reKeyPrefix.ReplaceAllString(s, "")
}
