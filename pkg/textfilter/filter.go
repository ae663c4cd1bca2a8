// Package textfilter keeps table talk family friendly. Automated
// participants run their speech through it before anything reaches the
// game record; the replacement preserves the casing of the original
// word so filtered lines still read naturally.
package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// replacements maps filtered words to family-friendly alternatives.
// Words without a tame stand-in are censored outright.
var replacements = map[string]string{
	"fuck":         "fudge",
	"shit":         "shoot",
	"damn":         "dang",
	"hell":         "heck",
	"ass":          "butt",
	"bitch":        "jerk",
	"bastard":      "jerk",
	"crap":         "crud",
	"piss":         "ticked",
	"motherfucker": "mother-trucker",
	"goddamn":      "gosh-dang",
	"asshole":      "jerk",
	"dumbass":      "dummy",
	"jackass":      "jerk",
	"badass":       "tough",
	"bullshit":     "baloney",
	"horseshit":    "nonsense",
	"dipshit":      "dummy",
	"shithead":     "jerk",
	"dickhead":     "jerk",
	"prick":        "jerk",
	"douchebag":    "jerk",
	"whore":        "[censored]",
	"slut":         "[censored]",
}

// Filter replaces profanity in free text with tame alternatives.
type Filter struct {
	regexes map[string]*regexp.Regexp
}

// New builds a filter with the patterns pre-compiled.
func New() *Filter {
	f := &Filter{
		regexes: make(map[string]*regexp.Regexp, len(replacements)),
	}
	for word := range replacements {
		pattern := `(?i)\b` + regexp.QuoteMeta(word) + `\b`
		f.regexes[word] = regexp.MustCompile(pattern)
	}
	return f
}

// Clean replaces every filtered word in text, preserving case.
func (f *Filter) Clean(text string) string {
	result := text
	for word, regex := range f.regexes {
		replacement := replacements[word]
		result = regex.ReplaceAllStringFunc(result, func(match string) string {
			return preserveCase(match, replacement)
		})
	}
	return result
}

// Flagged reports whether text contains any filtered word.
func (f *Filter) Flagged(text string) bool {
	for _, regex := range f.regexes {
		if regex.MatchString(text) {
			return true
		}
	}
	return false
}

// preserveCase applies the case pattern of the original word to the
// replacement.
func preserveCase(original, replacement string) string {
	if len(original) == 0 {
		return replacement
	}

	if strings.ToUpper(original) == original {
		return strings.ToUpper(replacement)
	}
	if strings.ToLower(original) == original {
		return strings.ToLower(replacement)
	}

	titleCaser := cases.Title(language.English)
	if titleCaser.String(strings.ToLower(original)) == original {
		return titleCaser.String(replacement)
	}

	// Mixed case: mirror the original character by character.
	originalRunes := []rune(original)
	result := make([]rune, 0, len(replacement))
	for i, r := range replacement {
		if i < len(originalRunes) && unicode.IsUpper(originalRunes[i]) {
			result = append(result, unicode.ToUpper(r))
		} else {
			result = append(result, unicode.ToLower(r))
		}
	}
	return string(result)
}
