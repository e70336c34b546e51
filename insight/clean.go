package insight

import (
	"encoding/json"
	"regexp"
	"strings"
)

// The model is told to answer with bare JSON but in practice wraps it in
// markdown fences, concatenates SQL strings with "+", and drops spaces
// around keywords. These fixups are ordered; later ones assume fences are
// already gone.
var (
	fenceRe       = regexp.MustCompile("```(?:json|JSON|sql|SQL)?\\s*|\\s*```")
	sqlConcatRe   = regexp.MustCompile(`"\s*\+\s*"`)
	commaSpaceRe  = regexp.MustCompile(`,(\w)`)
	keywordRe     = regexp.MustCompile(`\b(SELECT|FROM|WHERE|GROUP BY|ORDER BY|JOIN|ON)\b(\S)`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	semicolonRe   = regexp.MustCompile(`\s*;\s*`)
	controlRe     = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	numberQuoteRe = regexp.MustCompile(`(\d)",`)
	multiCommaRe  = regexp.MustCompile(`,,+`)
	trailCommaRe  = regexp.MustCompile(`,\s*}`)
)

// CleanResponse normalizes a raw model reply into parseable JSON text.
func CleanResponse(raw string) string {
	cleaned := fenceRe.ReplaceAllString(raw, "")
	cleaned = sqlConcatRe.ReplaceAllString(cleaned, " ")
	cleaned = commaSpaceRe.ReplaceAllString(cleaned, ", $1")
	cleaned = keywordRe.ReplaceAllString(cleaned, "$1 $2")
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	cleaned = semicolonRe.ReplaceAllString(cleaned, ";")
	cleaned = controlRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if json.Valid([]byte(cleaned)) {
		return cleaned
	}

	// Second pass for the common JSON defects seen in model output.
	cleaned = numberQuoteRe.ReplaceAllString(cleaned, "$1,")
	cleaned = multiCommaRe.ReplaceAllString(cleaned, ",")
	cleaned = trailCommaRe.ReplaceAllString(cleaned, "}")
	return cleaned
}
