package gemini

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/sumithkumar123/resume-analysis-app/internal/applicant"
)

// The model is told to emit pure JSON but routinely wraps it in markdown
// fences, leaves keys unquoted, uses single quotes, or appends commentary.
// Recover applies a fixed sequence of cheap textual repairs and parse
// attempts. It never fails: irrecoverable input yields an empty record
// with ok=false so a single bad response cannot abort the caller.

var (
	fenceRe         = regexp.MustCompile("(?i)`json|`")
	leadingJunkRe   = regexp.MustCompile(`^[^\{\[]*`)
	trailingJunkRe  = regexp.MustCompile(`[^\]}]+$`)
	bareKeyRe       = regexp.MustCompile(`(\w+):`)
	trailingCommaRe = regexp.MustCompile(`,(\s*[\]}])`)
	leadingNoiseRe  = regexp.MustCompile(`^[^a-zA-Z0-9{\[]*`)
	trailingNoiseRe = regexp.MustCompile(`[^a-zA-Z0-9}\]]*$`)
)

// Recover turns raw model output into an applicant record. The returned
// bool is false when nothing could be recovered; it is never an error.
func Recover(raw string) (applicant.Record, bool) {
	cleaned := fenceRe.ReplaceAllString(raw, "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = leadingJunkRe.ReplaceAllString(cleaned, "")
	cleaned = trailingJunkRe.ReplaceAllString(cleaned, "")

	if rec, ok := parseRecord(cleaned); ok {
		return rec, true
	}

	first := strings.Index(cleaned, "{")
	last := strings.LastIndex(cleaned, "}")
	if first == -1 || last == -1 || last <= first {
		return applicant.Record{}, false
	}
	fixed := cleaned[first : last+1]

	fixed = bareKeyRe.ReplaceAllString(fixed, `"$1":`)
	// Global substitution: corrupts apostrophes inside string values.
	fixed = strings.ReplaceAll(fixed, "'", `"`)
	fixed = trailingCommaRe.ReplaceAllString(fixed, "$1")
	fixed = leadingNoiseRe.ReplaceAllString(fixed, "")
	fixed = trailingNoiseRe.ReplaceAllString(fixed, "")

	if rec, ok := parseRecord(fixed); ok {
		return rec, true
	}
	return applicant.Record{}, false
}

// parseRecord parses s as a JSON object into a Record. An object with no
// keys counts as nothing recovered so the caller can report "no data"
// rather than persisting a blank applicant. Fields decode individually:
// the model mistypes single fields far more often than it fabricates
// whole objects, so a wrong-typed field is dropped, never the record.
func parseRecord(s string) (applicant.Record, bool) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &keys); err != nil {
		return applicant.Record{}, false
	}
	if len(keys) == 0 {
		return applicant.Record{}, false
	}

	var rec applicant.Record
	decodeField(keys["name"], &rec.Name)
	decodeField(keys["email"], &rec.Email)
	decodeField(keys["skills"], &rec.Skills)
	decodeField(keys["summary"], &rec.Summary)

	var edu map[string]json.RawMessage
	if json.Unmarshal(keys["education"], &edu) == nil {
		decodeField(edu["degree"], &rec.Education.Degree)
		decodeField(edu["branch"], &rec.Education.Branch)
		decodeField(edu["institution"], &rec.Education.Institution)
		rec.Education.Year = decodeYear(edu["year"])
	}
	var exp map[string]json.RawMessage
	if json.Unmarshal(keys["experience"], &exp) == nil {
		decodeField(exp["job_title"], &rec.Experience.JobTitle)
		decodeField(exp["company"], &rec.Experience.Company)
	}
	return rec, true
}

// decodeField unmarshals raw into dst, leaving dst zero when the field
// is absent or of the wrong type.
func decodeField(raw json.RawMessage, dst any) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, dst)
}

// decodeYear accepts a JSON number or a numeric string; anything else
// resolves to nil.
func decodeYear(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	var n int
	if json.Unmarshal(raw, &n) == nil {
		return &n
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if y, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return &y
		}
	}
	return nil
}
