package fieldconfig

import (
	"fmt"
	"regexp"
	"sync"
	"time"
)

// TransformationKind represents how a raw resolved value is turned into a
// displayed value
type TransformationKind string

const (
	// TransformationNone passes the value through unchanged.
	TransformationNone TransformationKind = "none"
	// TransformationExtract applies the regex rule and keeps the first match.
	TransformationExtract TransformationKind = "extract"
	// TransformationTransform is reserved for future rule types; current
	// behavior is pass-through.
	TransformationTransform TransformationKind = "transform"
)

// IsValid checks if the kind is a valid TransformationKind
func (k TransformationKind) IsValid() bool {
	switch k {
	case TransformationNone, TransformationExtract, TransformationTransform, "":
		return true
	}
	return false
}

// OutputFormat narrows an extracted match into a display format
type OutputFormat string

const (
	OutputFormatNone     OutputFormat = "none"
	OutputFormatDate     OutputFormat = "date"
	OutputFormatTime     OutputFormat = "time"
	OutputFormatTimeslot OutputFormat = "timeslot"
)

// Sentinel values rendered in place of a value when extraction cannot
// produce one. The rule is configuration written by tenant admins, so both
// conditions are ordinary outcomes, never errors that escape rendering.
const (
	SentinelNoMatch    = "No match found"
	SentinelRegexError = "Regex error"
)

var (
	dmyDatePattern = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})`)
	hhmmPattern    = regexp.MustCompile(`\d{1,2}:\d{2}`)
)

// ruleCache holds compiled rules keyed by their source. Rules come from
// stored tenant configuration and repeat across renders, so each distinct
// rule compiles exactly once, including ones that fail to compile.
var ruleCache sync.Map // string -> *compiledRule

type compiledRule struct {
	re  *regexp.Regexp
	err error
}

func compileRule(rule string) *compiledRule {
	if cached, ok := ruleCache.Load(rule); ok {
		return cached.(*compiledRule)
	}
	re, err := regexp.Compile(rule)
	compiled := &compiledRule{re: re, err: err}
	actual, _ := ruleCache.LoadOrStore(rule, compiled)
	return actual.(*compiledRule)
}

// Transformation turns a raw resolved value into a rendered value.
type Transformation struct {
	Kind         TransformationKind
	Rule         string
	OutputFormat OutputFormat
}

// Apply renders the transformation. It never panics and never returns an
// error: a rule that fails to compile renders the regex-error sentinel, a
// rule with no match renders the no-match sentinel (for string input) or
// nil (for list input).
func (t Transformation) Apply(value any) any {
	switch t.Kind {
	case TransformationExtract:
		return t.extract(value)
	default:
		// none, transform (reserved), and anything unrecognized pass through.
		return value
	}
}

func (t Transformation) extract(value any) any {
	compiled := compileRule(t.Rule)
	if compiled.err != nil {
		return SentinelRegexError
	}

	switch v := value.(type) {
	case nil:
		return SentinelNoMatch
	case []any:
		for _, item := range v {
			s := fmt.Sprint(item)
			if compiled.re.MatchString(s) {
				return t.formatMatch(s)
			}
		}
		return nil
	case []string:
		for _, s := range v {
			if compiled.re.MatchString(s) {
				return t.formatMatch(s)
			}
		}
		return nil
	case string:
		return t.extractString(v, compiled.re)
	default:
		return t.extractString(fmt.Sprint(v), compiled.re)
	}
}

func (t Transformation) extractString(s string, re *regexp.Regexp) any {
	matches := re.FindAllString(s, -1)
	if len(matches) == 0 {
		return SentinelNoMatch
	}
	return t.formatMatch(matches[0])
}

// formatMatch applies the output format to the first match only.
func (t Transformation) formatMatch(match string) string {
	switch t.OutputFormat {
	case OutputFormatDate:
		return reparseDate(match)
	case OutputFormatTime:
		if narrowed := hhmmPattern.FindString(match); narrowed != "" {
			return narrowed
		}
		return match
	default:
		// none and timeslot pass through unchanged.
		return match
	}
}

// reparseDate rewrites a dd/mm/yyyy substring as yyyy-mm-dd. Input that
// does not conform (including impossible dates) passes through unchanged.
func reparseDate(match string) string {
	sub := dmyDatePattern.FindString(match)
	if sub == "" {
		return match
	}
	parsed, err := time.Parse("02/01/2006", sub)
	if err != nil {
		return match
	}
	return parsed.Format("2006-01-02")
}
