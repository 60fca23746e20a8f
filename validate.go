package xlrecord

import (
	"fmt"
	"sort"
	"time"

	"github.com/expr-lang/expr"
)

// Severity indicates the severity of a validation issue.
type Severity int

const (
	SeverityError   Severity = iota // Mapping will fail at runtime
	SeverityWarning                 // Mapping may produce unexpected results
)

// ValidationIssue represents a single problem found in a mapping.
type ValidationIssue struct {
	Severity Severity
	Template int // 0-based row template index, -1 for the whole mapping
	Field    string
	Message  string
}

// String formats the issue as `[ERROR] template 1 field "age": message` or "[WARN] ...".
func (v ValidationIssue) String() string {
	sev := "ERROR"
	if v.Severity == SeverityWarning {
		sev = "WARN"
	}
	if v.Template < 0 {
		return fmt.Sprintf("[%s] %s", sev, v.Message)
	}
	return fmt.Sprintf("[%s] template %d field %q: %s", sev, v.Template+1, v.Field, v.Message)
}

// ValidateMapping checks a mapping without reading any sheet: column letters,
// literal positions, patterns, rounding modes and expression syntax. A field
// name used by more than one row template is reported as a warning because the
// later template overwrites the earlier value.
func ValidateMapping(m Mapping) []ValidationIssue {
	if len(m) == 0 {
		return []ValidationIssue{{Severity: SeverityError, Template: -1, Message: ErrEmptyMapping.Error()}}
	}
	var issues []ValidationIssue
	seen := make(map[string]int)
	for i, t := range m {
		names := make([]string, 0, len(t))
		for name := range t {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			if name == DebugKey {
				continue
			}
			issues = append(issues, validateRule(i, name, t[name])...)
			if prev, ok := seen[name]; ok {
				issues = append(issues, ValidationIssue{
					Severity: SeverityWarning,
					Template: i,
					Field:    name,
					Message:  fmt.Sprintf("also defined by template %d; this template's value wins", prev+1),
				})
			}
			seen[name] = i
		}
	}
	return issues
}

func validateRule(template int, field string, rule FieldRule) []ValidationIssue {
	issue := func(sev Severity, format string, args ...any) ValidationIssue {
		return ValidationIssue{Severity: sev, Template: template, Field: field, Message: fmt.Sprintf(format, args...)}
	}
	var issues []ValidationIssue
	switch r := rule.(type) {
	case nil:
		issues = append(issues, issue(SeverityError, "no rule"))
	case ColRule:
		if _, err := NameToCol(r.Col); err != nil {
			issues = append(issues, issue(SeverityError, "%v", err))
		}
		issues = append(issues, checkFormat(issue, r.Pattern, r.Rounding)...)
	case CellRule:
		if _, err := ParseCellRef(r.Position); err != nil {
			issues = append(issues, issue(SeverityError, "%v", err))
		}
		issues = append(issues, checkFormat(issue, r.Pattern, r.Rounding)...)
	case ComputedRule:
		if r.Fn == nil {
			issues = append(issues, issue(SeverityError, "computed rule has no function"))
		}
	case ExprRule:
		if _, err := expr.Compile(r.Expression, expr.AllowUndefinedVariables()); err != nil {
			issues = append(issues, issue(SeverityError, "invalid expression syntax %q: %v", r.Expression, err))
		}
	}
	return issues
}

// checkFormat accepts a pattern that works for numbers or for dates.
func checkFormat(issue func(Severity, string, ...any) ValidationIssue, pattern string, rounding RoundingMode) []ValidationIssue {
	var issues []ValidationIssue
	if pattern != "" {
		_, numErr := parseNumberPattern(pattern)
		_, dateErr := formatDatePattern(time.Time{}, pattern)
		if numErr != nil && dateErr != nil {
			issues = append(issues, issue(SeverityError, "pattern %q is neither a number nor a date pattern", pattern))
		}
	}
	if rounding != "" {
		if _, ok := ParseRoundingMode(string(rounding)); !ok {
			issues = append(issues, issue(SeverityWarning, "unknown rounding mode %q, HALF_EVEN is used", rounding))
		}
	}
	return issues
}
