// Package lang renders human readable console output fragments.
package lang

import (
	"bytes"
	"fmt"
	"unicode"

	"github.com/gertd/go-pluralize"
)

const (
	DefaultPattern   = "%s"
	DefaultSeparator = ","
	DefaultOperator  = "and"
)

// Enumerator joins elements into natural language lists, like
// "a, b and c" or "[x] or [y]".
type Enumerator struct {
	Pattern   string
	Separator string
	Operator  string
}

func (e Enumerator) Do(elements ...string) string {
	pattern, separator, operator := DefaultPattern, DefaultSeparator, DefaultOperator
	if e.Pattern != "" {
		pattern = e.Pattern
	}
	if e.Separator != "" {
		separator = e.Separator
	}
	if e.Operator != "" {
		operator = e.Operator
	}
	res := &bytes.Buffer{}
	for idx, element := range elements {
		if idx+2 < len(elements) {
			fmt.Fprintf(res, fmt.Sprintf("%s%%s ", pattern), element, separator)
		} else if idx+1 < len(elements) {
			fmt.Fprintf(res, fmt.Sprintf("%s%%s %%s ", pattern), element, separator, operator)
		} else {
			fmt.Fprintf(res, pattern, element)
		}
	}
	return res.String()
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	for idx, r := range s {
		return string(unicode.ToUpper(r)) + s[idx+len(string(r)):]
	}
	return s
}

var pluralizer = pluralize.NewClient()

// Count renders a counted noun, like "1 item" or "3 items".
func Count(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", pluralizer.Singular(noun))
	}
	return fmt.Sprintf("%d %s", n, pluralizer.Plural(noun))
}
