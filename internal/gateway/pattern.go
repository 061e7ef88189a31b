package gateway

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// pathPattern is a route path compiled to an anchored expression. Every
// {name} placeholder matches exactly one non-empty path segment.
type pathPattern struct {
	raw   string
	expr  *regexp.Regexp
	names []string
}

func compilePattern(raw string) (*pathPattern, error) {
	var (
		b     strings.Builder
		names []string
		last  int
	)

	b.WriteString("^")
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(raw, -1) {
		b.WriteString(regexp.QuoteMeta(raw[last:loc[0]]))
		b.WriteString("([^/]+)")
		names = append(names, raw[loc[2]:loc[3]])
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(raw[last:]))
	b.WriteString("$")

	expr, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("compile route pattern %q: %w", raw, err)
	}

	return &pathPattern{raw: raw, expr: expr, names: names}, nil
}

func (p *pathPattern) match(path string) ([]string, bool) {
	m := p.expr.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	return m[1:], true
}

// params binds captures to placeholder names. A name without a capture is
// bound to the empty string.
func (p *pathPattern) params(captures []string) map[string]string {
	params := make(map[string]string, len(p.names))
	for i, name := range p.names {
		if i < len(captures) {
			params[name] = captures[i]
		} else {
			params[name] = ""
		}
	}
	return params
}
