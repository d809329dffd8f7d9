// Package funcsrc scans FunC sources for include directives and get-method
// declarations. It works on text only and never evaluates the program.
package funcsrc

import (
	"regexp"
	"strings"

	"tonide/internal/workspace"
)

var (
	reLineComment  = regexp.MustCompile(`;;[^\n]*`)
	reBlockComment = regexp.MustCompile(`(?s)\{-.*?-\}`)
	reInclude      = regexp.MustCompile(`(?m)^\s*#include\s+"([^"]+)"\s*;`)
	reMethodID     = regexp.MustCompile(`\bmethod_id\b`)
	reForall       = regexp.MustCompile(`^forall\s+[^>]*->\s*`)
	reIdent        = regexp.MustCompile(`([A-Za-z_$][\w?!':$]*)\s*$`)
)

// Parser implements directive extraction and getter parsing for FunC.
type Parser struct{}

func New() *Parser { return &Parser{} }

// ExtractDirectives returns the targets of #include directives in source order.
func (p *Parser) ExtractDirectives(content string) ([]string, error) {
	return ExtractDirectives(content), nil
}

// ParseInterface returns the get-methods declared in content.
func (p *Parser) ParseInterface(content string) (*workspace.ABI, error) {
	return ParseGetters(content), nil
}

func ExtractDirectives(content string) []string {
	src := stripComments(content)
	matches := reInclude.FindAllStringSubmatch(src, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if target := strings.TrimSpace(m[1]); target != "" {
			out = append(out, target)
		}
	}
	return out
}

func ParseGetters(content string) *workspace.ABI {
	src := stripComments(content)
	abi := &workspace.ABI{Getters: []workspace.Getter{}}
	for _, loc := range reMethodID.FindAllStringIndex(src, -1) {
		start := strings.LastIndexAny(src[:loc[0]], ";}{") + 1
		if g, ok := parseHeader(src[start:loc[0]]); ok {
			abi.Getters = append(abi.Getters, g)
		}
	}
	return abi
}

// parseHeader parses "<ret> <name>(<params>) <specifiers>".
func parseHeader(header string) (workspace.Getter, bool) {
	header = strings.TrimSpace(header)
	header = reForall.ReplaceAllString(header, "")
	closeIdx := strings.LastIndex(header, ")")
	if closeIdx < 0 {
		return workspace.Getter{}, false
	}
	openIdx := matchingOpen(header, closeIdx)
	if openIdx < 0 {
		return workspace.Getter{}, false
	}
	m := reIdent.FindStringSubmatchIndex(header[:openIdx])
	if m == nil {
		return workspace.Getter{}, false
	}
	name := header[m[2]:m[3]]
	ret := strings.TrimSpace(header[:m[2]])
	if ret == "" {
		return workspace.Getter{}, false
	}
	return workspace.Getter{
		Name:        name,
		Parameters:  parseParams(header[openIdx+1 : closeIdx]),
		ReturnTypes: parseReturn(ret),
	}, true
}

func matchingOpen(s string, closeIdx int) int {
	depth := 0
	for i := closeIdx; i >= 0; i-- {
		switch s[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseParams(raw string) []workspace.Parameter {
	out := []workspace.Parameter{}
	for _, part := range splitTopLevel(raw) {
		fields := strings.Fields(part)
		switch len(fields) {
		case 0:
			continue
		case 1:
			out = append(out, workspace.Parameter{Type: fields[0]})
		default:
			out = append(out, workspace.Parameter{
				Name: fields[len(fields)-1],
				Type: strings.Join(fields[:len(fields)-1], " "),
			})
		}
	}
	return out
}

func parseReturn(ret string) []string {
	if strings.HasPrefix(ret, "(") && strings.HasSuffix(ret, ")") {
		inner := strings.TrimSpace(ret[1 : len(ret)-1])
		if inner == "" {
			return []string{}
		}
		return splitTopLevel(inner)
	}
	return []string{ret}
}

// splitTopLevel splits on commas that are not nested in brackets.
func splitTopLevel(raw string) []string {
	var out []string
	depth, last := 0, 0
	for i, r := range raw {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				out = appendTrimmed(out, raw[last:i])
				last = i + 1
			}
		}
	}
	return appendTrimmed(out, raw[last:])
}

func appendTrimmed(out []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		out = append(out, s)
	}
	return out
}

func stripComments(content string) string {
	content = reBlockComment.ReplaceAllString(content, "")
	return reLineComment.ReplaceAllString(content, "")
}
