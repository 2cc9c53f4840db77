package host

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	commentPattern = regexp.MustCompile(`(?s)//[^\n]*|/\*.*?\*/`)
	kernelPattern  = regexp.MustCompile(`(?:__kernel|kernel)\s+void\s+([A-Za-z_]\w*)\s*\(([^)]*)\)\s*\{`)
)

type kernelDecl struct {
	name   string
	params []string
}

// compileSource performs the structural checks the host backend can do on
// OpenCL C: comments are stripped, brackets must balance and every kernel
// declaration is collected with its parameter list. The returned log is in
// the "<line>:<col>: error: ..." form compilers print.
func compileSource(source string) ([]kernelDecl, string) {
	stripped := commentPattern.ReplaceAllStringFunc(source, func(c string) string {
		// Keep newlines so line numbers survive.
		return strings.Map(func(r rune) rune {
			if r == '\n' {
				return r
			}
			return ' '
		}, c)
	})

	if log := checkBrackets(stripped); log != "" {
		return nil, log
	}

	var decls []kernelDecl
	for _, m := range kernelPattern.FindAllStringSubmatch(stripped, -1) {
		decls = append(decls, kernelDecl{name: m[1], params: splitParams(m[2])})
	}
	return decls, ""
}

func splitParams(list string) []string {
	list = strings.TrimSpace(list)
	if list == "" || list == "void" {
		return nil
	}
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.Join(strings.Fields(p), " "))
	}
	return out
}

type openBracket struct {
	ch   rune
	line int
	col  int
}

func checkBrackets(src string) string {
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	var stack []openBracket
	line, col := 1, 0

	for _, r := range src {
		col++
		switch r {
		case '\n':
			line++
			col = 0
		case '(', '[', '{':
			stack = append(stack, openBracket{ch: r, line: line, col: col})
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1].ch != pairs[r] {
				return fmt.Sprintf("<source>:%d:%d: error: unexpected '%c'", line, col, r)
			}
			stack = stack[:len(stack)-1]
		}
	}

	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return fmt.Sprintf("<source>:%d:%d: error: expected matching bracket for '%c' before end of input", open.line, open.col, open.ch)
	}
	return ""
}
