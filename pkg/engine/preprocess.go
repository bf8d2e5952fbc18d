package engine

import "strings"

// preprocessSource rewrites patch script source into plain zygomys syntax:
//
//	:mode :ascii   ->  "__kw_mode" "__kw_ascii"
//	has-on         ->  has_on
//	1/3 -2/7       ->  "1/3" "-2/7"
//	; comment      ->  // comment
//
// Keywords become marker strings so they never collide with user variables.
// zygomys reads a hyphen as subtraction, so hyphens between letters become
// underscores. Rational literals become strings that the kernel codec
// parses, which keeps them exact under the rational kernel. String literals
// and comment text are copied unchanged.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)

	s := source
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"':
			j := stringEnd(s, i)
			out.WriteString(s[i:j])
			i = j

		case c == ';':
			j := i
			for j < len(s) && s[j] == ';' {
				j++
			}
			k := strings.IndexByte(s[j:], '\n')
			if k < 0 {
				k = len(s)
			} else {
				k += j
			}
			out.WriteString("//")
			out.WriteString(s[j:k])
			i = k

		case c == ':' && i+1 < len(s) && isLetter(s[i+1]):
			j := i + 1
			for j < len(s) && isKWChar(s[j]) {
				j++
			}
			out.WriteString(`"` + kwPrefix + s[i+1:j] + `"`)
			i = j

		case (i == 0 || isOpener(s[i-1])) && rationalEnd(s, i) > i:
			j := rationalEnd(s, i)
			out.WriteString(`"` + s[i:j] + `"`)
			i = j

		case c == '-' && i > 0 && i+1 < len(s) && isIdentChar(s[i-1]) && isLetter(s[i+1]):
			out.WriteByte('_')
			i++

		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// stringEnd returns the index just past the string literal opening at i.
// An unterminated literal runs to the end of s.
func stringEnd(s string, i int) int {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '"':
			return j + 1
		}
	}
	return len(s)
}

// rationalEnd returns the end of a literal of the form [-]digits/digits
// starting at i, or i when there is none. The literal must be followed by a
// delimiter.
func rationalEnd(s string, i int) int {
	j := i
	if j < len(s) && s[j] == '-' {
		j++
	}
	num := j
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	if j == num || j >= len(s) || s[j] != '/' {
		return i
	}
	j++
	den := j
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	if j == den || (j < len(s) && !isCloser(s[j])) {
		return i
	}
	return j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isKWChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isOpener reports whether a token may start right after c.
func isOpener(c byte) bool {
	return isSpace(c) || c == '(' || c == '['
}

// isCloser reports whether a token may end right before c.
func isCloser(c byte) bool {
	return isSpace(c) || c == ')' || c == ']'
}
