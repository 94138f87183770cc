package parse

import (
	"unicode/utf8"
)

// MaskImplBodies returns a copy of src in which the contents of every block
// opened after the keyword token (an impl block) are replaced with spaces.
// Newlines and the braces themselves are kept. Comments and string or char
// literals are skipped when looking for the keyword and counting braces, but
// outside impl bodies they are left untouched.
func MaskImplBodies(src []byte, keyword string) []byte {
	out := make([]byte, len(src))
	copy(out, src)

	pending := false
	nest := 0 // ( and [ nesting between the keyword and its block
	depth := 0

	for i := 0; i < len(src); {
		n := literalLen(src, i)
		if n == 0 {
			n = 1
			c := src[i]
			switch {
			case depth > 0 && c == '{':
				depth++
			case depth > 0 && c == '}':
				depth--
			case depth > 0:
			case pending && (c == '(' || c == '['):
				nest++
			case pending && (c == ')' || c == ']'):
				if nest > 0 {
					nest--
				}
			case pending && c == '{':
				pending = false
				nest = 0
				depth = 1
				i++
				continue
			case pending && c == ';' && nest == 0:
				pending = false
			case isIdentByte(c):
				j := i
				for j < len(src) && isIdentByte(src[j]) {
					j++
				}
				if string(src[i:j]) == keyword {
					pending = true
					nest = 0
				}
				i = j
				continue
			}
		}
		if depth > 0 {
			blank(out[i : i+n])
		}
		i += n
	}

	return out
}

// literalLen returns the length of the comment, string or char literal that
// starts at src[i], or 0 if none does.
func literalLen(src []byte, i int) int {
	rest := src[i:]
	switch {
	case hasPrefix(rest, "//"):
		for j := 2; j < len(rest); j++ {
			if rest[j] == '\n' {
				return j
			}
		}
		return len(rest)
	case hasPrefix(rest, "/*"):
		depth := 0
		for j := 0; j+1 < len(rest); j++ {
			switch {
			case rest[j] == '/' && rest[j+1] == '*':
				depth++
				j++
			case rest[j] == '*' && rest[j+1] == '/':
				depth--
				j++
				if depth == 0 {
					return j + 1
				}
			}
		}
		return len(rest)
	case rest[0] == '"':
		for j := 1; j < len(rest); j++ {
			switch rest[j] {
			case '\\':
				j++
			case '"':
				return j + 1
			}
		}
		return len(rest)
	case rest[0] == '\'':
		return charLen(rest)
	case rest[0] == 'r' || rest[0] == 'b':
		if i > 0 && isIdentByte(src[i-1]) {
			return 0
		}
		return rawStringLen(rest)
	}
	return 0
}

// charLen distinguishes 'x' and '\n' from lifetimes such as 'a.
func charLen(rest []byte) int {
	if len(rest) < 3 {
		return 0
	}
	if rest[1] == '\\' {
		for j := 2; j < len(rest) && j < 12; j++ {
			if rest[j] == '\'' {
				return j + 1
			}
		}
		return 0
	}
	_, size := utf8.DecodeRune(rest[1:])
	if 1+size < len(rest) && rest[1+size] == '\'' {
		return 2 + size
	}
	return 0
}

// rawStringLen handles r"..", r#".."#, br".." and friends.
func rawStringLen(rest []byte) int {
	j := 0
	if rest[j] == 'b' {
		j++
	}
	if j >= len(rest) || rest[j] != 'r' {
		return 0
	}
	j++
	hashes := 0
	for j < len(rest) && rest[j] == '#' {
		hashes++
		j++
	}
	if j >= len(rest) || rest[j] != '"' {
		return 0
	}
	j++
	for ; j < len(rest); j++ {
		if rest[j] != '"' {
			continue
		}
		k := 0
		for k < hashes && j+1+k < len(rest) && rest[j+1+k] == '#' {
			k++
		}
		if k == hashes {
			return j + 1 + hashes
		}
	}
	return len(rest)
}

func hasPrefix(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && string(b[:len(prefix)]) == prefix
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func blank(b []byte) {
	for i := range b {
		if b[i] != '\n' {
			b[i] = ' '
		}
	}
}
