package pdfsource

// paintOps are the path-painting operators; each occurrence is one drawing.
var paintOps = map[string]struct{}{
	"S": {}, "s": {},
	"f": {}, "F": {}, "f*": {},
	"B": {}, "B*": {}, "b": {}, "b*": {},
}

// CountDrawings returns the number of path-painting operators in a page
// content stream. Strings, names, comments and inline image data are
// skipped so their bytes are never mistaken for operators.
func CountDrawings(content []byte) int {
	n := 0
	lx := lexer{data: content}
	for {
		tok, ok := lx.next()
		if !ok {
			return n
		}
		if _, hit := paintOps[tok]; hit {
			n++
		}
		if tok == "ID" {
			lx.skipInlineImage()
		}
	}
}

type lexer struct {
	data []byte
	pos  int
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelim(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// next returns the next bare keyword token. Operands that cannot be
// operators (strings, hex strings, dictionaries, names, arrays) are consumed
// and reported as empty tokens.
func (l *lexer) next() (string, bool) {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch {
		case isSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		case c == '(':
			l.skipString()
			return "", true
		case c == '<':
			if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
				l.pos += 2
				return "", true
			}
			for l.pos < len(l.data) && l.data[l.pos] != '>' {
				l.pos++
			}
			l.pos++
			return "", true
		case c == '>' || c == '[' || c == ']' || c == '{' || c == '}' || c == ')':
			l.pos++
			return "", true
		case c == '/':
			l.pos++
			for l.pos < len(l.data) && !isSpace(l.data[l.pos]) && !isDelim(l.data[l.pos]) {
				l.pos++
			}
			return "", true
		default:
			start := l.pos
			for l.pos < len(l.data) && !isSpace(l.data[l.pos]) && !isDelim(l.data[l.pos]) {
				l.pos++
			}
			return string(l.data[start:l.pos]), true
		}
	}
	return "", false
}

func (l *lexer) skipString() {
	depth := 0
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '\\':
			l.pos++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

// skipInlineImage advances past binary inline image data up to the EI
// operator that ends it.
func (l *lexer) skipInlineImage() {
	if l.pos < len(l.data) && isSpace(l.data[l.pos]) {
		l.pos++
	}
	for l.pos+1 < len(l.data) {
		if l.data[l.pos] == 'E' && l.data[l.pos+1] == 'I' &&
			(l.pos == 0 || isSpace(l.data[l.pos-1])) &&
			(l.pos+2 == len(l.data) || isSpace(l.data[l.pos+2]) || isDelim(l.data[l.pos+2])) {
			l.pos += 2
			return
		}
		l.pos++
	}
	l.pos = len(l.data)
}
