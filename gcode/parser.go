package gcode

// Command is a parsed command line: a letter, a number and the
// letter-keyed parameters that followed them.
type Command struct {
	Letter byte
	Number int
	Params map[byte]float64

	Comment string
}

// HasParam reports whether the parameter letter appeared on the line.
func (c *Command) HasParam(letter byte) bool {
	_, ok := c.Params[letter]
	return ok
}

// Param returns a parameter value, or def when the letter is absent.
func (c *Command) Param(letter byte, def float64) float64 {
	if v, ok := c.Params[letter]; ok {
		return v
	}
	return def
}

// ParseLine parses one line of G/M-code. Blank lines return nil;
// comment-only lines return a command whose Letter is zero. Parsing is
// byte-wise with no allocation beyond the parameter map, so it is safe
// on small targets.
func ParseLine(line string) *Command {
	i := skipSpace(line, 0)
	if i >= len(line) {
		return nil
	}

	cmd := &Command{Params: make(map[byte]float64)}

	if line[i] == ';' || line[i] == '(' {
		cmd.Comment = line[i:]
		return cmd
	}

	if isLetter(line[i]) {
		cmd.Letter = toUpper(line[i])
		i++
		num, next := parseInt(line, i)
		if next > i {
			cmd.Number = num
			i = next
		}
	}

	for i < len(line) {
		i = skipSpace(line, i)
		if i >= len(line) {
			break
		}
		if line[i] == ';' || line[i] == '(' {
			cmd.Comment = line[i:]
			break
		}

		if isLetter(line[i]) {
			letter := toUpper(line[i])
			i++
			value, next := parseFloat(line, i)
			if next > i {
				cmd.Params[letter] = value
				i = next
				continue
			}
			// Bare letter, treated as a present flag.
			cmd.Params[letter] = 0
		} else {
			i++
		}
	}

	return cmd
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && (s[pos] == ' ' || s[pos] == '\t' || s[pos] == '\r' || s[pos] == '\n') {
		pos++
	}
	return pos
}

// parseInt reads a decimal integer starting at pos, returning the value
// and the position after it. When no digits are found the start
// position is returned unchanged.
func parseInt(s string, pos int) (int, int) {
	start := pos
	negative := false
	if pos < len(s) && (s[pos] == '-' || s[pos] == '+') {
		negative = s[pos] == '-'
		pos++
	}

	digits := pos
	value := 0
	for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
		value = value*10 + int(s[pos]-'0')
		pos++
	}
	if pos == digits {
		return 0, start
	}
	if negative {
		value = -value
	}
	return value, pos
}

// parseFloat reads a decimal number starting at pos, returning the
// value and the position after it. When no digits are found the start
// position is returned unchanged.
func parseFloat(s string, pos int) (float64, int) {
	start := pos
	negative := false
	if pos < len(s) && (s[pos] == '-' || s[pos] == '+') {
		negative = s[pos] == '-'
		pos++
	}

	digits := pos
	value := 0.0
	for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
		value = value*10 + float64(s[pos]-'0')
		pos++
	}

	if pos < len(s) && s[pos] == '.' {
		pos++
		scale := 1.0
		for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
			scale /= 10
			value += float64(s[pos]-'0') * scale
			pos++
		}
	}

	if pos == digits || (pos == digits+1 && s[digits] == '.') {
		return 0, start
	}
	if negative {
		value = -value
	}
	return value, pos
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
