package svgingest

import (
	"strconv"
	"strings"

	"github.com/kcutter/gocut/internal/drawpath"
)

// parseDrawList walks one path element's d attribute token by token,
// building the ordered DrawSet it describes. Supported opcodes are M, L, C
// (case-insensitive) and the no-op closepath z; numbers may be separated by
// commas or whitespace, matching what vector editors commonly emit.
func parseDrawList(d string) (drawpath.DrawSet, error) {
	s := strings.TrimSpace(d)
	if s == "" {
		return nil, nil
	}

	var set drawpath.DrawSet
	pos := 0
	n := len(s)
	for pos < n {
		pos = skipSpace(s, pos)
		if pos >= n {
			break
		}
		op := s[pos]
		switch op {
		case 'z', 'Z':
			pos++
			continue
		case 'M', 'm', 'L', 'l':
			pos++
			x, y, next, err := readPair(s, pos)
			if err != nil {
				return nil, err
			}
			pos = next
			kind := drawpath.Line
			if op == 'M' || op == 'm' {
				kind = drawpath.Move
			}
			set = append(set, drawpath.DrawOp{Kind: kind, Points: [3]drawpath.Point{{X: x, Y: y}}})
		case 'C', 'c':
			pos++
			x1, y1, next1, err := readPair(s, pos)
			if err != nil {
				return nil, err
			}
			x2, y2, next2, err := readPair(s, next1)
			if err != nil {
				return nil, err
			}
			x3, y3, next3, err := readPair(s, next2)
			if err != nil {
				return nil, err
			}
			pos = next3
			set = append(set, drawpath.DrawOp{
				Kind:   drawpath.Cubic,
				Points: [3]drawpath.Point{{X: x1, Y: y1}, {X: x2, Y: y2}, {X: x3, Y: y3}},
			})
		default:
			return nil, errUnknownOp(op)
		}
	}
	return set, nil
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && (isSpace(s[pos]) || s[pos] == ',') {
		pos++
	}
	return pos
}

// readPair parses one "x,y" or "x y" coordinate pair starting at pos
// (after any leading separators), returning the values and the offset just
// past the pair.
func readPair(s string, pos int) (x, y float64, next int, err error) {
	pos = skipSpace(s, pos)
	x, pos, ok := readFloat(s, pos)
	if !ok {
		return 0, 0, pos, errShortPair(pos)
	}
	pos = skipCommaOrSpace(s, pos)
	y, pos, ok = readFloat(s, pos)
	if !ok {
		return 0, 0, pos, errShortPair(pos)
	}
	return x, y, pos, nil
}

func skipCommaOrSpace(s string, pos int) int {
	for pos < len(s) && (isSpace(s[pos]) || s[pos] == ',') {
		pos++
	}
	return pos
}

// readFloat parses a decimal number (optionally signed, optionally
// fractional) starting at pos, returning its value and the offset past it.
func readFloat(s string, pos int) (float64, int, bool) {
	start := pos
	n := len(s)
	if pos < n && (s[pos] == '+' || s[pos] == '-') {
		pos++
	}
	sawDigit := false
	for pos < n && s[pos] >= '0' && s[pos] <= '9' {
		pos++
		sawDigit = true
	}
	if pos < n && s[pos] == '.' {
		pos++
		for pos < n && s[pos] >= '0' && s[pos] <= '9' {
			pos++
			sawDigit = true
		}
	}
	if pos < n && (s[pos] == 'e' || s[pos] == 'E') {
		epos := pos + 1
		if epos < n && (s[epos] == '+' || s[epos] == '-') {
			epos++
		}
		if epos < n && s[epos] >= '0' && s[epos] <= '9' {
			for epos < n && s[epos] >= '0' && s[epos] <= '9' {
				epos++
			}
			pos = epos
		}
	}
	if !sawDigit {
		return 0, start, false
	}
	v, err := strconv.ParseFloat(s[start:pos], 64)
	if err != nil {
		return 0, start, false
	}
	return v, pos, true
}
