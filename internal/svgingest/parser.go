// Package svgingest parses the minimal SVG subset the plotter pipeline
// accepts — <svg width height>, <g>, and <path d=...> — into a
// drawpath.Document. It is a two-pass, allocation-light parser in the
// tradition of a streaming tokenizer: pass one flattens the document into
// tag-open/tag-close/chars events, pass two reconstructs nesting (capped at
// MaxTagDepth) and walks each path's d attribute token by token.
package svgingest

import (
	"os"
	"strconv"
	"strings"

	"github.com/kcutter/gocut/internal/drawpath"
)

// ParseFile reads path and parses it as an SVG document, enforcing
// MaxFileSize before any parsing begins.
func ParseFile(path string) (*drawpath.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxFileSize {
		return nil, errTooLarge(int(info.Size()))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse parses src as an SVG document and returns the canvas size and
// ordered draw sets it contains.
func Parse(src string) (*drawpath.Document, error) {
	if len(src) > MaxFileSize {
		return nil, errTooLarge(len(src))
	}
	events, err := tokenizeTags(src)
	if err != nil {
		return nil, err
	}

	doc := &drawpath.Document{}
	p := &parseState{doc: doc}
	if err := p.walk(events, 0); err != nil {
		return nil, err
	}
	return doc, nil
}

type parseState struct {
	doc *drawpath.Document
}

// walk consumes a flat event stream, reconstructing nesting structurally:
// every tagOpen without selfClose pushes a frame that is popped by the
// matching tagClose. depth is the current nesting level, capped at
// MaxTagDepth to guard against pathological input.
func (p *parseState) walk(events []tagEvent, depth int) error {
	if depth > MaxTagDepth {
		return errStackOverflow(depth)
	}

	i := 0
	for i < len(events) {
		ev := events[i]
		switch ev.kind {
		case tagChars:
			i++
		case tagClose:
			// A close with no matching open in this scope: splitContainer
			// never passes a container's own close into the recursion, so
			// this close is stray. Walking this scope stops here; the
			// events after it are not visited.
			return nil
		case tagOpen:
			if err := p.handleOpen(ev); err != nil {
				return err
			}
			if ev.selfClose {
				i++
				continue
			}
			// Find the matching close at this nesting level and recurse
			// into the span between, so nested opens of the same name
			// don't confuse the match.
			end, inner, err := splitContainer(events, i+1, ev.name)
			if err != nil {
				return err
			}
			if err := p.walk(inner, depth+1); err != nil {
				return err
			}
			i = end + 1
		}
	}
	return nil
}

// splitContainer finds the tagClose matching name starting the scan at
// start, honoring nested same-name opens, and returns its index plus the
// event slice strictly between start and that close.
func splitContainer(events []tagEvent, start int, name string) (int, []tagEvent, error) {
	depth := 1
	for i := start; i < len(events); i++ {
		switch events[i].kind {
		case tagOpen:
			if events[i].name == name && !events[i].selfClose {
				depth++
			}
		case tagClose:
			if events[i].name == name {
				depth--
				if depth == 0 {
					return i, events[start:i], nil
				}
			}
		}
	}
	return 0, nil, errUnclosedTag(name)
}

func (p *parseState) handleOpen(ev tagEvent) error {
	attrs := parseAttrs(ev.attrText)
	switch ev.name {
	case "svg":
		if w, ok := attrs["width"]; ok {
			p.doc.Width = atoiSafe(w)
		}
		if h, ok := attrs["height"]; ok {
			p.doc.Height = atoiSafe(h)
		}
	case "path":
		d, ok := attrs["d"]
		if !ok {
			return errMissingD()
		}
		set, err := parseDrawList(d)
		if err != nil {
			return err
		}
		if len(set) > 0 {
			if len(p.doc.DrawSets) >= drawpath.MaxDrawSets {
				return nil
			}
			p.doc.DrawSets = append(p.doc.DrawSets, set)
		}
	}
	return nil
}

func atoiSafe(s string) int {
	s = strings.TrimSpace(s)
	// Trim a trailing unit suffix such as "px" or "mm"; the canvas size is
	// always interpreted as device-neutral units.
	end := len(s)
	for end > 0 && !isDigitOrSign(s[end-1]) {
		end--
	}
	n, _ := strconv.Atoi(s[:end])
	return n
}

func isDigitOrSign(b byte) bool {
	return (b >= '0' && b <= '9') || b == '.'
}
