package svgingest

import "strings"

// tagEvent is one event from the first tokenizing pass over the document:
// either a tag open (with raw attribute text, unparsed), a tag close, or a
// run of character data between tags.
type tagEvent struct {
	kind     tagEventKind
	name     string
	attrText string
	text     string
	selfClose bool
}

type tagEventKind int

const (
	tagOpen tagEventKind = iota
	tagClose
	tagChars
)

// tokenizeTags walks src and emits the flat, unnested sequence of
// tagEvents within it. Nesting is reconstructed by the caller (parseState.walk)
// so that depth can be capped independently of the tokenizer itself.
func tokenizeTags(src string) ([]tagEvent, error) {
	var events []tagEvent
	i := 0
	n := len(src)
	for i < n {
		lt := strings.IndexByte(src[i:], '<')
		if lt < 0 {
			if rest := strings.TrimSpace(src[i:]); rest != "" {
				events = append(events, tagEvent{kind: tagChars, text: rest})
			}
			break
		}
		if lt > 0 {
			if text := strings.TrimSpace(src[i : i+lt]); text != "" {
				events = append(events, tagEvent{kind: tagChars, text: text})
			}
		}
		i += lt

		// Skip XML/comment declarations: <?xml ...?>, <!-- ... -->, <!DOCTYPE ...>
		if strings.HasPrefix(src[i:], "<!--") {
			end := strings.Index(src[i:], "-->")
			if end < 0 {
				return nil, errUnclosedTag("comment")
			}
			i += end + len("-->")
			continue
		}
		if strings.HasPrefix(src[i:], "<?") {
			end := strings.Index(src[i:], "?>")
			if end < 0 {
				return nil, errUnclosedTag("?xml")
			}
			i += end + len("?>")
			continue
		}
		if strings.HasPrefix(src[i:], "<!") {
			end := strings.IndexByte(src[i:], '>')
			if end < 0 {
				return nil, errUnclosedTag("!DOCTYPE")
			}
			i += end + 1
			continue
		}

		gt := strings.IndexByte(src[i:], '>')
		if gt < 0 {
			return nil, errUnclosedTag(sampleAt(src, i))
		}
		raw := src[i+1 : i+gt]
		i += gt + 1

		if strings.HasPrefix(raw, "/") {
			events = append(events, tagEvent{kind: tagClose, name: strings.TrimSpace(raw[1:])})
			continue
		}

		self := strings.HasSuffix(raw, "/")
		if self {
			raw = raw[:len(raw)-1]
		}
		name, attrs := splitTagHead(raw)
		events = append(events, tagEvent{kind: tagOpen, name: name, attrText: attrs, selfClose: self})
	}
	return events, nil
}

func splitTagHead(raw string) (name, attrs string) {
	raw = strings.TrimSpace(raw)
	idx := strings.IndexAny(raw, " \t\r\n")
	if idx < 0 {
		return raw, ""
	}
	return raw[:idx], strings.TrimSpace(raw[idx:])
}

func sampleAt(s string, i int) string {
	end := i + 16
	if end > len(s) {
		end = len(s)
	}
	return s[i:end]
}

// parseAttrs splits a raw attribute string into name->value pairs. Values
// may be double-quoted or bare; bare values end at the next whitespace run.
func parseAttrs(s string) map[string]string {
	out := map[string]string{}
	i := 0
	n := len(s)
	for i < n {
		for i < n && isSpace(s[i]) {
			i++
		}
		if i >= n {
			break
		}
		start := i
		for i < n && s[i] != '=' && !isSpace(s[i]) {
			i++
		}
		name := s[start:i]
		for i < n && isSpace(s[i]) {
			i++
		}
		if i >= n || s[i] != '=' {
			if name != "" {
				out[name] = ""
			}
			continue
		}
		i++ // consume '='
		for i < n && isSpace(s[i]) {
			i++
		}
		var value string
		if i < n && s[i] == '"' {
			i++
			start = i
			for i < n && s[i] != '"' {
				i++
			}
			value = s[start:i]
			if i < n {
				i++ // consume closing quote
			}
		} else {
			start = i
			for i < n && !isSpace(s[i]) {
				i++
			}
			value = s[start:i]
		}
		if name != "" {
			out[name] = value
		}
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
