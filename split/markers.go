package split

import (
	"bytes"
	"errors"
)

// Markers is the literal start/end token pair that delimits one document.
type Markers struct {
	Start string
	End   string
}

// DefaultMarkers delimits one USPTO grant document.
var DefaultMarkers = Markers{
	Start: "<?xml version",
	End:   "</us-patent-grant>",
}

// Validate checks that both markers are set.
func (m Markers) Validate() error {
	if m.Start == "" {
		return errors.New("split: start marker is required")
	}
	if m.End == "" {
		return errors.New("split: end marker is required")
	}
	return nil
}

// scanner returns a bufio.SplitFunc that yields one fragment per token.
//
// The split is non-greedy: a fragment ends at the first end marker after its
// start marker. When another start marker shows up before that end marker,
// the earlier document is truncated and is dropped, so it can never absorb
// the document that follows it. Text outside fragments is discarded.
//
// Skipped text is consumed in the same call that returns the next token.
// bufio.Scanner stops at EOF as soon as a call advances without a token,
// so a skip-only advance would lose whatever is left in the buffer.
func (m Markers) scanner() func(data []byte, atEOF bool) (int, []byte, error) {
	start := []byte(m.Start)
	end := []byte(m.End)

	return func(data []byte, atEOF bool) (int, []byte, error) {
		begin := indexFold(data, start)
		if begin < 0 {
			if atEOF {
				return len(data), nil, nil
			}
			// Keep a tail that may hold the beginning of a start marker
			if keep := len(start) - 1; len(data) > keep {
				return len(data) - keep, nil, nil
			}
			return 0, nil, nil
		}

		for {
			body := data[begin+len(start):]
			j := indexFold(body, end)
			next := indexFold(body, start)
			if next >= 0 && (j < 0 || next < j) {
				// Truncated document; resume at the next one
				begin += len(start) + next
				continue
			}
			if j < 0 {
				if atEOF {
					return len(data), nil, nil
				}
				// Drop what precedes the document and wait for more data
				return begin, nil, nil
			}

			n := begin + len(start) + j + len(end)
			return n, data[begin:n], nil
		}
	}
}

// indexFold returns the index of the first ASCII case-insensitive
// occurrence of sep in s, or -1.
func indexFold(s, sep []byte) int {
	n := len(sep)
	if n == 0 {
		return 0
	}
	lo, up := toLower(sep[0]), toUpper(sep[0])
	for i := 0; i+n <= len(s); i++ {
		if c := s[i]; c != lo && c != up {
			continue
		}
		if bytes.EqualFold(s[i:i+n], sep) {
			return i
		}
	}
	return -1
}

func toLower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func toUpper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
