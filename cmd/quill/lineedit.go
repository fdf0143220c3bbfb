package main

import (
	"bufio"
	"io"
	"os"
	"unicode"
)

var stdinReader = bufio.NewReader(os.Stdin)

// readPlainLine reads one line without terminal editing. It returns io.EOF
// once input is exhausted.
func readPlainLine() (string, error) {
	s, err := stdinReader.ReadString('\n')
	if err == io.EOF && s == "" {
		return "", io.EOF
	}
	if err != nil && err != io.EOF {
		return "", err
	}
	return trimTrailingNewline(s), nil
}

func trimTrailingNewline(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '\r' {
		s = s[:len(s)-1]
	}
	return s
}

// lineBuffer is the editable line with a rune cursor.
type lineBuffer struct {
	runes  []rune
	cursor int
}

func (b *lineBuffer) String() string { return string(b.runes) }

func (b *lineBuffer) set(s string) {
	b.runes = []rune(s)
	b.cursor = len(b.runes)
}

func (b *lineBuffer) insert(r rune) {
	b.runes = append(b.runes, 0)
	copy(b.runes[b.cursor+1:], b.runes[b.cursor:])
	b.runes[b.cursor] = r
	b.cursor++
}

func (b *lineBuffer) backspace() {
	if b.cursor == 0 {
		return
	}
	b.runes = append(b.runes[:b.cursor-1], b.runes[b.cursor:]...)
	b.cursor--
}

func (b *lineBuffer) deleteForward() {
	if b.cursor < len(b.runes) {
		b.runes = append(b.runes[:b.cursor], b.runes[b.cursor+1:]...)
	}
}

func (b *lineBuffer) left() {
	if b.cursor > 0 {
		b.cursor--
	}
}

func (b *lineBuffer) right() {
	if b.cursor < len(b.runes) {
		b.cursor++
	}
}

func (b *lineBuffer) home() { b.cursor = 0 }
func (b *lineBuffer) end()  { b.cursor = len(b.runes) }

func (b *lineBuffer) wordStart() int {
	i := b.cursor
	for i > 0 && unicode.IsSpace(b.runes[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(b.runes[i-1]) {
		i--
	}
	return i
}

func (b *lineBuffer) wordLeft() { b.cursor = b.wordStart() }

func (b *lineBuffer) wordRight() {
	for b.cursor < len(b.runes) && unicode.IsSpace(b.runes[b.cursor]) {
		b.cursor++
	}
	for b.cursor < len(b.runes) && !unicode.IsSpace(b.runes[b.cursor]) {
		b.cursor++
	}
}

func (b *lineBuffer) deleteWordBack() {
	start := b.wordStart()
	b.runes = append(b.runes[:start], b.runes[b.cursor:]...)
	b.cursor = start
}

// lineHistory holds submitted lines for up/down recall.
type lineHistory struct {
	entries  []string
	pos      int
	draft    string
	browsing bool
}

func (h *lineHistory) add(s string) {
	if s != "" && (len(h.entries) == 0 || h.entries[len(h.entries)-1] != s) {
		h.entries = append(h.entries, s)
	}
	h.browsing = false
}

// prev steps back from the current line, remembering it as the draft.
func (h *lineHistory) prev(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if !h.browsing {
		h.draft = current
		h.browsing = true
		h.pos = len(h.entries)
	}
	if h.pos == 0 {
		return "", false
	}
	h.pos--
	return h.entries[h.pos], true
}

func (h *lineHistory) next() (string, bool) {
	if !h.browsing {
		return "", false
	}
	if h.pos < len(h.entries)-1 {
		h.pos++
		return h.entries[h.pos], true
	}
	h.browsing = false
	return h.draft, true
}
