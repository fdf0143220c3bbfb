package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineBufferEditing(t *testing.T) {
	var b lineBuffer
	for _, r := range "héllo wörld" {
		b.insert(r)
	}
	assert.Equal(t, "héllo wörld", b.String())

	b.wordLeft()
	assert.Equal(t, 6, b.cursor)
	b.backspace()
	assert.Equal(t, "héllowörld", b.String())
	b.insert('_')
	assert.Equal(t, "héllo_wörld", b.String())

	b.home()
	b.deleteForward()
	b.right()
	b.insert('E')
	assert.Equal(t, "éEllo_wörld", b.String())

	b.end()
	b.deleteWordBack()
	assert.Equal(t, "", b.String())
	assert.Equal(t, 0, b.cursor)
}

func TestLineBufferWordMotion(t *testing.T) {
	var b lineBuffer
	b.set("the  cat sat")
	b.wordLeft()
	assert.Equal(t, 9, b.cursor)
	b.wordLeft()
	assert.Equal(t, 5, b.cursor)
	b.wordRight()
	assert.Equal(t, 8, b.cursor)
	b.deleteWordBack()
	assert.Equal(t, "the   sat", b.String())

	b.home()
	b.left()
	b.backspace()
	assert.Equal(t, 0, b.cursor)
	b.end()
	b.right()
	assert.Equal(t, len([]rune(b.String())), b.cursor)
}

func TestLineHistory(t *testing.T) {
	var h lineHistory
	_, ok := h.prev("draft")
	assert.False(t, ok)

	h.add("one")
	h.add("two")
	h.add("two")
	h.add("")
	assert.Equal(t, []string{"one", "two"}, h.entries)

	s, ok := h.prev("draft")
	assert.True(t, ok)
	assert.Equal(t, "two", s)
	s, _ = h.prev("ignored")
	assert.Equal(t, "one", s)
	_, ok = h.prev("ignored")
	assert.False(t, ok)

	s, _ = h.next()
	assert.Equal(t, "two", s)
	s, ok = h.next()
	assert.True(t, ok)
	assert.Equal(t, "draft", s)
	_, ok = h.next()
	assert.False(t, ok)
}

func TestTrimTrailingNewline(t *testing.T) {
	assert.Equal(t, "abc", trimTrailingNewline("abc\r\n"))
	assert.Equal(t, "abc", trimTrailingNewline("abc\n"))
	assert.Equal(t, "abc", trimTrailingNewline("abc"))
}
