//go:build linux

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

var interactiveHistory lineHistory

func readInteractiveLine(prompt string) (string, error) {
	if !stdinIsTTY() {
		return readPlainLine()
	}

	fd := int(os.Stdin.Fd())
	oldState, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return readPlainLine()
	}
	raw := *oldState
	raw.Lflag &^= unix.ICANON | unix.ECHO | unix.ISIG
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return "", err
	}
	defer func() { _ = unix.IoctlSetTermios(fd, unix.TCSETS, oldState) }()

	var line lineBuffer
	redraw := func() {
		fmt.Printf("\r%s%s\x1b[K", prompt, line.String())
		if back := len(line.runes) - line.cursor; back > 0 {
			fmt.Printf("\x1b[%dD", back)
		}
	}
	recall := func(s string, ok bool) {
		if ok {
			line.set(s)
			redraw()
		}
	}

	fmt.Print(prompt)
	for {
		r, _, err := stdinReader.ReadRune()
		if err != nil {
			return "", err
		}
		switch r {
		case '\r', '\n':
			fmt.Print("\r\n")
			out := line.String()
			interactiveHistory.add(strings.TrimSpace(out))
			return out, nil
		case 3: // Ctrl+C
			fmt.Print("^C\r\n")
			return "", io.EOF
		case 4: // Ctrl+D
			if len(line.runes) == 0 {
				fmt.Print("\r\n")
				return "", io.EOF
			}
			line.deleteForward()
		case 127, 8:
			line.backspace()
		case 1: // Ctrl+A
			line.home()
		case 5: // Ctrl+E
			line.end()
		case 23: // Ctrl+W
			line.deleteWordBack()
		case 27:
			seq, err := readEscape()
			if err != nil {
				return "", err
			}
			switch seq {
			case "[A":
				recall(interactiveHistory.prev(line.String()))
			case "[B":
				recall(interactiveHistory.next())
			case "[D":
				line.left()
			case "[C":
				line.right()
			case "[H", "[1~":
				line.home()
			case "[F", "[4~":
				line.end()
			case "[3~":
				line.deleteForward()
			case "[1;5D", "b":
				line.wordLeft()
			case "[1;5C", "f":
				line.wordRight()
			case "\x7f":
				line.deleteWordBack()
			}
		default:
			if r >= 32 {
				line.insert(r)
			}
		}
		redraw()
	}
}

// readEscape reads the rest of an escape sequence after ESC. CSI sequences
// are returned with their leading '['.
func readEscape() (string, error) {
	r, _, err := stdinReader.ReadRune()
	if err != nil || r != '[' {
		return string(r), err
	}
	var b strings.Builder
	b.WriteRune(r)
	for {
		r, _, err := stdinReader.ReadRune()
		if err != nil {
			return "", err
		}
		b.WriteRune(r)
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '~' {
			return b.String(), nil
		}
	}
}
