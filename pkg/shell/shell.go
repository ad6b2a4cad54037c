package shell

import (
	"strings"

	"github.com/alessio/shellescape"
)

type wordKind int

const (
	// quoted with single quotes when it contains shell metacharacters
	kindArg wordKind = iota
	// inserted verbatim, the caller is responsible for quoting
	kindRaw
	// wrapped in double quotes so the inner text reaches one argv element
	// while `$` still expands on the far side (e.g. a remote shell)
	kindDouble
	// name="value"
	kindAssign
)

// Word is a single argument of a Command
type Word struct {
	text string
	kind wordKind
	name string
}

// Arg returns a word that is quoted when rendered to a shell line
func Arg(s string) Word {
	return Word{text: s, kind: kindArg}
}

// Args converts plain strings to quoted words
func Args(ss ...string) []Word {
	words := make([]Word, 0, len(ss))
	for _, s := range ss {
		words = append(words, Arg(s))
	}
	return words
}

// Raw returns a word that is rendered exactly as given
func Raw(s string) Word {
	return Word{text: s, kind: kindRaw}
}

// DoubleQuoted returns a word rendered inside double quotes.
func DoubleQuoted(s string) Word {
	return Word{text: s, kind: kindDouble}
}

// Assign returns a `name="value"` word, e.g. --rsync-path="/usr/bin/rsync"
func Assign(name, value string) Word {
	return Word{text: name + "=" + value, kind: kindAssign, name: name}
}

// Text returns the unquoted value of the word
func (w Word) Text() string {
	return w.text
}

// String renders the word for a shell line
func (w Word) String() string {
	switch w.kind {
	case kindRaw:
		return w.text
	case kindDouble:
		return DoubleQuote(w.text)
	case kindAssign:
		return w.name + "=" + DoubleQuote(w.text[len(w.name)+1:])
	default:
		return Quote(w.text)
	}
}

// Quote returns a shell-escaped version of s
func Quote(s string) string {
	return shellescape.Quote(s)
}

// DoubleQuote wraps s in double quotes, escaping the characters that keep
// their meaning inside them. `$` is escaped as well so command substitutions
// survive the local shell untouched.
func DoubleQuote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\', '$', '`':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// Command is one process invocation
type Command struct {
	Name string
	Args []Word
	// RedirectOut sends the command's stdout to a file when rendered to a
	// shell line
	RedirectOut string
}

// NewCommand creates a command whose arguments are all quoted words
func NewCommand(name string, args ...string) Command {
	return Command{Name: name, Args: Args(args...)}
}

// With returns a copy of the command with extra words appended
func (c Command) With(words ...Word) Command {
	args := make([]Word, 0, len(c.Args)+len(words))
	args = append(args, c.Args...)
	args = append(args, words...)
	c.Args = args
	return c
}

// Argv returns the argument vector for direct execution
func (c Command) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, c.Name)
	for _, w := range c.Args {
		argv = append(argv, w.text)
	}
	return argv
}

// String renders the command as a shell line
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+3)
	parts = append(parts, Quote(c.Name))
	for _, w := range c.Args {
		parts = append(parts, w.String())
	}
	if c.RedirectOut != "" {
		parts = append(parts, ">", Quote(c.RedirectOut))
	}
	return strings.Join(parts, " ")
}

// Pipeline connects the stdout of each command to the stdin of the next
type Pipeline []Command

// String renders the pipeline as a shell line
func (p Pipeline) String() string {
	parts := make([]string, 0, len(p))
	for _, c := range p {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " | ")
}

// Sequence renders statements separated by `;`
func Sequence(statements ...string) string {
	return strings.Join(statements, " ; ")
}
