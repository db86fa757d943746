package notify

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	term.Notify("Comment posted", Success, "")
	term.Notify("Failed to post reply", Error, "Comments")
	term.Notify("unknown kinds fall back", Kind("shout"), "")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Comment posted")
	assert.Contains(t, lines[1], "Comments")
	assert.Contains(t, lines[1], "Failed to post reply")
	assert.Contains(t, lines[2], "unknown kinds fall back")
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_, ok := r.Last()
	assert.False(t, ok)

	var n Notifier = &r
	n.Notify("a", Info, "")
	n.Notify("b", Warning, "t")

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, Notification{Message: "b", Kind: Warning, Title: "t"}, last)
	assert.Len(t, r.All(), 2)
}

func TestFunc(t *testing.T) {
	var got Kind
	Func(func(_ string, k Kind, _ string) { got = k }).Notify("x", Error, "")
	assert.Equal(t, Error, got)

	Discard.Notify("ignored", Info, "")
}

func TestPrompter(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\n  alice@example.com \nyes\nnope\n"), &out)

	email, err := p.Ask("Email")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)
	assert.Contains(t, out.String(), "Email: ")

	ok, err := p.Confirm("Delete")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Confirm("Delete")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = p.Ask("More")
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
