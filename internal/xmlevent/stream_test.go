package xmlevent

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, doc string) []Event {
	t.Helper()
	var events []Event
	err := Stream(strings.NewReader(doc), func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, err)
	return events
}

func TestStream_StartEndWithParents(t *testing.T) {
	doc := `<Scenario namespace="ns"><transaction><execute sql-name="q1"/></transaction></Scenario>`
	events := collect(t, doc)

	require.Len(t, events, 6)

	assert.Equal(t, Start, events[0].Kind)
	assert.True(t, events[0].Is("scenario"))
	assert.True(t, events[0].IsRoot())
	assert.Equal(t, "", events[0].Parent)
	assert.Equal(t, "ns", events[0].Attrs.Get("NAMESPACE"))

	assert.Equal(t, Start, events[1].Kind)
	assert.True(t, events[1].ParentIs("SCENARIO"))
	assert.Equal(t, 2, events[1].Depth)

	assert.Equal(t, Start, events[2].Kind)
	assert.True(t, events[2].Is("execute"))
	assert.True(t, events[2].ParentIs("transaction"))
	assert.Equal(t, 3, events[2].Depth)

	assert.Equal(t, End, events[3].Kind)
	assert.True(t, events[3].Is("execute"))
	assert.True(t, events[3].ParentIs("transaction"))

	assert.Equal(t, End, events[5].Kind)
	assert.True(t, events[5].IsRoot())
}

func TestStream_Text(t *testing.T) {
	events := collect(t, `<select id="a">SELECT 1</select>`)
	require.Len(t, events, 3)
	assert.Equal(t, Text, events[1].Kind)
	assert.Equal(t, "SELECT 1", events[1].Data)
	assert.Equal(t, "select", events[1].Parent)
}

func TestStream_SkipsProlog(t *testing.T) {
	events := collect(t, "<?xml version=\"1.0\"?>\n<!-- c -->\n<a/>\n")
	require.Len(t, events, 2)
	assert.True(t, events[0].IsRoot())
}

func TestStream_SyntaxError(t *testing.T) {
	err := Stream(strings.NewReader("<a>\n<b></a>"), func(Event) error { return nil })
	require.Error(t, err)

	var se *SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Line)
}

func TestStream_HandlerErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	err := Stream(strings.NewReader(`<a><b/></a>`), func(ev Event) error {
		if ev.Is("b") {
			return boom
		}
		return nil
	})
	assert.Same(t, boom, err)
}

func TestStream_Stop(t *testing.T) {
	count := 0
	err := Stream(strings.NewReader(`<a><b/><c/></a>`), func(ev Event) error {
		count++
		return ErrStop
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAttrs_Lookup(t *testing.T) {
	events := collect(t, `<param Name="id" TYPE="int"/>`)
	v, ok := events[0].Attrs.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "id", v)
	_, ok = events[0].Attrs.Lookup("value")
	assert.False(t, ok)
	assert.Equal(t, "int", events[0].Attrs.Get("type"))
}
