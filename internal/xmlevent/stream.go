// Package xmlevent turns an XML document into a flat stream of tagged events.
//
// Each event carries the element name, its attributes, the name of the
// enclosing element and the nesting depth, so a consumer can rebuild a
// hierarchy with a single reducer function instead of per-element callbacks.
// Element and attribute names are compared case-insensitively.
package xmlevent

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/cases"
)

// Kind tags an Event.
type Kind int

const (
	// Start is emitted when an element opens.
	Start Kind = iota
	// End is emitted when an element closes.
	End
	// Text is emitted for character data directly inside an element.
	Text
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "start"
	case End:
		return "end"
	case Text:
		return "text"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Event is one step of the document walk.
type Event struct {
	Kind Kind

	// Name is the local element name as written in the document.
	// Empty for Text events.
	Name string

	// Attrs holds the attributes of a Start event.
	Attrs Attrs

	// Parent is the local name of the enclosing element, "" at the root.
	// For Text events it is the element that contains the text.
	Parent string

	// Depth is 1 for the document root.
	Depth int

	// Data is the character data of a Text event.
	Data string

	// Line is the input line the event was read at.
	Line int
}

// IsRoot reports whether the event belongs to the document root element.
func (e Event) IsRoot() bool {
	return e.Depth == 1
}

// Is reports whether the event's element name equals name, ignoring case.
func (e Event) Is(name string) bool {
	return Fold(e.Name) == Fold(name)
}

// ParentIs reports whether the enclosing element is named name, ignoring case.
func (e Event) ParentIs(name string) bool {
	return e.Parent != "" && Fold(e.Parent) == Fold(name)
}

// Attrs is the attribute list of an element.
type Attrs []xml.Attr

// Lookup returns the value of the named attribute, ignoring case.
func (a Attrs) Lookup(name string) (string, bool) {
	key := Fold(name)
	for _, attr := range a {
		if Fold(attr.Name.Local) == key {
			return attr.Value, true
		}
	}
	return "", false
}

// Get returns the attribute value or "" when absent.
func (a Attrs) Get(name string) string {
	v, _ := a.Lookup(name)
	return v
}

// Fold returns the case-folded form of s used for name comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Handler consumes events. Returning an error stops the stream.
type Handler func(Event) error

// ErrStop may be returned by a Handler to end the stream early without error.
var ErrStop = errors.New("xmlevent: stop")

// Stream decodes r and calls fn for every element start, element end and
// non-empty run of character data, in document order.
//
// Errors returned by fn are passed through unchanged. Malformed XML is
// reported as a *SyntaxError.
func Stream(r io.Reader, fn Handler) error {
	dec := xml.NewDecoder(r)
	var stack []string

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			if len(stack) > 0 {
				line, _ := dec.InputPos()
				return &SyntaxError{Line: line, Msg: fmt.Sprintf("unexpected EOF inside <%s>", stack[len(stack)-1])}
			}
			return nil
		}
		if err != nil {
			line, _ := dec.InputPos()
			return &SyntaxError{Line: line, Msg: err.Error(), Err: err}
		}
		line, _ := dec.InputPos()

		var ev Event
		switch t := tok.(type) {
		case xml.StartElement:
			ev = Event{
				Kind:   Start,
				Name:   t.Name.Local,
				Attrs:  Attrs(t.Attr),
				Parent: top(stack),
				Depth:  len(stack) + 1,
				Line:   line,
			}
			stack = append(stack, t.Name.Local)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
			ev = Event{
				Kind:   End,
				Name:   t.Name.Local,
				Parent: top(stack),
				Depth:  len(stack) + 1,
				Line:   line,
			}
		case xml.CharData:
			if len(stack) == 0 || len(t) == 0 {
				continue
			}
			ev = Event{
				Kind:   Text,
				Parent: top(stack),
				Depth:  len(stack),
				Data:   string(t),
				Line:   line,
			}
		default:
			continue
		}

		if err := fn(ev); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

func top(stack []string) string {
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}

// SyntaxError reports malformed XML input.
type SyntaxError struct {
	Line int
	Msg  string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("xml syntax error at line %d: %s", e.Line, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
