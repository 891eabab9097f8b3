package scenario

import (
	"strconv"
	"strings"

	"github.com/roach88/dbgw/internal/value"
	"github.com/roach88/dbgw/internal/xmlevent"
)

// Element and attribute names of the scenario format.
const (
	ElemScenario    = "scenario"
	ElemTransaction = "transaction"
	ElemExecute     = "execute"
	ElemParam       = "param"

	AttrNamespace = "namespace"
	AttrSQLName   = "sql-name"
	AttrDummy     = "dummy"
	AttrName      = "name"
	AttrType      = "type"
	AttrValue     = "value"
	AttrIsNull    = "is-null"
)

// Parser builds a Scenario from a stream of XML events.
//
// It holds two pieces of transient state: the transaction under
// construction and the tester under construction.
// Elements whose parent does not match the expected context are ignored.
type Parser struct {
	scenario *Scenario
	pending  *Transaction
	current  *Tester
}

// NewParser returns a parser with an empty scenario.
func NewParser() *Parser {
	return &Parser{scenario: &Scenario{}}
}

// Apply folds one event into the scenario under construction.
func (p *Parser) Apply(ev xmlevent.Event) error {
	switch ev.Kind {
	case xmlevent.Start:
		return p.start(ev)
	case xmlevent.End:
		p.end(ev)
	}
	return nil
}

// Finish flushes a still-pending transaction and returns the scenario.
func (p *Parser) Finish() (*Scenario, error) {
	p.flush()
	p.current = nil
	if p.scenario.Namespace == "" {
		return nil, &ConfigurationError{
			Element: ElemScenario,
			Message: "document root must be a <scenario> element with a namespace",
		}
	}
	return p.scenario, nil
}

func (p *Parser) start(ev xmlevent.Event) error {
	switch {
	case ev.Is(ElemScenario):
		return p.startScenario(ev)
	case ev.Is(ElemTransaction):
		p.startTransaction(ev)
	case ev.Is(ElemExecute):
		return p.startExecute(ev)
	case ev.Is(ElemParam):
		return p.startParam(ev)
	}
	return nil
}

func (p *Parser) end(ev xmlevent.Event) {
	switch {
	case ev.Is(ElemExecute):
		p.current = nil
	case ev.Is(ElemTransaction):
		p.flush()
	}
}

func (p *Parser) startScenario(ev xmlevent.Event) error {
	if !ev.IsRoot() {
		return nil
	}
	ns, err := required(ev, ElemScenario, AttrNamespace)
	if err != nil {
		return err
	}
	p.scenario.Namespace = ns
	return nil
}

func (p *Parser) startTransaction(ev xmlevent.Event) {
	if !ev.ParentIs(ElemScenario) {
		return
	}
	p.flush()
	p.pending = &Transaction{}
}

func (p *Parser) startExecute(ev xmlevent.Event) error {
	topLevel := ev.ParentIs(ElemScenario)
	if !topLevel && !ev.ParentIs(ElemTransaction) {
		return nil
	}

	dummy, err := optionalBool(ev, ElemExecute, AttrDummy)
	if err != nil {
		return err
	}
	name, err := required(ev, ElemExecute, AttrSQLName)
	if err != nil {
		return err
	}

	if p.pending == nil {
		p.pending = &Transaction{}
	}
	p.pending.Testers = append(p.pending.Testers, NewTester(name, dummy))
	p.current = &p.pending.Testers[len(p.pending.Testers)-1]

	// A top-level non-dummy execute is a transaction of its own.
	if topLevel && !dummy {
		p.flush()
	}
	return nil
}

func (p *Parser) startParam(ev xmlevent.Event) error {
	if !ev.ParentIs(ElemExecute) || p.current == nil {
		return nil
	}

	typeName, err := required(ev, ElemParam, AttrType)
	if err != nil {
		return err
	}
	typ, err := value.ParseType(typeName)
	if err != nil {
		return &ConfigurationError{Element: ElemParam, Attribute: AttrType, Line: ev.Line, Message: "invalid parameter type", Err: err}
	}
	isNull, err := optionalBool(ev, ElemParam, AttrIsNull)
	if err != nil {
		return err
	}

	v, err := value.New(typ, ev.Attrs.Get(AttrValue), isNull)
	if err != nil {
		return &ConfigurationError{Element: ElemParam, Attribute: AttrValue, Line: ev.Line, Message: "invalid parameter value", Err: err}
	}

	p.current.AddParameter(ev.Attrs.Get(AttrName), v)
	return nil
}

// flush moves the pending transaction into the scenario. No-op when nothing is pending.
func (p *Parser) flush() {
	if p.pending == nil {
		return
	}
	p.scenario.AddTransaction(*p.pending)
	p.pending = nil
}

func required(ev xmlevent.Event, element, attr string) (string, error) {
	v, ok := ev.Attrs.Lookup(attr)
	if !ok || strings.TrimSpace(v) == "" {
		return "", missingAttribute(element, attr, ev.Line)
	}
	return v, nil
}

func optionalBool(ev xmlevent.Event, element, attr string) (bool, error) {
	v, ok := ev.Attrs.Lookup(attr)
	if !ok || strings.TrimSpace(v) == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
	if err != nil {
		return false, &ConfigurationError{Element: element, Attribute: attr, Line: ev.Line, Message: "invalid boolean", Err: err}
	}
	return b, nil
}
