package scenario

import (
	"errors"
	"io"
	"os"

	"github.com/roach88/dbgw/internal/xmlevent"
)

// Parse reads a scenario document from r.
// Every failure is returned as a *ConfigurationError.
func Parse(r io.Reader) (*Scenario, error) {
	p := NewParser()
	if err := xmlevent.Stream(r, p.Apply); err != nil {
		var ce *ConfigurationError
		if errors.As(err, &ce) {
			return nil, ce
		}
		var se *xmlevent.SyntaxError
		if errors.As(err, &se) {
			return nil, &ConfigurationError{Line: se.Line, Message: "malformed scenario XML", Err: err}
		}
		return nil, &ConfigurationError{Message: "failed to read scenario", Err: err}
	}
	return p.Finish()
}

// Load reads and parses the scenario file at path.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigurationError{Message: "failed to read scenario file", Err: err}
	}
	defer f.Close()
	return Parse(f)
}
