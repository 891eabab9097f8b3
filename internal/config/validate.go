package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// ValidationError lists every way a configuration violates the schema.
type ValidationError struct {
	Source   string
	Problems []string
}

func (e *ValidationError) Error() string {
	prefix := "invalid connector configuration"
	if e.Source != "" {
		prefix = fmt.Sprintf("%s: %s", e.Source, prefix)
	}
	return fmt.Sprintf("%s: %s", prefix, strings.Join(e.Problems, "; "))
}

// Validate checks cfg against the embedded schema.
func Validate(cfg *Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}

	doc := *cfg
	if doc.Services == nil {
		doc.Services = map[string]Service{}
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(doc))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		var problems []string
		for _, e := range cueerrors.Errors(err) {
			problems = append(problems, e.Error())
		}
		sort.Strings(problems)
		return &ValidationError{Source: cfg.Source, Problems: problems}
	}
	return nil
}
