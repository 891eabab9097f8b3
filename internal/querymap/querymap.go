// Package querymap holds the catalog of named queries a scenario can execute.
//
// Queries are grouped by namespace. Each query carries its SQL text with
// #{name} bind placeholders, the parameters it declares, and optionally the
// result columns it is expected to return. Catalog order follows the order
// in which queries were loaded; it is the order reported for queries no
// scenario exercised.
package querymap

import (
	"fmt"
	"strings"

	"github.com/roach88/dbgw/internal/value"
)

// Kind is the statement kind a query was declared with.
type Kind string

const (
	KindSelect    Kind = "select"
	KindInsert    Kind = "insert"
	KindUpdate    Kind = "update"
	KindDelete    Kind = "delete"
	KindProcedure Kind = "procedure"
)

// ParseKind maps a declaration keyword to a Kind, ignoring case.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSelect, KindInsert, KindUpdate, KindDelete, KindProcedure:
		return k, true
	}
	return "", false
}

// ParamDecl is a parameter a query declares.
type ParamDecl struct {
	Name string
	Type value.Type

	// Index is the positional slot used when a tester binds by position.
	Index int

	// Mode is "in", "out" or "inout". Only "in" parameters are bound.
	Mode string
}

// ColumnDecl is an expected result column.
type ColumnDecl struct {
	Name string
	Type value.Type
}

// Query is a named statement in the catalog.
type Query struct {
	Namespace string
	Name      string
	Kind      Kind
	SQL       string
	Params    []ParamDecl
	Result    []ColumnDecl

	// Source is the file the query was loaded from.
	Source string
}

// NeedsFetch reports whether executing the query produces rows to fetch
// rather than an affected-row count.
func (q *Query) NeedsFetch() bool {
	return q.Kind == KindSelect || (q.Kind == KindProcedure && len(q.Result) > 0)
}

// Param returns the declaration with the given name.
func (q *Query) Param(name string) (ParamDecl, bool) {
	for _, p := range q.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamDecl{}, false
}

// Catalog is the set of known queries, keyed by namespace and name.
type Catalog struct {
	order   map[string][]string
	queries map[string]map[string]*Query
	nsOrder []string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		order:   make(map[string][]string),
		queries: make(map[string]map[string]*Query),
	}
}

// Add registers q. A second query with the same namespace and name is rejected.
func (c *Catalog) Add(q *Query) error {
	if q.Name == "" {
		return fmt.Errorf("query name is required")
	}
	byName, ok := c.queries[q.Namespace]
	if !ok {
		byName = make(map[string]*Query)
		c.queries[q.Namespace] = byName
		c.nsOrder = append(c.nsOrder, q.Namespace)
	}
	if prev, dup := byName[q.Name]; dup {
		return fmt.Errorf("duplicate query %q in namespace %q (first defined in %s)", q.Name, q.Namespace, prev.Source)
	}
	byName[q.Name] = q
	c.order[q.Namespace] = append(c.order[q.Namespace], q.Name)
	return nil
}

// Lookup returns the query registered under namespace and name.
func (c *Catalog) Lookup(namespace, name string) (*Query, bool) {
	q, ok := c.queries[namespace][name]
	return q, ok
}

// Names returns the query names of a namespace in catalog order.
func (c *Catalog) Names(namespace string) []string {
	names := c.order[namespace]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Len returns the number of queries in a namespace.
func (c *Catalog) Len(namespace string) int {
	return len(c.order[namespace])
}

// Namespaces returns every namespace in load order.
func (c *Catalog) Namespaces() []string {
	out := make([]string, len(c.nsOrder))
	copy(out, c.nsOrder)
	return out
}
