package querymap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dbgw/internal/value"
	"github.com/roach88/dbgw/internal/xmlevent"
)

// LoadError reports a querymap file that could not be loaded.
type LoadError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, msg)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadFiles loads every path into a new catalog.
func LoadFiles(paths ...string) (*Catalog, error) {
	c := NewCatalog()
	for _, path := range paths {
		if err := c.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadFile reads a querymap file into the catalog. Files ending in .yaml or
// .yml are read as YAML; anything else as XML.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Path: path, Message: "failed to read querymap file", Err: err}
	}

	var queries []*Query
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		queries, err = ParseYAML(bytes.NewReader(data), path)
	default:
		queries, err = ParseXML(bytes.NewReader(data), path)
	}
	if err != nil {
		return err
	}

	for _, q := range queries {
		if err := c.Add(q); err != nil {
			return &LoadError{Path: path, Message: "invalid querymap", Err: err}
		}
	}
	return nil
}

// ParseXML reads an XML querymap:
//
//	<querymap namespace="shop">
//	  <select id="find_user">
//	    <param name="id" type="int" index="0"/>
//	    <result>
//	      <column name="id" type="int"/>
//	    </result>
//	    SELECT id FROM users WHERE id = #{id}
//	  </select>
//	</querymap>
func ParseXML(r io.Reader, source string) ([]*Query, error) {
	b := &xmlBuilder{source: source}
	if err := xmlevent.Stream(r, b.apply); err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			return nil, le
		}
		return nil, &LoadError{Path: source, Message: "malformed querymap XML", Err: err}
	}
	if b.namespace == "" {
		return nil, &LoadError{Path: source, Message: "document root must be a <querymap> element with a namespace"}
	}
	return b.queries, nil
}

type xmlBuilder struct {
	source    string
	namespace string
	queries   []*Query
	current   *Query
	sql       strings.Builder
}

func (b *xmlBuilder) apply(ev xmlevent.Event) error {
	switch ev.Kind {
	case xmlevent.Start:
		return b.start(ev)
	case xmlevent.End:
		return b.end(ev)
	case xmlevent.Text:
		if b.current != nil {
			if _, ok := ParseKind(ev.Parent); ok {
				b.sql.WriteString(ev.Data)
			}
		}
	}
	return nil
}

func (b *xmlBuilder) start(ev xmlevent.Event) error {
	switch {
	case ev.IsRoot():
		if !ev.Is("querymap") {
			return nil
		}
		ns, ok := ev.Attrs.Lookup("namespace")
		if !ok || strings.TrimSpace(ns) == "" {
			return b.errorf(ev, "<querymap> requires a namespace attribute")
		}
		b.namespace = ns
	case ev.ParentIs("querymap"):
		kind, ok := ParseKind(ev.Name)
		if !ok {
			return nil
		}
		id := strings.TrimSpace(ev.Attrs.Get("id"))
		if id == "" {
			return b.errorf(ev, "<%s> requires an id attribute", ev.Name)
		}
		b.current = &Query{Namespace: b.namespace, Name: id, Kind: kind, Source: b.source}
		b.sql.Reset()
	case b.current != nil && ev.Is("param"):
		if _, ok := ParseKind(ev.Parent); !ok {
			return nil
		}
		decl, err := paramDecl(ev.Attrs.Get("name"), ev.Attrs.Get("type"), ev.Attrs.Get("index"), ev.Attrs.Get("mode"), len(b.current.Params))
		if err != nil {
			return b.errorf(ev, "query %q: %v", b.current.Name, err)
		}
		b.current.Params = append(b.current.Params, decl)
	case b.current != nil && ev.Is("column") && ev.ParentIs("result"):
		col, err := columnDecl(ev.Attrs.Get("name"), ev.Attrs.Get("type"))
		if err != nil {
			return b.errorf(ev, "query %q: %v", b.current.Name, err)
		}
		b.current.Result = append(b.current.Result, col)
	}
	return nil
}

func (b *xmlBuilder) end(ev xmlevent.Event) error {
	if b.current == nil || !ev.ParentIs("querymap") {
		return nil
	}
	if _, ok := ParseKind(ev.Name); !ok {
		return nil
	}
	b.current.SQL = strings.TrimSpace(b.sql.String())
	if b.current.SQL == "" {
		return b.errorf(ev, "query %q has no SQL text", b.current.Name)
	}
	b.queries = append(b.queries, b.current)
	b.current = nil
	return nil
}

func (b *xmlBuilder) errorf(ev xmlevent.Event, format string, args ...any) error {
	return &LoadError{Path: b.source, Line: ev.Line, Message: fmt.Sprintf(format, args...)}
}

// yamlQueryMap is the YAML form of a querymap file.
type yamlQueryMap struct {
	Namespace string      `yaml:"namespace"`
	Queries   []yamlQuery `yaml:"queries"`
}

type yamlQuery struct {
	Name   string       `yaml:"name"`
	Kind   string       `yaml:"kind"`
	SQL    string       `yaml:"sql"`
	Params []yamlParam  `yaml:"params,omitempty"`
	Result []yamlColumn `yaml:"result,omitempty"`
}

type yamlParam struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Index *int   `yaml:"index,omitempty"`
	Mode  string `yaml:"mode,omitempty"`
}

type yamlColumn struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// ParseYAML reads a YAML querymap:
//
//	namespace: shop
//	queries:
//	  - name: find_user
//	    kind: select
//	    sql: SELECT id FROM users WHERE id = #{id}
//	    params:
//	      - { name: id, type: int }
//	    result:
//	      - { name: id, type: int }
//
// Unknown fields are rejected.
func ParseYAML(r io.Reader, source string) ([]*Query, error) {
	var doc yamlQueryMap
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, &LoadError{Path: source, Message: "failed to parse YAML", Err: err}
	}
	if strings.TrimSpace(doc.Namespace) == "" {
		return nil, &LoadError{Path: source, Message: "namespace is required"}
	}

	queries := make([]*Query, 0, len(doc.Queries))
	for i, yq := range doc.Queries {
		if strings.TrimSpace(yq.Name) == "" {
			return nil, &LoadError{Path: source, Message: fmt.Sprintf("queries[%d]: name is required", i)}
		}
		kind, ok := ParseKind(yq.Kind)
		if !ok {
			return nil, &LoadError{Path: source, Message: fmt.Sprintf("queries[%d]: unknown kind %q", i, yq.Kind)}
		}
		if strings.TrimSpace(yq.SQL) == "" {
			return nil, &LoadError{Path: source, Message: fmt.Sprintf("queries[%d]: sql is required", i)}
		}

		q := &Query{Namespace: doc.Namespace, Name: yq.Name, Kind: kind, SQL: strings.TrimSpace(yq.SQL), Source: source}
		for j, yp := range yq.Params {
			index := ""
			if yp.Index != nil {
				index = strconv.Itoa(*yp.Index)
			}
			decl, err := paramDecl(yp.Name, yp.Type, index, yp.Mode, j)
			if err != nil {
				return nil, &LoadError{Path: source, Message: fmt.Sprintf("queries[%d].params[%d]", i, j), Err: err}
			}
			q.Params = append(q.Params, decl)
		}
		for j, yc := range yq.Result {
			col, err := columnDecl(yc.Name, yc.Type)
			if err != nil {
				return nil, &LoadError{Path: source, Message: fmt.Sprintf("queries[%d].result[%d]", i, j), Err: err}
			}
			q.Result = append(q.Result, col)
		}
		queries = append(queries, q)
	}
	return queries, nil
}

func paramDecl(name, typeName, index, mode string, position int) (ParamDecl, error) {
	if strings.TrimSpace(name) == "" {
		return ParamDecl{}, fmt.Errorf("param name is required")
	}
	typ, err := value.ParseType(typeName)
	if err != nil {
		return ParamDecl{}, fmt.Errorf("param %q: %w", name, err)
	}

	decl := ParamDecl{Name: name, Type: typ, Index: position, Mode: "in"}
	if strings.TrimSpace(index) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(index))
		if err != nil || n < 0 {
			return ParamDecl{}, fmt.Errorf("param %q: invalid index %q", name, index)
		}
		decl.Index = n
	}
	if m := strings.ToLower(strings.TrimSpace(mode)); m != "" {
		switch m {
		case "in", "out", "inout":
			decl.Mode = m
		default:
			return ParamDecl{}, fmt.Errorf("param %q: invalid mode %q", name, mode)
		}
	}
	return decl, nil
}

func columnDecl(name, typeName string) (ColumnDecl, error) {
	if strings.TrimSpace(name) == "" {
		return ColumnDecl{}, fmt.Errorf("column name is required")
	}
	typ, err := value.ParseType(typeName)
	if err != nil {
		return ColumnDecl{}, fmt.Errorf("column %q: %w", name, err)
	}
	return ColumnDecl{Name: name, Type: typ}, nil
}
