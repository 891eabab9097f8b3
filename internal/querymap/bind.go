package querymap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/dbgw/internal/value"
)

// Placeholder is the bind-variable syntax of a database driver.
type Placeholder int

const (
	// Question renders every bind variable as "?" (sqlite3, mysql).
	Question Placeholder = iota
	// Dollar renders bind variables as "$1", "$2", ... (postgres).
	Dollar
)

// Bound is a query ready to hand to database/sql.
type Bound struct {
	SQL  string
	Args []any
}

// Bind replaces the #{name} placeholders of q with driver placeholders and
// collects the arguments from params.
//
// For each placeholder the value is taken from the parameter of that name;
// failing that, from the position the query declares for it; failing that,
// from the placeholder's own ordinal. Placeholders inside quoted literals
// and comments are left alone. A placeholder with no value is an error.
func Bind(q *Query, params *value.Parameters, style Placeholder) (Bound, error) {
	var (
		out  strings.Builder
		args []any
		sql  = q.SQL
	)

	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := skipQuoted(sql, i)
			out.WriteString(sql[i:end])
			i = end - 1
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				end = len(sql) - i
			}
			out.WriteString(sql[i : i+end])
			i += end - 1
		case c == '#' && i+1 < len(sql) && sql[i+1] == '{':
			closing := strings.IndexByte(sql[i:], '}')
			if closing < 0 {
				return Bound{}, fmt.Errorf("query %q: unterminated placeholder at offset %d", q.Name, i)
			}
			name := strings.TrimSpace(sql[i+2 : i+closing])
			if name == "" {
				return Bound{}, fmt.Errorf("query %q: empty placeholder at offset %d", q.Name, i)
			}

			v, err := resolve(q, params, name, len(args))
			if err != nil {
				return Bound{}, err
			}
			args = append(args, v.Driver())
			switch style {
			case Dollar:
				out.WriteString("$" + strconv.Itoa(len(args)))
			default:
				out.WriteByte('?')
			}
			i += closing
		default:
			out.WriteByte(c)
		}
	}

	return Bound{SQL: out.String(), Args: args}, nil
}

func resolve(q *Query, params *value.Parameters, name string, ordinal int) (value.Value, error) {
	if v, ok := params.Get(name); ok {
		return v, nil
	}
	if decl, ok := q.Param(name); ok {
		if v, ok := params.At(decl.Index); ok && params.NameAt(decl.Index) == "" {
			return v, nil
		}
	} else if v, ok := params.At(ordinal); ok && params.NameAt(ordinal) == "" {
		return v, nil
	}
	return value.Value{}, fmt.Errorf("query %q: no value bound for parameter %q", q.Name, name)
}

// skipQuoted returns the index just past the literal starting at sql[start].
// A doubled quote character inside the literal is an escape.
func skipQuoted(sql string, start int) int {
	quote := sql[start]
	for i := start + 1; i < len(sql); i++ {
		if sql[i] != quote {
			continue
		}
		if i+1 < len(sql) && sql[i+1] == quote {
			i++
			continue
		}
		return i + 1
	}
	return len(sql)
}
