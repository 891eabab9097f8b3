package client

import (
	"fmt"
	"sort"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/dbgw/internal/querymap"
)

// Driver describes a database/sql driver the client can dispatch through.
type Driver struct {
	// Name is the database/sql driver name passed to sql.Open.
	Name string

	// Placeholder is the bind-variable syntax the driver expects.
	Placeholder querymap.Placeholder
}

var registry = map[string]Driver{
	"sqlite3": {Name: "sqlite3", Placeholder: querymap.Question},
	"mysql":   {Name: "mysql", Placeholder: querymap.Question},
	"pgx":     {Name: "pgx", Placeholder: querymap.Dollar},
}

// Lookup returns the registered driver with the given name.
func Lookup(name string) (Driver, bool) {
	d, ok := registry[name]
	return d, ok
}

// Drivers returns all registered driver names (sorted).
func Drivers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownDriverError is returned when a service names an unregistered driver.
type UnknownDriverError struct {
	Name      string
	Available []string
}

func (e *UnknownDriverError) Error() string {
	return fmt.Sprintf("unknown driver %q (available: %v)", e.Name, e.Available)
}
