package scenario

import (
	"github.com/roach88/dbgw/internal/value"
)

// Tester is one declared query execution.
type Tester struct {
	// QueryName references a query registered in the catalog.
	QueryName string

	// Dummy testers run like any other but are left out of pass/fail
	// statistics and of the unexecuted-query warning.
	Dummy bool

	// Params are bound to the query on dispatch.
	Params *value.Parameters
}

// NewTester returns a tester with an empty parameter set.
func NewTester(queryName string, dummy bool) Tester {
	return Tester{QueryName: queryName, Dummy: dummy, Params: value.NewParameters()}
}

// AddParameter attaches a value to the tester. An empty name appends the
// value positionally; otherwise it is stored under name.
func (t *Tester) AddParameter(name string, v value.Value) {
	if t.Params == nil {
		t.Params = value.NewParameters()
	}
	if name == "" {
		t.Params.Put(v)
		return
	}
	t.Params.PutNamed(name, v)
}

// Transaction is a group of testers that share one transactional context
// and are rolled back together.
type Transaction struct {
	Testers []Tester
}

// Scenario is the root of a parsed scenario file.
type Scenario struct {
	// Namespace selects the query catalog the scenario runs against.
	Namespace string

	Transactions []Transaction

	// TestCount and PassCount are filled in by the executor.
	TestCount int
	PassCount int

	executed bool
}

// AddTransaction appends tx to the scenario.
func (s *Scenario) AddTransaction(tx Transaction) {
	s.Transactions = append(s.Transactions, tx)
}

// Testers returns the number of testers across all transactions.
func (s *Scenario) Testers() int {
	n := 0
	for _, tx := range s.Transactions {
		n += len(tx.Testers)
	}
	return n
}

// QueryNames returns every referenced query name once, in first-use order.
func (s *Scenario) QueryNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, tx := range s.Transactions {
		for _, t := range tx.Testers {
			if !seen[t.QueryName] {
				seen[t.QueryName] = true
				names = append(names, t.QueryName)
			}
		}
	}
	return names
}

// MarkExecuted records that the scenario has been run. It returns false if
// the scenario was already executed, in which case counters must not be
// touched again.
func (s *Scenario) MarkExecuted() bool {
	if s.executed {
		return false
	}
	s.executed = true
	return true
}
