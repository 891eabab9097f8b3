package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dbgw/internal/value"
)

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	s, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return s
}

func queryNames(tx Transaction) []string {
	names := make([]string, len(tx.Testers))
	for i, tester := range tx.Testers {
		names[i] = tester.QueryName
	}
	return names
}

func TestParse_TopLevelExecutesAreOwnTransactions(t *testing.T) {
	s := mustParse(t, `
<scenario namespace="shop">
  <execute sql-name="q1"/>
  <execute sql-name="q2"/>
  <execute sql-name="q3"/>
</scenario>`)

	assert.Equal(t, "shop", s.Namespace)
	require.Len(t, s.Transactions, 3)
	for i, want := range []string{"q1", "q2", "q3"} {
		assert.Equal(t, []string{want}, queryNames(s.Transactions[i]))
	}
}

func TestParse_ExplicitTransactionGroups(t *testing.T) {
	s := mustParse(t, `
<scenario namespace="shop">
  <transaction>
    <execute sql-name="q1" dummy="true"/>
    <execute sql-name="q2"/>
    <execute sql-name="q3"/>
  </transaction>
  <execute sql-name="q4"/>
</scenario>`)

	require.Len(t, s.Transactions, 2)
	assert.Equal(t, []string{"q1", "q2", "q3"}, queryNames(s.Transactions[0]))
	assert.True(t, s.Transactions[0].Testers[0].Dummy)
	assert.False(t, s.Transactions[0].Testers[1].Dummy)
	assert.Equal(t, []string{"q4"}, queryNames(s.Transactions[1]))
}

func TestParse_TopLevelDummyJoinsNextExecute(t *testing.T) {
	s := mustParse(t, `
<scenario namespace="shop">
  <execute sql-name="setup" dummy="true"/>
  <execute sql-name="q1"/>
  <execute sql-name="q2"/>
</scenario>`)

	require.Len(t, s.Transactions, 2)
	assert.Equal(t, []string{"setup", "q1"}, queryNames(s.Transactions[0]))
	assert.Equal(t, []string{"q2"}, queryNames(s.Transactions[1]))
}

func TestParse_TopLevelDummyFlushedByTransaction(t *testing.T) {
	s := mustParse(t, `
<scenario namespace="shop">
  <execute sql-name="setup" dummy="true"/>
  <transaction>
    <execute sql-name="q1"/>
  </transaction>
</scenario>`)

	require.Len(t, s.Transactions, 2)
	assert.Equal(t, []string{"setup"}, queryNames(s.Transactions[0]))
	assert.Equal(t, []string{"q1"}, queryNames(s.Transactions[1]))
}

func TestParse_TrailingDummyIsFlushedAtEnd(t *testing.T) {
	s := mustParse(t, `
<scenario namespace="shop">
  <execute sql-name="q1"/>
  <execute sql-name="cleanup" dummy="true"/>
</scenario>`)

	require.Len(t, s.Transactions, 2)
	assert.Equal(t, []string{"cleanup"}, queryNames(s.Transactions[1]))
}

func TestParse_Parameters(t *testing.T) {
	s := mustParse(t, `
<scenario namespace="shop">
  <execute sql-name="q1">
    <param name="id" type="int" value="7"/>
    <param name="total" type="LONG" value="123456789012"/>
    <param name="nick" type="string" is-null="true"/>
    <param name="id" type="int" value="8"/>
  </execute>
  <execute sql-name="q2">
    <param type="string" value="a"/>
    <param type="double" value="1.5"/>
  </execute>
</scenario>`)

	require.Len(t, s.Transactions, 2)

	p := s.Transactions[0].Testers[0].Params
	require.Equal(t, 3, p.Len())
	id, ok := p.Get("id")
	require.True(t, ok)
	assert.Equal(t, int64(8), id.Driver())
	total, ok := p.Get("total")
	require.True(t, ok)
	assert.Equal(t, value.TypeLong, total.Type())
	nick, ok := p.Get("nick")
	require.True(t, ok)
	assert.True(t, nick.IsNull())

	p = s.Transactions[1].Testers[0].Params
	require.Equal(t, 2, p.Len())
	first, _ := p.At(0)
	assert.Equal(t, "a", first.Driver())
	second, _ := p.At(1)
	assert.Equal(t, 1.5, second.Driver())
}

func TestParse_ParametersStayWithTheirTester(t *testing.T) {
	s := mustParse(t, `
<scenario namespace="shop">
  <transaction>
    <execute sql-name="a"><param name="id" type="int" value="1"/></execute>
    <execute sql-name="b"><param type="int" value="2"/></execute>
    <execute sql-name="c"/>
    <execute sql-name="d"><param name="id" type="int" value="4"/><param type="string" value="x"/></execute>
  </transaction>
</scenario>`)

	require.Len(t, s.Transactions, 1)
	testers := s.Transactions[0].Testers
	require.Len(t, testers, 4)

	a, ok := testers[0].Params.Get("id")
	require.True(t, ok)
	assert.Equal(t, int64(1), a.Driver())
	assert.Equal(t, 1, testers[0].Params.Len())

	b, ok := testers[1].Params.At(0)
	require.True(t, ok)
	assert.Equal(t, int64(2), b.Driver())
	assert.Equal(t, 1, testers[1].Params.Len())

	assert.Equal(t, 0, testers[2].Params.Len())

	assert.Equal(t, 2, testers[3].Params.Len())
	d, ok := testers[3].Params.Get("id")
	require.True(t, ok)
	assert.Equal(t, int64(4), d.Driver())
}

func TestParse_CaseInsensitiveNames(t *testing.T) {
	s := mustParse(t, `
<SCENARIO NameSpace="shop">
  <Transaction>
    <EXECUTE SQL-NAME="q1" Dummy="TRUE">
      <Param NAME="id" TYPE="Int" VALUE="1"/>
    </EXECUTE>
  </Transaction>
</SCENARIO>`)

	require.Len(t, s.Transactions, 1)
	tester := s.Transactions[0].Testers[0]
	assert.Equal(t, "q1", tester.QueryName)
	assert.True(t, tester.Dummy)
	_, ok := tester.Params.Get("id")
	assert.True(t, ok)
}

func TestParse_IgnoresUnexpectedNesting(t *testing.T) {
	s := mustParse(t, `
<scenario namespace="shop">
  <group>
    <execute sql-name="ignored"/>
    <param type="int" value="oops"/>
  </group>
  <transaction>
    <transaction/>
    <execute sql-name="q1">
      <extra><param type="int" value="not-a-number"/></extra>
    </execute>
  </transaction>
  <param type="int" value="1"/>
  <scenario namespace="nested-is-ignored"/>
</scenario>`)

	assert.Equal(t, "shop", s.Namespace)
	var all []string
	for _, tx := range s.Transactions {
		all = append(all, queryNames(tx)...)
	}
	assert.Equal(t, []string{"q1"}, all)
	assert.Equal(t, 0, s.Transactions[len(s.Transactions)-1].Testers[0].Params.Len())
}

func TestParse_ParamAfterExecuteClosedIsIgnored(t *testing.T) {
	// The param is nested in execute, but its tester was already closed
	// by an inner execute end tag.
	s := mustParse(t, `
<scenario namespace="shop">
  <transaction>
    <execute sql-name="q1">
      <execute sql-name="inner"/>
      <param type="int" value="1"/>
    </execute>
  </transaction>
</scenario>`)

	require.Len(t, s.Transactions, 1)
	assert.Equal(t, []string{"q1"}, queryNames(s.Transactions[0]))
	assert.Equal(t, 0, s.Transactions[0].Testers[0].Params.Len())
}

func TestParse_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		element   string
		attribute string
	}{
		{
			name:      "missing namespace",
			doc:       `<scenario><execute sql-name="q1"/></scenario>`,
			element:   ElemScenario,
			attribute: AttrNamespace,
		},
		{
			name:      "empty namespace",
			doc:       `<scenario namespace=" "/>`,
			element:   ElemScenario,
			attribute: AttrNamespace,
		},
		{
			name:      "missing sql-name",
			doc:       `<scenario namespace="ns"><execute/></scenario>`,
			element:   ElemExecute,
			attribute: AttrSQLName,
		},
		{
			name:      "missing param type",
			doc:       `<scenario namespace="ns"><execute sql-name="q"><param value="1"/></execute></scenario>`,
			element:   ElemParam,
			attribute: AttrType,
		},
		{
			name:      "unknown param type",
			doc:       `<scenario namespace="ns"><execute sql-name="q"><param type="blob" value="1"/></execute></scenario>`,
			element:   ElemParam,
			attribute: AttrType,
		},
		{
			name:      "unparsable int",
			doc:       `<scenario namespace="ns"><execute sql-name="q"><param type="int" value="x1"/></execute></scenario>`,
			element:   ElemParam,
			attribute: AttrValue,
		},
		{
			name:      "unparsable long",
			doc:       `<scenario namespace="ns"><execute sql-name="q"><param type="long" value="1e3"/></execute></scenario>`,
			element:   ElemParam,
			attribute: AttrValue,
		},
		{
			name:      "invalid dummy flag",
			doc:       `<scenario namespace="ns"><execute sql-name="q" dummy="maybe"/></scenario>`,
			element:   ElemExecute,
			attribute: AttrDummy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)

			var ce *ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.element, ce.Element)
			assert.Equal(t, tt.attribute, ce.Attribute)
			assert.True(t, IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.element)
		})
	}
}

func TestParse_WrongRoot(t *testing.T) {
	_, err := Parse(strings.NewReader(`<scenarios><scenario namespace="x"/></scenarios>`))
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "document root")
}

func TestParse_MalformedXML(t *testing.T) {
	_, err := Parse(strings.NewReader("<scenario namespace=\"x\">\n<execute sql-name=\"q\">\n</scenario>"))
	require.Error(t, err)

	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 3, ce.Line)
	assert.Contains(t, err.Error(), "malformed scenario XML")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<scenario namespace="shop"><execute sql-name="q1"/></scenario>`), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Testers())
	assert.Equal(t, []string{"q1"}, s.QueryNames())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/scenario.xml")
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestScenario_MarkExecuted(t *testing.T) {
	s := &Scenario{Namespace: "ns"}
	assert.True(t, s.MarkExecuted())
	assert.False(t, s.MarkExecuted())
}
