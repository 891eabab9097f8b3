package cli

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

const shopQuerymap = `<?xml version="1.0" encoding="UTF-8"?>
<querymap namespace="shop">
  <insert id="add_user">
    <param name="id" type="int"/>
    <param name="name" type="string"/>
    INSERT INTO users (id, name) VALUES (#{id}, #{name})
  </insert>
  <select id="count_users">SELECT COUNT(*) AS n FROM users</select>
  <select id="find_user">
    <param name="id" type="int"/>
    <result>
      <column name="id" type="int"/>
      <column name="name" type="string"/>
    </result>
    SELECT id, name FROM users WHERE id = #{id}
  </select>
  <delete id="clear_users">DELETE FROM users</delete>
</querymap>
`

// shopScenario inserts a user, then checks in a later transaction that the
// insert was rolled back.
const shopScenario = `<?xml version="1.0" encoding="UTF-8"?>
<scenario namespace="shop">
  <transaction>
    <execute sql-name="add_user">
      <param name="id" type="int" value="3"/>
      <param name="name" type="string" value="cy"/>
    </execute>
    <execute sql-name="count_users"/>
  </transaction>
  <execute sql-name="find_user">
    <param name="id" type="int" value="3"/>
  </execute>
</scenario>
`

// duplicateScenario inserts a user that already exists.
const duplicateScenario = `<?xml version="1.0" encoding="UTF-8"?>
<scenario namespace="shop">
  <execute sql-name="add_user">
    <param name="id" type="int" value="1"/>
    <param name="name" type="string" value="again"/>
  </execute>
  <execute sql-name="count_users"/>
</scenario>
`

// shopFixture is a datasource, connector file, querymap and scenario on disk.
type shopFixture struct {
	Dir       string
	DB        string
	Connector string
	Querymap  string
	Scenario  string
}

func newShopFixture(t *testing.T) shopFixture {
	t.Helper()
	dir := t.TempDir()
	f := shopFixture{
		Dir:       dir,
		DB:        filepath.Join(dir, "shop.db"),
		Connector: filepath.Join(dir, "connector.yaml"),
		Querymap:  filepath.Join(dir, "shop.xml"),
		Scenario:  filepath.Join(dir, "scenario.xml"),
	}

	db, err := sql.Open("sqlite3", f.DB)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL);
		INSERT INTO users (id, name) VALUES (1, 'ann'), (2, 'bob');`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	writeFile(t, f.Connector, "services:\n  shop:\n    driver: sqlite3\n    dsn: "+f.DB+"\n")
	writeFile(t, f.Querymap, shopQuerymap)
	writeFile(t, f.Scenario, shopScenario)
	return f
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with args and returns what it wrote.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}
