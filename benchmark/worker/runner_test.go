package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	cases := map[string][]string{
		"create table t(id bigint); insert into t values(1)": {
			"create table t(id bigint)",
			"insert into t values(1)",
		},
		"select 1":    {"select 1"},
		"select 1;  ": {"select 1"},
		"insert into t values('a;b'); select 1": {
			"insert into t values('a;b')",
			"select 1",
		},
		"insert into t values(\"x;y\")": {"insert into t values(\"x;y\")"},
		"":                              {},
	}

	for input, want := range cases {
		assert.Equal(t, want, splitStatements(input), input)
	}
}

func TestTableFromInitCommands(t *testing.T) {
	r := NewRunner(&Workload{
		InitCommands: "drop table if exists old; CREATE TABLE products (id bigint, title text)",
	}, "", 0, nil, nil, nil, nil)
	assert.Equal(t, "products", r.Table())
}

func TestTableFromLoadTemplate(t *testing.T) {
	r := NewRunner(&Workload{
		Templates: []string{"INSERT INTO logs VALUES(<increment>,<text/5/10>)"},
	}, "", 0, nil, nil, nil, nil)
	assert.Equal(t, "logs", r.Table())
}

func TestTableUnknownForReadWorkloads(t *testing.T) {
	r := NewRunner(&Workload{
		Templates: []string{"select * from t where id=<int/1/10>"},
	}, "", 0, nil, nil, nil, nil)
	assert.Equal(t, "", r.Table())
}
