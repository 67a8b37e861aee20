package envmerge

import (
	"testing"

	"table-manager/core/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func col(name string, t table.SemanticType, length int, code uint32) table.Column {
	return table.Column{Name: name, Type: t, Length: length, SourceTypeCode: table.TypeCode(code)}
}

func idCol() table.Column    { return col("ID", table.TypeUInt32, 4, 3) }
func nameCol() table.Column  { return col("Name", table.TypeString, 32, 9) }
func valueCol() table.Column { return col("Value", table.TypeUInt32, 4, 3) }

func row(id uint64, name string, value uint64) table.Row {
	return table.Row{"ID": table.Uint(id), "Name": table.String(name), "Value": table.Uint(value)}
}

func newTable(dir string, cols []table.Column, rows ...table.Row) *table.File {
	return &table.File{
		TableName:      "SharedTable",
		SourceFormatID: "legacy-binary",
		Metadata: table.Metadata{
			Format:            table.FormatMetadata{Header: []byte(dir), Tag: 1},
			RelativeDirectory: dir,
		},
		Columns: cols,
		Rows:    rows,
	}
}

func ids(t *testing.T, f *table.File) []uint64 {
	out := make([]uint64, len(f.Rows))
	for i, r := range f.Rows {
		v, ok := r.Get("ID").Uint64()
		require.True(t, ok)
		out[i] = v
	}
	return out
}

func assertSameTable(t *testing.T, want, got *table.File) {
	t.Helper()
	require.Equal(t, want.ColumnNames(), got.ColumnNames())
	for i := range want.Columns {
		assert.Equal(t, want.Columns[i].Type, got.Columns[i].Type, "column %s type", want.Columns[i].Name)
		assert.Equal(t, want.Columns[i].Length, got.Columns[i].Length, "column %s length", want.Columns[i].Name)
		assert.Equal(t, want.Columns[i].SourceTypeCode, got.Columns[i].SourceTypeCode, "column %s code", want.Columns[i].Name)
	}
	require.Len(t, got.Rows, len(want.Rows))
	for i := range want.Rows {
		for _, name := range want.ColumnNames() {
			assert.True(t, want.Rows[i].Get(name).Equal(got.Rows[i].Get(name)),
				"row %d column %s: want %v got %v", i, name, want.Rows[i].Get(name), got.Rows[i].Get(name))
		}
	}
	assert.Equal(t, want.Metadata.RelativeDirectory, got.Metadata.RelativeDirectory)
	assert.Equal(t, want.Metadata.Format, got.Metadata.Format)
	assert.Nil(t, got.RowVisibility)
	assert.Nil(t, got.Metadata.Environments)
}

func sharedTableFixture() (a, b *table.File) {
	cols := []table.Column{idCol(), nameCol(), valueCol()}
	a = newTable("server/data", cols,
		row(1, "Alpha", 100), row(2, "Beta", 200), row(10, "EnvAOnly", 999))
	b = newTable("client/data", []table.Column{idCol(), nameCol(), valueCol()},
		row(1, "Alpha", 100), row(2, "Beta", 200), row(20, "EnvBOnly", 888))
	return a, b
}

func TestMerge_SharedTableScenario(t *testing.T) {
	a, b := sharedTableFixture()

	res, err := Merge(a, b, Options{Join: JoinOn("ID"), SourceEnv: "B", TargetEnv: "A"})
	require.NoError(t, err)

	m := res.Table
	assert.Empty(t, res.Conflicts)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, []uint64{1, 2, 10, 20}, ids(t, m))
	require.Len(t, m.RowVisibility, 4)
	assert.True(t, m.RowVisibility[0].IsShared())
	assert.True(t, m.RowVisibility[1].IsShared())
	assert.Equal(t, []string{"A"}, m.RowVisibility[2].Envs())
	assert.Equal(t, []string{"B"}, m.RowVisibility[3].Envs())
	assert.Equal(t, []string{"A", "B"}, m.EnvironmentNames())

	for _, c := range m.Columns {
		assert.True(t, c.Visibility.IsShared(), "column %s", c.Name)
	}

	splitA, err := Split(m, "A", nil)
	require.NoError(t, err)
	assertSameTable(t, a, splitA)

	splitB, err := Split(m, "B", nil)
	require.NoError(t, err)
	assertSameTable(t, b, splitB)
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	a, b := sharedTableFixture()
	_, err := Merge(a, b, Options{Join: JoinOn("ID"), SourceEnv: "B", TargetEnv: "A"})
	require.NoError(t, err)

	assert.Nil(t, a.RowVisibility)
	assert.Nil(t, a.Metadata.Environments)
	assert.Len(t, a.Rows, 3)
	assert.Len(t, b.Rows, 3)
}

func TestMerge_ColumnReconciliation(t *testing.T) {
	a := newTable("a", []table.Column{idCol(), col("Level", table.TypeUInt16, 2, 2), nameCol(), col("OnlyA", table.TypeByte, 1, 1)},
		table.Row{"ID": table.Uint(1), "Level": table.Uint(5), "Name": table.String("x"), "OnlyA": table.Uint(1)})
	b := newTable("b", []table.Column{col("Name", table.TypeString, 64, 24), idCol(), col("Level", table.TypeString, 16, 9), col("OnlyB", table.TypeInt32, 4, 22)},
		table.Row{"ID": table.Uint(1), "Level": table.String("five"), "Name": table.String("x"), "OnlyB": table.Int(-4)})

	res, err := Merge(Seed(a, "A"), b, Options{Join: JoinOn("ID"), SourceEnv: "B"})
	require.NoError(t, err)
	m := res.Table

	assert.Equal(t, []string{"ID", "Level", "Name", "OnlyA", "Level__B", "OnlyB"}, m.ColumnNames())
	onlyA, _ := m.Column("OnlyA")
	assert.Equal(t, []string{"A"}, onlyA.Visibility.Envs())
	level, _ := m.Column("Level")
	assert.Equal(t, []string{"A"}, level.Visibility.Envs())
	levelB, _ := m.Column("Level__B")
	assert.Equal(t, []string{"B"}, levelB.Visibility.Envs())
	name, _ := m.Column("Name")
	assert.True(t, name.Visibility.IsShared())
	assert.Equal(t, 32, name.Length)

	metaB := res.Environments["B"]
	assert.Equal(t, []string{"Name", "ID", "Level__B", "OnlyB"}, metaB.ColumnOrder)
	assert.Equal(t, map[string]string{"Level__B": "Level"}, metaB.ColumnRenames)
	require.Contains(t, metaB.ColumnOverrides, "Name")
	assert.Equal(t, 64, *metaB.ColumnOverrides["Name"].Length)
	assert.Equal(t, uint32(24), *metaB.ColumnOverrides["Name"].SourceTypeCode)
	assert.Empty(t, res.Conflicts)

	splitA, err := Split(m, "A", nil)
	require.NoError(t, err)
	assertSameTable(t, a, splitA)

	splitB, err := Split(m, "B", nil)
	require.NoError(t, err)
	assertSameTable(t, b, splitB)
}

func conflictFixture() (a, b *table.File) {
	a = newTable("a", []table.Column{idCol(), nameCol(), valueCol()},
		row(1, "Alpha", 100), row(2, "Beta", 200), row(3, "OnlyA", 300))
	b = newTable("b", []table.Column{idCol(), nameCol(), valueCol()},
		row(1, "Alpha", 111), row(2, "Beta", 200), row(4, "OnlyB", 400))
	return a, b
}

func TestMerge_ConflictKeepsTarget(t *testing.T) {
	a, b := conflictFixture()
	res, err := Merge(Seed(a, "A"), b, Options{Join: JoinOn("ID"), SourceEnv: "B", Policy: PolicyKeepTarget})
	require.NoError(t, err)

	require.Len(t, res.Conflicts, 1)
	c := res.Conflicts[0]
	assert.Equal(t, "1", c.JoinKey)
	assert.Equal(t, "Value", c.Column)
	assert.True(t, table.Uint(100).Equal(c.Target))
	assert.True(t, table.Uint(111).Equal(c.Source))

	assert.Equal(t, []string{"ID", "Name", "Value"}, res.Table.ColumnNames())
	assert.True(t, table.Uint(100).Equal(res.Table.Rows[0]["Value"]))

	splitB, err := Split(res.Table, "B", nil)
	require.NoError(t, err)
	assert.True(t, table.Uint(100).Equal(splitB.Rows[0]["Value"]), "shared column yields the target value")
}

func TestMerge_ConflictSplitPolicy(t *testing.T) {
	a, b := conflictFixture()
	res, err := Merge(Seed(a, "A"), b, Options{Join: JoinOn("ID"), SourceEnv: "B", Policy: PolicySplit})
	require.NoError(t, err)
	m := res.Table

	require.Len(t, res.Conflicts, 1)
	assert.Equal(t, []string{"ID", "Name", "Value", "Value__B"}, m.ColumnNames())
	assert.Equal(t, []uint64{1, 2, 3, 4}, ids(t, m))

	// shared rows get the source value, source-only rows reuse theirs,
	// target-only rows stay null.
	assert.True(t, table.Uint(111).Equal(m.Rows[0].Get("Value__B")))
	assert.True(t, table.Uint(200).Equal(m.Rows[1].Get("Value__B")))
	assert.True(t, m.Rows[2].Get("Value__B").IsNull())
	assert.True(t, table.Uint(400).Equal(m.Rows[3].Get("Value__B")))
	assert.True(t, table.Uint(100).Equal(m.Rows[0].Get("Value")))

	metaB := res.Environments["B"]
	assert.Equal(t, []string{"ID", "Name", "Value__B"}, metaB.ColumnOrder)
	assert.Equal(t, "Value", metaB.ColumnRenames["Value__B"])

	splitA, err := Split(m, "A", nil)
	require.NoError(t, err)
	assertSameTable(t, a, splitA)

	splitB, err := Split(m, "B", nil)
	require.NoError(t, err)
	assertSameTable(t, b, splitB)
}

func TestMerge_DuplicateJoinKeysPairFIFO(t *testing.T) {
	a := newTable("a", []table.Column{idCol(), nameCol(), valueCol()}, row(1, "T1", 1))
	b := newTable("b", []table.Column{idCol(), nameCol(), valueCol()}, row(1, "T1", 1), row(1, "Second", 2))

	res, err := Merge(Seed(a, "A"), b, Options{Join: JoinOn("ID"), SourceEnv: "B"})
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarningDuplicateJoinKey, res.Warnings[0].Kind)
	assert.Equal(t, "1", res.Warnings[0].JoinKey)
	assert.Equal(t, 2, res.Warnings[0].Count)

	m := res.Table
	require.Len(t, m.Rows, 2)
	assert.True(t, m.RowVisibility[0].IsShared())
	assert.Equal(t, []string{"B"}, m.RowVisibility[1].Envs())
	assert.True(t, table.String("Second").Equal(m.Rows[1]["Name"]))
	assert.Empty(t, res.Conflicts)
}

func TestMerge_DifferentJoinColumns(t *testing.T) {
	a := newTable("a", []table.Column{idCol(), nameCol()},
		table.Row{"ID": table.Uint(7), "Name": table.String("x")})
	b := newTable("b", []table.Column{col("Key", table.TypeUInt32, 4, 3), nameCol()},
		table.Row{"Key": table.Uint(7), "Name": table.String("x")})

	res, err := Merge(Seed(a, "A"), b, Options{Join: JoinClause{TargetColumn: "ID", SourceColumn: "Key"}, SourceEnv: "B"})
	require.NoError(t, err)
	require.Len(t, res.Table.Rows, 1)
	assert.True(t, table.Uint(7).Equal(res.Table.Rows[0]["Key"]))
}

func TestMerge_ThreeEnvironments(t *testing.T) {
	a := newTable("a", []table.Column{idCol(), nameCol(), valueCol()}, row(1, "One", 1), row(2, "Two", 2))
	b := newTable("b", []table.Column{idCol(), nameCol(), valueCol()}, row(1, "One", 1), row(3, "Three", 3))
	c := newTable("c", []table.Column{idCol(), nameCol()},
		table.Row{"ID": table.Uint(2), "Name": table.String("Two")},
		table.Row{"ID": table.Uint(3), "Name": table.String("Three")})

	ab, err := Merge(Seed(a, "A"), b, Options{Join: JoinOn("ID"), SourceEnv: "B"})
	require.NoError(t, err)
	abc, err := Merge(ab.Table, c, Options{Join: JoinOn("ID"), SourceEnv: "C"})
	require.NoError(t, err)
	m := abc.Table

	assert.Equal(t, []uint64{1, 2, 3}, ids(t, m))
	assert.Equal(t, []string{"A", "B"}, m.RowVisibility[0].Envs())
	assert.Equal(t, []string{"A", "C"}, m.RowVisibility[1].Envs())
	assert.Equal(t, []string{"B", "C"}, m.RowVisibility[2].Envs())

	value, _ := m.Column("Value")
	assert.Equal(t, []string{"A", "B"}, value.Visibility.Envs())

	for env, want := range map[string]*table.File{"A": a, "B": b, "C": c} {
		got, err := Split(m, env, nil)
		require.NoError(t, err)
		assertSameTable(t, want, got)
	}
}

func TestMerge_ColumnUnseenByMatchedRow(t *testing.T) {
	extra := col("Extra", table.TypeUInt32, 4, 3)
	a := newTable("a", []table.Column{idCol(), nameCol()},
		table.Row{"ID": table.Uint(10), "Name": table.String("Ten")})
	b := newTable("b", []table.Column{idCol(), nameCol(), extra},
		table.Row{"ID": table.Uint(20), "Name": table.String("Twenty"), "Extra": table.Uint(7)})
	c := newTable("c", []table.Column{idCol(), nameCol(), extra},
		table.Row{"ID": table.Uint(10), "Name": table.String("Ten"), "Extra": table.Uint(5)})

	ab, err := Merge(Seed(a, "A"), b, Options{Join: JoinOn("ID"), SourceEnv: "B"})
	require.NoError(t, err)
	abc, err := Merge(ab.Table, c, Options{Join: JoinOn("ID"), SourceEnv: "C", Policy: PolicySplit})
	require.NoError(t, err)
	m := abc.Table

	assert.Empty(t, abc.Conflicts)
	assert.Equal(t, []string{"ID", "Name", "Extra"}, m.ColumnNames())
	assert.Equal(t, []string{"A", "C"}, m.RowVisibility[0].Envs())
	assert.True(t, table.Uint(5).Equal(m.Rows[0].Get("Extra")))

	for env, want := range map[string]*table.File{"A": a, "B": b, "C": c} {
		got, err := Split(m, env, nil)
		require.NoError(t, err)
		assertSameTable(t, want, got)
	}
}

func TestMerge_Errors(t *testing.T) {
	a, b := sharedTableFixture()

	t.Run("MissingSourceEnv", func(t *testing.T) {
		_, err := Merge(a, b, Options{Join: JoinOn("ID")})
		assert.Error(t, err)
	})

	t.Run("UnknownJoinColumn", func(t *testing.T) {
		_, err := Merge(a, b, Options{Join: JoinOn("Missing"), SourceEnv: "B"})
		assert.ErrorIs(t, err, ErrUnknownColumn)
	})

	t.Run("SourceAlreadyMerged", func(t *testing.T) {
		_, err := Merge(a, Seed(b, "B"), Options{Join: JoinOn("ID"), SourceEnv: "B"})
		assert.ErrorIs(t, err, ErrAlreadyMerged)
	})

	t.Run("EnvironmentAlreadyPresent", func(t *testing.T) {
		_, err := Merge(Seed(a, "A"), b, Options{Join: JoinOn("ID"), SourceEnv: "A"})
		assert.ErrorIs(t, err, ErrAlreadyMerged)
	})
}

func TestSplit_Errors(t *testing.T) {
	a, _ := sharedTableFixture()

	_, err := Split(a, "A", nil)
	assert.ErrorIs(t, err, ErrUnknownEnvironment)

	_, err = Split(a, "A", &table.EnvMergeMetadata{ColumnOrder: []string{"Nope"}})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestSplit_UnmergedTablePassesAllRows(t *testing.T) {
	a, _ := sharedTableFixture()
	out, err := Split(a, "anything", &table.EnvMergeMetadata{ColumnOrder: []string{"Name", "ID"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "ID"}, out.ColumnNames())
	assert.Len(t, out.Rows, 3)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyKeepTarget, p)

	p, err = ParsePolicy("split")
	require.NoError(t, err)
	assert.Equal(t, PolicySplit, p)

	_, err = ParsePolicy("merge")
	assert.Error(t, err)
}
