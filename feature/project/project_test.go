package project

import (
	"os"
	"path/filepath"
	"testing"

	"table-manager/core/envmerge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProject = `{
	// Two environments share most tables.
	"name": "sample",
	"extension": "tbl",
	"environments": [
		{"name": "A"},
		{"name": "B", "importDir": "src/b", "charset": "euc-kr"},
	],
	"tables": {
		"Item": {"join": {"target": "ID", "source": "ItemID"}, "policy": "split"},
		"Quest": {"join": {"source": "QuestID"}},
	},
}`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeProject(t, sampleProject)

	p, err := Load(dir)
	require.NoError(t, err)

	abs, _ := filepath.Abs(dir)
	assert.Equal(t, abs, p.Dir)
	assert.Equal(t, ".tbl", p.Extension)
	assert.Equal(t, "ID", p.DefaultJoin)
	assert.Equal(t, []string{"A", "B"}, p.EnvNames())

	a, err := p.Env("A")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(abs, "import", "A"), a.ImportDir)
	assert.Equal(t, filepath.Join(abs, "build", "A"), a.BuildDir)
	assert.Equal(t, filepath.Join(abs, "overrides", "A"), a.OverrideDir)

	b, err := p.Env("B")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(abs, "src", "b"), b.ImportDir)

	_, err = p.Env("C")
	assert.ErrorIs(t, err, ErrUnknownEnvironment)

	assert.Equal(t, filepath.Join(abs, "packs", "A", "manifest.json"), p.ManifestPath("A", "manifest.json"))
}

func TestJoinAndPolicy(t *testing.T) {
	p, err := Load(writeProject(t, sampleProject))
	require.NoError(t, err)

	assert.Equal(t, envmerge.JoinClause{TargetColumn: "ID", SourceColumn: "ItemID"}, p.JoinFor("Item"))
	assert.Equal(t, envmerge.JoinOn("QuestID"), p.JoinFor("Quest"))
	assert.Equal(t, envmerge.JoinOn("ID"), p.JoinFor("Skill"))

	assert.Equal(t, envmerge.PolicySplit, p.PolicyFor("Item"))
	assert.Equal(t, envmerge.PolicyKeepTarget, p.PolicyFor("Skill"))
}

func TestFind(t *testing.T) {
	dir := writeProject(t, sampleProject)
	nested := filepath.Join(dir, "build", "A", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, err := Find(nested)
	require.NoError(t, err)
	abs, _ := filepath.Abs(dir)
	assert.Equal(t, filepath.Join(abs, FileName), path)

	p, err := Load(nested)
	require.NoError(t, err)
	assert.Equal(t, abs, p.Dir)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"No environments", `{"environments": []}`},
		{"Duplicate environment", `{"environments": [{"name": "A"}, {"name": "A"}]}`},
		{"Unnamed environment", `{"environments": [{"importDir": "x"}]}`},
		{"Reserved separator", `{"environments": [{"name": "A__B"}]}`},
		{"Unknown policy", `{"defaultPolicy": "newest", "environments": [{"name": "A"}]}`},
		{"Unknown table policy", `{"environments": [{"name": "A"}], "tables": {"T": {"policy": "x"}}}`},
		{"Unknown charset", `{"environments": [{"name": "A", "charset": "klingon"}]}`},
		{"Malformed", `{"environments": [`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeProject(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestFind_NotFound(t *testing.T) {
	_, err := Find(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}
