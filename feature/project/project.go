package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"table-manager/core/codec"
	"table-manager/core/envmerge"

	"github.com/tidwall/jsonc"
)

// FileName is the project file looked up by Find.
const FileName = "project.jsonc"

var (
	// ErrNotFound is returned when no project file exists in the start
	// directory or any of its parents.
	ErrNotFound = errors.New("project file not found")
	// ErrUnknownEnvironment is returned for environments the project does not declare.
	ErrUnknownEnvironment = errors.New("unknown environment")
)

// Environment is one deployment target whose tables are merged.
type Environment struct {
	Name        string `json:"name"`
	ImportDir   string `json:"importDir"`
	BuildDir    string `json:"buildDir"`
	OverrideDir string `json:"overrideDir"`
	Charset     string `json:"charset"`
}

// Join is a per-table join clause. An empty side falls back to the other.
type Join struct {
	Target string `json:"target"`
	Source string `json:"source"`
}

// TableSettings overrides project defaults for one table.
type TableSettings struct {
	Join   *Join  `json:"join"`
	Policy string `json:"policy"`
}

// Project is a parsed project file. Directories are resolved against Dir.
type Project struct {
	Name          string                   `json:"name"`
	Extension     string                   `json:"extension"`
	DefaultJoin   string                   `json:"defaultJoin"`
	DefaultPolicy string                   `json:"defaultPolicy"`
	Environments  []Environment            `json:"environments"`
	Tables        map[string]TableSettings `json:"tables"`

	// Dir is the directory holding the project file.
	Dir string `json:"-"`
}

// Find searches start and its parents for the project file and returns its
// path.
func Find(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w from %s", ErrNotFound, start)
		}
		dir = parent
	}
}

// Load reads the project at path, which may be the project file itself or
// a directory inside the project.
func Load(path string) (*Project, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open project: %w", err)
	}
	if info.IsDir() {
		if path, err = Find(path); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	var p Project
	if err := json.Unmarshal(jsonc.ToJSON(data), &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	p.Dir = abs
	if err := p.normalize(); err != nil {
		return nil, fmt.Errorf("invalid project %s: %w", path, err)
	}
	return &p, nil
}

func (p *Project) normalize() error {
	if len(p.Environments) == 0 {
		return errors.New("no environments declared")
	}
	if p.Extension == "" {
		p.Extension = ".tbl"
	}
	if !strings.HasPrefix(p.Extension, ".") {
		p.Extension = "." + p.Extension
	}
	if p.DefaultJoin == "" {
		p.DefaultJoin = "ID"
	}
	if _, err := envmerge.ParsePolicy(p.DefaultPolicy); err != nil {
		return err
	}
	for name, t := range p.Tables {
		if _, err := envmerge.ParsePolicy(t.Policy); err != nil {
			return fmt.Errorf("table %s: %w", name, err)
		}
	}

	seen := map[string]bool{}
	for i := range p.Environments {
		e := &p.Environments[i]
		if e.Name == "" {
			return fmt.Errorf("environment %d has no name", i)
		}
		if strings.Contains(e.Name, "__") {
			return fmt.Errorf("environment %s: name must not contain %q", e.Name, "__")
		}
		if seen[e.Name] {
			return fmt.Errorf("environment %s declared twice", e.Name)
		}
		seen[e.Name] = true

		e.ImportDir = p.resolve(e.ImportDir, "import", e.Name)
		e.BuildDir = p.resolve(e.BuildDir, "build", e.Name)
		e.OverrideDir = p.resolve(e.OverrideDir, "overrides", e.Name)
		if e.Charset != "" {
			if _, err := codec.New(codec.Options{Charset: e.Charset}); err != nil {
				return fmt.Errorf("environment %s: %w", e.Name, err)
			}
		}
	}
	return nil
}

func (p *Project) resolve(dir, fallback, env string) string {
	if dir == "" {
		return filepath.Join(p.Dir, fallback, env)
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(p.Dir, dir)
}

// Env returns the environment named name.
func (p *Project) Env(name string) (*Environment, error) {
	for i := range p.Environments {
		if p.Environments[i].Name == name {
			return &p.Environments[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEnvironment, name)
}

// EnvNames returns the declared environments in declaration order.
func (p *Project) EnvNames() []string {
	out := make([]string, len(p.Environments))
	for i, e := range p.Environments {
		out[i] = e.Name
	}
	return out
}

// ManifestPath returns where env's pack manifest lives.
func (p *Project) ManifestPath(env, manifestName string) string {
	return filepath.Join(p.Dir, "packs", env, manifestName)
}

// JoinFor returns the join clause for table.
func (p *Project) JoinFor(table string) envmerge.JoinClause {
	t, ok := p.Tables[table]
	if !ok || t.Join == nil {
		return envmerge.JoinOn(p.DefaultJoin)
	}
	j := envmerge.JoinClause{TargetColumn: t.Join.Target, SourceColumn: t.Join.Source}
	if j.TargetColumn == "" {
		j.TargetColumn = j.SourceColumn
	}
	if j.SourceColumn == "" {
		j.SourceColumn = j.TargetColumn
	}
	if j.TargetColumn == "" {
		return envmerge.JoinOn(p.DefaultJoin)
	}
	return j
}

// PolicyFor returns the conflict policy for table.
func (p *Project) PolicyFor(table string) envmerge.ConflictPolicy {
	if t, ok := p.Tables[table]; ok && t.Policy != "" {
		policy, _ := envmerge.ParsePolicy(t.Policy)
		return policy
	}
	policy, _ := envmerge.ParsePolicy(p.DefaultPolicy)
	return policy
}

// Codec returns a codec configured for env's charset.
func (e *Environment) Codec() (*codec.Codec, error) {
	return codec.New(codec.Options{Charset: e.Charset})
}

// tableFiles lists the table files under dir, sorted by path.
func tableFiles(dir, ext string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.EqualFold(filepath.Ext(path), ext) {
			out = append(out, path)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}
