package table

import (
	"encoding/json"
	"slices"
	"sort"
)

// Visibility is either Shared or restricted to a set of environments.
// The zero value is Shared.
type Visibility struct {
	envs map[string]struct{}
}

// Shared returns the visibility of something present in every environment.
func Shared() Visibility { return Visibility{} }

// RestrictedTo returns a visibility limited to the given environments.
// With no environments it is Shared.
func RestrictedTo(envs ...string) Visibility {
	if len(envs) == 0 {
		return Visibility{}
	}
	set := make(map[string]struct{}, len(envs))
	for _, e := range envs {
		set[e] = struct{}{}
	}
	return Visibility{envs: set}
}

func (v Visibility) IsShared() bool { return len(v.envs) == 0 }

// Includes reports whether env can see the item.
func (v Visibility) Includes(env string) bool {
	if v.IsShared() {
		return true
	}
	_, ok := v.envs[env]
	return ok
}

// Envs returns the sorted environment identifiers, or nil when Shared.
func (v Visibility) Envs() []string {
	if v.IsShared() {
		return nil
	}
	out := make([]string, 0, len(v.envs))
	for e := range v.envs {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Overlaps reports whether some environment can see both. Shared overlaps
// everything.
func (v Visibility) Overlaps(o Visibility) bool {
	if v.IsShared() || o.IsShared() {
		return true
	}
	for e := range v.envs {
		if _, ok := o.envs[e]; ok {
			return true
		}
	}
	return false
}

// With returns a copy that also includes env. Shared stays Shared.
func (v Visibility) With(env string) Visibility {
	if v.IsShared() {
		return v
	}
	return RestrictedTo(append(v.Envs(), env)...)
}

// Equal reports whether both visibilities cover the same environments.
func (v Visibility) Equal(o Visibility) bool {
	return slices.Equal(v.Envs(), o.Envs())
}

func (v Visibility) MarshalJSON() ([]byte, error) {
	if v.IsShared() {
		return []byte("null"), nil
	}
	return json.Marshal(v.Envs())
}

func (v *Visibility) UnmarshalJSON(data []byte) error {
	var envs []string
	if err := json.Unmarshal(data, &envs); err != nil {
		return err
	}
	*v = RestrictedTo(envs...)
	return nil
}
