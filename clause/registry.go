package clause

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// DefaultRoot is the clause a document is checked against when the registry
// does not name one.
const DefaultRoot = "root"

var mapExprRe = regexp.MustCompile(`^\{\s*([A-Za-z_]+)\s*:\s*(.+?)\s*\}$`)

// Registry is a loaded, fully materialized set of clauses. It is read-only
// after loading and safe for concurrent use.
type Registry struct {
	root    string
	clauses map[string]Clause
}

type rawRegistry struct {
	Root    string               `yaml:"root"`
	Clauses map[string]rawClause `yaml:"clauses"`
}

type rawClause struct {
	Name      string             `yaml:"name"`
	Desc      string             `yaml:"desc"`
	URL       string             `yaml:"url"`
	Template  any                `yaml:"template"`
	Type      string             `yaml:"type"`
	Structure map[string]*string `yaml:"structure"`
	Required  []string           `yaml:"required"`
	Variant   map[string]string  `yaml:"variant"`
	Enum      []string           `yaml:"enum"`
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	reg, err := LoadRegistry(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("clause: embedded registry: %v", err))
	}
	return reg
})

// DefaultRegistry returns the embedded Elasticsearch search request grammar.
func DefaultRegistry() *Registry { return defaultRegistry() }

// LoadRegistryFile reads a registry from a YAML file.
func LoadRegistryFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading clause registry: %w", err)
	}
	reg, err := LoadRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// LoadRegistry decodes a YAML registry and materializes every clause
// expression it references.
func LoadRegistry(data []byte) (*Registry, error) {
	var raw rawRegistry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding clause registry: %w", err)
	}
	if len(raw.Clauses) == 0 {
		return nil, errors.New("clause registry defines no clauses")
	}

	l := &loader{
		raw: raw.Clauses,
		reg: &Registry{
			root:    raw.Root,
			clauses: make(map[string]Clause, len(raw.Clauses)),
		},
	}
	if l.reg.root == "" {
		l.reg.root = DefaultRoot
	}

	names := make([]string, 0, len(raw.Clauses))
	for name := range raw.Clauses {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := l.resolve(name); err != nil {
			return nil, err
		}
	}

	if _, ok := l.reg.clauses[l.reg.root]; !ok {
		return nil, fmt.Errorf("root clause %q is not defined", l.reg.root)
	}

	return l.reg, nil
}

// Root returns the id of the clause whole documents follow.
func (r *Registry) Root() string { return r.root }

// Lookup returns the clause registered under id.
func (r *Registry) Lookup(id string) (Clause, bool) {
	c, ok := r.clauses[id]
	return c, ok
}

// Names returns every clause id in sorted order, including synthesized
// `x[]` and `{field:x}` clauses.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clauses))
	for name := range r.clauses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int { return len(r.clauses) }

type loader struct {
	raw map[string]rawClause
	reg *Registry
}

// resolve makes sure a clause exists for expr.
func (l *loader) resolve(expr string) error {
	expr = strings.TrimSpace(expr)
	if _, ok := l.reg.clauses[expr]; ok {
		return nil
	}

	if rc, ok := l.raw[expr]; ok {
		if err := l.define(expr, rc); err != nil {
			return fmt.Errorf("clause %q: %w", expr, err)
		}
		return nil
	}

	switch {
	case isBaseKind(expr):
		l.reg.clauses[expr] = &Base{Info: Info{ID: expr}, Kind: expr}

	case strings.HasSuffix(expr, "[]"):
		elem := strings.TrimSpace(strings.TrimSuffix(expr, "[]"))
		l.reg.clauses[expr] = &Array{Info: Info{ID: expr}, Elem: elem}
		if err := l.resolve(elem); err != nil {
			return err
		}

	case mapExprRe.MatchString(expr):
		m := mapExprRe.FindStringSubmatch(expr)
		if m[1] != "field" && m[1] != KindString {
			return fmt.Errorf("map clause %q: keys must be field or string, got %q", expr, m[1])
		}
		l.reg.clauses[expr] = &Map{Info: Info{ID: expr}, Key: m[1], Elem: m[2]}
		if err := l.resolve(m[2]); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown clause %q", expr)
	}

	return nil
}

// define builds a clause written in the registry file. The clause is
// registered before its references are resolved so clauses may refer to
// each other recursively.
func (l *loader) define(id string, rc rawClause) error {
	info := Info{
		ID:       id,
		Title:    rc.Name,
		Desc:     rc.Desc,
		URL:      rc.URL,
		Template: rc.Template,
	}

	kinds := 0
	for _, set := range []bool{rc.Type != "", rc.Structure != nil, rc.Variant != nil, rc.Enum != nil} {
		if set {
			kinds++
		}
	}
	if kinds > 1 {
		return errors.New("only one of type, structure, variant and enum may be set")
	}
	if len(rc.Required) > 0 && kinds == 1 && rc.Structure == nil {
		return errors.New("required properties need a structure")
	}

	switch {
	case rc.Variant != nil:
		v := &Variant{Info: info, Subtypes: make(map[string]string, len(rc.Variant))}
		l.reg.clauses[id] = v
		for typ, target := range rc.Variant {
			if !slices.Contains(jsonTypes, typ) {
				return fmt.Errorf("variant on unknown json type %q", typ)
			}
			target = strings.TrimSpace(target)
			v.Subtypes[typ] = target
			if err := l.resolve(target); err != nil {
				return err
			}
		}

	case rc.Enum != nil:
		l.reg.clauses[id] = &Enum{Info: info, Values: rc.Enum}

	case rc.Type != "":
		typ := strings.TrimSpace(rc.Type)
		if isBaseKind(typ) {
			l.reg.clauses[id] = &Base{Info: info, Kind: typ}
			return nil
		}
		if typ == id {
			return errors.New("clause refers to itself")
		}
		l.reg.clauses[id] = &Reference{Info: info, Target: typ}
		if err := l.resolve(typ); err != nil {
			return err
		}
		return l.checkReferenceCycle(id)

	default:
		s := &Structure{
			Info:       info,
			Properties: make(map[string]string, len(rc.Structure)),
			Required:   rc.Required,
		}
		l.reg.clauses[id] = s
		for prop, target := range rc.Structure {
			t := prop
			if target != nil {
				t = strings.TrimSpace(*target)
			}
			s.Properties[prop] = t
			if err := l.resolve(t); err != nil {
				return fmt.Errorf("property %q: %w", prop, err)
			}
		}
		for _, req := range rc.Required {
			if !s.HasKeyword(req) {
				return fmt.Errorf("required property %q is not part of the structure", req)
			}
		}
	}

	return nil
}

// checkReferenceCycle fails when following references from id leads back
// to a clause already visited.
func (l *loader) checkReferenceCycle(id string) error {
	seen := map[string]bool{id: true}
	cur := id
	for {
		ref, ok := l.reg.clauses[cur].(*Reference)
		if !ok {
			return nil
		}
		cur = ref.Target
		if seen[cur] {
			return fmt.Errorf("reference cycle through %q", cur)
		}
		seen[cur] = true
	}
}
