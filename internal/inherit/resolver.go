package inherit

import (
	"errors"
	"fmt"

	"github.com/structa/fieldwise/internal/template"
)

var (
	// ErrTemplateNotFound means an id in the inheritance walk has no
	// template behind it.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrCycle means a proposed or existing relationship closes a loop.
	ErrCycle = errors.New("inheritance cycle")
)

// Catalog is an immutable snapshot of templates and their child-to-parent
// edges, keyed by stable identifier. Batch operations resolve against one
// snapshot so results stay consistent even if the store changes mid-run.
type Catalog struct {
	templates map[string]*template.Template
	parents   map[string]template.Relationship
}

// NewCatalog builds a snapshot from a template list and its relationship
// records. A template carrying a ParentID without an explicit relationship
// record gets a synthetic edge with an empty merge policy.
func NewCatalog(templates []*template.Template, relationships []template.Relationship) *Catalog {
	c := &Catalog{
		templates: make(map[string]*template.Template, len(templates)),
		parents:   make(map[string]template.Relationship, len(relationships)),
	}
	for _, tpl := range templates {
		c.templates[tpl.ID] = tpl
	}
	for _, rel := range relationships {
		c.parents[rel.ChildID] = rel
	}
	for _, tpl := range templates {
		if tpl.ParentID != "" {
			if _, ok := c.parents[tpl.ID]; !ok {
				c.parents[tpl.ID] = template.Relationship{ChildID: tpl.ID, ParentID: tpl.ParentID}
			}
		}
	}
	return c
}

// Template returns the template with the given id, or nil.
func (c *Catalog) Template(id string) *template.Template {
	return c.templates[id]
}

// Templates returns every template in the snapshot.
func (c *Catalog) Templates() []*template.Template {
	out := make([]*template.Template, 0, len(c.templates))
	for _, tpl := range c.templates {
		out = append(out, tpl)
	}
	return out
}

// Resolver flattens inheritance chains into effective templates.
type Resolver struct {
	catalog *Catalog
}

// NewResolver creates a resolver over a catalog snapshot.
func NewResolver(catalog *Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// Chain returns the ordered ancestor id list from the root down to (and
// including) the requested template.
func (r *Resolver) Chain(id string) ([]string, error) {
	if _, ok := r.catalog.templates[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}

	visited := map[string]bool{}
	var chain []string
	current := id
	for current != "" {
		if visited[current] {
			return nil, fmt.Errorf("%w: detected at template %s", ErrCycle, current)
		}
		visited[current] = true
		chain = append(chain, current)

		rel, ok := r.catalog.parents[current]
		if !ok {
			break
		}
		if _, exists := r.catalog.templates[rel.ParentID]; !exists {
			return nil, fmt.Errorf("%w: parent %s of %s", ErrTemplateNotFound, rel.ParentID, current)
		}
		current = rel.ParentID
	}

	// Walked leaf-to-root; callers want root first.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// ValidateRelationship reports whether adding the edge child -> parent
// would keep the graph acyclic. It must be called before any new
// relationship is persisted; on error the graph is untouched.
func (r *Resolver) ValidateRelationship(childID, parentID string) error {
	if childID == parentID {
		return fmt.Errorf("%w: template %s cannot inherit from itself", ErrCycle, childID)
	}
	if _, ok := r.catalog.templates[childID]; !ok {
		return fmt.Errorf("%w: child %s", ErrTemplateNotFound, childID)
	}
	if _, ok := r.catalog.templates[parentID]; !ok {
		return fmt.Errorf("%w: parent %s", ErrTemplateNotFound, parentID)
	}

	// The edge closes a loop iff the child is already an ancestor of the
	// proposed parent.
	visited := map[string]bool{}
	current := parentID
	for current != "" {
		if current == childID {
			return fmt.Errorf("%w: %s is already an ancestor of %s", ErrCycle, childID, parentID)
		}
		if visited[current] {
			break
		}
		visited[current] = true
		rel, ok := r.catalog.parents[current]
		if !ok {
			break
		}
		current = rel.ParentID
	}
	return nil
}

// Resolve merges the template's full inheritance chain into one effective
// template. Fields merge root-to-leaf: a descendant's field with the same
// name overrides the ancestor's definition entirely, fields present only
// in an ancestor are inherited as-is, and each relationship's merge policy
// can exclude inherited fields by name. Trigger keywords union across the
// chain. The result is a plain value with no relationship metadata and is
// never cached.
func (r *Resolver) Resolve(id string) (*template.Template, error) {
	chain, err := r.Chain(id)
	if err != nil {
		return nil, err
	}

	merged := make([]template.Field, 0)
	index := make(map[string]int)
	var keywords []string
	seenKeyword := make(map[string]bool)

	for step, tid := range chain {
		tpl := r.catalog.templates[tid]

		// Trigger keywords accumulate down the chain so a child matches on
		// its ancestors' triggers too.
		for _, kw := range tpl.TriggerKeywords {
			if !seenKeyword[kw] {
				seenKeyword[kw] = true
				keywords = append(keywords, kw)
			}
		}

		// The child's merge policy filters what it inherits.
		if step > 0 {
			rel := r.catalog.parents[tid]
			if len(rel.Merge.ExcludedFields) > 0 {
				filtered := merged[:0:0]
				for _, f := range merged {
					if !rel.Merge.Excludes(f.Name) {
						filtered = append(filtered, f)
					}
				}
				merged = filtered
				index = make(map[string]int, len(merged))
				for i, f := range merged {
					index[f.Name] = i
				}
			}
		}

		for i := range tpl.Fields {
			f := *tpl.Fields[i].Clone()
			if pos, ok := index[f.Name]; ok {
				merged[pos] = f
				continue
			}
			index[f.Name] = len(merged)
			merged = append(merged, f)
		}
	}

	leaf := r.catalog.templates[id]
	resolved := leaf.Clone()
	resolved.Fields = merged
	resolved.TriggerKeywords = keywords
	resolved.ParentID = ""
	return resolved, nil
}
