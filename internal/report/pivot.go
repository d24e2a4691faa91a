package report

import "strings"

// UnassignedLabel groups events whose conversation has no owning user.
const UnassignedLabel = "Unassigned"

// Row is one pivot row, identified by its ordered label path. Counters are
// an explicit mapping keyed by stage value against the closed set of
// configured stages.
type Row struct {
	Path   []string
	counts map[string]int
	Total  int

	children []*Row
	leaf     bool
}

// Count returns the counter for a stage value.
func (r *Row) Count(stage string) int { return r.counts[stage] }

// Depth is the number of path segments.
func (r *Row) Depth() int { return len(r.Path) }

// IsLeaf reports whether the row has no descendants.
func (r *Row) IsLeaf() bool { return len(r.children) == 0 }

// Leaves returns the row's descendant leaves.
func (r *Row) Leaves() []*Row {
	if r.IsLeaf() {
		return []*Row{r}
	}
	var out []*Row
	for _, c := range r.children {
		out = append(out, c.Leaves()...)
	}
	return out
}

// Pivot accumulates events into a forest of rows keyed by label path. A
// path exists exactly once per pivot; repeated events increment counters
// instead of inserting duplicate rows.
type Pivot struct {
	stages []string
	index  map[string]*Row
	rows   []*Row
}

// NewPivot creates a pivot over the given ordered stage values.
func NewPivot(stages []string) *Pivot {
	return &Pivot{
		stages: stages,
		index:  make(map[string]*Row),
	}
}

const pathSep = "\x1f"

func pathKey(path []string) string { return strings.Join(path, pathSep) }

// Touch ensures a row exists for the path without counting anything.
func (p *Pivot) Touch(path []string) *Row {
	return p.row(path)
}

// Add increments the stage counter of the leaf row at path and of every
// ancestor row, so each ancestor's counter equals the sum over its
// descendant leaves.
func (p *Pivot) Add(path []string, stage string) {
	for i := 1; i <= len(path); i++ {
		r := p.row(path[:i])
		r.counts[stage]++
		r.Total++
	}
}

func (p *Pivot) row(path []string) *Row {
	key := pathKey(path)
	if r, ok := p.index[key]; ok {
		return r
	}

	r := &Row{
		Path:   append([]string(nil), path...),
		counts: make(map[string]int),
	}
	p.index[key] = r

	if len(path) == 1 {
		p.rows = append(p.rows, r)
	} else {
		parent := p.row(path[:len(path)-1])
		parent.children = append(parent.children, r)
	}
	return r
}

// Stages returns the ordered stage values the pivot counts.
func (p *Pivot) Stages() []string { return p.stages }

// Roots returns the top-tier rows in insertion order.
func (p *Pivot) Roots() []*Row { return p.rows }

// Rows flattens the forest depth-first, parents before children, preserving
// insertion order within each tier.
func (p *Pivot) Rows() []*Row {
	var out []*Row
	var walk func(r *Row)
	walk = func(r *Row) {
		out = append(out, r)
		for _, c := range r.children {
			walk(c)
		}
	}
	for _, r := range p.rows {
		walk(r)
	}
	return out
}

// Row looks up an existing row by path; nil when absent.
func (p *Pivot) Row(path ...string) *Row {
	return p.index[pathKey(path)]
}
