package core

import (
	"fmt"
	"strings"
)

// RenderOptions controls DotGraph's output.
type RenderOptions struct {
	// Arborescent elides edges whose parent is already a transitive
	// grand-ancestor of the child, reducing clutter.
	Arborescent bool
	FontName    string
}

// DotGraph renders the tree (and any subtree-bodied jobs as clusters) as a
// Graphviz dot document, built directly with strings.Builder (see
// DESIGN.md for why no graphviz/dot-binding library is used).
func (t *Tree) DotGraph(opts RenderOptions) string {
	if opts.FontName == "" {
		opts.FontName = "sans-serif"
	}
	var b strings.Builder
	b.WriteString("digraph {\n")
	b.WriteString(fmt.Sprintf(
		"  bgcolor=\"black\"; fontcolor=\"deepskyblue\"; fontname=%q;\n",
		opts.FontName,
	))
	t.writeDotBody(&b, opts)
	if len(t.Legend) > 0 {
		b.WriteString("  subgraph noncelegendnonce {\n")
		b.WriteString("    rank=\"sink\";\n")
		legend := ""
		for k, v := range t.Legend {
			legend += fmt.Sprintf("%s:\\t%s\\n", k, v)
		}
		b.WriteString(fmt.Sprintf(
			"    \"noncelegendnonce\" [shape=box, margin=0, label=%q, color=\"deepskyblue\", fontcolor=\"deepskyblue\"];\n",
			legend,
		))
		b.WriteString("  }\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func (t *Tree) writeDotBody(b *strings.Builder, opts RenderOptions) {
	for _, j := range t.Jobs() {
		j.writeDotNode(b, opts)
	}

	if opts.Arborescent {
		gparents := map[*Job][]*Job{}
		for _, j := range t.Jobs() {
			gparentCompile(j, gparents)
		}
		for _, d := range t.Deps() {
			if !containsJob(gparents[d.Child], d.Parent) {
				writeDotEdge(b, d)
			}
		}
	} else {
		for _, d := range t.Deps() {
			writeDotEdge(b, d)
		}
	}
}

func containsJob(list []*Job, j *Job) bool {
	for _, x := range list {
		if x == j {
			return true
		}
	}
	return false
}

// gparentCompile memoizes, for job, the set of every grand-ancestor
// (transitively, across all generations) reachable via its parents.
func gparentCompile(job *Job, memo map[*Job][]*Job) []*Job {
	parents := job.Parents()
	if existing, ok := memo[job]; ok {
		return append(existing, parents...)
	}
	memo[job] = nil
	for _, p := range parents {
		for _, gp := range gparentCompile(p, memo) {
			if !containsJob(memo[job], gp) {
				memo[job] = append(memo[job], gp)
			}
		}
	}
	return append(memo[job], parents...)
}

func (j *Job) writeDotNode(b *strings.Builder, opts RenderOptions) {
	if j.Subtree() != nil {
		j.writeDotCluster(b, opts)
		return
	}
	label := j.Name
	if j.Progress() >= 0 {
		label = fmt.Sprintf("%s\\n%d", j.Name, j.Progress())
	}
	fmt.Fprintf(
		b,
		"  %q [style=filled, fillcolor=%q, color=%q, penwidth=3, fontname=%q];\n",
		label,
		StateColors[j.State()],
		j.TColor,
		opts.FontName,
	)
}

func (j *Job) writeDotCluster(b *strings.Builder, opts RenderOptions) {
	sub := j.Subtree()
	label := j.Name
	if sub.Iterator != nil {
		label = fmt.Sprintf("%s %d/%d", j.Name, sub.Iterator.Run(), sub.Iterator.Len())
	}
	fmt.Fprintf(b, "  subgraph %q {\n", sub.clusterName())
	fmt.Fprintf(b, "    color=\"deepskyblue\"; fontname=%q; label=%q;\n", opts.FontName, label)
	sub.writeDotBody(b, opts)
	b.WriteString("  }\n")
}

func writeDotEdge(b *strings.Builder, d *Dependency) {
	color := d.UColor
	if d.Defined() {
		color = d.DColor
	}

	switch {
	case d.Parent.Subtree() != nil && d.Child.Subtree() != nil:
		// Subtree-to-subtree dependency rendering draws a direct edge between
		// the two job nodes rather than fanning out leaves-to-stems, since dot
		// has no native cluster-to-cluster edge shape.
		fmt.Fprintf(b, "  %q -> %q [color=%q];\n", d.Parent.Name, d.Child.Name, color)
	case d.Parent.Subtree() != nil:
		for _, leaf := range d.Parent.Subtree().Leaves() {
			fmt.Fprintf(
				b,
				"  %q -> %q [color=%q, ltail=%q];\n",
				leaf.Name, d.Child.Name, color, d.Parent.Subtree().clusterName(),
			)
		}
	case d.Child.Subtree() != nil:
		for _, stem := range d.Child.Subtree().Stems() {
			fmt.Fprintf(
				b,
				"  %q -> %q [color=%q, lhead=%q];\n",
				d.Parent.Name, stem.Name, color, d.Child.Subtree().clusterName(),
			)
		}
	default:
		fmt.Fprintf(b, "  %q -> %q [color=%q];\n", d.Parent.Name, d.Child.Name, color)
	}
}
