package flatten

import (
	"path/filepath"
	"sort"
	"strings"
)

// renderTree draws the directory hierarchy covering the given relative
// paths, in the classic tree(1) style. Only directories that contribute
// files to the dump appear.
func renderTree(root string, files []string) string {
	top := &treeNode{children: map[string]*treeNode{}}
	for _, rel := range files {
		node := top
		for _, part := range strings.Split(rel, "/") {
			child, ok := node.children[part]
			if !ok {
				child = &treeNode{children: map[string]*treeNode{}}
				node.children[part] = child
			}
			node = child
		}
	}

	var b strings.Builder
	b.WriteString(filepath.Base(root))
	b.WriteString("\n")
	top.render(&b, "")
	return b.String()
}

type treeNode struct {
	children map[string]*treeNode
}

func (n *treeNode) render(b *strings.Builder, prefix string) {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(names)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(name)
		b.WriteString("\n")
		n.children[name].render(b, childPrefix)
	}
}
