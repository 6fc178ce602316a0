package format

import (
	"path"
	"sort"
	"strings"
)

// treeNode is one directory/file entry in the tree being rendered. Directory
// nodes are synthesized from the path segments of the file list; they carry
// no FileEntry of their own.
type treeNode struct {
	name     string
	isDir    bool
	children []*treeNode
}

func (n *treeNode) child(name string, isDir bool) *treeNode {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	c := &treeNode{name: name, isDir: isDir}
	n.children = append(n.children, c)
	return c
}

func (n *treeNode) sortChildren() {
	sort.Slice(n.children, func(i, j int) bool {
		a, b := n.children[i], n.children[j]
		if a.isDir != b.isDir {
			return a.isDir
		}
		return a.name < b.name
	})
	for _, c := range n.children {
		c.sortChildren()
	}
}

// BuildTree renders paths (already relative, forward-slash separated) as a
// directory tree using the box-drawing characters "├── ", "└── ", "│   ",
// and "    ", under a top-of-tree label derived from base (spec.md §4.16).
func BuildTree(paths []string, base string) string {
	root := &treeNode{}
	for _, p := range paths {
		segs := strings.Split(path.Clean(p), "/")
		cur := root
		for i, seg := range segs {
			cur = cur.child(seg, i < len(segs)-1)
		}
	}
	root.sortChildren()

	var b strings.Builder
	label := base
	if label == "" {
		label = "."
	}
	b.WriteString(label)
	b.WriteByte('\n')
	writeChildren(&b, root, "")
	return b.String()
}

func writeChildren(b *strings.Builder, n *treeNode, prefix string) {
	for i, c := range n.children {
		last := i == len(n.children)-1
		connector := "├── "
		nextPrefix := prefix + "│   "
		if last {
			connector = "└── "
			nextPrefix = prefix + "    "
		}
		b.WriteString(prefix)
		b.WriteString(connector)
		b.WriteString(c.name)
		b.WriteByte('\n')
		if c.isDir {
			writeChildren(b, c, nextPrefix)
		}
	}
}
