package catalog

import (
	"sort"
	"strings"
	"unicode"
)

// Slugify lowercases a category name into its path segment. Anything that is
// not a letter or digit collapses into a single dash.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// ChildPath materializes the path invariant: child = parent + "/" + slug.
func ChildPath(parentPath, slug string) string {
	return parentPath + "/" + slug
}

func ChildPathName(parentPathName, name string) string {
	if parentPathName == "" {
		return name
	}
	return parentPathName + " > " + name
}

// RewritePrefix swaps a renamed ancestor's prefix for the new one, keeping
// the descendant's tail. Strings that don't carry the prefix are returned
// unchanged.
func RewritePrefix(s, oldPrefix, newPrefix string) string {
	if !strings.HasPrefix(s, oldPrefix) {
		return s
	}
	return newPrefix + s[len(oldPrefix):]
}

// AncestorPaths expands "/a/b/c" into {"/a", "/a/b", "/a/b/c"}, the exact
// breadcrumb lookup set. No recursive query needed.
func AncestorPaths(path string) []string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	out := make([]string, 0, len(segs))
	cur := ""
	for _, s := range segs {
		if s == "" {
			continue
		}
		cur += "/" + s
		out = append(out, cur)
	}
	return out
}

// BuildTree folds a flat category list into a forest, children ordered by
// sort_order then name.
func BuildTree(flat []Category) []*CategoryNode {
	nodes := make(map[string]*CategoryNode, len(flat))
	for _, c := range flat {
		nodes[c.ID] = &CategoryNode{Category: c, Children: []*CategoryNode{}}
	}
	var roots []*CategoryNode
	for _, c := range flat {
		n := nodes[c.ID]
		if c.ParentID != nil {
			if p, ok := nodes[*c.ParentID]; ok {
				p.Children = append(p.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	var sortNodes func([]*CategoryNode)
	sortNodes = func(ns []*CategoryNode) {
		sort.Slice(ns, func(i, j int) bool {
			if ns[i].SortOrder != ns[j].SortOrder {
				return ns[i].SortOrder < ns[j].SortOrder
			}
			return ns[i].Name < ns[j].Name
		})
		for _, n := range ns {
			sortNodes(n.Children)
		}
	}
	sortNodes(roots)
	return roots
}
