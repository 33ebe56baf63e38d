package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "office-productivity", Slugify("Office & Productivity"))
	assert.Equal(t, "windows-11-pro", Slugify("  Windows 11 Pro "))
	assert.Equal(t, "antivirus", Slugify("Antivirus!!!"))
}

func TestChildPath(t *testing.T) {
	assert.Equal(t, "/software", ChildPath("", "software"))
	assert.Equal(t, "/software/office", ChildPath("/software", "office"))
	assert.Equal(t, "Software > Office", ChildPathName("Software", "Office"))
	assert.Equal(t, "Software", ChildPathName("", "Software"))
}

func TestRewritePrefix(t *testing.T) {
	t.Run("descendant paths keep their tail", func(t *testing.T) {
		assert.Equal(t, "/apps/office",
			RewritePrefix("/software/office", "/software", "/apps"))
		assert.Equal(t, "/apps/office/suites",
			RewritePrefix("/software/office/suites", "/software", "/apps"))
	})

	t.Run("path names rewrite the same way", func(t *testing.T) {
		assert.Equal(t, "Apps > Office > Suites",
			RewritePrefix("Software > Office > Suites", "Software", "Apps"))
	})

	t.Run("strings outside the subtree are untouched", func(t *testing.T) {
		assert.Equal(t, "/games/strategy",
			RewritePrefix("/games/strategy", "/software", "/apps"))
	})

	t.Run("rename preserves the path invariant", func(t *testing.T) {
		parent := ChildPath("", "apps")
		child := RewritePrefix("/software/office", "/software", parent)
		assert.Equal(t, ChildPath(parent, "office"), child)
	})
}

func TestAncestorPaths(t *testing.T) {
	assert.Equal(t,
		[]string{"/software", "/software/office", "/software/office/suites"},
		AncestorPaths("/software/office/suites"))
	assert.Equal(t, []string{"/software"}, AncestorPaths("/software"))
}

func TestBuildTree(t *testing.T) {
	root := Category{ID: "c1", Name: "Software", Slug: "software", Level: 1, Path: "/software"}
	child := Category{ID: "c2", ParentID: strptr("c1"), Name: "Office", Slug: "office", Level: 2,
		Path: "/software/office", SortOrder: 2}
	child2 := Category{ID: "c3", ParentID: strptr("c1"), Name: "Antivirus", Slug: "antivirus", Level: 2,
		Path: "/software/antivirus", SortOrder: 1}

	tree := BuildTree([]Category{child, root, child2})
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "c3", tree[0].Children[0].ID, "children ordered by sort_order")
	assert.Equal(t, "c2", tree[0].Children[1].ID)

	// the materialized-path invariant: child path = parent path + "/" + slug
	for _, c := range tree[0].Children {
		assert.Equal(t, ChildPath(tree[0].Path, c.Slug), c.Path)
	}
}

func TestBuildTreeOrphan(t *testing.T) {
	orphan := Category{ID: "c9", ParentID: strptr("missing"), Name: "Stray", Level: 2}
	tree := BuildTree([]Category{orphan})
	require.Len(t, tree, 1, "orphans surface as roots instead of vanishing")
}

func strptr(s string) *string { return &s }
