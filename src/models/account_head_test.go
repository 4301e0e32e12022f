package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAccountTree(t *testing.T) {
	root := "root-id"
	accounts := []AccountHead{
		{ID: root, Code: "1000", Name: "Assets"},
		{ID: "child-1", Code: "1101", Name: "Cash", ParentID: &root},
		{ID: "child-2", Code: "1102", Name: "Bank", ParentID: &root},
	}

	tree := BuildAccountTree(accounts)
	require.Len(t, tree, 1)
	assert.Equal(t, "1000", tree[0].Code)
	require.Len(t, tree[0].Children, 2)
	assert.Equal(t, "1101", tree[0].Children[0].Code)
	assert.Equal(t, "1102", tree[0].Children[1].Code)
}

func TestBuildAccountTreeOrphanBecomesRoot(t *testing.T) {
	missing := "not-in-list"
	accounts := []AccountHead{
		{ID: "a", Code: "2000", Name: "Liabilities"},
		{ID: "b", Code: "2101", Name: "Payables", ParentID: &missing},
	}

	tree := BuildAccountTree(accounts)
	require.Len(t, tree, 2)
}

func TestBuildAccountTreeEmpty(t *testing.T) {
	assert.Empty(t, BuildAccountTree(nil))
}
