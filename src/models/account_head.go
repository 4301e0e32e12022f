package models

import (
	"github.com/shopspring/decimal"

	"github.com/username/ledgererp/backend/src/ledger"
)

// AccountHead is a node in the chart of accounts. The account type is
// immutable after creation and must match the code's leading digit.
// CurrentBalance is derived state, mutated only by posting journal entries.
type AccountHead struct {
	ID              string               `json:"id"`
	Code            string               `json:"code"`
	Name            string               `json:"name"`
	AccountType     ledger.AccountType   `json:"accountType"`
	ParentID        *string              `json:"parentId"`
	OpeningBalance  decimal.Decimal      `json:"openingBalance"`
	CurrentBalance  decimal.Decimal      `json:"currentBalance"`
	Status          ledger.AccountStatus `json:"status"`
	IsSystemAccount bool                 `json:"isSystemAccount"`
	Description     string               `json:"description,omitempty"`
	CreatedAt       string               `json:"createdAt"`
	UpdatedAt       string               `json:"updatedAt"`
}

// AccountHeadNode is an AccountHead with its children, as returned by the
// tree endpoint.
type AccountHeadNode struct {
	AccountHead
	Children []*AccountHeadNode `json:"children"`
}

// BuildAccountTree nests a flat, code-ordered account list into parent/child
// form. Accounts whose parent is missing from the list surface as roots.
func BuildAccountTree(accounts []AccountHead) []*AccountHeadNode {
	nodes := make(map[string]*AccountHeadNode, len(accounts))
	for i := range accounts {
		nodes[accounts[i].ID] = &AccountHeadNode{AccountHead: accounts[i], Children: []*AccountHeadNode{}}
	}
	var roots []*AccountHeadNode
	for i := range accounts {
		node := nodes[accounts[i].ID]
		if pid := accounts[i].ParentID; pid != nil {
			if parent, ok := nodes[*pid]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}
