package domain

import (
	"cmp"
	"fmt"
	"slices"
)

// SortSiblings orders buttons by orderIndex, then by id so ties resolve to
// creation order.
func SortSiblings(items []Button) {
	slices.SortStableFunc(items, compareSiblings)
}

func compareSiblings(a, b Button) int {
	if c := cmp.Compare(a.OrderIndex, b.OrderIndex); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// BuildTree assembles a flat snapshot into a forest. Buttons whose parent is
// missing from the snapshot are left out; see Orphans. A parent cycle among
// reachable nodes is reported as ErrIntegrity.
func BuildTree(items []Button) ([]*ButtonNode, error) {
	byParent := make(map[uint][]Button, len(items))
	roots := make([]Button, 0)
	for _, b := range items {
		if b.ParentID == nil {
			roots = append(roots, b)
			continue
		}
		byParent[*b.ParentID] = append(byParent[*b.ParentID], b)
	}

	visited := make(map[uint]bool, len(items))
	var attach func(siblings []Button) ([]*ButtonNode, error)
	attach = func(siblings []Button) ([]*ButtonNode, error) {
		SortSiblings(siblings)
		nodes := make([]*ButtonNode, 0, len(siblings))
		for _, b := range siblings {
			if visited[b.ID] {
				return nil, fmt.Errorf("%w: button %d reached twice while building tree", ErrIntegrity, b.ID)
			}
			visited[b.ID] = true
			children, err := attach(byParent[b.ID])
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &ButtonNode{Button: b, Children: children})
		}
		return nodes, nil
	}

	forest, err := attach(roots)
	if err != nil {
		return nil, err
	}

	// Unvisited nodes either sit below an orphan or hang off a cycle.
	parentOf := make(map[uint]*uint, len(items))
	for _, b := range items {
		parentOf[b.ID] = b.ParentID
	}
	for _, b := range items {
		if visited[b.ID] {
			continue
		}
		if inCycle(parentOf, b.ID) {
			return nil, fmt.Errorf("%w: button %d is part of a parent cycle", ErrIntegrity, b.ID)
		}
	}
	return forest, nil
}

func inCycle(parentOf map[uint]*uint, id uint) bool {
	seen := map[uint]bool{id: true}
	cur := parentOf[id]
	for cur != nil {
		if seen[*cur] {
			return true
		}
		seen[*cur] = true
		next, ok := parentOf[*cur]
		if !ok {
			return false
		}
		cur = next
	}
	return false
}

// Orphans lists buttons whose parent id does not exist in the snapshot.
func Orphans(items []Button) []Button {
	present := make(map[uint]bool, len(items))
	for _, b := range items {
		present[b.ID] = true
	}
	out := make([]Button, 0)
	for _, b := range items {
		if b.ParentID != nil && !present[*b.ParentID] {
			out = append(out, b)
		}
	}
	return out
}

func FindNode(forest []*ButtonNode, id uint) (*ButtonNode, bool) {
	for _, n := range forest {
		if n.ID == id {
			return n, true
		}
		if found, ok := FindNode(n.Children, id); ok {
			return found, true
		}
	}
	return nil, false
}

// Descendants returns the ids of every node below root, depth first.
func Descendants(root *ButtonNode) []uint {
	ids := make([]uint, 0)
	for _, child := range root.Children {
		child.Walk(func(n *ButtonNode) { ids = append(ids, n.ID) })
	}
	return ids
}

// IsDescendant reports whether candidate sits in the subtree below ancestor.
func IsDescendant(items []Button, ancestor, candidate uint) bool {
	parentOf := make(map[uint]*uint, len(items))
	for _, b := range items {
		parentOf[b.ID] = b.ParentID
	}
	seen := make(map[uint]bool)
	cur, ok := parentOf[candidate]
	for ok && cur != nil {
		if *cur == ancestor {
			return true
		}
		if seen[*cur] {
			return false
		}
		seen[*cur] = true
		cur, ok = parentOf[*cur]
	}
	return false
}

// SubtreeIDs returns rootID followed by every id reachable below it in the
// flat snapshot, breadth first. Cycles are cut at the first repeat.
func SubtreeIDs(items []Button, rootID uint) []uint {
	byParent := make(map[uint][]uint, len(items))
	for _, b := range items {
		if b.ParentID != nil {
			byParent[*b.ParentID] = append(byParent[*b.ParentID], b.ID)
		}
	}
	seen := map[uint]bool{rootID: true}
	ids := []uint{rootID}
	for i := 0; i < len(ids); i++ {
		for _, child := range byParent[ids[i]] {
			if seen[child] {
				continue
			}
			seen[child] = true
			ids = append(ids, child)
		}
	}
	return ids
}
