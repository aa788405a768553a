package domain

// Page is one keyboard page of a sibling list.
type Page struct {
	Number    int           `json:"number"`
	Separator *Button       `json:"separator"`
	Buttons   []*ButtonNode `json:"buttons"`
}

// Paginate splits ordered siblings on page_separator nodes. Siblings before
// the first separator form the opening page. Every separator opens a page
// holding its own children followed by the siblings up to the next separator.
func Paginate(siblings []*ButtonNode, visibleOnly bool) []Page {
	keep := func(n *ButtonNode) bool {
		if n.ButtonType == KindPageSeparator {
			return false
		}
		return !visibleOnly || (n.IsEnabled && !n.IsHidden)
	}

	pages := make([]Page, 0)
	current := Page{Buttons: make([]*ButtonNode, 0)}

	flush := func() {
		if current.Separator != nil || len(current.Buttons) > 0 {
			pages = append(pages, current)
		}
	}

	for _, n := range siblings {
		if n.ButtonType != KindPageSeparator {
			if keep(n) {
				current.Buttons = append(current.Buttons, n)
			}
			continue
		}
		if visibleOnly && n.IsHidden {
			continue
		}
		flush()
		sep := n.Button
		current = Page{Separator: &sep, Buttons: make([]*ButtonNode, 0, len(n.Children))}
		for _, child := range n.Children {
			if keep(child) {
				current.Buttons = append(current.Buttons, child)
			}
		}
	}
	flush()

	if len(pages) == 0 {
		pages = append(pages, Page{Buttons: make([]*ButtonNode, 0)})
	}
	for i := range pages {
		pages[i].Number = i + 1
	}
	return pages
}
