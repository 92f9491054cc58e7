package uploader

import (
	"fmt"
	"sort"

	"github.com/quantmind-br/wikiport/internal/domain"
)

// Linearize flattens the page forest into a creation order where every parent
// precedes all of its children. Root pages sort by title then local
// identifier; siblings likewise. The order is a pure function of the input,
// so interrupted runs walk the same sequence again.
//
// A parent reference to a page not present in the space, or a parent cycle,
// is a structural defect of the export and aborts the whole space.
func Linearize(sp *domain.Space) ([]*domain.Page, error) {
	byID := make(map[string]*domain.Page, len(sp.Pages))
	children := make(map[string][]*domain.Page)
	var roots []*domain.Page

	for _, p := range sp.Pages {
		byID[p.LocalID] = p
	}
	for _, p := range sp.Pages {
		if p.ParentLocalID == "" {
			roots = append(roots, p)
			continue
		}
		if _, ok := byID[p.ParentLocalID]; !ok {
			return nil, &domain.StructuralError{
				SpaceKey: sp.Key,
				LocalID:  p.LocalID,
				Message:  fmt.Sprintf("parent %s does not exist", p.ParentLocalID),
			}
		}
		children[p.ParentLocalID] = append(children[p.ParentLocalID], p)
	}

	sortPages(roots)
	for _, siblings := range children {
		sortPages(siblings)
	}

	ordered := make([]*domain.Page, 0, len(sp.Pages))
	var walk func(p *domain.Page)
	walk = func(p *domain.Page) {
		ordered = append(ordered, p)
		for _, c := range children[p.LocalID] {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}

	// Pages unreachable from any root belong to a parent cycle.
	if len(ordered) != len(sp.Pages) {
		reached := make(map[string]bool, len(ordered))
		for _, p := range ordered {
			reached[p.LocalID] = true
		}
		var missing []string
		for _, p := range sp.Pages {
			if !reached[p.LocalID] {
				missing = append(missing, p.LocalID)
			}
		}
		sort.Strings(missing)
		return nil, &domain.StructuralError{
			SpaceKey: sp.Key,
			LocalID:  missing[0],
			Message:  fmt.Sprintf("parent cycle involving %d page(s)", len(missing)),
		}
	}

	return ordered, nil
}

func sortPages(pages []*domain.Page) {
	sort.Slice(pages, func(i, j int) bool {
		if pages[i].Title != pages[j].Title {
			return pages[i].Title < pages[j].Title
		}
		return pages[i].LocalID < pages[j].LocalID
	})
}
