package models

import (
	"sort"

	"github.com/maruel/natural"
)

// SortForListing orders configs by project name, role name and deploy group
// natural order. Configs whose deploy group has no natural order come after
// those that have one; deploy group name and id break the remaining ties.
func SortForListing(items []DeployGroupRole) {
	sort.SliceStable(items, func(i, j int) bool {
		return listingLess(&items[i], &items[j])
	})
}

func listingLess(a, b *DeployGroupRole) bool {
	if pa, pb := projectName(a), projectName(b); pa != pb {
		return pa < pb
	}
	if ra, rb := roleName(a), roleName(b); ra != rb {
		return ra < rb
	}

	ga, gb := a.DeployGroup, b.DeployGroup
	switch ha, hb := ga.HasNaturalOrder(), gb.HasNaturalOrder(); {
	case ha && !hb:
		return true
	case !ha && hb:
		return false
	case ha && hb && ga.NaturalOrder != gb.NaturalOrder:
		return natural.Less(ga.NaturalOrder, gb.NaturalOrder)
	}

	if na, nb := groupName(ga), groupName(gb); na != nb {
		return natural.Less(na, nb)
	}
	return a.ID.String() < b.ID.String()
}

func projectName(d *DeployGroupRole) string {
	if d.Project == nil {
		return ""
	}
	return d.Project.Name
}

func roleName(d *DeployGroupRole) string {
	if d.Role == nil {
		return ""
	}
	return d.Role.Name
}

func groupName(g *DeployGroup) string {
	if g == nil {
		return ""
	}
	return g.Name
}
