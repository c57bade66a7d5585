package pricing

import (
	"sort"

	"storefront/internal/domain"
)

// allocateFreeUnits is the cart-wide pass for buy-X-get-Y-free promotions. Trigger
// units are counted over every line of the cart; the earned free units go to the
// lines assigned to that promotion whose product is a free product, in ascending
// line ID order, each line capped at its own quantity. The result is indexed like lines.
func allocateFreeUnits(lines []domain.CartLine, assigned []*promotion, book rulebook) []int {
	free := make([]int, len(lines))
	for _, p := range book.ordered {
		r, ok := p.rule.(freeUnitsRule)
		if !ok {
			continue
		}

		var receivers []int
		for i, line := range lines {
			if assigned[i] == p && r.free.has(line.ProductID) {
				receivers = append(receivers, i)
			}
		}
		if len(receivers) == 0 {
			continue
		}

		triggerUnits := 0
		for _, line := range lines {
			if r.triggers.has(line.ProductID) && line.Quantity > 0 {
				triggerUnits += line.Quantity
			}
		}
		remaining := r.earned(triggerUnits)

		sort.SliceStable(receivers, func(a, b int) bool {
			return lines[receivers[a]].ID < lines[receivers[b]].ID
		})
		for _, i := range receivers {
			if remaining <= 0 {
				break
			}
			n := clampInt(remaining, 0, lines[i].Quantity)
			free[i] = n
			remaining -= n
		}
	}
	return free
}
