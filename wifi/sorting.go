package wifi

import "sort"

// SortNetworks sorts networks in place, strongest signal first. Networks with
// equal signal keep their discovery order.
func SortNetworks(networks []Network) {
	sort.SliceStable(networks, func(i, j int) bool {
		return networks[i].Signal > networks[j].Signal
	})
}
