package partition

import "fmt"

// Report summarizes bins one line each. When groupOf is non-nil the number of
// distinct groups in each bin is included.
func Report[T any](bins []Bin[T], groupOf func(T) string) []string {
	lines := make([]string, 0, len(bins))
	for _, b := range bins {
		line := fmt.Sprintf("Bin %d: %d items (%.1f%%)", b.Index, b.Len(), b.Weight*100)
		if groupOf != nil {
			groups := make(map[string]struct{})
			for _, item := range b.Items {
				groups[groupOf(item)] = struct{}{}
			}
			line += fmt.Sprintf(", %d groups", len(groups))
		}
		lines = append(lines, line)
	}
	return lines
}
