package extractor

import (
	"regexp"
	"sort"
	"strconv"

	"shelfex/internal/metadata"
)

var trailingNumber = regexp.MustCompile(`(\d+)\.[^.]+$`)

// Sorts after every real numeric suffix.
const unnumberedKey = int64(1) << 60

// numericKey extracts the digit run immediately preceding the final extension,
// so "img_014.jpg" yields 14.
func numericKey(name string) (int64, bool) {
	m := trailingNumber.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// sortedFilenames orders matched filenames: numeric suffixes ascending first,
// unnumbered names after them, ties broken by filename text. The result is a
// total order independent of archive or sidecar enumeration order.
func sortedFilenames(tags map[string]metadata.Tag) []string {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ki, ok := numericKey(names[i])
		if !ok {
			ki = unnumberedKey
		}
		kj, ok := numericKey(names[j])
		if !ok {
			kj = unnumberedKey
		}
		if ki != kj {
			return ki < kj
		}
		return names[i] < names[j]
	})
	return names
}
