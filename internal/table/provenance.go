package table

import (
	"strconv"
	"strings"
)

const provenanceMarker = "_file"

// ProvenanceName returns the name given to the variant of base contributed
// by the source at ordinal origin, e.g. ("X", 2) -> "X_file2".
func ProvenanceName(base string, origin int) string {
	return base + provenanceMarker + strconv.Itoa(origin)
}

// SplitProvenance recovers base and origin from a name produced by
// ProvenanceName. Only a single trailing marker is stripped and the base must
// be non-empty; any other name is its own base with origin 0.
//
// It exists for tables that were written out and read back, where the
// explicit metadata on Column has been lost.
func SplitProvenance(name string) (base string, origin int) {
	idx := strings.LastIndex(name, provenanceMarker)
	if idx <= 0 {
		return name, 0
	}
	digits := name[idx+len(provenanceMarker):]
	if digits == "" {
		return name, 0
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return name, 0
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return name, 0
	}
	return name[:idx], n
}
