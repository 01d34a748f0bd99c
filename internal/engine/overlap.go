package engine

import (
	"sort"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
)

// OverlapResult partitions every distinct fingerprint into groups reported by
// more than one tool (Overlap) and groups reported by exactly one (Unique).
// Both slices are sorted by fingerprint. Total == len(Overlap)+len(Unique).
type OverlapResult struct {
	Overlap []schemas.OverlapGroup
	Unique  []schemas.OverlapGroup
	Total   int
}

// DetectOverlap folds every finding into a group keyed by its fingerprint.
// A tool that reports the same fingerprint twice is counted once. The result
// does not depend on map iteration order or on the order of each tool's list:
// tools are visited sorted and the representative of a group is chosen by
// a fixed ordering, not by arrival.
func DetectOverlap(findingsByTool map[string][]schemas.Finding) OverlapResult {
	groups := make(map[string]*schemas.OverlapGroup)
	owner := make(map[string]string)

	for _, tool := range sortedKeys(findingsByTool) {
		for _, f := range findingsByTool[tool] {
			fp := Fingerprint(f)
			g, ok := groups[fp]
			if !ok {
				groups[fp] = schemas.NewOverlapGroup(fp, f)
				groups[fp].Add(tool)
				owner[fp] = tool
				continue
			}
			if owner[fp] == tool && representativeLess(f, g.RepresentativeFinding) {
				g.RepresentativeFinding = f
			}
			g.Add(tool)
		}
	}

	result := OverlapResult{
		Overlap: []schemas.OverlapGroup{},
		Unique:  []schemas.OverlapGroup{},
		Total:   len(groups),
	}
	fingerprints := make([]string, 0, len(groups))
	for fp := range groups {
		fingerprints = append(fingerprints, fp)
	}
	sort.Strings(fingerprints)

	for _, fp := range fingerprints {
		g := groups[fp]
		if g.Shared() {
			result.Overlap = append(result.Overlap, *g)
		} else {
			result.Unique = append(result.Unique, *g)
		}
	}
	return result
}

// metadataJSON sorts map keys, so equal metadata always encodes equally.
var metadataJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// representativeLess orders findings that share a fingerprint and a tool.
// Only the non-identity fields can differ, so those decide. The order is
// total: findings that tie on every field compare equal.
func representativeLess(a, b schemas.Finding) bool {
	if a.Message != b.Message {
		return a.Message < b.Message
	}
	if a.Severity.Rank() != b.Severity.Rank() {
		return a.Severity.Rank() < b.Severity.Rank()
	}
	if a.Severity != b.Severity {
		return a.Severity < b.Severity
	}
	if c := compareOptional(a.Location.EndLine, b.Location.EndLine); c != 0 {
		return c < 0
	}
	if c := compareOptional(a.Location.StartColumn, b.Location.StartColumn); c != 0 {
		return c < 0
	}
	if c := compareOptional(a.Location.EndColumn, b.Location.EndColumn); c != 0 {
		return c < 0
	}
	if ma, mb := encodeMetadata(a.Metadata), encodeMetadata(b.Metadata); ma != mb {
		return ma < mb
	}
	return a.ID < b.ID
}

func encodeMetadata(m map[string]any) string {
	if len(m) == 0 {
		return ""
	}
	b, err := metadataJSON.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}

// compareOptional sorts absent values first.
func compareOptional(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
