package engine

import (
	"math"

	"github.com/xkilldash9x/scalpel-compare/api/schemas"
)

// ComputeEffectiveness derives per-tool metrics from the overlap partition.
//
// TotalDetections counts raw findings. UniqueDetections and SharedDetections
// count groups, so a tool repeating one fingerprint contributes one group but
// several detections; unique+shared may be lower than total.
func ComputeEffectiveness(findingsByTool map[string][]schemas.Finding, overlap OverlapResult) map[string]schemas.ToolMetrics {
	metrics := make(map[string]schemas.ToolMetrics, len(findingsByTool))
	for tool, findings := range findingsByTool {
		metrics[tool] = schemas.ToolMetrics{TotalDetections: len(findings)}
	}

	for _, g := range overlap.Unique {
		for tool := range g.DetectedBy {
			if m, ok := metrics[tool]; ok {
				m.UniqueDetections++
				metrics[tool] = m
			}
		}
	}
	for _, g := range overlap.Overlap {
		for tool := range g.DetectedBy {
			if m, ok := metrics[tool]; ok {
				m.SharedDetections++
				metrics[tool] = m
			}
		}
	}

	for tool, m := range metrics {
		m.UniquenessRate = roundPercent(m.ExactUniquenessRate())
		metrics[tool] = m
	}
	return metrics
}

// roundPercent rounds to two decimals for presentation.
func roundPercent(v float64) float64 {
	return math.Round(v*100) / 100
}
