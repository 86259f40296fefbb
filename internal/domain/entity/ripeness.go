package entity

import "fmt"

// RipenessReport is the outcome of one analysis: banana counts per ripeness
// category plus a free-text summary. It is never mutated after creation.
type RipenessReport struct {
	TotalCount       int    `json:"total_count"`
	UnripeCount      int    `json:"unripe_count"`
	RipeCount        int    `json:"ripe_count"`
	OverripeCount    int    `json:"overripe_count"`
	DetailedAnalysis string `json:"detailed_analysis"`
}

// CategorySum returns unripe + ripe + overripe.
func (r RipenessReport) CategorySum() int {
	return r.UnripeCount + r.RipeCount + r.OverripeCount
}

// Validate checks that counts are non-negative and that the total matches
// the sum of the categories.
func (r RipenessReport) Validate() error {
	if r.TotalCount < 0 || r.UnripeCount < 0 || r.RipeCount < 0 || r.OverripeCount < 0 {
		return fmt.Errorf("negative count in report (total=%d unripe=%d ripe=%d overripe=%d)",
			r.TotalCount, r.UnripeCount, r.RipeCount, r.OverripeCount)
	}
	if sum := r.CategorySum(); sum != r.TotalCount {
		return fmt.Errorf("total_count %d does not match category sum %d", r.TotalCount, sum)
	}
	return nil
}
