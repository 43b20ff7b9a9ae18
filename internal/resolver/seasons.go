package resolver

import (
	"errors"
	"fmt"
	"sort"
)

// ErrSeasonUnavailable is returned when a request names seasons a feed does
// not cover.
var ErrSeasonUnavailable = errors.New("season not available")

// Metric is a stats family with its own coverage window.
type Metric string

const (
	MetricBasic   Metric = "basic"
	MetricNextGen Metric = "nextgen"
	MetricPFR     Metric = "pfr_advanced"
	MetricSnaps   Metric = "snap_counts"
	MetricPBP     Metric = "pbp"
)

// Coverage windows. LatestSeason moves with each new season.
const (
	EarliestSeason        = 1999
	LatestSeason          = 2025
	EarliestNextGenSeason = 2016
	EarliestPFRSeason     = 2018
	LatestPFRSeason       = 2024
	EarliestSnapSeason    = 2012
)

// Window returns the inclusive season range covered by m.
func Window(m Metric) (first, last int) {
	switch m {
	case MetricNextGen:
		return EarliestNextGenSeason, LatestSeason
	case MetricPFR:
		return EarliestPFRSeason, LatestPFRSeason
	case MetricSnaps:
		return EarliestSnapSeason, LatestSeason
	default:
		return EarliestSeason, LatestSeason
	}
}

// SplitSeasons partitions seasons into those inside and outside m's window,
// preserving order.
func SplitSeasons(seasons []int, m Metric) (valid, invalid []int) {
	first, last := Window(m)
	for _, s := range seasons {
		if s < first || s > last {
			invalid = append(invalid, s)
		} else {
			valid = append(valid, s)
		}
	}
	return valid, invalid
}

// ValidateSeasons returns the seasons unchanged, or ErrSeasonUnavailable
// naming every season outside m's window. Call it before any network fetch.
func ValidateSeasons(seasons []int, m Metric) ([]int, error) {
	valid, invalid := SplitSeasons(seasons, m)
	if len(invalid) == 0 {
		return valid, nil
	}
	sort.Ints(invalid)
	first, last := Window(m)
	return nil, fmt.Errorf("%w: %s covers %d to %d; invalid seasons requested: %v",
		ErrSeasonUnavailable, m, first, last, invalid)
}
