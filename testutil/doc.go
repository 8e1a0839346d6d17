// Package testutil provides testing utilities for stboxidx.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random bounding boxes and computing
// exact overlap answers to check index results against.
//
// # Random Box Generation
//
//	rng := testutil.NewRNG(seed)
//	boxes := rng.XYBoxes(1000, 100, 5)     // 1000 boxes in [0,100)², side < 5
//	boxes = rng.STBoxes(1000, 100, 5, 24)  // plus a period within one day
//
// # Ground Truth
//
//	ids := testutil.BruteForceOverlaps(boxes, ids, query)
package testutil
