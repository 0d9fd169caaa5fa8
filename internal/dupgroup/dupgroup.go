// Package dupgroup clusters a coin's photographs into near-duplicate sets by
// the Hamming distance of their difference hashes.
package dupgroup

import (
	"mintada/internal/catalog"
	"mintada/internal/imaging"
)

// DefaultThreshold is the largest Hamming distance still considered a
// duplicate.
const DefaultThreshold = 9

// Item is a hashed sample taking part in grouping.
type Item struct {
	SampleID int64
	Hash     imaging.Hash
}

// Group is a set of two or more near-duplicate samples. IDs start at 1 and
// follow the order in which anchors were visited.
type Group struct {
	ID      int
	Members []int64
}

// Candidates selects the samples eligible for grouping: those with an
// obverse image that are not known combined images and whose hash is known.
// Order follows samples.
func Candidates(samples []catalog.Sample, hashes map[int64]imaging.Hash) []Item {
	items := make([]Item, 0, len(samples))
	for _, s := range samples {
		if !s.HasObverse() || s.IsCombined() {
			continue
		}
		h, ok := hashes[s.ID]
		if !ok {
			continue
		}
		items = append(items, Item{SampleID: s.ID, Hash: h})
	}
	return items
}

// Cluster partitions items in a single pass. Each unvisited item anchors a
// group holding every later unvisited item within threshold of the anchor.
// Membership is measured against the anchor only, so two items that are
// each close to a third but far from each other may land in different
// groups. Singletons are not reported.
func Cluster(items []Item, threshold int) []Group {
	visited := make([]bool, len(items))
	var groups []Group
	for i := range items {
		if visited[i] {
			continue
		}
		visited[i] = true
		members := []int64{items[i].SampleID}
		for j := i + 1; j < len(items); j++ {
			if visited[j] {
				continue
			}
			if imaging.HammingDistance(items[i].Hash, items[j].Hash) <= threshold {
				visited[j] = true
				members = append(members, items[j].SampleID)
			}
		}
		if len(members) > 1 {
			groups = append(groups, Group{ID: len(groups) + 1, Members: members})
		}
	}
	return groups
}

// Assign runs Cluster and returns the group id of every grouped sample.
func Assign(items []Item, threshold int) map[int64]int {
	ids := make(map[int64]int)
	for _, g := range Cluster(items, threshold) {
		for _, id := range g.Members {
			ids[id] = g.ID
		}
	}
	return ids
}
