// SPDX-License-Identifier: MPL-2.0

package categorize

import (
	"bytes"
	"encoding/json"
	"testing"

	"extscan-cli/pkg/manifest"
)

func sampleInput() ([]manifest.ContributionEntry, []manifest.ActivationEvent, []manifest.DriftRecord) {
	contributions := []manifest.ContributionEntry{
		{SourcePath: "a/package.json", ContributionType: "commands", ItemCount: 3},
		{SourcePath: "b/package.json", ContributionType: "commands", ItemCount: 2},
		{SourcePath: "a/package.json", ContributionType: "configuration", ItemCount: 1},
		{SourcePath: "c/package.json", ContributionType: "views", ItemCount: 5},
	}
	activations := []manifest.ActivationEvent{
		{SourcePath: "a/package.json", EventString: "onCommand:x.run", EventCategory: manifest.EventCategoryCommand},
		{SourcePath: "a/package.json", EventString: "onLanguage:go", EventCategory: manifest.EventCategoryLanguage},
		{SourcePath: "b/package.json", EventString: "onCommand:y.run", EventCategory: manifest.EventCategoryCommand},
	}
	drift := []manifest.DriftRecord{
		{SourcePath: "a/package.json", Key: "fooBarBaz"},
		{SourcePath: "b/package.json", Key: "fooBarBaz"},
		{SourcePath: "b/package.json", Key: "quux"},
	}
	return contributions, activations, drift
}

func TestContributionRankingOrder(t *testing.T) {
	contributions, activations, drift := sampleInput()
	result := Categorize(contributions, activations, drift)

	want := []ContributionUsage{
		{ContributionType: "commands", TotalItemCount: 5, DistinctFileCount: 2},
		{ContributionType: "views", TotalItemCount: 5, DistinctFileCount: 1},
		{ContributionType: "configuration", TotalItemCount: 1, DistinctFileCount: 1},
	}
	if len(result.ContributionRanking) != len(want) {
		t.Fatalf("got %d rows, want %d: %+v", len(result.ContributionRanking), len(want), result.ContributionRanking)
	}
	for i, w := range want {
		if result.ContributionRanking[i] != w {
			t.Errorf("row %d: got %+v, want %+v", i, result.ContributionRanking[i], w)
		}
	}
}

func TestActivationRankingIncludesZeroCountCategories(t *testing.T) {
	contributions, activations, drift := sampleInput()
	result := Categorize(contributions, activations, drift)

	if len(result.ActivationRanking) != len(manifest.EventCategories()) {
		t.Fatalf("got %d categories, want %d", len(result.ActivationRanking), len(manifest.EventCategories()))
	}
	if top := result.ActivationRanking[0]; top.EventCategory != manifest.EventCategoryCommand || top.OccurrenceCount != 2 {
		t.Fatalf("unexpected top category: %+v", top)
	}

	zeroes := 0
	for _, row := range result.ActivationRanking {
		if row.OccurrenceCount == 0 {
			zeroes++
		}
	}
	if zeroes != len(manifest.EventCategories())-2 {
		t.Fatalf("got %d zero-count categories, want %d", zeroes, len(manifest.EventCategories())-2)
	}
}

func TestActivationRankingZeroCountTiesSortByName(t *testing.T) {
	result := Categorize(nil, nil, nil)

	for i := 1; i < len(result.ActivationRanking); i++ {
		prev, cur := result.ActivationRanking[i-1], result.ActivationRanking[i]
		if string(prev.EventCategory) > string(cur.EventCategory) {
			t.Fatalf("tied rows out of lexical order: %q before %q", prev.EventCategory, cur.EventCategory)
		}
	}
}

func TestFileRollupsSortedByPath(t *testing.T) {
	contributions, activations, drift := sampleInput()
	result := Categorize(contributions, activations, drift)

	wantPaths := []string{"a/package.json", "b/package.json", "c/package.json"}
	if len(result.FileRollups) != len(wantPaths) {
		t.Fatalf("got %d rollups, want %d: %+v", len(result.FileRollups), len(wantPaths), result.FileRollups)
	}
	for i, path := range wantPaths {
		if result.FileRollups[i].SourcePath != path {
			t.Errorf("rollup %d: path %q, want %q", i, result.FileRollups[i].SourcePath, path)
		}
	}

	a := result.FileRollups[0]
	if len(a.ContributionTypes) != 2 || a.ContributionTypes[0] != "commands" || a.ContributionTypes[1] != "configuration" {
		t.Errorf("rollup a: types %v", a.ContributionTypes)
	}
	if a.ActivationEventCount != 2 {
		t.Errorf("rollup a: activation count %d, want 2", a.ActivationEventCount)
	}

	// c contributes views but declares no activation events.
	if c := result.FileRollups[2]; c.ActivationEventCount != 0 || len(c.ContributionTypes) != 1 {
		t.Errorf("rollup c: %+v", c)
	}
}

func TestDriftRankingCountsDistinctFiles(t *testing.T) {
	contributions, activations, drift := sampleInput()
	result := Categorize(contributions, activations, drift)

	want := []DriftUsage{
		{Key: "fooBarBaz", FileCount: 2},
		{Key: "quux", FileCount: 1},
	}
	if len(result.DriftRanking) != len(want) {
		t.Fatalf("got %d rows, want %d", len(result.DriftRanking), len(want))
	}
	for i, w := range want {
		if result.DriftRanking[i] != w {
			t.Errorf("row %d: got %+v, want %+v", i, result.DriftRanking[i], w)
		}
	}
}

func TestCategorizeIsDeterministic(t *testing.T) {
	contributions, activations, drift := sampleInput()

	first, err := json.Marshal(Categorize(contributions, activations, drift))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 50; i++ {
		next, err := json.Marshal(Categorize(contributions, activations, drift))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !bytes.Equal(first, next) {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i, first, next)
		}
	}
}
