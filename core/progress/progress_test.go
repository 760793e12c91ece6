package progress

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name    string
		videos  []int64
		watched []int64
		exp     Result
	}{
		{"empty course", nil, []int64{1, 2}, Result{}},
		{"nil watched", []int64{1, 2}, nil, Result{Total: 2}},
		{"one of three", []int64{1, 2, 3}, []int64{2}, Result{Progress: 33, Watched: 1, Total: 3}},
		{"two of three", []int64{1, 2, 3}, []int64{1, 3}, Result{Progress: 67, Watched: 2, Total: 3}},
		{"all", []int64{1, 2, 3}, []int64{3, 2, 1}, Result{Progress: 100, Watched: 3, Total: 3, AllWatched: true}},
		{"other courses ignored", []int64{1, 2}, []int64{1, 9, 10}, Result{Progress: 50, Watched: 1, Total: 2}},
		{"duplicates", []int64{1, 1, 2}, []int64{1, 1, 1}, Result{Progress: 50, Watched: 1, Total: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.videos, tt.watched)
			if diff := cmp.Diff(tt.exp, got); diff != "" {
				t.Fatalf("wrong result, diff: %s", diff)
			}
		})
	}
}

// Random inputs: progress stays within bounds, is 100 exactly when every
// video is watched, and is 0 for an empty course.
func TestCalculateProperties(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		videos := randomIDs(rnd, rnd.Intn(8))
		watched := randomIDs(rnd, rnd.Intn(12))

		r := Calculate(videos, watched)

		if r.Progress < 0 || r.Progress > 100 {
			t.Fatalf("progress out of range: %+v", r)
		}

		if len(videos) == 0 {
			if r.Progress != 0 || r.AllWatched {
				t.Fatalf("empty course should be 0%% and not complete: %+v", r)
			}
			continue
		}

		all := true
		w := make(map[int64]bool)
		for _, id := range watched {
			w[id] = true
		}
		for _, id := range videos {
			if !w[id] {
				all = false
			}
		}

		if r.AllWatched != all {
			t.Fatalf("allWatched=%t, expected %t for videos=%v watched=%v", r.AllWatched, all, videos, watched)
		}
		if all != (r.Progress == 100) {
			t.Fatalf("100%% must match allWatched: %+v", r)
		}
	}
}

func randomIDs(rnd *rand.Rand, n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(rnd.Intn(10) + 1)
	}
	return ids
}
