package store

import (
	"errors"
	"reflect"
	"testing"
)

func TestChunkRange(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		chunkSize int
		want      [][2]int
	}{
		{"even split", 10, 5, [][2]int{{0, 5}, {5, 10}}},
		{"uneven tail", 7, 3, [][2]int{{0, 3}, {3, 6}, {6, 7}}},
		{"single chunk", 4, 100, [][2]int{{0, 4}}},
		{"zero chunk size covers all at once", 4, 0, [][2]int{{0, 4}}},
		{"empty total", 0, 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got [][2]int
			err := ChunkRange(tt.total, tt.chunkSize, func(start, end int) error {
				got = append(got, [2]int{start, end})
				return nil
			})
			if err != nil {
				t.Fatalf("ChunkRange() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("windows = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChunkRange_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := ChunkRange(10, 2, func(start, end int) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
