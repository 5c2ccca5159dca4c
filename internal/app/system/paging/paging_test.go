package paging_test

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/tripjournal/internal/app/system/paging"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		want    int64
		wantErr bool
	}{
		{"missing", "/", paging.PageSize, false},
		{"explicit", "/?limit=10", 10, false},
		{"clamped", "/?limit=100000", paging.MaxPageSize, false},
		{"zero", "/?limit=0", 0, true},
		{"negative", "/?limit=-5", 0, true},
		{"not a number", "/?limit=ten", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			got, err := paging.ParseLimit(r, paging.PageSize, paging.MaxPageSize)
			if tt.wantErr {
				if !errors.Is(err, paging.ErrBadLimit) {
					t.Fatalf("err = %v, want ErrBadLimit", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseLimit = %d, want %d", got, tt.want)
			}
		})
	}
}
