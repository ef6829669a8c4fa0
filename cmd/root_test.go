package cmd

import (
	"errors"
	"fmt"
	"testing"

	"dealradar/config"
	"dealradar/pipeline"
	"dealradar/source"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid config", fmt.Errorf("load: %w", config.ErrInvalid), exitConfig},
		{"bad seed file", fmt.Errorf("fetch: %w", source.ErrSeedInvalid), exitConfig},
		{"source down", fmt.Errorf("fetch: %w", source.ErrUnavailable), exitUnavailable},
		{"all records rejected", fmt.Errorf("run: %w", pipeline.ErrNoValidListings), exitNoListings},
		{"anything else", errors.New("disk full"), exitFailure},
	}

	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("%s: exitCode() = %d, want %d", tt.name, got, tt.want)
		}
	}
}
