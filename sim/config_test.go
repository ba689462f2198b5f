package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nf-analysis/stateless-trace/sim/cache"
	"github.com/nf-analysis/stateless-trace/sim/trace"
)

func TestDefaultPipelineConfig_IsValid(t *testing.T) {
	cfg := DefaultPipelineConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, cache.DefaultConfig(), cfg.Cache)
	assert.Equal(t, trace.TraceLevelNone, cfg.TraceLevel)
}

func TestPipelineConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PipelineConfig)
		wantErr bool
		isCache bool
	}{
		{name: "empty trace level", mutate: func(c *PipelineConfig) { c.TraceLevel = "" }},
		{name: "decisions", mutate: func(c *PipelineConfig) { c.TraceLevel = trace.TraceLevelDecisions }},
		{name: "unknown trace level", mutate: func(c *PipelineConfig) { c.TraceLevel = "verbose" }, wantErr: true},
		{name: "bad cache", mutate: func(c *PipelineConfig) { c.Cache.CacheSize = 1000 }, wantErr: true, isCache: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPipelineConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			var ce *cache.ConfigurationError
			assert.Equal(t, tt.isCache, errors.As(err, &ce))
		})
	}
}
