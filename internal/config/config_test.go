package config

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.5, cfg.GetConfThreshold())
	assert.Equal(t, time.Second/15, cfg.InferenceInterval())
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"negative camera":   func(c *Config) { c.Camera = -1 },
		"unknown source":    func(c *Config) { c.Source = "v4l" },
		"file without path": func(c *Config) { c.Source = SourceFile },
		"unknown display":   func(c *Config) { c.Display = "tty" },
		"zero width":        func(c *Config) { c.Width = 0 },
		"zero fps":          func(c *Config) { c.InferenceFPS = 0 },
		"conf above one":    func(c *Config) { c.ConfThreshold = 1.2 },
		"zero iou":          func(c *Config) { c.IoUThreshold = 0 },
		"odd input size":    func(c *Config) { c.InputSize = 100 },
		"negative frames":   func(c *Config) { c.MaxFrames = -3 },
		"zero probe":        func(c *Config) { c.ProbeCount = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfThresholdConcurrentAccess(t *testing.T) {
	cfg := NewDefaultConfig()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(v float64) {
			defer wg.Done()
			cfg.SetConfThreshold(v)
		}(float64(i) / 10)
		go func() {
			defer wg.Done()
			_ = cfg.GetConfThreshold()
		}()
	}
	wg.Wait()
	got := cfg.GetConfThreshold()
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 0.7)
}
