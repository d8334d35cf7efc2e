package tuner

import (
	"fmt"
	"strings"
)

// Sort argument limits.
const (
	// maxParallel caps sort --parallel; GNU sort gains little beyond this.
	maxParallel = 16

	// minBufferBytes is the smallest -S value handed out.
	minBufferBytes = 64 << 20

	// maxBufferBytes caps -S so a huge host does not pin all its memory.
	maxBufferBytes = 32 << 30

	// bufferFraction of available RAM is given to sort.
	bufferFraction = 0.5
)

// SortConfig holds the arguments passed to the external sort.
type SortConfig struct {
	// Parallel is the --parallel value.
	Parallel int

	// Buffer is the -S value, e.g. "2048M" or "50%".
	Buffer string
}

// Args returns the sort flags for c.
func (c SortConfig) Args() []string {
	return []string{"-S", c.Buffer, fmt.Sprintf("--parallel=%d", c.Parallel)}
}

// Calculate returns sort arguments for the given resources:
//   - Parallel: one thread per core, capped at 16
//   - Buffer: half of available RAM, clamped to 64 MiB..32 GiB
func Calculate(resources SystemResources) SortConfig {
	parallel := max(resources.CPUCores, 1)
	parallel = min(parallel, maxParallel)

	buffer := int64(float64(resources.AvailableRAM) * bufferFraction)
	buffer = max(buffer, minBufferBytes)
	buffer = min(buffer, maxBufferBytes)

	return SortConfig{
		Parallel: parallel,
		Buffer:   fmt.Sprintf("%dM", buffer>>20),
	}
}

// CalculateWithOverrides applies user overrides to the calculated config.
// An empty buffer or a parallel value <= 0 keeps the calculated value.
func CalculateWithOverrides(resources SystemResources, buffer string, parallel int) SortConfig {
	cfg := Calculate(resources)
	if b := strings.TrimSpace(buffer); b != "" {
		cfg.Buffer = b
	}
	if parallel > 0 {
		cfg.Parallel = min(parallel, maxParallel)
	}
	return cfg
}

// Auto detects resources and applies overrides. Detection failures fall
// back to the resources that could be read.
func Auto(buffer string, parallel int) SortConfig {
	resources, _ := Detect()
	return CalculateWithOverrides(resources, buffer, parallel)
}
