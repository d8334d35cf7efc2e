// Package tuner sizes the external sort used by dedup from the machine's
// CPU count and memory.
package tuner

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM int64

	// AvailableRAM is the free RAM in bytes. On some platforms this is an
	// estimate derived from TotalRAM.
	AvailableRAM int64
}
