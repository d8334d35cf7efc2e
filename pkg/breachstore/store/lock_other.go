//go:build !unix

package store

import "os"

// Platforms without flock run unlocked.
func tryLock(*os.File) error { return nil }

func unlock(*os.File) {}
