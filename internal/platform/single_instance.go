// Package platform guards a data directory against two processes editing
// the same timers at once.
package platform

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"path/filepath"
)

// ErrAlreadyRunning indicates another instance already holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

// InstanceGuard holds the single-instance lock.
type InstanceGuard struct {
	listener net.Listener
	address  string
}

// AcquireSingleInstance binds a localhost port derived from the app name and
// the data directory, so one data directory has at most one writer while
// separate directories can run side by side.
func AcquireSingleInstance(appName, dataDir string) (*InstanceGuard, error) {
	address := fmt.Sprintf("127.0.0.1:%d", portFromKey(lockKey(appName, dataDir)))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dataDir, ErrAlreadyRunning)
	}
	return &InstanceGuard{listener: listener, address: address}, nil
}

// Release frees the single instance lock.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	return guard.listener.Close()
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

func lockKey(appName, dataDir string) string {
	if absolute, err := filepath.Abs(dataDir); err == nil {
		dataDir = absolute
	}
	return appName + "\x00" + filepath.Clean(dataDir)
}

func portFromKey(key string) int {
	const (
		minPort = 20000
		maxPort = 39999
	)
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(key))
	rangeSize := maxPort - minPort + 1
	return minPort + int(hash.Sum32()%uint32(rangeSize))
}
