// Package storage keeps track of the disks uploads can be sent to.
package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// Registry is a name to disk lookup. It implements simpleupload.DiskResolver.
type Registry struct {
	mu    sync.RWMutex
	disks map[string]simpleupload.Disk
}

// NewRegistry creates a registry holding disks, keyed by their names
func NewRegistry(disks ...simpleupload.Disk) *Registry {
	r := &Registry{disks: make(map[string]simpleupload.Disk)}
	for _, d := range disks {
		r.Register(d)
	}
	return r
}

// Register adds or replaces a disk
func (r *Registry) Register(disk simpleupload.Disk) {
	if disk == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disks[disk.Name()] = disk
}

// Disk returns the disk called name
func (r *Registry) Disk(name string) (simpleupload.Disk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	disk, exists := r.disks[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", simpleupload.ErrDiskNotFound, name)
	}
	return disk, nil
}

// Names lists the registered disks in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.disks))
	for name := range r.disks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
