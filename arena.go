package sdfat

import (
	"errors"

	"github.com/sdfat/sdfat/checkpoint"
)

// ErrCapacityExceeded is returned when the directory scan discovers more
// entries than the arena can hold.
var ErrCapacityExceeded = errors.New("entry arena is full")

// DefaultArenaCapacity bounds the in-memory directory index. The engine is
// sized for small embedded volumes; use NewWithCapacity for larger trees.
const DefaultArenaCapacity = 100

// NoParent is the parent index of entries that live directly in the root
// directory. The root itself is never materialized as an arena element.
const NoParent = -1

// EntryType classifies a directory entry by its attribute bits.
type EntryType byte

const (
	EntryVolumeLabel EntryType = iota
	EntryDirectory
	EntryFile
	EntryLongName
)

func (t EntryType) String() string {
	switch t {
	case EntryVolumeLabel:
		return "volume label"
	case EntryDirectory:
		return "directory"
	case EntryFile:
		return "file"
	case EntryLongName:
		return "long name fragment"
	}
	return "invalid"
}

// Entry is one record of the flat directory index. Parent is the arena
// index of the enclosing directory; the whole tree is encoded by these
// back-references.
type Entry struct {
	InUse        bool
	Deleted      bool
	Parent       int
	Attribute    byte
	Type         EntryType
	Name         [11]byte
	StartCluster Uint32BE
	Size         Uint32BE
	WriteTime    uint16
	WriteDate    uint16
}

// arena is the bounded, contiguous store of directory entries. It grows
// only during tree construction and is populated in pre-order: a
// directory's entry always precedes all entries of its subtree.
type arena struct {
	entries  []Entry
	capacity int
}

func newArena(capacity int) *arena {
	return &arena{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

func (a *arena) append(e Entry) (int, error) {
	if len(a.entries) >= a.capacity {
		return 0, checkpoint.From(ErrCapacityExceeded)
	}
	a.entries = append(a.entries, e)
	return len(a.entries) - 1, nil
}

func (a *arena) at(i int) *Entry {
	return &a.entries[i]
}

func (a *arena) len() int {
	return len(a.entries)
}
