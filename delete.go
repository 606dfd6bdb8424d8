package sdfat

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/sdfat/sdfat/checkpoint"
)

var (
	// ErrNotFound means no arena entry matched the name and path.
	ErrNotFound = errors.New("no entry with the given name and path")
	// ErrInconsistentState means the target was present in the in-memory
	// index but its 32-byte slot could not be located on the device. The
	// index and the volume have diverged; if it occurs during Delete the
	// FAT chain has already been freed.
	ErrInconsistentState = errors.New("entry indexed in memory but missing on device")
	// ErrChainCycle rejects FAT chains that loop instead of reaching an
	// end-of-chain marker.
	ErrChainCycle = errors.New("FAT chain loops back on itself")
)

// Delete removes the file with the given 8.3 name. parents names the
// enclosing directories from the immediate parent up to, but not
// including, the root; an empty list addresses a file directly in the
// root directory.
//
// The operation is two-phase and not atomic: the FAT chain is freed first,
// then the directory entry is tombstoned. A failure in the second phase is
// reported as ErrInconsistentState with the chain already freed. Only the
// primary FAT copy is updated.
func (fs *Fs) Delete(name [11]byte, parents [][11]byte) error {
	index, err := fs.resolve(name, parents)
	if err != nil {
		return err
	}
	target := fs.arena.at(index)

	// A file that never got a cluster (size 0) has nothing to free.
	if !isReservedCluster(target.StartCluster) {
		if err := fs.freeChain(target.StartCluster); err != nil {
			return err
		}
	}

	if err := fs.tombstone(index); err != nil {
		return err
	}

	target.Deleted = true
	return nil
}

// resolve scans the arena for an entry whose name matches and whose parent
// chain spells out exactly the given path. The first fully verified match
// wins.
func (fs *Fs) resolve(name [11]byte, parents [][11]byte) (int, error) {
	for i := 0; i < fs.arena.len(); i++ {
		entry := fs.arena.at(i)
		if !entry.InUse || entry.Deleted || entry.Name != name {
			continue
		}
		if fs.pathMatches(entry, parents) {
			return i, nil
		}
	}
	return 0, checkpoint.From(ErrNotFound)
}

// pathMatches walks the entry's ancestor chain against the path segments.
// The chain must consume every segment and end exactly at the root.
func (fs *Fs) pathMatches(entry *Entry, parents [][11]byte) bool {
	current := entry.Parent
	for _, want := range parents {
		if current == NoParent {
			return false
		}
		ancestor := fs.arena.at(current)
		if ancestor.Name != want {
			return false
		}
		current = ancestor.Parent
	}
	return current == NoParent
}

// freeChain walks the file's FAT chain from start and zeroes every slot it
// visits, one FAT-sector read and one write per cluster. Consecutive
// clusters in the same FAT sector cost a redundant re-read; the simplicity
// is kept over batching.
func (fs *Fs) freeChain(start Uint32BE) error {
	visited := map[uint32]bool{}
	cluster := start

	for {
		if visited[cluster.Uint32()] {
			return checkpoint.From(ErrChainCycle)
		}
		visited[cluster.Uint32()] = true

		sectorOffset, byteIndex := fs.clusterToFATLocation(cluster)
		lba := fs.fatBeginLBA.Add(sectorOffset)

		block, err := fs.device.ReadBlock(lba)
		if err != nil {
			return checkpoint.Wrap(err, ErrDevice)
		}

		next := uint32BEFromLE(
			block[byteIndex],
			block[byteIndex+1],
			block[byteIndex+2],
			block[byteIndex+3],
		)

		block[byteIndex] = 0
		block[byteIndex+1] = 0
		block[byteIndex+2] = 0
		block[byteIndex+3] = 0

		if err := fs.device.WriteBlock(lba, block); err != nil {
			return checkpoint.Wrap(err, ErrDevice)
		}

		if isEndOfChain(next) {
			return nil
		}
		cluster = next
	}
}

// tombstone rewrites the resolved entry's 32-byte slot on the device: the
// first name byte becomes 0xE5 and the high-order cluster half is zeroed.
// The low-order half at offsets 26-27 is left untouched, unlike the
// conventional FAT32 delete which clears both halves.
func (fs *Fs) tombstone(index int) error {
	entry := fs.arena.at(index)

	sector := fs.clusterToSector(fs.volumeID.RootCluster)
	if entry.Parent != NoParent {
		sector = fs.clusterToSector(fs.arena.at(entry.Parent).StartCluster)
	}

	clusterHI, clusterLO := entry.StartCluster.halves()

	for {
		block, err := fs.device.ReadBlock(sector)
		if err != nil {
			return checkpoint.Wrap(err, ErrDevice)
		}

		for slot := 0; slot < entriesPerSector; slot++ {
			raw := block[slot*bytesPerEntry : (slot+1)*bytesPerEntry]

			if raw[0] == entryTerminator {
				return checkpoint.From(ErrInconsistentState)
			}
			if raw[0] == entryDeleted {
				continue
			}

			header := EntryHeader{}
			if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &header); err != nil {
				return checkpoint.From(err)
			}

			if header.Attribute != entry.Attribute ||
				header.Name != entry.Name ||
				header.FirstClusterHI != clusterHI ||
				header.FirstClusterLO != clusterLO {
				continue
			}

			offset := slot * bytesPerEntry
			block[offset] = entryDeleted
			block[offset+20] = 0
			block[offset+21] = 0

			return checkpoint.Wrap(fs.device.WriteBlock(sector, block), ErrDevice)
		}

		sector = sector.Add(NewUint32BE(1))
	}
}
