package sdfat

import (
	"errors"

	"github.com/sdfat/sdfat/checkpoint"
)

// ErrReadFile wraps failures while assembling a file's contents.
var ErrReadFile = errors.New("could not read file completely")

// ReadFile resolves a file the same way Delete does and returns its whole
// contents by walking the cluster chain. A file with no allocated cluster
// or a recorded size of zero yields an empty slice. The FAT is only read,
// never written.
func (fs *Fs) ReadFile(name [11]byte, parents [][11]byte) ([]byte, error) {
	index, err := fs.resolve(name, parents)
	if err != nil {
		return nil, err
	}
	entry := fs.arena.at(index)

	size := int(entry.Size.Uint32())
	if size == 0 || isReservedCluster(entry.StartCluster) {
		return []byte{}, nil
	}

	content := make([]byte, 0, size)
	visited := map[uint32]bool{}
	cluster := entry.StartCluster

	for {
		if visited[cluster.Uint32()] {
			return nil, checkpoint.Wrap(ErrChainCycle, ErrReadFile)
		}
		visited[cluster.Uint32()] = true

		sector := fs.clusterToSector(cluster)
		for i := byte(0); i < fs.volumeID.SectorsPerCluster && len(content) < size; i++ {
			block, err := fs.device.ReadBlock(sector)
			if err != nil {
				return nil, checkpoint.Wrap(err, ErrReadFile)
			}

			take := size - len(content)
			if take > SectorSize {
				take = SectorSize
			}
			content = append(content, block[:take]...)

			sector = sector.Add(NewUint32BE(1))
		}

		if len(content) >= size {
			return content, nil
		}

		next, err := fs.readFATEntry(cluster)
		if err != nil {
			return nil, err
		}
		if isEndOfChain(next) {
			// The chain ended before the recorded size was reached.
			return content, checkpoint.Wrap(ErrReadFile, ErrInconsistentState)
		}
		cluster = next
	}
}

// readFATEntry returns the FAT value for the given cluster without
// modifying anything.
func (fs *Fs) readFATEntry(cluster Uint32BE) (Uint32BE, error) {
	sectorOffset, byteIndex := fs.clusterToFATLocation(cluster)

	block, err := fs.device.ReadBlock(fs.fatBeginLBA.Add(sectorOffset))
	if err != nil {
		return Uint32BE{}, checkpoint.Wrap(err, ErrDevice)
	}

	return uint32BEFromLE(
		block[byteIndex],
		block[byteIndex+1],
		block[byteIndex+2],
		block[byteIndex+3],
	), nil
}
