package sdfat

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/sdfat/sdfat/checkpoint"
)

var (
	// ErrTooDeep rejects directory trees nested beyond maxTreeDepth.
	ErrTooDeep = errors.New("directory tree exceeds maximum depth")
	// ErrDirectoryCycle rejects volumes whose directory graph points a
	// subdirectory cluster back at an ancestor.
	ErrDirectoryCycle = errors.New("directory tree contains a cluster cycle")
)

// maxTreeDepth bounds the directory descent. FAT imposes no limit, but a
// deeper tree on a 100-entry index is corruption, not data.
const maxTreeDepth = 16

// treeFrame is one in-flight directory of the depth-first scan. slot is
// the next 32-byte slot to look at; when all 16 slots of the buffered
// sector are consumed without hitting the terminator, the scan advances to
// the following sector.
type treeFrame struct {
	sector  Uint32BE
	parent  int
	depth   int
	slot    int
	buffer  Block
	fetched bool
}

// buildTree scans the directory hierarchy starting at the root cluster and
// appends every surviving entry to the arena. The walk is depth-first with
// an explicit frame stack: when a subdirectory entry is appended, its
// directory is scanned to completion before the current sector's remaining
// slots, so the arena ends up in pre-order.
//
// Skipped without being retained: deleted entries, long-file-name
// fragments, hidden and system entries, and the "." / ".." pseudo-entries.
func (fs *Fs) buildTree() error {
	visited := map[uint32]bool{fs.volumeID.RootCluster.Uint32(): true}

	stack := make([]treeFrame, 0, maxTreeDepth)
	stack = append(stack, treeFrame{
		sector: fs.clusterToSector(fs.volumeID.RootCluster),
		parent: NoParent,
	})

	for len(stack) > 0 {
		frame := &stack[len(stack)-1]

		if !frame.fetched {
			block, err := fs.device.ReadBlock(frame.sector)
			if err != nil {
				return checkpoint.Wrap(err, ErrDevice)
			}
			frame.buffer = block
			frame.fetched = true
		}

		descended := false
		terminated := false

		for frame.slot < entriesPerSector {
			raw := frame.buffer[frame.slot*bytesPerEntry : (frame.slot+1)*bytesPerEntry]

			if raw[0] == entryTerminator {
				terminated = true
				break
			}

			frame.slot++

			if raw[0] == entryDeleted {
				continue
			}

			header := EntryHeader{}
			if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &header); err != nil {
				return checkpoint.From(err)
			}

			if header.Attribute == AttrLongName {
				continue
			}
			if header.Attribute&(AttrHidden|AttrSystem) != 0 {
				continue
			}
			if isDotEntry(header) {
				continue
			}

			entry := entryFromHeader(header, frame.parent)
			index, err := fs.arena.append(entry)
			if err != nil {
				return err
			}

			if entry.Type == EntryDirectory {
				if frame.depth+1 > maxTreeDepth {
					return checkpoint.From(ErrTooDeep)
				}
				cluster := entry.StartCluster.Uint32()
				if visited[cluster] {
					return checkpoint.From(ErrDirectoryCycle)
				}
				visited[cluster] = true

				child := treeFrame{
					sector: fs.clusterToSector(entry.StartCluster),
					parent: index,
					depth:  frame.depth + 1,
				}
				// frame is invalid after the append below.
				stack = append(stack, child)
				descended = true
				break
			}
		}

		if descended {
			continue
		}
		if terminated {
			stack = stack[:len(stack)-1]
			continue
		}

		// All 16 slots scanned without a terminator: the directory spills
		// into the next sector.
		frame.sector = frame.sector.Add(NewUint32BE(1))
		frame.slot = 0
		frame.fetched = false
	}

	return nil
}

// entryFromHeader converts an on-disk slot into an arena record,
// reassembling the split little-endian cluster halves and the size field
// into the engine's big-endian form.
func entryFromHeader(header EntryHeader, parent int) Entry {
	entry := Entry{
		InUse:        true,
		Parent:       parent,
		Attribute:    header.Attribute,
		Name:         header.Name,
		StartCluster: uint32BEFromHalves(header.FirstClusterHI, header.FirstClusterLO),
		Size:         NewUint32BE(header.FileSize),
		WriteTime:    header.WriteTime,
		WriteDate:    header.WriteDate,
	}

	switch {
	case header.Attribute&AttrVolumeLabel != 0:
		entry.Type = EntryVolumeLabel
	case header.Attribute&AttrDirectory != 0:
		entry.Type = EntryDirectory
	default:
		// Plain files may carry no attribute bits at all.
		entry.Type = EntryFile
	}

	return entry
}

// isDotEntry recognizes the "." and ".." self/parent pseudo-entries every
// subdirectory starts with.
func isDotEntry(header EntryHeader) bool {
	if header.Attribute&AttrDirectory == 0 {
		return false
	}
	if header.Name[0] != '.' {
		return false
	}
	if header.Name[1] != '.' && header.Name[1] != ' ' {
		return false
	}
	for _, b := range header.Name[2:] {
		if b != ' ' {
			return false
		}
	}
	return true
}
