// Package sdfat is a FAT32 filesystem engine for raw block-addressable
// storage, built for SD cards driven over a byte-oriented command bus. It
// parses the MBR and volume ID, mirrors the directory tree into a bounded
// in-memory index and deletes files by freeing their FAT chain and
// tombstoning their directory entry.
//
// The engine is single-threaded by contract: one logical owner constructs
// it and calls it. It provides no internal locking. Deletion updates only
// the primary FAT copy; a second FAT mirror, if present, is left stale.
package sdfat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"

	"github.com/sdfat/sdfat/checkpoint"
)

// Construction-fatal errors. No partially built Fs is ever returned.
var (
	ErrInvalidSignature         = errors.New("boot sector signature mismatch")
	ErrUnsupportedPartitionType = errors.New("partition type code is not FAT32")
)

// Fs is one mounted FAT32 volume. The boot-sector metadata and the derived
// geometry constants are read once during New and never recomputed; the
// entry arena is mutated only by Delete.
type Fs struct {
	device BlockDevice

	mbr      MasterBootRecord
	volumeID VolumeID

	fatBeginLBA     Uint32BE
	clusterBeginLBA Uint32BE

	arena *arena
}

// New constructs an engine over the given device. It reads the MBR and the
// volume ID, derives the FAT and cluster base addresses and scans the whole
// directory tree into the entry index. Any failure aborts construction.
func New(device BlockDevice) (*Fs, error) {
	return NewWithCapacity(device, DefaultArenaCapacity)
}

// NewWithCapacity is New with a caller-chosen entry index capacity.
func NewWithCapacity(device BlockDevice, capacity int) (*Fs, error) {
	fs := &Fs{
		device: device,
		arena:  newArena(capacity),
	}

	if err := fs.readMasterBootRecord(); err != nil {
		return nil, err
	}

	if err := fs.readVolumeID(NewUint32BE(fs.mbr.Partition.LBABegin)); err != nil {
		return nil, err
	}

	// fat_begin_lba = Partition_LBA_Begin + Number_of_Reserved_Sectors
	fs.fatBeginLBA = NewUint32BE(fs.mbr.Partition.LBABegin).
		Add(NewUint32BE(uint32(fs.volumeID.ReservedSectors)))

	// cluster_begin_lba = fat_begin_lba + Number_of_FATs * Sectors_Per_FAT
	totalFATSectors := Uint32BE{}
	for i := byte(0); i < fs.volumeID.NumFATs; i++ {
		totalFATSectors = totalFATSectors.Add(NewUint32BE(fs.volumeID.SectorsPerFAT))
	}
	fs.clusterBeginLBA = fs.fatBeginLBA.Add(totalFATSectors)

	if err := fs.buildTree(); err != nil {
		return nil, err
	}

	return fs, nil
}

// readMasterBootRecord reads block 0 and ingests the first partition slot.
// It fails on a device error, a partition type code other than 0x0B/0x0C,
// or a bad trailing signature.
func (fs *Fs) readMasterBootRecord() error {
	block, err := fs.device.ReadBlock(Uint32BE{})
	if err != nil {
		return checkpoint.Wrap(err, ErrDevice)
	}

	err = binary.Read(
		bytes.NewReader(block[mbrPartitionOffset:mbrPartitionOffset+16]),
		binary.LittleEndian,
		&fs.mbr.Partition,
	)
	if err != nil {
		return checkpoint.From(err)
	}

	fs.mbr.Signature[0] = block[510]
	fs.mbr.Signature[1] = block[511]

	if !validBootSignature(fs.mbr.Signature) {
		return checkpoint.From(ErrInvalidSignature)
	}

	if fs.mbr.Partition.TypeCode != PartitionTypeFAT32CHS &&
		fs.mbr.Partition.TypeCode != PartitionTypeFAT32LBA {
		return checkpoint.From(ErrUnsupportedPartitionType)
	}

	return nil
}

// readVolumeID reads the BIOS Parameter Block at the partition start and
// fills the immutable volume geometry.
func (fs *Fs) readVolumeID(startLBA Uint32BE) error {
	block, err := fs.device.ReadBlock(startLBA)
	if err != nil {
		return checkpoint.Wrap(err, ErrDevice)
	}

	bpb := BPB{}
	if err := binary.Read(bytes.NewReader(block[:]), binary.LittleEndian, &bpb); err != nil {
		return checkpoint.From(err)
	}

	signature := [2]byte{block[510], block[511]}
	if !validBootSignature(signature) {
		return checkpoint.From(ErrInvalidSignature)
	}

	totalSectors := uint32(bpb.TotalSectors16)
	if totalSectors == 0 {
		totalSectors = bpb.TotalSectors32
	}

	fs.volumeID = VolumeID{
		BytesPerSector:    bpb.BytesPerSector,
		SectorsPerCluster: bpb.SectorsPerCluster,
		ReservedSectors:   bpb.ReservedSectorCount,
		NumFATs:           bpb.NumFATs,
		RootEntryCount:    bpb.RootEntryCount,
		TotalSectors:      totalSectors,
		Media:             MediaType(bpb.Media),
		SectorsPerTrack:   bpb.SectorsPerTrack,
		NumHeads:          bpb.NumberOfHeads,
		HiddenSectors:     bpb.HiddenSectors,
		SectorsPerFAT:     bpb.FATSize32,
		RootCluster:       NewUint32BE(bpb.RootCluster),
		Signature:         signature,
	}

	return nil
}

// validBootSignature accepts 0x55AA in either byte order since the two
// orderings appear mixed across card formatters and documentation.
func validBootSignature(signature [2]byte) bool {
	return (signature[0] == 0x55 && signature[1] == 0xAA) ||
		(signature[0] == 0xAA && signature[1] == 0x55)
}

// MasterBootRecord returns the ingested part of sector 0.
func (fs *Fs) MasterBootRecord() MasterBootRecord {
	return fs.mbr
}

// VolumeID returns the parsed volume geometry.
func (fs *Fs) VolumeID() VolumeID {
	return fs.volumeID
}

// FATBeginLBA returns the first sector of the primary FAT.
func (fs *Fs) FATBeginLBA() Uint32BE {
	return fs.fatBeginLBA
}

// ClusterBeginLBA returns the first sector of the data region.
func (fs *Fs) ClusterBeginLBA() Uint32BE {
	return fs.clusterBeginLBA
}

// Entries returns a copy of the directory index in pre-order.
func (fs *Fs) Entries() []Entry {
	entries := make([]Entry, fs.arena.len())
	copy(entries, fs.arena.entries)
	return entries
}

// Children returns the live entries whose enclosing directory is the given
// arena index; pass NoParent for the root directory.
func (fs *Fs) Children(parent int) []Entry {
	var children []Entry
	for i := 0; i < fs.arena.len(); i++ {
		e := fs.arena.at(i)
		if e.InUse && !e.Deleted && e.Parent == parent {
			children = append(children, *e)
		}
	}
	return children
}

// Label returns the volume label with trailing blanks trimmed, or an empty
// string if the root directory carries no label entry.
func (fs *Fs) Label() string {
	for i := 0; i < fs.arena.len(); i++ {
		e := fs.arena.at(i)
		if e.InUse && !e.Deleted && e.Type == EntryVolumeLabel {
			return strings.TrimRight(string(e.Name[:]), " ")
		}
	}
	return ""
}
