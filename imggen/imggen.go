// Package imggen synthesizes minimal FAT32 volume images: an MBR with one
// partition, a BIOS Parameter Block, FAT copies and a directory tree. It
// exists for tests and for the mkimage demo tool; the images it produces
// are deliberately small and only as standard as the engine requires.
package imggen

import (
	"encoding/binary"

	"github.com/sdfat/sdfat"
)

// EndOfChain is a FAT value from the end-of-chain range.
const EndOfChain = 0x0FFFFFFF

// Volume accumulates the description of an image. The zero value is not
// usable; start from New.
type Volume struct {
	PartitionLBA      uint32
	SectorsPerCluster byte
	ReservedSectors   uint16
	NumFATs           byte
	SectorsPerFAT     uint32
	RootCluster       uint32

	fat        map[uint32]uint32
	dirs       map[uint32][][32]byte
	files      map[uint32][]byte
	maxCluster uint32
}

// New returns a volume with a small default geometry: partition at sector
// 2048, one sector per cluster, 32 reserved sectors, two 16-sector FATs,
// root directory in cluster 2.
func New() *Volume {
	return &Volume{
		PartitionLBA:      2048,
		SectorsPerCluster: 1,
		ReservedSectors:   32,
		NumFATs:           2,
		SectorsPerFAT:     16,
		RootCluster:       2,

		fat:        map[uint32]uint32{},
		dirs:       map[uint32][][32]byte{},
		files:      map[uint32][]byte{},
		maxCluster: 2,
	}
}

// SetFAT stores a FAT value for a cluster, in every FAT copy.
func (v *Volume) SetFAT(cluster, value uint32) {
	v.fat[cluster] = value
	v.touch(cluster)
}

// Chain links the given clusters into a FAT chain ending in an
// end-of-chain marker.
func (v *Volume) Chain(clusters ...uint32) {
	for i, c := range clusters {
		if i == len(clusters)-1 {
			v.SetFAT(c, EndOfChain)
		} else {
			v.SetFAT(c, clusters[i+1])
		}
	}
}

// RawEntry builds one 32-byte directory slot.
func RawEntry(name [11]byte, attr byte, cluster, size uint32) [32]byte {
	slot := [32]byte{}
	copy(slot[:11], name[:])
	slot[11] = attr
	binary.LittleEndian.PutUint16(slot[20:], uint16(cluster>>16))
	binary.LittleEndian.PutUint16(slot[26:], uint16(cluster))
	binary.LittleEndian.PutUint32(slot[28:], size)
	return slot
}

// AddRawEntry appends an arbitrary slot to a directory cluster.
func (v *Volume) AddRawEntry(dirCluster uint32, slot [32]byte) {
	v.dirs[dirCluster] = append(v.dirs[dirCluster], slot)
	v.touch(dirCluster)
}

// AddEntry appends a slot built from a human-readable 8.3 name.
func (v *Volume) AddEntry(dirCluster uint32, name string, attr byte, cluster, size uint32) {
	short, err := sdfat.ShortName(name)
	if err != nil {
		panic(err)
	}
	v.AddRawEntry(dirCluster, RawEntry(short, attr, cluster, size))
}

// AddLabel appends a volume label entry.
func (v *Volume) AddLabel(dirCluster uint32, label string) {
	short := [11]byte{}
	for i := range short {
		short[i] = ' '
	}
	copy(short[:], label)
	v.AddRawEntry(dirCluster, RawEntry(short, sdfat.AttrVolumeLabel, 0, 0))
}

// AddFile appends a file entry and, if content is given, lays the content
// out over the file's cluster chain. The chain must have been declared
// with Chain or SetFAT first when the content spans clusters; a
// single-cluster file gets its end-of-chain marker implicitly.
func (v *Volume) AddFile(dirCluster uint32, name string, startCluster, size uint32, content []byte) {
	v.AddEntry(dirCluster, name, sdfat.AttrArchive, startCluster, size)

	if startCluster < 2 {
		return
	}
	if _, ok := v.fat[startCluster]; !ok {
		v.SetFAT(startCluster, EndOfChain)
	}
	if content != nil {
		v.fillChain(startCluster, content)
	}
}

// AddDir appends a directory entry and seeds the new directory cluster
// with its "." and ".." pseudo-entries.
func (v *Volume) AddDir(dirCluster uint32, name string, startCluster uint32) {
	v.AddEntry(dirCluster, name, sdfat.AttrDirectory, startCluster, 0)
	v.SetFAT(startCluster, EndOfChain)

	dot := [11]byte{'.', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
	dotdot := [11]byte{'.', '.', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}
	v.AddRawEntry(startCluster, RawEntry(dot, sdfat.AttrDirectory, startCluster, 0))
	v.AddRawEntry(startCluster, RawEntry(dotdot, sdfat.AttrDirectory, dirCluster, 0))
}

func (v *Volume) touch(cluster uint32) {
	if cluster > v.maxCluster {
		v.maxCluster = cluster
	}
}

func (v *Volume) clusterSize() uint32 {
	return uint32(v.SectorsPerCluster) * sdfat.SectorSize
}

// fillChain writes content across the cluster chain starting at start.
func (v *Volume) fillChain(start uint32, content []byte) {
	cluster := start
	for len(content) > 0 {
		take := v.clusterSize()
		if uint32(len(content)) < take {
			take = uint32(len(content))
		}
		v.files[cluster] = content[:take]
		content = content[take:]

		next, ok := v.fat[cluster]
		if len(content) > 0 {
			if !ok || next >= EndOfChain-7 {
				panic("imggen: content longer than declared FAT chain")
			}
			cluster = next
		}
	}
}

// Bytes renders the image.
func (v *Volume) Bytes() []byte {
	clusterBegin := v.PartitionLBA + uint32(v.ReservedSectors) + uint32(v.NumFATs)*v.SectorsPerFAT
	// One spare cluster of slack so directory scans may run past the last
	// allocated cluster and still hit zeroed terminator slots.
	totalSectors := clusterBegin + (v.maxCluster-1)*uint32(v.SectorsPerCluster) + uint32(v.SectorsPerCluster)
	image := make([]byte, totalSectors*sdfat.SectorSize)

	// MBR, first partition slot only.
	mbr := image[:sdfat.SectorSize]
	partition := mbr[446:]
	partition[4] = sdfat.PartitionTypeFAT32LBA
	binary.LittleEndian.PutUint32(partition[8:], v.PartitionLBA)
	binary.LittleEndian.PutUint32(partition[12:], totalSectors-v.PartitionLBA)
	mbr[510] = 0x55
	mbr[511] = 0xAA

	// BIOS Parameter Block.
	bpb := image[v.PartitionLBA*sdfat.SectorSize:]
	binary.LittleEndian.PutUint16(bpb[11:], sdfat.SectorSize)
	bpb[13] = v.SectorsPerCluster
	binary.LittleEndian.PutUint16(bpb[14:], v.ReservedSectors)
	bpb[16] = v.NumFATs
	bpb[21] = byte(sdfat.MediaFixed)
	binary.LittleEndian.PutUint32(bpb[32:], totalSectors-v.PartitionLBA)
	binary.LittleEndian.PutUint32(bpb[36:], v.SectorsPerFAT)
	binary.LittleEndian.PutUint32(bpb[44:], v.RootCluster)
	bpb[510] = 0x55
	bpb[511] = 0xAA

	// FAT copies.
	fatBegin := v.PartitionLBA + uint32(v.ReservedSectors)
	for copyIndex := uint32(0); copyIndex < uint32(v.NumFATs); copyIndex++ {
		table := image[(fatBegin+copyIndex*v.SectorsPerFAT)*sdfat.SectorSize:]
		for cluster, value := range v.fat {
			binary.LittleEndian.PutUint32(table[cluster*4:], value)
		}
	}

	clusterOffset := func(cluster uint32) uint32 {
		return (clusterBegin + (cluster-2)*uint32(v.SectorsPerCluster)) * sdfat.SectorSize
	}

	// Directory clusters. Entries run over consecutive sectors from the
	// cluster start; slots left untouched stay zero and terminate the scan.
	for cluster, slots := range v.dirs {
		offset := clusterOffset(cluster)
		for _, slot := range slots {
			copy(image[offset:], slot[:])
			offset += 32
		}
	}

	// File contents.
	for cluster, content := range v.files {
		copy(image[clusterOffset(cluster):], content)
	}

	return image
}

// Device renders the image and wraps it in a RAM-backed block device.
func (v *Volume) Device() *sdfat.RAMDevice {
	return sdfat.NewRAMDevice(v.Bytes())
}
