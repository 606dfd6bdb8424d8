// File model contains the structs which match the on-disk structures of a
// FAT32 volume. Multi-byte fields are little-endian on disk and are decoded
// with binary.Read; the engine re-packs addresses and counts into Uint32BE
// before doing any arithmetic on them.

package sdfat

// SectorSize is the only block size this engine supports. SD cards in SPI
// mode transfer fixed 512-byte blocks.
const SectorSize = 512

const (
	bytesPerEntry       = 32
	entriesPerSector    = SectorSize / bytesPerEntry
	fatEntriesPerSector = SectorSize / 4
)

// Partition type codes that mark a FAT32 partition in the MBR.
const (
	PartitionTypeFAT32CHS = 0x0B
	PartitionTypeFAT32LBA = 0x0C
)

// Directory entry attribute bits.
const (
	AttrReadOnly    = 0x01
	AttrHidden      = 0x02
	AttrSystem      = 0x04
	AttrVolumeLabel = 0x08
	AttrDirectory   = 0x10
	AttrArchive     = 0x20
	// AttrLongName marks a long-file-name fragment. These entries are
	// recognized only to be skipped, never decoded.
	AttrLongName = 0x0F
)

// First-name-byte markers in a directory slot.
const (
	entryTerminator = 0x00
	entryDeleted    = 0xE5
)

// mbrPartitionOffset is the byte offset of the first partition slot inside
// the MBR. The remaining three slots exist on disk but are not ingested.
const mbrPartitionOffset = 446

// PartitionEntry is one 16-byte partition slot of the MBR. The CHS fields
// are ignored; only the type code and the partition start matter.
type PartitionEntry struct {
	BootFlag   byte
	CHSBegin   [3]byte
	TypeCode   byte
	CHSEnd     [3]byte
	LBABegin   uint32
	NumSectors uint32
}

// MasterBootRecord holds the ingested part of sector 0.
type MasterBootRecord struct {
	Partition PartitionEntry
	Signature [2]byte
}

// BPB is the BIOS Parameter Block at the start of the volume, including the
// FAT32-specific extension. Field order matches the on-disk layout so the
// whole struct can be filled by one binary.Read.
type BPB struct {
	BSJumpBoot          [3]byte
	BSOEMName           [8]byte
	BytesPerSector      uint16
	SectorsPerCluster   byte
	ReservedSectorCount uint16
	NumFATs             byte
	RootEntryCount      uint16
	TotalSectors16      uint16
	Media               byte
	FATSize16           uint16
	SectorsPerTrack     uint16
	NumberOfHeads       uint16
	HiddenSectors       uint32
	TotalSectors32      uint32
	FATSize32           uint32
	ExtFlags            uint16
	FSVersion           uint16
	RootCluster         uint32
	FSInfo              uint16
	BkBootSector        uint16
	Reserved            [12]byte
	BSDriveNumber       byte
	BSReserved1         byte
	BSBootSignature     byte
	BSVolumeID          uint32
	BSVolumeLabel       [11]byte
	BSFileSystemType    [8]byte
}

// MediaType tags the media descriptor byte of the BPB.
type MediaType byte

const (
	MediaRemovable MediaType = 0xF0
	MediaFixed     MediaType = 0xF8
)

func (m MediaType) String() string {
	switch m {
	case MediaRemovable:
		return "removable disk"
	case MediaFixed:
		return "fixed disk"
	}
	return "unknown media"
}

// VolumeID is the parsed, immutable volume geometry the engine works with.
type VolumeID struct {
	BytesPerSector    uint16
	SectorsPerCluster byte
	ReservedSectors   uint16
	NumFATs           byte
	RootEntryCount    uint16
	TotalSectors      uint32
	Media             MediaType
	SectorsPerTrack   uint16
	NumHeads          uint16
	HiddenSectors     uint32
	SectorsPerFAT     uint32
	RootCluster       Uint32BE
	Signature         [2]byte
}

// EntryHeader is one 32-byte directory slot as stored on disk.
type EntryHeader struct {
	Name            [11]byte
	Attribute       byte
	NTReserved      byte
	CreateTimeTenth byte
	CreateTime      uint16
	CreateDate      uint16
	LastAccessDate  uint16
	FirstClusterHI  uint16
	WriteTime       uint16
	WriteDate       uint16
	FirstClusterLO  uint16
	FileSize        uint32
}
