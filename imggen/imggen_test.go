package imggen

import (
	"encoding/binary"
	"testing"
)

func TestBytesLayout(t *testing.T) {
	volume := New()
	volume.AddFile(volume.RootCluster, "A.TXT", 3, 4, []byte("abcd"))

	image := volume.Bytes()

	if image[510] != 0x55 || image[511] != 0xAA {
		t.Errorf("MBR signature = %#x %#x, want 0x55 0xAA", image[510], image[511])
	}
	if got := image[446+4]; got != 0x0C {
		t.Errorf("partition type = %#x, want 0x0C", got)
	}
	if got := binary.LittleEndian.Uint32(image[446+8:]); got != volume.PartitionLBA {
		t.Errorf("partition LBA = %d, want %d", got, volume.PartitionLBA)
	}

	bpb := image[volume.PartitionLBA*512:]
	if got := binary.LittleEndian.Uint16(bpb[11:]); got != 512 {
		t.Errorf("bytes per sector = %d, want 512", got)
	}
	if bpb[510] != 0x55 || bpb[511] != 0xAA {
		t.Errorf("BPB signature = %#x %#x, want 0x55 0xAA", bpb[510], bpb[511])
	}

	// Both FAT copies must carry the end-of-chain marker for cluster 3.
	fatBegin := volume.PartitionLBA + uint32(volume.ReservedSectors)
	for copyIndex := uint32(0); copyIndex < uint32(volume.NumFATs); copyIndex++ {
		table := image[(fatBegin+copyIndex*volume.SectorsPerFAT)*512:]
		if got := binary.LittleEndian.Uint32(table[3*4:]); got != EndOfChain {
			t.Errorf("FAT copy %d cluster 3 = %#x, want %#x", copyIndex, got, uint32(EndOfChain))
		}
	}

	// File content lands at the start of cluster 3.
	clusterBegin := fatBegin + uint32(volume.NumFATs)*volume.SectorsPerFAT
	offset := (clusterBegin + 1*uint32(volume.SectorsPerCluster)) * 512
	if got := string(image[offset : offset+4]); got != "abcd" {
		t.Errorf("cluster 3 content = %q, want %q", got, "abcd")
	}
}
