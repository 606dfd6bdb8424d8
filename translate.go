package sdfat

// clusterToSector translates a cluster number to the LBA of its first
// sector:
//  lba = cluster_begin_lba + (cluster_number - 2) * sectors_per_cluster
// Clusters 0 and 1 are reserved markers and must never be passed in;
// callers filter them before translating. Pure function over the volume
// geometry, no device I/O.
func (fs *Fs) clusterToSector(cluster Uint32BE) Uint32BE {
	offset := (cluster.Uint32() - 2) * uint32(fs.volumeID.SectorsPerCluster)
	return fs.clusterBeginLBA.Add(NewUint32BE(offset))
}

// clusterToFATLocation locates a cluster's 4-byte slot in the FAT: a
// 512-byte FAT sector holds 128 entries, so the slot lives in FAT sector
// cluster/128 at byte index (cluster%128)*4.
func (fs *Fs) clusterToFATLocation(cluster Uint32BE) (sectorOffset Uint32BE, byteIndex uint16) {
	n := cluster.Uint32()
	return NewUint32BE(n / fatEntriesPerSector), uint16(n%fatEntriesPerSector) * 4
}

// isReservedCluster reports whether a cluster number is one of the two
// reserved markers that mean "no allocation".
func isReservedCluster(cluster Uint32BE) bool {
	return cluster.Uint32() < 2
}

// isEndOfChain reports whether a FAT value is in the end-of-chain range
// 0x?FFFFFF8-0x?FFFFFFF. The top nibble of a FAT32 entry is reserved, so
// only the high byte being at least 0x0F together with the low 24 bits
// being at least 0xFFFFF8 marks the chain end.
func isEndOfChain(value Uint32BE) bool {
	low := uint32(value[1])<<16 | uint32(value[2])<<8 | uint32(value[3])
	return value[0] >= 0x0F && low >= 0xFFFFF8
}
