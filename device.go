package sdfat

import (
	"errors"
	"fmt"
	"os"

	"github.com/sdfat/sdfat/checkpoint"
	"github.com/spf13/afero"
)

// ErrDevice wraps every failed block transfer.
var ErrDevice = errors.New("block device operation failed")

// Block is one 512-byte device sector.
type Block [SectorSize]byte

// BlockDevice is the storage collaborator the engine talks to. LBAs are
// passed in the engine's big-endian byte form; the implementation converts
// them to whatever addressing its bus requires. Both calls block until the
// transfer completes or fails.
//
// Generated mock using mockgen:
//  mockgen -source=device.go -destination=device_mock.go -package sdfat
type BlockDevice interface {
	ReadBlock(lba Uint32BE) (Block, error)
	WriteBlock(lba Uint32BE, data Block) error
}

// readRetryLimit is the fixed retry budget for block reads, matching the
// invalid-response limit of the SD bus driver.
const readRetryLimit = 10

// RetryDevice wraps a BlockDevice and retries failed reads up to the fixed
// retry budget. Writes are not retried; a failed write may already have
// reached the medium.
type RetryDevice struct {
	inner BlockDevice
}

func NewRetryDevice(inner BlockDevice) *RetryDevice {
	return &RetryDevice{inner: inner}
}

func (d *RetryDevice) ReadBlock(lba Uint32BE) (Block, error) {
	var err error
	for i := 0; i < readRetryLimit; i++ {
		var block Block
		block, err = d.inner.ReadBlock(lba)
		if err == nil {
			return block, nil
		}
	}
	return Block{}, checkpoint.Wrap(err, ErrDevice)
}

func (d *RetryDevice) WriteBlock(lba Uint32BE, data Block) error {
	return checkpoint.Wrap(d.inner.WriteBlock(lba, data), ErrDevice)
}

// ImageDevice exposes a raw volume image file as a BlockDevice. The file is
// accessed through an afero.Fs so tests can run against a memory-backed
// filesystem.
type ImageDevice struct {
	file afero.File
}

// OpenImage opens the image at path read-write.
func OpenImage(fsys afero.Fs, path string) (*ImageDevice, error) {
	file, err := fsys.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrDevice)
	}
	return &ImageDevice{file: file}, nil
}

func (d *ImageDevice) ReadBlock(lba Uint32BE) (Block, error) {
	var block Block
	_, err := d.file.ReadAt(block[:], int64(lba.Uint32())*SectorSize)
	if err != nil {
		return Block{}, checkpoint.Wrap(err, ErrDevice)
	}
	return block, nil
}

func (d *ImageDevice) WriteBlock(lba Uint32BE, data Block) error {
	_, err := d.file.WriteAt(data[:], int64(lba.Uint32())*SectorSize)
	return checkpoint.Wrap(err, ErrDevice)
}

func (d *ImageDevice) Close() error {
	return d.file.Close()
}

// RAMDevice is a BlockDevice over an in-memory image, the moral equivalent
// of a ramdisk. Reads and writes past the end of the image fail.
type RAMDevice struct {
	data []byte
}

func NewRAMDevice(data []byte) *RAMDevice {
	return &RAMDevice{data: data}
}

// Bytes returns the backing image, including any writes made so far.
func (d *RAMDevice) Bytes() []byte {
	return d.data
}

func (d *RAMDevice) ReadBlock(lba Uint32BE) (Block, error) {
	var block Block
	offset := int64(lba.Uint32()) * SectorSize
	if offset+SectorSize > int64(len(d.data)) {
		return Block{}, checkpoint.Wrap(fmt.Errorf("read of sector %v beyond image end", lba), ErrDevice)
	}
	copy(block[:], d.data[offset:offset+SectorSize])
	return block, nil
}

func (d *RAMDevice) WriteBlock(lba Uint32BE, data Block) error {
	offset := int64(lba.Uint32()) * SectorSize
	if offset+SectorSize > int64(len(d.data)) {
		return checkpoint.Wrap(fmt.Errorf("write of sector %v beyond image end", lba), ErrDevice)
	}
	copy(d.data[offset:offset+SectorSize], data[:])
	return nil
}
