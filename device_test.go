package sdfat

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/spf13/afero"
)

var deviceTestsError = errors.New("bus gave an invalid response")

func TestRetryDeviceReadRetries(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	lba := NewUint32BE(7)
	want := Block{0: 0x42}

	mockDevice := NewMockBlockDevice(mockCtrl)
	gomock.InOrder(
		mockDevice.EXPECT().ReadBlock(lba).Return(Block{}, deviceTestsError).Times(2),
		mockDevice.EXPECT().ReadBlock(lba).Return(want, nil),
	)

	got, err := NewRetryDevice(mockDevice).ReadBlock(lba)
	if err != nil {
		t.Fatalf("ReadBlock() error = %v, want nil", err)
	}
	if got != want {
		t.Errorf("ReadBlock() = %v, want %v", got[:4], want[:4])
	}
}

func TestRetryDeviceReadBudgetExhausted(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	lba := NewUint32BE(7)

	mockDevice := NewMockBlockDevice(mockCtrl)
	mockDevice.EXPECT().ReadBlock(lba).Return(Block{}, deviceTestsError).Times(readRetryLimit)

	_, err := NewRetryDevice(mockDevice).ReadBlock(lba)
	if !errors.Is(err, ErrDevice) {
		t.Errorf("ReadBlock() error = %v, want ErrDevice", err)
	}
	if !errors.Is(err, deviceTestsError) {
		t.Errorf("ReadBlock() error = %v, should keep the bus error", err)
	}
}

func TestRetryDeviceWriteDoesNotRetry(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	lba := NewUint32BE(3)

	mockDevice := NewMockBlockDevice(mockCtrl)
	mockDevice.EXPECT().WriteBlock(lba, Block{}).Return(deviceTestsError)

	err := NewRetryDevice(mockDevice).WriteBlock(lba, Block{})
	if !errors.Is(err, ErrDevice) {
		t.Errorf("WriteBlock() error = %v, want ErrDevice", err)
	}
}

func TestRAMDevice(t *testing.T) {
	device := NewRAMDevice(make([]byte, 2*SectorSize))

	data := Block{0: 0xAB, 511: 0xCD}
	if err := device.WriteBlock(NewUint32BE(1), data); err != nil {
		t.Fatalf("WriteBlock() error = %v", err)
	}

	got, err := device.ReadBlock(NewUint32BE(1))
	if err != nil {
		t.Fatalf("ReadBlock() error = %v", err)
	}
	if got != data {
		t.Errorf("ReadBlock() = %v..., want %v...", got[:2], data[:2])
	}

	if _, err := device.ReadBlock(NewUint32BE(2)); !errors.Is(err, ErrDevice) {
		t.Errorf("out-of-range read error = %v, want ErrDevice", err)
	}
	if err := device.WriteBlock(NewUint32BE(2), Block{}); !errors.Is(err, ErrDevice) {
		t.Errorf("out-of-range write error = %v, want ErrDevice", err)
	}
}

func TestImageDevice(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "volume.img", make([]byte, 4*SectorSize), 0644); err != nil {
		t.Fatal(err)
	}

	device, err := OpenImage(fsys, "volume.img")
	if err != nil {
		t.Fatalf("OpenImage() error = %v", err)
	}
	defer device.Close()

	data := Block{0: 0x55, 1: 0xAA}
	if err := device.WriteBlock(NewUint32BE(3), data); err != nil {
		t.Fatalf("WriteBlock() error = %v", err)
	}

	got, err := device.ReadBlock(NewUint32BE(3))
	if err != nil {
		t.Fatalf("ReadBlock() error = %v", err)
	}
	if got != data {
		t.Errorf("ReadBlock() = %v..., want %v...", got[:2], data[:2])
	}
}
