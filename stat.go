package sdfat

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/sdfat/sdfat/checkpoint"
)

// ErrBadName means a name cannot be expressed as a fixed 8.3 short name.
var ErrBadName = errors.New("name does not fit the 8.3 format")

// ShortName packs a human-readable name like "README.TXT" into the fixed
// 11-byte blank-padded 8.3 form stored in directory entries. The name is
// uppercased; at most 8 base characters and 3 extension characters fit.
func ShortName(name string) ([11]byte, error) {
	short := [11]byte{}
	for i := range short {
		short[i] = ' '
	}

	base := strings.ToUpper(name)
	ext := ""
	if dot := strings.LastIndex(base, "."); dot >= 0 {
		ext = base[dot+1:]
		base = base[:dot]
	}

	if base == "" || len(base) > 8 || len(ext) > 3 || strings.Contains(base, ".") {
		return short, checkpoint.From(ErrBadName)
	}

	copy(short[:8], base)
	copy(short[8:], ext)
	return short, nil
}

// FormatName renders a fixed 11-byte short name back into "NAME.EXT" form.
func FormatName(short [11]byte) string {
	base := strings.TrimRight(string(short[:8]), " ")
	ext := strings.TrimRight(string(short[8:]), " ")

	if ext == "" {
		return base
	}
	return base + "." + ext
}

// FileInfo adapts the entry to os.FileInfo for listings.
func (e Entry) FileInfo() os.FileInfo {
	return entryFileInfo{entry: e}
}

type entryFileInfo struct {
	entry Entry
}

func (i entryFileInfo) Name() string {
	return FormatName(i.entry.Name)
}

func (i entryFileInfo) Size() int64 {
	return int64(i.entry.Size.Uint32())
}

func (i entryFileInfo) Mode() os.FileMode {
	if i.IsDir() {
		return os.ModeDir
	}
	return 0
}

func (i entryFileInfo) ModTime() time.Time {
	return entryTimestamp(i.entry.WriteDate, i.entry.WriteTime)
}

func (i entryFileInfo) IsDir() bool {
	return i.entry.Type == EntryDirectory
}

func (i entryFileInfo) Sys() interface{} {
	return i.entry
}

// entryTimestamp decodes the 16-bit FAT date and time stamps of a
// directory entry. The date counts days/months directly and years from
// 1980; the time has two-second granularity:
//  date bits 0-4 day, 5-8 month, 9-15 years since 1980
//  time bits 0-4 two-second count, 5-10 minutes, 11-15 hours
// A zero day or month is invalid per the FAT specification; the zero
// time.Time is returned so callers can use IsZero.
func entryTimestamp(date, timeOfDay uint16) time.Time {
	day := int(date & 0x1F)
	month := int(date & 0x1E0 >> 5)
	year := 1980 + int(date&0xFE00>>9)

	if day == 0 || month == 0 {
		return time.Time{}
	}

	seconds := int(timeOfDay&0x1F) * 2
	minutes := int(timeOfDay & 0x7E0 >> 5)
	hours := int(timeOfDay & 0xF800 >> 11)

	return time.Date(year, time.Month(month), day, hours, minutes, seconds, 0, time.UTC)
}
