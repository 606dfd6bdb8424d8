// fatsh is an interactive shell over a FAT32 volume image. It mounts the
// image read-write and exposes the engine's surface: volume info, listing,
// reading and deleting files.
package main

import (
	"errors"
	"flag"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sdfat/sdfat"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	capacity := flag.Int("capacity", sdfat.DefaultArenaCapacity, "directory index capacity")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() != 1 {
		log.Fatal("usage: fatsh [-v] [-capacity n] <image>")
	}
	path := flag.Arg(0)

	device, err := sdfat.OpenImage(afero.NewOsFs(), path)
	if err != nil {
		log.WithError(err).Fatal("could not open image")
	}
	defer device.Close()

	fs, err := sdfat.NewWithCapacity(sdfat.NewRetryDevice(device), *capacity)
	if err != nil {
		log.WithError(err).Fatal("could not mount volume")
	}

	log.WithFields(logrus.Fields{
		"label":        fs.Label(),
		"fatBegin":     fs.FATBeginLBA().String(),
		"clusterBegin": fs.ClusterBeginLBA().String(),
	}).Debug("volume mounted")

	shell := ishell.New()
	shell.SetPrompt(prompt(fs.Label()))
	shell.Println("fatsh - type 'help' for commands")

	shell.AddCmd(&ishell.Cmd{
		Name: "info",
		Help: "show volume geometry",
		Func: func(c *ishell.Context) {
			volumeID := fs.VolumeID()
			mbr := fs.MasterBootRecord()
			c.Printf("partition type     0x%02X\n", mbr.Partition.TypeCode)
			c.Printf("partition begin    %d\n", mbr.Partition.LBABegin)
			c.Printf("bytes per sector   %d\n", volumeID.BytesPerSector)
			c.Printf("sectors/cluster    %d\n", volumeID.SectorsPerCluster)
			c.Printf("reserved sectors   %d\n", volumeID.ReservedSectors)
			c.Printf("FAT copies         %d\n", volumeID.NumFATs)
			c.Printf("sectors per FAT    %d\n", volumeID.SectorsPerFAT)
			c.Printf("media              %v\n", volumeID.Media)
			c.Printf("FAT begin LBA      %v\n", fs.FATBeginLBA())
			c.Printf("cluster begin LBA  %v\n", fs.ClusterBeginLBA())
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "label",
		Help: "print the volume label",
		Func: func(c *ishell.Context) {
			c.Println(fs.Label())
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "ls",
		Help: "list entries: ls [DIR/SUBDIR]",
		Func: func(c *ishell.Context) {
			parent := sdfat.NoParent
			if len(c.Args) == 1 {
				index, err := findDirectory(fs, c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				parent = index
			}

			for _, entry := range fs.Children(parent) {
				printEntry(c, entry, 0)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "tree",
		Help: "print the whole directory tree",
		Func: func(c *ishell.Context) {
			var walk func(parent, depth int)
			entries := fs.Entries()
			walk = func(parent, depth int) {
				for i, entry := range entries {
					if entry.Parent != parent || !entry.InUse || entry.Deleted {
						continue
					}
					printEntry(c, entry, depth)
					if entry.Type == sdfat.EntryDirectory {
						walk(i, depth+1)
					}
				}
			}
			walk(sdfat.NoParent, 0)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "cat",
		Help: "print a file: cat DIR/FILE.TXT",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("expected exactly one path"))
				return
			}
			name, parents, err := splitPath(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			content, err := fs.ReadFile(name, parents)
			if err != nil {
				c.Err(err)
				return
			}
			c.Print(string(content))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "rm",
		Help: "delete a file: rm DIR/FILE.TXT",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("expected exactly one path"))
				return
			}
			name, parents, err := splitPath(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if err := fs.Delete(name, parents); err != nil {
				c.Err(err)
				return
			}
			c.Println("deleted", c.Args[0])
		},
	})

	shell.Run()
}

func prompt(label string) string {
	if label == "" {
		label = "fat32"
	}
	return label + " > "
}

// splitPath turns "DIR/SUB/FILE.TXT" into the engine's (name, parents)
// form, parents ordered from the immediate parent upward.
func splitPath(path string) ([11]byte, [][11]byte, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")

	name, err := sdfat.ShortName(segments[len(segments)-1])
	if err != nil {
		return name, nil, err
	}

	parents := make([][11]byte, 0, len(segments)-1)
	for i := len(segments) - 2; i >= 0; i-- {
		parent, err := sdfat.ShortName(segments[i])
		if err != nil {
			return name, nil, err
		}
		parents = append(parents, parent)
	}
	return name, parents, nil
}

// findDirectory resolves a /-separated directory path to an arena index.
func findDirectory(fs *sdfat.Fs, path string) (int, error) {
	entries := fs.Entries()
	parent := sdfat.NoParent

	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		short, err := sdfat.ShortName(segment)
		if err != nil {
			return 0, err
		}

		found := -1
		for i, entry := range entries {
			if entry.InUse && !entry.Deleted && entry.Parent == parent &&
				entry.Type == sdfat.EntryDirectory && entry.Name == short {
				found = i
				break
			}
		}
		if found < 0 {
			return 0, errors.New("no such directory: " + segment)
		}
		parent = found
	}
	return parent, nil
}

func printEntry(c *ishell.Context, entry sdfat.Entry, depth int) {
	info := entry.FileInfo()
	indent := strings.Repeat("  ", depth)

	switch entry.Type {
	case sdfat.EntryDirectory:
		c.Printf("%s%s\n", indent, color.BlueString(info.Name()+"/"))
	case sdfat.EntryVolumeLabel:
		c.Printf("%s%s\n", indent, color.YellowString("["+info.Name()+"]"))
	default:
		c.Printf("%s%-14s %8d\n", indent, info.Name(), info.Size())
	}
}
