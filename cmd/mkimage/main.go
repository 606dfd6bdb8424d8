// mkimage writes a small demo FAT32 volume image to play with fatsh.
package main

import (
	"flag"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sdfat/sdfat/imggen"
)

func main() {
	out := flag.String("o", "demo.img", "output image path")
	flag.Parse()

	log := logrus.New()

	volume := imggen.New()
	volume.AddLabel(volume.RootCluster, "DEMO")

	readme := []byte("This image was generated by mkimage. Delete me.\r\n")
	volume.AddFile(volume.RootCluster, "README.TXT", 3, uint32(len(readme)), readme)

	volume.AddDir(volume.RootCluster, "NOTES", 4)
	long := []byte(strings.Repeat("0123456789", 60))
	volume.Chain(5, 6)
	volume.AddFile(4, "LONG.TXT", 5, uint32(len(long)), long)

	fsys := afero.NewOsFs()
	if err := afero.WriteFile(fsys, *out, volume.Bytes(), 0644); err != nil {
		log.WithError(err).Fatal("could not write image")
	}

	log.WithField("path", *out).Info("image written")
}
