// Command fatinspect is a small diagnostic CLI over a FAT32 image file.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/oxleyfs/fat32/block"
	"github.com/oxleyfs/fat32/mbr"
	"github.com/oxleyfs/fat32/volume"
)

func main() {
	app := cli.App{
		Usage: "Inspect FAT32 disk images",
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "Print boot record, FS Info, and free-space summary",
				Action:    infoCommand,
				ArgsUsage: "IMAGE",
			},
			{
				Name:      "ls",
				Usage:     "List a directory's entries",
				Action:    lsCommand,
				ArgsUsage: "IMAGE PATH",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatinspect: %s", err.Error())
	}
}

func openVolume(path string) (*volume.FatFileSystem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dev := block.NewMemDeviceFromBytes(data)

	fs, merr := volume.GetPartition(dev, 0)
	if merr != nil {
		return nil, merr
	}
	return fs, nil
}

func infoCommand(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("usage: fatinspect info IMAGE", 1)
	}

	data, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return err
	}
	dev := block.NewMemDeviceFromBytes(data)

	partition, perr := mbr.ReadPartition(dev, 0)
	if perr != nil {
		return perr
	}

	fs, merr := volume.GetPartition(dev, 0)
	if merr != nil {
		return merr
	}

	fmt.Printf("bootable:        %t\n", partition.Bootable())
	fmt.Printf("fat type:        %s\n", fs.Boot.FatType())
	fmt.Printf("cluster count:   %d\n", fs.Boot.ClusterCount())
	fmt.Printf("bytes/block:     %d\n", fs.Boot.BytesPerBlock())
	fmt.Printf("blocks/cluster:  %d\n", fs.Boot.BlocksPerCluster())
	fmt.Printf("num fats:        %d\n", fs.Boot.NumFATs())
	fmt.Printf("root cluster:    %d\n", fs.Boot.RootDirCluster())
	fmt.Printf("free clusters:   %d\n", fs.FSInfo.FreeCount())
	fmt.Printf("alloc hint:      %d\n", fs.FSInfo.NextFree())
	return nil
}

func lsCommand(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return cli.Exit("usage: fatinspect ls IMAGE PATH", 1)
	}

	fs, err := openVolume(c.Args().Get(0))
	if err != nil {
		return err
	}

	dir := fs.RootDirectory()
	parents, leaf := volume.SplitPath(c.Args().Get(1))
	segments := append(append([]string{}, parents...), leaf)
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		entry, ferr := dir.FindEntry(segment)
		if ferr != nil {
			return ferr
		}
		if !entry.Attribute.IsDirectory() {
			return fmt.Errorf("%s: not a directory", segment)
		}
		dir = volume.NewDirectory(fs, entry)
	}

	entries, lerr := dir.List()
	if lerr != nil {
		return lerr
	}
	for _, e := range entries {
		kind := "-"
		if e.Attribute.IsDirectory() {
			kind = "d"
		}
		fmt.Printf("%s %10d  %s\n", kind, e.FileSize, e.Name)
	}
	return nil
}
