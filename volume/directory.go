package volume

import (
	"strings"

	"github.com/oxleyfs/fat32/block"
	"github.com/oxleyfs/fat32/cluster"
	"github.com/oxleyfs/fat32/diskerr"
	"github.com/oxleyfs/fat32/dirent"
)

// Directory is a minimal, 8.3-only directory handle wiring the cluster
// allocator and the raw directory-entry iterator (packages fat and dirent)
// into Mkdir, Touch, Unlink, Rmdir, Rename, FindEntry, and List. Long
// filenames, case-insensitive matching beyond the 8.3 charset, and
// directory caching are not implemented.
type Directory struct {
	fs    *FatFileSystem
	entry dirent.Entry
}

// Entry exposes the logical entry backing this handle (the root directory's
// Entry carries no RawLocation).
func (d *Directory) Entry() dirent.Entry { return d.entry }

// NewDirectory wraps a previously-resolved directory entry as a handle for
// further traversal, for callers (e.g. cmd/fatinspect) walking a path
// component by component via FindEntry.
func NewDirectory(fs *FatFileSystem, entry dirent.Entry) *Directory {
	return &Directory{fs: fs, entry: entry}
}

// List returns every live (non-deleted, non-volume-label) entry in this
// directory, in on-disk order.
func (d *Directory) List() ([]dirent.Entry, diskerr.DriverError) {
	var out []dirent.Entry
	it := d.entries()
	for {
		raw, err, ok := it.Next()
		if !ok {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		if raw.IsEndMarker() {
			return out, nil
		}
		if raw.IsDeleted() {
			continue
		}
		entry := raw.ToEntry()
		if entry.Attribute.IsVolumeLabel() {
			continue
		}
		out = append(out, entry)
	}
}

// SplitPath splits a "/"-separated path into its parent directory
// components and final leaf name, the minimal stand-in for the original's
// utils::get_parent helper. An empty leaf denotes the root itself.
func SplitPath(path string) (parents []string, leaf string) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, ""
	}
	parts := strings.Split(trimmed, "/")
	return parts[:len(parts)-1], parts[len(parts)-1]
}

func splitShortName(name string) (base, ext string) {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[:idx], name[idx+1:]
	}
	return name, ""
}

// entries returns a raw iterator over this directory's records, starting
// from the beginning of its first cluster.
func (d *Directory) entries() *dirent.RawIterator {
	return dirent.NewRawIterator(d.fs.Table, d.entry.StartCluster, 0, 0)
}

// FindEntry scans this directory's records for one whose 8.3 name matches
// name case-insensitively, returning diskerr.ErrNotFound if none match.
func (d *Directory) FindEntry(name string) (dirent.Entry, diskerr.DriverError) {
	it := d.entries()
	for {
		raw, err, ok := it.Next()
		if !ok {
			return dirent.Entry{}, diskerr.ErrNotFound
		}
		if err != nil {
			return dirent.Entry{}, err
		}
		if raw.IsEndMarker() {
			return dirent.Entry{}, diskerr.ErrNotFound
		}
		if raw.IsDeleted() {
			continue
		}

		candidate := raw.ToEntry()
		if candidate.Attribute.IsVolumeLabel() {
			continue
		}
		if strings.EqualFold(candidate.Name, name) {
			return candidate, nil
		}
	}
}

// firstFreeSlot scans for the first deleted or end-marker record, appending
// a fresh cluster to the chain (and cleaning it) if the chain runs out
// without one.
func (d *Directory) firstFreeSlot() (dirent.Raw, diskerr.DriverError) {
	it := d.entries()
	var lastCluster cluster.ID
	for {
		raw, err, ok := it.Next()
		if !ok {
			break
		}
		if err != nil {
			return dirent.Raw{}, err
		}
		lastCluster = raw.Cluster
		if raw.IsEndMarker() || raw.IsDeleted() {
			return raw, nil
		}
	}

	next, allocErr := d.fs.AllocCluster(&lastCluster)
	if allocErr != nil {
		return dirent.Raw{}, allocErr
	}
	if err := d.fs.CleanClusterData(next); err != nil {
		return dirent.Raw{}, err
	}

	it2 := dirent.NewRawIterator(d.fs.Table, next, 0, 0)
	raw, err, ok := it2.Next()
	if !ok || err != nil {
		return dirent.Raw{}, diskerr.ErrWriteFailed.WithMessage("freshly allocated cluster produced no slot")
	}
	return raw, nil
}

// writeRecord encodes entry into raw's on-disk coordinates and writes it.
func (d *Directory) writeRecord(raw dirent.Raw, name string, attr dirent.Attributes, start cluster.ID) diskerr.DriverError {
	base, ext := splitShortName(name)
	name8, ext3 := dirent.EncodeShortName(strings.ToUpper(base), strings.ToUpper(ext))

	var rec [dirent.Size]byte
	copy(rec[0:8], name8[:])
	copy(rec[8:11], ext3[:])
	rec[11] = byte(attr)
	rec[20] = byte(start >> 16)
	rec[21] = byte(start >> 24)
	rec[26] = byte(start)
	rec[27] = byte(start >> 8)

	dataBlockBase := raw.Cluster.ToDataBlockIndex(d.fs.Table.Geometry)
	targetBlock := dataBlockBase + block.Index(raw.BlockWithinCluster)

	buf := [1]block.Block{}
	if err := d.fs.Device.Read(buf[:], d.fs.PartitionOrigin, targetBlock); err != nil {
		return diskerr.ErrReadFailed.WrapError(err)
	}
	copy(buf[0][raw.OffsetInBlock:raw.OffsetInBlock+dirent.Size], rec[:])
	if err := d.fs.Device.Write(buf[:], d.fs.PartitionOrigin, targetBlock); err != nil {
		return diskerr.ErrWriteFailed.WrapError(err)
	}
	return nil
}

// Mkdir creates a subdirectory record named name, allocating and zeroing
// its first cluster. Returns diskerr.ErrFileExists if name is already
// occupied in this directory.
func (d *Directory) Mkdir(name string) (*Directory, diskerr.DriverError) {
	if _, err := d.FindEntry(name); err == nil {
		return nil, diskerr.ErrFileExists
	} else if err != diskerr.ErrNotFound {
		return nil, err
	}

	start, err := d.fs.AllocCluster(nil)
	if err != nil {
		return nil, err
	}
	if err := d.fs.CleanClusterData(start); err != nil {
		return nil, err
	}

	slot, err := d.firstFreeSlot()
	if err != nil {
		return nil, err
	}
	if err := d.writeRecord(slot, name, dirent.AttrDirectory, start); err != nil {
		return nil, err
	}

	return &Directory{fs: d.fs, entry: dirent.Entry{
		StartCluster: start,
		Attribute:    dirent.AttrDirectory,
		Name:         name,
	}}, nil
}

// Touch creates an empty, zero-length file record named name. Returns
// diskerr.ErrFileExists if name is already occupied.
func (d *Directory) Touch(name string) (dirent.Entry, diskerr.DriverError) {
	if _, err := d.FindEntry(name); err == nil {
		return dirent.Entry{}, diskerr.ErrFileExists
	} else if err != diskerr.ErrNotFound {
		return dirent.Entry{}, err
	}

	slot, err := d.firstFreeSlot()
	if err != nil {
		return dirent.Entry{}, err
	}
	if err := d.writeRecord(slot, name, 0, 0); err != nil {
		return dirent.Entry{}, err
	}

	return dirent.Entry{Name: name}, nil
}

// Unlink removes the record named name and frees its cluster chain (if
// any). Returns diskerr.ErrNotADirectory-style errors are not applicable
// here; a directory target is rejected with diskerr.ErrNotAFile to signal
// the caller used the wrong operation.
func (d *Directory) Unlink(name string) diskerr.DriverError {
	target, err := d.FindEntry(name)
	if err != nil {
		return err
	}
	if target.Attribute.IsDirectory() {
		return diskerr.ErrNotAFile
	}
	return d.removeEntry(target)
}

// Rmdir removes the empty subdirectory named name.
func (d *Directory) Rmdir(name string) diskerr.DriverError {
	target, err := d.FindEntry(name)
	if err != nil {
		return err
	}
	if !target.Attribute.IsDirectory() {
		return diskerr.ErrNotADirectory
	}
	return d.removeEntry(target)
}

func (d *Directory) removeEntry(target dirent.Entry) diskerr.DriverError {
	if target.StartCluster.IsValidData(d.fs.Table.ClusterCount) {
		if err := d.fs.FreeCluster(target.StartCluster, nil); err != nil {
			return err
		}
	}
	if target.RawLocation == nil {
		return nil
	}
	deleted := *target.RawLocation
	deleted.Data[0] = 0xE5
	return d.writeRawBytes(deleted)
}

func (d *Directory) writeRawBytes(raw dirent.Raw) diskerr.DriverError {
	dataBlockBase := raw.Cluster.ToDataBlockIndex(d.fs.Table.Geometry)
	targetBlock := dataBlockBase + block.Index(raw.BlockWithinCluster)

	buf := [1]block.Block{}
	if err := d.fs.Device.Read(buf[:], d.fs.PartitionOrigin, targetBlock); err != nil {
		return diskerr.ErrReadFailed.WrapError(err)
	}
	copy(buf[0][raw.OffsetInBlock:raw.OffsetInBlock+dirent.Size], raw.Data[:])
	if err := d.fs.Device.Write(buf[:], d.fs.PartitionOrigin, targetBlock); err != nil {
		return diskerr.ErrWriteFailed.WrapError(err)
	}
	return nil
}

// Rename renames a record from oldName to newName within the same
// directory. Returns diskerr.ErrFileExists if newName is already taken.
func (d *Directory) Rename(oldName, newName string) diskerr.DriverError {
	target, err := d.FindEntry(oldName)
	if err != nil {
		return err
	}
	if _, err := d.FindEntry(newName); err == nil {
		return diskerr.ErrFileExists
	} else if err != diskerr.ErrNotFound {
		return err
	}
	if target.RawLocation == nil {
		return diskerr.ErrNotImplemented.WithMessage("cannot rename a synthesized entry")
	}
	return d.writeRecord(*target.RawLocation, newName, target.Attribute, target.StartCluster)
}
