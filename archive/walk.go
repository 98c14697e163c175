package archive

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/drobin/nuts-go/backend"
)

// AppendFile adds a regular file entry named name, streaming content from r.
func AppendFile[ID backend.Id](t *Tree[ID], name string, meta EntryMeta, r io.Reader) error {
	meta.Mode = ModeFile
	meta.Name = name
	return appendEntry(t, meta, r)
}

// AppendDirectory adds a directory entry named name, with no content.
func AppendDirectory[ID backend.Id](t *Tree[ID], name string, meta EntryMeta) error {
	meta.Mode = ModeDirectory
	meta.Name = name
	return appendEntry(t, meta, nil)
}

// AppendSymlink adds a symlink entry named name pointing at target.
func AppendSymlink[ID backend.Id](t *Tree[ID], name, target string, meta EntryMeta) error {
	meta.Mode = ModeSymlink
	meta.Name = name
	meta.Target = target
	return appendEntry(t, meta, nil)
}

func appendEntry[ID backend.Id](t *Tree[ID], meta EntryMeta, content io.Reader) error {
	headID, err := t.AcquireForNextEntry()
	if err != nil {
		return err
	}
	em, err := NewEntryMut(t.c, headID, meta)
	if err != nil {
		return err
	}
	if content != nil {
		buf := make([]byte, t.c.PayloadSize())
		for {
			n, rerr := content.Read(buf)
			if n > 0 {
				if _, werr := em.Write(buf[:n]); werr != nil {
					return werr
				}
			}
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				return rerr
			}
		}
	}
	return em.Close()
}

func metaFromFileInfo(info os.FileInfo) EntryMeta {
	mtime := uint64(info.ModTime().Unix())
	return EntryMeta{Created: mtime, Changed: mtime, Modified: mtime}
}

// AppendRecursive walks the host filesystem rooted at path, depth-first
// pre-order, appending a directory/file/symlink entry for everything it
// finds (spec §4.I "Append-recursive"). report, if non-nil, is called
// once per entry with "a <path>" formatting left to the caller.
func AppendRecursive[ID backend.Id](t *Tree[ID], path string, report func(path string)) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	return appendRecursive(t, path, info, report)
}

func appendRecursive[ID backend.Id](t *Tree[ID], path string, info fs.FileInfo, report func(string)) error {
	name := filepath.Base(path)

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(path)
		if err != nil {
			return err
		}
		if err := AppendSymlink(t, name, target, metaFromFileInfo(info)); err != nil {
			return err
		}
		if report != nil {
			report(path)
		}
		return nil

	case info.IsDir():
		if err := AppendDirectory(t, name, metaFromFileInfo(info)); err != nil {
			return err
		}
		if report != nil {
			report(path)
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			childInfo, err := entry.Info()
			if err != nil {
				return err
			}
			if err := appendRecursive(t, filepath.Join(path, entry.Name()), childInfo, report); err != nil {
				return err
			}
		}
		return nil

	case info.Mode().IsRegular():
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		meta := metaFromFileInfo(info)
		if err := AppendFile(t, name, meta, f); err != nil {
			return err
		}
		if report != nil {
			report(path)
		}
		return nil

	default:
		return fmt.Errorf("archive: unsupported file type for %q", path)
	}
}

// ReadEntry is a convenience combining Tree.Lookup and OpenEntryReader.
func ReadEntry[ID backend.Id](t *Tree[ID], ordinal uint64) (*EntryReader[ID], error) {
	id, err := t.Lookup(ordinal)
	if err != nil {
		return nil, err
	}
	return OpenEntryReader(t.c, id)
}
