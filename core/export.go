package core

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/mholt/archiver"
	"github.com/pkg/errors"
)

// Export bundles the tree's serialized XML document plus every job's
// logfile (recursing into subtrees) into a single tar.gz stream written to
// w, using github.com/mholt/archiver (see DESIGN.md for how that
// dependency is grounded).
func (t *Tree) Export(w io.Writer) error {
	workspace, err := ioutil.TempDir("", "exectree-export-")
	if err != nil {
		return errors.Wrap(err, "creating export workspace")
	}
	defer os.RemoveAll(workspace)

	docBytes, err := t.Marshal()
	if err != nil {
		return errors.Wrap(err, "marshaling tree document")
	}
	if err := ioutil.WriteFile(
		filepath.Join(workspace, "tree.xml"),
		docBytes,
		0644,
	); err != nil {
		return errors.Wrap(err, "writing tree.xml")
	}

	logDir := filepath.Join(workspace, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return errors.Wrap(err, "creating logs dir")
	}
	t.rjobs(func(j *Job) {
		if j.LogFile == "" {
			return
		}
		data, readErr := ioutil.ReadFile(j.LogFile)
		if readErr != nil {
			return
		}
		_ = ioutil.WriteFile(
			filepath.Join(logDir, sanitizeFileName(j.Name)+".log"),
			data,
			0644,
		)
	})

	archivePath := filepath.Join(workspace+"-bundle", "export.tar.gz")
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return errors.Wrap(err, "creating archive dir")
	}
	defer os.RemoveAll(filepath.Dir(archivePath))

	if err := archiver.Archive([]string{workspace}, archivePath); err != nil {
		return errors.Wrap(err, "archiving tree export")
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return errors.Wrap(err, "opening archive")
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return errors.Wrap(err, "streaming archive")
	}
	return nil
}

func sanitizeFileName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
