package coco

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// WriteDataset serializes doc to path, creating the parent directory and
// replacing any existing file.
func WriteDataset(path string, doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create annotation directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return errors.Wrap(err, "failed to encode filtered annotations")
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return f.Close()
}
