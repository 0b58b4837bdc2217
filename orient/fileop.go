package orient

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"picedit/codec"
	"picedit/transform"
)

var errNotRegular = errors.New("not a regular file")

func copyFile(logger *slog.Logger, src, dest string) error {
	logger.Info("copying", "to", dest)

	if err := checkFile(src, dest); err != nil {
		return err
	}

	inFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("could not open source file %q: %w", src, err)
	}
	defer inFile.Close()

	return place(dest, func(w io.Writer) error {
		if _, err := io.Copy(w, inFile); err != nil {
			return fmt.Errorf("could not copy from %q: %w", src, err)
		}
		return nil
	})
}

func moveFile(logger *slog.Logger, src, dest string) error {
	logger.Info("moving", "to", dest)

	if err := checkFile(src, dest); err != nil {
		return err
	}
	return os.Rename(src, dest)
}

// rotateFile writes a quarter-turned copy of src into destDir. The source
// format is kept when it can be encoded, PNG otherwise. With remove set the
// source is deleted once the copy is in place.
func rotateFile(logger *slog.Logger, src, destDir string, degrees int, remove bool) error {
	inFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("could not open source file %q: %w", src, err)
	}
	b, format, err := codec.Decode(inFile)
	inFile.Close()
	if err != nil {
		return err
	}

	rotated, err := transform.Rotate(b, degrees)
	if err != nil {
		return err
	}

	name := filepath.Base(src)
	if !slices.Contains(codec.Formats, format) {
		format = "png"
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
	}
	dest := filepath.Join(destDir, name)
	logger.Info("rotating", "degrees", degrees, "format", format, "to", dest)

	if err := checkFile(src, dest); err != nil {
		return err
	}
	if err := place(dest, func(w io.Writer) error {
		return codec.Encode(w, rotated, format)
	}); err != nil {
		return err
	}

	if remove {
		if err := os.Remove(src); err != nil {
			return fmt.Errorf("could not remove source file %q: %w", src, err)
		}
	}
	return nil
}

// place fills a temporary file next to dest through write and renames it
// to dest once write succeeded and the data is flushed.
func place(dest string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return fmt.Errorf("could not create temporary file for %q: %w", dest, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("could not flush destination file %q: %w", dest, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("could not close destination file %q: %w", dest, err)
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("could not rename destination file %q: %w", dest, err)
	}
	return nil
}

// checkFile fails unless src is a regular file and dest does not exist yet.
func checkFile(src, dest string) error {
	info, err := os.Stat(src)
	switch {
	case err != nil:
		return fmt.Errorf("cannot stat source file %q: %w", src, err)
	case !info.Mode().IsRegular():
		return fmt.Errorf("cannot use %q (%s): %w", src, info.Mode(), errNotRegular)
	}

	_, err = os.Stat(dest)
	switch {
	case err == nil:
		return fmt.Errorf("destination %q: %w", dest, fs.ErrExist)
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("cannot stat destination file %q: %w", dest, err)
	}
	return nil
}
