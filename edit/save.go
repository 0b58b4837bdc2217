package edit

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"picedit/codec"
)

// outputFormat resolves the --format flag against the decoded image type.
// "unsup:X" keeps the source format when it can be encoded and falls back to
// X otherwise.
func outputFormat(imgType, outType string) string {
	outType, unsupOnly := strings.CutPrefix(outType, "unsup:")
	if outType == "same" || (unsupOnly && slices.Contains(codec.Formats, imgType)) {
		return imgType
	}
	return outType
}

// save writes img next to its siblings in destDir through a temporary file
// that is renamed into place once fully written.
func save(logger *slog.Logger, img image.Image, imgType, outType, destDir, srcName string) (err error) {
	outType = outputFormat(imgType, outType)

	ext := outType
	if ext == "jpeg" && strings.EqualFold(filepath.Ext(srcName), ".jpg") {
		ext = "jpg"
	}
	destName := fmt.Sprintf("%s.%s", strings.TrimSuffix(srcName, filepath.Ext(srcName)), ext)

	outFile, err := os.CreateTemp(destDir, destName+".*")
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", destName, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil && err == nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", destName, defErr)
		}
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", destName, defErr)
		}

		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), filepath.Join(destDir, destName)); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", destName, defErr)
			}
		}
		if err != nil {
			_ = os.Remove(outFile.Name())
		}
	}()

	if err = codec.EncodeImage(outFile, img, outType); err != nil {
		return fmt.Errorf("could not save %q: %w", destName, err)
	}

	logger.Info("saved", "dest", filepath.Join(destDir, destName), "format", outType)
	canRename = true
	return nil
}
