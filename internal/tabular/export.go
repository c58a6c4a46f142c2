package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mesh-intelligence/marquee/pkg/types"
)

// ExportColumns is the CSV export header, in store column order.
var ExportColumns = []string{
	"id", "nombre", "genero", "idioma", "traduccion", "fecha", "pais", "fecha_creacion", "usuario_creacion",
}

const exportTimestampLayout = "2006-01-02 15:04:05"

// WriteCSV writes movies as UTF-8 CSV with a header row.
func WriteCSV(w io.Writer, movies []types.Movie) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, m := range movies {
		created := ""
		if !m.CreatedAt.IsZero() {
			created = m.CreatedAt.UTC().Format(exportTimestampLayout)
		}
		rec := []string{
			strconv.FormatInt(m.ID, 10),
			m.Title,
			m.Genre,
			m.Language,
			types.TranslationLabel(m.Translation),
			m.ReleaseDate,
			m.Country,
			created,
			m.CreatedBy,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing movie %d: %w", m.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFileAtomic writes path through a temp file in the same directory,
// fsyncs it and renames it into place. A failed write leaves any existing
// file untouched.
func WriteFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
