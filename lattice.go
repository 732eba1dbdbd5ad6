package applylm

import (
	"fmt"
	"io"
	"os"

	"github.com/ieee0824/applylm-go/fst"
)

// Lattice file formats.
const (
	FormatText    = "text"
	FormatMsgpack = "msgpack"
)

// ReadLattice reads a tropical lattice in the given format.
func ReadLattice(r io.Reader, format string) (*fst.VectorFST[fst.TropicalWeight], error) {
	switch format {
	case FormatText:
		return fst.ReadText(r)
	case FormatMsgpack:
		return fst.Decode[fst.TropicalWeight](r, fst.Tropical{})
	default:
		return nil, fmt.Errorf("unknown lattice format %q", format)
	}
}

// WriteLattice writes a tropical lattice in the given format.
func WriteLattice(w io.Writer, format string, lat *fst.VectorFST[fst.TropicalWeight]) error {
	switch format {
	case FormatText:
		return fst.WriteText(w, lat)
	case FormatMsgpack:
		return fst.Encode(w, lat)
	default:
		return fmt.Errorf("unknown lattice format %q", format)
	}
}

// ReadLatticeFile is a convenience wrapper that opens a file path.
func ReadLatticeFile(path, format string) (*fst.VectorFST[fst.TropicalWeight], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lat, err := ReadLattice(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lat, nil
}

// WriteLatticeFile writes lat to path, replacing any existing file.
func WriteLatticeFile(path, format string, lat *fst.VectorFST[fst.TropicalWeight]) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteLattice(f, format, lat); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
