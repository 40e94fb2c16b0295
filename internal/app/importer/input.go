package importer

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

// Input is a fully read source table.
type Input struct {
	Data []byte
	// Digest is the hex BLAKE3 hash of the file as stored on disk.
	Digest string
}

// ReadInput reads the table at path, decompressing "*.xz" files.
func ReadInput(path string) (Input, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Input{}, fmt.Errorf("read input: %w", err)
	}

	sum := blake3.Sum256(raw)
	in := Input{Data: raw, Digest: hex.EncodeToString(sum[:])}

	if !strings.HasSuffix(strings.ToLower(path), ".xz") {
		return in, nil
	}

	r, err := xz.NewReader(bytes.NewReader(raw))
	if err != nil {
		return Input{}, fmt.Errorf("open xz input: %w", err)
	}
	if in.Data, err = io.ReadAll(r); err != nil {
		return Input{}, fmt.Errorf("decompress input: %w", err)
	}
	return in, nil
}
