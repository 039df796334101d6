// Binary encoding for dataset blobs.
//
// A dataset can hold tens of thousands of keyword rows, so it is stored gob
// encoded rather than as JSON. The blob is prefixed with a one-byte format
// version:
//
//	0x01: gob(ports.Dataset)
//
// A blob starting with '{' is a JSON dataset (written by older versions or
// by hand) and is still readable.
package bbolt

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"

	"github.com/corey/titlelab/internal/ports"
)

const datasetFormatGob byte = 0x01

// encodeDataset encodes ds in the current blob format.
func encodeDataset(ds *ports.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(datasetFormatGob)
	if err := gob.NewEncoder(&buf).Encode(ds); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeDataset decodes a blob written by encodeDataset, or a JSON dataset.
func decodeDataset(data []byte) (*ports.Dataset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty dataset blob")
	}
	var ds ports.Dataset
	switch data[0] {
	case datasetFormatGob:
		if err := gob.NewDecoder(bytes.NewReader(data[1:])).Decode(&ds); err != nil {
			return nil, fmt.Errorf("decode gob dataset: %w", err)
		}
	case '{':
		if err := json.Unmarshal(data, &ds); err != nil {
			return nil, fmt.Errorf("decode json dataset: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown dataset format 0x%02x", data[0])
	}
	return &ds, nil
}
