package recorder

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/automoto/ld51/action"
	"github.com/automoto/ld51/logger"
)

// ErrCorruptRecording is returned when an imported recording fails to
// decode. The recorder is left unchanged.
var ErrCorruptRecording = errors.New("corrupt recording")

const (
	headerSize = 4
	recordSize = 4 + action.EncodedSize

	// MaxRecords bounds imports, and with it the decompressed size of a
	// shared recording.
	MaxRecords = 1 << 20
)

// Export serializes the log: a little-endian u32 record count followed by
// count records of a little-endian u32 step and the 3 action bytes.
func (r *Recorder) Export() []byte {
	buf := make([]byte, headerSize, headerSize+len(r.records)*recordSize)
	binary.LittleEndian.PutUint32(buf, uint32(len(r.records)))
	for _, rec := range r.records {
		buf = binary.LittleEndian.AppendUint32(buf, rec.Step)
		buf = append(buf, rec.Action[:]...)
	}
	return buf
}

// Import replaces the log with a payload produced by Export and rewinds
// the play head. The payload is fully validated first; on error the
// recorder is untouched.
func (r *Recorder) Import(data []byte) error {
	records, err := decode(data)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"component": "recorder",
			"bytes":     len(data),
		}).WithError(err).Warn("recording import failed")
		return err
	}
	r.records = records
	r.playHead = 0
	return nil
}

func decode(data []byte) ([]Record, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorruptRecording, len(data))
	}
	count := binary.LittleEndian.Uint32(data)
	if count > MaxRecords {
		return nil, fmt.Errorf("%w: %d records exceeds limit %d", ErrCorruptRecording, count, MaxRecords)
	}
	if want := headerSize + int(count)*recordSize; len(data) != want {
		return nil, fmt.Errorf("%w: %d records need %d bytes, got %d", ErrCorruptRecording, count, want, len(data))
	}

	records := make([]Record, count)
	body := data[headerSize:]
	for i := range records {
		off := i * recordSize
		rec := Record{Step: binary.LittleEndian.Uint32(body[off:])}
		copy(rec.Action[:], body[off+4:off+recordSize])
		if i > 0 && rec.Step < records[i-1].Step {
			return nil, fmt.Errorf("%w: record %d step %d precedes step %d", ErrCorruptRecording, i, rec.Step, records[i-1].Step)
		}
		records[i] = rec
	}
	return records, nil
}

// ExportText returns the log compressed and base64 encoded for sharing as
// text.
func (r *Recorder) ExportText() (string, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(r.Export()); err != nil {
		return "", fmt.Errorf("compress recording: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress recording: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ImportText reverses ExportText. A failure at any stage leaves the
// recorder untouched.
func (r *Recorder) ImportText(s string) error {
	data, err := decodeText(s)
	if err != nil {
		logger.Log.WithField("component", "recorder").WithError(err).Warn("recording import failed")
		return err
	}
	return r.Import(data)
}

func decodeText(s string) ([]byte, error) {
	compressed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrCorruptRecording, err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %v", ErrCorruptRecording, err)
	}
	defer zr.Close()

	const limit = headerSize + MaxRecords*recordSize
	data, err := io.ReadAll(io.LimitReader(zr, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %v", ErrCorruptRecording, err)
	}
	if len(data) > limit {
		return nil, fmt.Errorf("%w: decompressed size exceeds %d bytes", ErrCorruptRecording, limit)
	}
	return data, nil
}
