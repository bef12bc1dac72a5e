package buffer

import (
	"errors"
)

// BufferWrite describes a single GPU buffer write operation targeting a named registry buffer
// at a given byte offset.
type BufferWrite struct {
	Buffer string
	Offset uint64
	Data   []byte
}

// Writer applies buffer writes. BufferRegistry implementations satisfy it.
type Writer interface {
	Write(name string, offset uint64, data []byte) error
}

// ApplyWrites performs every write in order. A failing write does not stop later writes;
// all failures are joined into the returned error.
//
// Parameters:
//   - w: the destination of the writes
//   - writes: the writes to perform
//
// Returns:
//   - error: the joined write errors, or nil
func ApplyWrites(w Writer, writes []BufferWrite) error {
	var errs []error
	for _, bw := range writes {
		if err := w.Write(bw.Buffer, bw.Offset, bw.Data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
