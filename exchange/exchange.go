// Package exchange moves bulk numeric data between the client and the
// server through a temporary file of raw little-endian float64 values.
package exchange

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const valueSize = 8

// With creates a fresh exchange file in dir (the system temp dir when
// empty), hands its path to fn and removes the file on every exit path.
func With(dir string, fn func(path string) error) (err error) {
	path, err := create(dir)
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
			err = errors.Wrapf(rmErr, "remove exchange file %s", path)
		}
	}()
	return fn(path)
}

func create(dir string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "kst-"+uuid.NewString()+".f64")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", errors.Wrap(err, "create exchange file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", errors.Wrap(err, "close exchange file")
	}
	return path, nil
}

func WriteFloats(path string, values []float64) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o600)
	if err != nil {
		return errors.Wrap(err, "open exchange file for write")
	}
	w := bufio.NewWriter(f)
	var buf [valueSize]byte
	for _, v := range values {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		if _, err := w.Write(buf[:]); err != nil {
			f.Close() //nolint:errcheck
			return errors.Wrap(err, "write exchange file")
		}
	}
	if err := w.Flush(); err != nil {
		f.Close() //nolint:errcheck
		return errors.Wrap(err, "flush exchange file")
	}
	return errors.Wrap(f.Close(), "close exchange file")
}

func ReadFloats(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open exchange file for read")
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat exchange file")
	}
	if st.Size()%valueSize != 0 {
		return nil, errors.Errorf("exchange file %s: size %d is not a multiple of %d", path, st.Size(), valueSize)
	}
	values := make([]float64, st.Size()/valueSize)
	r := bufio.NewReader(f)
	var buf [valueSize]byte
	for i := range values {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, errors.Wrapf(err, "read value %d", i)
		}
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[:]))
	}
	return values, nil
}
