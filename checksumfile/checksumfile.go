package checksumfile

import (
	"bytes"
	"hash"
	"path/filepath"

	"github.com/cockroachdb/cockroach/pkg/util/randutil"
	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ErrChecksumMismatch is returned when checksum and data don't match for a file
var ErrChecksumMismatch = errors.New("checksum and data don't match")

const alphanumeric = "abcdefghijklmnopqrstuvwxyz0123456789"

func tempFileSuffix() string {
	rng, _ := randutil.NewPseudoRand()
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = alphanumeric[rng.Intn(len(alphanumeric))]
	}
	return ".tmp." + string(suffix)
}

// checksumedFile only supports complete rewrites. It internally serializes the
// content and checksum in a binary format before writing.
type checksumedFile struct {
	fs       afero.Fs
	filename string
	hash     hash.Hash
}

func newChecksumedFile(fs afero.Fs, name string) checksumedFile {
	return checksumedFile{fs: fs, filename: name, hash: newHash()}
}

func (c *checksumedFile) read() ([]byte, error) {
	content, err := afero.ReadFile(c.fs, c.filename)
	if err != nil {
		return nil, err
	}
	fe := &FileExtent{}
	if err := proto.Unmarshal(content, fe); err != nil {
		return nil, err
	}
	if !valid(fe.Checksum, fe.Data, c.hash) {
		return nil, ErrChecksumMismatch
	}
	return fe.Data, nil
}

func (c *checksumedFile) write(p []byte) error {
	cksm, err := computeHash(p, c.hash)
	if err != nil {
		return err
	}
	fe, err := proto.Marshal(&FileExtent{Checksum: cksm, Data: p})
	if err != nil {
		return err
	}
	if err := afero.WriteFile(c.fs, c.filename, fe, 0644); err != nil {
		return err
	}
	return syncPath(c.fs, c.filename)
}

// Read reads data written to filename using the Write function. It returns an
// error if the checksums don't match or file doesn't exist.
func Read(fs afero.Fs, filename string) ([]byte, error) {
	cksmFile := newChecksumedFile(fs, filename)
	contents, err := cksmFile.read()
	if err != nil {
		return nil, errors.Wrapf(err, "could not read from file %s", filename)
	}
	return contents, nil
}

func syncPath(fs afero.Fs, path string) error {
	f, err := fs.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Sync(); err != nil {
		return err
	}
	return f.Close()
}

// Write writes p to filename along with its checksum in a binary format.
// This data can be read using the Read function. Write returns an error if
// data could not be completely written for some reason. It never corrupts the
// existing file.
func Write(fs afero.Fs, filename string, p []byte) error {
	tempFileName := filename + tempFileSuffix()
	tempChecksumedFile := newChecksumedFile(fs, tempFileName)
	if err := tempChecksumedFile.write(p); err != nil {
		return errors.Wrapf(err, "could not write to temp file %s", tempFileName)
	}
	if wb, err := tempChecksumedFile.read(); err != nil || !bytes.Equal(wb, p) {
		if err == nil {
			err = ErrChecksumMismatch
		}
		return errors.Wrapf(err, "could not validate data written to temp file %s", tempFileName)
	}
	if err := fs.Rename(tempFileName, filename); err != nil {
		_ = fs.Remove(tempFileName)
		return errors.Wrapf(err, "could not rename temp file %s to %s", tempFileName, filename)
	}
	// Sync the directory to make the rename durable.
	return syncPath(fs, filepath.Dir(filename))
}

// Exists reports whether filename exists on fs.
func Exists(fs afero.Fs, filename string) (bool, error) {
	return afero.Exists(fs, filename)
}
