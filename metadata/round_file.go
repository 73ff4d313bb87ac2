package metadata

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/cockroach/pkg/util/syncutil"
	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/scaledata/etcd/pkg/fileutil"
	"github.com/spf13/afero"

	"github.com/rubrikinc/raffle/checksumfile"
	"github.com/rubrikinc/raffle/lottery"
	"github.com/rubrikinc/raffle/raffleutil"
)

const (
	roundFileName = "round"
	lockFileName  = "round.LOCK"
)

// ErrNoRoundFile is returned by LoadRound when no round has been persisted in
// the data directory.
var ErrNoRoundFile = errors.New("round file does not exist")

// RoundFilename returns the name of the file which stores the round.
func RoundFilename(dataDir string) string {
	return filepath.Join(dataDir, roundFileName)
}

// RoundFile persists rounds to a checksumfile in a data directory. When
// opened for writing on the OS filesystem it holds a lock file, so that at
// most one writer exists for a data directory across all processes.
type RoundFile struct {
	mu       syncutil.Mutex
	fs       afero.Fs
	filename string
	readOnly bool
	lockFile *fileutil.LockedFile
}

var _ lottery.Store = &RoundFile{}

// OpenRoundFile opens the round file in dataDir. dataDir is created if it
// does not exist and readOnly is false.
func OpenRoundFile(fs afero.Fs, dataDir string, readOnly bool) (*RoundFile, error) {
	f := &RoundFile{
		fs:       fs,
		filename: RoundFilename(dataDir),
		readOnly: readOnly,
	}
	if readOnly {
		return f, nil
	}
	if err := fs.MkdirAll(dataDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "could not create data dir %s", dataDir)
	}
	if _, ok := fs.(*afero.OsFs); ok {
		lockFile, err := fileutil.TryLockFile(
			filepath.Join(dataDir, lockFileName),
			os.O_CREATE|os.O_RDWR|os.O_TRUNC,
			fileutil.PrivateFileMode,
		)
		if err != nil {
			return nil, errors.Wrapf(err, "could not lock data dir %s", dataDir)
		}
		f.lockFile = lockFile
	}
	return f, nil
}

// Load implements lottery.Store. It returns nil if no round was persisted.
func (f *RoundFile) Load(ctx context.Context) (*lottery.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exists, err := checksumfile.Exists(f.fs, f.filename)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	data, err := checksumfile.Read(f.fs, f.filename)
	if err != nil {
		return nil, err
	}
	rec := &RoundRecord{}
	if err := proto.Unmarshal(data, rec); err != nil {
		return nil, errors.Wrapf(err, "could not decode %s", f.filename)
	}
	return rec.Round()
}

// Save implements lottery.Store. It fails if the file was opened in readOnly
// mode.
func (f *RoundFile) Save(ctx context.Context, r *lottery.Round) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readOnly {
		return errors.New("round file opened in readOnly mode")
	}
	data, err := proto.Marshal(NewRoundRecord(r))
	if err != nil {
		return err
	}
	return checksumfile.Write(f.fs, f.filename, data)
}

// Close releases the lock on the data directory.
func (f *RoundFile) Close() error {
	if f.lockFile != nil {
		return f.lockFile.Close()
	}
	return nil
}

// LoadRound reads the round persisted in dataDir without taking the lock.
// It returns ErrNoRoundFile if nothing was persisted.
func LoadRound(ctx context.Context, fs afero.Fs, dataDir string) (*lottery.Round, error) {
	f, err := OpenRoundFile(fs, dataDir, true /* readOnly */)
	if err != nil {
		return nil, err
	}
	r, err := f.Load(ctx)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNoRoundFile
	}
	return r, nil
}

// PrettyPrint returns a two column table describing r.
func PrettyPrint(r *lottery.Round) (string, error) {
	var b bytes.Buffer
	tw := tabwriter.NewWriter(
		&b,
		2,   /* minWidth */
		2,   /* tabWidth */
		2,   /* padding */
		' ', /* padChar */
		0,   /* flags */
	)
	pending := "-"
	if r.RequestPending {
		pending = fmt.Sprint(r.PendingRequestID)
	}
	rows := [][2]string{
		{"Round", fmt.Sprint(r.Number)},
		{"State", r.State.String()},
		{"EntranceFee", raffleutil.FormatEther(r.EntranceFee)},
		{"Interval", r.Interval.String()},
		{"LastDraw", time.Unix(0, r.LastDrawTimestamp).UTC().Format(time.RFC3339)},
		{"Players", fmt.Sprint(len(r.Players))},
		{"Pot", raffleutil.FormatEther(r.Pot)},
		{"PendingRequest", pending},
		{"RecentWinner", string(r.RecentWinner)},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}
	if err := tw.Flush(); err != nil {
		return "", err
	}
	return b.String(), nil
}
