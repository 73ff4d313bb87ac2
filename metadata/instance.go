package metadata

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/cockroach/pkg/util/randutil"
	"github.com/scaledata/etcd/pkg/types"
	"github.com/spf13/afero"

	"github.com/rubrikinc/raffle/checksumfile"
	"github.com/rubrikinc/raffle/raffleutil/log"
)

// instanceIDFileName stores the id of the raffle instance owning a data dir.
const instanceIDFileName = "instance-id"

func newInstanceID() types.ID {
	r, _ := randutil.NewPseudoRand()
	return types.ID(r.Uint64())
}

func instanceIDFilePath(dataDir string) string {
	return filepath.Join(dataDir, instanceIDFileName)
}

// FetchOrAssignInstanceID returns the instance id persisted in dataDir, or
// persists and returns a new one.
func FetchOrAssignInstanceID(ctx context.Context, fs afero.Fs, dataDir string) (id types.ID) {
	exists, err := checksumfile.Exists(fs, instanceIDFilePath(dataDir))
	if err != nil {
		log.Fatal(ctx, err)
	}
	if !exists {
		id = newInstanceID()
		if err := checksumfile.Write(fs, instanceIDFilePath(dataDir), []byte(id.String())); err != nil {
			log.Fatalf(ctx, "Failed to write instance id to file, error: %v", err)
		}
		return id
	}
	if id, err = FetchInstanceID(fs, dataDir); err != nil {
		log.Fatal(ctx, err)
	}
	return id
}

// FetchInstanceID returns the instance id persisted in dataDir.
func FetchInstanceID(fs afero.Fs, dataDir string) (types.ID, error) {
	raw, err := checksumfile.Read(fs, instanceIDFilePath(dataDir))
	if err != nil {
		return 0, err
	}
	return types.IDFromString(string(raw))
}
