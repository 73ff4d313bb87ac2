package metadata

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
)

func TestFetchOrAssignInstanceID(t *testing.T) {
	a := assert.New(t)
	ctx := context.TODO()
	fs := afero.NewMemMapFs()
	a.NoError(fs.MkdirAll("/data", 0755))
	id1 := FetchOrAssignInstanceID(ctx, fs, "/data")
	id2 := FetchOrAssignInstanceID(ctx, fs, "/data")
	a.Equal(id1, id2)
	id3, err := FetchInstanceID(fs, "/data")
	a.NoError(err)
	a.Equal(id1, id3)
	_, err = FetchInstanceID(fs, "/invalid_dir_entry")
	a.NotNil(err)
}

func TestNewInstanceID(t *testing.T) {
	a := assert.New(t)
	ids := make(map[uint64]bool)
	numIDs := 1000
	for i := 0; i < numIDs; i++ {
		ids[uint64(newInstanceID())] = true
	}
	a.Equal(numIDs, len(ids))
}
