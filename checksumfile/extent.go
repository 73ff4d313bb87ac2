package checksumfile

import (
	"github.com/gogo/protobuf/proto"
)

// FileExtent is the on-disk framing of a checksummed file.
type FileExtent struct {
	Checksum []byte `protobuf:"bytes,1,opt,name=checksum,proto3" json:"checksum,omitempty"`
	Data     []byte `protobuf:"bytes,2,opt,name=data,proto3" json:"data,omitempty"`
}

func (m *FileExtent) Reset()         { *m = FileExtent{} }
func (m *FileExtent) String() string { return proto.CompactTextString(m) }
func (*FileExtent) ProtoMessage()    {}
