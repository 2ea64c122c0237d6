package storage

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/shuidong/block-game/internal/coord"
	"github.com/shuidong/block-game/internal/registry"
	"github.com/shuidong/block-game/internal/world"
)

// Version tags every encoded column. Decoding data with another tag fails
// with ErrVersionMismatch.
const Version = "blockgame-column/3"

// Layout, little endian:
//
//	u8 len | version | u8 chunk size | u8 world height | i32 x | i32 z |
//	u64 xxhash(body) | u32 len(body) | body
//
// body is zstd of: u16 blocks | u8 light | i32 max height | f32 humidity | f32 temperature
const headerFixed = 1 + 1 + 4 + 4 + 8 + 4

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

// EncodeColumn serializes a column with its position and dimensions.
func EncodeColumn(col *world.Column) []byte {
	d := col.Data()
	dims := col.Dims()

	body := make([]byte, 0, len(d.Blocks)*2+len(d.Light)+4+len(d.Humidity)*8)
	for _, id := range d.Blocks {
		body = binary.LittleEndian.AppendUint16(body, uint16(id))
	}
	body = append(body, d.Light...)
	body = binary.LittleEndian.AppendUint32(body, uint32(int32(d.MaxHeight)))
	for _, f := range d.Humidity {
		body = binary.LittleEndian.AppendUint32(body, math.Float32bits(f))
	}
	for _, f := range d.Temperature {
		body = binary.LittleEndian.AppendUint32(body, math.Float32bits(f))
	}
	packed := encoder.EncodeAll(body, nil)

	out := make([]byte, 0, 1+len(Version)+headerFixed+len(packed))
	out = append(out, byte(len(Version)))
	out = append(out, Version...)
	out = append(out, byte(dims.ChunkSize), byte(dims.WorldHeight))
	out = binary.LittleEndian.AppendUint32(out, uint32(int32(col.Pos.X)))
	out = binary.LittleEndian.AppendUint32(out, uint32(int32(col.Pos.Z)))
	out = binary.LittleEndian.AppendUint64(out, xxhash.Sum64(packed))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(packed)))
	return append(out, packed...)
}

// DecodeColumn restores a column saved at pos with dims.
func DecodeColumn(data []byte, pos coord.Column, dims world.Dimensions) (*world.Column, error) {
	if len(data) < 1 || len(data) < 1+int(data[0]) {
		return nil, fmt.Errorf("%w: truncated version tag", ErrCorrupt)
	}
	if v := string(data[1 : 1+int(data[0])]); v != Version {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrVersionMismatch, v, Version)
	}
	data = data[1+int(data[0]):]
	if len(data) < headerFixed {
		return nil, fmt.Errorf("%w: truncated header", ErrCorrupt)
	}

	saved := world.Dimensions{ChunkSize: int(data[0]), WorldHeight: int(data[1])}
	if saved != dims {
		return nil, fmt.Errorf("%w: saved with dimensions %+v, world uses %+v", ErrVersionMismatch, saved, dims)
	}
	at := coord.Column{
		X: int(int32(binary.LittleEndian.Uint32(data[2:]))),
		Z: int(int32(binary.LittleEndian.Uint32(data[6:]))),
	}
	if at != pos {
		return nil, fmt.Errorf("%w: entry for %v holds column %v", ErrCorrupt, pos, at)
	}
	sum := binary.LittleEndian.Uint64(data[10:])
	n := int(binary.LittleEndian.Uint32(data[18:]))
	packed := data[22:]
	if len(packed) != n {
		return nil, fmt.Errorf("%w: body is %d bytes, header says %d", ErrCorrupt, len(packed), n)
	}
	if xxhash.Sum64(packed) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	body, err := decoder.DecodeAll(packed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	volume, area := dims.Volume(), dims.ChunkSize*dims.ChunkSize
	if want := volume*2 + volume + 4 + area*8; len(body) != want {
		return nil, fmt.Errorf("%w: body decodes to %d bytes, want %d", ErrCorrupt, len(body), want)
	}

	cd := world.ColumnData{
		Blocks:      make([]registry.BlockID, volume),
		Light:       make([]uint8, volume),
		Humidity:    make([]float32, area),
		Temperature: make([]float32, area),
	}
	for i := range cd.Blocks {
		cd.Blocks[i] = registry.BlockID(binary.LittleEndian.Uint16(body[i*2:]))
	}
	body = body[volume*2:]
	copy(cd.Light, body[:volume])
	body = body[volume:]
	cd.MaxHeight = int(int32(binary.LittleEndian.Uint32(body)))
	body = body[4:]
	for i := range cd.Humidity {
		cd.Humidity[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}
	body = body[area*4:]
	for i := range cd.Temperature {
		cd.Temperature[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}

	col, err := world.NewColumnFromData(pos, dims, cd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return col, nil
}
