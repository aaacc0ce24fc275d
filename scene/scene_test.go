package scene_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/soypat/gregory"
	"github.com/soypat/gregory/form3/must3"
	"github.com/soypat/gregory/scene"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc, err := scene.NewEncoder(&buf)
	require.NoError(t, err)
	var col scene.Collector

	meshes := []gregory.Topology{must3.Cube(2), must3.Torus(3, 1, 6, 4), must3.Pyramid(1, 1)}
	for _, m := range meshes {
		_, err := gregory.Convert(m, enc, gregory.Config{})
		require.NoError(t, err)
		_, err = gregory.Convert(m, &col, gregory.Config{})
		require.NoError(t, err)
	}
	bez := make([]float32, 48)
	for i := range bez {
		bez[i] = float32(i) / 7
	}
	require.NoError(t, enc.WritePatches("bez", gregory.TypeBezier, bez))
	require.NoError(t, col.WritePatches("bez", gregory.TypeBezier, bez))

	got, err := scene.ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, got, 4)
	require.Equal(t, col.Meshes, got)
	require.Equal(t, 6, got[0].NumPatches())
	require.Equal(t, 24, got[1].NumPatches())
	require.Equal(t, 1, got[2].NumPatches())
	require.Equal(t, gregory.TypeBezier, got[3].Type)
	require.Equal(t, 1, got[3].NumPatches())
	for i := range bez {
		require.Equal(t, math.Float32bits(bez[i]), math.Float32bits(got[3].Positions[i]))
	}
}

func TestEncoderValidation(t *testing.T) {
	var buf bytes.Buffer
	enc, err := scene.NewEncoder(&buf)
	require.NoError(t, err)
	header := buf.Len()

	err = enc.WritePatches("short", gregory.TypeGregory, make([]float32, 59))
	require.ErrorIs(t, err, scene.ErrPositions)
	nan := make([]float32, 60)
	nan[17] = float32(math.NaN())
	err = enc.WritePatches("nan", gregory.TypeGregory, nan)
	require.ErrorIs(t, err, scene.ErrPositions)
	inf := make([]float32, 48)
	inf[0] = float32(math.Inf(1))
	err = enc.WritePatches("inf", gregory.TypeBezier, inf)
	require.ErrorIs(t, err, scene.ErrPositions)
	err = enc.WritePatches("unknown", gregory.PatchType(9), nil)
	require.ErrorIs(t, err, scene.ErrPositions)
	err = enc.WritePatches(strings.Repeat("x", math.MaxUint16+1), gregory.TypeGregory, nil)
	require.ErrorIs(t, err, scene.ErrNameLength)
	require.Equal(t, header, buf.Len(), "rejected records must not be written")

	// An empty patch list is a valid record.
	require.NoError(t, enc.WritePatches("empty", gregory.TypeGregory, nil))
	got, err := scene.ReadAll(&buf)
	require.NoError(t, err)
	require.Equal(t, []scene.Mesh{{Name: "empty", Type: gregory.TypeGregory, Positions: []float32{}}}, got)
}

func TestDecoderErrors(t *testing.T) {
	_, err := scene.NewDecoder(strings.NewReader("GLTF\x01\x00"))
	require.ErrorIs(t, err, scene.ErrBadMagic)
	_, err = scene.NewDecoder(strings.NewReader("GPSC\x07\x00"))
	require.ErrorIs(t, err, scene.ErrVersion)
	_, err = scene.NewDecoder(strings.NewReader("GP"))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	var buf bytes.Buffer
	enc, err := scene.NewEncoder(&buf)
	require.NoError(t, err)
	require.NoError(t, enc.WritePatches("cube", gregory.TypeGregory, make([]float32, 120)))
	full := buf.Bytes()
	for _, cut := range []int{len(full) - 1, len(full) - 240, 7, 9} {
		d, err := scene.NewDecoder(bytes.NewReader(full[:cut]))
		require.NoError(t, err)
		_, err = d.Next()
		require.ErrorIs(t, err, io.ErrUnexpectedEOF, "cut at %d", cut)
	}
	d, err := scene.NewDecoder(bytes.NewReader(full))
	require.NoError(t, err)
	_, err = d.Next()
	require.NoError(t, err)
	_, err = d.Next()
	require.Equal(t, io.EOF, err)

	// A short record declaring a large float count fails on the data
	// actually present.
	huge := append([]byte{}, full[:6]...)
	huge = append(huge, 4, 0, 'c', 'u', 'b', 'e', byte(gregory.TypeGregory))
	huge = binary.LittleEndian.AppendUint32(huge, 1<<27)
	huge = append(huge, make([]byte, 12)...)
	d, err = scene.NewDecoder(bytes.NewReader(huge))
	require.NoError(t, err)
	_, err = d.Next()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

const teapotLid = `2
1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16
16,15,14,13,12,11,10,9,8,7,6,5,4,3,2,1
16
0,0,0
1,0,0
2,0,0
3,0,0
0,1,0
1,1,0.5
2,1,0.5
3,1,0
0,2,0
1,2,0.5
2,2,0.5
3,2,0
0,3,0
1,3,0
2,3,0
3,3,0
`

func TestReadBEZ(t *testing.T) {
	pos, err := scene.ReadBEZ(strings.NewReader(teapotLid), false)
	require.NoError(t, err)
	require.Len(t, pos, 2*16*3)
	require.NoError(t, scene.Validate(gregory.TypeBezier, pos))
	require.Equal(t, []float32{1, 0, 0}, pos[3:6])
	// Second patch reverses the index order.
	require.Equal(t, []float32{3, 3, 0}, pos[48:51])

	flipped, err := scene.ReadBEZ(strings.NewReader(teapotLid), true)
	require.NoError(t, err)
	// Transposed: the second control point is the first of the next row.
	require.Equal(t, []float32{0, 1, 0}, flipped[3:6])
	require.Equal(t, pos[:3], flipped[:3])
	require.Equal(t, pos[15*3:16*3], flipped[15*3:16*3])

	for _, bad := range []string{
		"",
		"1\n1,2,3\n",
		"1\n1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,17\n16\n" + strings.Repeat("0,0,0\n", 16),
		"1\n1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16\n16\n" + strings.Repeat("0,0\n", 16),
		"x\n",
		// Counts far beyond the data that follows.
		"9000000000000000000\n",
		"100000000\n1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16\n",
		"0\n9000000000000000000\n",
		"1\n1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16\n4611686018427387904\n0,0,0\n",
	} {
		_, err := scene.ReadBEZ(strings.NewReader(bad), false)
		require.ErrorIs(t, err, scene.ErrBEZ, "%q", bad)
	}
}
