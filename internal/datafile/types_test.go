package datafile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/dat2s/internal/datafile"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		want int32
	}{
		{name: "bitmap", tag: "BMP ", want: 0x424D5020},
		{name: "padded", tag: "BMP", want: 0x424D5020},
		{name: "file", tag: "FILE", want: 0x46494C45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, datafile.Type(tt.want), datafile.ID(tt.tag))
		})
	}
}

func TestTypeChars(t *testing.T) {
	c := datafile.TypeSample.Chars()
	assert.Equal(t, "SAMP", string(c[:]))
	assert.Equal(t, "BMP", datafile.TypeBitmap.String())
	assert.Equal(t, "END", datafile.TypeEnd.String())
}

func TestParseType(t *testing.T) {
	typ, err := datafile.ParseType("XYZ")
	require.NoError(t, err)
	assert.Equal(t, datafile.ID("XYZ "), typ)

	typ, err = datafile.ParseType("1179208773")
	require.NoError(t, err)
	assert.Equal(t, datafile.TypeFile, typ)

	_, err = datafile.ParseType("")
	assert.Error(t, err)

	_, err = datafile.ParseType("toolong")
	assert.Error(t, err)
}

func TestObjectProperties(t *testing.T) {
	o := &datafile.Object{Type: datafile.TypeData}
	assert.Equal(t, "", o.Name())

	o.SetProperty(datafile.TypeName, "first")
	o.SetProperty(datafile.TypeName, "second")
	assert.Equal(t, "second", o.Name())
	assert.Len(t, o.Properties, 1)
}

func TestSampleDataSize(t *testing.T) {
	assert.Equal(t, 4, (&datafile.Sample{Bits: 8, Length: 4}).DataSize())
	assert.Equal(t, 16, (&datafile.Sample{Bits: 16, Stereo: true, Length: 4}).DataSize())
}

func TestPaletteBytes(t *testing.T) {
	var p datafile.Palette
	p[1] = datafile.RGB{R: 63, G: 1, B: 2}
	b := p.Bytes()
	require.Len(t, b, 1024)
	assert.Equal(t, []byte{63, 1, 2, 0}, b[4:8])
}
