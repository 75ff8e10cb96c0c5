package asm_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/dat2s/internal/asm"
	"github.com/Alia5/dat2s/internal/datafile"
)

var fixedDate = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func entry(name string, typ datafile.Type, size int, payload any) *datafile.Object {
	o := &datafile.Object{Type: typ, Size: size, Payload: payload}
	o.SetProperty(datafile.TypeName, name)
	return o
}

func sampleBundle() datafile.Bundle {
	return datafile.Bundle{
		entry("img", datafile.TypeBitmap, 4, &datafile.Bitmap{Width: 2, Height: 2, Depth: 8, Pixels: []byte{1, 2, 3, 4}}),
		entry("snd", datafile.TypeSample, 4, &datafile.Sample{Bits: 8, Freq: 11025, Priority: 128, Length: 4, LoopEnd: 4, Param: -1, Data: []byte{0x80, 0x90, 0xA0, 0xB0}}),
		entry("blob", datafile.ID("ZZZZ"), 3, []byte{1, 2, 3}),
	}
}

func testOptions(t *testing.T) asm.Options {
	t.Helper()
	target, err := asm.LookupTarget("")
	require.NoError(t, err)
	return asm.Options{
		Prefix:   "x_",
		Target:   target,
		Registry: asm.NewRegistry(),
		Version:  "1.0.0",
		Input:    "assets.yaml",
		Date:     fixedDate,
	}
}

func TestConvertEndToEnd(t *testing.T) {
	var out, header bytes.Buffer
	res, err := asm.Convert(&out, &header, sampleBundle(), testOptions(t))
	require.NoError(t, err)

	asmText := out.String()
	assert.True(t, strings.HasPrefix(asmText, "/* Compiled data file, produced by dat2s v1.0.0, Unix */\n"))
	assert.Contains(t, asmText, "/* Input file: assets.yaml */\n")
	assert.Contains(t, asmText, "/* Date: Fri Mar  1 12:00:00 2024 */\n")
	assert.Contains(t, asmText, "\n.data\n")

	assert.Contains(t, asmText, "# bitmap data (4 bytes)\n.balign 4\nx_data_img_data:\n\t.byte 0x01, 0x02, 0x03, 0x04\n")
	assert.Contains(t, asmText, "\t.long x_data_img_data + 0\n\t.long x_data_img_data + 2\n")
	assert.Contains(t, asmText, ".globl x_data_snd\n")
	assert.Contains(t, asmText, "x_data_snd_data:\n\t.byte 0x80, 0x90, 0xA0, 0xB0\n")
	assert.Contains(t, asmText, "# binary data (3 bytes)\n.globl x_data_blob\n.balign 4\nx_data_blob:\n\t.byte 0x01, 0x02, 0x03\n")

	typeLine := func(tag string) string {
		return fmt.Sprintf("\t.long %-16d# %-4s\n", int32(datafile.ID(tag)), tag)
	}
	table := "# datafile\n" +
		".globl x_data\n" +
		".balign 4\n" +
		"x_data:\n" +
		"\t.long x_data_img\n" + typeLine("BMP") +
		"\t.long 4               # size\n" +
		"\t.long 0               # properties\n" +
		"\t.long x_data_snd\n" + typeLine("SAMP") +
		"\t.long 4               # size\n" +
		"\t.long 0               # properties\n" +
		"\t.long x_data_blob\n" + typeLine("ZZZZ") +
		"\t.long 3               # size\n" +
		"\t.long 0               # properties\n" +
		"\t.long 0\n" +
		"\t.long -1\n" +
		"\t.long 0\n" +
		"\t.long 0\n" +
		"\n"
	assert.True(t, strings.HasSuffix(asmText, table), asmText)
	assert.Equal(t, 1, strings.Count(asmText, "\t.long -1\n"), "exactly one sentinel")

	headerText := header.String()
	assert.True(t, strings.HasPrefix(headerText, "/* Data file definitions, produced by dat2s v1.0.0, Unix */\n"))
	assert.Equal(t, 3, strings.Count(headerText, "extern "))
	assert.True(t, strings.HasSuffix(headerText,
		"extern BITMAP x_data_img;\nextern SAMPLE x_data_snd;\nextern unsigned char x_data_blob[];\n"), headerText)

	assert.False(t, res.DeepColor)
	assert.Equal(t, 3, res.Declarations)
	assert.Equal(t, 6, res.Records)
	assert.Equal(t, int64(out.Len()), res.DataBytes)
	assert.Equal(t, int64(header.Len()), res.HeaderBytes)
}

func TestConvertIsDeterministic(t *testing.T) {
	render := func() (string, string) {
		var out, header bytes.Buffer
		_, err := asm.Convert(&out, &header, sampleBundle(), testOptions(t))
		require.NoError(t, err)
		return out.String(), header.String()
	}
	out1, hdr1 := render()
	out2, hdr2 := render()
	assert.Equal(t, out1, out2)
	assert.Equal(t, hdr1, hdr2)
}

func TestConvertWithoutHeader(t *testing.T) {
	var out bytes.Buffer
	res, err := asm.Convert(&out, nil, sampleBundle(), testOptions(t))
	require.NoError(t, err)
	assert.Zero(t, res.Declarations)
	assert.Zero(t, res.HeaderBytes)
}

func TestConvertDigestLine(t *testing.T) {
	opts := testOptions(t)
	opts.Digest = digest.FromBytes([]byte("assets"))

	var out, header bytes.Buffer
	_, err := asm.Convert(&out, &header, sampleBundle(), opts)
	require.NoError(t, err)
	line := "/* Input file: assets.yaml */\n/* Input digest: " + opts.Digest.String() + " */\n/* Date: "
	assert.Contains(t, out.String(), line)
	assert.Contains(t, header.String(), line)
}

func TestConvertNestedBundle(t *testing.T) {
	inner := datafile.Bundle{
		entry("Tile 1", datafile.TypeBitmap, 1, &datafile.Bitmap{Width: 1, Height: 1, Depth: 8, Pixels: []byte{9}}),
		{Type: datafile.ID("ZZZZ"), Size: 1, Payload: []byte{7}},
	}
	b := datafile.Bundle{entry("tiles", datafile.TypeFile, 0, inner)}

	var out, header bytes.Buffer
	_, err := asm.Convert(&out, &header, b, testOptions(t))
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "x_data_tiles_tile_1_data:\n")
	assert.Contains(t, text, ".globl x_data_tiles_entry_1\n")
	assert.Contains(t, text, "x_data_tiles:\n\t.long x_data_tiles_tile_1\n")
	assert.Equal(t, 2, strings.Count(text, "\t.long -1\n"), "one sentinel per table")
	assert.Less(t, strings.Index(text, "x_data_tiles:\n"), strings.Index(text, "x_data:\n"))

	assert.Equal(t, 1, strings.Count(header.String(), "extern "))
	assert.Contains(t, header.String(), "extern DATAFILE x_data_tiles[];\n")
}

func TestConvertCompiledSpriteFailureKeepsSiblings(t *testing.T) {
	spr := &datafile.CompiledSprite{Depth: 32, Width: 8, Height: 8}
	spr.Planes[0].Code = []byte{0xC3}
	b := datafile.Bundle{
		entry("hero", datafile.TypeCompiled, 1, spr),
		entry("blob", datafile.ID("ZZZZ"), 3, []byte{1, 2, 3}),
	}

	var out, header bytes.Buffer
	res, err := asm.Convert(&out, &header, b, testOptions(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, asm.ErrUnsupportedDepth)

	text := out.String()
	assert.NotContains(t, text, "x_data_hero:\n")
	assert.NotContains(t, text, "x_data_hero_plane_0")
	assert.Contains(t, text, "x_data_blob:\n")
	assert.Contains(t, text, "x_data:\n")
	assert.Contains(t, header.String(), "extern COMPILED_SPRITE x_data_hero;\n")
	require.NotNil(t, res)
	assert.Equal(t, 2, res.Records)
}

func TestConvertConstructorTarget(t *testing.T) {
	tests := []struct {
		target     string
		wantCtor   bool
		wantPrefix string
	}{
		{target: "djgpp", wantCtor: true, wantPrefix: "_"},
		{target: "mingw32", wantPrefix: "_"},
		{target: "linux"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			opts := testOptions(t)
			target, err := asm.LookupTarget(tt.target)
			require.NoError(t, err)
			opts.Target = target

			var out bytes.Buffer
			_, err = asm.Convert(&out, nil, sampleBundle(), opts)
			require.NoError(t, err)

			text := out.String()
			assert.Contains(t, text, ".globl "+tt.wantPrefix+"x_data\n")
			assert.Contains(t, text, "\t.long "+tt.wantPrefix+"__linear_vtable8\n")
			if tt.wantCtor {
				assert.Contains(t, text, "pushl $_x_data\n")
				assert.Contains(t, text, "call __construct_datafile\n")
				assert.True(t, strings.HasSuffix(text, ".section .ctor\n\t.long __construct_me\n"), text)
			} else {
				assert.NotContains(t, text, ".ctor")
			}
		})
	}
}

func TestConvertDeepColor(t *testing.T) {
	b := datafile.Bundle{
		entry("img", datafile.TypeBitmap, 8, &datafile.Bitmap{Width: 1, Height: 2, Depth: 32, Pixels: make([]byte, 8)}),
	}
	var out bytes.Buffer
	res, err := asm.Convert(&out, nil, b, testOptions(t))
	require.NoError(t, err)
	assert.True(t, res.DeepColor)
	assert.Contains(t, out.String(), "\t.long __linear_vtable32\n")
}

type failingWriter struct{ after int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("disk full")
	}
	w.after--
	return len(p), nil
}

func TestConvertStreamFault(t *testing.T) {
	_, err := asm.Convert(&failingWriter{after: 20}, nil, sampleBundle(), testOptions(t))
	assert.ErrorIs(t, err, asm.ErrStream)
}

func TestLookupTarget(t *testing.T) {
	tgt, err := asm.LookupTarget("DJGPP")
	require.NoError(t, err)
	assert.Equal(t, "djgpp", tgt.Name)
	assert.True(t, tgt.Constructors)

	_, err = asm.LookupTarget("amiga")
	assert.ErrorContains(t, err, "unsupported target 'amiga'")

	assert.Equal(t, []string{"beos", "djgpp", "linux", "mingw32", "qnx", "unix"}, asm.TargetNames())
}
