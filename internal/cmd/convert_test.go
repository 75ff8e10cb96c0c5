package cmd

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/dat2s/internal/asm"
	"github.com/Alia5/dat2s/internal/loader"
	"github.com/Alia5/dat2s/internal/log"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noPrompt() (string, error) {
	return "", errors.New("no terminal")
}

type fixture struct {
	dir      string
	manifest string
	stdout   bytes.Buffer
	stderr   bytes.Buffer
}

func newFixture(t *testing.T, manifest string, files map[string][]byte) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir()}
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), data, 0o644))
	}
	f.manifest = filepath.Join(f.dir, "assets.yaml")
	require.NoError(t, os.WriteFile(f.manifest, []byte(manifest), 0o644))
	return f
}

func (f *fixture) std(prompt func() (string, error)) stdio {
	if prompt == nil {
		prompt = noPrompt
	}
	return stdio{out: &f.stdout, err: &f.stderr, prompt: prompt}
}

func (f *fixture) path(name string) string {
	return filepath.Join(f.dir, name)
}

func truecolorPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

const blobManifest = `
objects:
  - name: blob
    type: ZZZZ
    source: blob.bin
`

func TestConvertToFiles(t *testing.T) {
	f := newFixture(t, blobManifest, map[string][]byte{"blob.bin": {1, 2, 3}})
	c := &Convert{
		Input:     f.manifest,
		Output:    f.path("out.s"),
		Header:    f.path("out.h"),
		Prefix:    "game",
		Target:    "unix",
		DateEpoch: 1709294400,
	}
	require.NoError(t, c.run(discard(), f.std(nil)))

	src, err := os.ReadFile(c.Output)
	require.NoError(t, err)
	text := string(src)
	assert.True(t, strings.HasPrefix(text, "/* Compiled data file, produced by dat2s v"))
	assert.Contains(t, text, "/* Input file: "+f.manifest+" */\n")
	assert.Contains(t, text, "/* Input digest: sha256:")
	assert.Contains(t, text, "/* Date: Fri Mar  1 12:00:00 2024 */\n")
	assert.Contains(t, text, "game_data_blob:\n\t.byte 0x01, 0x02, 0x03\n")
	assert.Contains(t, text, "game_data:\n")

	hdr, err := os.ReadFile(c.Header)
	require.NoError(t, err)
	assert.Contains(t, string(hdr), "extern unsigned char game_data_blob[];\n")

	out := f.stdout.String()
	assert.True(t, strings.HasPrefix(out, "Converting "+f.manifest+" to "+c.Output+"...\n"))
	assert.Contains(t, out, "call fixup_datafile() before using this data!")
	assert.Empty(t, f.stderr.String())
}

func TestConvertEchoesOutputAsTyped(t *testing.T) {
	f := newFixture(t, blobManifest, map[string][]byte{"blob.bin": {1}})
	t.Chdir(f.dir)
	c := &Convert{Input: "assets.yaml", Output: "out.s", Target: "unix"}
	require.NoError(t, c.run(discard(), f.std(nil)))

	assert.True(t, strings.HasPrefix(f.stdout.String(), "Converting assets.yaml to out.s...\n"), f.stdout.String())
	assert.FileExists(t, f.path("out.s"))
}

func TestConvertReportsSkippedPatch(t *testing.T) {
	const manifest = `
objects:
  - name: gus
    type: "PAT "
    source: gus.pat
`
	f := newFixture(t, manifest, map[string][]byte{"gus.pat": []byte("GF1PATCH110")})
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: log.ParseLevel("warn")}))

	c := &Convert{Input: f.manifest, Output: f.path("out.s"), Prefix: "x", Target: "unix"}
	require.NoError(t, c.run(logger, f.std(nil)))

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "Compiled GUS patch objects are not supported")
	assert.Contains(t, logs.String(), "object=x_data_gus")
}

func TestConvertToStdout(t *testing.T) {
	f := newFixture(t, blobManifest, map[string][]byte{"blob.bin": {1, 2, 3}})
	c := &Convert{Input: f.manifest, Target: "unix"}
	require.NoError(t, c.run(discard(), f.std(nil)))

	assert.True(t, strings.HasPrefix(f.stdout.String(), "/* Compiled data file"))
	assert.NotContains(t, f.stdout.String(), "Converting")
	assert.NotContains(t, f.stdout.String(), "fixup_datafile")
	assert.Contains(t, f.stderr.String(), "fixup_datafile")
}

func TestConvertAdvisory(t *testing.T) {
	const deepManifest = `
objects:
  - name: pic
    type: "BMP "
    source: pic.png
    image: { depth: 16 }
`
	const flatManifest = `
objects:
  - name: blob
    type: ZZZZ
    source: pic.png
`
	tests := []struct {
		name     string
		manifest string
		target   string
		want     string
	}{
		{name: "constructor target with deep color", manifest: deepManifest, target: "djgpp", want: "I noticed some truecolor images"},
		{name: "constructor target without deep color", manifest: flatManifest, target: "djgpp", want: ""},
		{name: "plain target", manifest: flatManifest, target: "linux", want: "I don't know how to do constructor functions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.manifest, map[string][]byte{"pic.png": truecolorPNG(t)})
			c := &Convert{Input: f.manifest, Output: f.path("out.s"), Target: tt.target}
			require.NoError(t, c.run(discard(), f.std(nil)))

			lines := strings.SplitN(f.stdout.String(), "\n", 2)
			require.Len(t, lines, 2)
			if tt.want == "" {
				assert.Empty(t, strings.TrimSpace(lines[1]))
				return
			}
			assert.Contains(t, lines[1], tt.want)
		})
	}
}

func TestConvertConstructorStub(t *testing.T) {
	f := newFixture(t, blobManifest, map[string][]byte{"blob.bin": {1}})
	c := &Convert{Input: f.manifest, Output: f.path("out.s"), Target: "djgpp"}
	require.NoError(t, c.run(discard(), f.std(nil)))

	src, err := os.ReadFile(c.Output)
	require.NoError(t, err)
	assert.Contains(t, string(src), "\tpushl $_data\n\tcall __construct_datafile\n")
	assert.Contains(t, string(src), ".section .ctor\n\t.long __construct_me\n")
}

func TestConvertRemovesPartialOutputs(t *testing.T) {
	const manifest = `
objects:
  - name: blob
    type: ZZZZ
    source: blob.bin
  - name: code
    type: "CMP "
    compiled: { depth: 16, width: 1, height: 1 }
`
	t.Run("encoding error", func(t *testing.T) {
		f := newFixture(t, manifest, map[string][]byte{"blob.bin": {1}})
		c := &Convert{Input: f.manifest, Output: f.path("out.s"), Header: f.path("out.h"), Target: "unix"}
		err := c.run(discard(), f.std(nil))
		assert.ErrorIs(t, err, asm.ErrUnsupportedDepth)

		assert.NoFileExists(t, c.Output)
		assert.NoFileExists(t, c.Header)
		assert.NotContains(t, f.stdout.String(), "fixup_datafile")
	})

	t.Run("header cannot be created", func(t *testing.T) {
		f := newFixture(t, blobManifest, map[string][]byte{"blob.bin": {1}})
		c := &Convert{Input: f.manifest, Output: f.path("out.s"), Header: f.path("missing/out.h"), Target: "unix"}
		err := c.run(discard(), f.std(nil))
		assert.ErrorContains(t, err, "error writing "+c.Header)
		assert.NoFileExists(t, c.Output)
	})
}

func TestConvertInputErrors(t *testing.T) {
	f := newFixture(t, blobManifest, nil)
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing source", input: f.manifest},
		{name: "missing manifest", input: f.path("nope.yaml")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Convert{Input: tt.input, Output: f.path("out.s"), Target: "unix"}
			err := c.run(discard(), f.std(nil))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "error reading "+tt.input)
			assert.NoFileExists(t, c.Output, "nothing is created before the input loads")
		})
	}
}

func TestConvertUnknownTarget(t *testing.T) {
	f := newFixture(t, blobManifest, map[string][]byte{"blob.bin": {1}})
	c := &Convert{Input: f.manifest, Target: "amiga"}
	assert.ErrorContains(t, c.run(discard(), f.std(nil)), "unsupported target")
}

func TestConvertEncryptedSource(t *testing.T) {
	sealed, err := loader.Seal([]byte{9, 8, 7}, "hunter2")
	require.NoError(t, err)
	const manifest = `
objects:
  - name: secret
    type: ZZZZ
    source: blob.bin.enc
    encrypted: true
`
	t.Run("password flag", func(t *testing.T) {
		f := newFixture(t, manifest, map[string][]byte{"blob.bin.enc": sealed})
		c := &Convert{Input: f.manifest, Secret: "hunter2", Target: "unix"}
		require.NoError(t, c.run(discard(), f.std(nil)))
		assert.Contains(t, f.stdout.String(), "0x09, 0x08, 0x07")
	})

	t.Run("password prompt", func(t *testing.T) {
		f := newFixture(t, manifest, map[string][]byte{"blob.bin.enc": sealed})
		c := &Convert{Input: f.manifest, Secret: "-", Target: "unix"}
		prompted := false
		require.NoError(t, c.run(discard(), f.std(func() (string, error) {
			prompted = true
			return "hunter2", nil
		})))
		assert.True(t, prompted)
	})

	t.Run("no password", func(t *testing.T) {
		f := newFixture(t, manifest, map[string][]byte{"blob.bin.enc": sealed})
		c := &Convert{Input: f.manifest, Target: "unix"}
		assert.ErrorIs(t, c.run(discard(), f.std(nil)), loader.ErrPasswordRequired)
	})

	t.Run("prompt fails", func(t *testing.T) {
		f := newFixture(t, manifest, map[string][]byte{"blob.bin.enc": sealed})
		c := &Convert{Input: f.manifest, Secret: "-", Target: "unix"}
		assert.ErrorContains(t, c.run(discard(), f.std(nil)), "failed to read password")
	})
}

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{in: []string{"-007", "pw", "in.yaml"}, want: []string{"--secret", "pw", "in.yaml"}},
		{in: []string{"-secret=pw", "in.yaml"}, want: []string{"--secret=pw", "in.yaml"}},
		{in: []string{"-SECRET", "pw"}, want: []string{"--secret", "pw"}},
		{in: []string{"-o", "x.s", "--", "-007"}, want: []string{"-o", "x.s", "--", "-007"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.in, " "), func(t *testing.T) {
			in := append([]string(nil), tt.in...)
			assert.Equal(t, tt.want, NormalizeArgs(in))
			assert.Equal(t, tt.in, in, "input is not modified")
		})
	}
}

func TestFlagName(t *testing.T) {
	tests := map[string]string{
		"-o":              "output",
		"-ofile.s":        "output",
		"--output":        "output",
		"--output=file.s": "output",
		"-h":              "header",
		"--prefix":        "prefix",
		"--secret=pw":     "secret",
		"--date-epoch":    "date-epoch",
		"--help":          "",
		"input.yaml":      "",
		"--outputs":       "",
	}
	for arg, want := range tests {
		assert.Equal(t, want, flagName(arg), arg)
	}
}
