package loader

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Alia5/dat2s/internal/datafile"
)

const defaultPriority = 128

// wavFormat is the subset of a RIFF fmt chunk a sample needs.
type wavFormat struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// loadSample builds a sample from a WAV file or from raw PCM described by
// spec. Waveforms are stored unsigned, so signed 16 bit WAV data is flipped.
func loadSample(data []byte, spec *SampleSpec, isWAV bool) (*datafile.Sample, error) {
	if spec == nil {
		spec = &SampleSpec{}
	}
	spl := &datafile.Sample{
		Bits:      spec.Bits,
		Stereo:    spec.Stereo,
		Freq:      spec.Freq,
		Priority:  spec.Priority,
		LoopStart: spec.LoopStart,
		LoopEnd:   spec.LoopEnd,
		Param:     -1,
	}
	if spec.Param != nil {
		spl.Param = *spec.Param
	}

	if isWAV {
		f, pcm, err := parseWAV(data)
		if err != nil {
			return nil, err
		}
		spl.Bits = int(f.BitsPerSample)
		spl.Stereo = f.Channels == 2
		spl.Freq = int(f.SampleRate)
		data = pcm
		if spl.Bits == 16 {
			data = bytes.Clone(pcm)
			for i := 1; i < len(data); i += 2 {
				data[i] ^= 0x80
			}
		}
	}

	if spl.Bits == 0 {
		spl.Bits = 8
	}
	if spl.Bits != 8 && spl.Bits != 16 {
		return nil, fmt.Errorf("%w: %d bit samples are not supported", ErrSource, spl.Bits)
	}
	if spl.Freq == 0 {
		spl.Freq = 11025
	}
	if spl.Priority == 0 {
		spl.Priority = defaultPriority
	}

	frame := spl.Bits / 8
	if spl.Stereo {
		frame *= 2
	}
	spl.Length = len(data) / frame
	if spl.LoopEnd == 0 || spl.LoopEnd > spl.Length {
		spl.LoopEnd = spl.Length
	}
	if spl.LoopStart > spl.LoopEnd {
		return nil, fmt.Errorf("%w: loop start %d is past loop end %d", ErrBadManifest, spl.LoopStart, spl.LoopEnd)
	}
	spl.Data = data[:spl.Length*frame]
	return spl, nil
}

func parseWAV(data []byte) (*wavFormat, []byte, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, nil, fmt.Errorf("%w: not a RIFF WAVE file", ErrSource)
	}
	var (
		format *wavFormat
		pcm    []byte
	)
	for rest := data[12:]; len(rest) >= 8; {
		id := string(rest[0:4])
		size := int(binary.LittleEndian.Uint32(rest[4:8]))
		rest = rest[8:]
		if size > len(rest) {
			return nil, nil, fmt.Errorf("%w: truncated %q chunk", ErrSource, id)
		}
		chunk := rest[:size]
		switch id {
		case "fmt ":
			var f wavFormat
			if err := binary.Read(bytes.NewReader(chunk), binary.LittleEndian, &f); err != nil {
				return nil, nil, fmt.Errorf("%w: fmt chunk: %w", ErrSource, err)
			}
			format = &f
		case "data":
			pcm = chunk
		}
		// Chunks are padded to even sizes.
		if size%2 == 1 && size < len(rest) {
			size++
		}
		rest = rest[size:]
	}

	if format == nil || pcm == nil {
		return nil, nil, fmt.Errorf("%w: WAVE file lacks fmt or data chunk", ErrSource)
	}
	if format.AudioFormat != 1 {
		return nil, nil, fmt.Errorf("%w: only PCM WAVE files are supported (format %d)", ErrSource, format.AudioFormat)
	}
	if format.Channels != 1 && format.Channels != 2 {
		return nil, nil, fmt.Errorf("%w: %d channels are not supported", ErrSource, format.Channels)
	}
	return format, pcm, nil
}

// parseMIDI splits a Standard MIDI File into its track chunks.
func parseMIDI(data []byte, maxTracks int) (*datafile.MIDI, error) {
	if maxTracks <= 0 || maxTracks > datafile.MIDITracks {
		maxTracks = datafile.MIDITracks
	}
	if len(data) < 14 || string(data[0:4]) != "MThd" {
		return nil, fmt.Errorf("%w: not a MIDI file", ErrSource)
	}
	hdrLen := int(binary.BigEndian.Uint32(data[4:8]))
	if hdrLen < 6 || 8+hdrLen > len(data) {
		return nil, fmt.Errorf("%w: bad MIDI header length %d", ErrSource, hdrLen)
	}
	numTracks := int(binary.BigEndian.Uint16(data[10:12]))
	division := int(int16(binary.BigEndian.Uint16(data[12:14])))
	if numTracks > maxTracks {
		return nil, fmt.Errorf("%w: MIDI file has %d tracks, at most %d are supported", ErrSource, numTracks, maxTracks)
	}

	midi := &datafile.MIDI{Divisions: division}
	track := 0
	for rest := data[8+hdrLen:]; len(rest) >= 8 && track < numTracks; {
		id := string(rest[0:4])
		size := int(binary.BigEndian.Uint32(rest[4:8]))
		rest = rest[8:]
		if size > len(rest) {
			return nil, fmt.Errorf("%w: truncated MIDI track %d", ErrSource, track)
		}
		if id == "MTrk" {
			midi.Tracks[track].Data = bytes.Clone(rest[:size])
			track++
		}
		rest = rest[size:]
	}
	if track != numTracks {
		return nil, fmt.Errorf("%w: MIDI header promises %d tracks, found %d", ErrSource, numTracks, track)
	}
	return midi, nil
}
