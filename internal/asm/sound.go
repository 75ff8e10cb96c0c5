package asm

import (
	"fmt"

	"github.com/Alia5/dat2s/internal/datafile"
)

type sampleEncoder struct{}

func (sampleEncoder) Declaration(sym Symbol) string {
	return fmt.Sprintf("extern SAMPLE %s;", sym.Name)
}

func (sampleEncoder) Encode(s *Session, obj *datafile.Object, sym Symbol) error {
	spl, ok := obj.Payload.(*datafile.Sample)
	if !ok {
		return fmt.Errorf("%w: sample has %T", ErrPayload, obj.Payload)
	}
	size := spl.DataSize()
	if len(spl.Data) < size {
		return fmt.Errorf("%w: sample needs %d bytes of waveform, has %d", ErrPayload, size, len(spl.Data))
	}

	data := sym.Suffix("_data")
	s.EmitBytes(data.Label, "waveform data", spl.Data[:size], defaultAlign, false)

	stereo := 0
	if spl.Stereo {
		stereo = 1
	}
	s.Emit(Record{
		Comment: "sample",
		Label:   sym.Label,
		Global:  true,
		Fields: []Field{
			long(Int(spl.Bits), "bits"),
			long(Int(stereo), "stereo"),
			long(Int(spl.Freq), "freq"),
			long(Int(spl.Priority), "priority"),
			long(Int(spl.Length), "length"),
			long(Int(spl.LoopStart), "loop_start"),
			long(Int(spl.LoopEnd), "loop_end"),
			long(Int(spl.Param), "param"),
			longs(Ref(data.Label)),
		},
	})
	return nil
}

type midiEncoder struct{}

func (midiEncoder) Declaration(sym Symbol) string {
	return fmt.Sprintf("extern MIDI %s;", sym.Name)
}

func (midiEncoder) Encode(s *Session, obj *datafile.Object, sym Symbol) error {
	midi, ok := obj.Payload.(*datafile.MIDI)
	if !ok {
		return fmt.Errorf("%w: midi has %T", ErrPayload, obj.Payload)
	}

	for i, tr := range midi.Tracks {
		if tr.Data != nil {
			s.EmitBytes(sym.Suffix(fmt.Sprintf("_track_%d", i)).Label, "midi track", tr.Data, defaultAlign, false)
		}
	}

	fields := []Field{long(Int(midi.Divisions), "divisions")}
	for i, tr := range midi.Tracks {
		if tr.Data != nil {
			fields = append(fields, longs(Ref(sym.Suffix(fmt.Sprintf("_track_%d", i)).Label), Int(len(tr.Data))))
		} else {
			fields = append(fields, longs(Int(0), Int(0)))
		}
	}

	s.Emit(Record{
		Comment: "midi file",
		Label:   sym.Label,
		Global:  true,
		Fields:  fields,
	})
	return nil
}
