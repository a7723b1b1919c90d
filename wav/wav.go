package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// TargetSampleRate is the canonical sample rate every decoded clip is
// normalised to. The classification backends assume exactly this format.
const TargetSampleRate = 16000

// Audio is a decoded clip: mono float64 PCM at TargetSampleRate.
type Audio struct {
	Samples    []float64
	SampleRate int
	Duration   float64
}

// WavInfo describes a parsed WAV container.
type WavInfo struct {
	Channels   int
	SampleRate int
	BitsPerSP  int
	Data       []byte
}

// Decode converts arbitrary audio container bytes into canonical PCM.
// Canonical 16-bit mono WAV at 16 kHz is parsed natively; everything else is
// routed through ffmpeg for resampling and channel mixing.
func Decode(raw []byte) (*Audio, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty audio payload")
	}

	info, err := ReadWavInfo(raw)
	if err == nil && info.Channels == 1 && info.SampleRate == TargetSampleRate && info.BitsPerSP == 16 {
		samples, err := WavBytesToSamples(info.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to convert samples: %w", err)
		}
		return newAudio(samples), nil
	}

	converted, err := convertToCanonicalWAV(raw)
	if err != nil {
		return nil, err
	}

	info, err = ReadWavInfo(converted)
	if err != nil {
		return nil, fmt.Errorf("failed to read converted wav: %w", err)
	}
	samples, err := WavBytesToSamples(info.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert samples: %w", err)
	}
	return newAudio(samples), nil
}

func newAudio(samples []float64) *Audio {
	return &Audio{
		Samples:    samples,
		SampleRate: TargetSampleRate,
		Duration:   float64(len(samples)) / float64(TargetSampleRate),
	}
}

// ReadWavInfo parses a WAV (RIFF) container and returns its format and raw
// PCM payload. Only uncompressed PCM streams are accepted.
func ReadWavInfo(raw []byte) (*WavInfo, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE container")
	}

	info := &WavInfo{}
	haveFmt := false
	offset := 12
	for offset+8 <= len(raw) {
		chunkID := string(raw[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(raw[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(raw) {
			chunkSize = len(raw) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, errors.New("malformed fmt chunk")
			}
			audioFormat := binary.LittleEndian.Uint16(raw[body : body+2])
			if audioFormat != 1 {
				return nil, fmt.Errorf("unsupported audio format %d (expected PCM)", audioFormat)
			}
			info.Channels = int(binary.LittleEndian.Uint16(raw[body+2 : body+4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(raw[body+4 : body+8]))
			info.BitsPerSP = int(binary.LittleEndian.Uint16(raw[body+14 : body+16]))
			haveFmt = true
		case "data":
			info.Data = raw[body : body+chunkSize]
		}

		// chunks are word aligned
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if !haveFmt {
		return nil, errors.New("missing fmt chunk")
	}
	if info.Data == nil {
		return nil, errors.New("missing data chunk")
	}
	return info, nil
}

// WavBytesToSamples converts 16-bit little-endian PCM bytes into float64
// samples in [-1, 1).
func WavBytesToSamples(data []byte) ([]float64, error) {
	if len(data)%2 != 0 {
		return nil, errors.New("odd byte count for 16-bit PCM data")
	}
	samples := make([]float64, len(data)/2)
	for i := 0; i < len(samples); i++ {
		sample := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		samples[i] = float64(sample) / 32768.0
	}
	return samples, nil
}

// EncodeMono16 renders float64 samples as a canonical 16-bit mono WAV byte
// stream. Used to ship decoded clips to the scoring transports.
func EncodeMono16(samples []float64, sampleRate int) []byte {
	dataSize := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.Write(buf, binary.LittleEndian, int16(s*32767.0))
	}
	return buf.Bytes()
}
