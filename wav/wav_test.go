package wav

import (
	"math"
	"testing"
)

func TestDecodeCanonicalWAVRoundTrip(t *testing.T) {
	t.Parallel()

	samples := make([]float64, TargetSampleRate) // 1 second
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(TargetSampleRate))
	}

	audio, err := Decode(EncodeMono16(samples, TargetSampleRate))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if audio.SampleRate != TargetSampleRate {
		t.Fatalf("expected sample rate %d, got %d", TargetSampleRate, audio.SampleRate)
	}
	if len(audio.Samples) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(audio.Samples))
	}
	if math.Abs(audio.Duration-1.0) > 1e-9 {
		t.Fatalf("expected 1s duration, got %f", audio.Duration)
	}

	for i, want := range samples {
		if math.Abs(audio.Samples[i]-want) > 2.0/32768.0 {
			t.Fatalf("sample %d drifted beyond quantisation error: want %f, got %f", i, want, audio.Samples[i])
		}
	}
}

func TestDecodeEmptyPayloadFails(t *testing.T) {
	t.Parallel()

	if _, err := Decode(nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
	if _, err := Decode([]byte{}); err == nil {
		t.Fatal("expected error for zero-length payload")
	}
}

func TestReadWavInfoRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := ReadWavInfo([]byte("definitely not audio data")); err == nil {
		t.Fatal("expected error for non-RIFF bytes")
	}
}

func TestReadWavInfoParsesHeader(t *testing.T) {
	t.Parallel()

	raw := EncodeMono16(make([]float64, 100), TargetSampleRate)
	info, err := ReadWavInfo(raw)
	if err != nil {
		t.Fatalf("ReadWavInfo returned error: %v", err)
	}
	if info.Channels != 1 {
		t.Errorf("expected mono, got %d channels", info.Channels)
	}
	if info.SampleRate != TargetSampleRate {
		t.Errorf("expected %d Hz, got %d", TargetSampleRate, info.SampleRate)
	}
	if info.BitsPerSP != 16 {
		t.Errorf("expected 16-bit samples, got %d", info.BitsPerSP)
	}
	if len(info.Data) != 200 {
		t.Errorf("expected 200 data bytes, got %d", len(info.Data))
	}
}

func TestWavBytesToSamplesOddLength(t *testing.T) {
	t.Parallel()

	if _, err := WavBytesToSamples([]byte{0x01}); err == nil {
		t.Fatal("expected error for odd byte count")
	}
}

func TestEncodeMono16ClampsOutOfRange(t *testing.T) {
	t.Parallel()

	raw := EncodeMono16([]float64{2.0, -2.0}, TargetSampleRate)
	info, err := ReadWavInfo(raw)
	if err != nil {
		t.Fatalf("ReadWavInfo returned error: %v", err)
	}
	samples, err := WavBytesToSamples(info.Data)
	if err != nil {
		t.Fatalf("WavBytesToSamples returned error: %v", err)
	}
	if samples[0] < 0.99 {
		t.Errorf("expected positive clip near 1.0, got %f", samples[0])
	}
	if samples[1] > -0.99 {
		t.Errorf("expected negative clip near -1.0, got %f", samples[1])
	}
}
