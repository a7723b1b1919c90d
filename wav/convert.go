package wav

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// CheckFFmpegAvailable verifies that ffmpeg is on PATH. Called at startup so
// the operator gets a clear warning before the first upload fails.
func CheckFFmpegAvailable() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return nil
}

// convertToCanonicalWAV shells out to ffmpeg to transcode arbitrary container
// bytes into 16 kHz mono 16-bit PCM WAV.
func convertToCanonicalWAV(raw []byte) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "audio-convert-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inputPath := filepath.Join(tmpDir, "input")
	outputPath := filepath.Join(tmpDir, "output.wav")

	if err := os.WriteFile(inputPath, raw, 0644); err != nil {
		return nil, fmt.Errorf("failed to write temp input: %w", err)
	}

	cmd := exec.Command(
		"ffmpeg", "-y",
		"-i", inputPath,
		"-ac", "1",
		"-ar", fmt.Sprint(TargetSampleRate),
		"-acodec", "pcm_s16le",
		"-f", "wav",
		outputPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to decode audio with ffmpeg: %w (output: %s)", err, output)
	}

	converted, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read converted wav: %w", err)
	}
	return converted, nil
}
