package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"noise-mapping/wav"
)

// Client communicates with the Python scoring sidecar that runs the
// event-tagging model. The sidecar scores fixed-length analysis windows
// across the whole clip and returns one score vector per window.
type Client struct {
	serviceURL string
	client     *http.Client
}

// scoresResponse represents the response from the scoring service.
type scoresResponse struct {
	Scores  [][]float64 `json:"scores"`
	Windows int         `json:"windows"`
}

// NewClient creates a scoring-service client.
func NewClient(serviceURL string) *Client {
	if serviceURL == "" {
		serviceURL = "http://localhost:5002"
	}

	return &Client{
		serviceURL: serviceURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// HealthCheck verifies the scoring service is running.
func (c *Client) HealthCheck() error {
	resp, err := c.client.Get(c.serviceURL + "/health")
	if err != nil {
		return fmt.Errorf("scoring service not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scoring service unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

// Scores ships the clip to the scoring service as a canonical WAV and returns
// the per-window score matrix.
func (c *Client) Scores(ctx context.Context, samples []float64, sampleRate int) ([][]float64, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("audio", "clip.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(wav.EncodeMono16(samples, sampleRate)); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL+"/scores", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoring request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("scoring service returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var scoresResp scoresResponse
	if err := json.NewDecoder(resp.Body).Decode(&scoresResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return scoresResp.Scores, nil
}
