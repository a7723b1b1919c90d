package inference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"noise-mapping/wav"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

// lambdaInvoker matches the slice of the Lambda client the scorer uses,
// so tests can substitute a fake.
type lambdaInvoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaScorer runs the clip-level tagging model hosted as an AWS Lambda.
// The whole clip is shipped as base64 WAV and the function answers with one
// score per class.
type LambdaScorer struct {
	client   lambdaInvoker
	function string
}

type lambdaRequest struct {
	Audio      string `json:"audio"`
	SampleRate int    `json:"sample_rate"`
}

type lambdaResponse struct {
	Scores []float64 `json:"scores"`
	Error  string    `json:"error,omitempty"`
}

func NewLambdaScorer(client *lambda.Client, function string) *LambdaScorer {
	return &LambdaScorer{client: client, function: function}
}

// Score invokes the Lambda and returns the clip-level score vector.
func (s *LambdaScorer) Score(ctx context.Context, samples []float64, sampleRate int) ([]float64, error) {
	payload, err := json.Marshal(lambdaRequest{
		Audio:      base64.StdEncoding.EncodeToString(wav.EncodeMono16(samples, sampleRate)),
		SampleRate: sampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lambda payload: %w", err)
	}

	resp, err := s.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(s.function),
		Payload:      payload,
	})
	if err != nil {
		return nil, fmt.Errorf("lambda invoke failed: %w", err)
	}
	if resp.FunctionError != nil {
		return nil, fmt.Errorf("lambda function error: %s", *resp.FunctionError)
	}

	var result lambdaResponse
	if err := json.Unmarshal(resp.Payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode lambda response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("scoring error from lambda: %s", result.Error)
	}

	return result.Scores, nil
}
