// classify_file runs one local audio file through the configured
// classification backend and prints the result. Useful for smoke-testing a
// scoring service or lambda deployment without starting the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"noise-mapping/classify"
	"noise-mapping/inference"
	"noise-mapping/utils"
	"noise-mapping/wav"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/joho/godotenv"
)

func main() {
	path := flag.String("file", "", "Audio file to classify")
	flag.Parse()

	if *path == "" {
		fmt.Println("Usage: classify_file -file <audio file>")
		os.Exit(1)
	}
	_ = godotenv.Load()

	ctx := context.Background()

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("failed to read %s: %v", *path, err)
	}

	audio, err := wav.Decode(raw)
	if err != nil {
		log.Fatalf("failed to decode %s: %v", *path, err)
	}

	labels, err := classify.LoadLabels(utils.GetEnv("CLASS_MAP_PATH", ""))
	if err != nil {
		log.Fatalf("failed to load label vocabulary: %v", err)
	}

	var backend classify.Backend
	switch kind := strings.ToLower(utils.GetEnv("CLASSIFIER_BACKEND", "windowed")); kind {
	case "windowed":
		scorer := inference.NewClient(utils.GetEnv("SCORING_SERVICE_URL", "http://localhost:5002"))
		backend = classify.NewWindowedBackend(scorer, labels)
	case "clip":
		cfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(utils.GetEnv("AWS_REGION", "eu-north-1")),
		)
		if err != nil {
			log.Fatalf("unable to load AWS config: %v", err)
		}
		scorer := inference.NewLambdaScorer(lambda.NewFromConfig(cfg), utils.GetEnv("LAMBDA_FUNCTION", "classify_noise"))
		backend = classify.NewClipBackend(scorer, labels)
	default:
		log.Fatalf("unsupported CLASSIFIER_BACKEND %q", kind)
	}

	result := classify.NewService(backend).Classify(ctx, audio.Samples, audio.SampleRate)

	fmt.Printf("file:       %s\n", *path)
	fmt.Printf("duration:   %.2fs\n", audio.Duration)
	fmt.Printf("backend:    %s\n", backend.Name())
	fmt.Printf("label:      %s\n", result.Label)
	fmt.Printf("confidence: %.4f\n", result.Confidence)
}
