package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"noise-mapping/blob"
	"noise-mapping/chat"
	"noise-mapping/classify"
	"noise-mapping/db"
	"noise-mapping/inference"
	"noise-mapping/ingest"
	"noise-mapping/models"
	"noise-mapping/utils"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mdobak/go-xerrors"
)

type apiError struct {
	Error string `json:"error"`
}

const maxUploadBytes = 64 << 20

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Error: message})
}

func corsPreflight(w http.ResponseWriter, r *http.Request, methods string) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// statusForError maps pipeline failures to HTTP statuses: undecodable input
// is the caller's fault, storage failures are ours.
func statusForError(err error) int {
	var decodeErr *ingest.DecodeError
	if errors.As(err, &decodeErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func parseOptionalFloat(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func newUploadHandler(pipeline *ingest.Pipeline) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if corsPreflight(w, r, "POST") {
			return
		}
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			logger.ErrorContext(ctx, "failed to parse multipart form", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "invalid upload payload")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "audio file is required")
			return
		}
		defer file.Close()

		audio, err := io.ReadAll(file)
		if err != nil {
			logger.ErrorContext(ctx, "failed to read uploaded file", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "failed to read uploaded file")
			return
		}

		opts := ingest.Optional{}
		if opts.Latitude, err = parseOptionalFloat(r.FormValue("latitude")); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid latitude")
			return
		}
		if opts.Longitude, err = parseOptionalFloat(r.FormValue("longitude")); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid longitude")
			return
		}
		if opts.NoiseLevel, err = parseOptionalFloat(r.FormValue("noiseLevel")); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid noiseLevel")
			return
		}
		if zipCode := strings.TrimSpace(r.FormValue("zipCode")); zipCode != "" {
			opts.ZipCode = &zipCode
		}

		req := ingest.Request{
			Audio:    audio,
			DeviceID: strings.TrimSpace(r.FormValue("deviceId")),
			Options:  opts,
		}

		log.Printf("[HTTP] Upload request: device=%s file=%s size=%d\n", req.DeviceID, header.Filename, len(audio))

		resp, err := pipeline.Ingest(ctx, req)
		if err != nil {
			logger.ErrorContext(ctx, "ingest failed",
				slog.String("deviceID", req.DeviceID),
				slog.Any("error", xerrors.New(err)),
			)
			writeJSONError(w, statusForError(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func newExportHandler(pipeline *ingest.Pipeline) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if corsPreflight(w, r, "GET") {
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename=classified_data.csv`)

		if err := pipeline.ExportCSV(ctx, w); err != nil {
			logger.ErrorContext(ctx, "export failed", slog.Any("error", xerrors.New(err)))
			// the scan runs before the first row is flushed, so the
			// response is still untouched here
			w.Header().Del("Content-Disposition")
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
}

func newRecordsHandler(pipeline *ingest.Pipeline) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if corsPreflight(w, r, "GET") {
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		records, err := pipeline.Records(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "failed to load records", slog.Any("error", xerrors.New(err)))
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if records == nil {
			records = []models.ClassificationRecord{}
		}

		writeJSON(w, http.StatusOK, records)
	}
}

func newHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if corsPreflight(w, r, "GET") {
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func newChatHandler(gemini *chat.GeminiClient) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if corsPreflight(w, r, "POST") {
			return
		}
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			writeJSONError(w, http.StatusBadRequest, "message is required")
			return
		}

		reply, err := gemini.GenerateResponse(ctx, req.Message)
		if err != nil {
			logger.ErrorContext(ctx, "chat generation failed", slog.Any("error", xerrors.New(err)))
			writeJSONError(w, http.StatusInternalServerError, "assistant unavailable")
			return
		}

		writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
	}
}

func serve(protocol, port string) {
	ctx := context.Background()

	labels, err := classify.LoadLabels(utils.GetEnv("CLASS_MAP_PATH", ""))
	if err != nil {
		log.Fatalf("failed to load label vocabulary: %v", err)
	}

	// The backend variant is fixed for the whole process lifetime; every
	// request goes through the same instance.
	var backend classify.Backend
	switch kind := strings.ToLower(utils.GetEnv("CLASSIFIER_BACKEND", "windowed")); kind {
	case "windowed":
		scorer := inference.NewClient(utils.GetEnv("SCORING_SERVICE_URL", "http://localhost:5002"))
		if err := scorer.HealthCheck(); err != nil {
			log.Printf("WARNING: %v\n", err)
		}
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
		log.Fatalf("unsupported CLASSIFIER_BACKEND %q (expected windowed or clip)", kind)
	}
	classifier := classify.NewService(backend)
	log.Printf("Using %s classification backend with %d labels\n", classifier.BackendName(), len(labels))

	records, err := db.NewRecordStore(ctx)
	if err != nil {
		log.Fatalf("failed to initialise record store: %v", err)
	}
	defer records.Close()

	var blobs blob.Store
	switch kind := strings.ToLower(utils.GetEnv("BLOB_STORE", "local")); kind {
	case "local":
		blobs, err = blob.NewLocalStore(utils.GetEnv("BLOB_DIR", "uploads"))
		if err != nil {
			log.Fatalf("failed to initialise blob store: %v", err)
		}
	case "s3":
		cfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(utils.GetEnv("AWS_REGION", "eu-north-1")),
		)
		if err != nil {
			log.Fatalf("unable to load AWS config: %v", err)
		}
		blobs = blob.NewS3Store(s3.NewFromConfig(cfg), utils.GetEnv("S3_BUCKET", "iot-noise-mapping-audio"))
	default:
		log.Fatalf("unsupported BLOB_STORE %q (expected local or s3)", kind)
	}

	pipeline := ingest.NewPipeline(classifier, ingest.NewBuilder(), blobs, records)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", newUploadHandler(pipeline))
	mux.HandleFunc("/api/export", newExportHandler(pipeline))
	mux.HandleFunc("/api/records", newRecordsHandler(pipeline))
	mux.HandleFunc("/health", newHealthHandler())

	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		gemini, err := chat.NewGeminiClient(ctx, apiKey)
		if err != nil {
			log.Printf("Failed to initialise chat assistant: %v\n", err)
		} else {
			mux.HandleFunc("/api/chat", newChatHandler(gemini))
			log.Println("Chat assistant enabled")
		}
	}

	serveHTTP(strings.EqualFold(protocol, "https"), port, mux)
}

func serveHTTP(serveHTTPS bool, port string, handler http.Handler) {
	if serveHTTPS {
		httpsAddr := ":" + port
		httpsServer := &http.Server{
			Addr: httpsAddr,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			Handler: handler,
		}

		certKey := utils.GetEnv("CERT_KEY", "")
		certFile := utils.GetEnv("CERT_FILE", "")
		if certKey == "" || certFile == "" {
			log.Fatal("Missing cert")
		}

		log.Printf("Starting HTTPS server on %s\n", httpsAddr)
		if err := httpsServer.ListenAndServeTLS(certFile, certKey); err != nil {
			log.Fatalf("HTTPS server ListenAndServeTLS: %v", err)
		}
	}

	log.Printf("Starting HTTP server on port %v", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("HTTP server ListenAndServe: %v", err)
	}
}
