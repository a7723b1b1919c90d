package models

// ClassificationRecord is the persisted outcome of one ingested clip. Records
// are written exactly once and never mutated afterwards; ID is the primary key
// in structured storage and Filename is the key of the raw audio blob.
type ClassificationRecord struct {
	ID         string   `json:"id" bson:"id" dynamodbav:"id"`
	DeviceID   string   `json:"deviceId" bson:"device_id" dynamodbav:"device_id"`
	Timestamp  int64    `json:"timestamp" bson:"timestamp" dynamodbav:"timestamp"`
	CapturedAt string   `json:"capturedAt" bson:"captured_at" dynamodbav:"captured_at"`
	Filename   string   `json:"filename" bson:"filename" dynamodbav:"filename"`
	Latitude   *float64 `json:"latitude,omitempty" bson:"latitude,omitempty" dynamodbav:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty" bson:"longitude,omitempty" dynamodbav:"longitude,omitempty"`
	ZipCode    *string  `json:"zipCode,omitempty" bson:"zip_code,omitempty" dynamodbav:"zip_code,omitempty"`
	NoiseLevel *float64 `json:"noiseLevel,omitempty" bson:"noise_level,omitempty" dynamodbav:"noise_level,omitempty"`
	Label      string   `json:"label" bson:"label" dynamodbav:"label"`
	Confidence float64  `json:"confidence" bson:"confidence" dynamodbav:"confidence"`
}

// ClassificationPayload is the classification section of the upload response.
type ClassificationPayload struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// RecordMetadata is the metadata section of the upload response. Optional
// fields are omitted entirely when the device did not supply them.
type RecordMetadata struct {
	ID         string   `json:"id"`
	Filename   string   `json:"filename"`
	Time       string   `json:"time"`
	Timestamp  int64    `json:"timestamp"`
	DeviceID   string   `json:"deviceId"`
	ZipCode    *string  `json:"zipCode,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	NoiseLevel *float64 `json:"noiseLevel,omitempty"`
}

// UploadResponse is the full success payload returned by the upload endpoint.
type UploadResponse struct {
	Classification ClassificationPayload `json:"classification"`
	Metadata       RecordMetadata        `json:"metadata"`
}

// Metadata converts a stored record into the response metadata section.
func (r ClassificationRecord) Metadata() RecordMetadata {
	return RecordMetadata{
		ID:         r.ID,
		Filename:   r.Filename,
		Time:       r.CapturedAt,
		Timestamp:  r.Timestamp,
		DeviceID:   r.DeviceID,
		ZipCode:    r.ZipCode,
		Longitude:  r.Longitude,
		Latitude:   r.Latitude,
		NoiseLevel: r.NoiseLevel,
	}
}
