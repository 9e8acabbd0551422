package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/marcoxskii/ProyectoFinalAprendizajeAut/internal/chat"
)

// Detection is the response contract shared by both detect endpoints.
// Confidence is absent for video detections.
type Detection struct {
	Prediction string   `json:"prediction"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Detector classifies an uploaded capture into a product label.
type Detector interface {
	Detect(ctx context.Context, kind chat.MediaKind, filename string, data []byte) (Detection, error)
}

// Client uploads captures to the detection backend.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
}

// NewClient builds a detection client against the backend base URL.
// Video uploads can be large, hence the generous timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		BaseURL:    baseURL,
	}
}

// Detect POSTs the raw file as multipart field "file" to the endpoint for
// the capture kind. Image and video use distinct endpoints with an
// identical response contract.
func (c *Client) Detect(ctx context.Context, kind chat.MediaKind, filename string, data []byte) (Detection, error) {
	path := "/api/detect"
	if kind == chat.MediaVideo {
		path = "/api/detect_video"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Detection{}, err
	}
	if _, err := part.Write(data); err != nil {
		return Detection{}, err
	}
	if err := mw.Close(); err != nil {
		return Detection{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, &body)
	if err != nil {
		return Detection{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Detection{}, fmt.Errorf("detect: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return Detection{}, fmt.Errorf("detect: status=%d body=%s", resp.StatusCode, string(b))
	}
	var d Detection
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return Detection{}, fmt.Errorf("detect: decode: %w", err)
	}
	return d, nil
}
