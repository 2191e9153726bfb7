// Package client talks to the upload service over HTTP.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/filedrop/backend/internal/models"
)

// Error is a non-2xx response from the service.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("upload service: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upload service: %d %s: %s", e.Status, e.Code, e.Message)
}

// ProgressFunc receives the upload progress as a percentage.
type ProgressFunc func(percent int)

// Client is an upload service client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the service at baseURL. A nil httpClient uses a
// client with a two minute timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Percent converts a byte count into a rounded percentage in [0, 100].
func Percent(loaded, total int64) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(loaded) * 100 / float64(total)))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Upload posts body as the multipart "file" part. size is the length of body
// and is used for progress reporting only.
func (c *Client) Upload(ctx context.Context, name, contentType string, body io.Reader, size int64, onProgress ProgressFunc) (models.UploadRecord, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	// The writer goroutine must exit before Upload returns so that
	// onProgress is never called after the result is reported.
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := writeFilePart(writer, name, contentType, &progressReader{
			r:          body,
			total:      size,
			onProgress: onProgress,
		})
		if err == nil {
			err = writer.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/dashboard/", pr)
	if err != nil {
		pr.CloseWithError(err)
		<-done
		return models.UploadRecord{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp models.UploadResponse
	err = c.do(req, &resp)
	if err != nil {
		pr.CloseWithError(err)
	} else {
		pr.Close()
	}
	<-done
	if err != nil {
		return models.UploadRecord{}, err
	}
	return resp.Data, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(w *multipart.Writer, name, contentType string, r io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, r)
	return err
}

// List returns every record in insertion order.
func (c *Client) List(ctx context.Context) ([]models.UploadRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/dashboard/dashboard", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var resp models.ListResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Response, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Code    string `json:"code"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	apiErr := &Error{Status: resp.StatusCode}
	if json.Unmarshal(data, &body) == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
		if apiErr.Message == "" {
			apiErr.Message = body.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// progressReader reports how many bytes the transport has pulled through the
// pipe so far.
type progressReader struct {
	r          io.Reader
	total      int64
	loaded     int64
	last       int
	onProgress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.loaded += int64(n)
	if p.onProgress != nil && n > 0 {
		if pct := Percent(p.loaded, p.total); pct != p.last {
			p.last = pct
			p.onProgress(pct)
		}
	}
	return n, err
}
