package fleet

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // Only used to shape a random boundary token.
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/oshokin/fleet-importer/internal/domain/software"
)

const (
	boundaryPrefix      = "----FleetUploadBoundary"
	boundaryRandomBytes = 16
	softwareField       = "software"
)

var errNotRegularFile = errors.New("package is not a regular file")

// UploadPackage sends the package with its deployment metadata.
// A 409 answer yields an OutcomeConflict result and no error.
func (c *Client) UploadPackage(
	ctx context.Context,
	artifact *software.PackageArtifact,
	deployment *software.DeploymentConfig,
) (*software.UploadResult, error) {
	if err := deployment.Validate(); err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Clean(artifact.Path))
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat package: %w", err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", artifact.Path, errNotRegularFile)
	}

	envelope, err := newUploadEnvelope(deployment, artifact.FileName())
	if err != nil {
		return nil, fmt.Errorf("encode upload: %w", err)
	}

	var content io.Reader = file

	if c.progress != nil {
		bar := newProgressBar(c.progress, info.Size(), artifact.FileName())
		content = io.TeeReader(file, bar)

		defer func() {
			_ = bar.Finish()
		}()
	}

	callCtx, cancel := callContext(ctx, c.uploadTimeout)
	defer cancel()

	req, err := c.newRequest(callCtx, http.MethodPost, packagePath, envelope.body(content))
	if err != nil {
		return nil, err
	}

	req.ContentLength = envelope.contentLength(info.Size())
	req.Header.Set("Content-Type", envelope.contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload package: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload response: %w", err)
	}

	return interpretUploadResponse(resp.StatusCode, body)
}

// uploadEnvelope holds the encoded multipart form around the file contents,
// so the file can be streamed without buffering it.
type uploadEnvelope struct {
	// head holds every form field plus the file part header.
	head []byte
	// tail is the closing boundary.
	tail []byte
	// contentType carries the boundary parameter.
	contentType string
}

// newUploadEnvelope encodes one part per populated deployment field followed
// by the header of the binary "software" part.
func newUploadEnvelope(deployment *software.DeploymentConfig, fileName string) (*uploadEnvelope, error) {
	boundary, err := newBoundary()
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer

	writer := multipart.NewWriter(&buffer)
	if err = writer.SetBoundary(boundary); err != nil {
		return nil, err
	}

	fields := [][2]string{
		{"team_id", strconv.Itoa(deployment.TeamID)},
		{"self_service", strconv.FormatBool(deployment.SelfService)},
	}

	optional := [][2]string{
		{"install_script", deployment.InstallScript},
		{"uninstall_script", deployment.UninstallScript},
		{"pre_install_query", deployment.PreInstallQuery},
		{"post_install_script", deployment.PostInstallScript},
	}

	for _, field := range optional {
		if field[1] != "" {
			fields = append(fields, field)
		}
	}

	if deployment.AutomaticInstall {
		fields = append(fields, [2]string{"automatic_install", "true"})
	}

	labelField, labels := deployment.Labels()
	for _, label := range labels {
		fields = append(fields, [2]string{labelField, label})
	}

	for _, field := range fields {
		if err = writer.WriteField(field[0], field[1]); err != nil {
			return nil, err
		}
	}

	// CreateFormFile sets Content-Type: application/octet-stream.
	if _, err = writer.CreateFormFile(softwareField, fileName); err != nil {
		return nil, err
	}

	head := bytes.Clone(buffer.Bytes())
	buffer.Reset()

	if err = writer.Close(); err != nil {
		return nil, err
	}

	return &uploadEnvelope{
		head:        head,
		tail:        bytes.Clone(buffer.Bytes()),
		contentType: writer.FormDataContentType(),
	}, nil
}

// body joins the envelope around content.
func (e *uploadEnvelope) body(content io.Reader) io.Reader {
	return io.MultiReader(bytes.NewReader(e.head), content, bytes.NewReader(e.tail))
}

// contentLength returns the request size for a file of fileSize bytes.
func (e *uploadEnvelope) contentLength(fileSize int64) int64 {
	return int64(len(e.head)) + fileSize + int64(len(e.tail))
}

// newBoundary derives an unpredictable multipart boundary from random bytes.
func newBoundary() (string, error) {
	random := make([]byte, boundaryRandomBytes)
	if _, err := rand.Read(random); err != nil {
		return "", fmt.Errorf("generate boundary: %w", err)
	}

	sum := sha1.Sum(random) //nolint:gosec // Not used for security.

	return boundaryPrefix + hex.EncodeToString(sum[:]), nil
}

// interpretUploadResponse maps the upload status and body to a result.
func interpretUploadResponse(status int, body []byte) (*software.UploadResult, error) {
	switch status {
	case http.StatusConflict:
		return &software.UploadResult{Outcome: software.OutcomeConflict}, nil
	case http.StatusOK:
	default:
		return nil, fmt.Errorf("%w: %d %s", ErrUploadFailed, status, strings.TrimSpace(string(body)))
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}

	var response uploadResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}

	result := &software.UploadResult{Outcome: software.OutcomeUploaded}
	if response.SoftwarePackage != nil {
		result.TitleID = response.SoftwarePackage.TitleID
		result.InstallerID = response.SoftwarePackage.InstallerID
		result.HashSHA256 = response.SoftwarePackage.HashSHA256
	}

	return result, nil
}

func newProgressBar(w io.Writer, size int64, fileName string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Uploading "+fileName),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}
