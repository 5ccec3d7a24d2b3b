package fleet

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/fleet-importer/internal/domain/software"
)

func writePackage(t *testing.T, contents []byte) *software.PackageArtifact {
	t.Helper()

	path := filepath.Join(t.TempDir(), "Firefox 130.0.pkg")
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	return &software.PackageArtifact{
		Path:    path,
		Title:   "Firefox",
		Version: "130.0",
	}
}

// TestUploadPackage_EncodesForm verifies every multipart part and the success payload.
//
//nolint:funlen // Checks the whole form in one request.
func TestUploadPackage_EncodesForm(t *testing.T) {
	t.Parallel()

	contents := bytes.Repeat([]byte("pkg-bytes-"), 4096)
	artifact := writePackage(t, contents)

	var recorder requestRecorder

	client := newTestClient(t, recorder.handler(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"software_package":{"title_id":21,"installer_id":34,"hash_sha256":"cafe"}}`))
	}), WithProgress(io.Discard))

	deployment := &software.DeploymentConfig{
		TeamID:           5,
		SelfService:      false,
		AutomaticInstall: true,
		LabelsIncludeAny: []string{"Engineering", "Design"},
		InstallScript:    "echo install",
		PreInstallQuery:  "SELECT 1;",
	}

	result, err := client.UploadPackage(context.Background(), artifact, deployment)
	require.NoError(t, err)
	require.Equal(t, software.OutcomeUploaded, result.Outcome)
	require.Equal(t, uint(21), *result.TitleID)
	require.Equal(t, uint(34), *result.InstallerID)
	require.Equal(t, "cafe", result.HashSHA256)

	req := recorder.single(t)
	require.Equal(t, http.MethodPost, req.method)
	require.Equal(t, packagePath, req.path)
	require.Equal(t, "Bearer "+testToken, req.header.Get("Authorization"))
	require.Positive(t, req.contentLength)

	mediaType, params, err := mime.ParseMediaType(req.header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)
	require.True(t, strings.HasPrefix(params["boundary"], boundaryPrefix))

	require.NoError(t, req.formErr)
	require.Equal(t, []string{"5"}, req.values["team_id"])
	require.Equal(t, []string{"false"}, req.values["self_service"])
	require.Equal(t, []string{"true"}, req.values["automatic_install"])
	require.Equal(t, []string{"echo install"}, req.values["install_script"])
	require.Equal(t, []string{"SELECT 1;"}, req.values["pre_install_query"])
	require.NotContains(t, req.values, "uninstall_script")
	require.NotContains(t, req.values, "post_install_script")
	require.Equal(t, []string{"Engineering", "Design"}, req.values["labels_include_any"])
	require.NotContains(t, req.values, "labels_exclude_any")

	files := req.files["software"]
	require.Len(t, files, 1)
	require.Equal(t, "Firefox 130.0.pkg", files[0].name)
	require.Equal(t, "application/octet-stream", files[0].contentType)
	require.Equal(t, contents, files[0].data)
}

// TestUploadPackage_MinimalForm omits optional parts and labels.
func TestUploadPackage_MinimalForm(t *testing.T) {
	t.Parallel()

	artifact := writePackage(t, []byte("x"))

	var recorder requestRecorder

	client := newTestClient(t, recorder.handler(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	result, err := client.UploadPackage(context.Background(), artifact, &software.DeploymentConfig{SelfService: true})
	require.NoError(t, err)
	require.Equal(t, software.OutcomeUploaded, result.Outcome)
	require.Nil(t, result.TitleID)
	require.Nil(t, result.InstallerID)
	require.Empty(t, result.HashSHA256)

	req := recorder.single(t)
	require.NoError(t, req.formErr)
	require.Len(t, req.values, 2)
	require.Equal(t, []string{"true"}, req.values["self_service"])
	require.Equal(t, []string{"0"}, req.values["team_id"])
}

// TestUploadPackage_ConflictingLabels fails before any request is made.
func TestUploadPackage_ConflictingLabels(t *testing.T) {
	t.Parallel()

	var recorder requestRecorder

	client := newTestClient(t, recorder.handler(func(http.ResponseWriter, *http.Request) {}))

	deployment := &software.DeploymentConfig{
		LabelsIncludeAny: []string{"a"},
		LabelsExcludeAny: []string{"b"},
	}

	_, err := client.UploadPackage(context.Background(), writePackage(t, []byte("x")), deployment)
	require.ErrorIs(t, err, software.ErrConflictingLabels)
	require.Zero(t, recorder.count())
}

// TestUploadPackage_Conflict treats 409 as a no-op success.
func TestUploadPackage_Conflict(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"already exists"}`, http.StatusConflict)
	}))

	result, err := client.UploadPackage(context.Background(), writePackage(t, []byte("x")), new(software.DeploymentConfig))
	require.NoError(t, err)
	require.Equal(t, software.OutcomeConflict, result.Outcome)
	require.Nil(t, result.TitleID)
	require.Nil(t, result.InstallerID)
	require.Empty(t, result.HashSHA256)
}

// TestUploadPackage_ServerError surfaces status and body.
func TestUploadPackage_ServerError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("server error"))
	}))

	_, err := client.UploadPackage(context.Background(), writePackage(t, []byte("x")), new(software.DeploymentConfig))
	require.ErrorIs(t, err, ErrUploadFailed)
	require.Contains(t, err.Error(), "500")
	require.Contains(t, err.Error(), "server error")
}

// TestUploadPackage_MissingFile fails without contacting the server.
func TestUploadPackage_MissingFile(t *testing.T) {
	t.Parallel()

	client, err := New("http://127.0.0.1:1", testToken)
	require.NoError(t, err)

	artifact := &software.PackageArtifact{Path: filepath.Join(t.TempDir(), "missing.pkg")}

	_, err = client.UploadPackage(context.Background(), artifact, new(software.DeploymentConfig))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestInterpretUploadResponse covers the body parsing branches.
func TestInterpretUploadResponse(t *testing.T) {
	t.Parallel()

	result, err := interpretUploadResponse(http.StatusOK, []byte("  "))
	require.NoError(t, err)
	require.Equal(t, software.OutcomeUploaded, result.Outcome)

	result, err = interpretUploadResponse(http.StatusOK, []byte(`{"software_package":{"title_id":1}}`))
	require.NoError(t, err)
	require.Equal(t, uint(1), *result.TitleID)
	require.Nil(t, result.InstallerID)

	_, err = interpretUploadResponse(http.StatusOK, []byte("not json"))
	require.Error(t, err)

	_, err = interpretUploadResponse(http.StatusCreated, nil)
	require.ErrorIs(t, err, ErrUploadFailed)
}

// TestNewBoundary returns distinct, valid boundaries.
func TestNewBoundary(t *testing.T) {
	t.Parallel()

	first, err := newBoundary()
	require.NoError(t, err)

	second, err := newBoundary()
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.LessOrEqual(t, len(first), 70)
	require.True(t, strings.HasPrefix(first, boundaryPrefix))
}
