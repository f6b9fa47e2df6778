package rest

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/TarasYkv/shop-mirror-daemon/app/controller"
	"github.com/TarasYkv/shop-mirror-daemon/app/entity"
	"github.com/TarasYkv/shop-mirror-daemon/app/repo"
	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (*MockMirrorDaemonUseCase, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	useCase := NewMockMirrorDaemonUseCase(ctrl)
	handler := NewEndpointHandler(useCase, zap.NewNop().Sugar())
	return useCase, NewRouter().GetHandler(handler)
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestStartBackup(t *testing.T) {
	testCases := []struct {
		name               string
		requestBodyJSON    string
		expectCall         bool
		expectedResponse   entity.BackupResponse
		expectedError      error
		expectedBodyJSON   string
		expectedStatusCode int
	}{
		{
			name:               "success",
			requestBodyJSON:    `{"all": true}`,
			expectCall:         true,
			expectedResponse:   entity.BackupResponse{RunID: "r1", Status: entity.RunPending},
			expectedBodyJSON:   `{"run_id":"r1","status":"pending"}`,
			expectedStatusCode: http.StatusAccepted,
		},
		{
			name:               "empty body reaches validation",
			requestBodyJSON:    ``,
			expectCall:         true,
			expectedError:      fmt.Errorf("%w: no category selected", controller.ErrInvalidRequest),
			expectedBodyJSON:   `{"message":"failed to start backup err: invalid request: no category selected"}`,
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:               "bad json request",
			requestBodyJSON:    `{"all": tru}`,
			expectedBodyJSON:   `{"message":"failed to unmarshall body err: invalid character '}' in literal true (expecting 'e')"}`,
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:               "busy",
			requestBodyJSON:    `{"include_products": true}`,
			expectCall:         true,
			expectedError:      controller.ErrJobInProgress,
			expectedBodyJSON:   `{"message":"failed to start backup err: another job is in progress"}`,
			expectedStatusCode: http.StatusConflict,
		},
		{
			name:               "internal error",
			requestBodyJSON:    `{"all": true}`,
			expectCall:         true,
			expectedError:      errors.New("internal error"),
			expectedBodyJSON:   `{"message":"failed to start backup err: internal error"}`,
			expectedStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			useCase, h := newTestRouter(t)
			if tc.expectCall {
				useCase.EXPECT().StartBackup(gomock.Any(), gomock.Any()).Return(tc.expectedResponse, tc.expectedError)
			}

			w := serve(h, http.MethodPost, "/api/v1/backup", tc.requestBodyJSON)
			if tc.expectedStatusCode != w.Code {
				t.Fatalf("expected status %d, got %d", tc.expectedStatusCode, w.Code)
			}
			if tc.expectedBodyJSON != w.Body.String() {
				t.Fatalf("expected body %s, got %s", tc.expectedBodyJSON, w.Body.String())
			}
		})
	}
}

func TestBackupStatus(t *testing.T) {
	testCases := []struct {
		name               string
		expectedRun        entity.BackupRun
		expectedError      error
		expectedStatusCode int
		expectedBodyJSON   string
	}{
		{
			name:               "not found",
			expectedError:      fmt.Errorf("no run found with id r1: %w", repo.ErrNotFound),
			expectedStatusCode: http.StatusNotFound,
			expectedBodyJSON:   `{"message":"failed to get backup err: no run found with id r1: not found"}`,
		},
		{
			name:               "internal error",
			expectedError:      errors.New("disk I/O error"),
			expectedStatusCode: http.StatusInternalServerError,
			expectedBodyJSON:   `{"message":"failed to get backup err: disk I/O error"}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			useCase, h := newTestRouter(t)
			useCase.EXPECT().GetBackup(gomock.Any(), "r1").Return(tc.expectedRun, tc.expectedError)

			w := serve(h, http.MethodGet, "/api/v1/backup/r1", "")
			if tc.expectedStatusCode != w.Code {
				t.Fatalf("expected status %d, got %d", tc.expectedStatusCode, w.Code)
			}
			if tc.expectedBodyJSON != w.Body.String() {
				t.Fatalf("expected body %s, got %s", tc.expectedBodyJSON, w.Body.String())
			}
		})
	}
}

func TestBackupStatusReturnsProgress(t *testing.T) {
	useCase, h := newTestRouter(t)
	run := entity.BackupRun{ID: "r1", Shop: "demo.myshopify.com", Status: entity.RunRunning, CurrentStep: "Products",
		ProgressMessage: "Products 3/10: Shirt"}
	useCase.EXPECT().GetBackup(gomock.Any(), "r1").Return(run, nil)

	w := serve(h, http.MethodGet, "/api/v1/backup/r1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	for _, want := range []string{`"status":"running"`, `"current_step":"Products"`, `"progress_message":"Products 3/10: Shirt"`} {
		if !bytes.Contains(w.Body.Bytes(), []byte(want)) {
			t.Fatalf("expected %s in body %s", want, w.Body.String())
		}
	}
}

func TestBackupDelete(t *testing.T) {
	testCases := []struct {
		name               string
		expectedError      error
		expectedStatusCode int
		expectedBodyJSON   string
	}{
		{
			name:               "success",
			expectedStatusCode: http.StatusOK,
			expectedBodyJSON:   `{"message":"OK"}`,
		},
		{
			name:               "busy",
			expectedError:      controller.ErrJobInProgress,
			expectedStatusCode: http.StatusConflict,
			expectedBodyJSON:   `{"message":"failed to remove backup err: another job is in progress"}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			useCase, h := newTestRouter(t)
			useCase.EXPECT().RemoveBackup(gomock.Any(), "r1").Return(tc.expectedError)

			w := serve(h, http.MethodDelete, "/api/v1/backup/r1", "")
			if tc.expectedStatusCode != w.Code {
				t.Fatalf("expected status %d, got %d", tc.expectedStatusCode, w.Code)
			}
			if tc.expectedBodyJSON != w.Body.String() {
				t.Fatalf("expected body %s, got %s", tc.expectedBodyJSON, w.Body.String())
			}
		})
	}
}

func TestCompare(t *testing.T) {
	testCases := []struct {
		name               string
		target             string
		expectedCategory   entity.ItemType
		expectedResponse   entity.CompareResponse
		expectedError      error
		expectedStatusCode int
		expectedBodyJSON   string
	}{
		{
			name:             "single category",
			target:           "/api/v1/backup/r1/compare?category=product",
			expectedCategory: entity.ItemProduct,
			expectedResponse: entity.CompareResponse{
				RunID: "r1",
				Results: map[entity.ItemType][]entity.CompareResult{
					entity.ItemProduct: {},
				},
			},
			expectedStatusCode: http.StatusOK,
			expectedBodyJSON:   `{"run_id":"r1","results":{"product":[]},"summary":null}`,
		},
		{
			name:               "run not finished",
			target:             "/api/v1/backup/r1/compare",
			expectedError:      fmt.Errorf("%w: run r1 is running", controller.ErrRunNotFinished),
			expectedStatusCode: http.StatusConflict,
			expectedBodyJSON:   `{"message":"failed to compare backup err: backup run is not completed: run r1 is running"}`,
		},
		{
			name:               "unknown category",
			target:             "/api/v1/backup/r1/compare?category=widgets",
			expectedCategory:   entity.ItemType("widgets"),
			expectedError:      fmt.Errorf("%w: unknown category %q", controller.ErrInvalidRequest, "widgets"),
			expectedStatusCode: http.StatusBadRequest,
			expectedBodyJSON:   `{"message":"failed to compare backup err: invalid request: unknown category \"widgets\""}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			useCase, h := newTestRouter(t)
			useCase.EXPECT().Compare(gomock.Any(), "r1", tc.expectedCategory).Return(tc.expectedResponse, tc.expectedError)

			w := serve(h, http.MethodGet, tc.target, "")
			if tc.expectedStatusCode != w.Code {
				t.Fatalf("expected status %d, got %d", tc.expectedStatusCode, w.Code)
			}
			if tc.expectedBodyJSON != w.Body.String() {
				t.Fatalf("expected body %s, got %s", tc.expectedBodyJSON, w.Body.String())
			}
		})
	}
}

func TestStartRestore(t *testing.T) {
	testCases := []struct {
		name               string
		requestBodyJSON    string
		expectedRequest    *entity.RestoreRequest
		expectedResponse   entity.RestoreResponse
		expectedError      error
		expectedStatusCode int
		expectedBodyJSON   string
	}{
		{
			name:            "success",
			requestBodyJSON: `{"policy":"only_missing","categories":["product","blog_post"],"item_ids":[7]}`,
			expectedRequest: &entity.RestoreRequest{
				Policy:     entity.PolicyOnlyMissing,
				Categories: []entity.ItemType{entity.ItemProduct, entity.ItemBlogPost},
				ItemIDs:    []int64{7},
			},
			expectedResponse:   entity.RestoreResponse{JobID: "j1", Status: entity.JobPending},
			expectedStatusCode: http.StatusAccepted,
			expectedBodyJSON:   `{"job_id":"j1","status":"pending"}`,
		},
		{
			name:               "bad json request",
			requestBodyJSON:    `{"policy": only_missing}`,
			expectedStatusCode: http.StatusBadRequest,
			expectedBodyJSON:   `{"message":"failed to unmarshall body err: invalid character 'o' looking for beginning of value"}`,
		},
		{
			name:               "unknown policy",
			requestBodyJSON:    `{"policy":"merge"}`,
			expectedRequest:    &entity.RestoreRequest{Policy: "merge"},
			expectedError:      fmt.Errorf("%w: unknown policy %q", controller.ErrInvalidRequest, "merge"),
			expectedStatusCode: http.StatusBadRequest,
			expectedBodyJSON:   `{"message":"failed to start restore err: invalid request: unknown policy \"merge\""}`,
		},
		{
			name:               "missing run",
			requestBodyJSON:    `{}`,
			expectedRequest:    &entity.RestoreRequest{},
			expectedError:      fmt.Errorf("no run found with id r1: %w", repo.ErrNotFound),
			expectedStatusCode: http.StatusNotFound,
			expectedBodyJSON:   `{"message":"failed to start restore err: no run found with id r1: not found"}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			useCase, h := newTestRouter(t)
			if tc.expectedRequest != nil {
				useCase.EXPECT().StartRestore(gomock.Any(), "r1", *tc.expectedRequest).Return(tc.expectedResponse, tc.expectedError)
			}

			w := serve(h, http.MethodPost, "/api/v1/backup/r1/restore", tc.requestBodyJSON)
			if tc.expectedStatusCode != w.Code {
				t.Fatalf("expected status %d, got %d", tc.expectedStatusCode, w.Code)
			}
			if tc.expectedBodyJSON != w.Body.String() {
				t.Fatalf("expected body %s, got %s", tc.expectedBodyJSON, w.Body.String())
			}
		})
	}
}

func TestRestoreStatus(t *testing.T) {
	useCase, h := newTestRouter(t)
	response := entity.RestoreJobResponse{
		RestoreJob: entity.RestoreJob{ID: "j1", RunID: "r1", Status: entity.JobPartial, SuccessCount: 1, FailedCount: 1},
		Logs: []entity.RestoreLog{
			{ID: 1, JobID: "j1", Type: entity.ItemProduct, Title: "Shirt", Status: entity.RestoreSuccess},
			{ID: 2, JobID: "j1", Type: entity.ItemBlogPost, Title: "News", Status: entity.RestoreFailed, Message: "parent blog missing"},
		},
	}
	useCase.EXPECT().GetRestore(gomock.Any(), "j1").Return(response, nil)

	w := serve(h, http.MethodGet, "/api/v1/restore/j1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	for _, want := range []string{`"status":"partial"`, `"failed_count":1`, `"message":"parent blog missing"`} {
		if !bytes.Contains(w.Body.Bytes(), []byte(want)) {
			t.Fatalf("expected %s in body %s", want, w.Body.String())
		}
	}
}

func TestExport(t *testing.T) {
	useCase, h := newTestRouter(t)
	useCase.EXPECT().Export(gomock.Any(), "r1").Return(entity.ExportResponse{Name: "demo_r1_20240102T030405.zip", Size: 42}, nil)

	w := serve(h, http.MethodPost, "/api/v1/backup/r1/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	expected := `{"name":"demo_r1_20240102T030405.zip","size":42,"uploaded":false}`
	if w.Body.String() != expected {
		t.Fatalf("expected body %s, got %s", expected, w.Body.String())
	}
}

func TestDownload(t *testing.T) {
	name := "demo_r1_20240102T030405.zip"
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("PK-archive"), 0o644); err != nil {
		t.Fatalf("failed to write archive: %v", err)
	}
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}

	useCase, h := newTestRouter(t)
	useCase.EXPECT().OpenExport(gomock.Any(), name).Return(file, entity.ExportArchive{Name: name, Path: path, Size: 10}, nil)

	w := serve(h, http.MethodGet, "/api/v1/export/"+name, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if w.Body.String() != "PK-archive" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="`+name+`"` {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if got := w.Header().Get("Content-Type"); got != "application/zip" {
		t.Fatalf("unexpected content type %q", got)
	}
}

func TestS3PresignedURL(t *testing.T) {
	testCases := []struct {
		name               string
		target             string
		expectedRequest    *entity.S3PresignedURLRequest
		expectedResponse   entity.S3PresignedURLResponse
		expectedError      error
		expectedStatusCode int
		expectedBodyJSON   string
	}{
		{
			name:               "success",
			target:             "/api/v1/export/a.zip/s3?expiration=60",
			expectedRequest:    &entity.S3PresignedURLRequest{Name: "a.zip", Expiration: 60},
			expectedResponse:   entity.S3PresignedURLResponse{URL: "https://s3.example.com/exports/demo/a.zip?sig=1"},
			expectedStatusCode: http.StatusOK,
			expectedBodyJSON:   `{"url":"https://s3.example.com/exports/demo/a.zip?sig=1"}`,
		},
		{
			name:               "default expiration",
			target:             "/api/v1/export/a.zip/s3",
			expectedRequest:    &entity.S3PresignedURLRequest{Name: "a.zip"},
			expectedResponse:   entity.S3PresignedURLResponse{URL: "u"},
			expectedStatusCode: http.StatusOK,
			expectedBodyJSON:   `{"url":"u"}`,
		},
		{
			name:               "bad expiration",
			target:             "/api/v1/export/a.zip/s3?expiration=soon",
			expectedStatusCode: http.StatusBadRequest,
			expectedBodyJSON:   `{"message":"failed to parse value from url err: strconv.Atoi: parsing \"soon\": invalid syntax"}`,
		},
		{
			name:               "s3 disabled",
			target:             "/api/v1/export/a.zip/s3",
			expectedRequest:    &entity.S3PresignedURLRequest{Name: "a.zip"},
			expectedError:      controller.ErrS3Disabled,
			expectedStatusCode: http.StatusNotImplemented,
			expectedBodyJSON:   `{"message":"failed to create s3 presigned url err: s3 mirror is disabled"}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			useCase, h := newTestRouter(t)
			if tc.expectedRequest != nil {
				useCase.EXPECT().CreateS3PresignedURL(gomock.Any(), *tc.expectedRequest).Return(tc.expectedResponse, tc.expectedError)
			}

			w := serve(h, http.MethodGet, tc.target, "")
			if tc.expectedStatusCode != w.Code {
				t.Fatalf("expected status %d, got %d", tc.expectedStatusCode, w.Code)
			}
			if tc.expectedBodyJSON != w.Body.String() {
				t.Fatalf("expected body %s, got %s", tc.expectedBodyJSON, w.Body.String())
			}
		})
	}
}

func TestServiceEndpoints(t *testing.T) {
	_, h := newTestRouter(t)

	w := serve(h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || w.Body.String() != `{"message":"OK"}` {
		t.Fatalf("unexpected health response %d %s", w.Code, w.Body.String())
	}

	w = serve(h, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected metrics status %d, got %d", http.StatusOK, w.Code)
	}

	w = serve(h, http.MethodGet, "/api/v1/unknown", "")
	if w.Code != http.StatusNotFound || w.Body.String() != `{"message":"Page not found"}` {
		t.Fatalf("unexpected not found response %d %s", w.Code, w.Body.String())
	}
}
