package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// uploadFile posts a multipart "file" part to the given path.
func uploadFile(t *testing.T, env *handlerTestEnv, path, token, filename, content string) (*http.Response, envelope) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := env.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test upload: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	var body envelope
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("decode envelope from %q: %v", raw, err)
		}
	}
	return resp, body
}

type mediaPayload struct {
	ID       uint   `json:"id"`
	File     string `json:"file"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

func TestMediaUploadListDelete(t *testing.T) {
	t.Parallel()
	env := setupHandlerTest(t)
	uploader := env.createActiveUser(t, "uploader", "Upload-Passw0rd!")
	token := env.login(t, "uploader", "Upload-Passw0rd!")

	resp, body := uploadFile(t, env, "/api/post_media/", token, "banner.png", "fake image bytes")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d (%s)", resp.StatusCode, body.Message)
	}
	var media mediaPayload
	if err := json.Unmarshal(body.Message, &media); err != nil {
		t.Fatalf("decode media: %v", err)
	}
	if media.Filename != "banner.png" || media.Size != int64(len("fake image bytes")) {
		t.Fatalf("unexpected media record: %+v", media)
	}
	if filepath.Ext(media.File) != ".png" {
		t.Fatalf("stored path should keep the extension: %q", media.File)
	}
	wantDir := filepath.Join("post_media", strconv.FormatUint(uint64(uploader.ID), 10))
	if filepath.Dir(media.File) != wantDir {
		t.Fatalf("uploads should nest under %q, got %q", wantDir, media.File)
	}

	onDisk := filepath.Join(env.server.config.MediaRoot, media.File)
	if _, err := os.Stat(onDisk); err != nil {
		t.Fatalf("uploaded file missing on disk: %v", err)
	}

	resp, body = env.request(t, http.MethodGet, "/api/post_media/", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list media: expected 200, got %d", resp.StatusCode)
	}
	var list []mediaPayload
	if err := json.Unmarshal(body.Message, &list); err != nil {
		t.Fatalf("decode media list: %v", err)
	}
	if len(list) != 1 || list[0].ID != media.ID {
		t.Fatalf("unexpected media list: %+v", list)
	}

	item := fmt.Sprintf("/api/post_media/%d", media.ID)
	resp, _ = env.request(t, http.MethodDelete, item, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete media: expected 200, got %d", resp.StatusCode)
	}
	if _, err := os.Stat(onDisk); !os.IsNotExist(err) {
		t.Fatalf("backing file should be removed, stat err=%v", err)
	}
	resp, _ = env.request(t, http.MethodGet, item, token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", resp.StatusCode)
	}
}

func TestMediaIsOwnerScoped(t *testing.T) {
	t.Parallel()
	env := setupHandlerTest(t)
	env.createActiveUser(t, "owner1", "Upload-Passw0rd!")
	env.createActiveUser(t, "owner2", "Upload-Passw0rd!")
	token1 := env.login(t, "owner1", "Upload-Passw0rd!")
	token2 := env.login(t, "owner2", "Upload-Passw0rd!")

	resp, body := uploadFile(t, env, "/api/post_media/", token1, "private.txt", "secret")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d", resp.StatusCode)
	}
	var media mediaPayload
	if err := json.Unmarshal(body.Message, &media); err != nil {
		t.Fatalf("decode media: %v", err)
	}

	item := fmt.Sprintf("/api/post_media/%d", media.ID)
	resp, _ = env.request(t, http.MethodGet, item, token2, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign read: expected 404, got %d", resp.StatusCode)
	}
	resp, _ = env.request(t, http.MethodDelete, item, token2, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign delete: expected 404, got %d", resp.StatusCode)
	}

	resp, _ = env.request(t, http.MethodGet, "/api/post_media/", token2, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.StatusCode)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	t.Parallel()
	env := setupHandlerTest(t)
	env.createActiveUser(t, "empty", "Upload-Passw0rd!")
	token := env.login(t, "empty", "Upload-Passw0rd!")

	resp, body := env.request(t, http.MethodPost, "/api/post_media/", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body.Errors["file"] == "" {
		t.Fatalf("expected a file field error, got %v", body.Errors)
	}
}
