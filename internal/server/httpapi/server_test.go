package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// --- fakes ---

type fakeAuth struct {
	registerErr error
	loginToken  *models.Token
	loginErr    error
	loggedOut   []string

	// tokens accepted by FindUserByToken
	users   map[string]*models.User
	findErr error
}

func (f *fakeAuth) Register(ctx context.Context, username, password string) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.User{ID: "u-new", UserName: username}, nil
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (*models.Token, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginToken, nil
}

func (f *fakeAuth) Logout(ctx context.Context, tokenValue string) {
	f.loggedOut = append(f.loggedOut, tokenValue)
}

func (f *fakeAuth) FindUserByToken(ctx context.Context, tokenValue string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.users[tokenValue], nil
}

type fakeFiles struct {
	uploadErr   error
	uploaded    map[string][]byte
	downloadOut []byte
	downloadErr error
	deleteErr   error
	renameErr   error
	renames     [][2]string
	listOut     []*models.File
	listErr     error
	lastLimit   int
}

func (f *fakeFiles) Upload(ctx context.Context, owner *models.User, filename string, data []byte) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	if f.uploaded == nil {
		f.uploaded = map[string][]byte{}
	}
	f.uploaded[filename] = data
	return nil
}

func (f *fakeFiles) Download(ctx context.Context, owner *models.User, filename string) ([]byte, error) {
	return f.downloadOut, f.downloadErr
}

func (f *fakeFiles) Delete(ctx context.Context, owner *models.User, filename string) error {
	return f.deleteErr
}

func (f *fakeFiles) Rename(ctx context.Context, owner *models.User, oldFilename, newFilename string) error {
	if f.renameErr != nil {
		return f.renameErr
	}
	f.renames = append(f.renames, [2]string{oldFilename, newFilename})
	return nil
}

func (f *fakeFiles) List(ctx context.Context, owner *models.User, limit int) ([]*models.File, error) {
	f.lastLimit = limit
	return f.listOut, f.listErr
}

// --- helpers ---

func newTestServer(auth *fakeAuth, files *fakeFiles) *httptest.Server {
	s := NewServer(":0", logging.NewDefault(), auth, files)
	return httptest.NewServer(s.Router())
}

func authedFakes() (*fakeAuth, *fakeFiles) {
	auth := &fakeAuth{users: map[string]*models.User{
		"good-token": {ID: "u-1", UserName: "artem"},
	}}
	return auth, &fakeFiles{}
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set(AuthTokenHeaderName, token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	defer resp.Body.Close()
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return er
}

// --- auth routes ---

func TestHandleRegister(t *testing.T) {
	auth, files := authedFakes()
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/register", "",
		map[string]string{"login": "artem", "password": "12345"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandleRegister_Duplicate(t *testing.T) {
	auth, files := authedFakes()
	auth.registerErr = common.ErrorAlreadyExists
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/register", "",
		map[string]string{"login": "artem", "password": "12345"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	er := decodeError(t, resp)
	if er.ID != http.StatusBadRequest {
		t.Fatalf("body id = %d, want 400", er.ID)
	}
}

func TestHandleRegister_MissingFields(t *testing.T) {
	auth, files := authedFakes()
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/register", "",
		map[string]string{"login": "artem"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleLogin(t *testing.T) {
	auth, files := authedFakes()
	auth.loginToken = &models.Token{Token: "fresh-token"}
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/login", "",
		map[string]string{"login": "artem", "password": "12345"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["auth-token"] != "fresh-token" {
		t.Fatalf("auth-token = %q, want fresh-token", body["auth-token"])
	}
}

func TestHandleLogin_BadCredentials(t *testing.T) {
	auth, files := authedFakes()
	auth.loginErr = common.ErrorInvalidCredentials
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/login", "",
		map[string]string{"login": "artem", "password": "wrong"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	er := decodeError(t, resp)
	if er.Message != common.ErrorInvalidCredentials.Error() {
		t.Fatalf("message = %q", er.Message)
	}
}

func TestHandleLogout(t *testing.T) {
	auth, files := authedFakes()
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/logout", "good-token", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(auth.loggedOut) != 1 || auth.loggedOut[0] != "good-token" {
		t.Fatalf("logout calls: %v", auth.loggedOut)
	}
}

func TestHandleLogout_MissingHeader(t *testing.T) {
	auth, files := authedFakes()
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/logout", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

// --- auth middleware ---

func TestAuthMiddleware(t *testing.T) {
	auth, files := authedFakes()
	files.listOut = []*models.File{}
	ts := newTestServer(auth, files)
	defer ts.Close()

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"valid token passes", "good-token", http.StatusOK},
		{"missing header rejected", "", http.StatusUnauthorized},
		{"unknown token rejected", "bad-token", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodGet, ts.URL+"/list", tc.token, nil)
			resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}

func TestAuthMiddleware_LookupError(t *testing.T) {
	auth, files := authedFakes()
	auth.findErr = errors.New("db down")
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodGet, ts.URL+"/list", "good-token", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}

// --- file routes ---

func multipartUpload(t *testing.T, url, token, filename string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, url+"/file?filename="+filename, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(AuthTokenHeaderName, token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	return resp
}

func TestHandleUpload(t *testing.T) {
	auth, files := authedFakes()
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := multipartUpload(t, ts.URL, "good-token", "a.txt", []byte{104, 105})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if string(files.uploaded["a.txt"]) != "hi" {
		t.Fatalf("uploaded = %v", files.uploaded)
	}
}

func TestHandleUpload_Duplicate(t *testing.T) {
	auth, files := authedFakes()
	files.uploadErr = common.ErrorAlreadyExists
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := multipartUpload(t, ts.URL, "good-token", "a.txt", []byte("hi"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	er := decodeError(t, resp)
	if er.Message != "File already exists" {
		t.Fatalf("message = %q", er.Message)
	}
}

func TestHandleUpload_EmptyFile(t *testing.T) {
	auth, files := authedFakes()
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := multipartUpload(t, ts.URL, "good-token", "a.txt", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	er := decodeError(t, resp)
	if er.Message != "File is required" {
		t.Fatalf("message = %q", er.Message)
	}
}

func TestHandleUpload_MissingFilename(t *testing.T) {
	auth, files := authedFakes()
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/file", "good-token", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleUpload_PathTraversalFilename(t *testing.T) {
	auth, files := authedFakes()
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodPost, ts.URL+"/file?filename=..%2Fevil.txt", "good-token", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(files.uploaded) != 0 {
		t.Fatal("upload reached the service")
	}
}

func TestHandleDownload(t *testing.T) {
	auth, files := authedFakes()
	files.downloadOut = []byte{104, 105}
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodGet, ts.URL+"/file?filename=a.txt", "good-token", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/octet-stream" {
		t.Fatalf("content-type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "a.txt") {
		t.Fatalf("content-disposition = %q", cd)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != "hi" {
		t.Fatalf("body = %v, want [104 105]", data)
	}
}

func TestHandleDownload_NotFound(t *testing.T) {
	auth, files := authedFakes()
	files.downloadErr = common.ErrorNotFound
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodGet, ts.URL+"/file?filename=missing.txt", "good-token", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleDownload_IOFailure(t *testing.T) {
	auth, files := authedFakes()
	files.downloadErr = common.ErrorIO
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodGet, ts.URL+"/file?filename=a.txt", "good-token", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	er := decodeError(t, resp)
	if er.Message != "Internal server error" {
		t.Fatalf("message = %q", er.Message)
	}
}

func TestHandleDelete(t *testing.T) {
	auth, files := authedFakes()
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodDelete, ts.URL+"/file?filename=a.txt", "good-token", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandleRename(t *testing.T) {
	auth, files := authedFakes()
	ts := newTestServer(auth, files)
	defer ts.Close()

	// Any of the accepted body keys works.
	for _, key := range []string{"name", "filename", "newName"} {
		t.Run(key, func(t *testing.T) {
			files.renames = nil
			resp := doJSON(t, http.MethodPut, ts.URL+"/file?filename=a.txt", "good-token",
				map[string]string{key: "b.txt"})
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			if len(files.renames) != 1 || files.renames[0] != [2]string{"a.txt", "b.txt"} {
				t.Fatalf("renames = %v", files.renames)
			}
		})
	}
}

func TestHandleRename_MissingNewName(t *testing.T) {
	auth, files := authedFakes()
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodPut, ts.URL+"/file?filename=a.txt", "good-token",
		map[string]string{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	er := decodeError(t, resp)
	if er.Message != "New file name is required" {
		t.Fatalf("message = %q", er.Message)
	}
}

func TestHandleRename_Conflict(t *testing.T) {
	auth, files := authedFakes()
	files.renameErr = common.ErrorConflict
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodPut, ts.URL+"/file?filename=a.txt", "good-token",
		map[string]string{"name": "b.txt"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	er := decodeError(t, resp)
	if er.Message != common.ErrorConflict.Error() {
		t.Fatalf("message = %q", er.Message)
	}
}

func TestHandleList(t *testing.T) {
	auth, files := authedFakes()
	files.listOut = []*models.File{
		{Filename: "a.txt", Size: 2},
		{Filename: "b.txt", Size: 5},
	}
	ts := newTestServer(auth, files)
	defer ts.Close()

	resp := doJSON(t, http.MethodGet, ts.URL+"/list?limit=2", "good-token", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var items []fileListItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(items) != 2 || items[0].Filename != "a.txt" || items[0].Size != 2 {
		t.Fatalf("items = %+v", items)
	}
	if files.lastLimit != 2 {
		t.Fatalf("limit passed = %d, want 2", files.lastLimit)
	}
}

func TestHandleList_LimitParsing(t *testing.T) {
	auth, files := authedFakes()
	files.listOut = []*models.File{}
	ts := newTestServer(auth, files)
	defer ts.Close()

	tests := []struct {
		name      string
		query     string
		status    int
		wantLimit int
	}{
		{"absent means unlimited", "", http.StatusOK, -1},
		{"negative clamps to zero", "?limit=-5", http.StatusOK, 0},
		{"zero stays zero", "?limit=0", http.StatusOK, 0},
		{"garbage rejected", "?limit=abc", http.StatusBadRequest, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			files.lastLimit = -99
			resp := doJSON(t, http.MethodGet, ts.URL+"/list"+tc.query, "good-token", nil)
			resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
			}
			if tc.status == http.StatusOK && files.lastLimit != tc.wantLimit {
				t.Fatalf("limit passed = %d, want %d", files.lastLimit, tc.wantLimit)
			}
		})
	}
}
