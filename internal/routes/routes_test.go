package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/servicedesk/servicedesk/internal/app"
	"github.com/servicedesk/servicedesk/internal/config"
	"github.com/servicedesk/servicedesk/internal/db"
	"github.com/servicedesk/servicedesk/internal/repository"
	"github.com/servicedesk/servicedesk/internal/service"
	"github.com/servicedesk/servicedesk/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-pw-123"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()

	database, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	t.Cleanup(func() {
		database.Close()
	})

	users := repository.NewUserRepository(database)
	softwareRepo := repository.NewSoftwareRepository(database)
	shareRepo := repository.NewShareLinkRepository(database)
	sessions := repository.NewSessionRepository(database)

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	authService := service.NewAuthService(users)
	require.NoError(t, authService.EnsureAdmin(adminEmail, adminPassword))

	return &app.App{
		Cfg:             &config.Config{},
		DB:              database,
		AuthService:     authService,
		SessionService:  service.NewSessionService(sessions, 7*24*time.Hour, false),
		ShareService:    service.NewShareService(shareRepo, softwareRepo),
		SoftwareService: service.NewSoftwareService(softwareRepo, store),
	}
}

// newTestServer starts the full route stack and a cookie-keeping client.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	srv := httptest.NewServer(SetupRoutes(newTestApp(t)))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return srv, client
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()

	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()

	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func registerAlice(t *testing.T, client *http.Client, baseURL string) {
	t.Helper()

	resp := postJSON(t, client, baseURL+"/api/register", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"username": "alice",
		"password": "pw123456",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func loginAdmin(t *testing.T, client *http.Client, baseURL string) {
	t.Helper()

	resp := postJSON(t, client, baseURL+"/api/login", map[string]string{
		"username": adminEmail,
		"password": adminPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func createSharedArtifact(t *testing.T, admin *http.Client, baseURL string, share map[string]any) string {
	t.Helper()

	loginAdmin(t, admin, baseURL)

	resp := postJSON(t, admin, baseURL+"/api/software", map[string]string{
		"name":    "Acme Agent",
		"version": "2.1.0",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var software struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, resp, &software)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "installer.msi")
	require.NoError(t, err)
	_, err = io.WriteString(fw, "artifact-bytes")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/software/"+strconv.FormatInt(software.ID, 10)+"/file", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err = admin.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	share["softwareId"] = software.ID
	resp = postJSON(t, admin, baseURL+"/api/share-links", share)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var link struct {
		SecretCode string `json:"secretCode"`
	}
	decodeBody(t, resp, &link)
	require.Len(t, link.SecretCode, 8)
	return link.SecretCode
}

func TestRegisterLoginCurrentUser(t *testing.T) {
	srv, client := newTestServer(t)

	resp := postJSON(t, client, srv.URL+"/api/register", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"username": "alice",
		"password": "pw123456",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, `"role":"client"`)
	assert.NotContains(t, strings.ToLower(body), "password")

	resp, err := client.Get(srv.URL + "/api/user")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = readBody(t, resp)
	assert.Contains(t, body, `"email":"alice@example.com"`)
	assert.NotContains(t, strings.ToLower(body), "password")
}

func TestLoginByEmailAndUsername(t *testing.T) {
	srv, client := newTestServer(t)
	registerAlice(t, client, srv.URL)

	for _, identifier := range []string{"alice@example.com", "alice"} {
		resp := postJSON(t, client, srv.URL+"/api/login", map[string]string{
			"username": identifier,
			"password": "pw123456",
		})
		body := readBody(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "login as %q: %s", identifier, body)
		assert.NotContains(t, strings.ToLower(body), "password")
	}
}

func TestLoginFailureIsUniform(t *testing.T) {
	srv, client := newTestServer(t)
	registerAlice(t, client, srv.URL)

	wrongPassword := postJSON(t, client, srv.URL+"/api/login", map[string]string{
		"username": "alice@example.com",
		"password": "not-her-password",
	})
	unknownUser := postJSON(t, client, srv.URL+"/api/login", map[string]string{
		"username": "nobody@example.com",
		"password": "not-her-password",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.StatusCode)

	// wrong password and unknown account must be indistinguishable
	assert.Equal(t, readBody(t, wrongPassword), readBody(t, unknownUser))
}

func TestRegisterValidationAndDuplicates(t *testing.T) {
	srv, client := newTestServer(t)
	registerAlice(t, client, srv.URL)

	resp := postJSON(t, client, srv.URL+"/api/register", map[string]string{
		"name":     "Other Alice",
		"email":    "alice@example.com",
		"username": "alice2",
		"password": "pw123456",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Email already exists")

	resp = postJSON(t, client, srv.URL+"/api/register", map[string]string{
		"name":     "Bob",
		"email":    "bob@example.com",
		"username": "bob",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestLogoutKillsSessionServerSide(t *testing.T) {
	srv, _ := newTestServer(t)

	// plain client, cookies handled by hand
	plain := &http.Client{}
	resp := postJSON(t, plain, srv.URL+"/api/register", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "pw123456",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == service.SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)

	withCookie := func(method, url string) *http.Response {
		req, err := http.NewRequest(method, url, nil)
		require.NoError(t, err)
		req.AddCookie(sessionCookie)
		resp, err := plain.Do(req)
		require.NoError(t, err)
		return resp
	}

	resp = withCookie(http.MethodGet, srv.URL+"/api/user")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = withCookie(http.MethodPost, srv.URL+"/api/logout")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, readBody(t, resp))

	// replaying the old cookie must fail: the session is gone, not
	// just the cookie
	resp = withCookie(http.MethodGet, srv.URL+"/api/user")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestRegisterIgnoresUnknownFields(t *testing.T) {
	srv, client := newTestServer(t)

	resp := postJSON(t, client, srv.URL+"/api/register", map[string]string{
		"name":          "Alice",
		"email":         "alice@example.com",
		"password":      "pw123456",
		"favoriteColor": "blue",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestCurrentUserUnauthenticated(t *testing.T) {
	srv, client := newTestServer(t)

	resp, err := client.Get(srv.URL + "/api/user")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestShareLinkRequiresAuth(t *testing.T) {
	srv, client := newTestServer(t)

	resp := postJSON(t, client, srv.URL+"/api/share-links", map[string]any{
		"softwareId": 1,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestSoftwareCreateIsAdminOnly(t *testing.T) {
	srv, client := newTestServer(t)
	registerAlice(t, client, srv.URL)

	resp := postJSON(t, client, srv.URL+"/api/software", map[string]string{
		"name": "Acme Agent",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func TestShareLinkRejectsFilelessSoftware(t *testing.T) {
	srv, admin := newTestServer(t)
	loginAdmin(t, admin, srv.URL)

	resp := postJSON(t, admin, srv.URL+"/api/software", map[string]string{
		"name": "URL-only Tool",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var software struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, resp, &software)

	resp = postJSON(t, admin, srv.URL+"/api/share-links", map[string]any{
		"softwareId": software.ID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestShareDownloadFlow(t *testing.T) {
	srv, admin := newTestServer(t)
	code := createSharedArtifact(t, admin, srv.URL, map[string]any{
		"note": "for the contractor",
	})

	anon := &http.Client{}

	// a permanent link resolves repeatedly
	for i := 0; i < 3; i++ {
		resp := postJSON(t, anon, srv.URL+"/api/share-download", map[string]string{
			"secretCode": code,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := readBody(t, resp)
		assert.Contains(t, body, `"filePath"`)
		assert.Contains(t, body, "for the contractor")
	}

	resp, err := anon.Get(srv.URL + "/api/share-download/" + code + "/file")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "installer.msi")
	assert.Equal(t, "artifact-bytes", readBody(t, resp))
}

func TestShareDownloadPasswordGate(t *testing.T) {
	srv, admin := newTestServer(t)
	code := createSharedArtifact(t, admin, srv.URL, map[string]any{
		"password": "s3cret-pw",
	})

	anon := &http.Client{}

	resp := postJSON(t, anon, srv.URL+"/api/share-download", map[string]string{
		"secretCode": code,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `"needsPassword":true`)

	resp = postJSON(t, anon, srv.URL+"/api/share-download", map[string]string{
		"secretCode": code,
		"password":   "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := readBody(t, resp)
	assert.NotContains(t, body, "needsPassword")
	assert.Contains(t, body, "Invalid password")

	resp = postJSON(t, anon, srv.URL+"/api/share-download", map[string]string{
		"secretCode": code,
		"password":   "s3cret-pw",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// the streaming endpoint honors the same gate via header
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/share-download/"+code+"/file", nil)
	require.NoError(t, err)
	req.Header.Set("X-Share-Password", "s3cret-pw")
	resp, err = anon.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestShareDownloadExpiredAndUnknownAreUniform(t *testing.T) {
	srv, admin := newTestServer(t)
	code := createSharedArtifact(t, admin, srv.URL, map[string]any{
		"expiresAt": time.Now().Add(-time.Hour).Format(time.RFC3339),
	})

	anon := &http.Client{}

	expired := postJSON(t, anon, srv.URL+"/api/share-download", map[string]string{
		"secretCode": code,
	})
	unknown := postJSON(t, anon, srv.URL+"/api/share-download", map[string]string{
		"secretCode": "NoSuchC0",
	})

	assert.Equal(t, http.StatusNotFound, expired.StatusCode)
	assert.Equal(t, http.StatusNotFound, unknown.StatusCode)

	// expired and never-existed must look the same from outside
	assert.Equal(t, readBody(t, expired), readBody(t, unknown))
}

func TestShareLinkListForSoftware(t *testing.T) {
	srv, admin := newTestServer(t)
	code := createSharedArtifact(t, admin, srv.URL, map[string]any{})

	resp, err := admin.Get(srv.URL + "/api/software/1/share-links")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var links []struct {
		SecretCode string `json:"secretCode"`
	}
	decodeBody(t, resp, &links)
	require.Len(t, links, 1)
	assert.Equal(t, code, links[0].SecretCode)
}
