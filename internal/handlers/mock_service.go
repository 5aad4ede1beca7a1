package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marketplace/internal/models"
	"marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	registerUser  *models.User
	registerErr   error
	authUser      *models.User
	authErr       error
	resetReqErr   error
	checkTokenErr error
	resetErr      error

	lastRegister   service.RegisterInput
	lastAuthUser   string
	lastAuthPass   string
	lastResetEmail string
	lastToken      string
	lastResetInput service.ResetPasswordInput
}

func (m *mockAuth) Register(ctx context.Context, in service.RegisterInput) (*models.User, error) {
	m.lastRegister = in
	return m.registerUser, m.registerErr
}
func (m *mockAuth) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	m.lastAuthUser = username
	m.lastAuthPass = password
	return m.authUser, m.authErr
}
func (m *mockAuth) RequestPasswordReset(ctx context.Context, email string) error {
	m.lastResetEmail = email
	return m.resetReqErr
}
func (m *mockAuth) CheckResetToken(ctx context.Context, token string) error {
	m.lastToken = token
	return m.checkTokenErr
}
func (m *mockAuth) ResetPassword(ctx context.Context, token string, in service.ResetPasswordInput) error {
	m.lastToken = token
	m.lastResetInput = in
	return m.resetErr
}

type mockProfile struct {
	user      *models.User
	getErr    error
	updateErr error

	lastUserID  int
	lastInput   service.ProfileInput
	lastPicture []byte
}

func (m *mockProfile) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	m.lastUserID = userID
	return m.user, m.getErr
}
func (m *mockProfile) UpdateProfile(ctx context.Context, userID int, in service.ProfileInput) (*models.User, error) {
	m.lastUserID = userID
	m.lastInput = in
	if in.Picture != nil {
		m.lastPicture, _ = io.ReadAll(in.Picture.Content)
	}
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	u := *m.user
	u.Username, u.Email = in.Username, in.Email
	return &u, nil
}

type mockListings struct {
	page       models.Page
	feedErr    error
	listing    *models.Listing
	listingErr error
	writeErr   error

	lastPage     int
	lastUsername string
	lastActor    int
	lastID       int
	lastInput    service.ListingInput
	lastPicture  []byte
	deleteCalls  int
	feedCalls    int
}

func (m *mockListings) Feed(ctx context.Context, page int) (models.Page, error) {
	m.lastPage = page
	m.feedCalls++
	return m.page, m.feedErr
}
func (m *mockListings) SellerFeed(ctx context.Context, username string, page int) (models.Page, error) {
	m.lastUsername = username
	m.lastPage = page
	return m.page, m.feedErr
}
func (m *mockListings) GetListing(ctx context.Context, id int) (*models.Listing, error) {
	m.lastID = id
	return m.listing, m.listingErr
}
func (m *mockListings) record(actor, id int, in service.ListingInput) {
	m.lastActor, m.lastID, m.lastInput = actor, id, in
	if in.Picture != nil {
		m.lastPicture, _ = io.ReadAll(in.Picture.Content)
	}
}
func (m *mockListings) CreateListing(ctx context.Context, sellerID int, in service.ListingInput) (*models.Listing, error) {
	m.record(sellerID, 0, in)
	return m.listing, m.writeErr
}
func (m *mockListings) UpdateListing(ctx context.Context, actorID, id int, in service.ListingInput) (*models.Listing, error) {
	m.record(actorID, id, in)
	return m.listing, m.writeErr
}
func (m *mockListings) DeleteListing(ctx context.Context, actorID, id int) error {
	m.lastActor, m.lastID = actorID, id
	m.deleteCalls++
	return m.writeErr
}

type mockLimiter struct {
	allow bool
	keys  []string
}

func (m *mockLimiter) Allow(key string) bool {
	m.keys = append(m.keys, key)
	return m.allow
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, Config{SessionSecret: "test-session-secret"})
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func doJSON(r http.Handler, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(w, req)
	return w
}

type formFile struct {
	field, filename string
	content         []byte
}

func doMultipart(t *testing.T, r http.Handler, method, path string, fields map[string]string, file *formFile, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile(file.field, file.filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write(file.content)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(w, req)
	return w
}

// loginAs logs in through the real session flow and returns the cookies.
func loginAs(t *testing.T, r http.Handler, auth *mockAuth, id int) []*http.Cookie {
	t.Helper()
	auth.authUser = &models.User{ID: id, Username: "u", Email: "u@x.io", ImageFile: "default1.jpg"}
	auth.authErr = nil
	w := doJSON(r, http.MethodPost, "/auth/login", `{"username":"u","password":"password1"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("login did not set a session cookie")
	}
	return cookies
}
