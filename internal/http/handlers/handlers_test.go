package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tactictoe/internal/domain"
	"tactictoe/internal/ephemeral"
	"tactictoe/internal/game"
	"tactictoe/internal/http/middleware"
	"tactictoe/internal/match"
	"tactictoe/internal/repository"
	"tactictoe/internal/service"
)

const botToken = "123:test"

type fakeInvites struct {
	tgID    int64
	inviter string
	err     error
}

func (f *fakeInvites) PrepareInvitation(tgUserID int64, inviter string, _ *domain.Session) (string, error) {
	f.tgID, f.inviter = tgUserID, inviter
	if f.err != nil {
		return "", f.err
	}
	return "prepared-1", nil
}

type env struct {
	r       *gin.Engine
	h       *Handler
	coord   *match.Coordinator
	users   *repository.MemoryUserRepository
	jwt     *service.JWTIssuer
	invites *fakeInvites
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := repository.NewMemorySessionRepository()
	users := repository.NewMemoryUserRepository(sessions)
	coord := match.New(sessions, ephemeral.NewMemoryStore(), match.BroadcasterFunc(func(match.Event) {}), match.Options{})
	issuer := service.NewJWTIssuer("secret")
	invites := &fakeInvites{}

	h := &Handler{Users: users, Games: coord, Tokens: issuer, Invites: invites, BotToken: botToken}
	r := gin.New()
	r.POST("/api/auth", h.Auth)
	r.GET("/api/me", middleware.JWT(issuer), h.Me)
	r.GET("/api/games/share-message", middleware.JWT(issuer), h.ShareMessage)
	r.GET("/api/games/:id", middleware.JWT(issuer), h.GetGame)

	return &env{r: r, h: h, coord: coord, users: users, jwt: issuer, invites: invites}
}

func (e *env) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *env) login(t *testing.T, tgID int64, username string) (int64, string) {
	t.Helper()
	u := &domain.User{TgID: tgID, Username: username}
	require.NoError(t, e.users.Create(context.Background(), u))
	token, err := e.jwt.Generate(u.ID, u.TgID)
	require.NoError(t, err)
	return u.ID, token
}

func signedInitData(tgID int64, authDate time.Time) string {
	v := url.Values{}
	v.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	v.Set("user", `{"id":`+strconv.FormatInt(tgID, 10)+`,"username":"neo","first_name":"Thomas"}`)
	v.Set("hash", service.SignInitData(v, botToken))
	return v.Encode()
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAuthIssuesToken(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/auth", "", AuthRequest{InitData: signedInitData(555, time.Now())})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	token := body["token"].(string)
	user := body["user"].(map[string]any)
	assert.EqualValues(t, 555, user["tg_id"])
	assert.EqualValues(t, repository.InitialGems, user["gems"])

	userID, tgID, err := e.jwt.Parse(token)
	require.NoError(t, err)
	assert.EqualValues(t, 555, tgID)

	w = e.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decodeBody(t, w)
	assert.EqualValues(t, userID, me["id"])
	assert.Equal(t, "neo", me["username"])
	assert.Nil(t, me["current_game"])
}

func TestAuthRejectsBadInitData(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/auth", "", AuthRequest{InitData: signedInitData(555, time.Now().Add(-2*time.Hour))})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/auth", "", AuthRequest{InitData: "555"})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "numeric ids only pass in dev mode")

	e.h.DevMode = true
	w = e.do(http.MethodPost, "/api/auth", "", AuthRequest{InitData: "555"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMeReportsCurrentGame(t *testing.T) {
	e := newEnv(t)
	uid, token := e.login(t, 1, "alice")

	s, err := e.coord.Create(context.Background(), uid, domain.GameTypeXO, game.Params{})
	require.NoError(t, err)

	me := decodeBody(t, e.do(http.MethodGet, "/api/me", token, nil))
	assert.Equal(t, s.ID, me["current_game"])

	w := e.do(http.MethodGet, "/api/games/"+s.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeBody(t, w)["session"].(map[string]any)
	assert.Equal(t, string(domain.StatusWaiting), got["status"])

	w = e.do(http.MethodGet, "/api/games/nope", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestShareMessage(t *testing.T) {
	e := newEnv(t)
	uid, token := e.login(t, 42, "alice")
	_, otherToken := e.login(t, 43, "bob")

	w := e.do(http.MethodGet, "/api/games/share-message", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	s, err := e.coord.Create(context.Background(), uid, domain.GameTypeXO, game.Params{})
	require.NoError(t, err)

	w = e.do(http.MethodGet, "/api/games/share-message", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "prepared-1", decodeBody(t, w)["messageId"])
	assert.EqualValues(t, 42, e.invites.tgID)
	assert.Equal(t, "@alice", e.invites.inviter)

	w = e.do(http.MethodGet, "/api/games/share-message?gameId="+s.ID, otherToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "only the creator invites")

	e.invites.err = errors.New("telegram down")
	w = e.do(http.MethodGet, "/api/games/share-message", token, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
