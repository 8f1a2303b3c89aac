package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "openaudit_session", time.Hour, false), mr
}

func TestFlashSurvivesRedirect(t *testing.T) {
	sm, mr := newTestSessions(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodPost, "/analyses", nil))
	require.NoError(t, err)
	sess.AddFlash(FlashMessage{Kind: "success", Message: "Analysis queued"})

	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, sess))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, mr.Exists("openaudit:session:"+sess.ID))

	next := httptest.NewRequest(http.MethodGet, "/lgus/12", nil)
	next.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)

	msg := loaded.PopFlash()
	require.NotNil(t, msg)
	assert.Equal(t, "Analysis queued", msg.Message)
	assert.Nil(t, loaded.PopFlash())

	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), loaded))
	again, err := sm.Load(ctx, next)
	require.NoError(t, err)
	assert.Nil(t, again.PopFlash())
}

func TestLoadIgnoresForeignCookie(t *testing.T) {
	sm, _ := newTestSessions(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "openaudit_session", Value: "not-a-uuid"})

	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", sess.ID)
}

func TestLoadFailsWhenStoreIsDown(t *testing.T) {
	sm, mr := newTestSessions(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rr, sess))

	mr.Close()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rr.Result().Cookies()[0])
	_, err = sm.Load(context.Background(), req)
	assert.Error(t, err)
}

func TestDestroyClearsCookie(t *testing.T) {
	sm, mr := newTestSessions(t)
	ctx := context.Background()
	sess, _ := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), sess))

	sm.Destroy(sess)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rr, sess))
	assert.False(t, mr.Exists("openaudit:session:"+sess.ID))
	assert.Equal(t, -1, rr.Result().Cookies()[0].MaxAge)
}

func TestCSRFTokenRoundTrip(t *testing.T) {
	csrf := NewCSRFManager("secret")
	ctx := context.Background()
	sess := NewSession()

	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	again, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, csrf.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, "forged"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, nil, token), ErrSessionMissing)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, NewSession(), token), ErrCSRFTokenMissing)
}
