package handlers

import (
	"bytes"
	"encoding/json"
	"huddle-backend/config"
	"huddle-backend/internal/auth"
	"huddle-backend/internal/media"
	"huddle-backend/internal/meeting"
	"huddle-backend/internal/models"
	"huddle-backend/internal/repository"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app   *fiber.App
	store *repository.MemoryStore
	cfg   *config.Config
}

func newTestServer(t *testing.T, livekit bool) *testServer {
	t.Helper()

	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	cfg.Auth.JWTSecret = "handler-secret"
	if livekit {
		cfg.LiveKit.URL = "wss://media.example.com"
		cfg.LiveKit.APIKey = "devkey"
		cfg.LiveKit.APISecret = "devsecret-devsecret-devsecret-00"
	}

	store := repository.NewMemoryStore()
	app := NewApp(Deps{
		Config:   cfg,
		Meetings: meeting.NewService(store),
		Auth:     auth.NewAuthService(store, &cfg.Auth),
		Media:    media.NewBroker(cfg.LiveKit),
		DB:       store,
	})

	return &testServer{app: app, store: store, cfg: cfg}
}

// token registers a user directly in the store and returns an access token for it
func (s *testServer) token(t *testing.T, id, name string, accesses ...string) string {
	t.Helper()
	if len(accesses) == 0 {
		accesses = []string{string(models.AccessUser)}
	}
	s.store.AddUser(models.User{ID: id, Email: id + "@example.com", Name: name, Accesses: accesses, IsActive: true})

	token, err := auth.GenerateToken(id, id+"@example.com", auth.ProviderLocal, accesses, &s.cfg.Auth)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestMeetingLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, false)
	hostToken := s.token(t, "host-1", "Hannah")

	status, body := s.do(t, http.MethodPost, "/api/meetings", hostToken, fiber.Map{"title": "Standup"})
	require.Equal(t, http.StatusOK, status, string(body))
	created := decode[models.Meeting](t, body)
	assert.Equal(t, models.MeetingScheduled, created.Status)
	assert.True(t, meeting.ValidRoomCode(created.RoomCode))

	status, body = s.do(t, http.MethodGet, "/api/meetings/by-room/"+created.RoomCode, "", nil)
	require.Equal(t, http.StatusOK, status)
	resolved := decode[map[string]interface{}](t, body)
	assert.Equal(t, created.ID, resolved["id"])
	assert.Equal(t, "Hannah", resolved["hostName"])
	assert.NotContains(t, resolved, "host")

	status, body = s.do(t, http.MethodPost, "/api/meetings/"+created.ID+"/participants", "", fiber.Map{"displayName": "Alice"})
	require.Equal(t, http.StatusOK, status, string(body))
	alice := decode[models.Participant](t, body)
	assert.Equal(t, models.RoleGuest, alice.Role)
	assert.Nil(t, alice.UserID)

	status, body = s.do(t, http.MethodPost, "/api/meetings/"+created.ID+"/participants", hostToken, fiber.Map{"displayName": "Hannah"})
	require.Equal(t, http.StatusOK, status, string(body))
	hostP := decode[models.Participant](t, body)
	assert.Equal(t, models.RoleHost, hostP.Role)

	status, body = s.do(t, http.MethodGet, "/api/meetings/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	active := decode[meeting.MeetingDetails](t, body)
	assert.Equal(t, models.MeetingActive, active.Status)
	assert.Equal(t, int64(2), active.ParticipantCount)

	status, _ = s.do(t, http.MethodPost, "/api/meetings/leave", "", fiber.Map{"roomCode": created.RoomCode, "participantId": hostP.ID})
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodGet, "/api/meetings/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	ended := decode[meeting.MeetingDetails](t, body)
	assert.Equal(t, models.MeetingEnded, ended.Status)
	require.NotNil(t, ended.Duration)

	status, body = s.do(t, http.MethodPost, "/api/meetings/leave", "", fiber.Map{"roomCode": created.RoomCode, "participantId": hostP.ID})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Participant already left", decode[ErrorResponse](t, body).Error)

	status, body = s.do(t, http.MethodGet, "/api/meetings/"+created.ID+"/participants", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Participant](t, body), 2)
}

func TestMeetingAuthorizationOverHTTP(t *testing.T) {
	s := newTestServer(t, false)
	hostToken := s.token(t, "host-1", "Hannah")
	otherToken := s.token(t, "user-2", "Oscar")
	noAccessToken := s.token(t, "user-3", "Nobody", "none")

	status, body := s.do(t, http.MethodPost, "/api/meetings", hostToken, fiber.Map{"title": "Standup"})
	require.Equal(t, http.StatusOK, status)
	created := decode[models.Meeting](t, body)

	tcases := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
	}{
		{name: "create as guest", method: http.MethodPost, path: "/api/meetings", body: fiber.Map{"title": "x"}, status: http.StatusUnauthorized},
		{name: "create without access", method: http.MethodPost, path: "/api/meetings", token: noAccessToken, body: fiber.Map{"title": "x"}, status: http.StatusForbidden},
		{name: "create empty title", method: http.MethodPost, path: "/api/meetings", token: hostToken, body: fiber.Map{"title": ""}, status: http.StatusBadRequest},
		{name: "list as guest", method: http.MethodGet, path: "/api/meetings", status: http.StatusUnauthorized},
		{name: "update as other user", method: http.MethodPatch, path: "/api/meetings/" + created.ID, token: otherToken, body: fiber.Map{"title": "Hijack"}, status: http.StatusForbidden},
		{name: "update as guest", method: http.MethodPatch, path: "/api/meetings/" + created.ID, body: fiber.Map{"title": "Hijack"}, status: http.StatusUnauthorized},
		{name: "update missing meeting", method: http.MethodPatch, path: "/api/meetings/missing", token: otherToken, body: fiber.Map{"title": "x"}, status: http.StatusNotFound},
		{name: "delete as other user", method: http.MethodDelete, path: "/api/meetings/" + created.ID, token: otherToken, status: http.StatusForbidden},
		{name: "join as HOST when not host", method: http.MethodPost, path: "/api/meetings/" + created.ID + "/participants", token: otherToken, body: fiber.Map{"displayName": "Oscar", "role": "HOST"}, status: http.StatusForbidden},
		{name: "join unknown role", method: http.MethodPost, path: "/api/meetings/" + created.ID + "/participants", body: fiber.Map{"displayName": "Eve", "role": "ADMIN"}, status: http.StatusBadRequest},
		{name: "join missing meeting", method: http.MethodPost, path: "/api/meetings/missing/participants", body: fiber.Map{"displayName": "Eve"}, status: http.StatusNotFound},
		{name: "leave missing fields", method: http.MethodPost, path: "/api/meetings/leave", body: fiber.Map{}, status: http.StatusBadRequest},
		{name: "unknown room code", method: http.MethodGet, path: "/api/meetings/by-room/zzz-zzz-zzz", status: http.StatusNotFound},
		{name: "update as host", method: http.MethodPatch, path: "/api/meetings/" + created.ID, token: hostToken, body: fiber.Map{"isRecorded": true}, status: http.StatusOK},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := s.do(t, tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, status, string(body))
			if status >= http.StatusBadRequest {
				assert.NotEmpty(t, decode[ErrorResponse](t, body).Error)
			}
		})
	}

	status, body = s.do(t, http.MethodGet, "/api/meetings/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	after := decode[meeting.MeetingDetails](t, body)
	assert.Equal(t, "Standup", after.Title)
	assert.True(t, after.IsRecorded)

	status, _ = s.do(t, http.MethodDelete, "/api/meetings/"+created.ID, hostToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodGet, "/api/meetings/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListMeetingsOverHTTP(t *testing.T) {
	s := newTestServer(t, false)
	hostToken := s.token(t, "host-1", "Hannah")

	for _, title := range []string{"One", "Two"} {
		status, _ := s.do(t, http.MethodPost, "/api/meetings", hostToken, fiber.Map{"title": title})
		require.Equal(t, http.StatusOK, status)
	}

	status, body := s.do(t, http.MethodGet, "/api/meetings", hostToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]meeting.MeetingDetails](t, body), 2)
}

func TestChatOverHTTP(t *testing.T) {
	s := newTestServer(t, false)
	hostToken := s.token(t, "host-1", "Hannah")

	status, body := s.do(t, http.MethodPost, "/api/meetings", hostToken, fiber.Map{"title": "Standup"})
	require.Equal(t, http.StatusOK, status)
	created := decode[models.Meeting](t, body)

	status, body = s.do(t, http.MethodPost, "/api/meetings/"+created.ID+"/chat", hostToken, fiber.Map{"message": "hello", "senderName": "Hannah"})
	require.Equal(t, http.StatusOK, status, string(body))
	msg := decode[models.ChatMessage](t, body)
	require.NotNil(t, msg.SenderID)
	assert.Equal(t, "host-1", *msg.SenderID)

	status, _ = s.do(t, http.MethodPost, "/api/meetings/"+created.ID+"/chat", "", fiber.Map{"message": "", "senderName": "Alice"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, http.MethodGet, "/api/meetings/"+created.ID+"/chat", "", nil)
	require.Equal(t, http.StatusOK, status)
	messages := decode[[]models.ChatMessage](t, body)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Message)
}

func TestLiveKitTokenOverHTTP(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		s := newTestServer(t, true)

		status, body := s.do(t, http.MethodPost, "/api/livekit/token", "", fiber.Map{"room_name": "abc-def-ghi", "participant_name": "Alice"})
		require.Equal(t, http.StatusOK, status, string(body))
		creds := decode[media.Credentials](t, body)
		assert.Equal(t, "wss://media.example.com", creds.ServerURL)
		assert.NotEmpty(t, creds.ParticipantToken)
	})

	t.Run("empty body uses defaults", func(t *testing.T) {
		s := newTestServer(t, true)

		status, body := s.do(t, http.MethodPost, "/api/livekit/token", "", nil)
		require.Equal(t, http.StatusOK, status, string(body))
	})

	t.Run("not configured", func(t *testing.T) {
		s := newTestServer(t, false)

		status, body := s.do(t, http.MethodPost, "/api/livekit/token", "", fiber.Map{})
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "LiveKit is not configured", decode[ErrorResponse](t, body).Error)
	})
}

func TestAuthOverHTTP(t *testing.T) {
	s := newTestServer(t, false)

	status, body := s.do(t, http.MethodPost, "/auth/register", "", fiber.Map{"email": "a@example.com", "password": "secret1", "name": "Alice"})
	require.Equal(t, http.StatusOK, status, string(body))
	registered := decode[auth.LoginResponse](t, body)

	status, _ = s.do(t, http.MethodPost, "/auth/register", "", fiber.Map{"email": "a@example.com", "password": "secret1", "name": "Alice"})
	assert.Equal(t, http.StatusConflict, status)

	status, body = s.do(t, http.MethodPost, "/auth/login", "", fiber.Map{"email": "a@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", decode[ErrorResponse](t, body).Error)

	status, body = s.do(t, http.MethodGet, "/auth/me", registered.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[map[string]interface{}](t, body)
	assert.Equal(t, "a@example.com", me["email"])
	assert.NotContains(t, me, "password")

	status, body = s.do(t, http.MethodPost, "/auth/refresh", "", fiber.Map{"refresh_token": registered.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, status, string(body))
	pair := decode[auth.TokenPair](t, body)

	status, _ = s.do(t, http.MethodPost, "/auth/logout", pair.AccessToken, fiber.Map{"refresh_token": pair.RefreshToken})
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodPost, "/auth/refresh", "", fiber.Map{"refresh_token": pair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(t, http.MethodGet, "/auth/providers", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, ProvidersResponse{}, decode[ProvidersResponse](t, body))
}

func TestHealthOverHTTP(t *testing.T) {
	s := newTestServer(t, false)

	status, _ := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body := s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", decode[map[string]interface{}](t, body)["status"])
}
