package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/example/room-booking/internal/application"
)

var (
	adminPrincipal  = application.Principal{UserID: 1, Login: "admin", Name: "Administrator", Role: application.RoleAdmin}
	memberPrincipal = application.Principal{UserID: 2, Login: "user1", Name: "Regular User", Role: application.RoleUser}
)

type authServiceStub struct {
	result    application.LoginResult
	err       error
	params    application.LoginParams
	loggedOut []string
}

func (s *authServiceStub) Login(_ context.Context, params application.LoginParams) (application.LoginResult, error) {
	s.params = params
	return s.result, s.err
}

func (s *authServiceStub) Logout(_ context.Context, token string) error {
	s.loggedOut = append(s.loggedOut, token)
	return nil
}

type userRegistryStub struct {
	users       map[int64]application.User
	registerErr error
	registered  application.RegisterUserParams
}

func (s *userRegistryStub) Register(_ context.Context, params application.RegisterUserParams) (application.User, error) {
	s.registered = params
	if s.registerErr != nil {
		return application.User{}, s.registerErr
	}
	return application.User{ID: 3, Login: params.Login, Name: params.Name, Role: application.RoleUser}, nil
}

func (s *userRegistryStub) Get(_ context.Context, id int64) (application.User, error) {
	user, ok := s.users[id]
	if !ok {
		return application.User{}, &application.NotFoundError{Resource: "User", ID: id}
	}
	return user, nil
}

type roomServiceStub struct {
	rooms     map[int64]application.Room
	created   application.CreateRoomParams
	available struct{ start, end time.Time }
}

func (s *roomServiceStub) CreateRoom(_ context.Context, params application.CreateRoomParams) (application.Room, error) {
	s.created = params
	if err := application.RequireRole(params.Principal, application.RoleAdmin); err != nil {
		return application.Room{}, err
	}
	return application.Room{ID: 5, Name: params.Input.Name, Location: params.Input.Location, Capacity: params.Input.Capacity, IsAvailable: true}, nil
}

func (s *roomServiceStub) UpdateRoom(_ context.Context, params application.UpdateRoomParams) (application.Room, error) {
	if err := application.RequireRole(params.Principal, application.RoleAdmin); err != nil {
		return application.Room{}, err
	}
	if _, ok := s.rooms[params.RoomID]; !ok {
		return application.Room{}, &application.NotFoundError{Resource: "Room", ID: params.RoomID}
	}
	return application.Room{ID: params.RoomID, Name: params.Input.Name}, nil
}

func (s *roomServiceStub) DeleteRoom(_ context.Context, principal application.Principal, roomID int64) error {
	if err := application.RequireRole(principal, application.RoleAdmin); err != nil {
		return err
	}
	if _, ok := s.rooms[roomID]; !ok {
		return &application.NotFoundError{Resource: "Room", ID: roomID}
	}
	delete(s.rooms, roomID)
	return nil
}

func (s *roomServiceStub) GetRoom(_ context.Context, roomID int64) (application.Room, error) {
	room, ok := s.rooms[roomID]
	if !ok {
		return application.Room{}, &application.NotFoundError{Resource: "Room", ID: roomID}
	}
	return room, nil
}

func (s *roomServiceStub) ListRooms(context.Context) ([]application.Room, error) {
	out := make([]application.Room, 0, len(s.rooms))
	for id := int64(1); id <= int64(len(s.rooms)); id++ {
		if room, ok := s.rooms[id]; ok {
			out = append(out, room)
		}
	}
	return out, nil
}

func (s *roomServiceStub) ListAvailable(_ context.Context, start, end time.Time) ([]application.Room, error) {
	s.available.start, s.available.end = start, end
	return []application.Room{s.rooms[1]}, nil
}

type bookingServiceStub struct {
	bookings  map[int64]application.Booking
	createErr error
	created   application.CreateBookingParams
	listed    application.ListBookingsParams
}

func (s *bookingServiceStub) ListAll(_ context.Context, params application.ListBookingsParams) ([]application.Booking, error) {
	s.listed = params
	if err := application.RequireRole(params.Principal, application.RoleAdmin); err != nil {
		return nil, err
	}
	return []application.Booking{s.bookings[1]}, nil
}

func (s *bookingServiceStub) ListForUser(_ context.Context, principal application.Principal, userID int64) ([]application.Booking, error) {
	if err := application.RequireOwnerOrAdmin(principal, userID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *bookingServiceStub) ListForRoom(context.Context, application.Principal, int64) ([]application.Booking, error) {
	return []application.Booking{s.bookings[1]}, nil
}

func (s *bookingServiceStub) Get(_ context.Context, _ application.Principal, id int64) (application.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok || !booking.IsActive() {
		return application.Booking{}, &application.NotFoundError{Resource: "Booking", ID: id}
	}
	return booking, nil
}

func (s *bookingServiceStub) Create(_ context.Context, params application.CreateBookingParams) (application.Booking, error) {
	s.created = params
	if s.createErr != nil {
		return application.Booking{}, s.createErr
	}
	return application.Booking{
		ID:        7,
		RoomID:    params.Input.RoomID,
		UserID:    params.Principal.UserID,
		Start:     params.Input.Start,
		End:       params.Input.End,
		Title:     params.Input.Title,
		Status:    application.BookingStatusActive,
		CreatedAt: params.Input.Start,
	}, nil
}

func (s *bookingServiceStub) Update(_ context.Context, params application.UpdateBookingParams) (application.Booking, error) {
	booking, ok := s.bookings[params.BookingID]
	if !ok {
		return application.Booking{}, &application.NotFoundError{Resource: "Booking", ID: params.BookingID}
	}
	if err := application.RequireOwnerOrAdmin(params.Principal, booking.UserID); err != nil {
		return application.Booking{}, err
	}
	booking.Title = params.Input.Title
	return booking, nil
}

func (s *bookingServiceStub) Cancel(_ context.Context, principal application.Principal, id int64) error {
	booking, ok := s.bookings[id]
	if !ok || !booking.IsActive() {
		return &application.NotFoundError{Resource: "Booking", ID: id}
	}
	if err := application.RequireOwnerOrAdmin(principal, booking.UserID); err != nil {
		return err
	}
	booking.Status = application.BookingStatusCancelled
	s.bookings[id] = booking
	return nil
}

type pingerStub struct{ err error }

func (p pingerStub) Ping(context.Context) error { return p.err }

type mockPinger struct{ mock.Mock }

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type testRouter struct {
	handler  http.Handler
	auth     *authServiceStub
	users    *userRegistryStub
	rooms    *roomServiceStub
	bookings *bookingServiceStub
}

func newTestRouter(t *testing.T) testRouter {
	t.Helper()

	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	tr := testRouter{
		auth: &authServiceStub{},
		users: &userRegistryStub{users: map[int64]application.User{
			1: {ID: 1, Login: "admin", Name: "Administrator", Role: application.RoleAdmin},
			2: {ID: 2, Login: "user1", Name: "Regular User", Role: application.RoleUser},
		}},
		rooms: &roomServiceStub{rooms: map[int64]application.Room{
			1: {ID: 1, Name: "Conference Room A", Location: "Floor 1", Capacity: 10, IsAvailable: true, Amenities: []string{"Projector"}},
			2: {ID: 2, Name: "Meeting Room B", Location: "Floor 2", Capacity: 6, IsAvailable: true},
		}},
		bookings: &bookingServiceStub{bookings: map[int64]application.Booking{
			1: {ID: 1, RoomID: 1, UserID: 2, Start: start, End: start.Add(2 * time.Hour), Title: "Team Meeting", Status: application.BookingStatusActive, CreatedAt: start},
		}},
	}

	sessions := &fakeSessionValidator{sessions: map[string]application.ValidatedSession{
		"admin-token":  validSession("admin-token", adminPrincipal),
		"member-token": validSession("member-token", memberPrincipal),
	}}

	tr.handler = NewRouter(RouterConfig{
		Auth:     NewAuthHandler(tr.auth, tr.users, SessionCookies{}, nil),
		Rooms:    NewRoomHandler(tr.rooms, time.UTC, nil),
		Bookings: NewBookingHandler(tr.bookings, time.UTC, nil),
		Health:   NewHealthHandler(nil, pingerStub{}),
		Sessions: sessions,
	})
	return tr
}

func (tr testRouter) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	}
	recorder := httptest.NewRecorder()
	tr.handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &out), recorder.Body.String())
	return out
}

func TestAuthRoutes(t *testing.T) {
	t.Parallel()

	t.Run("login sets the session cookie", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)
		tr.auth.result = application.LoginResult{
			User:    application.User{ID: 1, Login: "admin", Name: "Administrator", Role: application.RoleAdmin},
			Session: application.Session{Token: "fresh-token", ExpiresAt: time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)},
		}

		rec := tr.do(t, http.MethodPost, "/api/auth/login", "", `{"login":"admin","password":"admin123"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userDTO{ID: 1, Login: "admin", Name: "Administrator", Role: "Admin"}, decodeBody[userDTO](t, rec))
		assert.Equal(t, application.LoginParams{Login: "admin", Password: "admin123"}, tr.auth.params)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "fresh-token", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("login rejects bad credentials", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)
		tr.auth.err = application.ErrInvalidCredentials

		rec := tr.do(t, http.MethodPost, "/api/auth/login", "", `{"login":"admin","password":"nope"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, messageInvalidCredentials, decodeBody[errorResponse](t, rec).Message)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("login requires POST", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodGet, "/api/auth/login", "", "")

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
	})

	t.Run("register forces the user role", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodPost, "/api/auth/register", "", `{"login":"carol","password":"secret","name":"Carol"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "User", decodeBody[userDTO](t, rec).Role)
		assert.Equal(t, "carol", tr.users.registered.Login)
	})

	t.Run("register reports a taken login", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)
		tr.users.registerErr = application.ErrAlreadyExists

		rec := tr.do(t, http.MethodPost, "/api/auth/register", "", `{"login":"admin","password":"x","name":"X"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, messageLoginTaken, decodeBody[errorResponse](t, rec).Message)
	})

	t.Run("logout revokes the session and clears the cookie", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodPost, "/api/auth/logout", "member-token", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, messageLoggedOut, decodeBody[messageResponse](t, rec).Message)
		assert.Equal(t, []string{"member-token"}, tr.auth.loggedOut)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.Negative(t, cookies[0].MaxAge)
	})

	t.Run("logout without a session still succeeds", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodPost, "/api/auth/logout", "", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, tr.auth.loggedOut)
	})

	t.Run("me returns the current user", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodGet, "/api/auth/me", "member-token", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user1", decodeBody[userDTO](t, rec).Login)
	})

	t.Run("me reports a deleted user", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)
		delete(tr.users.users, 2)

		rec := tr.do(t, http.MethodGet, "/api/auth/me", "member-token", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, messageUserNotFound, decodeBody[errorResponse](t, rec).Message)
	})

	t.Run("me requires a session", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodGet, "/api/auth/me", "", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRoomRoutes(t *testing.T) {
	t.Parallel()

	t.Run("catalog is public and amenities are never null", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodGet, "/api/rooms", "", "")

		require.Equal(t, http.StatusOK, rec.Code)
		rooms := decodeBody[[]map[string]any](t, rec)
		require.Len(t, rooms, 2)
		assert.Equal(t, []any{"Projector"}, rooms[0]["amenities"])
		assert.Equal(t, []any{}, rooms[1]["amenities"])
		assert.Equal(t, true, rooms[1]["isAvailable"])
	})

	t.Run("get reports missing rooms", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodGet, "/api/rooms/99", "", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Room not found", decodeBody[errorResponse](t, rec).Message)
	})

	t.Run("get rejects a malformed id", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodGet, "/api/rooms/abc", "", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("available requires both dates", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodGet, "/api/rooms/available?startDate=2025-03-10T10:00", "", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, messageDatesRequired, decodeBody[errorResponse](t, rec).Message)
	})

	t.Run("available parses zone-less dates", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodGet, "/api/rooms/available?startDate=2025-03-10T10:00&endDate=2025-03-10T11:00", "", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), tr.rooms.available.start)
		assert.Equal(t, time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC), tr.rooms.available.end)
	})

	t.Run("create requires a session", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodPost, "/api/rooms", "", `{"name":"X","location":"Y","capacity":2}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("create is admin only", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodPost, "/api/rooms", "member-token", `{"name":"X","location":"Y","capacity":2}`)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, messageForbidden, decodeBody[errorResponse](t, rec).Message)
	})

	t.Run("create returns the stored room", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodPost, "/api/rooms", "admin-token", `{"name":"Huddle","location":"Floor 4","capacity":3,"isAvailable":false}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 5, decodeBody[roomDTO](t, rec).ID)
		require.NotNil(t, tr.rooms.created.Input.IsAvailable)
		assert.False(t, *tr.rooms.created.Input.IsAvailable)
	})

	t.Run("delete confirms removal", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodDelete, "/api/rooms/2", "admin-token", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, messageRoomDeleted, decodeBody[messageResponse](t, rec).Message)
		assert.NotContains(t, tr.rooms.rooms, int64(2))
	})

	t.Run("update reports missing rooms", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodPut, "/api/rooms/42", "admin-token", `{"name":"X","location":"Y","capacity":2}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestBookingRoutes(t *testing.T) {
	t.Parallel()

	t.Run("every route requires a session", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		for _, path := range []string{"/api/bookings", "/api/bookings/1", "/api/bookings/user/2", "/api/bookings/room/1"} {
			rec := tr.do(t, http.MethodGet, path, "", "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		}
	})

	t.Run("listing all bookings is admin only", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodGet, "/api/bookings", "member-token", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = tr.do(t, http.MethodGet, "/api/bookings?status=cancelled", "admin-token", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, application.BookingFilterCancelled, tr.bookings.listed.Status)
	})

	t.Run("user listing is owner or admin", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		assert.Equal(t, http.StatusOK, tr.do(t, http.MethodGet, "/api/bookings/user/2", "member-token", "").Code)
		assert.Equal(t, http.StatusForbidden, tr.do(t, http.MethodGet, "/api/bookings/user/1", "member-token", "").Code)
		assert.Equal(t, http.StatusOK, tr.do(t, http.MethodGet, "/api/bookings/user/2", "admin-token", "").Code)
	})

	t.Run("user listing encodes an empty array", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodGet, "/api/bookings/user/2", "member-token", "")

		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("get renders the legacy active flag", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodGet, "/api/bookings/1", "member-token", "")

		require.Equal(t, http.StatusOK, rec.Code)
		dto := decodeBody[bookingDTO](t, rec)
		assert.True(t, dto.IsActive)
		assert.Equal(t, "active", dto.Status)
		assert.Equal(t, "2025-03-10T10:00:00Z", dto.StartDate)
		assert.Equal(t, "2025-03-10T12:00:00Z", dto.EndDate)
		assert.Nil(t, dto.CancelledAt)
	})

	t.Run("create returns 201", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodPost, "/api/bookings", "member-token",
			`{"roomId":1,"startDate":"2025-03-10T13:00","endDate":"2025-03-10T14:00:00Z","title":"Sync"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.EqualValues(t, 7, decodeBody[bookingDTO](t, rec).ID)
		assert.Equal(t, memberPrincipal, tr.bookings.created.Principal)
		assert.Equal(t, time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC), tr.bookings.created.Input.Start)
	})

	t.Run("create reports unavailable rooms", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)
		tr.bookings.createErr = &application.ConflictError{RoomID: 1, ConflictingIDs: []int64{1}}

		rec := tr.do(t, http.MethodPost, "/api/bookings", "member-token",
			`{"roomId":1,"startDate":"2025-03-10T11:00","endDate":"2025-03-10T12:30"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, application.MessageRoomUnavailable, decodeBody[errorResponse](t, rec).Message)
	})

	t.Run("create reports validation failures with field errors", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)
		tr.bookings.createErr = &application.ValidationError{
			Message:     application.MessageRoomNotFound,
			FieldErrors: map[string]string{"roomId": "room does not exist"},
		}

		rec := tr.do(t, http.MethodPost, "/api/bookings", "member-token",
			`{"roomId":99,"startDate":"2025-03-10T11:00","endDate":"2025-03-10T12:00"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeBody[errorResponse](t, rec)
		assert.Equal(t, application.MessageRoomNotFound, body.Message)
		assert.Contains(t, body.Errors, "roomId")
	})

	t.Run("create rejects unparseable dates", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodPost, "/api/bookings", "member-token",
			`{"roomId":1,"startDate":"tomorrow","endDate":"2025-03-10T12:00"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody[errorResponse](t, rec).Errors, "startDate")
	})

	t.Run("update by another user is forbidden", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)
		booking := tr.bookings.bookings[1]
		booking.UserID = 1
		tr.bookings.bookings[1] = booking

		rec := tr.do(t, http.MethodPut, "/api/bookings/1", "member-token",
			`{"roomId":1,"startDate":"2025-03-10T10:00","endDate":"2025-03-10T12:00","title":"Mine now"}`)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("delete cancels and later reads report not found", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodDelete, "/api/bookings/1", "member-token", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, messageBookingDeleted, decodeBody[messageResponse](t, rec).Message)

		rec = tr.do(t, http.MethodGet, "/api/bookings/1", "member-token", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Booking not found", decodeBody[errorResponse](t, rec).Message)
	})
}

func TestHealthRoute(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		tr := newTestRouter(t)

		rec := tr.do(t, http.MethodGet, "/healthz", "", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("unavailable when a ping fails", func(t *testing.T) {
		t.Parallel()
		hasDeadline := mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		})
		database := &mockPinger{}
		database.On("Ping", hasDeadline).Return(nil).Once()
		cache := &mockPinger{}
		cache.On("Ping", hasDeadline).Return(errors.New("connection refused")).Once()
		handler := NewRouter(RouterConfig{Health: NewHealthHandler(nil, database, cache)})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
		database.AssertExpectations(t)
		cache.AssertExpectations(t)
	})
}
