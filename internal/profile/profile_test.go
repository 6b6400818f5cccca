package profile_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SeedLab/internal/auth"
	"SeedLab/internal/profile"
	"SeedLab/internal/repo"
)

type fakeUsers struct {
	users map[int]repo.User
}

func (f *fakeUsers) CreateUser(context.Context, string, string, string) (int, error) { return 0, nil }
func (f *fakeUsers) GetByEmail(context.Context, string) (int, string, error)         { return 0, "", nil }

func (f *fakeUsers) GetProfileByID(_ context.Context, id int) (repo.User, error) {
	u, ok := f.users[id]
	if !ok {
		return repo.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id int, name string) error {
	u, ok := f.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.DisplayName = name
	f.users[id] = u
	return nil
}

func router(h *profile.ProfileHandler, userID int) http.Handler {
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUser(req.Context(), userID, "ana@lab.example")))
		})
	})
	r.HandleFunc("/profile", h.GetProfile).Methods("GET")
	r.HandleFunc("/profile", h.UpdateProfile).Methods("PATCH")
	r.HandleFunc("/profile/{id:[0-9]+}", h.GetProfile).Methods("GET")
	return r
}

func TestProfile_GetAndUpdate(t *testing.T) {
	users := &fakeUsers{users: map[int]repo.User{
		1: {ID: 1, Email: "ana@lab.example", DisplayName: "Ana", Role: "scientist"},
		2: {ID: 2, Email: "ben@lab.example", DisplayName: "Ben", Role: "scientist"},
	}}
	r := router(&profile.ProfileHandler{Repo: users}, 1)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var u repo.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&u))
	assert.Equal(t, "Ana", u.DisplayName)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile/2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&u))
	assert.Equal(t, "Ben", u.DisplayName)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile/9", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/profile", strings.NewReader(`{"display_name": "Ana B."}`)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "Ana B.", users.users[1].DisplayName)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/profile", strings.NewReader(`{"display_name": "  "}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfile_Unauthorized(t *testing.T) {
	h := &profile.ProfileHandler{Repo: &fakeUsers{}}
	rec := httptest.NewRecorder()
	h.GetProfile(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
