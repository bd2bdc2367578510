package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masterboxer.com/social-posts/auth"
	"masterboxer.com/social-posts/models"
	"masterboxer.com/social-posts/services"
	"masterboxer.com/social-posts/store/memory"
)

type testServer struct {
	t      *testing.T
	router http.Handler
}

func newTestServer(t *testing.T, notifier services.Notifier) *testServer {
	tokens := auth.NewTokenIssuer("router-test-secret", time.Hour)
	return &testServer{t: t, router: NewRouter(memory.New(), tokens, notifier)}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signUp registers and logs in a user and returns the "Bearer ..." token.
func (s *testServer) signUp(name, email string) string {
	s.t.Helper()

	w := s.do(http.MethodPost, "/api/users/register", "", map[string]string{
		"name": name, "email": email, "password": "password1", "password2": "password1",
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/users/login", "", map[string]string{
		"email": email, "password": "password1",
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Token
}

func (s *testServer) userID(token string) string {
	s.t.Helper()
	w := s.do(http.MethodGet, "/api/users/current", token, nil)
	require.Equal(s.t, http.StatusOK, w.Code)
	var u map[string]string
	require.NoError(s.t, json.NewDecoder(w.Body).Decode(&u))
	return u["id"]
}

func decodePost(t *testing.T, w *httptest.ResponseRecorder) models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p), w.Body.String())
	return p
}

type countingNotifier struct {
	mu     sync.Mutex
	byUser map[string]int
}

func (n *countingNotifier) NotifyUser(ctx context.Context, userID, title, body string, data map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.byUser == nil {
		n.byUser = make(map[string]int)
	}
	n.byUser[userID]++
	return nil
}

func (n *countingNotifier) count(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.byUser[userID]
}

func TestHealthAndTestRoutes(t *testing.T) {
	s := newTestServer(t, services.LogNotifier{})

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = s.do(http.MethodGet, "/api/posts/test", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"msg":"Posts Works"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/users/test", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"msg":"Users Works"}`, w.Body.String())
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, services.LogNotifier{})

	cases := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/posts"},
		{http.MethodDelete, "/api/posts/abc"},
		{http.MethodPost, "/api/posts/like/abc"},
		{http.MethodPost, "/api/posts/unlike/abc"},
		{http.MethodPost, "/api/posts/comment/abc"},
		{http.MethodDelete, "/api/posts/comment/abc/def"},
		{http.MethodGet, "/api/users/current"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := s.do(tc.method, tc.path, "", map[string]string{"text": "x"})
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w = s.do(tc.method, tc.path, "Bearer not-a-token", map[string]string{"text": "x"})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestPublicReads(t *testing.T) {
	s := newTestServer(t, services.LogNotifier{})

	w := s.do(http.MethodGet, "/api/posts", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(http.MethodGet, "/api/posts/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/posts/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostLifecycle(t *testing.T) {
	n := &countingNotifier{}
	s := newTestServer(t, n)

	tokenA := s.signUp("Alice", "a@example.com")
	tokenB := s.signUp("Bob", "b@example.com")
	tokenC := s.signUp("Carol", "c@example.com")
	idA := s.userID(tokenA)
	idB := s.userID(tokenB)
	idC := s.userID(tokenC)

	// A creates P.
	w := s.do(http.MethodPost, "/api/posts", tokenA, map[string]string{"text": "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	p := decodePost(t, w)
	assert.Equal(t, idA, p.UserID)
	assert.Equal(t, "Alice", p.Name)
	assert.Empty(t, p.Likes)
	assert.Empty(t, p.Comments)

	// B likes P, twice.
	w = s.do(http.MethodPost, "/api/posts/like/"+p.ID, tokenB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.Like{{UserID: idB}}, decodePost(t, w).Likes)

	w = s.do(http.MethodPost, "/api/posts/like/"+p.ID, tokenB, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// C comments.
	w = s.do(http.MethodPost, "/api/posts/comment/"+p.ID, tokenC, map[string]string{"text": "hi"})
	require.Equal(t, http.StatusOK, w.Code)
	p = decodePost(t, w)
	require.Len(t, p.Comments, 1)
	assert.Equal(t, idC, p.Comments[0].UserID)
	assert.Equal(t, "Carol", p.Comments[0].Name)
	commentID := p.Comments[0].ID

	assert.Eventually(t, func() bool { return n.count(idA) == 2 }, time.Second, 10*time.Millisecond)

	// B cannot delete A's post.
	w = s.do(http.MethodDelete, "/api/posts/"+p.ID, tokenB, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// B unlikes; a second unlike fails.
	w = s.do(http.MethodPost, "/api/posts/unlike/"+p.ID, tokenB, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodePost(t, w).Likes)

	w = s.do(http.MethodPost, "/api/posts/unlike/"+p.ID, tokenB, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// C removes the comment.
	w = s.do(http.MethodDelete, "/api/posts/comment/"+p.ID+"/"+commentID, tokenC, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodePost(t, w).Comments)

	w = s.do(http.MethodDelete, "/api/posts/comment/"+p.ID+"/"+commentID, tokenC, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// A deletes P.
	w = s.do(http.MethodDelete, "/api/posts/"+p.ID, tokenA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/posts/"+p.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListIsNewestFirst(t *testing.T) {
	s := newTestServer(t, services.LogNotifier{})
	token := s.signUp("Alice", "a@example.com")

	var ids []string
	for _, text := range []string{"first", "second", "third"} {
		w := s.do(http.MethodPost, "/api/posts", token, map[string]string{"text": text})
		require.Equal(t, http.StatusOK, w.Code)
		ids = append(ids, decodePost(t, w).ID)
		time.Sleep(2 * time.Millisecond)
	}

	w := s.do(http.MethodGet, "/api/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var posts []models.Post
	require.NoError(t, json.NewDecoder(w.Body).Decode(&posts))
	require.Len(t, posts, 3)
	assert.Equal(t, ids[2], posts[0].ID)
	assert.Equal(t, ids[1], posts[1].ID)
	assert.Equal(t, ids[0], posts[2].ID)
}

func TestConcurrentLikesBySameUser(t *testing.T) {
	s := newTestServer(t, services.LogNotifier{})
	tokenA := s.signUp("Alice", "a@example.com")
	tokenB := s.signUp("Bob", "b@example.com")

	w := s.do(http.MethodPost, "/api/posts", tokenA, map[string]string{"text": "race"})
	require.Equal(t, http.StatusOK, w.Code)
	postID := decodePost(t, w).ID

	const n = 10
	codes := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/posts/like/"+postID, nil)
			req.Header.Set("Authorization", tokenB)
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	ok := 0
	for code := range codes {
		if code == http.StatusOK {
			ok++
		} else {
			assert.Equal(t, http.StatusBadRequest, code)
		}
	}
	assert.Equal(t, 1, ok)

	w = s.do(http.MethodGet, "/api/posts/"+postID, "", nil)
	assert.Len(t, decodePost(t, w).Likes, 1)
}
