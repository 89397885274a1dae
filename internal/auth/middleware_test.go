package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/infonest-auth/internal/domain"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []GateOutcome
}

func (r *recordingObserver) ObserveGate(o GateOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingObserver) last() GateOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[len(r.outcomes)-1]
}

func newGateApp(t *testing.T, tm *TokenManager, obs *recordingObserver) *fiber.App {
	t.Helper()
	gate := NewGate(tm, NewExemptMatcher("/auth"), nil,
		WithOutcomeObserver(obs),
		WithClock(func() time.Time { return issueTime.Add(time.Minute) }),
	)

	app := fiber.New()
	app.Use(gate.Handle)
	whoami := func(c *fiber.Ctx) error {
		id, ok := CurrentIdentity(c)
		if !ok {
			return c.SendString("anonymous")
		}
		return c.SendString(id.Subject + "/" + string(id.Role))
	}
	app.Get("/api/v1/whoami", whoami)
	app.Get("/auth/login", whoami)
	app.Get("/api/v1/protected", RequireAuthenticated(), whoami)
	return app
}

func doGet(t *testing.T, app *fiber.App, path, authorization string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req, -1)
	if !assert.NoError(t, err) {
		return 0, ""
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestGate_AttachesIdentityForValidToken(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour, 0)
	tok, err := tm.Issue("a@x.com", domain.RoleStudent, issueTime)
	require.NoError(t, err)
	obs := &recordingObserver{}
	app := newGateApp(t, tm, obs)

	status, body := doGet(t, app, "/api/v1/whoami", "Bearer "+tok.Value)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a@x.com/STUDENT", body)
	assert.Equal(t, GateOutcomeAuthenticated, obs.last())
}

func TestGate_InvalidTokenContinuesAnonymously(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour, 0)
	tok, err := tm.Issue("a@x.com", domain.RoleStudent, issueTime)
	require.NoError(t, err)
	obs := &recordingObserver{}
	app := newGateApp(t, tm, obs)

	last := tok.Value[len(tok.Value)-1]
	replacement := "A"
	if last == 'A' {
		replacement = "B"
	}
	tampered := tok.Value[:len(tok.Value)-1] + replacement

	status, body := doGet(t, app, "/api/v1/whoami", "Bearer "+tampered)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)
	assert.Equal(t, GateOutcomeRejected, obs.last())
}

func TestGate_ExpiredTokenContinuesAnonymously(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Second, 0)
	tok, err := tm.Issue("a@x.com", domain.RoleStudent, issueTime)
	require.NoError(t, err)
	obs := &recordingObserver{}
	app := newGateApp(t, tm, obs)

	_, body := doGet(t, app, "/api/v1/whoami", "Bearer "+tok.Value)
	assert.Equal(t, "anonymous", body)
	assert.Equal(t, GateOutcomeRejected, obs.last())
}

func TestGate_MissingOrNonBearerHeader(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour, 0)
	tok, err := tm.Issue("a@x.com", domain.RoleStudent, issueTime)
	require.NoError(t, err)
	obs := &recordingObserver{}
	app := newGateApp(t, tm, obs)

	for _, header := range []string{"", "Basic dXNlcjpwYXNz", tok.Value, "bearer " + tok.Value, "Bearer "} {
		_, body := doGet(t, app, "/api/v1/whoami", header)
		assert.Equal(t, "anonymous", body, "header %q", header)
		assert.Equal(t, GateOutcomeAnonymous, obs.last(), "header %q", header)
	}
}

func TestGate_ExemptPathIgnoresToken(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour, 0)
	tok, err := tm.Issue("a@x.com", domain.RoleStudent, issueTime)
	require.NoError(t, err)
	obs := &recordingObserver{}
	app := newGateApp(t, tm, obs)

	status, body := doGet(t, app, "/auth/login", "Bearer "+tok.Value)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "anonymous", body)
	assert.Equal(t, GateOutcomeExempt, obs.last())
}

func TestRequireAuthenticated(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour, 0)
	tok, err := tm.Issue("f@x.com", domain.RoleFaculty, issueTime)
	require.NoError(t, err)
	app := newGateApp(t, tm, &recordingObserver{})

	status, _ := doGet(t, app, "/api/v1/protected", "")
	assert.NotEqual(t, http.StatusOK, status)

	status, body := doGet(t, app, "/api/v1/protected", "Bearer "+tok.Value)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "f@x.com/FACULTY", body)
}

func TestGate_KeepsExistingIdentity(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour, 0)
	tok, err := tm.Issue("a@x.com", domain.RoleStudent, issueTime)
	require.NoError(t, err)

	gate := NewGate(tm, NewExemptMatcher(), nil, WithClock(func() time.Time { return issueTime }))
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.SetUserContext(WithIdentity(c.UserContext(), domain.Identity{Subject: "pre@x.com", Role: domain.RoleAdmin}))
		return c.Next()
	})
	app.Use(gate.Handle)
	app.Get("/", func(c *fiber.Ctx) error {
		id, _ := CurrentIdentity(c)
		return c.SendString(id.Subject)
	})

	_, body := doGet(t, app, "/", "Bearer "+tok.Value)
	assert.Equal(t, "pre@x.com", body)
}

func TestGate_NoIdentityLeaksAcrossRequests(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour, 0)
	app := newGateApp(t, tm, &recordingObserver{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				tok, err := tm.Issue("even@x.com", domain.RoleStudent, issueTime)
				if !assert.NoError(t, err) {
					return
				}
				_, body := doGet(t, app, "/api/v1/whoami", "Bearer "+tok.Value)
				assert.Equal(t, "even@x.com/STUDENT", body)
				return
			}
			_, body := doGet(t, app, "/api/v1/whoami", "")
			assert.Equal(t, "anonymous", body)
		}(i)
	}
	wg.Wait()
}
