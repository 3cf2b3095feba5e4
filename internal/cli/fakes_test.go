package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cardkeep/internal/config"
	"github.com/dmitrijs2005/cardkeep/internal/logging"
	"github.com/dmitrijs2005/cardkeep/internal/models"
)

type fakeAuth struct {
	mu sync.Mutex

	signupEmail, signupPass string
	signupUser              *models.User
	signupErr               error
	signupCalls             int

	loginEmail, loginPass string
	loginToken            string
	loginErr              error

	logoutTokens []string
	logoutErr    error

	// users maps live tokens to their owner; anything else is absent.
	users      map[string]*models.User
	currentErr error
	touched    []bool

	rotateTo  string
	rotateErr error

	status    *models.SessionStatus
	statusErr error
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{users: map[string]*models.User{}}
}

func (f *fakeAuth) Signup(_ context.Context, email, password string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signupCalls++
	f.signupEmail, f.signupPass = email, password
	return f.signupUser, f.signupErr
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginEmail, f.loginPass = email, password
	return f.loginToken, f.loginErr
}

func (f *fakeAuth) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutTokens = append(f.logoutTokens, token)
	delete(f.users, token)
	return f.logoutErr
}

func (f *fakeAuth) CurrentUser(_ context.Context, token string, touch bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, touch)
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.users[token], nil
}

func (f *fakeAuth) Rotate(_ context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rotateErr != nil {
		return "", f.rotateErr
	}
	u, ok := f.users[token]
	if !ok {
		return "", nil
	}
	delete(f.users, token)
	f.users[f.rotateTo] = u
	return f.rotateTo, nil
}

func (f *fakeAuth) SessionStatus(_ context.Context, token string) (*models.SessionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if _, ok := f.users[token]; !ok {
		return nil, nil
	}
	return f.status, nil
}

type fakeTokens struct {
	mu     sync.Mutex
	values map[string][]byte
	err    error
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{values: map[string][]byte{}}
}

func (f *fakeTokens) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key], f.err
}

func (f *fakeTokens) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.values[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeTokens) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return f.err
}

// syncBuffer guards the output shared with the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testApp struct {
	*App
	auth   *fakeAuth
	tokens *fakeTokens
	out    *syncBuffer
}

func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()
	cfg := &config.Config{SessionCheckInterval: time.Hour}
	auth, tokens, out := newFakeAuth(), newFakeTokens(), &syncBuffer{}
	return &testApp{
		App:    newApp(cfg, auth, tokens, logging.Discard(), strings.NewReader(input), out),
		auth:   auth,
		tokens: tokens,
		out:    out,
	}
}

// stubInputs answers text prompts with text and password prompts with the
// passwords in order.
func stubInputs(t *testing.T, text string, passwords ...string) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})

	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return text, nil }
	i := 0
	getPassword = func(_ *bufio.Reader, _ string, _ io.Writer) ([]byte, error) {
		if i >= len(passwords) {
			return nil, io.EOF
		}
		pw := []byte(passwords[i])
		i++
		return pw, nil
	}
}
