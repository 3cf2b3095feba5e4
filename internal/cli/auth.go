package cli

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cardkeep/internal/common"
	"github.com/dmitrijs2005/cardkeep/internal/logging"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

var errPasswordMismatch = errors.New("passwords do not match")

// Signup prompts for an email and a password entered twice. A mismatch is
// rejected before the auth service is called.
func (a *App) Signup(ctx context.Context) error {
	log := a.requestLogger()

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(a.reader, "Repeat password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if subtle.ConstantTimeCompare(password, confirm) != 1 {
		fmt.Fprintln(a.out, "Passwords do not match.")
		return errPasswordMismatch
	}

	user, err := a.authService.Signup(ctx, email, string(password))
	if err != nil {
		a.report(ctx, log, "signup", err)
		return err
	}

	log.Info(ctx, "account created", "user_id", user.ID)
	fmt.Fprintf(a.out, "Account %s created. You can log in now.\n", user.Email)
	return nil
}

// Login prompts for credentials and, on success, replaces any current
// session with the new one.
func (a *App) Login(ctx context.Context) error {
	log := a.requestLogger()

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, "Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	token, err := a.authService.Login(ctx, email, string(password))
	if err != nil {
		a.report(ctx, log, "login", err)
		return err
	}

	user, err := a.authService.CurrentUser(ctx, token, false)
	if err != nil {
		a.report(ctx, log, "login", err)
		return err
	}
	if user == nil {
		return a.notAuthenticated()
	}

	if old, _ := a.session(); old != "" && old != token {
		if err := a.authService.Logout(ctx, old); err != nil {
			log.Warn(ctx, "could not end previous session", "error", err)
		}
	}
	a.setSession(ctx, token, user)

	log.Info(ctx, "logged in", "user_id", user.ID)
	fmt.Fprintf(a.out, "Logged in as: %s\n", user.Email)
	return nil
}

// Logout ends the current session. Without one it is a no-op.
func (a *App) Logout(ctx context.Context) error {
	log := a.requestLogger()

	token, _ := a.session()
	if token == "" {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}

	if err := a.authService.Logout(ctx, token); err != nil {
		a.report(ctx, log, "logout", err)
		return err
	}
	a.clearSession(ctx, token)

	log.Info(ctx, "logged out")
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

// WhoAmI is a protected action: it validates the session (touching it) and
// reports who it runs as.
func (a *App) WhoAmI(ctx context.Context) error {
	log := a.requestLogger()

	token, _ := a.session()
	if token == "" {
		return a.notAuthenticated()
	}

	user, err := a.authService.CurrentUser(ctx, token, true)
	if err != nil {
		a.report(ctx, log, "whoami", err)
		return err
	}
	if user == nil {
		a.clearSession(ctx, token)
		return a.notAuthenticated()
	}

	fmt.Fprintf(a.out, "Action ran as %s\n", user.Email)
	return nil
}

// Rotate swaps the session token for a fresh one.
func (a *App) Rotate(ctx context.Context) error {
	log := a.requestLogger()

	token, user := a.session()
	if token == "" {
		return a.notAuthenticated()
	}

	next, err := a.authService.Rotate(ctx, token)
	if err != nil {
		a.report(ctx, log, "rotate", err)
		return err
	}
	if next == "" {
		a.clearSession(ctx, token)
		return a.notAuthenticated()
	}

	a.setSession(ctx, next, user)
	log.Info(ctx, "session rotated")
	fmt.Fprintln(a.out, "Session rotated.")
	return nil
}

// Status prints how long the session has left, without touching it.
func (a *App) Status(ctx context.Context) error {
	log := a.requestLogger()

	token, _ := a.session()
	if token == "" {
		return a.notAuthenticated()
	}

	st, err := a.authService.SessionStatus(ctx, token)
	if err != nil {
		a.report(ctx, log, "status", err)
		return err
	}
	if st == nil {
		a.clearSession(ctx, token)
		return a.notAuthenticated()
	}

	fmt.Fprintf(a.out, "Logged in as: %s\n", st.User.Email)
	fmt.Fprintln(a.out, formatRemaining(st.IdleRemaining, st.AbsoluteRemaining))
	return nil
}

func (a *App) notAuthenticated() error {
	fmt.Fprintln(a.out, "Not authenticated. Please log in again.")
	return common.ErrSessionInvalid
}

// report prints a user-facing message for err. Store failures are logged;
// their details never reach the terminal.
func (a *App) report(ctx context.Context, log logging.Logger, op string, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		fmt.Fprintln(a.out, "Email and password are required.")
	case errors.Is(err, common.ErrDuplicateAccount):
		fmt.Fprintln(a.out, "Email already exists.")
	case errors.Is(err, common.ErrInvalidCredentials):
		fmt.Fprintln(a.out, "Invalid credentials.")
	default:
		log.Error(ctx, op+" failed", "error", err)
		fmt.Fprintln(a.out, "Something went wrong, please try again.")
	}
}

func formatRemaining(idle, absolute time.Duration) string {
	idleSec := int64(max(idle, 0) / time.Second)
	absHours := int64(max(absolute, 0) / time.Hour)
	return fmt.Sprintf("Idle timeout in ~%dm%02ds, absolute in ~%dh", idleSec/60, idleSec%60, absHours)
}
