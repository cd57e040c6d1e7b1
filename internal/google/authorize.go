package google

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cli/browser"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/teemow/drivetools/internal/instrumentation"
	"github.com/teemow/drivetools/internal/logging"
)

// ManualRedirectURL is the redirect used by the manual flow. Nothing listens
// there; the user copies the code or the whole URL from the browser.
const ManualRedirectURL = "http://127.0.0.1"

// ErrNotAuthorized is returned when no usable credential exists and the
// interactive flow was not allowed to run.
var ErrNotAuthorized = errors.New("Google Drive is not authorized; run 'drivetools auth login'")

// Authorizer produces an authenticated token source, running the interactive
// authorization flow when needed.
type Authorizer struct {
	Config *oauth2.Config
	Store  *TokenStore

	// In and Out are used to talk to the user during the interactive flow.
	In  io.Reader
	Out io.Writer

	// OpenBrowser opens the authorization URL automatically.
	OpenBrowser bool
	// CallbackPort is the loopback port; 0 picks a free one.
	CallbackPort int
	// Timeout bounds the wait for the browser redirect.
	Timeout time.Duration

	Logger  logging.Logger
	Metrics *instrumentation.Metrics

	// openURL defaults to browser.OpenURL.
	openURL func(string) error
	// startCallback defaults to starting a real CallbackServer.
	startCallback func(port int, state string) (*CallbackServer, error)
}

func (a *Authorizer) logger() logging.Logger {
	return logging.OrDefault(a.Logger)
}

func (a *Authorizer) out() io.Writer {
	if a.Out == nil {
		return os.Stderr
	}
	return a.Out
}

// TokenSource returns a token source for the stored credential without any
// user interaction. It fails with ErrNotAuthorized if there is no stored
// credential or it can no longer be refreshed.
func (a *Authorizer) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := a.Store.Load()
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return nil, ErrNotAuthorized
		}
		return nil, err
	}

	if !tok.Valid() && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: stored token expired and has no refresh token", ErrNotAuthorized)
	}

	ts := NewPersistingTokenSource(ctx, a.Config, tok, a.Store, a.logger(), a.Metrics)

	// Refresh now so a revoked credential is reported at startup.
	if _, err := ts.Token(); err != nil {
		a.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthFlowStored, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("%w: %v", ErrNotAuthorized, err)
	}

	a.Metrics.RecordOAuthAuth(ctx, instrumentation.OAuthFlowStored, instrumentation.OAuthResultSuccess)
	return ts, nil
}

// Bootstrap returns a token source for the stored credential, or runs the
// interactive flow and persists the new credential when there is none.
func (a *Authorizer) Bootstrap(ctx context.Context) (oauth2.TokenSource, error) {
	ts, err := a.TokenSource(ctx)
	if err == nil {
		return ts, nil
	}
	if !errors.Is(err, ErrNotAuthorized) {
		return nil, err
	}

	a.logger().Info("no usable stored credential, starting authorization", "reason", err.Error())

	tok, err := a.Authorize(ctx)
	if err != nil {
		return nil, err
	}
	return NewPersistingTokenSource(ctx, a.Config, tok, a.Store, a.logger(), a.Metrics), nil
}

// Authorize always runs the interactive flow and persists the result.
func (a *Authorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	flow := instrumentation.OAuthFlowLoopback
	tok, err := a.loopbackFlow(ctx)
	if errors.Is(err, errListenerUnavailable) {
		a.logger().Warn("loopback listener unavailable, falling back to manual code entry", "error", err)
		flow = instrumentation.OAuthFlowManual
		tok, err = a.manualFlow(ctx)
	}
	if err != nil {
		a.Metrics.RecordOAuthAuth(ctx, flow, instrumentation.OAuthResultFailure)
		return nil, err
	}

	if err := a.Store.Save(tok); err != nil {
		a.Metrics.RecordOAuthAuth(ctx, flow, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	a.Metrics.RecordOAuthAuth(ctx, flow, instrumentation.OAuthResultSuccess)
	a.logger().Info("authorization complete", "flow", flow, "token_file", a.Store.Path())
	return tok, nil
}

var errListenerUnavailable = errors.New("callback listener unavailable")

func (a *Authorizer) loopbackFlow(ctx context.Context) (*oauth2.Token, error) {
	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	start := a.startCallback
	if start == nil {
		start = func(port int, state string) (*CallbackServer, error) {
			cb := NewCallbackServer(port, state)
			return cb, cb.Start()
		}
	}

	cb, err := start(a.CallbackPort, state)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errListenerUnavailable, err)
	}
	defer func() { _ = cb.Stop() }()

	conf := *a.Config
	conf.RedirectURL = cb.RedirectURI()
	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	_, _ = fmt.Fprintf(a.out(), "Open the following URL in your browser to authorize drivetools:\n\n%s\n\n", authURL)
	if a.OpenBrowser {
		openURL := a.openURL
		if openURL == nil {
			openURL = browser.OpenURL
		}
		if err := openURL(authURL); err != nil {
			a.logger().Debug("failed to open browser", "error", err)
		}
	}

	waitCtx := ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	code, err := cb.WaitForCode(waitCtx)
	if err != nil {
		return nil, err
	}

	tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tok, nil
}

func (a *Authorizer) manualFlow(ctx context.Context) (*oauth2.Token, error) {
	if a.In == nil {
		return nil, fmt.Errorf("no input available for manual authorization")
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	conf := *a.Config
	conf.RedirectURL = ManualRedirectURL
	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	_, _ = fmt.Fprintf(a.out(), "Visit the following URL to authorize drivetools:\n\n%s\n\n"+
		"The browser ends on a page that cannot be reached. Paste its full URL, or just the code parameter.\n"+
		"Enter the authorization code or URL: ", authURL)

	input, err := readLine(ctx, a.In)
	if err != nil {
		return nil, err
	}
	code, err := parseAuthCode(input, state)
	if err != nil {
		return nil, err
	}

	tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tok, nil
}

// parseAuthCode extracts the authorization code from what the user pasted:
// either the bare code or the redirect URL carrying it. A state parameter,
// when present, must match.
func parseAuthCode(input, state string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("no authorization code entered")
	}
	if !strings.Contains(input, "code=") && !strings.Contains(input, "error=") {
		return input, nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	q := u.Query()
	if errParam := q.Get("error"); errParam != "" {
		return "", fmt.Errorf("authorization denied: %s %s", errParam, q.Get("error_description"))
	}
	if s := q.Get("state"); s != "" && s != state {
		return "", fmt.Errorf("state mismatch in pasted redirect URL")
	}
	code := q.Get("code")
	if code == "" {
		return "", fmt.Errorf("no authorization code in pasted URL")
	}
	return code, nil
}

// readLine reads one trimmed line from r, giving up when ctx is done.
// A cancelled read leaves the reading goroutine blocked on r until the next
// line or EOF; callers are one-shot commands that exit soon after.
func readLine(ctx context.Context, r io.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		scanner := bufio.NewScanner(r)
		if scanner.Scan() {
			ch <- result{line: strings.TrimSpace(scanner.Text())}
			return
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		ch <- result{err: fmt.Errorf("failed to read authorization code: %w", err)}
	}()

	select {
	case res := <-ch:
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Status describes the stored credential.
type Status struct {
	TokenFile       string
	Exists          bool
	Valid           bool
	HasRefreshToken bool
	Expiry          time.Time
	Err             error
}

// Status inspects the stored credential and checks that it can still be
// used, refreshing it if it has expired.
func (a *Authorizer) Status(ctx context.Context) Status {
	st := Status{TokenFile: a.Store.Path()}

	tok, err := a.Store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			st.Exists = true
			st.Err = err
		}
		return st
	}
	st.Exists = true
	st.HasRefreshToken = tok.RefreshToken != ""

	ts, err := a.TokenSource(ctx)
	if err != nil {
		st.Err = err
		st.Expiry = tok.Expiry
		return st
	}
	fresh, err := ts.Token()
	if err != nil {
		st.Err = err
		return st
	}
	st.Valid = fresh.Valid()
	st.Expiry = fresh.Expiry
	return st
}

// Logout deletes the stored credential.
func (a *Authorizer) Logout() error {
	return a.Store.Delete()
}
