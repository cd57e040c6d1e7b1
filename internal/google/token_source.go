package google

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/drivetools/internal/instrumentation"
	"github.com/teemow/drivetools/internal/logging"
)

// persistingTokenSource writes every newly minted token back to the store.
type persistingTokenSource struct {
	base    oauth2.TokenSource
	store   *TokenStore
	logger  logging.Logger
	metrics *instrumentation.Metrics

	mu   sync.Mutex
	last string
}

// NewPersistingTokenSource returns a token source that refreshes tok with
// conf when it expires and saves each refreshed token to store. A failed save
// is logged; the fresh token is still returned.
func NewPersistingTokenSource(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token, store *TokenStore, logger logging.Logger, metrics *instrumentation.Metrics) oauth2.TokenSource {
	logger = logging.OrDefault(logger)
	pts := &persistingTokenSource{
		base:    conf.TokenSource(ctx, tok),
		store:   store,
		logger:  logger,
		metrics: metrics,
		last:    tok.AccessToken,
	}
	return oauth2.ReuseTokenSource(tok, pts)
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		s.metrics.RecordOAuthTokenRefresh(context.Background(), instrumentation.OAuthResultFailure)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.AccessToken == s.last {
		return tok, nil
	}
	s.last = tok.AccessToken
	s.metrics.RecordOAuthTokenRefresh(context.Background(), instrumentation.OAuthResultSuccess)

	if err := s.store.Save(tok); err != nil {
		s.logger.Warn("failed to persist refreshed token", "path", s.store.Path(), "error", err)
	} else {
		s.logger.Debug("persisted refreshed token", "token", logging.SanitizeToken(tok.AccessToken))
	}
	return tok, nil
}
