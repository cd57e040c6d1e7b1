// Package google handles OAuth2 authorization for the Google Drive API.
//
// The OAuth client is read from a client-secrets file downloaded from the
// Google Cloud console. The resulting credential (an access/refresh token
// pair) is persisted as JSON in a single token file, refreshed in place when
// it expires and rewritten after every refresh.
//
// When no usable credential exists, Authorizer runs the interactive flow: a
// loopback listener receives the redirect carrying the authorization code,
// protected by a random state value and PKCE. If the listener cannot be
// started the user is asked to paste the code instead.
package google
