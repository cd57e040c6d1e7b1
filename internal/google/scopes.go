package google

import (
	drive "google.golang.org/api/drive/v3"
)

// DefaultOAuthScopes are the scopes requested during authorization.
//
// Full Drive access is required: the tools create, update and delete files,
// not only those created by drivetools itself.
var DefaultOAuthScopes = []string{
	drive.DriveScope,
}
