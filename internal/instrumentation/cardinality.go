package instrumentation

import "strings"

// Error kinds accepted as metric label values. Anything else is folded into
// "unknown" so a bug that leaks raw error text into a label cannot explode
// the series count.
var knownErrorKinds = map[string]struct{}{
	"auth":       {},
	"permission": {},
	"not_found":  {},
	"rate_limit": {},
	"transport":  {},
	"invalid":    {},
	"unknown":    {},
}

// BoundedErrorKind normalizes an error kind for use as a metric label.
//
// Example:
//
//	BoundedErrorKind("rate_limit")        // "rate_limit"
//	BoundedErrorKind("RATE_LIMIT")        // "rate_limit"
//	BoundedErrorKind("googleapi: 500")    // "unknown"
//	BoundedErrorKind("")                  // "unknown"
func BoundedErrorKind(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if _, ok := knownErrorKinds[kind]; ok {
		return kind
	}
	return "unknown"
}

// Drive API operation names used for metrics and spans.
const (
	OperationList     = "list"
	OperationGet      = "get"
	OperationDownload = "download"
	OperationExport   = "export"
	OperationCreate   = "create"
	OperationUpdate   = "update"
	OperationDelete   = "delete"
)
