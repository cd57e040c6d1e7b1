package common

import (
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
)

// RequiredStringArg returns the string argument name and fails if it is
// missing, empty or not a string.
func RequiredStringArg(request mcp.CallToolRequest, name string) (string, error) {
	v, err := request.RequireString(name)
	if err != nil || v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// StringArg returns the string argument name, which may be empty. It fails
// if the argument is missing or not a string.
func StringArg(request mcp.CallToolRequest, name string) (string, error) {
	v, err := request.RequireString(name)
	if err != nil {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// IntArg returns the integer argument name, or def if it is missing.
// JSON numbers arrive as float64; fractional values are rejected.
func IntArg(request mcp.CallToolRequest, name string, def int) (int, error) {
	raw, ok := request.GetArguments()[name]
	if !ok || raw == nil {
		return def, nil
	}

	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%s must be a number", name)
	}
}
