package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// floatArg extracts a numeric argument from a tool request.
func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return v
}
