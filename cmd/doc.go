// Package cmd implements the command-line interface for drivetools.
//
// This package provides the following commands:
//   - auth: Authorize access to Google Drive, show the stored credential or remove it
//   - serve: Start the MCP server exposing the Drive tools to AI assistants
//   - drive: Run a single Drive operation from the shell
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
