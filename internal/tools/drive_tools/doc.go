// Package drive_tools exposes the Drive adapter to MCP clients.
//
// Read tools are always registered:
//   - drive_search_files: find files by name, optionally filtered by type
//   - drive_read_file: read a file's text content
//   - drive_list_files: list the most recently modified files
//
// Write tools are only registered when the server runs with write access
// (--yolo):
//   - drive_create_file: create a text file, Google Doc or Google Sheet
//   - drive_update_file: replace a file's content with plain text
//   - drive_delete_file: permanently delete a file
//
// Every tool returns plain text. Failures are reported as error results with
// a human-readable message rather than as protocol errors.
package drive_tools
