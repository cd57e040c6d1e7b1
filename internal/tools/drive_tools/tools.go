package drive_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/drivetools/internal/adapter"
	"github.com/teemow/drivetools/internal/drive"
	"github.com/teemow/drivetools/internal/instrumentation"
	"github.com/teemow/drivetools/internal/server"
	"github.com/teemow/drivetools/internal/tools/common"
)

// Tool names.
const (
	ToolSearchFiles = "drive_search_files"
	ToolReadFile    = "drive_read_file"
	ToolListFiles   = "drive_list_files"
	ToolCreateFile  = "drive_create_file"
	ToolUpdateFile  = "drive_update_file"
	ToolDeleteFile  = "drive_delete_file"
)

// RegisterDriveTools registers the Drive tools with the MCP server. Write
// tools are skipped when readOnly is set.
func RegisterDriveTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	s.AddTool(searchFilesTool(), common.InstrumentedToolHandler(ToolSearchFiles, sc, handleSearchFiles(sc),
		common.ForOperation(instrumentation.OperationList, true)))
	s.AddTool(readFileTool(), common.InstrumentedToolHandler(ToolReadFile, sc, handleReadFile(sc),
		common.ForOperation(instrumentation.OperationDownload, true)))
	s.AddTool(listFilesTool(), common.InstrumentedToolHandler(ToolListFiles, sc, handleListFiles(sc),
		common.ForOperation(instrumentation.OperationList, true)))

	if readOnly {
		return nil
	}

	s.AddTool(createFileTool(), common.InstrumentedToolHandler(ToolCreateFile, sc, handleCreateFile(sc),
		common.ForOperation(instrumentation.OperationCreate, false)))
	s.AddTool(updateFileTool(), common.InstrumentedToolHandler(ToolUpdateFile, sc, handleUpdateFile(sc),
		common.ForOperation(instrumentation.OperationUpdate, false)))
	s.AddTool(deleteFileTool(), common.InstrumentedToolHandler(ToolDeleteFile, sc, handleDeleteFile(sc),
		common.ForOperation(instrumentation.OperationDelete, false)))

	return nil
}

func searchFilesTool() mcp.Tool {
	return mcp.NewTool(ToolSearchFiles,
		mcp.WithDescription("Search Google Drive for files whose name contains the query"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to look for in file names; empty matches every file"),
		),
		mcp.WithString("file_type",
			mcp.Description("Optional type filter: pdf, doc, docx, sheet, xlsx, slide or pptx"),
		),
	)
}

func readFileTool() mcp.Tool {
	return mcp.NewTool(ToolReadFile,
		mcp.WithDescription("Read the text content of a Google Drive file. Docs and Slides are exported as plain text, Sheets as CSV"),
		mcp.WithString("file_id",
			mcp.Required(),
			mcp.Description("The ID of the file to read"),
		),
	)
}

func listFilesTool() mcp.Tool {
	return mcp.NewTool(ToolListFiles,
		mcp.WithDescription("List the most recently modified files in Google Drive"),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of files to return (default: 10, max: 1000)"),
		),
	)
}

func createFileTool() mcp.Tool {
	return mcp.NewTool(ToolCreateFile,
		mcp.WithDescription("Create a new file in Google Drive"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The file name. Text files get a .txt extension if they have none"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The file content as plain text (CSV for sheets)"),
		),
		mcp.WithString("file_type",
			mcp.Description("text (default), google-doc or google-sheet"),
		),
	)
}

func updateFileTool() mcp.Tool {
	return mcp.NewTool(ToolUpdateFile,
		mcp.WithDescription("Replace the content of an existing Google Drive file with plain text"),
		mcp.WithString("file_id",
			mcp.Required(),
			mcp.Description("The ID of the file to update"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The new file content"),
		),
	)
}

func deleteFileTool() mcp.Tool {
	return mcp.NewTool(ToolDeleteFile,
		mcp.WithDescription("Permanently delete a file from Google Drive"),
		mcp.WithString("file_id",
			mcp.Required(),
			mcp.Description("The ID of the file to delete"),
		),
	)
}

// argError reports a malformed tool argument.
func argError(prefix string, err error) adapter.Result {
	derr := &drive.Error{Kind: drive.KindInvalid, Err: err}
	return adapter.Result{
		Status: adapter.StatusError,
		Text:   prefix + ": " + err.Error(),
		Kind:   drive.KindInvalid,
		Err:    derr,
	}
}

func handleSearchFiles(sc *server.ServerContext) common.ToolFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) adapter.Result {
		query, err := common.StringArg(request, "query")
		if err != nil {
			return argError("Error searching Google Drive", err)
		}
		return sc.Drive().Search(ctx, query, request.GetString("file_type", ""))
	}
}

func handleReadFile(sc *server.ServerContext) common.ToolFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) adapter.Result {
		fileID, err := common.RequiredStringArg(request, "file_id")
		if err != nil {
			return argError("Error reading file", err)
		}
		return sc.Drive().Read(ctx, fileID)
	}
}

func handleListFiles(sc *server.ServerContext) common.ToolFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) adapter.Result {
		maxResults, err := common.IntArg(request, "max_results", adapter.DefaultListSize)
		if err != nil {
			return argError("Error listing files", err)
		}
		return sc.Drive().List(ctx, maxResults)
	}
}

func handleCreateFile(sc *server.ServerContext) common.ToolFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) adapter.Result {
		name, err := common.RequiredStringArg(request, "name")
		if err != nil {
			return argError("Error creating file", err)
		}
		fileType := request.GetString("file_type", adapter.FileTypeText)
		if fileType == "" {
			fileType = adapter.FileTypeText
		}
		return sc.Drive().Create(ctx, name, request.GetString("content", ""), fileType)
	}
}

func handleUpdateFile(sc *server.ServerContext) common.ToolFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) adapter.Result {
		fileID, err := common.RequiredStringArg(request, "file_id")
		if err != nil {
			return argError("Error updating file", err)
		}
		return sc.Drive().Update(ctx, fileID, request.GetString("content", ""))
	}
}

func handleDeleteFile(sc *server.ServerContext) common.ToolFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) adapter.Result {
		fileID, err := common.RequiredStringArg(request, "file_id")
		if err != nil {
			return argError("Error deleting file", err)
		}
		return sc.Drive().Delete(ctx, fileID)
	}
}
