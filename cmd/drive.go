package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/drivetools/internal/adapter"
)

func newDriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drive",
		Short: "Run a single Google Drive operation",
		Long: `Run one Drive operation and print its result.

The first command that needs Drive access runs the authorization flow if no
credential is stored yet. Commands exit with a non-zero status when the
operation fails.`,
	}

	cmd.AddCommand(newDriveSearchCmd())
	cmd.AddCommand(newDriveReadCmd())
	cmd.AddCommand(newDriveCreateCmd())
	cmd.AddCommand(newDriveUpdateCmd())
	cmd.AddCommand(newDriveDeleteCmd())
	cmd.AddCommand(newDriveListCmd())

	return cmd
}

// runDriveOp builds an adapter, runs op and prints the result. Error results
// go to stderr and fail the command without cobra repeating the message.
func runDriveOp(cmd *cobra.Command, op func(ctx context.Context, a *adapter.Adapter) adapter.Result) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := buildAdapter(ctx, cfg, logger, nil, true)
	r := op(ctx, a)

	if r.IsError() {
		cmd.SilenceErrors = true
		cmd.PrintErrln(r.Text)
		if r.Err != nil {
			return r.Err
		}
		return errors.New(r.Text)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), r.Text)
	return nil
}

// readContent returns the --content value or the contents of --file.
func readContent(cmd *cobra.Command, content, file string) (string, error) {
	if cmd.Flags().Changed("content") && file != "" {
		return "", fmt.Errorf("--content and --file are mutually exclusive")
	}
	if file == "" {
		return content, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", file, err)
	}
	return string(data), nil
}

func newDriveSearchCmd() *cobra.Command {
	var fileType string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search files by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDriveOp(cmd, func(ctx context.Context, a *adapter.Adapter) adapter.Result {
				return a.Search(ctx, args[0], fileType)
			})
		},
	}

	cmd.Flags().StringVar(&fileType, "type", "", "Restrict to a file type: pdf, doc, docx, sheet, xlsx, slide or pptx")
	return cmd
}

func newDriveReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <file-id>",
		Short: "Print the text content of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDriveOp(cmd, func(ctx context.Context, a *adapter.Adapter) adapter.Result {
				return a.Read(ctx, args[0])
			})
		},
	}
}

func newDriveCreateCmd() *cobra.Command {
	var (
		content  string
		file     string
		fileType string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readContent(cmd, content, file)
			if err != nil {
				return err
			}
			return runDriveOp(cmd, func(ctx context.Context, a *adapter.Adapter) adapter.Result {
				return a.Create(ctx, args[0], body, fileType)
			})
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "File content")
	cmd.Flags().StringVar(&file, "file", "", "Read the file content from this path")
	cmd.Flags().StringVar(&fileType, "type", adapter.FileTypeText, "File type: text, google-doc or google-sheet")
	return cmd
}

func newDriveUpdateCmd() *cobra.Command {
	var (
		content string
		file    string
	)

	cmd := &cobra.Command{
		Use:   "update <file-id>",
		Short: "Replace the content of a file with plain text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readContent(cmd, content, file)
			if err != nil {
				return err
			}
			return runDriveOp(cmd, func(ctx context.Context, a *adapter.Adapter) adapter.Result {
				return a.Update(ctx, args[0], body)
			})
		},
	}

	cmd.Flags().StringVar(&content, "content", "", "New file content")
	cmd.Flags().StringVar(&file, "file", "", "Read the new content from this path")
	return cmd
}

func newDriveDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file-id>",
		Short: "Permanently delete a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDriveOp(cmd, func(ctx context.Context, a *adapter.Adapter) adapter.Result {
				return a.Delete(ctx, args[0])
			})
		},
	}
}

func newDriveListCmd() *cobra.Command {
	var maxResults int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recently modified files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDriveOp(cmd, func(ctx context.Context, a *adapter.Adapter) adapter.Result {
				return a.List(ctx, maxResults)
			})
		},
	}

	cmd.Flags().IntVar(&maxResults, "max", adapter.DefaultListSize, "Maximum number of files to list (1-1000)")
	return cmd
}
