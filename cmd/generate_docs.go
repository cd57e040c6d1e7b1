package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/drivetools/internal/server"
)

const (
	sectionRead  = "Read Tools"
	sectionWrite = "Write Tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate a markdown reference for the MCP tools served by drivetools.
The reference is built from the registered tool definitions, so names,
descriptions and arguments always match what clients see.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			markdown, err := toolsDocumentation()
			if err != nil {
				return err
			}
			if outputFile == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), markdown)
				return err
			}
			if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputFile, err)
			}
			cmd.Printf("Documentation written to %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// toolsDocumentation renders every tool, write tools included, from servers
// built without Drive access.
func toolsDocumentation() (string, error) {
	sc := server.NewServerContext(context.Background(), nil)
	defer func() {
		_ = sc.Shutdown()
	}()

	all, err := newMCPServer(sc, false)
	if err != nil {
		return "", err
	}
	readOnly, err := newMCPServer(sc, true)
	if err != nil {
		return "", err
	}
	readTools := readOnly.ListTools()

	sections := map[string][]mcp.Tool{}
	for name, st := range all.ListTools() {
		section := sectionWrite
		if _, ok := readTools[name]; ok {
			section = sectionRead
		}
		sections[section] = append(sections[section], st.Tool)
	}

	return renderToolsMarkdown(sections), nil
}

func renderToolsMarkdown(sections map[string][]mcp.Tool) string {
	var b strings.Builder

	b.WriteString("# drivetools MCP Tools\n\n")
	b.WriteString("Generated by `drivetools generate-docs` from the registered tool definitions.\n\n")
	b.WriteString("`drivetools serve` registers only the read tools unless it is started with `--yolo`.\n")

	for _, section := range []string{sectionRead, sectionWrite} {
		tools := sections[section]
		if len(tools) == 0 {
			continue
		}
		slices.SortFunc(tools, func(a, b mcp.Tool) int {
			return strings.Compare(a.Name, b.Name)
		})

		fmt.Fprintf(&b, "\n## %s\n", section)
		for _, tool := range tools {
			b.WriteString("\n")
			writeTool(&b, tool)
		}
	}

	return b.String()
}

func writeTool(b *strings.Builder, tool mcp.Tool) {
	fmt.Fprintf(b, "### %s\n\n", tool.Name)
	if tool.Description != "" {
		fmt.Fprintf(b, "%s\n\n", tool.Description)
	}

	props := tool.InputSchema.Properties
	if len(props) == 0 {
		b.WriteString("No arguments.\n")
		return
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	slices.Sort(names)

	b.WriteString("| Argument | Type | Required | Description |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, name := range names {
		prop, _ := props[name].(map[string]any)
		propType, _ := prop["type"].(string)
		if propType == "" {
			propType = "any"
		}
		desc, _ := prop["description"].(string)
		required := "no"
		if slices.Contains(tool.InputSchema.Required, name) {
			required = "yes"
		}
		fmt.Fprintf(b, "| `%s` | %s | %s | %s |\n", name, propType, required, desc)
	}
}
