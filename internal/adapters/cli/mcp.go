package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newMCPCommand(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the scoring tools over MCP on stdio",
		Long: `Starts a Model Context Protocol server on stdin/stdout exposing the
score_text, compare_texts and transform_text tools.

Client configuration:
  {
    "mcpServers": {
      "humanlike": {
        "command": "/path/to/humanlike",
        "args": ["mcp"]
      }
    }
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if deps.ServeMCP == nil {
				return errors.New("mcp server not configured")
			}
			return deps.ServeMCP(cmd.Context())
		},
	}
}
