package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clayv/RateGate/pkg/cli"
	"github.com/clayv/RateGate/pkg/config"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a shell completion script for rategate.

Besides commands and flags, --gate completes the gate names declared in the
configuration file and --format completes the output formats.

Bash:
  $ source <(rategate completion bash)

Zsh:
  $ rategate completion zsh > "${fpath[1]}/_rategate"
  $ compinit

Fish:
  $ rategate completion fish | source

PowerShell:
  PS> rategate completion powershell | Out-String | Invoke-Expression
`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletionV2(out, true)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(out)
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

// registerGateCompletions wires --gate and --format completion on cmd.
// The command must already define both flags.
func registerGateCompletions(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("gate", completeGateNames)
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
}

// completeGateNames offers the gates declared in the configuration file.
// The file is parsed without validation so names complete while it is
// being edited.
func completeGateNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	data, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveError
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveError
	}

	var names []string
	for _, g := range cfg.Gates {
		if strings.HasPrefix(g.Name, toComplete) {
			names = append(names, fmt.Sprintf("%s\t%d per %s", g.Name, g.Occurrences, g.TimeUnit))
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(cli.FormatText) + "\taligned table",
		string(cli.FormatJSON) + "\tindented JSON",
		string(cli.FormatCSV) + "\tCSV with header",
	}, cobra.ShellCompDirectiveNoFileComp
}
