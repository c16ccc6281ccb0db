package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for pcc.

To load completions:

Bash:
  $ source <(pcc completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ pcc completion bash > /etc/bash_completion.d/pcc
  # macOS:
  $ pcc completion bash > $(brew --prefix)/etc/bash_completion.d/pcc

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ pcc completion zsh > "${fpath[1]}/_pcc"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ pcc completion fish | source

  # To load completions for each session, execute once:
  $ pcc completion fish > ~/.config/fish/completions/pcc.fish

PowerShell:
  PS> pcc completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> pcc completion powershell > pcc.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(c.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(c.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(c.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(c.Stdout)
			}
			return nil
		},
	}

	return cmd
}
