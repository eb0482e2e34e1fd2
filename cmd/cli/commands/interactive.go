package commands

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// InteractiveCmd creates the interactive command
func InteractiveCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (connect once, run multiple commands)",
		Long: `Start an interactive session where you can run multiple commands without reconnecting.
The session will keep running until you type 'exit' or 'quit'.

Type 'help' to see available commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "\n🚀 Starting interactive session...")
			fmt.Fprintln(out, "Type 'help' for available commands, 'exit' or 'quit' to leave")

			return runInteractive(cmd.Root(), cmd.InOrStdin(), out)
		},
	}

	return cmd
}

// runInteractive reads command lines from in and runs them against root until
// exit, quit or end of input
func runInteractive(root *cobra.Command, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// Parse command (respecting quotes)
		parts, err := parseCommandLine(line)
		if err != nil {
			fmt.Fprintf(out, "❌ Error parsing command: %v\n\n", err)
			continue
		}
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "exit", "quit":
			fmt.Fprintln(out, "👋 Goodbye!")
			return nil
		case "help":
			printInteractiveHelp(out, root)
			continue
		}

		targetCmd, cmdArgs, err := findCommand(root, parts)
		if err != nil {
			fmt.Fprintf(out, "❌ %v (type 'help' for available commands)\n\n", err)
			continue
		}

		// Reset command flags left over from a previous run
		targetCmd.Flags().VisitAll(func(flag *pflag.Flag) {
			flag.Changed = false
			flag.Value.Set(flag.DefValue)
		})

		// Run RunE directly so PersistentPreRunE does not set the app up again
		if err := targetCmd.ParseFlags(cmdArgs); err != nil {
			fmt.Fprintf(out, "❌ Error parsing flags: %v\n\n", err)
			continue
		}

		cmdArgs = targetCmd.Flags().Args()

		if targetCmd.Args != nil {
			if err := targetCmd.Args(targetCmd, cmdArgs); err != nil {
				fmt.Fprintf(out, "❌ Error: %v\n\n", err)
				continue
			}
		}
		if err := targetCmd.ValidateRequiredFlags(); err != nil {
			fmt.Fprintf(out, "❌ Error: %v\n\n", err)
			continue
		}

		if err := targetCmd.RunE(targetCmd, cmdArgs); err != nil {
			fmt.Fprintf(out, "❌ Error: %v\n\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}

	return nil
}

// findCommand resolves a command path such as "swap approve" below root.
// Only runnable commands other than interactive itself are returned.
func findCommand(root *cobra.Command, parts []string) (*cobra.Command, []string, error) {
	target, rest, err := root.Find(parts)
	if err != nil || target == root {
		return nil, nil, fmt.Errorf("unknown command: %s", parts[0])
	}
	if target.Name() == "interactive" {
		return nil, nil, fmt.Errorf("already in an interactive session")
	}
	if target.RunE == nil {
		return nil, nil, fmt.Errorf("%s needs a subcommand", target.CommandPath())
	}
	return target, rest, nil
}

func printInteractiveHelp(out io.Writer, root *cobra.Command) {
	fmt.Fprintln(out, "\nAvailable commands:")

	var lines []string
	var walk func(cmd *cobra.Command, prefix string)
	walk = func(cmd *cobra.Command, prefix string) {
		for _, sub := range cmd.Commands() {
			switch sub.Name() {
			case "interactive", "completion", "help":
				continue
			}
			if sub.HasSubCommands() {
				walk(sub, prefix+sub.Name()+" ")
				continue
			}
			lines = append(lines, fmt.Sprintf("  %-40s %s", prefix+sub.Use, sub.Short))
		}
	}
	walk(root, "")
	sort.Strings(lines)

	for _, line := range lines {
		fmt.Fprintln(out, line)
	}

	fmt.Fprintln(out, "\n  help                                     Show this help message")
	fmt.Fprintln(out, "  exit, quit                               Exit the interactive session")
}

// parseCommandLine splits a command line into arguments, respecting quoted strings
// Supports both single and double quotes
func parseCommandLine(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var inQuote rune // 0 if not in quote, '"' or '\'' if in quote

	for _, r := range line {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			inQuote = r
		case unicode.IsSpace(r):
			// Whitespace outside quotes ends the current argument
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if inQuote != 0 {
		return nil, fmt.Errorf("unclosed quote: %c", inQuote)
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}

	return args, nil
}
