package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/arthur-debert/nanotree/nanotree"
	"github.com/arthur-debert/nanotree/nanotree/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// CLI is the Viper-configured nanotree command line.
type CLI struct {
	rootCmd   *cobra.Command
	viperInst *viper.Viper
	logger    *slog.Logger
	logFile   io.Closer
	out       io.Writer
	in        io.Reader
}

// globalKeys are the configuration keys shared by every command. Each one
// is a persistent flag, a NANOTREE_* variable and a config file key.
var globalKeys = []string{
	"doc", "format", "dangling-policy", "log-level", "log-stdout",
	"autosave-delay", "quiet", "dry-run",
}

// NewCLI creates the command tree and loads configuration.
func NewCLI() *CLI {
	cli := &CLI{
		viperInst: viper.New(),
		logger:    slog.New(slog.DiscardHandler),
		out:       os.Stdout,
		in:        os.Stdin,
	}
	cli.setupViperConfig()
	cli.createRootCommand()
	cli.addCommands()
	return cli
}

// setupViperConfig configures environment variables and config files.
func (cli *CLI) setupViperConfig() {
	if configFile := os.Getenv("NANOTREE_CONFIG"); configFile != "" {
		cli.viperInst.SetConfigFile(configFile)
	} else {
		cli.viperInst.SetConfigName("nanotree")
		cli.viperInst.SetConfigType("json")
		cli.viperInst.AddConfigPath(".")
		cli.viperInst.AddConfigPath("$HOME/.nanotree")
	}

	cli.viperInst.SetEnvPrefix("NANOTREE")
	cli.viperInst.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cli.viperInst.AutomaticEnv()

	// A missing config file is fine.
	_ = cli.viperInst.ReadInConfig()
}

func (cli *CLI) createRootCommand() {
	cli.rootCmd = &cobra.Command{
		Use:   "nanotree",
		Short: "Edit hierarchical UI documents",
		Long: `nanotree edits a UI document: a forest of nodes with hierarchical IDs
(01, 0102, 010203) where every named root is also a type that reference
nodes can embed.

Configuration Sources (in order of precedence):
1. Command line flags
2. Environment variables (NANOTREE_*)
3. Configuration file (NANOTREE_CONFIG, ./nanotree.json, ~/.nanotree/nanotree.json)

Examples:
  nanotree --doc screens.json show
  nanotree --doc screens.json add-root --name Card --layout vertical
  nanotree --doc screens.json add-child 01 --name Title --type Label --set text=Hello
  nanotree --doc screens.json add-child 02 --name Slot --ref Card
  nanotree --doc screens.json move 0102 02

  export NANOTREE_DOC=screens.json
  nanotree can-select 0201 Card`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, closer, err := initLogging(
				cli.viperInst.GetString("log-level"),
				cli.viperInst.GetBool("log-stdout"),
			)
			if err != nil {
				return NewConfigError(cmd.Name(), err.Error(), "Set XDG_CACHE_HOME to a writable directory")
			}
			cli.logger = logger
			cli.logFile = closer
			cli.logger.Debug("command started", "command", cmd.Name(), "args", args,
				"flags", changedFlags(cmd), "config", cli.viperInst.ConfigFileUsed())
			return nil
		},
	}
	cli.addGlobalFlags()
}

func (cli *CLI) addGlobalFlags() {
	flags := cli.rootCmd.PersistentFlags()

	flags.StringP("doc", "d", "", "Document file path (required for most commands)")
	flags.StringP("format", "f", "text", "Output format (text|json|yaml)")
	flags.String("dangling-policy", "warn", "Deleting a referenced root: warn|reject")
	flags.String("log-level", "warn", "Log level (debug|info|warn|error)")
	flags.Bool("log-stdout", false, "Mirror log records to stdout")
	flags.Duration("autosave-delay", 0, "Debounce delay before saving changes")
	flags.BoolP("quiet", "q", false, "Suppress informational output")
	flags.Bool("dry-run", false, "Run the command without saving the document")

	for _, key := range globalKeys {
		_ = cli.viperInst.BindPFlag(key, flags.Lookup(key))
		_ = cli.viperInst.BindEnv(key, "NANOTREE_"+strings.ToUpper(strings.ReplaceAll(key, "-", "_")))
	}
}

// changedFlags lists the flags set on the command line, for the log.
func changedFlags(cmd *cobra.Command) map[string]string {
	out := make(map[string]string)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		out[f.Name] = f.Value.String()
	})
	return out
}

func (cli *CLI) addCommands() {
	cli.addShowCommand()
	cli.addTypesCommand()
	cli.addCanSelectCommand()
	cli.addLintCommand()

	cli.addAddRootCommand()
	cli.addAddChildCommand()
	cli.addUpdateCommand()
	cli.addDeleteCommand()
	cli.addMoveCommand()
	cli.addApplyCommand()

	cli.addExportCommand()
	cli.addImportCommand()
	cli.addConfigCommand()
}

// Execute runs the command line and closes the log file.
func (cli *CLI) Execute() error {
	err := cli.rootCmd.Execute()
	if cli.logFile != nil {
		_ = cli.logFile.Close()
		cli.logFile = nil
	}
	return err
}

// openEditor opens the configured document. With --dry-run nothing the
// command does is saved.
func (cli *CLI) openEditor(op string) (*nanotree.Editor, error) {
	doc := cli.viperInst.GetString("doc")
	if doc == "" {
		return nil, NewConfigError(op, "no document file given", CommonSuggestions.CheckDoc)
	}
	policyName := cli.viperInst.GetString("dangling-policy")
	policy, err := store.ParsePolicy(policyName)
	if err != nil {
		return nil, NewValidationError(op, "dangling-policy", policyName, "Use warn or reject")
	}

	delay := cli.viperInst.GetDuration("autosave-delay")
	if delay < 0 {
		delay = 0
	}
	if cli.viperInst.GetBool("dry-run") {
		delay = -1
	}

	ed, err := nanotree.Open(doc,
		nanotree.WithLogger(cli.logger),
		nanotree.WithDanglingPolicy(policy),
		nanotree.WithAutosaveDelay(delay),
	)
	if err != nil {
		return nil, WrapError(op, err, CommonSuggestions.CheckDoc)
	}
	return ed, nil
}

// withEditor runs fn against the configured document and closes it, which
// saves whatever fn changed.
func (cli *CLI) withEditor(op string, fn func(ed *nanotree.Editor) error) error {
	ed, err := cli.openEditor(op)
	if err != nil {
		return err
	}
	start := time.Now()
	runErr := fn(ed)
	closeErr := ed.Close()
	cli.logger.Info("operation", "operation", op, "doc", ed.Path(), "duration", time.Since(start), "error", runErr)
	if runErr != nil {
		return WrapError(op, runErr)
	}
	if closeErr != nil {
		return WrapError(op, closeErr, CommonSuggestions.CheckPerms)
	}
	if cli.viperInst.GetBool("dry-run") && cli.format() == "text" && !cli.viperInst.GetBool("quiet") {
		cli.printf("dry run: %s not saved\n", ed.Path())
	}
	return nil
}

func (cli *CLI) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(cli.out, format, args...)
}

// readInput reads a file argument, "-" meaning stdin.
func (cli *CLI) readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cli.in)
	}
	return os.ReadFile(name)
}
