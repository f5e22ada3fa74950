package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iudanet/fitshare/internal/client/iocli"
	"github.com/iudanet/fitshare/internal/config"
)

// BuildInfo - версия сборки, задается через ldflags
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// annotationNoStore помечает команды, которым не нужны конфигурация и хранилище
const annotationNoStore = "fitshare/no-store"

// Command возвращает дерево команд для уже собранного Cli
func (c *Cli) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "fitshare",
		Short:         "fitshare client: share trainings, browse the feed",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.io)

	root.AddCommand(
		c.registerCommand(),
		c.loginCommand(),
		c.googleLoginCommand(),
		c.logoutCommand(),
		c.statusCommand(),
		c.meCommand(),
		c.profileCommand(),
		c.feedCommand(),
		c.likedCommand(),
		c.postCommand(),
		c.typesCommand(),
		c.citiesCommand(),
	)
	return root
}

// NewRootCommand создает корневую команду. Конфигурация и хранилище
// открываются перед выполнением подкоманды и закрываются после.
func NewRootCommand(stdio iocli.IO, info BuildInfo) *cobra.Command {
	var (
		configPath string
		passwords  Passphrases
	)

	c := &Cli{io: stdio}
	root := c.Command()
	root.Version = info.Version
	root.SetVersionTemplate(fmt.Sprintf("fitshare client\nVersion:    %s\nBuild Date: %s\nGit Commit: %s\n",
		info.Version, info.BuildDate, info.GitCommit))
	root.Long = "fitshare client: share trainings, browse the feed.\n\n" + config.Usage()

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the config file (default: $"+config.PathEnv+" or ./"+config.LocalFile+")")
	root.PersistentFlags().StringVar(&passwords.FromFile, "passphrase-file", "", "path to a file containing the store passphrase")
	root.PersistentFlags().StringVar(&passwords.FromArgs, "passphrase", "", "store passphrase (not recommended, use $"+PassphraseEnv+" or a file)")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if cmd.Annotations[annotationNoStore] != "" {
			return nil
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		opened, err := Open(cmd.Context(), cfg, stdio, NewLogger(cfg, cmd.ErrOrStderr()), passwords)
		if err != nil {
			return err
		}
		*c = *opened
		return nil
	}
	root.PersistentPostRunE = func(*cobra.Command, []string) error {
		return c.Close()
	}

	root.InitDefaultHelpCmd()
	root.InitDefaultCompletionCmd()
	for _, cmd := range root.Commands() {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			markNoStore(cmd)
		}
	}
	return root
}

func markNoStore(cmd *cobra.Command) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationNoStore] = "true"
	for _, sub := range cmd.Commands() {
		markNoStore(sub)
	}
}

// Execute запускает CLI и возвращает код выхода
func Execute(ctx context.Context, stdio iocli.IO, info BuildInfo, args []string) int {
	root := NewRootCommand(stdio, info)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
