package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"quizcast/internal/app"
	"quizcast/internal/config"
	"quizcast/internal/dispatch"
	"quizcast/internal/quiz"
	logx "quizcast/pkg/logx"
	"quizcast/pkg/systemd"
)

// errSilent marks failures that were already reported to the user.
var errSilent = errors.New("silent")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintln(os.Stderr, "fatal:", err)
		}
		cancel()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quizcast",
		Short:         "Post daily quiz polls to Telegram chats",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "Optional config file (.json, .yaml); TELEGRAM_TOKEN and TELEGRAM_CHAT_IDS override it")
	pf.String("log-level", "", "Log level (trace, debug, info, warn, error); overrides logging.level")

	run := runCmd()
	root.AddCommand(run, serveCmd(), statusCmd(), validateCmd())

	// Make "run" the default when no subcommand is given.
	root.RunE = run.RunE
	return root
}

func newApp(cmd *cobra.Command) (*app.App, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")
	return app.New(cfgPath, os.LookupEnv, app.WithLogLevel(level))
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Send the next batch of questions and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.RunOnce(cmd.Context())
			if err != nil {
				a.Logger().Error("run failed", logx.Err(err))
				return errSilent
			}
			if !rep.Exhausted {
				fmt.Fprintf(cmd.OutOrStdout(), "sent questions %d..%d (%d sent, %d skipped, %d failed)\n",
					rep.From, rep.To-1,
					rep.Count(dispatch.StatusSent), rep.Count(dispatch.StatusSkipped), rep.Count(dispatch.StatusFailed))
			}
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run batches on schedule.spec and reload the config file on change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Serve(cmd.Context()); err != nil {
				a.Logger().Error("serve failed", logx.Err(err))
				return errSilent
			}
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the cursor, bank size and remaining runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.Status(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), st)

			if unit, _ := cmd.Flags().GetString("unit"); unit != "" {
				ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
				defer cancel()
				us, err := systemd.LookupUnit(ctx, unit)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "unit %s: %v\n", unit, err)
					return nil
				}
				printUnit(cmd.OutOrStdout(), us)
			}
			return nil
		},
	}
	cmd.Flags().String("unit", "", "Also show the state of this systemd unit (e.g. quizcast.timer)")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [questions-file]",
		Short: "Check a question file and list records that would be skipped",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfgPath, _ := cmd.Flags().GetString("config")
				cfg, err := config.NewConfigManager(cfgPath, os.LookupEnv).Parse()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				path = cfg.Quiz.QuestionsPath
			}

			bank, err := quiz.LoadFile(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			problems := bank.Problems()
			fmt.Fprintf(out, "%s: %d questions, %d will be skipped\n", path, bank.Len(), len(problems))
			for _, p := range problems {
				fmt.Fprintf(out, "  %s\n", p)
			}
			return nil
		},
	}
}

func printStatus(w io.Writer, st app.Status) {
	fmt.Fprintf(w, "questions: %s (%d, %d will be skipped)\n", st.QuestionsPath, st.Total, len(st.Problems))
	fmt.Fprintf(w, "cursor:    %d\n", st.Cursor)
	if st.Exhausted() {
		fmt.Fprintln(w, "remaining: 0 (all questions have been sent)")
	} else {
		fmt.Fprintf(w, "remaining: %d (%d runs of %d)\n", st.Remaining, st.RunsLeft, st.BatchSize)
	}
	if st.HasLastWrite {
		fmt.Fprintf(w, "last run:  %s\n", st.LastWrite.Format(time.RFC3339))
	} else {
		fmt.Fprintln(w, "last run:  never")
	}
}

func printUnit(w io.Writer, us systemd.UnitStatus) {
	if !us.Found() {
		fmt.Fprintf(w, "unit:      %s not found\n", us.Name)
		return
	}
	fmt.Fprintf(w, "unit:      %s %s (%s)\n", us.Name, us.Active, us.SubState)
	if !us.LastTrigger.IsZero() {
		fmt.Fprintf(w, "triggered: %s\n", us.LastTrigger.Format(time.RFC3339))
	}
	if !us.NextElapse.IsZero() {
		fmt.Fprintf(w, "next:      %s\n", us.NextElapse.Format(time.RFC3339))
	}
}
