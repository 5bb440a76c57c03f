package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ocastro-backend/internal/dates"
	"ocastro-backend/internal/db"
	"ocastro-backend/internal/intent"
	"ocastro-backend/internal/interpreter"
	"ocastro-backend/internal/logging"
	"ocastro-backend/internal/tasks"
	"ocastro-backend/internal/vocabulary"
)

type options struct {
	dbPath  string
	userID  int
	today   string
	rules   string
	verbose bool
}

// env is what every subcommand needs, opened from the persistent flags.
type env struct {
	db     *db.DB
	repo   *tasks.SQLRepository
	vocab  *vocabulary.Service
	interp *interpreter.Interpreter
}

func (o *options) open() (*env, error) {
	if o.userID <= 0 {
		return nil, fmt.Errorf("--user must be positive")
	}

	now, loc := time.Now, time.Local
	if o.today != "" {
		day, err := dates.ParseISO(o.today)
		if err != nil {
			return nil, fmt.Errorf("--today: %w", err)
		}
		now, loc = func() time.Time { return day }, time.UTC
	}

	var rules []intent.Rule
	if o.rules != "" {
		f, err := os.Open(o.rules)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if rules, err = intent.LoadRules(f); err != nil {
			return nil, err
		}
	}

	logger := zap.NewNop()
	if o.verbose {
		l, err := logging.New("debug", "development")
		if err != nil {
			return nil, err
		}
		logger = l
	}

	dbx, err := db.OpenSQLite(o.dbPath)
	if err != nil {
		return nil, err
	}

	repo := tasks.NewSQLRepository(dbx)
	vocab := vocabulary.NewService(vocabulary.NewSQLStore(dbx))
	return &env{
		db:    dbx,
		repo:  repo,
		vocab: vocab,
		interp: interpreter.New(interpreter.Options{
			Tasks:      repo,
			Vocabulary: vocab,
			Rules:      rules,
			Location:   loc,
			Now:        now,
			Logger:     logger,
		}),
	}, nil
}

func newRootCmd() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "ocastro",
		Short: "Talk to your task list from the terminal",
		Long: `ocastro interprets pt-BR commands against a local task database.

Available subcommands:
  say   - Interpret one command and print the result as JSON
  learn - Teach a phrase to the interpreter
  vocab - List learned phrases
  tasks - List tasks`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&o.dbPath, "db", "ocastro.db", "SQLite database path")
	root.PersistentFlags().IntVar(&o.userID, "user", 1, "user id the commands run as")
	root.PersistentFlags().StringVar(&o.today, "today", "", "override the current date (YYYY-MM-DD)")
	root.PersistentFlags().StringVar(&o.rules, "rules", "", "YAML intent rule table")
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(sayCmd(o), learnCmd(o), vocabCmd(o), tasksCmd(o))
	return root
}

func sayCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "say <text...>",
		Short:   "Interpret one command",
		Example: `  ocastro say nova tarefa comprar pão para amanhã`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open()
			if err != nil {
				return err
			}
			defer e.db.Close()

			res, err := e.interp.Interpret(cmd.Context(), o.userID, strings.Join(args, " "))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(res)
		},
	}
}

func learnCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "learn <phrase> <meaning>",
		Short:   "Teach a phrase",
		Example: `  ocastro learn detonar excluir`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.open()
			if err != nil {
				return err
			}
			defer e.db.Close()

			if err := e.vocab.Learn(cmd.Context(), o.userID, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q → %q\n", args[0], args[1])
			return nil
		},
	}
}

func vocabCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "vocab",
		Short: "List learned phrases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := o.open()
			if err != nil {
				return err
			}
			defer e.db.Close()

			v, err := e.vocab.List(cmd.Context(), o.userID)
			if err != nil {
				return err
			}
			phrases := make([]string, 0, len(v))
			for p := range v {
				phrases = append(phrases, p)
			}
			sort.Strings(phrases)
			for _, p := range phrases {
				fmt.Fprintf(cmd.OutOrStdout(), "%s → %s\n", p, v[p])
			}
			return nil
		},
	}
}

func tasksCmd(o *options) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks, nearest due date first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := tasks.Filter{Order: tasks.OrderDueDate}
			if status != "" {
				s, ok := tasks.ParseStatus(status)
				if !ok {
					return fmt.Errorf("unknown status %q", status)
				}
				f.Status = s
			}

			e, err := o.open()
			if err != nil {
				return err
			}
			defer e.db.Close()

			list, err := e.repo.List(cmd.Context(), o.userID, f)
			if err != nil {
				return err
			}
			for _, t := range list {
				due := "-"
				if t.DueDate != nil {
					due = dates.ISO(*t.DueDate)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "#%d\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, due, t.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only tasks in this status (ENTRADA, FAZENDO, CONCLUIDA)")
	return cmd
}
