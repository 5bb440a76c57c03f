// Package interpreter turns a transcribed pt-BR utterance into one task
// operation and a spoken reply.
//
// The flow is fixed: vocabulary substitution, intent classification, entity
// extraction for the matched intent, then a single repository call.
// Malformed or ambiguous input always ends in a user-facing message; only
// storage failures are returned as errors.
package interpreter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ocastro-backend/internal/dates"
	"ocastro-backend/internal/intent"
	"ocastro-backend/internal/tasks"
)

// TaskRepository is the task store the interpreter reads and mutates. Each
// call is atomic and visible to the next one.
type TaskRepository interface {
	List(ctx context.Context, userID int, f tasks.Filter) ([]tasks.Task, error)
	Count(ctx context.Context, userID int, f tasks.Filter) (int, error)
	Create(ctx context.Context, t *tasks.Task) error
	Update(ctx context.Context, t *tasks.Task) error
	Delete(ctx context.Context, userID, id int) (int, error)
	DeleteAll(ctx context.Context, userID int) (int, error)
}

// Vocabulary rewrites learned phrases and learns new ones.
type Vocabulary interface {
	Rewrite(ctx context.Context, userID int, text string) (string, error)
	Learn(ctx context.Context, userID int, phrase, meaning string) error
}

// Thresholds are the minimum similarity scores for matching a spoken
// fragment to a task title, per intent.
type Thresholds struct {
	Date     float64
	Complete float64
	Start    float64
	Status   float64
	Delete   float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Date: 0.60, Complete: 0.65, Start: 0.70, Status: 0.70, Delete: 0.70}
}

// Result is the reply to one utterance. Data is nil when nothing applies.
type Result struct {
	Intent       intent.Tag     `json:"intent"`
	Message      string         `json:"message"`
	Data         map[string]any `json:"data"`
	TriggerAudio bool           `json:"trigger_audio"`
}

type Options struct {
	Tasks      TaskRepository
	Vocabulary Vocabulary
	// Rules defaults to intent.DefaultRules.
	Rules []intent.Rule
	// Months defaults to dates.DefaultMonths.
	Months     dates.Months
	Lexicon    *Lexicon
	Thresholds *Thresholds
	// Location decides what "today" is. Defaults to UTC.
	Location *time.Location
	Now      func() time.Time
	Logger   *zap.Logger
}

type Interpreter struct {
	tasks      TaskRepository
	vocab      Vocabulary
	classifier *intent.Classifier
	dates      *dates.Parser
	lex        *lexicon
	thresholds Thresholds
	loc        *time.Location
	now        func() time.Time
	logger     *zap.Logger
	handlers   map[intent.Tag]handler
}

// command is one utterance after vocabulary substitution.
type command struct {
	userID int
	raw    string
	text   string
	today  time.Time
}

type handler func(ctx context.Context, c command) (Result, error)

func New(opts Options) *Interpreter {
	i := &Interpreter{
		tasks:      opts.Tasks,
		vocab:      opts.Vocabulary,
		classifier: intent.NewClassifier(opts.Rules),
		thresholds: DefaultThresholds(),
		loc:        opts.Location,
		now:        opts.Now,
		logger:     opts.Logger,
	}

	months := opts.Months
	if months == nil {
		months = dates.DefaultMonths()
	}
	i.dates = dates.NewParser(months)

	lex := DefaultLexicon()
	if opts.Lexicon != nil {
		lex = *opts.Lexicon
	}
	i.lex = compileLexicon(lex)

	if opts.Thresholds != nil {
		i.thresholds = *opts.Thresholds
	}
	if i.loc == nil {
		i.loc = time.UTC
	}
	if i.now == nil {
		i.now = time.Now
	}
	if i.logger == nil {
		i.logger = zap.NewNop()
	}
	i.logger = i.logger.Named("interpreter")

	i.handlers = map[intent.Tag]handler{
		intent.LearnVocabulary:  i.learnVocabulary,
		intent.CreateTask:       i.createTask,
		intent.ListAllTasks:     i.listAllTasks,
		intent.ListTodayTasks:   i.listTodayTasks,
		intent.DeleteLastTask:   i.deleteLastTask,
		intent.CompleteTask:     i.completeTask,
		intent.StartTask:        i.startTask,
		intent.UpdateTaskStatus: i.updateTaskStatus,
		intent.UpdateTaskDate:   i.updateTaskDate,
		intent.DeleteAllTasks:   i.deleteAllTasks,
		intent.DeleteTask:       i.deleteTask,
		intent.UpdateTaskTitle:  i.updateTaskTitle,
		intent.Identity:         i.identity,
		intent.Unknown:          i.unknown,
	}
	return i
}

// Today is the current calendar day in the interpreter's location.
func (i *Interpreter) Today() time.Time {
	return dates.Day(i.now().In(i.loc))
}

// Interpret runs one utterance for userID to completion.
func (i *Interpreter) Interpret(ctx context.Context, userID int, text string) (Result, error) {
	start := time.Now()

	raw := collapse(strings.ToLower(text))
	rewritten := raw
	if i.vocab != nil {
		var err error
		rewritten, err = i.vocab.Rewrite(ctx, userID, raw)
		if err != nil {
			return Result{}, fmt.Errorf("apply vocabulary: %w", err)
		}
	}

	tag := i.classifier.Classify(rewritten)
	c := command{userID: userID, raw: raw, text: rewritten, today: i.Today()}

	res, err := i.handlers[tag](ctx, c)
	if err != nil {
		i.logger.Error("Command failed",
			zap.Int("user_id", userID),
			zap.String("intent", string(tag)),
			zap.Error(err))
		return Result{}, fmt.Errorf("%s: %w", tag, err)
	}

	res.Intent = tag
	res.TriggerAudio = true

	i.logger.Info("Command interpreted",
		zap.Int("user_id", userID),
		zap.String("intent", string(tag)),
		zap.Int("text_len", len(raw)),
		zap.Bool("rewritten", rewritten != raw),
		zap.Duration("latency", time.Since(start)))
	return res, nil
}

func reply(msg string) Result {
	return Result{Message: msg}
}

func replyData(msg string, data map[string]any) Result {
	return Result{Message: msg, Data: data}
}
