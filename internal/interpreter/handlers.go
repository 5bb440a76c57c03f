package interpreter

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"ocastro-backend/internal/dates"
	"ocastro-backend/internal/fuzzy"
	"ocastro-backend/internal/intent"
	"ocastro-backend/internal/tasks"
)

const (
	todayPreview   = 3
	pendingPreview = 5
)

func (i *Interpreter) learnVocabulary(ctx context.Context, c command) (Result, error) {
	// Parse the utterance as spoken so an already-learned phrase can be redefined.
	phrase, meaning, ok := parseLearn(c.raw)
	if !ok {
		phrase, meaning, ok = parseLearn(c.text)
	}
	if !ok {
		return reply(msgLearnUsage), nil
	}
	if i.vocab == nil {
		return reply(msgLearnUnavailable), nil
	}

	if err := i.vocab.Learn(ctx, c.userID, phrase, meaning); err != nil {
		return Result{}, err
	}
	return replyData(msgLearned(phrase, meaning), map[string]any{
		"phrase":  phrase,
		"meaning": meaning,
	}), nil
}

func (i *Interpreter) createTask(ctx context.Context, c command) (Result, error) {
	d := runPipeline(draft{Text: c.text, Priority: tasks.PriorityMedium},
		priorityStep(i.lex.Priorities),
		dueDateStep(i.dates, c.today),
		titleStep(i.lex.CreateTriggers),
	)
	if d.Title == "" {
		return reply(msgNoTitle), nil
	}

	t := tasks.Task{
		UserID:   c.userID,
		Title:    d.Title,
		Status:   tasks.StatusInbox,
		Priority: d.Priority,
		DueDate:  tasks.Due(d.Due),
	}
	if err := i.tasks.Create(ctx, &t); err != nil {
		return Result{}, err
	}

	when := "hoje"
	if !d.Due.Equal(c.today) {
		when = d.Due.Format("02/01")
	}
	return replyData(msgCreated(t.Title, string(t.Priority), when), map[string]any{
		"task_id": t.ID,
		"title":   t.Title,
	}), nil
}

func (i *Interpreter) listAllTasks(ctx context.Context, c command) (Result, error) {
	open := tasks.Filter{NotStatus: tasks.StatusDone}

	total, err := i.tasks.Count(ctx, c.userID, open)
	if err != nil {
		return Result{}, err
	}
	if total == 0 {
		return replyData(msgNoPendingTasks, map[string]any{"count": 0, "tasks": []string{}}), nil
	}

	open.Order = tasks.OrderDueDate
	open.Limit = pendingPreview
	nearest, err := i.tasks.List(ctx, c.userID, open)
	if err != nil {
		return Result{}, err
	}

	names := titles(nearest)
	return replyData(msgPendingList(total, names), map[string]any{
		"count": total,
		"tasks": names,
	}), nil
}

func (i *Interpreter) listTodayTasks(ctx context.Context, c command) (Result, error) {
	today := c.today
	list, err := i.tasks.List(ctx, c.userID, tasks.Filter{DueOn: &today, Order: tasks.OrderDueDate})
	if err != nil {
		return Result{}, err
	}

	names := titles(list)
	if len(list) == 0 {
		return replyData(msgNoTasksToday, map[string]any{"count": 0, "tasks": names}), nil
	}

	preview := names
	if len(preview) > todayPreview {
		preview = preview[:todayPreview]
	}
	return replyData(msgTodayList(len(list), preview), map[string]any{
		"count": len(list),
		"tasks": names,
	}), nil
}

func (i *Interpreter) deleteLastTask(ctx context.Context, c command) (Result, error) {
	last, err := i.tasks.List(ctx, c.userID, tasks.Filter{Order: tasks.OrderCreatedDesc, Limit: 1})
	if err != nil {
		return Result{}, err
	}
	if len(last) == 0 {
		return reply(msgNothingToDelete), nil
	}

	t := last[0]
	if _, err := i.tasks.Delete(ctx, c.userID, t.ID); err != nil {
		return Result{}, err
	}
	return replyData(msgDeletedLast(t.Title), map[string]any{
		"deleted_task_id": t.ID,
		"title":           t.Title,
	}), nil
}

func (i *Interpreter) deleteAllTasks(ctx context.Context, c command) (Result, error) {
	n, err := i.tasks.DeleteAll(ctx, c.userID)
	if err != nil {
		i.logger.Error("Delete all tasks rolled back", zap.Int("user_id", c.userID), zap.Error(err))
		return reply(msgDeleteAllFailed), nil
	}
	if n == 0 {
		return replyData(msgNothingToDelete, map[string]any{"deleted_count": 0}), nil
	}
	return replyData(msgDeletedAll(n), map[string]any{"deleted_count": n}), nil
}

// resolve matches fragment against the user's tasks selected by f.
func (i *Interpreter) resolve(ctx context.Context, userID int, f tasks.Filter, fragment string, threshold float64) (tasks.Task, bool, error) {
	list, err := i.tasks.List(ctx, userID, f)
	if err != nil {
		return tasks.Task{}, false, err
	}
	t, ok := fuzzy.Resolve(fragment, candidates(list), threshold)
	return t, ok, nil
}

func (i *Interpreter) completeTask(ctx context.Context, c command) (Result, error) {
	frag := fragment(c.text, i.lex.drop[intent.CompleteTask], i.lex.connectives)
	if frag == "" {
		return reply(msgWhichTask("concluir")), nil
	}

	t, ok, err := i.resolve(ctx, c.userID, tasks.Filter{NotStatus: tasks.StatusDone}, frag, i.thresholds.Complete)
	if err != nil || !ok {
		return notFound(frag, err)
	}

	t.Status = tasks.StatusDone
	if err := i.tasks.Update(ctx, &t); err != nil {
		return Result{}, err
	}
	return replyData(msgCompleted(t.Title), statusData(t)), nil
}

func (i *Interpreter) startTask(ctx context.Context, c command) (Result, error) {
	frag := fragment(c.text, i.lex.drop[intent.StartTask], i.lex.connectives)
	if frag == "" {
		return reply(msgWhichTask("iniciar")), nil
	}

	t, ok, err := i.resolve(ctx, c.userID, tasks.Filter{Status: tasks.StatusInbox}, frag, i.thresholds.Start)
	if err != nil || !ok {
		return notFound(frag, err)
	}

	t.Status = tasks.StatusDoing
	if err := i.tasks.Update(ctx, &t); err != nil {
		return Result{}, err
	}
	return replyData(msgStarted(t.Title), statusData(t)), nil
}

func (i *Interpreter) updateTaskStatus(ctx context.Context, c command) (Result, error) {
	// The target usually follows the last "para"; the task comes before it.
	taskPart, targetPart := c.text, c.text
	if idx := strings.LastIndex(c.text, " para "); idx >= 0 {
		taskPart, targetPart = c.text[:idx], c.text[idx+len(" para "):]
	}

	target, ok := i.lex.matchStatus(targetPart)
	if !ok {
		target, ok = i.lex.matchStatus(c.text)
	}
	if !ok {
		return reply(msgAskStatus), nil
	}

	drop := i.lex.drop[intent.UpdateTaskStatus]
	if taskPart == c.text {
		drop = union(drop, i.lex.statusWords)
	}
	frag := fragment(taskPart, drop, i.lex.connectives)
	if frag == "" {
		return reply(msgWhichTask("atualizar")), nil
	}

	t, found, err := i.resolve(ctx, c.userID, tasks.Filter{}, frag, i.thresholds.Status)
	if err != nil || !found {
		return notFound(frag, err)
	}

	t.Status = target
	if err := i.tasks.Update(ctx, &t); err != nil {
		return Result{}, err
	}
	return replyData(msgStatusUpdated(t.Title, target.Label()), statusData(t)), nil
}

func (i *Interpreter) updateTaskDate(ctx context.Context, c command) (Result, error) {
	frag := fragment(stripDatePhrases(c.text), i.lex.drop[intent.UpdateTaskDate], i.lex.connectives)
	if frag == "" {
		return reply(msgWhichTask("reagendar")), nil
	}

	t, ok, err := i.resolve(ctx, c.userID, tasks.Filter{NotStatus: tasks.StatusDone}, frag, i.thresholds.Date)
	if err != nil || !ok {
		return notFound(frag, err)
	}

	due, ok := i.dates.Parse(c.text, c.today)
	if !ok {
		return replyData(msgDateNotUnderstood(t.Title), map[string]any{"task_id": t.ID, "title": t.Title}), nil
	}

	t.DueDate = tasks.Due(due)
	if err := i.tasks.Update(ctx, &t); err != nil {
		return Result{}, err
	}
	return replyData(msgDateUpdated(t.Title, due), map[string]any{
		"task_id":  t.ID,
		"title":    t.Title,
		"due_date": dates.ISO(due),
	}), nil
}

func (i *Interpreter) deleteTask(ctx context.Context, c command) (Result, error) {
	frag := fragment(c.text, i.lex.drop[intent.DeleteTask], i.lex.connectives)
	if frag == "" {
		return reply(msgWhichTask("excluir")), nil
	}

	t, ok, err := i.resolve(ctx, c.userID, tasks.Filter{}, frag, i.thresholds.Delete)
	if err != nil || !ok {
		return notFound(frag, err)
	}

	if _, err := i.tasks.Delete(ctx, c.userID, t.ID); err != nil {
		return Result{}, err
	}
	return replyData(msgDeleted(t.Title), map[string]any{
		"deleted_task_id": t.ID,
		"title":           t.Title,
	}), nil
}

func (i *Interpreter) updateTaskTitle(ctx context.Context, c command) (Result, error) {
	clause, newTitle, ok := splitTitleChange(c.text)
	newTitle = capitalize(collapse(strings.Trim(newTitle, punct+" ")))
	if !ok || newTitle == "" {
		return reply(msgAskNewTitle), nil
	}

	frag := fragment(clause, i.lex.drop[intent.UpdateTaskTitle], i.lex.connectives)
	if frag == "" {
		return reply(msgWhichTask("renomear")), nil
	}

	list, err := i.tasks.List(ctx, c.userID, tasks.Filter{})
	if err != nil {
		return Result{}, err
	}
	t, found := fuzzy.ExactOrContained(frag, candidates(list))
	if !found {
		return reply(msgNotFound(frag)), nil
	}

	oldTitle := t.Title
	t.Title = newTitle
	if err := i.tasks.Update(ctx, &t); err != nil {
		return Result{}, err
	}
	return replyData(msgRenamed(oldTitle, newTitle), map[string]any{
		"task_id":   t.ID,
		"old_title": oldTitle,
		"title":     newTitle,
	}), nil
}

func (i *Interpreter) identity(context.Context, command) (Result, error) {
	return reply(msgIdentity), nil
}

func (i *Interpreter) unknown(_ context.Context, c command) (Result, error) {
	if i.lex.isGreeting(c.text) {
		return reply(msgGreeting), nil
	}
	return reply(msgUnknown), nil
}

func notFound(frag string, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	return reply(msgNotFound(frag)), nil
}

func statusData(t tasks.Task) map[string]any {
	return map[string]any{"task_id": t.ID, "title": t.Title, "status": t.Status}
}

func candidates(list []tasks.Task) []fuzzy.Candidate[tasks.Task] {
	out := make([]fuzzy.Candidate[tasks.Task], len(list))
	for k, t := range list {
		out[k] = fuzzy.Candidate[tasks.Task]{Item: t, Title: t.Title}
	}
	return out
}

func titles(list []tasks.Task) []string {
	out := make([]string, len(list))
	for k, t := range list {
		out[k] = t.Title
	}
	return out
}

func union(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}
