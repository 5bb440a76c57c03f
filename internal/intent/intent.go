// Package intent classifies a normalized utterance into one task-management
// intent with an ordered cascade of keyword rules. The first rule that holds
// wins; later rules are never consulted.
package intent

// Tag is the classified purpose of an utterance.
type Tag string

const (
	LearnVocabulary  Tag = "learn_vocabulary"
	CreateTask       Tag = "create_task"
	ListAllTasks     Tag = "list_all_tasks"
	ListTodayTasks   Tag = "list_today_tasks"
	DeleteLastTask   Tag = "delete_last_task"
	CompleteTask     Tag = "complete_task"
	StartTask        Tag = "start_task"
	UpdateTaskStatus Tag = "update_task_status"
	UpdateTaskDate   Tag = "update_task_date"
	DeleteAllTasks   Tag = "delete_all_tasks"
	DeleteTask       Tag = "delete_task"
	UpdateTaskTitle  Tag = "update_task_title"
	Identity         Tag = "identity"
	Unknown          Tag = "unknown"
)

// Tags lists every tag in cascade order, Unknown last.
var Tags = []Tag{
	LearnVocabulary,
	CreateTask,
	ListAllTasks,
	ListTodayTasks,
	DeleteLastTask,
	CompleteTask,
	StartTask,
	UpdateTaskStatus,
	UpdateTaskDate,
	DeleteAllTasks,
	DeleteTask,
	UpdateTaskTitle,
	Identity,
	Unknown,
}

// Valid reports whether t is one of the known tags.
func (t Tag) Valid() bool {
	for _, known := range Tags {
		if t == known {
			return true
		}
	}
	return false
}
