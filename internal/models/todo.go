package models

import "time"

// Priority ranks a todo.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank orders priorities for sorting; lower ranks sort first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Suggested todo categories. Category is free text; these are only defaults.
const (
	TodoCategoryWork     = "Work"
	TodoCategoryPersonal = "Personal"
	TodoCategoryShopping = "Shopping"
)

// Todo is a one-off task. Todos never feed the streak engine.
type Todo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     string     `json:"dueDate,omitempty"`
	DueTime     string     `json:"dueTime,omitempty"`
	Priority    Priority   `json:"priority"`
	Category    string     `json:"category"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// TodoStatus filters todos by completion state.
type TodoStatus string

const (
	TodoStatusAll       TodoStatus = "all"
	TodoStatusActive    TodoStatus = "active"
	TodoStatusCompleted TodoStatus = "completed"
)

// TodoFilter narrows a todo listing. Zero values match everything.
type TodoFilter struct {
	Status   TodoStatus `json:"status,omitempty"`
	Category string     `json:"category,omitempty"`
	Priority Priority   `json:"priority,omitempty"`
}

// Match reports whether t passes the filter.
func (f TodoFilter) Match(t Todo) bool {
	switch f.Status {
	case TodoStatusActive:
		if t.Completed {
			return false
		}
	case TodoStatusCompleted:
		if !t.Completed {
			return false
		}
	}
	if f.Category != "" && f.Category != t.Category {
		return false
	}
	if f.Priority != "" && f.Priority != t.Priority {
		return false
	}
	return true
}
