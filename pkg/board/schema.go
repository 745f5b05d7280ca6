package board

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced so several boards
// deployments can share one Redis server.
//
// Key pattern: kanban:{namespace}:{entity}:{id}
// Channel pattern: kanban:{namespace}:{entity}_events

// BoardKey returns the Redis key for a board hash.
// Pattern: kanban:{namespace}:board:{board_id}
func BoardKey(namespace, boardID string) string {
	return fmt.Sprintf("kanban:%s:board:%s", namespace, boardID)
}

// BoardColumnsKey returns the Redis key for the set of column ids on a board.
// Pattern: kanban:{namespace}:board:{board_id}:columns
func BoardColumnsKey(namespace, boardID string) string {
	return fmt.Sprintf("kanban:%s:board:%s:columns", namespace, boardID)
}

// ColumnKey returns the Redis key for a column hash.
// Pattern: kanban:{namespace}:column:{column_id}
func ColumnKey(namespace, columnID string) string {
	return fmt.Sprintf("kanban:%s:column:%s", namespace, columnID)
}

// ColumnCardsKey returns the Redis key for the set of card ids in a column.
// Pattern: kanban:{namespace}:column:{column_id}:cards
func ColumnCardsKey(namespace, columnID string) string {
	return fmt.Sprintf("kanban:%s:column:%s:cards", namespace, columnID)
}

// CardKey returns the Redis key for a card hash.
// Pattern: kanban:{namespace}:card:{card_id}
func CardKey(namespace, cardID string) string {
	return fmt.Sprintf("kanban:%s:card:%s", namespace, cardID)
}

// CardEventsChannel returns the Pub/Sub channel carrying card events.
// Pattern: kanban:{namespace}:card_events
func CardEventsChannel(namespace string) string {
	return fmt.Sprintf("kanban:%s:card_events", namespace)
}

// ColumnEventsChannel returns the Pub/Sub channel carrying column events.
// Pattern: kanban:{namespace}:column_events
func ColumnEventsChannel(namespace string) string {
	return fmt.Sprintf("kanban:%s:column_events", namespace)
}
