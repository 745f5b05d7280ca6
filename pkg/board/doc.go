// Package board defines the canonical kanban model and the Redis-backed remote
// that stores it.
//
// # Model
//
// A Board holds ordered Columns, and each Column holds ordered Cards. Positions
// are 1-based and contiguous within a column. Every entity carries a
// LastModifiedDate that drives last-write-wins merging: an incoming value only
// replaces a stored one when its timestamp is strictly newer.
//
// Optional fields are pointers. A nil pointer means the source did not supply
// the field, which is different from an empty string. Positions use NoPosition
// and timestamps use the zero time for the same purpose.
//
// BoardState is the client view of one board, and RootState maps board ids to
// BoardState. A RootState keeps the state it was derived from, one level deep,
// so that a failed optimistic update can be rolled back.
//
// # Wire records and events
//
// BoardRecord, ColumnRecord and CardRecord are the raw shapes returned by the
// remote. CardEvent and ColumnEvent are the push payloads, discriminated by
// EventType__c (CardCreate, CardUpdate, CardDelete and the Column variants).
//
// # Redis Schema
//
// All Redis keys follow the pattern: kanban:{namespace}:{entity}:{id}
//
// Boards: kanban:{namespace}:board:{board_id}
// Board columns (set): kanban:{namespace}:board:{board_id}:columns
// Columns: kanban:{namespace}:column:{column_id}
// Column cards (set): kanban:{namespace}:column:{column_id}:cards
// Cards: kanban:{namespace}:card:{card_id}
//
// Card Events: kanban:{namespace}:card_events
// Column Events: kanban:{namespace}:column_events
//
// # Usage Example
//
//	client, err := board.NewClient(&redis.Options{Addr: "localhost:6379"}, "default")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	data, err := client.FetchBoardData(ctx, "b1")
//	if board.IsNotFound(err) {
//		// unknown board
//	}
package board
