package reducer

import (
	"github.com/dyluth/kanban/internal/ordering"
	"github.com/dyluth/kanban/pkg/board"
)

// Action kind names, as reported by Action.Kind.
const (
	KindInitializeBoard = "INITIALIZE_BOARD"
	KindSetLoading      = "SET_LOADING"
	KindError           = "ERROR"
	KindCreateCard      = "CREATE_CARD"
	KindUpdateCard      = "UPDATE_CARD"
	KindUpdateCards     = "UPDATE_CARDS"
	KindDeleteCard      = "DELETE_CARD"
	KindMoveCard        = "MOVE_CARD"
	KindUpsertCard      = "UPSERT_CARD"
	KindUpsertCards     = "UPSERT_CARDS"
	KindUpdateColumn    = "UPDATE_COLUMN"
	KindDeleteColumn    = "DELETE_COLUMN"
	KindUpsertColumn    = "UPSERT_COLUMN"
)

// Action is an immutable description of a state change.
// The set of actions is closed: only types in this package implement it.
type Action interface {
	Kind() string
	isAction()
}

// InitializeBoard replaces a board's state wholesale and clears its loading flag.
type InitializeBoard struct {
	BoardID string
	Board   board.Board
	Columns []board.Column
	Cards   []board.Card
}

// SetLoading flips a board's loading flag.
type SetLoading struct {
	BoardID   string
	IsLoading bool
}

// SetError records an error message. With Revert set, the state the current
// one was derived from is restored first.
type SetError struct {
	Message string
	Revert  bool
}

// CreateCard appends a card verbatim.
type CreateCard struct {
	BoardID string
	Card    board.Card
}

// UpdateCard applies a patch to one card if the patch is newer.
type UpdateCard struct {
	BoardID string
	Patch   board.CardPatch
}

// UpdateCards merges newer cards and appends unknown ones.
type UpdateCards struct {
	BoardID string
	Cards   []board.Card
}

// DeleteCard removes a card by id.
type DeleteCard struct {
	BoardID string
	CardID  string
}

// MoveCard moves a card and renumbers the affected columns.
type MoveCard struct {
	BoardID string
	Move    ordering.Move
}

// UpsertCard inserts a card, or replaces an older stored one.
type UpsertCard struct {
	BoardID string
	Card    board.Card
}

// UpsertCards merges newer cards and appends unknown ones, creating the board if needed.
type UpsertCards struct {
	BoardID string
	Cards   []board.Card
}

// UpdateColumn applies a patch to one column if the patch is newer.
type UpdateColumn struct {
	BoardID string
	Patch   board.ColumnPatch
}

// DeleteColumn removes a column and the cards it holds.
type DeleteColumn struct {
	BoardID  string
	ColumnID string
}

// UpsertColumn inserts a column, or replaces an older stored one.
type UpsertColumn struct {
	BoardID string
	Column  board.Column
}

func (InitializeBoard) Kind() string { return KindInitializeBoard }
func (SetLoading) Kind() string      { return KindSetLoading }
func (SetError) Kind() string        { return KindError }
func (CreateCard) Kind() string      { return KindCreateCard }
func (UpdateCard) Kind() string      { return KindUpdateCard }
func (UpdateCards) Kind() string     { return KindUpdateCards }
func (DeleteCard) Kind() string      { return KindDeleteCard }
func (MoveCard) Kind() string        { return KindMoveCard }
func (UpsertCard) Kind() string      { return KindUpsertCard }
func (UpsertCards) Kind() string     { return KindUpsertCards }
func (UpdateColumn) Kind() string    { return KindUpdateColumn }
func (DeleteColumn) Kind() string    { return KindDeleteColumn }
func (UpsertColumn) Kind() string    { return KindUpsertColumn }

func (InitializeBoard) isAction() {}
func (SetLoading) isAction()      {}
func (SetError) isAction()        {}
func (CreateCard) isAction()      {}
func (UpdateCard) isAction()      {}
func (UpdateCards) isAction()     {}
func (DeleteCard) isAction()      {}
func (MoveCard) isAction()        {}
func (UpsertCard) isAction()      {}
func (UpsertCards) isAction()     {}
func (UpdateColumn) isAction()    {}
func (DeleteColumn) isAction()    {}
func (UpsertColumn) isAction()    {}
