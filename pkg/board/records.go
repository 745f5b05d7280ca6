package board

// Wire records are the raw shapes returned by the remote fetch and mutation
// endpoints. Field names follow the platform's custom-object naming; absent
// fields decode to nil and are mapped by internal/mapper.

// BoardRecord is the raw board object.
type BoardRecord struct {
	ID               string  `json:"Id"`
	Name             *string `json:"Name,omitempty"`
	LastModifiedDate string  `json:"LastModifiedDate,omitempty"`
}

// ColumnRecord is the raw column object.
type ColumnRecord struct {
	ID               string  `json:"Id"`
	Name             *string `json:"Name,omitempty"`
	BoardID          *string `json:"Board__c,omitempty"`
	Header           *string `json:"ColumnHeader__c,omitempty"`
	Color            *string `json:"Color__c,omitempty"`
	Position         *int    `json:"Position__c,omitempty"`
	Status           *string `json:"Status__c,omitempty"`
	LastModifiedDate string  `json:"LastModifiedDate,omitempty"`
}

// UserRef is the related assignee user of a card record.
type UserRef struct {
	Name          *string `json:"Name,omitempty"`
	SmallPhotoURL *string `json:"SmallPhotoUrl,omitempty"`
}

// CardRecord is the raw card object.
type CardRecord struct {
	ID               string   `json:"Id"`
	Name             *string  `json:"Name,omitempty"`
	ColumnID         *string  `json:"Column__c,omitempty"`
	Subject          *string  `json:"Subject__c,omitempty"`
	Status           *string  `json:"Status__c,omitempty"`
	AssigneeID       *string  `json:"Assignee__c,omitempty"`
	Assignee         *UserRef `json:"Assignee__r,omitempty"`
	CardType         *string  `json:"CardType__c,omitempty"`
	Priority         *string  `json:"Priority__c,omitempty"`
	StoryPoints      *float64 `json:"StoryPoints__c,omitempty"`
	Color            *string  `json:"Color__c,omitempty"`
	Position         *int     `json:"Position__c,omitempty"`
	LastModifiedDate string   `json:"LastModifiedDate,omitempty"`
}

// BoardData is the result of a board fetch.
type BoardData struct {
	Board   *BoardRecord   `json:"board"`
	Columns []ColumnRecord `json:"columns"`
	Cards   []CardRecord   `json:"cards"`
}

// CardPosition is one entry of a batched position update.
type CardPosition struct {
	CardID   string  `json:"cardId"`
	ColumnID string  `json:"columnId"`
	Position int     `json:"position"`
	Status   *string `json:"status,omitempty"`
}

// Event type discriminators carried in EventType__c.
const (
	EventCardCreate   = "CardCreate"
	EventCardUpdate   = "CardUpdate"
	EventCardDelete   = "CardDelete"
	EventColumnCreate = "ColumnCreate"
	EventColumnUpdate = "ColumnUpdate"
	EventColumnDelete = "ColumnDelete"
)

// CardEvent is the payload published on the card events channel.
type CardEvent struct {
	EventType        string   `json:"EventType__c"`
	CardID           *string  `json:"CardId__c,omitempty"`
	ColumnID         *string  `json:"ColumnId__c,omitempty"`
	Name             *string  `json:"CardName__c,omitempty"`
	Subject          *string  `json:"CardSubject__c,omitempty"`
	Status           *string  `json:"CardStatus__c,omitempty"`
	AssigneeID       *string  `json:"AssigneeId__c,omitempty"`
	CardType         *string  `json:"CardType__c,omitempty"`
	Priority         *string  `json:"CardPriority__c,omitempty"`
	StoryPoints      *float64 `json:"StoryPoints__c,omitempty"`
	Color            *string  `json:"CardColor__c,omitempty"`
	Position         *int     `json:"CardPosition__c,omitempty"`
	LastModifiedDate *string  `json:"LastModifiedDate__c,omitempty"`
}

// ColumnEvent is the payload published on the column events channel.
type ColumnEvent struct {
	EventType        string  `json:"EventType__c"`
	ColumnID         *string `json:"ColumnId__c,omitempty"`
	BoardID          *string `json:"BoardId__c,omitempty"`
	Name             *string `json:"ColumnName__c,omitempty"`
	Header           *string `json:"ColumnHeader__c,omitempty"`
	Color            *string `json:"ColumnColor__c,omitempty"`
	Position         *int    `json:"ColumnPosition__c,omitempty"`
	Status           *string `json:"ColumnStatus__c,omitempty"`
	LastModifiedDate *string `json:"LastModifiedDate__c,omitempty"`
}

// CardEventFromRecord builds the event payload announcing a change to r.
func CardEventFromRecord(eventType string, r CardRecord) CardEvent {
	id := r.ID
	ev := CardEvent{
		EventType:   eventType,
		CardID:      &id,
		ColumnID:    r.ColumnID,
		Name:        r.Name,
		Subject:     r.Subject,
		Status:      r.Status,
		AssigneeID:  r.AssigneeID,
		CardType:    r.CardType,
		Priority:    r.Priority,
		StoryPoints: r.StoryPoints,
		Color:       r.Color,
		Position:    r.Position,
	}
	if r.LastModifiedDate != "" {
		ts := r.LastModifiedDate
		ev.LastModifiedDate = &ts
	}
	return ev
}

// ColumnEventFromRecord builds the event payload announcing a change to r.
func ColumnEventFromRecord(eventType string, r ColumnRecord) ColumnEvent {
	id := r.ID
	ev := ColumnEvent{
		EventType: eventType,
		ColumnID:  &id,
		BoardID:   r.BoardID,
		Name:      r.Name,
		Header:    r.Header,
		Color:     r.Color,
		Position:  r.Position,
		Status:    r.Status,
	}
	if r.LastModifiedDate != "" {
		ts := r.LastModifiedDate
		ev.LastModifiedDate = &ts
	}
	return ev
}
