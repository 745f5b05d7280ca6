package board

import (
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
)

// Serialization helpers for converting between wire records and Redis hashes.
//
// Optional record fields are written only when present, so a missing hash field
// reads back as an absent (nil) value rather than an empty string.

// BoardToHash converts a board record to a Redis hash.
func BoardToHash(b *BoardRecord) map[string]interface{} {
	hash := map[string]interface{}{
		"id":                 b.ID,
		"last_modified_date": b.LastModifiedDate,
	}
	putString(hash, "name", b.Name)
	return hash
}

// HashToBoard converts a Redis hash to a board record.
func HashToBoard(hash map[string]string) *BoardRecord {
	return &BoardRecord{
		ID:               hash["id"],
		Name:             getString(hash, "name"),
		LastModifiedDate: hash["last_modified_date"],
	}
}

// ColumnToHash converts a column record to a Redis hash.
func ColumnToHash(c *ColumnRecord) map[string]interface{} {
	hash := map[string]interface{}{
		"id":                 c.ID,
		"last_modified_date": c.LastModifiedDate,
	}
	putString(hash, "name", c.Name)
	putString(hash, "board_id", c.BoardID)
	putString(hash, "header", c.Header)
	putString(hash, "color", c.Color)
	putString(hash, "status", c.Status)
	if c.Position != nil {
		hash["position"] = *c.Position
	}
	return hash
}

// HashToColumn converts a Redis hash to a column record.
func HashToColumn(hash map[string]string) (*ColumnRecord, error) {
	position, err := getInt(hash, "position")
	if err != nil {
		return nil, err
	}
	return &ColumnRecord{
		ID:               hash["id"],
		Name:             getString(hash, "name"),
		BoardID:          getString(hash, "board_id"),
		Header:           getString(hash, "header"),
		Color:            getString(hash, "color"),
		Position:         position,
		Status:           getString(hash, "status"),
		LastModifiedDate: hash["last_modified_date"],
	}, nil
}

// CardToHash converts a card record to a Redis hash.
// The related assignee is flattened into assignee_name and assignee_photo.
func CardToHash(c *CardRecord) map[string]interface{} {
	hash := map[string]interface{}{
		"id":                 c.ID,
		"last_modified_date": c.LastModifiedDate,
	}
	putString(hash, "name", c.Name)
	putString(hash, "column_id", c.ColumnID)
	putString(hash, "subject", c.Subject)
	putString(hash, "status", c.Status)
	putString(hash, "assignee_id", c.AssigneeID)
	putString(hash, "card_type", c.CardType)
	putString(hash, "priority", c.Priority)
	putString(hash, "color", c.Color)
	if c.Assignee != nil {
		putString(hash, "assignee_name", c.Assignee.Name)
		putString(hash, "assignee_photo", c.Assignee.SmallPhotoURL)
	}
	if c.StoryPoints != nil {
		hash["story_points"] = strconv.FormatFloat(*c.StoryPoints, 'f', -1, 64)
	}
	if c.Position != nil {
		hash["position"] = *c.Position
	}
	return hash
}

// HashToCard converts a Redis hash to a card record.
func HashToCard(hash map[string]string) (*CardRecord, error) {
	position, err := getInt(hash, "position")
	if err != nil {
		return nil, err
	}

	var storyPoints *float64
	if raw, ok := hash["story_points"]; ok {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid story_points field: %w", err)
		}
		storyPoints = &v
	}

	card := &CardRecord{
		ID:               hash["id"],
		Name:             getString(hash, "name"),
		ColumnID:         getString(hash, "column_id"),
		Subject:          getString(hash, "subject"),
		Status:           getString(hash, "status"),
		AssigneeID:       getString(hash, "assignee_id"),
		CardType:         getString(hash, "card_type"),
		Priority:         getString(hash, "priority"),
		StoryPoints:      storyPoints,
		Color:            getString(hash, "color"),
		Position:         position,
		LastModifiedDate: hash["last_modified_date"],
	}

	name, photo := getString(hash, "assignee_name"), getString(hash, "assignee_photo")
	if name != nil || photo != nil {
		card.Assignee = &UserRef{Name: name, SmallPhotoURL: photo}
	}

	return card, nil
}

// EncodeCardEvent marshals a card event payload for publishing.
func EncodeCardEvent(ev CardEvent) ([]byte, error) {
	data, err := sonic.ConfigStd.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal card event: %w", err)
	}
	return data, nil
}

// DecodeCardEvent unmarshals a card event payload.
func DecodeCardEvent(data []byte) (*CardEvent, error) {
	var ev CardEvent
	if err := sonic.ConfigStd.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal card event: %w", err)
	}
	return &ev, nil
}

// EncodeColumnEvent marshals a column event payload for publishing.
func EncodeColumnEvent(ev ColumnEvent) ([]byte, error) {
	data, err := sonic.ConfigStd.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal column event: %w", err)
	}
	return data, nil
}

// DecodeColumnEvent unmarshals a column event payload.
func DecodeColumnEvent(data []byte) (*ColumnEvent, error) {
	var ev ColumnEvent
	if err := sonic.ConfigStd.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal column event: %w", err)
	}
	return &ev, nil
}

func putString(hash map[string]interface{}, field string, v *string) {
	if v != nil {
		hash[field] = *v
	}
}

func getString(hash map[string]string, field string) *string {
	v, ok := hash[field]
	if !ok {
		return nil
	}
	return &v
}

func getInt(hash map[string]string, field string) (*int, error) {
	raw, ok := hash[field]
	if !ok {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s field: %w", field, err)
	}
	return &v, nil
}
