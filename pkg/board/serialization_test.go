package board

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toStringHash mimics what HGETALL returns for a hash written with HSET.
func toStringHash(t *testing.T, hash map[string]interface{}) map[string]string {
	t.Helper()
	out := make(map[string]string, len(hash))
	for k, v := range hash {
		switch val := v.(type) {
		case string:
			out[k] = val
		case int:
			out[k] = strconv.Itoa(val)
		default:
			t.Fatalf("unexpected hash value type %T for %s", v, k)
		}
	}
	return out
}

func TestCardHashKeepsAbsentFieldsAbsent(t *testing.T) {
	pos := 2
	points := 3.5
	card := &CardRecord{
		ID:               "k1",
		ColumnID:         StringPtr("c1"),
		Subject:          StringPtr(""),
		Position:         &pos,
		StoryPoints:      &points,
		Assignee:         &UserRef{Name: StringPtr("Ada")},
		LastModifiedDate: "2024-01-02T03:04:05.000Z",
	}

	hash := CardToHash(card)
	assert.NotContains(t, hash, "name")
	assert.NotContains(t, hash, "assignee_photo")
	assert.Equal(t, "", hash["subject"])

	back, err := HashToCard(toStringHash(t, hash))
	require.NoError(t, err)

	assert.Nil(t, back.Name)
	require.NotNil(t, back.Subject)
	assert.Equal(t, "", *back.Subject)
	assert.Equal(t, 2, *back.Position)
	assert.Equal(t, 3.5, *back.StoryPoints)
	require.NotNil(t, back.Assignee)
	assert.Equal(t, "Ada", *back.Assignee.Name)
	assert.Nil(t, back.Assignee.SmallPhotoURL)
	assert.Equal(t, card.LastModifiedDate, back.LastModifiedDate)
}

func TestHashToCardRejectsBadNumbers(t *testing.T) {
	_, err := HashToCard(map[string]string{"id": "k1", "position": "first"})
	assert.ErrorContains(t, err, "invalid position field")

	_, err = HashToCard(map[string]string{"id": "k1", "story_points": "lots"})
	assert.ErrorContains(t, err, "invalid story_points field")
}

func TestColumnHash(t *testing.T) {
	pos := 1
	col := &ColumnRecord{ID: "c1", BoardID: StringPtr("b1"), Header: StringPtr("To Do"), Position: &pos}

	back, err := HashToColumn(toStringHash(t, ColumnToHash(col)))
	require.NoError(t, err)
	assert.Equal(t, "c1", back.ID)
	assert.Equal(t, "b1", *back.BoardID)
	assert.Equal(t, "To Do", *back.Header)
	assert.Nil(t, back.Name)
	assert.Equal(t, 1, *back.Position)
}

func TestEventPayloads(t *testing.T) {
	t.Run("card event uses prefixed keys", func(t *testing.T) {
		pos := 4
		ev := CardEventFromRecord(EventCardUpdate, CardRecord{
			ID:               "k1",
			ColumnID:         StringPtr("c1"),
			Position:         &pos,
			LastModifiedDate: "2024-01-02T03:04:05.123Z",
		})

		data, err := EncodeCardEvent(ev)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"EventType__c":"CardUpdate"`)
		assert.Contains(t, string(data), `"CardId__c":"k1"`)
		assert.NotContains(t, string(data), "CardName__c")

		back, err := DecodeCardEvent(data)
		require.NoError(t, err)
		assert.Equal(t, "c1", *back.ColumnID)
		assert.Equal(t, 4, *back.Position)
		assert.Equal(t, "2024-01-02T03:04:05.123Z", *back.LastModifiedDate)
	})

	t.Run("column event", func(t *testing.T) {
		data := []byte(`{"EventType__c":"ColumnCreate","ColumnId__c":"c9","BoardId__c":"b1","ColumnName__c":"Review"}`)
		ev, err := DecodeColumnEvent(data)
		require.NoError(t, err)
		assert.Equal(t, EventColumnCreate, ev.EventType)
		assert.Equal(t, "Review", *ev.Name)
		assert.Nil(t, ev.Header)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := DecodeColumnEvent([]byte("{"))
		assert.ErrorContains(t, err, "failed to unmarshal column event")
	})
}
