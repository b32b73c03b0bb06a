package stores

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/jon-the-dev/album-relay/utils"
)

// pageCursor is a keyset cursor over (created_at, primary key). Offset
// pagination degrades as tables grow; the cursor keeps every page query
// bounded regardless of position.
type pageCursor struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"i"`
}

func encodeCursor(createdAt time.Time, id string) string {
	data, _ := json.Marshal(pageCursor{CreatedAt: createdAt, ID: id})
	return base64.URLEncoding.EncodeToString(data)
}

func decodeCursor(token string) (*pageCursor, error) {
	if token == "" {
		return nil, nil
	}

	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, utils.WrapError(utils.ErrInvalidRequest, "malformed page token")
	}

	var c pageCursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, utils.WrapError(utils.ErrInvalidRequest, "malformed page token")
	}
	return &c, nil
}
