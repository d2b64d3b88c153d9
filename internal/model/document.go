package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DocumentRef points at a file held by the external media host.
type DocumentRef struct {
	Name       string    `json:"name" binding:"required"`
	URL        string    `json:"url" binding:"required,url"`
	PublicID   string    `json:"public_id" binding:"required"`
	MimeType   string    `json:"mime_type,omitempty"`
	Size       int64     `json:"size,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Documents is stored as a JSONB array.
type Documents []DocumentRef

func (d Documents) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *Documents) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = Documents{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Documents", src)
	}
	return json.Unmarshal(raw, d)
}

// Without returns d minus the entry with publicID and whether one was found.
func (d Documents) Without(publicID string) (Documents, bool) {
	out := make(Documents, 0, len(d))
	found := false
	for _, doc := range d {
		if doc.PublicID == publicID {
			found = true
			continue
		}
		out = append(out, doc)
	}
	return out, found
}
