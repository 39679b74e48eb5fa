package domain

import (
	"bytes"
	"encoding/json"
)

// Ownership is either Owned(userID) or Shared. Shared rows are sample data
// visible to every user and owned by none; the zero value is Shared.
type Ownership struct {
	userID string
}

// Owned returns the ownership of a row belonging to userID. An empty userID
// yields Shared.
func Owned(userID string) Ownership { return Ownership{userID: userID} }

// Shared returns the ownership of a sample row.
func Shared() Ownership { return Ownership{} }

func (o Ownership) IsShared() bool { return o.userID == "" }

// UserID returns the owning user and false for shared rows.
func (o Ownership) UserID() (string, bool) {
	return o.userID, o.userID != ""
}

// OwnedBy reports whether the row belongs to userID.
func (o Ownership) OwnedBy(userID string) bool {
	return userID != "" && o.userID == userID
}

// MarshalJSON encodes shared rows as null, matching the stored user_id column.
func (o Ownership) MarshalJSON() ([]byte, error) {
	if o.IsShared() {
		return []byte("null"), nil
	}
	return json.Marshal(o.userID)
}

func (o *Ownership) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Shared()
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*o = Owned(id)
	return nil
}
