// Package core holds the Qafizz domain types and the storage port.
package core

// User is the signed-in account persisted as the session record.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar,omitempty"`
}

// UserPatch is a partial update of a User. Nil fields are left untouched.
type UserPatch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
}

// Apply returns a copy of u with the patch merged in.
func (p UserPatch) Apply(u User) User {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	return u
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Avatar == nil
}

// Note is a single note owned by a user.
// Notes of all users live in one flat collection; UserID is the only owner link.
type Note struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	Category        string   `json:"category"`
	Color           Color    `json:"color"`
	Starred         bool     `json:"starred"`
	LastModified    string   `json:"lastModified"` // display text, e.g. "Just now"
	Tags            []string `json:"tags"`
	BackgroundImage *string  `json:"backgroundImage"` // data URI or null
	UserID          string   `json:"userId"`
	CreatedAt       string   `json:"createdAt"` // ISO-8601
}

// HasTag reports whether the note carries tag exactly.
func (n Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// EventType represents the kind of change made to a storage key.
type EventType string

const (
	EventSet    EventType = "SET"
	EventRemove EventType = "REMOVE"
)

// Event is a change notification for a single storage key.
type Event struct {
	Type      EventType
	Key       string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer (and lifecycle.Event).
func (e Event) String() string {
	return string(e.Type) + " " + e.Key
}
