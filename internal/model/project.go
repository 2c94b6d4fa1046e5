package model

// InboxProjectID is the project every task falls back to
const InboxProjectID int64 = 1

// Project represents a collection of tasks
type Project struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	Archived bool   `json:"archived"`
	Index    int32  `json:"index"`
}

// Section groups tasks inside a project
type Section struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Project int64  `json:"project"`
	Index   int32  `json:"index"`
}

// DefaultInboxProject returns the default Inbox project
func DefaultInboxProject() Project {
	return Project{
		ID:    InboxProjectID,
		Name:  "Inbox",
		Color: "#6C757D",
	}
}
