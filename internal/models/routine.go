package models

// Routine is a named workout plan owned by a single user.
type Routine struct {
	ID          int64  `json:"id"`
	CreatorID   int64  `json:"creatorId"`
	CreatorName string `json:"creatorName"`
	IsPublic    bool   `json:"isPublic"`
	Name        string `json:"name"`
	Goal        string `json:"goal"`
}
