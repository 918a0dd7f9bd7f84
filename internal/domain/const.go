package domain

const (
	RequesterIdCtxKey    = "pd-requesterId"
	RequesterEmailCtxKey = "pd-requesterEmail"
)
