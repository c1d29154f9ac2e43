package contextkeys

type contextKey string

const (
	// UserIDKey holds the authenticated user's id (uuid string).
	UserIDKey contextKey = "userID"
	// ActorKey holds the resolved *entities.User for the request.
	ActorKey contextKey = "actor"
)
