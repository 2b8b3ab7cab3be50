package shared

const (
	AdminID        = "admin_id"
	AdminSessionID = "admin_session_id"

	AdminSessionCookie = "admin_session"
	DeviceIDHeader     = "X-Device-ID"
)

// Rate limit action classes.
const (
	ActionComment    = "comment"
	ActionReaction   = "reaction"
	ActionAdminLogin = "admin_login"
	ActionAPIGeneral = "api_general"
)

// Submitter facing messages. Internal error text never reaches the client.
const (
	MsgTooManySubmissions = "Too many submissions, please try again later."
	MsgAlreadyCommented   = "You have already commented on this item."
	MsgCommentReceived    = "Your comment has been received and is awaiting review."
	MsgCommentRejected    = "Your comment could not be published."
	MsgTooManyRequests    = "Too many requests. Please slow down."
)
