package apperrors

var (
	// Доменные ошибки, разделяемые хранилищем и обработчиками
	ErrChannelNotFound      = NotFound("channel not found")
	ErrMessageNotFound      = NotFound("message not found")
	ErrUserNotFound         = NotFound("user not found")
	ErrBanNotFound          = NotFound("ban not found")
	ErrMuteNotFound         = NotFound("mute not found")
	ErrNotificationNotFound = NotFound("notification not found")

	ErrAlreadyMember = AlreadyExists("user is already a member of this channel")
	ErrNotAMember    = Forbidden("user is not a member of this channel")
	ErrLastOwner     = FailedPrecondition("cannot leave channel as the only owner")
	ErrNotAnOwner    = Forbidden("only a channel owner may do this")

	ErrAlreadyBanned = AlreadyExists("user is already banned from this channel")
	ErrNotBanned     = FailedPrecondition("user is not banned")
	ErrAlreadyMuted  = AlreadyExists("user is already muted in this channel")
	ErrNotMuted      = FailedPrecondition("user is not muted")

	ErrBanned = Forbidden("you are banned from this channel")
	ErrMuted  = Forbidden("you are muted in this channel")

	ErrNotAuthor    = Forbidden("only the author may modify this message")
	ErrNotOwnedByMe = Forbidden("notification belongs to another user")

	ErrDirectWithSelf     = InvalidArg("cannot create a direct channel with yourself")
	ErrDirectJoin         = InvalidArg("cannot join a direct channel")
	ErrDirectOwnership    = InvalidArg("direct channels have no owners")
	ErrEmptyContent       = InvalidArg("message content cannot be empty")
	ErrContentTooLong     = InvalidArg("message content exceeds the allowed length")
	ErrInvalidMessageKind = InvalidArg("unsupported message kind")

	ErrInvalidCredentials = Unauthorized("invalid credentials")
	ErrUserExists         = AlreadyExists("username or email is already taken")
)
