package transport

type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	// ScheduledAt is an RFC3339 timestamp.
	ScheduledAt string `json:"scheduled_at"`
	Timezone    string `json:"timezone"`
}

type TelegramLoginRequest struct {
	TelegramUsername string `json:"telegram_username"`
}

type DestinationRequest struct {
	TelegramChatID string `json:"telegram_chat_id"`
	TelegramUserID string `json:"telegram_user_id"`
}

type AcceptTermsRequest struct {
	TermIDs []string `json:"terms_ids"`
}
