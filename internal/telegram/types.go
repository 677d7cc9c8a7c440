// Package telegram is the transport layer: a Bot API client plus the two
// update delivery modes, long polling and webhook.
package telegram

// User is a Telegram account.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Chat is where a message was sent.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Message is one inbound or outbound chat message. NewChatMembers is set
// on the service message Telegram emits when accounts join the chat.
type Message struct {
	MessageID      int64  `json:"message_id"`
	From           *User  `json:"from"`
	Chat           Chat   `json:"chat"`
	Date           int64  `json:"date"`
	Text           string `json:"text"`
	NewChatMembers []User `json:"new_chat_members,omitempty"`
}

// Update is one event from the Bot API. Only message updates matter here.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}
