package whatsapp

import (
	"encoding/json"
	"fmt"
)

// Message types delivered by the webhook.
const (
	MessageTypeImage = "image"
	MessageTypeText  = "text"
)

// InboundMessage is the flattened form of one webhook delivery.
type InboundMessage struct {
	Phone   string
	Type    string
	MediaID string
	Caption string
	Text    string
}

// webhookPayload mirrors the nesting of Meta's webhook notifications. Only
// the fields the bot reads are declared.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []struct {
					From  string `json:"from"`
					Type  string `json:"type"`
					Image *struct {
						ID      string `json:"id"`
						Caption string `json:"caption"`
					} `json:"image"`
					Text *struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParsePayload extracts the first message from a webhook body. Status
// updates and other non-message notifications come through the same
// endpoint; those return (nil, nil).
func ParsePayload(body []byte) (*InboundMessage, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("unmarshaling webhook payload: %w", err)
	}

	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return nil, nil
	}
	messages := payload.Entry[0].Changes[0].Value.Messages
	if len(messages) == 0 {
		return nil, nil
	}

	message := messages[0]
	inbound := &InboundMessage{
		Phone: message.From,
		Type:  message.Type,
	}

	switch message.Type {
	case MessageTypeImage:
		if message.Image == nil {
			return nil, fmt.Errorf("image message without image object")
		}
		inbound.MediaID = message.Image.ID
		inbound.Caption = message.Image.Caption
	case MessageTypeText:
		if message.Text == nil {
			return nil, fmt.Errorf("text message without text object")
		}
		inbound.Text = message.Text.Body
	}

	return inbound, nil
}

// VerifySubscription answers Meta's webhook verification handshake. When the
// mode and token match, the challenge must be echoed back verbatim.
func VerifySubscription(mode, token, challenge, expectedToken string) (string, bool) {
	if mode == "subscribe" && token == expectedToken {
		return challenge, true
	}
	return "", false
}
