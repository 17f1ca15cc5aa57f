package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultGraphURL is the Meta Graph API root used when none is configured.
const defaultGraphURL = "https://graph.facebook.com/v22.0"

// Client talks to the WhatsApp Business Cloud API: outbound text messages
// and media downloads.
type Client struct {
	graphURL      string
	phoneNumberID string
	token         string
	client        *http.Client
}

// NewClient creates a WhatsApp client for the given business phone number.
func NewClient(graphURL, phoneNumberID, token string) *Client {
	if graphURL == "" {
		graphURL = defaultGraphURL
	}
	return &Client{
		graphURL:      graphURL,
		phoneNumberID: phoneNumberID,
		token:         token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type textMessage struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

type textPayload struct {
	Body string `json:"body"`
}

// Send delivers a plain text message to a customer phone number.
func (c *Client) Send(ctx context.Context, phone, text string) error {
	payload := textMessage{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "text",
		Text:             textPayload{Body: text},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.graphURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// DownloadMedia fetches a received image by media ID. The Graph API hands
// out a short-lived URL first; the actual bytes come from a second request
// carrying the same bearer token. Returns the data and its content type.
func (c *Client) DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error) {
	url := fmt.Sprintf("%s/%s", c.graphURL, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("resolving media URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("whatsapp API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var meta struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, "", fmt.Errorf("decoding media response: %w", err)
	}
	if meta.URL == "" {
		return nil, "", fmt.Errorf("no URL in media response for %s", mediaID)
	}

	mediaReq, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating download request: %w", err)
	}
	mediaReq.Header.Set("Authorization", "Bearer "+c.token)

	mediaResp, err := c.client.Do(mediaReq)
	if err != nil {
		return nil, "", fmt.Errorf("downloading media: %w", err)
	}
	defer mediaResp.Body.Close()

	if mediaResp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("media download error (status %d)", mediaResp.StatusCode)
	}

	data, err := io.ReadAll(mediaResp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading media body: %w", err)
	}

	contentType := mediaResp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return data, contentType, nil
}

// FileExtension maps a media content type to a filename extension, with
// .jpg as the fallback.
func FileExtension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ".jpg"
	}
}
