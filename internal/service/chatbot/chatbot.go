package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lawravasco2207/phone-store-sub001/internal/models"
)

// Service is thin orchestration over an OpenAI-compatible
// chat-completions endpoint: persist the user message, build product
// context from the catalog, ask the model, persist the reply.
type Service struct {
	DB      *gorm.DB
	APIURL  string
	APIKey  string
	Model   string
	HTTP    *http.Client
	History int
}

var ErrDisabled = errors.New("chatbot: no API key configured")

func New(db *gorm.DB, apiURL, apiKey, model string) *Service {
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1/chat/completions"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Service{
		DB:      db,
		APIURL:  apiURL,
		APIKey:  apiKey,
		Model:   model,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		History: 10,
	}
}

func (s *Service) Enabled() bool {
	return s.APIKey != ""
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (s *Service) Ask(ctx context.Context, userID uint, content string) (models.ChatMessage, error) {
	if !s.Enabled() {
		return models.ChatMessage{}, ErrDisabled
	}

	userMsg := models.ChatMessage{UserID: userID, Role: "user", Content: content}
	if err := s.DB.WithContext(ctx).Create(&userMsg).Error; err != nil {
		return models.ChatMessage{}, err
	}

	msgs, err := s.buildMessages(ctx, userID)
	if err != nil {
		return models.ChatMessage{}, err
	}

	reply, err := s.complete(ctx, msgs)
	if err != nil {
		return models.ChatMessage{}, err
	}

	botMsg := models.ChatMessage{UserID: userID, Role: "assistant", Content: reply}
	if err := s.DB.WithContext(ctx).Create(&botMsg).Error; err != nil {
		return models.ChatMessage{}, err
	}
	return botMsg, nil
}

func (s *Service) Messages(ctx context.Context, userID uint, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var out []models.ChatMessage
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (s *Service) buildMessages(ctx context.Context, userID uint) ([]message, error) {
	var products []models.Product
	if err := s.DB.WithContext(ctx).Order("id ASC").Limit(20).Find(&products).Error; err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("You are a shopping assistant for an online phone store. ")
	b.WriteString("Answer briefly and only recommend products from this catalog:\n")
	for _, p := range products {
		fmt.Fprintf(&b, "- %s (%.2f): %s\n", p.Name, p.Price, p.Description)
	}

	msgs := []message{{Role: "system", Content: b.String()}}

	var history []models.ChatMessage
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(s.History).
		Find(&history).Error; err != nil {
		return nil, err
	}
	for i := len(history) - 1; i >= 0; i-- {
		msgs = append(msgs, message{Role: history[i].Role, Content: history[i].Content})
	}
	return msgs, nil
}

func (s *Service) complete(ctx context.Context, msgs []message) (string, error) {
	payload := map[string]interface{}{
		"model":    s.Model,
		"messages": msgs,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.APIURL, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	res, err := s.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("chatbot: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chatbot: status %d", res.StatusCode)
	}

	var body struct {
		Choices []struct {
			Message message `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("chatbot: decode: %w", err)
	}
	if len(body.Choices) == 0 {
		return "", errors.New("chatbot: empty response")
	}
	return body.Choices[0].Message.Content, nil
}
