package chat

import (
	"context"
	"fmt"

	stream "github.com/GetStream/stream-chat-go/v5"

	"github.com/sahayoghq/sahayog/internal/pkg/env"
)

// SystemUserID authors join announcements and other platform messages.
const SystemUserID = "sahayog-system"

// streamService implements Service on top of the GetStream chat API.
type streamService struct {
	client      *stream.Client
	channelType string
}

// NewStreamService builds the GetStream-backed chat service from env config.
func NewStreamService() (Service, error) {
	apiKey := env.GetEnv("STREAM_API_KEY", "")
	apiSecret := env.GetEnv("STREAM_API_SECRET", "")
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("chat: STREAM_API_KEY and STREAM_API_SECRET are required")
	}

	client, err := stream.NewClient(apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("chat: create stream client: %w", err)
	}

	svc := &streamService{
		client:      client,
		channelType: env.GetEnv("STREAM_CHANNEL_TYPE", "messaging"),
	}

	// The system author must exist remotely before it can post.
	if err := svc.UpsertUser(context.Background(), UserRecord{ID: SystemUserID, Name: "Sahayog"}); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *streamService) UpsertUser(ctx context.Context, user UserRecord) error {
	_, err := s.client.UpsertUser(ctx, &stream.User{
		ID:    user.ID,
		Name:  user.Name,
		Image: user.AvatarURL,
	})
	if err != nil {
		return fmt.Errorf("chat: upsert user %s: %w", user.ID, err)
	}
	return nil
}

func (s *streamService) EnsureChannel(ctx context.Context, channelID, creatorID, name string, memberIDs []string) error {
	_, err := s.client.CreateChannel(ctx, s.channelType, channelID, creatorID, &stream.ChannelRequest{
		Members: memberIDs,
		ExtraData: map[string]interface{}{
			"name": name,
		},
	})
	if err != nil {
		return fmt.Errorf("chat: ensure channel %s: %w", channelID, err)
	}
	return nil
}

func (s *streamService) AddMember(ctx context.Context, channelID, userID string) error {
	ch := s.client.Channel(s.channelType, channelID)
	if _, err := ch.AddMembers(ctx, []string{userID}); err != nil {
		return fmt.Errorf("chat: add member %s to %s: %w", userID, channelID, err)
	}
	return nil
}

func (s *streamService) RemoveMember(ctx context.Context, channelID, userID string) error {
	ch := s.client.Channel(s.channelType, channelID)
	if _, err := ch.RemoveMembers(ctx, []string{userID}, nil); err != nil {
		return fmt.Errorf("chat: remove member %s from %s: %w", userID, channelID, err)
	}
	return nil
}

func (s *streamService) SendSystemMessage(ctx context.Context, channelID, text string) error {
	return s.SendMessage(ctx, channelID, SystemUserID, text)
}

func (s *streamService) SendMessage(ctx context.Context, channelID, senderID, text string) error {
	ch := s.client.Channel(s.channelType, channelID)
	if _, err := ch.SendMessage(ctx, &stream.Message{Text: text}, senderID); err != nil {
		return fmt.Errorf("chat: send message to %s: %w", channelID, err)
	}
	return nil
}
