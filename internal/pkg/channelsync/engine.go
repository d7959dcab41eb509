// Package channelsync keeps locally-owned channels and their rosters aligned
// with the hosted chat service. The relational rows are the source of truth;
// the remote side is reconciled lazily, on first need, and repaired by simply
// syncing again.
package channelsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/sahayoghq/sahayog/app/models"
	"github.com/sahayoghq/sahayog/app/repository"
	"github.com/sahayoghq/sahayog/internal/pkg/chat"
)

// ErrChannelNotSynced is returned when a member operation targets a channel
// that was never provisioned remotely. Callers must provision first.
var ErrChannelNotSynced = errors.New("channel not synchronized with chat service")

const defaultCallTimeout = 10 * time.Second

// Engine coordinates channel provisioning and member sync against the chat
// service.
type Engine struct {
	channels    repository.ChannelRepository
	users       repository.UserRepository
	chat        chat.Service
	callTimeout time.Duration
}

// NewEngine creates a channel sync engine.
func NewEngine(
	channels repository.ChannelRepository,
	users repository.UserRepository,
	chatSvc chat.Service,
) *Engine {
	return &Engine{
		channels:    channels,
		users:       users,
		chat:        chatSvc,
		callTimeout: defaultCallTimeout,
	}
}

// SetCallTimeout overrides the per-remote-call timeout.
func (e *Engine) SetCallTimeout(d time.Duration) {
	if d > 0 {
		e.callTimeout = d
	}
}

// StreamUserID derives the remote user id for a platform user.
func StreamUserID(userID uint) string {
	return fmt.Sprintf("user-%d", userID)
}

// DeriveStreamChannelID derives the remote channel id from the owning creator
// and the local channel. The derivation is deterministic so that concurrent
// provisioning attempts converge on the same remote object.
func DeriveStreamChannelID(creatorID, channelID uint) string {
	return fmt.Sprintf("creator-%d-channel-%d", creatorID, channelID)
}

// ProvisionOptions controls ProvisionChannel behavior.
type ProvisionOptions struct {
	// Force re-derives and re-writes the remote id even when one is set.
	Force bool
	// SyncMembers pushes the current local roster to the remote channel.
	SyncMembers bool
}

// ProvisionResult reports the outcome of a provisioning call.
type ProvisionResult struct {
	StreamChannelID string
	MembersSynced   int
}

// ProvisionChannel lazily creates the channel's remote representation.
// Idempotent: an already-provisioned channel returns its existing remote id
// without side effects unless Force is set.
func (e *Engine) ProvisionChannel(ctx context.Context, channelID uint, opts ProvisionOptions) (*ProvisionResult, error) {
	channel, err := e.channels.GetByID(channelID)
	if err != nil {
		return nil, fmt.Errorf("load channel %d: %w", channelID, err)
	}

	if channel.IsProvisioned() && !opts.Force {
		return &ProvisionResult{StreamChannelID: *channel.StreamChannelID}, nil
	}

	creator, err := e.users.GetByID(channel.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("load creator %d: %w", channel.CreatorID, err)
	}

	streamChannelID := DeriveStreamChannelID(channel.CreatorID, channel.ID)
	creatorStreamID := StreamUserID(creator.ID)

	upsertCtx, cancelUpsert := context.WithTimeout(ctx, e.callTimeout)
	err = e.chat.UpsertUser(upsertCtx, chat.UserRecord{
		ID:        creatorStreamID,
		Name:      creator.DisplayNameOrUsername(),
		AvatarURL: creator.AvatarURL,
	})
	cancelUpsert()
	if err != nil {
		return nil, fmt.Errorf("upsert creator user: %w", err)
	}

	memberIDs := []string{creatorStreamID}
	synced := 0
	if opts.SyncMembers {
		memberIDs, synced = e.collectRoster(ctx, channel, creatorStreamID)
	}

	// The roster sync above spends its own per-member budgets, so the
	// channel call gets a fresh timeout.
	ensureCtx, cancelEnsure := context.WithTimeout(ctx, e.callTimeout)
	err = e.chat.EnsureChannel(ensureCtx, streamChannelID, creatorStreamID, channel.Name, memberIDs)
	cancelEnsure()
	if err != nil {
		return nil, fmt.Errorf("ensure remote channel: %w", err)
	}

	if err := e.channels.SetStreamChannelID(channel.ID, streamChannelID, opts.Force); err != nil {
		return nil, fmt.Errorf("persist stream channel id: %w", err)
	}

	log.Infof("[ChannelSync] Provisioned channel %d as %s (%d members synced)", channel.ID, streamChannelID, synced)
	return &ProvisionResult{StreamChannelID: streamChannelID, MembersSynced: synced}, nil
}

// collectRoster upserts every local roster member remotely and returns the
// remote ids to attach at channel creation. A member whose upsert fails is
// logged and skipped; a partial roster beats aborting provisioning.
func (e *Engine) collectRoster(ctx context.Context, channel *models.Channel, creatorStreamID string) ([]string, int) {
	memberIDs := []string{creatorStreamID}
	synced := 0

	members, err := e.channels.ListLocalMembers(channel.ID)
	if err != nil {
		log.Errorf("[ChannelSync] Failed to load roster for channel %d: %v", channel.ID, err)
		return memberIDs, 0
	}

	for _, member := range members {
		user, err := e.users.GetByID(member.UserID)
		if err != nil {
			log.Warnf("[ChannelSync] Skipping roster member %d on channel %d: %v", member.UserID, channel.ID, err)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		err = e.chat.UpsertUser(callCtx, chat.UserRecord{
			ID:        StreamUserID(user.ID),
			Name:      user.DisplayNameOrUsername(),
			AvatarURL: user.AvatarURL,
		})
		cancel()
		if err != nil {
			log.Warnf("[ChannelSync] Skipping roster member %d on channel %d: %v", member.UserID, channel.ID, err)
			continue
		}

		memberIDs = append(memberIDs, StreamUserID(user.ID))
		synced++
	}

	return memberIDs, synced
}

// AddMember adds a subscriber to an already-provisioned channel.
func (e *Engine) AddMember(ctx context.Context, channelID, subscriberID uint, announce bool) error {
	channel, err := e.channels.GetByID(channelID)
	if err != nil {
		return fmt.Errorf("load channel %d: %w", channelID, err)
	}
	if !channel.IsProvisioned() {
		return fmt.Errorf("channel %d: %w", channelID, ErrChannelNotSynced)
	}

	user, err := e.users.GetByID(subscriberID)
	if err != nil {
		return fmt.Errorf("load subscriber %d: %w", subscriberID, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	streamUserID := StreamUserID(user.ID)
	if err := e.chat.UpsertUser(callCtx, chat.UserRecord{
		ID:        streamUserID,
		Name:      user.DisplayNameOrUsername(),
		AvatarURL: user.AvatarURL,
	}); err != nil {
		return fmt.Errorf("upsert subscriber user: %w", err)
	}

	if err := e.chat.AddMember(callCtx, *channel.StreamChannelID, streamUserID); err != nil {
		return fmt.Errorf("add remote member: %w", err)
	}

	if err := e.channels.AddLocalMember(channel.ID, user.ID); err != nil {
		log.Errorf("[ChannelSync] Remote member added but local roster write failed for channel %d user %d: %v", channel.ID, user.ID, err)
	}

	if announce {
		text := fmt.Sprintf("%s joined the channel", user.DisplayNameOrUsername())
		if err := e.chat.SendSystemMessage(callCtx, *channel.StreamChannelID, text); err != nil {
			log.Warnf("[ChannelSync] Join announcement failed for channel %d: %v", channel.ID, err)
		}
	}

	return nil
}

// RemoveMember removes a subscriber from an already-provisioned channel.
// Remote message history is left in place.
func (e *Engine) RemoveMember(ctx context.Context, channelID, subscriberID uint) error {
	channel, err := e.channels.GetByID(channelID)
	if err != nil {
		return fmt.Errorf("load channel %d: %w", channelID, err)
	}
	if !channel.IsProvisioned() {
		return fmt.Errorf("channel %d: %w", channelID, ErrChannelNotSynced)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	if err := e.chat.RemoveMember(callCtx, *channel.StreamChannelID, StreamUserID(subscriberID)); err != nil {
		return fmt.Errorf("remove remote member: %w", err)
	}
	return nil
}

// SyncOptions controls the bulk subscriber sync.
type SyncOptions struct {
	// Announce posts a system-authored join message into each channel.
	Announce bool
	// WelcomeMessage, when non-empty, is posted as the creator into each
	// joined channel.
	WelcomeMessage string
}

// ChannelError records one channel's failure inside a bulk sync.
type ChannelError struct {
	ChannelID uint
	Err       error
}

func (c ChannelError) Error() string {
	return fmt.Sprintf("channel %d: %v", c.ChannelID, c.Err)
}

// SyncResult reports which channels were joined and which failed.
type SyncResult struct {
	JoinedChannelIDs []uint
	Errors           []ChannelError
}

// SyncSubscriberAcrossCreatorChannels joins a subscriber to every creator
// channel their tier unlocks, provisioning channels on first need. Channels
// are processed independently; one failure never stops the rest.
func (e *Engine) SyncSubscriberAcrossCreatorChannels(ctx context.Context, subscriberID, creatorID uint, tierLevel int, opts SyncOptions) (*SyncResult, error) {
	channels, err := e.channels.ListByCreatorMaxTier(creatorID, tierLevel)
	if err != nil {
		return nil, fmt.Errorf("list creator %d channels: %w", creatorID, err)
	}

	result := &SyncResult{}
	for _, channel := range channels {
		if err := e.syncOneChannel(ctx, channel, subscriberID, creatorID, opts); err != nil {
			log.Errorf("[ChannelSync] Sync of subscriber %d into channel %d failed: %v", subscriberID, channel.ID, err)
			result.Errors = append(result.Errors, ChannelError{ChannelID: channel.ID, Err: err})
			continue
		}
		result.JoinedChannelIDs = append(result.JoinedChannelIDs, channel.ID)
	}

	log.Infof("[ChannelSync] Subscriber %d synced into %d/%d channels of creator %d",
		subscriberID, len(result.JoinedChannelIDs), len(channels), creatorID)
	return result, nil
}

func (e *Engine) syncOneChannel(ctx context.Context, channel models.Channel, subscriberID, creatorID uint, opts SyncOptions) error {
	if !channel.IsProvisioned() {
		if _, err := e.ProvisionChannel(ctx, channel.ID, ProvisionOptions{}); err != nil {
			return fmt.Errorf("provision: %w", err)
		}
	}

	if err := e.AddMember(ctx, channel.ID, subscriberID, opts.Announce); err != nil {
		return err
	}

	if opts.WelcomeMessage != "" {
		streamChannelID := DeriveStreamChannelID(creatorID, channel.ID)
		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		err := e.chat.SendMessage(callCtx, streamChannelID, StreamUserID(creatorID), opts.WelcomeMessage)
		cancel()
		if err != nil {
			log.Warnf("[ChannelSync] Welcome message failed for channel %d: %v", channel.ID, err)
		}
	}

	return nil
}
