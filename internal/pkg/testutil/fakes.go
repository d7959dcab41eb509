// Package testutil provides in-memory implementations of the repository
// interfaces and the chat service for engine tests.
package testutil

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/sahayoghq/sahayog/app/models"
	"github.com/sahayoghq/sahayog/internal/pkg/chat"
)

// FakeChat records remote chat operations and can be told to fail specific
// calls.
type FakeChat struct {
	mu sync.Mutex

	Users          map[string]chat.UserRecord
	ChannelMembers map[string]map[string]bool
	Messages       map[string][]string
	EnsureCalls    map[string]int

	UpsertUserErr   map[string]error
	AddMemberErr    map[string]error
	RemoveMemberErr map[string]error
}

func NewFakeChat() *FakeChat {
	return &FakeChat{
		Users:           map[string]chat.UserRecord{},
		ChannelMembers:  map[string]map[string]bool{},
		Messages:        map[string][]string{},
		EnsureCalls:     map[string]int{},
		UpsertUserErr:   map[string]error{},
		AddMemberErr:    map[string]error{},
		RemoveMemberErr: map[string]error{},
	}
}

func (f *FakeChat) UpsertUser(_ context.Context, user chat.UserRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.UpsertUserErr[user.ID]; err != nil {
		return err
	}
	f.Users[user.ID] = user
	return nil
}

func (f *FakeChat) EnsureChannel(_ context.Context, channelID, _, _ string, memberIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.EnsureCalls[channelID]++
	if f.ChannelMembers[channelID] == nil {
		f.ChannelMembers[channelID] = map[string]bool{}
	}
	for _, id := range memberIDs {
		f.ChannelMembers[channelID][id] = true
	}
	return nil
}

func (f *FakeChat) AddMember(_ context.Context, channelID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.AddMemberErr[channelID]; err != nil {
		return err
	}
	if f.ChannelMembers[channelID] == nil {
		f.ChannelMembers[channelID] = map[string]bool{}
	}
	f.ChannelMembers[channelID][userID] = true
	return nil
}

func (f *FakeChat) RemoveMember(_ context.Context, channelID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.RemoveMemberErr[channelID]; err != nil {
		return err
	}
	delete(f.ChannelMembers[channelID], userID)
	return nil
}

func (f *FakeChat) SendSystemMessage(ctx context.Context, channelID, text string) error {
	return f.SendMessage(ctx, channelID, chat.SystemUserID, text)
}

func (f *FakeChat) SendMessage(_ context.Context, channelID, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages[channelID] = append(f.Messages[channelID], text)
	return nil
}

// IsMember reports remote membership state.
func (f *FakeChat) IsMember(channelID, userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ChannelMembers[channelID][userID]
}

// FakeUserRepo implements repository.UserRepository in memory.
type FakeUserRepo struct {
	Users    map[uint]*models.User
	Profiles map[uint]*models.CreatorProfile
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		Users:    map[uint]*models.User{},
		Profiles: map[uint]*models.CreatorProfile{},
	}
}

func (r *FakeUserRepo) Create(user *models.User) error {
	if user.ID == 0 {
		user.ID = uint(len(r.Users) + 1)
	}
	r.Users[user.ID] = user
	return nil
}

func (r *FakeUserRepo) GetByID(id uint) (*models.User, error) {
	user, ok := r.Users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *FakeUserRepo) Update(user *models.User) error {
	r.Users[user.ID] = user
	return nil
}

func (r *FakeUserRepo) GetCreatorProfile(creatorID uint) (*models.CreatorProfile, error) {
	profile, ok := r.Profiles[creatorID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return profile, nil
}

func (r *FakeUserRepo) SaveCreatorProfile(profile *models.CreatorProfile) error {
	r.Profiles[profile.UserID] = profile
	return nil
}

// FakeSupporterRepo implements repository.SupporterRepository in memory.
type FakeSupporterRepo struct {
	Supporters    map[uint]*models.Supporter
	DeactivateErr error
	nextID        uint
}

func NewFakeSupporterRepo() *FakeSupporterRepo {
	return &FakeSupporterRepo{Supporters: map[uint]*models.Supporter{}}
}

func (r *FakeSupporterRepo) Create(s *models.Supporter) error {
	r.nextID++
	if s.ID == 0 {
		s.ID = r.nextID
	}
	r.Supporters[s.ID] = s
	return nil
}

func (r *FakeSupporterRepo) GetByID(id uint) (*models.Supporter, error) {
	s, ok := r.Supporters[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *FakeSupporterRepo) GetBySubscriberAndCreator(subscriberID, creatorID uint) (*models.Supporter, error) {
	for _, s := range r.Supporters {
		if s.SubscriberID == subscriberID && s.CreatorID == creatorID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *FakeSupporterRepo) Update(s *models.Supporter) error {
	r.Supporters[s.ID] = s
	return nil
}

func (r *FakeSupporterRepo) Deactivate(id uint) error {
	if r.DeactivateErr != nil {
		return r.DeactivateErr
	}
	s, ok := r.Supporters[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.IsActive = false
	return nil
}

func (r *FakeSupporterRepo) ListActiveByCreator(creatorID uint) ([]models.Supporter, error) {
	var out []models.Supporter
	for _, s := range r.Supporters {
		if s.CreatorID == creatorID && s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *FakeSupporterRepo) ListActiveByCreatorWithMinTier(creatorID uint, minTier int) ([]models.Supporter, error) {
	var out []models.Supporter
	for _, s := range r.Supporters {
		if s.CreatorID == creatorID && s.IsActive && s.TierLevel >= minTier {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *FakeSupporterRepo) CountActiveByCreator(creatorID uint) (int64, error) {
	var count int64
	for _, s := range r.Supporters {
		if s.CreatorID == creatorID && s.IsActive {
			count++
		}
	}
	return count, nil
}

// FakeSubscriptionRepo implements repository.SubscriptionRepository in memory.
type FakeSubscriptionRepo struct {
	Subs            map[uint]*models.Subscription
	ListErr         error
	TerminateErr    error
	MarkReminderErr error
	nextID          uint
}

func NewFakeSubscriptionRepo() *FakeSubscriptionRepo {
	return &FakeSubscriptionRepo{Subs: map[uint]*models.Subscription{}}
}

func (r *FakeSubscriptionRepo) Create(sub *models.Subscription) error {
	r.nextID++
	if sub.ID == 0 {
		sub.ID = r.nextID
	}
	r.Subs[sub.ID] = sub
	return nil
}

func (r *FakeSubscriptionRepo) GetByID(id uint) (*models.Subscription, error) {
	sub, ok := r.Subs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return sub, nil
}

func (r *FakeSubscriptionRepo) Update(sub *models.Subscription) error {
	r.Subs[sub.ID] = sub
	return nil
}

func (r *FakeSubscriptionRepo) ListActivePollDriven() ([]models.Subscription, error) {
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	var out []models.Subscription
	for _, sub := range r.Subs {
		if sub.Status == models.SubscriptionStatusActive &&
			models.IsPollDrivenGateway(sub.Gateway) &&
			sub.CurrentPeriodEnd != nil {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *FakeSubscriptionRepo) Terminate(id uint, status string, at time.Time) error {
	if r.TerminateErr != nil {
		return r.TerminateErr
	}
	sub, ok := r.Subs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if sub.Status != models.SubscriptionStatusActive {
		return nil
	}
	sub.Status = status
	sub.CancelledAt = &at
	sub.AutoRenew = false
	return nil
}

func (r *FakeSubscriptionRepo) MarkReminderSent(sub *models.Subscription, reminderType string, at time.Time) error {
	if r.MarkReminderErr != nil {
		return r.MarkReminderErr
	}
	stored, ok := r.Subs[sub.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.RemindersSent == nil {
		stored.RemindersSent = models.ReminderLog{}
	}
	if _, exists := stored.RemindersSent[reminderType]; exists {
		return nil
	}
	stored.RemindersSent[reminderType] = at
	if sub.RemindersSent == nil {
		sub.RemindersSent = models.ReminderLog{}
	}
	sub.RemindersSent[reminderType] = at
	return nil
}

// FakeChannelRepo implements repository.ChannelRepository in memory.
type FakeChannelRepo struct {
	Channels map[uint]*models.Channel
	Members  map[uint]map[uint]bool
	nextID   uint
}

func NewFakeChannelRepo() *FakeChannelRepo {
	return &FakeChannelRepo{
		Channels: map[uint]*models.Channel{},
		Members:  map[uint]map[uint]bool{},
	}
}

func (r *FakeChannelRepo) Create(ch *models.Channel) error {
	r.nextID++
	if ch.ID == 0 {
		ch.ID = r.nextID
	}
	r.Channels[ch.ID] = ch
	return nil
}

func (r *FakeChannelRepo) GetByID(id uint) (*models.Channel, error) {
	ch, ok := r.Channels[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *ch
	return &copied, nil
}

func (r *FakeChannelRepo) ListByCreator(creatorID uint) ([]models.Channel, error) {
	var out []models.Channel
	for id := uint(1); id <= r.nextID; id++ {
		if ch, ok := r.Channels[id]; ok && ch.CreatorID == creatorID {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (r *FakeChannelRepo) ListByCreatorMaxTier(creatorID uint, tierLevel int) ([]models.Channel, error) {
	var out []models.Channel
	for id := uint(1); id <= r.nextID; id++ {
		if ch, ok := r.Channels[id]; ok && ch.CreatorID == creatorID && ch.MinTierLevel <= tierLevel {
			out = append(out, *ch)
		}
	}
	return out, nil
}

func (r *FakeChannelRepo) SetStreamChannelID(id uint, streamChannelID string, force bool) error {
	ch, ok := r.Channels[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if ch.IsProvisioned() && !force {
		return nil
	}
	ch.StreamChannelID = &streamChannelID
	return nil
}

func (r *FakeChannelRepo) AddLocalMember(channelID, userID uint) error {
	if r.Members[channelID] == nil {
		r.Members[channelID] = map[uint]bool{}
	}
	r.Members[channelID][userID] = true
	return nil
}

func (r *FakeChannelRepo) RemoveLocalMember(channelID, userID uint) error {
	delete(r.Members[channelID], userID)
	return nil
}

func (r *FakeChannelRepo) ListLocalMembers(channelID uint) ([]models.ChannelMember, error) {
	var out []models.ChannelMember
	for userID := range r.Members[channelID] {
		out = append(out, models.ChannelMember{ChannelID: channelID, UserID: userID})
	}
	return out, nil
}

// FakeTransactionRepo implements repository.TransactionRepository in memory.
type FakeTransactionRepo struct {
	Transactions []*models.Transaction
	DisableErr   error
}

func NewFakeTransactionRepo() *FakeTransactionRepo {
	return &FakeTransactionRepo{}
}

func (r *FakeTransactionRepo) Create(tx *models.Transaction) error {
	if tx.ID == 0 {
		tx.ID = uint(len(r.Transactions) + 1)
	}
	r.Transactions = append(r.Transactions, tx)
	return nil
}

func (r *FakeTransactionRepo) ListCompletedBySubscriberAndCreator(subscriberID, creatorID uint) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, tx := range r.Transactions {
		if tx.SubscriberID == subscriberID && tx.CreatorID == creatorID && tx.Status == models.TransactionStatusCompleted {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (r *FakeTransactionRepo) DisableNotifications(subscriberID, creatorID uint) (int64, error) {
	if r.DisableErr != nil {
		return 0, r.DisableErr
	}
	var changed int64
	for _, tx := range r.Transactions {
		if tx.SubscriberID == subscriberID && tx.CreatorID == creatorID &&
			tx.Status == models.TransactionStatusCompleted && tx.NotificationsEnabled {
			tx.NotificationsEnabled = false
			changed++
		}
	}
	return changed, nil
}

// FakeNotificationJobRepo implements repository.NotificationJobRepository in
// memory.
type FakeNotificationJobRepo struct {
	Jobs       []*models.NotificationJob
	EnqueueErr error
}

func NewFakeNotificationJobRepo() *FakeNotificationJobRepo {
	return &FakeNotificationJobRepo{}
}

func (r *FakeNotificationJobRepo) Enqueue(job *models.NotificationJob) error {
	if r.EnqueueErr != nil {
		return r.EnqueueErr
	}
	if job.ID == 0 {
		job.ID = uint(len(r.Jobs) + 1)
	}
	r.Jobs = append(r.Jobs, job)
	return nil
}

// CountByType tallies queued jobs by job type.
func (r *FakeNotificationJobRepo) CountByType(jobType string) int {
	count := 0
	for _, job := range r.Jobs {
		if job.Type == jobType {
			count++
		}
	}
	return count
}
