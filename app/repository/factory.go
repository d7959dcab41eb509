package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// GetSupporterRepository returns the supporter repository instance
func (f *Factory) GetSupporterRepository() SupporterRepository {
	return f.GetRepositories().Supporter
}

// GetSubscriptionRepository returns the subscription repository instance
func (f *Factory) GetSubscriptionRepository() SubscriptionRepository {
	return f.GetRepositories().Subscription
}

// GetChannelRepository returns the channel repository instance
func (f *Factory) GetChannelRepository() ChannelRepository {
	return f.GetRepositories().Channel
}

// GetTransactionRepository returns the transaction repository instance
func (f *Factory) GetTransactionRepository() TransactionRepository {
	return f.GetRepositories().Transaction
}

// GetNotificationJobRepository returns the notification job repository instance
func (f *Factory) GetNotificationJobRepository() NotificationJobRepository {
	return f.GetRepositories().NotificationJob
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitGlobalFactory initializes the process-wide factory once.
func InitGlobalFactory(db *gorm.DB) *Factory {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
	return globalFactory
}

// GetGlobalFactory returns the process-wide factory. It panics when the
// factory was never initialized, which is a wiring bug.
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("repository: global factory not initialized")
	}
	return globalFactory
}
