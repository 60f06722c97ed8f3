package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/itera/chatbot-service/internal/core/cache"
	"github.com/itera/chatbot-service/internal/core/docdb"
	"github.com/itera/chatbot-service/internal/domain/models"
)

var (
	_ cache.Client                  = (*MockCacheClient)(nil)
	_ docdb.ConversationsCollection = (*MockConversations)(nil)
	_ docdb.LeadsCollection         = (*MockLeads)(nil)
	_ docdb.Client                  = (*MockDocDBClient)(nil)
)

// MockCacheClient is a mock implementation of cache.Client.
type MockCacheClient struct {
	mock.Mock
}

// Get retrieves a value from the cache.
func (m *MockCacheClient) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Set stores a value in the cache.
func (m *MockCacheClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Delete removes a value from the cache.
func (m *MockCacheClient) Delete(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// DeletePattern removes all values matching the pattern.
func (m *MockCacheClient) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	args := m.Called(ctx, pattern)
	return args.Get(0).(int64), args.Error(1)
}

// Ping checks the cache connection.
func (m *MockCacheClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close closes the cache connection.
func (m *MockCacheClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockEncryptor is a mock implementation of encryption.Encryptor.
type MockEncryptor struct {
	mock.Mock
}

// Encrypt encrypts the given plaintext.
func (m *MockEncryptor) Encrypt(plaintext []byte) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

// Decrypt decrypts the given ciphertext.
func (m *MockEncryptor) Decrypt(ciphertext string) ([]byte, error) {
	args := m.Called(ciphertext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// EncryptString encrypts a string.
func (m *MockEncryptor) EncryptString(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

// DecryptString decrypts to a string.
func (m *MockEncryptor) DecryptString(ciphertext string) (string, error) {
	args := m.Called(ciphertext)
	return args.String(0), args.Error(1)
}

// MockGuardrailStore is a mock implementation of guardrail.Store.
type MockGuardrailStore struct {
	mock.Mock
}

// Increment adds delta to a counter.
func (m *MockGuardrailStore) Increment(ctx context.Context, key string, delta float64, ttl time.Duration) (float64, error) {
	args := m.Called(ctx, key, delta, ttl)
	return args.Get(0).(float64), args.Error(1)
}

// Get reads a counter.
func (m *MockGuardrailStore) Get(ctx context.Context, key string) (float64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(float64), args.Error(1)
}

// Expire sets a counter ttl.
func (m *MockGuardrailStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}

// Reset removes counters by prefix.
func (m *MockGuardrailStore) Reset(ctx context.Context, prefix string) (int64, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).(int64), args.Error(1)
}

// Ping checks the store.
func (m *MockGuardrailStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close closes the store.
func (m *MockGuardrailStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockConversations is a mock implementation of docdb.ConversationsCollection.
type MockConversations struct {
	mock.Mock
}

// AddMessages archives the messages of one turn.
func (m *MockConversations) AddMessages(ctx context.Context, messages []*models.ConversationMessage) error {
	args := m.Called(ctx, messages)
	return args.Error(0)
}

// ListBySession lists the archived messages of a session.
func (m *MockConversations) ListBySession(ctx context.Context, opts *docdb.ListMessagesOptions) ([]*models.ConversationMessage, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ConversationMessage), args.Error(1)
}

// EnsureIndexes creates indexes.
func (m *MockConversations) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockLeads is a mock implementation of docdb.LeadsCollection.
type MockLeads struct {
	mock.Mock
}

// Create inserts a lead.
func (m *MockLeads) Create(ctx context.Context, lead *models.LeadRecord) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

// List lists leads.
func (m *MockLeads) List(ctx context.Context, opts *docdb.ListLeadsOptions) ([]*models.LeadRecord, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeadRecord), args.Error(1)
}

// EnsureIndexes creates indexes.
func (m *MockLeads) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockDocDBClient is a mock implementation of docdb.Client.
type MockDocDBClient struct {
	mock.Mock
	ConversationsMock *MockConversations
	LeadsMock         *MockLeads
}

// NewMockDocDBClient creates a MockDocDBClient with fresh collection mocks.
func NewMockDocDBClient() *MockDocDBClient {
	return &MockDocDBClient{
		ConversationsMock: &MockConversations{},
		LeadsMock:         &MockLeads{},
	}
}

// Conversations returns the conversations collection mock.
func (m *MockDocDBClient) Conversations() docdb.ConversationsCollection {
	return m.ConversationsMock
}

// Leads returns the leads collection mock.
func (m *MockDocDBClient) Leads() docdb.LeadsCollection {
	return m.LeadsMock
}

// Ping verifies the database connection.
func (m *MockDocDBClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// EnsureIndexes creates indexes.
func (m *MockDocDBClient) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close closes the connection.
func (m *MockDocDBClient) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
