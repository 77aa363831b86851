package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/AlxM1/aelo/internal/access"
	"github.com/AlxM1/aelo/internal/domain"
	"github.com/AlxM1/aelo/internal/payment"
	"github.com/AlxM1/aelo/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) *repository.Repository {
	t.Helper()

	creds := &repository.Credentials{
		Driver:            repository.DriverSQLite,
		Path:              ":memory:",
		MigrationsDirPath: "../../migrations/sqlite",
	}
	repo, err := repository.NewRepository(creds)
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(creds))
	t.Cleanup(func() { repo.Close() })
	return repo
}

// newSession stores an admin with the given role and returns its session.
func newSession(t *testing.T, repo *repository.Repository, role domain.Role) *access.Session {
	t.Helper()
	u := &domain.User{
		Email:        strings.ToLower(string(role)) + "-" + uuid.NewString()[:8] + "@drinkaelo.com",
		PasswordHash: "hash",
		Name:         "Test " + string(role),
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return &access.Session{UserID: u.ID, Role: u.Role, Name: u.Name, Email: u.Email}
}

type mockCollaborator struct {
	m        sync.Mutex
	requests []payment.SessionRequest
	session  *payment.Session
	err      error
}

func (m *mockCollaborator) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if m.session != nil {
		return m.session, nil
	}
	id := "cs_test_" + req.ClientReferenceID[:8]
	return &payment.Session{ID: id, URL: "https://pay.example.com/" + id}, nil
}

func (m *mockCollaborator) calls() int {
	m.m.Lock()
	defer m.m.Unlock()
	return len(m.requests)
}
