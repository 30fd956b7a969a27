package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/exam-registration-api/internal/dto"
	"github.com/noah-isme/exam-registration-api/internal/models"
	"github.com/noah-isme/exam-registration-api/internal/repository"
	appErrors "github.com/noah-isme/exam-registration-api/pkg/errors"
)

type mockAccountRepo struct {
	byEmail   map[string]*models.Account
	created   []*models.Account
	createErr error
}

func (m *mockAccountRepo) List(ctx context.Context, filter models.AccountFilter) ([]models.Account, int, error) {
	var out []models.Account
	for _, a := range m.byEmail {
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*models.Account, error) {
	for _, a := range m.byEmail {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	if a, ok := m.byEmail[email]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) Create(ctx context.Context, account *models.Account) error {
	if m.createErr != nil {
		return m.createErr
	}
	account.ID = fmt.Sprintf("acc-%d", len(m.created)+1)
	m.created = append(m.created, account)
	return nil
}

func TestVerifyChecksBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockAccountRepo{byEmail: map[string]*models.Account{
		"jdoe@csn.edu": {ID: "s1", Email: "jdoe@csn.edu", PasswordHash: string(hash), IsStaff: true},
	}}
	svc := NewAccountService(repo, nil, nil, nil, nil)

	account, err := svc.Verify(context.Background(), "jdoe@csn.edu", "correct horse")
	require.NoError(t, err)
	assert.True(t, account.IsStaff)

	_, err = svc.Verify(context.Background(), "jdoe@csn.edu", "wrong")
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Verify(context.Background(), "ghost@csn.edu", "correct horse")
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestCreateAccountHashesAndAudits(t *testing.T) {
	repo := &mockAccountRepo{}
	audit := &mockAuditRecorder{}
	svc := NewAccountService(repo, audit, nil, nil, nil)

	account, err := svc.Create(context.Background(), dto.CreateAccountRequest{
		NSHEID:    "1234567890",
		FirstName: " Ada ",
		LastName:  "Lovelace",
		Email:     "1234567890@Student.CSN.edu",
		Password:  "s3cretpass",
	}, "staff-1", RequestMeta{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", account.FirstName)
	assert.Equal(t, "1234567890@student.csn.edu", account.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("s3cretpass")))
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionAccountCreate, audit.logs[0].Action)
}

func TestCreateAccountValidationAndConflict(t *testing.T) {
	repo := &mockAccountRepo{}
	svc := NewAccountService(repo, nil, nil, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateAccountRequest{NSHEID: "12ab", FirstName: "A", LastName: "B", Email: "a@csn.edu", Password: "longenough"}, "s", RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	repo.createErr = fmt.Errorf("create account: %w", repository.ErrDuplicateKey)
	_, err = svc.Create(context.Background(), dto.CreateAccountRequest{NSHEID: "1234567890", FirstName: "A", LastName: "B", Email: "a@csn.edu", Password: "longenough"}, "s", RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestGetAccountNotFound(t *testing.T) {
	svc := NewAccountService(&mockAccountRepo{}, nil, nil, nil, nil)
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCreateAccountNameFitsColumn(t *testing.T) {
	repo := &mockAccountRepo{}
	svc := NewAccountService(repo, nil, nil, nil, nil)

	req := dto.CreateAccountRequest{NSHEID: "1234567890", FirstName: strings.Repeat("a", 51), LastName: "B", Email: "a@csn.edu", Password: "longenough"}
	_, err := svc.Create(context.Background(), req, "s", RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	req.FirstName = strings.Repeat("a", 50)
	_, err = svc.Create(context.Background(), req, "s", RequestMeta{})
	require.NoError(t, err)
	assert.Len(t, repo.created, 1)
}

func TestCreateAccountAppliesLoginEmailPolicy(t *testing.T) {
	policy, err := NewEmailPolicy([]string{`^[0-9]{10}@student\.csn\.edu$`, `^[A-Za-z0-9._%+-]+@csn\.edu$`})
	require.NoError(t, err)
	repo := &mockAccountRepo{}
	svc := NewAccountService(repo, nil, policy, nil, nil)

	req := dto.CreateAccountRequest{NSHEID: "1234567890", FirstName: "Ada", LastName: "Lovelace", Email: "ada@gmail.com", Password: "longenough"}
	_, err = svc.Create(context.Background(), req, "s", RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, repo.created)

	req.Email = "1234567890@Student.CSN.edu"
	_, err = svc.Create(context.Background(), req, "s", RequestMeta{})
	require.NoError(t, err)
	assert.Len(t, repo.created, 1)
}
