package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"YourWheels/apperr"
	"YourWheels/models"
	"YourWheels/store"
	"YourWheels/utils"
)

// AuthResult is an account together with a freshly issued bearer token.
type AuthResult struct {
	Account *models.Account
	Token   string
}

type AccountService struct {
	accounts store.AccountStore
	tokens   *utils.TokenAuthority
	admins   []models.AdminCredential
	now      func() time.Time
	log      *zap.Logger
}

func NewAccountService(accounts store.AccountStore, tokens *utils.TokenAuthority, admins []models.AdminCredential, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{
		accounts: accounts,
		tokens:   tokens,
		admins:   admins,
		now:      time.Now,
		log:      log.Named("accounts"),
	}
}

func roleTitle(role models.Role) string {
	s := string(role)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (s *AccountService) withToken(a *models.Account) (*AuthResult, error) {
	token, err := s.tokens.IssueToken(a.ID.Hex(), a.Email, a.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	a.Password = ""
	return &AuthResult{Account: a, Token: token}, nil
}

// Register creates a password account. The store's unique (email, role)
// constraint is the final arbiter when two signups race.
func (s *AccountService) Register(ctx context.Context, role models.Role, req models.RegisterRequest) (*AuthResult, error) {
	if !req.Terms {
		return nil, apperr.E(apperr.Validation, "You must accept the terms and conditions", nil)
	}
	email := utils.NormalizeEmail(req.Email)

	_, err := s.accounts.FindAccountByEmail(ctx, role, email)
	if err == nil {
		return nil, apperr.E(apperr.DuplicateAccount, roleTitle(role)+" already exists", nil)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup %s: %w", role, err)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	account := &models.Account{
		ID:        primitive.NewObjectID(),
		Role:      role,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     email,
		Phone:     req.Phone,
		Password:  hash,
		Terms:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.E(apperr.DuplicateAccount, roleTitle(role)+" already exists", err)
		}
		return nil, fmt.Errorf("create %s: %w", role, err)
	}

	s.log.Info("account registered", zap.String("role", string(role)), zap.String("id", account.ID.Hex()))
	return s.withToken(account)
}

func (s *AccountService) Authenticate(ctx context.Context, role models.Role, email, password string) (*AuthResult, error) {
	account, err := s.accounts.FindAccountByEmail(ctx, role, utils.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.E(apperr.NotFound, roleTitle(role)+" not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", role, err)
	}
	if !account.HasCredential() {
		return nil, apperr.E(apperr.InvalidCredential, "This account uses Google sign-in", nil)
	}
	if err := utils.CheckPassword(account.Password, password); err != nil {
		return nil, apperr.E(apperr.InvalidCredential, "Invalid credentials", nil)
	}
	return s.withToken(account)
}

// ResolveFederatedIdentity logs in the account holding email for role,
// creating a password-less one on first sight.
func (s *AccountService) ResolveFederatedIdentity(ctx context.Context, role models.Role, externalID, email string, profile models.Profile) (*AuthResult, error) {
	email = utils.NormalizeEmail(email)
	if externalID == "" || email == "" {
		return nil, apperr.E(apperr.Validation, "Federated identity is missing id or email", nil)
	}

	account, err := s.accounts.FindAccountByEmail(ctx, role, email)
	switch {
	case err == nil:
		if account.GoogleID == "" {
			if err := s.accounts.SetGoogleID(ctx, role, account.ID, externalID); err != nil {
				return nil, fmt.Errorf("link google id: %w", err)
			}
			account.GoogleID = externalID
		}
		return s.withToken(account)
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("lookup %s: %w", role, err)
	}

	now := s.now()
	account = &models.Account{
		ID:        primitive.NewObjectID(),
		Role:      role,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Email:     email,
		GoogleID:  externalID,
		Terms:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.E(apperr.DuplicateAccount, roleTitle(role)+" already exists", err)
		}
		return nil, fmt.Errorf("create federated %s: %w", role, err)
	}
	s.log.Info("federated account created", zap.String("role", string(role)), zap.String("id", account.ID.Hex()))
	return s.withToken(account)
}

func (s *AccountService) Get(ctx context.Context, role models.Role, id primitive.ObjectID) (*models.Account, error) {
	a, err := s.accounts.FindAccountByID(ctx, role, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.E(apperr.NotFound, roleTitle(role)+" not found", err)
	}
	if err != nil {
		return nil, err
	}
	a.Password = ""
	return a, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, role models.Role, id primitive.ObjectID, req models.UpdateAccountRequest) (*models.Account, error) {
	a, err := s.accounts.UpdateAccountProfile(ctx, role, id, req)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.E(apperr.NotFound, roleTitle(role)+" not found", err)
	}
	if err != nil {
		return nil, err
	}
	a.Password = ""
	return a, nil
}

func (s *AccountService) List(ctx context.Context, role models.Role) ([]models.Account, error) {
	return s.accounts.ListAccounts(ctx, role)
}

func (s *AccountService) Delete(ctx context.Context, role models.Role, id primitive.ObjectID) error {
	err := s.accounts.DeleteAccount(ctx, role, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.E(apperr.NotFound, roleTitle(role)+" not found", err)
	}
	if err == nil {
		s.log.Info("account deleted by admin", zap.String("role", string(role)), zap.String("id", id.Hex()))
	}
	return err
}

// AuthenticateAdmin checks the configured allow-list and issues a one hour
// admin token. Administrators are not stored in the database.
func (s *AccountService) AuthenticateAdmin(email, password string) (string, error) {
	email = utils.NormalizeEmail(email)
	for _, admin := range s.admins {
		emailOK := subtle.ConstantTimeCompare([]byte(utils.NormalizeEmail(admin.Email)), []byte(email)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(admin.Password), []byte(password)) == 1
		if emailOK && passOK {
			return s.tokens.IssueAdminToken(email)
		}
	}
	return "", apperr.E(apperr.InvalidCredential, "Invalid admin credentials", nil)
}
