package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cortisolapp/cortisol-companion/internal/db"
	"github.com/cortisolapp/cortisol-companion/internal/models"
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrPasswordTooShort   = errors.New("password must be at least 4 characters long")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Identity answers who is signed in for the current call. The server
// side satisfies it from the JWT middleware, the embedded client side
// from the session state kept by Service.
type Identity interface {
	CurrentUserID(ctx context.Context) string
}

// Provider is the authentication capability the rest of the app
// consumes: sign-up, sign-in, sign-out, current user, and state-change
// notification.
type Provider interface {
	Identity
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.User, string, error)
	SignOut()
	OnAuthStateChanged(fn func(userID string))
}

// Service implements Provider over the users table with bcrypt
// password hashes and HS256 session tokens.
type Service struct {
	UserRepo  db.UserRepositoryInterface
	JWTSecret string

	mutex         sync.Mutex
	currentUserID string
	listeners     []func(userID string)
}

func NewService(userRepo db.UserRepositoryInterface, jwtSecret string) *Service {
	return &Service{UserRepo: userRepo, JWTSecret: jwtSecret}
}

// SignUp validates the credentials, stores the user with a bcrypt
// hash, and leaves the caller signed out (sign-in is a separate step,
// as in the mobile flow).
func (s *Service) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	if err := ValidateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	log.Printf("User registered: %s", user.Email)
	return user, nil
}

// SignIn verifies the password and returns a signed session token. On
// success the user becomes the current user and listeners are
// notified.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.UserRepo.GetByEmail(ctx, email)
	if err != nil {
		log.Printf("Error retrieving user by email %s: %v", email, err)
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Printf("Invalid password for email: %s", email)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user.ID.String())
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	s.setCurrentUser(user.ID.String())
	log.Printf("User logged in: %s", email)
	return user, token, nil
}

// SignOut clears the current user and notifies listeners with an empty
// user id.
func (s *Service) SignOut() {
	s.setCurrentUser("")
}

// CurrentUserID returns the signed-in user id, or "" when nobody is
// signed in. The context is unused here; the HTTP middleware identity
// reads it instead.
func (s *Service) CurrentUserID(ctx context.Context) string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.currentUserID
}

// OnAuthStateChanged registers a callback invoked with the new user id
// ("" on sign-out) after every auth state transition.
func (s *Service) OnAuthStateChanged(fn func(userID string)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) setCurrentUser(userID string) {
	s.mutex.Lock()
	s.currentUserID = userID
	listeners := s.listeners
	s.mutex.Unlock()

	for _, notify := range listeners {
		notify(userID)
	}
}

func ValidateCredentials(email, password string) error {
	if !isValidEmail(email) {
		return ErrInvalidEmail
	}
	if len(password) < 4 {
		return ErrPasswordTooShort
	}
	return nil
}

func isValidEmail(email string) bool {
	const emailRegex = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	re := regexp.MustCompile(emailRegex)
	return re.MatchString(email)
}
