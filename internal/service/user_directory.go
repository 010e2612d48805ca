package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/cafeteria-pos/internal/model"
)

// UserDirectory resolves card UIDs to persons and evaluates access
// eligibility. Blocks with a passed expiry are cleared lazily during the
// access check, so the first post-expiry scan pays the write instead of a
// background sweeper.
type UserDirectory struct {
	persons PersonStore
	now     func() time.Time
}

func NewUserDirectory(persons PersonStore) *UserDirectory {
	return &UserDirectory{persons: persons, now: time.Now}
}

// ResolveUID looks up an active person by normalized card UID.
func (d *UserDirectory) ResolveUID(ctx context.Context, uid string) (*model.Person, error) {
	return d.persons.GetByUID(ctx, NormalizeUID(uid))
}

// GetByID looks up a person by primary key.
func (d *UserDirectory) GetByID(ctx context.Context, id uint64) (*model.Person, error) {
	return d.persons.GetByID(ctx, id)
}

// Search matches persons by name, UID or email fragment.
func (d *UserDirectory) Search(ctx context.Context, query string) ([]model.Person, error) {
	return d.persons.Search(ctx, strings.TrimSpace(query), 20)
}

// RegisterInput carries the fields required to register a new cardholder.
type RegisterInput struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	ClassOrYear string `json:"class_or_year"`
	Category    string `json:"category"`
	Email       string `json:"email"`
}

// Register creates a person for an unregistered card. Field values are
// normalized the same way on every write path: UID uppercase, email
// lowercase, category lowercase.
func (d *UserDirectory) Register(ctx context.Context, in RegisterInput) (*model.Person, error) {
	in.UID = NormalizeUID(in.UID)
	in.Name = strings.TrimSpace(in.Name)
	in.ClassOrYear = strings.TrimSpace(in.ClassOrYear)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.UID == "" || in.Name == "" || in.Email == "" {
		return nil, Validationf("uid, name and email are required")
	}
	if in.Category != model.CategoryStudent && in.Category != model.CategoryStaff {
		return nil, Validationf("category must be %q or %q", model.CategoryStudent, model.CategoryStaff)
	}
	return d.persons.Create(ctx, &model.Person{
		UID:         in.UID,
		Name:        in.Name,
		ClassOrYear: in.ClassOrYear,
		Category:    in.Category,
		Email:       in.Email,
	})
}

// Authorize decides whether a person may use the terminal. It returns an
// *AccessDenied error when not, with a reason and optional block expiry.
// When a block has expired it clears the block fields, persists the change
// and grants access; a failure to persist still grants access and is only
// logged, to keep the display responsive.
func (d *UserDirectory) Authorize(ctx context.Context, p *model.Person) error {
	if !p.IsActive {
		return &AccessDenied{
			Reason:  "Account is inactive",
			Message: "This account has been deactivated. Please contact administration.",
		}
	}
	if !p.IsBlocked {
		return nil
	}
	if p.Block.ExpiresAt != nil && d.now().After(*p.Block.ExpiresAt) {
		if err := d.persons.ClearBlock(ctx, p.ID); err != nil {
			log.Printf("directory: auto-unblock persist failed for person %d: %v", p.ID, err)
		} else {
			log.Printf("directory: auto-unblocked expired block for person %d (uid=%s)", p.ID, p.UID)
		}
		p.IsBlocked = false
		p.Block = model.BlockInfo{}
		return nil
	}
	msg := p.Block.Reason
	if msg == "" {
		msg = "This account has been temporarily blocked."
	}
	return &AccessDenied{
		Reason:    "Account is blocked",
		Message:   msg,
		ExpiresAt: p.Block.ExpiresAt,
	}
}

// RecordScan bumps scan bookkeeping for a person.
func (d *UserDirectory) RecordScan(ctx context.Context, personID uint64) error {
	return d.persons.RecordScan(ctx, personID, d.now().UTC())
}

// NormalizeUID canonicalizes a raw card identifier to uppercase hex form.
func NormalizeUID(uid string) string {
	return strings.ToUpper(strings.TrimSpace(uid))
}
