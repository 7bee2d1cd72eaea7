package identity

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// EmailPattern is deliberately permissive: word chars, plus, dash and dot
// before the @, a lower-case host and a dotted top level label.
var EmailPattern = regexp.MustCompile(`(?i)^[\w+\-.]+@[a-z\d\-.]+\.[a-z]+$`)

// EmailChecker answers the uniqueness question for the validator.
type EmailChecker interface {
	EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
}

// AccountValidator enforces the field invariants of Account.
type AccountValidator struct {
	cfg    Config
	emails EmailChecker
}

// NewAccountValidator builds a validator. emails may be nil, in which case
// uniqueness is left to the store.
func NewAccountValidator(cfg Config, emails EmailChecker) *AccountValidator {
	return &AccountValidator{cfg: cfg.withDefaults(), emails: emails}
}

// Validate returns a *ValidationError listing every failing field, or an
// infrastructure error from the uniqueness lookup.
func (v *AccountValidator) Validate(ctx context.Context, account *Account) error {
	verr := &ValidationError{}

	fieldErrs := validation.ValidateStruct(account,
		validation.Field(&account.Name,
			validation.By(required(ReasonRequired)),
			validation.By(maxRunes(v.cfg.NameMaxLength)),
		),
		validation.Field(&account.Email,
			validation.By(required(ReasonRequired)),
			validation.By(maxRunes(v.cfg.EmailMaxLength)),
			validation.By(matches(EmailPattern)),
		),
	)
	collect(verr, fieldErrs, map[string]string{"Name": "name", "Email": "email"})

	if account.ChangePassword {
		v.validatePassword(verr, account)
	}

	if _, failed := verr.Reason("email"); !failed && v.emails != nil {
		taken, err := v.emails.EmailTaken(ctx, NormalizeEmail(account.Email), account.ID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
		}
		if taken {
			verr.add("email", ReasonTaken)
		}
	}

	if verr.empty() {
		return nil
	}
	return verr
}

// ValidatePassword checks only the password fields, as if ChangePassword
// were set.
func (v *AccountValidator) ValidatePassword(account *Account) error {
	verr := &ValidationError{}
	v.validatePassword(verr, account)
	if verr.empty() {
		return nil
	}
	return verr
}

func (v *AccountValidator) validatePassword(verr *ValidationError, account *Account) {
	pwd := account.Password
	switch {
	case strings.TrimSpace(pwd) == "":
		verr.add("password", ReasonPasswordRequired)
		return
	case utf8.RuneCountInString(pwd) < v.cfg.PasswordMinLength:
		verr.add("password", ReasonTooShort)
	case len(pwd) > v.cfg.PasswordMaxLength:
		verr.add("password", ReasonTooLong)
	}

	if account.PasswordConfirmation != "" && account.PasswordConfirmation != pwd {
		verr.add("password_confirmation", ReasonConfirmationMismatch)
	}
}

// reasonError lets a rule carry one of the Reason constants through ozzo.
type reasonError string

func (r reasonError) Error() string { return string(r) }

func required(reason string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return reasonError(reason)
		}
		return nil
	}
}

func maxRunes(max int) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if utf8.RuneCountInString(s) > max {
			return reasonError(ReasonTooLong)
		}
		return nil
	}
}

func matches(re *regexp.Regexp) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if !re.MatchString(strings.TrimSpace(s)) {
			return reasonError(ReasonInvalidFormat)
		}
		return nil
	}
}

func collect(verr *ValidationError, err error, names map[string]string) {
	if err == nil {
		return
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		verr.add("account", err.Error())
		return
	}

	for field, ferr := range errs {
		name := field
		if mapped, ok := names[field]; ok {
			name = mapped
		}
		var reason reasonError
		if errors.As(ferr, &reason) {
			verr.add(name, string(reason))
			continue
		}
		verr.add(name, ferr.Error())
	}
}
