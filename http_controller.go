package credentials

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/nyaruka/phonenumbers"
)

// RegisterAuthRoutes mounts the token and account endpoints on the given
// router. Profile routes expect the token middleware to have stored claims
// in locals; mount them behind tokenware.New.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {

	controller := NewAuthController(opts...)

	app.
		Post(controller.Routes.Token, controller.TokenPost).
		SetName("token.post")

	app.
		Post(controller.Routes.TokenRefresh, controller.TokenRefreshPost).
		SetName("token-refresh.post")

	app.Post(controller.Routes.PasswordRecovery, controller.PasswordRecoveryPost).
		SetName("pwd-recovery.post")

	app.Post(controller.Routes.ResetPassword, controller.ResetPasswordPost).
		SetName("pwd-reset.post")

	app.Post(controller.Routes.Users, controller.UsersCreate).
		SetName("users.post")

	return controller
}

// RegisterProfileRoutes mounts the authenticated profile endpoints behind the
// given middleware, typically tokenware.New with an access token decoder.
func RegisterProfileRoutes[T any](app router.Router[T], controller *AuthController, middleware ...router.MiddlewareFunc) {
	for _, m := range middleware {
		app.Use(m)
	}

	app.Get(controller.Routes.Profile, controller.ProfileShow).
		SetName("profile.get")

	app.Put(controller.Routes.Profile, controller.ProfileUpdate).
		SetName("profile.put")
}

type AuthControllerRoutes struct {
	Token            string
	TokenRefresh     string
	PasswordRecovery string
	ResetPassword    string
	Users            string
	Profile          string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Verifier     *Verifier
	Routes       *AuthControllerRoutes
	ClaimsKey    string
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		ClaimsKey:    "claims",
		Routes: &AuthControllerRoutes{
			Token:            "/token",
			TokenRefresh:     "/token/refresh",
			PasswordRecovery: "/password-recovery/:email",
			ResetPassword:    "/reset-password",
			Users:            "/users",
			Profile:          "/users/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Verifier == nil {
		panic("Missing Verifier in auth controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerVerifier(verifier *Verifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Verifier = verifier
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// TokenRequest payload
type TokenRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r TokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) TokenPost(ctx router.Context) error {
	payload := new(TokenRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("token payload bind: %s", err)
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= TOKEN REQUEST ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	pair, err := a.Verifier.Authenticate(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Debug("authentication rejected: %s", err)
		return ctx.JSON(fiber.StatusUnauthorized, router.ViewContext{
			"error": "Incorrect email or password",
		})
	}

	return ctx.JSON(fiber.StatusOK, pair)
}

// TokenRefreshRequest payload
type TokenRefreshRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

// Validate will run validation rules
func (r TokenRefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.RefreshToken,
			validation.Required,
		),
	)
}

func (a *AuthController) TokenRefreshPost(ctx router.Context) error {
	payload := new(TokenRefreshRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("token refresh payload bind: %s", err)
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"validation": FormatValidationErrorToMap(err),
		})
	}

	pair, err := a.Verifier.RefreshAccess(ctx.Context(), payload.RefreshToken)
	if err != nil {
		a.Logger.Debug("token refresh rejected: %s", err)
		return ctx.JSON(fiber.StatusUnauthorized, router.ViewContext{
			"error": "Invalid or expired token",
		})
	}

	return ctx.JSON(fiber.StatusOK, pair)
}

func (a *AuthController) PasswordRecoveryPost(ctx router.Context) error {
	email := ctx.Param("email")

	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"validation": map[string]string{"email": err.Error()},
		})
	}

	var res *InitializePasswordResetResponse

	req := InitializePasswordResetMessage{
		Email: email,
		OnResponse: func(resp *InitializePasswordResetResponse) {
			res = resp
		},
	}

	initPwdReset := NewInitializePasswordResetHandler(a.Verifier).WithLogger(a.Logger)

	if err := initPwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password recovery error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println("================")
		fmt.Println(print.MaybePrettyJSON(res))
		fmt.Println("================")
	}

	// Same body whether or not the email is registered.
	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"msg": res.Message,
	})
}

// ResetPasswordPayload holds values for password reset
type ResetPasswordPayload struct {
	Token           string `form:"token" json:"token"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Token,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(10, 100),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) ResetPasswordPost(ctx router.Context) error {
	payload := new(ResetPasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("reset password payload bind: %s", err)
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"validation": FormatValidationErrorToMap(err),
		})
	}

	input := FinalizePasswordResetMessage{
		Token:    payload.Token,
		Password: payload.Password,
	}

	finalizePwdReset := NewFinalizePasswordResetHandler(a.Verifier).WithLogger(a.Logger)

	if err := finalizePwdReset.Execute(ctx.Context(), input); err != nil {
		// a token for a since-deleted account gets the same rejection as a
		// bad token; this route has exactly two outcomes
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"error": "Invalid or expired reset token",
		})
	}

	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"msg": "Password updated",
	})
}

// AccountCreatePayload is the registration payload
type AccountCreatePayload struct {
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r AccountCreatePayload) Validate() error {

	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.By(ValidatePhoneNumber("US"))),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) UsersCreate(ctx router.Context) error {
	payload := new(AccountCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register account payload bind: %s", err)
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register account validate payload: %s", err)
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"validation": FormatValidationErrorToMap(err),
		})
	}

	var created *Account

	req := RegisterAccountMessage{
		Email:    payload.Email,
		Phone:    payload.Phone,
		Password: payload.Password,
		OnResponse: func(a *Account) {
			created = a
		},
	}

	registerAccount := NewRegisterAccountHandler(a.Repo).WithLogger(a.Logger)

	if err := registerAccount.Execute(ctx.Context(), req); err != nil {
		if goerrors.Is(err, ErrEmailConflict) {
			return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
				"error": ErrEmailConflict.Message,
			})
		}
		a.Logger.Error("register account error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, created)
}

func (a *AuthController) ProfileShow(ctx router.Context) error {
	account, err := a.currentAccount(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}
	return ctx.JSON(fiber.StatusOK, account)
}

// ProfileUpdatePayload holds the email change request
type ProfileUpdatePayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) ProfileUpdate(ctx router.Context) error {
	account, err := a.currentAccount(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	payload := new(ProfileUpdatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("profile update payload bind: %s", err)
		return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
			"validation": FormatValidationErrorToMap(err),
		})
	}

	updated, err := a.Verifier.ChangeEmail(ctx.Context(), account, payload.Password, payload.Email)
	if err != nil {
		if goerrors.Is(err, ErrWrongPassword) {
			return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
				"error": ErrWrongPassword.Message,
			})
		}
		if goerrors.Is(err, ErrEmailConflict) {
			return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
				"error": ErrEmailConflict.Message,
			})
		}
		a.Logger.Error("profile update error: %s", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, updated)
}

func (a *AuthController) currentAccount(ctx router.Context) (*Account, error) {
	claims, ok := GetRouterClaims(ctx, a.ClaimsKey)
	if !ok {
		return nil, ErrUnauthenticated
	}

	account, err := a.Verifier.IdentityFromClaims(ctx.Context(), claims)
	if err != nil {
		return nil, err
	}

	return account, nil
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// ValidatePhoneNumber parses the value as a phone number for the given
// default region. Empty values pass, the field is optional.
func ValidatePhoneNumber(region string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		num, err := phonenumbers.Parse(s, region)
		if err != nil {
			return errors.New("must be a valid phone number")
		}
		if !phonenumbers.IsValidNumber(num) {
			return errors.New("must be a valid phone number")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

func defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Code > 0 {
		return c.JSON(richErr.Code, router.ViewContext{
			"error":     richErr.Message,
			"text_code": richErr.TextCode,
		})
	}

	return c.JSON(fiber.StatusInternalServerError, router.ViewContext{
		"error": "Internal server error",
	})
}
