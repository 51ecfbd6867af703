package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"YourWheels/apperr"
	"YourWheels/cache"
	"YourWheels/models"
	"YourWheels/oauth"
	"YourWheels/services"
)

const stateCookie = "oauth_state"

type AuthController struct {
	accounts    *services.AccountService
	otp         *services.OTPService
	providers   oauth.Providers
	frontendURL string
	log         *zap.Logger
}

func NewAuthController(accounts *services.AccountService, otp *services.OTPService, providers oauth.Providers, frontendURL string, log *zap.Logger) *AuthController {
	return &AuthController{
		accounts:    accounts,
		otp:         otp,
		providers:   providers,
		frontendURL: frontendURL,
		log:         log.Named("auth"),
	}
}

func authBody(res *services.AuthResult) echo.Map {
	a := res.Account
	body := echo.Map{
		"token":          res.Token,
		"firstName":      a.FirstName,
		"lastName":       a.LastName,
		"email":          a.Email,
		"role":           a.Role,
		"isMember":       a.IsMember,
		"membershipPlan": a.MembershipPlan,
	}
	body[string(a.Role)+"Id"] = a.ID.Hex()
	return body
}

func (ac *AuthController) Signup(role models.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.RegisterRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		res, err := ac.accounts.Register(c.Request().Context(), role, req)
		if err != nil {
			return err
		}
		return ok(c, http.StatusCreated, authBody(res))
	}
}

func (ac *AuthController) Login(role models.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.LoginRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		res, err := ac.accounts.Authenticate(c.Request().Context(), role, req.Email, req.Password)
		if err != nil {
			return err
		}
		return ok(c, http.StatusOK, authBody(res))
	}
}

func (ac *AuthController) AdminLogin(c echo.Context) error {
	var req models.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	token, err := ac.accounts.AuthenticateAdmin(req.Email, req.Password)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"token": token, "role": models.RoleAdmin})
}

func (ac *AuthController) SendOTP(c echo.Context) error {
	var req models.OTPRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := ac.otp.Issue(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"message": "OTP sent successfully"})
}

func (ac *AuthController) VerifyOTP(c echo.Context) error {
	var req models.OTPRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.OTP == "" {
		return apperr.E(apperr.Validation, "OTP is required", nil)
	}
	if err := ac.otp.Verify(c.Request().Context(), req.Email, req.OTP); err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"message": "OTP verified successfully"})
}

func (ac *AuthController) provider(c echo.Context) (models.Role, oauth.Provider, error) {
	role, valid := models.ParseRole(c.Param("role"))
	if !valid {
		return "", nil, apperr.E(apperr.NotFound, "Unknown role", nil)
	}
	p, found := ac.providers[role]
	if !found {
		return "", nil, apperr.E(apperr.NotFound, "Google login is not configured for "+string(role)+"s", nil)
	}
	return role, p, nil
}

// GoogleLogin starts the OAuth flow. The state is echoed back by Google and
// checked against a short-lived cookie.
func (ac *AuthController) GoogleLogin(c echo.Context) error {
	_, p, err := ac.provider(c)
	if err != nil {
		return err
	}
	state := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int((10 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusTemporaryRedirect, p.AuthCodeURL(state))
}

// GoogleCallback finishes the flow and hands the token to the front end.
func (ac *AuthController) GoogleCallback(c echo.Context) error {
	role, p, err := ac.provider(c)
	if err != nil {
		return err
	}
	cookie, err := c.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != c.QueryParam("state") {
		return apperr.E(apperr.Unauthorized, "Invalid OAuth state", err)
	}
	c.SetCookie(&http.Cookie{Name: stateCookie, Path: "/auth", MaxAge: -1})

	code := c.QueryParam("code")
	if code == "" {
		return apperr.E(apperr.Validation, "Missing authorization code", nil)
	}
	identity, err := p.Identify(c.Request().Context(), code)
	if err != nil {
		return apperr.E(apperr.Upstream, "Google login failed", err)
	}
	res, err := ac.accounts.ResolveFederatedIdentity(c.Request().Context(), role, identity.ExternalID, identity.Email, identity.Profile)
	if err != nil {
		return err
	}
	cache.Stale(c, key(ProfilePrefix(role), res.Account.ID))

	q := url.Values{}
	q.Set("token", res.Token)
	q.Set("role", string(role))
	q.Set("id", res.Account.ID.Hex())
	return c.Redirect(http.StatusFound, ac.frontendURL+"/auth/success?"+q.Encode())
}
