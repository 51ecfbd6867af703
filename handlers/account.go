package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"YourWheels/apperr"
	"YourWheels/cache"
	"YourWheels/models"
	"YourWheels/services"
)

type AccountController struct {
	accounts *services.AccountService
	ledger   *services.LedgerService
}

func NewAccountController(accounts *services.AccountService, ledger *services.LedgerService) *AccountController {
	return &AccountController{accounts: accounts, ledger: ledger}
}

func (ac *AccountController) GetAccount(role models.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id", string(role)+" id")
		if err != nil {
			return err
		}
		account, err := ac.accounts.Get(c.Request().Context(), role, id)
		if err != nil {
			return err
		}
		return ok(c, http.StatusOK, echo.Map{string(role): account})
	}
}

func (ac *AccountController) UpdateAccount(role models.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id", string(role)+" id")
		if err != nil {
			return err
		}
		var req models.UpdateAccountRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		account, err := ac.accounts.UpdateProfile(c.Request().Context(), role, id, req)
		if err != nil {
			return err
		}
		cache.Stale(c, key(ProfilePrefix(role), id))
		return ok(c, http.StatusOK, echo.Map{string(role): account})
	}
}

func (ac *AccountController) CancelMembership(role models.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id", string(role)+" id")
		if err != nil {
			return err
		}
		if err := ac.ledger.CancelMembership(c.Request().Context(), role, id); err != nil {
			return err
		}
		cache.Stale(c, key(ProfilePrefix(role), id))
		return ok(c, http.StatusOK, echo.Map{"message": "Membership cancelled"})
	}
}

func adminRole(c echo.Context) (models.Role, error) {
	role, valid := models.ParseRole(c.Param("role"))
	if !valid {
		return "", apperr.E(apperr.Validation, "Role must be buyer or seller", nil)
	}
	return role, nil
}

func (ac *AccountController) ListAccounts(c echo.Context) error {
	role, err := adminRole(c)
	if err != nil {
		return err
	}
	accounts, err := ac.accounts.List(c.Request().Context(), role)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"accounts": accounts, "count": len(accounts)})
}

func (ac *AccountController) DeleteAccount(c echo.Context) error {
	role, err := adminRole(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id", "account id")
	if err != nil {
		return err
	}
	if err := ac.accounts.Delete(c.Request().Context(), role, id); err != nil {
		return err
	}
	cache.Stale(c, key(ProfilePrefix(role), id))
	return ok(c, http.StatusOK, echo.Map{"message": "Account deleted successfully"})
}
