package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"YourWheels/apperr"
	"YourWheels/cache"
	"YourWheels/models"
	"YourWheels/services"
	"YourWheels/utils"
)

type TransactionController struct {
	ledger *services.LedgerService
}

func NewTransactionController(ledger *services.LedgerService) *TransactionController {
	return &TransactionController{ledger: ledger}
}

// Membership charges the caller for a plan. /payment serves buyers and
// /seller-payment serves sellers.
func (tc *TransactionController) Membership(role models.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.SubscriptionRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		id, err := self(c, req.AccountID, string(role)+" id")
		if err != nil {
			return err
		}
		res, err := tc.ledger.RecordSubscription(c.Request().Context(), role, id, req.Amount, req.Plan)
		if err != nil {
			return err
		}
		if !res.Approved {
			return apperr.E(apperr.PaymentDeclined, "Payment failed", nil)
		}
		cache.Stale(c, key(ProfilePrefix(role), id))
		return ok(c, http.StatusOK, echo.Map{"message": "Payment successful", "transaction": res.Entry})
	}
}

func (tc *TransactionController) Purchase(c echo.Context) error {
	var req models.PurchaseRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	buyer, err := self(c, req.BuyerID, "buyer id")
	if err != nil {
		return err
	}
	vehicle, err := utils.ParseObjectID(req.VehicleID, "vehicle id")
	if err != nil {
		return err
	}
	res, err := tc.ledger.RecordPurchase(c.Request().Context(), buyer, vehicle, req.Amount)
	if err != nil {
		return err
	}
	cache.Stale(c, saleKeys(res.Listing)...)
	return ok(c, http.StatusCreated, echo.Map{
		"message":      "Transaction successful",
		"vehicle":      res.Listing,
		"transactions": []*models.LedgerEntry{res.Debit, res.Credit},
	})
}

func (tc *TransactionController) Rent(c echo.Context) error {
	var req models.RentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	buyer, err := self(c, req.BuyerID, "buyer id")
	if err != nil {
		return err
	}
	vehicle, err := utils.ParseObjectID(req.VehicleID, "vehicle id")
	if err != nil {
		return err
	}
	res, err := tc.ledger.RecordRental(c.Request().Context(), buyer, vehicle, req.Amount, req.From, req.To)
	if err != nil {
		return err
	}
	cache.Stale(c, rentalKeys(res.Listing)...)
	return ok(c, http.StatusCreated, echo.Map{
		"message":       "Vehicle rented successfully",
		"transactionId": res.TransactionID,
		"transaction":   res.Entry,
		"vehicle":       res.Listing,
	})
}

func (tc *TransactionController) AccountTransactions(c echo.Context) error {
	id, err := pathID(c, "id", "account id")
	if err != nil {
		return err
	}
	entries, err := tc.ledger.EntriesFor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"transactions": entries, "totalRevenue": services.Revenue(entries)})
}

func (tc *TransactionController) AllTransactions(c echo.Context) error {
	filter := models.EntryFilter{
		Type:   models.EntryType(c.QueryParam("type")),
		Status: models.EntryStatus(c.QueryParam("status")),
	}
	entries, err := tc.ledger.AllEntries(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"transactions": entries, "count": len(entries)})
}

func (tc *TransactionController) Stats(role models.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "id", string(role)+" id")
		if err != nil {
			return err
		}
		stats, err := tc.ledger.StatsFor(c.Request().Context(), id, role)
		if err != nil {
			return err
		}
		return ok(c, http.StatusOK, echo.Map{"stats": stats})
	}
}
