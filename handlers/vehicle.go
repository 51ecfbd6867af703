package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"YourWheels/cache"
	"YourWheels/models"
	"YourWheels/services"
)

// VehicleController serves both rental (/vehicles) and sale (/sell) listings.
type VehicleController struct {
	listings *services.ListingService
}

func NewVehicleController(listings *services.ListingService) *VehicleController {
	return &VehicleController{listings: listings}
}

func (vc *VehicleController) create(c echo.Context, kind models.ListingKind) (*models.Listing, error) {
	var req models.ListingRequest
	if err := bind(c, &req); err != nil {
		return nil, err
	}
	seller, err := self(c, req.SellerID, "seller id")
	if err != nil {
		return nil, err
	}
	return vc.listings.Create(c.Request().Context(), kind, seller, req)
}

func (vc *VehicleController) AddRental(c echo.Context) error {
	l, err := vc.create(c, models.KindRental)
	if err != nil {
		return err
	}
	cache.Stale(c, rentalKeys(l)...)
	return ok(c, http.StatusCreated, echo.Map{"message": "Vehicle added successfully", "vehicle": l})
}

func (vc *VehicleController) SellerRentals(c echo.Context) error {
	seller, err := pathID(c, "id", "seller id")
	if err != nil {
		return err
	}
	vehicles, err := vc.listings.List(c.Request().Context(), models.ListingFilter{Kind: models.KindRental, Seller: &seller})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"vehicles": vehicles})
}

func (vc *VehicleController) AvailableRentals(c echo.Context) error {
	vehicles, err := vc.listings.List(c.Request().Context(), models.ListingFilter{Kind: models.KindRental, IsRented: lo.ToPtr(false)})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"vehicles": vehicles})
}

func (vc *VehicleController) GetRental(c echo.Context) error {
	id, err := pathID(c, "id", "vehicle id")
	if err != nil {
		return err
	}
	l, err := vc.listings.Get(c.Request().Context(), models.KindRental, id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"vehicle": l})
}

func (vc *VehicleController) ReturnRental(c echo.Context) error {
	id, err := pathID(c, "id", "vehicle id")
	if err != nil {
		return err
	}
	seller, err := callerID(c)
	if err != nil {
		return err
	}
	l, err := vc.listings.Return(c.Request().Context(), id, seller)
	if err != nil {
		return err
	}
	cache.Stale(c, rentalKeys(l)...)
	return ok(c, http.StatusOK, echo.Map{"message": "Vehicle returned", "vehicle": l})
}

func (vc *VehicleController) ReviewRental(c echo.Context) error {
	id, err := pathID(c, "id", "vehicle id")
	if err != nil {
		return err
	}
	reviewer, err := callerID(c)
	if err != nil {
		return err
	}
	var req models.ReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	l, err := vc.listings.Review(c.Request().Context(), id, reviewer, req)
	if err != nil {
		return err
	}
	cache.Stale(c, rentalKeys(l)...)
	return ok(c, http.StatusCreated, echo.Map{"message": "Review added", "vehicle": l})
}

func (vc *VehicleController) DeleteRental(c echo.Context) error {
	id, err := pathID(c, "id", "vehicle id")
	if err != nil {
		return err
	}
	seller, err := callerID(c)
	if err != nil {
		return err
	}
	l, err := vc.listings.Delete(c.Request().Context(), models.KindRental, id, seller)
	if err != nil {
		return err
	}
	cache.Stale(c, rentalKeys(l)...)
	return ok(c, http.StatusOK, echo.Map{"message": "Vehicle deleted successfully"})
}

func (vc *VehicleController) AllVehicles(c echo.Context) error {
	filter := models.ListingFilter{}
	if kind := c.QueryParam("kind"); kind != "" {
		filter.Kind = models.ListingKind(kind)
	}
	vehicles, err := vc.listings.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"vehicles": vehicles, "count": len(vehicles)})
}
