package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"YourWheels/cache"
	"YourWheels/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (vc *VehicleController) AddSale(c echo.Context) error {
	l, err := vc.create(c, models.KindSale)
	if err != nil {
		return err
	}
	cache.Stale(c, saleKeys(l)...)
	return ok(c, http.StatusCreated, echo.Map{"message": "Vehicle listed for sale", "vehicle": l})
}

// saleQuery turns query parameters into a predicate. Unparseable numbers are
// ignored.
func saleQuery(c echo.Context) func(models.Listing, int) bool {
	brand := strings.ToLower(c.QueryParam("brand"))
	vehicleType := strings.ToLower(c.QueryParam("type"))
	fuel := strings.ToLower(c.QueryParam("fuelType"))
	location := strings.ToLower(c.QueryParam("location"))

	priceMin, hasMin := parseFloat(c.QueryParam("price_min"))
	priceMax, hasMax := parseFloat(c.QueryParam("price_max"))
	yearMin, hasYear := parseInt(c.QueryParam("year_min"))

	return func(l models.Listing, _ int) bool {
		if brand != "" && !strings.Contains(strings.ToLower(l.Brand), brand) {
			return false
		}
		if vehicleType != "" && strings.ToLower(l.Type) != vehicleType {
			return false
		}
		if fuel != "" && strings.ToLower(l.FuelType) != fuel {
			return false
		}
		if location != "" && !strings.Contains(strings.ToLower(l.Location), location) {
			return false
		}
		if hasMin && l.Price < priceMin {
			return false
		}
		if hasMax && l.Price > priceMax {
			return false
		}
		return !hasYear || l.Year >= yearMin
	}
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}

func paginate(c echo.Context, items []models.Listing) ([]models.Listing, int, int) {
	page := 1
	limit := defaultPageSize
	if p, valid := parseInt(c.QueryParam("page")); valid && p > 0 {
		page = p
	}
	if l, valid := parseInt(c.QueryParam("limit")); valid && l > 0 {
		limit = min(l, maxPageSize)
	}
	chunks := lo.Chunk(items, limit)
	if page > len(chunks) {
		return []models.Listing{}, page, limit
	}
	return chunks[page-1], page, limit
}

// AllSales lists unsold vehicles, optionally filtered and paginated.
func (vc *VehicleController) AllSales(c echo.Context) error {
	vehicles, err := vc.listings.List(c.Request().Context(), models.ListingFilter{Kind: models.KindSale, IsSold: lo.ToPtr(false)})
	if err != nil {
		return err
	}
	matched := lo.Filter(vehicles, saleQuery(c))
	page, n, limit := paginate(c, matched)
	return ok(c, http.StatusOK, echo.Map{"vehicles": page, "total": len(matched), "page": n, "limit": limit})
}

func (vc *VehicleController) GetSale(c echo.Context) error {
	id, err := pathID(c, "id", "vehicle id")
	if err != nil {
		return err
	}
	l, err := vc.listings.Get(c.Request().Context(), models.KindSale, id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"vehicle": l})
}

func (vc *VehicleController) SoldBySeller(c echo.Context) error {
	seller, err := pathID(c, "id", "seller id")
	if err != nil {
		return err
	}
	vehicles, err := vc.listings.List(c.Request().Context(), models.ListingFilter{Kind: models.KindSale, Seller: &seller, IsSold: lo.ToPtr(true)})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, echo.Map{"vehicles": vehicles})
}

func (vc *VehicleController) UpdateSale(c echo.Context) error {
	id, err := pathID(c, "id", "vehicle id")
	if err != nil {
		return err
	}
	seller, err := callerID(c)
	if err != nil {
		return err
	}
	var update models.ListingUpdate
	if err := bind(c, &update); err != nil {
		return err
	}
	l, err := vc.listings.Update(c.Request().Context(), models.KindSale, id, seller, update)
	if err != nil {
		return err
	}
	cache.Stale(c, saleKeys(l)...)
	return ok(c, http.StatusOK, echo.Map{"message": "Vehicle updated successfully", "vehicle": l})
}

func (vc *VehicleController) DeleteSale(c echo.Context) error {
	id, err := pathID(c, "id", "vehicle id")
	if err != nil {
		return err
	}
	seller, err := callerID(c)
	if err != nil {
		return err
	}
	l, err := vc.listings.Delete(c.Request().Context(), models.KindSale, id, seller)
	if err != nil {
		return err
	}
	cache.Stale(c, saleKeys(l)...)
	return ok(c, http.StatusOK, echo.Map{"message": "Vehicle deleted successfully"})
}
