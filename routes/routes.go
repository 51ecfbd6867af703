package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"YourWheels/cache"
	"YourWheels/handlers"
	"YourWheels/middleware"
	"YourWheels/models"
	"YourWheels/utils"
)

type Deps struct {
	Tokens       *utils.TokenAuthority
	Cache        *cache.Layer
	Auth         *handlers.AuthController
	Accounts     *handlers.AccountController
	Vehicles     *handlers.VehicleController
	Transactions *handlers.TransactionController
	Media        *handlers.MediaController
	Health       *handlers.HealthController
	// OTPRate is the per-client limit of /send-otp and of /verify-otp
	// requests per minute.
	OTPRate int
}

func otpLimiter(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		perMinute = 5
	}
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(float64(perMinute) / 60),
		Burst: perMinute,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many OTP requests, try again later")
		},
	})
}

func RegisterRoutes(e *echo.Echo, d Deps) {
	c := d.Cache
	authed := middleware.Authenticate(d.Tokens)
	buyer := middleware.Authenticate(d.Tokens, models.RoleBuyer)
	seller := middleware.Authenticate(d.Tokens, models.RoleSeller)
	admin := middleware.RequireAdmin(d.Tokens)
	owner := middleware.RequireOwner("id")
	invalidate := c.InvalidateAfter()

	e.GET("/health", d.Health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Authentication
	e.POST("/buyer-signup", d.Auth.Signup(models.RoleBuyer))
	e.POST("/buyer-login", d.Auth.Login(models.RoleBuyer))
	e.POST("/seller-signup", d.Auth.Signup(models.RoleSeller))
	e.POST("/seller-login", d.Auth.Login(models.RoleSeller))
	e.POST("/admin-login", d.Auth.AdminLogin)
	e.POST("/send-otp", d.Auth.SendOTP, otpLimiter(d.OTPRate))
	e.POST("/verify-otp", d.Auth.VerifyOTP, otpLimiter(d.OTPRate))
	e.GET("/auth/:role/google", d.Auth.GoogleLogin)
	e.GET("/auth/:role/google/callback", d.Auth.GoogleCallback, invalidate)

	// Accounts
	for _, role := range []models.Role{models.RoleBuyer, models.RoleSeller} {
		base := "/" + string(role) + "/:id"
		profile := handlers.ProfilePrefix(role)
		e.GET(base, d.Accounts.GetAccount(role), authed, owner, c.Cache(cache.ID(profile, "id"), cache.ProfileTTL))
		e.PUT(base, d.Accounts.UpdateAccount(role), authed, owner, invalidate)
		e.POST(base+"/membership/cancel", d.Accounts.CancelMembership(role), authed, owner, invalidate)
	}

	// Rental listings
	e.POST("/vehicles/add", d.Vehicles.AddRental, seller, invalidate)
	e.GET("/vehicles/available", d.Vehicles.AvailableRentals, c.Cache(cache.Static(handlers.KeyAvailableVehicles), cache.CollectionTTL))
	e.GET("/vehicles/seller/:id", d.Vehicles.SellerRentals, authed, owner, c.Cache(cache.ID(handlers.PrefixSellerVehicles, "id"), cache.CollectionTTL))
	e.GET("/vehicles/:id", d.Vehicles.GetRental, c.Cache(cache.ID(handlers.PrefixVehicle, "id"), cache.ResourceTTL))
	e.PUT("/vehicles/:id/return", d.Vehicles.ReturnRental, seller, invalidate)
	e.POST("/vehicles/:id/reviews", d.Vehicles.ReviewRental, buyer, invalidate)
	e.DELETE("/vehicles/:id", d.Vehicles.DeleteRental, seller, invalidate)

	// Sale listings
	e.POST("/sellVehicles/add", d.Vehicles.AddSale, seller, invalidate)
	e.GET("/sell/all", d.Vehicles.AllSales, c.Cache(cache.Query(handlers.PrefixSellAll), cache.CollectionTTL))
	e.GET("/sell/sold/:id", d.Vehicles.SoldBySeller, authed, owner, c.Cache(cache.ID(handlers.PrefixSold, "id"), cache.SoldTTL))
	e.GET("/sell/:id", d.Vehicles.GetSale, c.Cache(cache.ID(handlers.PrefixSale, "id"), cache.ResourceTTL))
	e.PUT("/sell/update/:id", d.Vehicles.UpdateSale, seller, invalidate)
	e.DELETE("/sell/delete/:id", d.Vehicles.DeleteSale, seller, invalidate)

	// Ledger
	e.POST("/payment", d.Transactions.Membership(models.RoleBuyer), buyer, invalidate)
	e.POST("/seller-payment", d.Transactions.Membership(models.RoleSeller), seller, invalidate)
	e.POST("/create-transaction", d.Transactions.Purchase, buyer, invalidate)
	e.POST("/create-rent-transaction", d.Transactions.Rent, buyer, invalidate)
	e.GET("/transactions/:id", d.Transactions.AccountTransactions, authed, owner)
	e.GET("/seller-stats/:id", d.Transactions.Stats(models.RoleSeller), authed, owner)
	e.GET("/buyer-stats/:id", d.Transactions.Stats(models.RoleBuyer), authed, owner)

	// Administration
	a := e.Group("/admin", admin)
	a.GET("/transactions", d.Transactions.AllTransactions)
	a.GET("/vehicles", d.Vehicles.AllVehicles)
	a.GET("/accounts/:role", d.Accounts.ListAccounts)
	a.DELETE("/accounts/:role/:id", d.Accounts.DeleteAccount, invalidate)

	// Media
	e.POST("/upload", d.Media.Upload, authed, echomw.BodyLimit("12M"))
	e.GET("/media/:id", d.Media.Download)
}
