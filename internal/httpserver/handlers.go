package httpserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/backend"
	"github.com/Nagoor-Khan-P/FarmConnect-sub000/internal/domain"
)

type handlers struct {
	deps   Deps
	logger *log.Logger
}

const sessionCtxKey = "storefront.session"

// withSession resolves the per-session identity/cart pair from the
// X-Session-Id header.
func (h *handlers) withSession(c *gin.Context) {
	id := c.GetHeader(sessionHeader)
	if id == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing " + sessionHeader + " header"})
		return
	}
	entry, err := h.deps.Sessions.Get(c.Request.Context(), id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	c.Set(sessionCtxKey, entry)
	c.Next()
}

func (h *handlers) session(c *gin.Context) *Session {
	return c.MustGet(sessionCtxKey).(*Session)
}

func (h *handlers) createSession(c *gin.Context) {
	entry := h.deps.Sessions.Create(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"sessionId": entry.ID})
}

type signInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handlers) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := h.session(c)
	res, err := h.deps.Backend.SignIn(c.Request.Context(), backend.SignInInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in failed"})
		return
	}
	if err := entry.Identity.Login(c.Request.Context(), res); err != nil {
		h.logger.Printf("session %s: login: %v", entry.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not persist session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": res.Profile})
}

type signUpRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// signUp proxies account creation. It never touches identity; the storefront
// signs in separately afterwards.
func (h *handlers) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.deps.Backend.SignUp(c.Request.Context(), backend.SignUpInput(req)); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "sign up failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "registered"})
}

func (h *handlers) signOut(c *gin.Context) {
	entry := h.session(c)
	entry.Identity.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// updateProfileRequest limits the PATCH surface to the fields the account
// owner may edit; id and role stay backend-assigned.
type updateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
}

func (h *handlers) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry := h.session(c)
	merged, err := entry.Identity.UpdateProfile(c.Request.Context(), domain.Profile{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		h.logger.Printf("session %s: update profile: %v", entry.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not persist profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": merged})
}

type cartItemView struct {
	LineID     string          `json:"lineId"`
	ProductID  string          `json:"productId"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
	Unit       string          `json:"unit"`
	ImageURL   string          `json:"imageUrl"`
	FarmName   string          `json:"farmName"`
	FarmerName string          `json:"farmerName"`
}

type cartView struct {
	Items []cartItemView  `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

func (h *handlers) cartResponse(entry *Session) cartView {
	items := entry.Cart.Items()
	views := make([]cartItemView, 0, len(items))
	for _, it := range items {
		views = append(views, cartItemView{
			LineID:     it.LineID,
			ProductID:  it.ProductID,
			Name:       it.Name,
			UnitPrice:  it.UnitPrice,
			Quantity:   it.Quantity,
			Unit:       it.Unit,
			ImageURL:   h.deps.Assets.Resolve(it.ImageRef, it.ProductID),
			FarmName:   it.FarmName,
			FarmerName: it.FarmerName,
		})
	}
	agg := entry.Cart.Aggregates()
	return cartView{Items: views, Count: agg.Count, Total: agg.Total}
}

func (h *handlers) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartResponse(h.session(c)))
}

type addItemRequest struct {
	ProductID  string          `json:"productId" binding:"required"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Unit       string          `json:"unit"`
	ImageURL   string          `json:"imageUrl"`
	FarmName   string          `json:"farmName"`
	FarmerName string          `json:"farmerName"`
}

func (h *handlers) addItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry := h.session(c)
	err := entry.Cart.AddToCart(c.Request.Context(), domain.Product{
		ID:         req.ProductID,
		Name:       req.Name,
		Price:      req.Price,
		Unit:       req.Unit,
		ImageRef:   req.ImageURL,
		FarmName:   req.FarmName,
		FarmerName: req.FarmerName,
	})
	if err != nil {
		h.cartError(c, entry, err)
		return
	}
	c.JSON(http.StatusOK, h.cartResponse(entry))
}

func (h *handlers) increaseItem(c *gin.Context) {
	h.adjustItem(c, +1)
}

func (h *handlers) decreaseItem(c *gin.Context) {
	h.adjustItem(c, -1)
}

func (h *handlers) adjustItem(c *gin.Context, delta int) {
	entry := h.session(c)
	if err := entry.Cart.UpdateQuantity(c.Request.Context(), c.Param("lineId"), delta); err != nil {
		h.cartError(c, entry, err)
		return
	}
	c.JSON(http.StatusOK, h.cartResponse(entry))
}

func (h *handlers) removeItem(c *gin.Context) {
	entry := h.session(c)
	if err := entry.Cart.RemoveFromCart(c.Request.Context(), c.Param("lineId")); err != nil {
		h.cartError(c, entry, err)
		return
	}
	c.JSON(http.StatusOK, h.cartResponse(entry))
}

func (h *handlers) clearCart(c *gin.Context) {
	entry := h.session(c)
	if err := entry.Cart.ClearCart(c.Request.Context()); err != nil {
		h.cartError(c, entry, err)
		return
	}
	c.JSON(http.StatusOK, h.cartResponse(entry))
}

// cartError maps a failed mutation. The in-memory cart is unchanged on any
// failure, so the storefront can re-render from the error payload's cart.
func (h *handlers) cartError(c *gin.Context, entry *Session, err error) {
	h.logger.Printf("session %s: cart mutation: %v", entry.ID, err)
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrBackend) {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": "cart update failed", "cart": h.cartResponse(entry)})
}

func (h *handlers) products(c *gin.Context) {
	raw, err := h.deps.Backend.Products(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "catalog unavailable"})
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}
