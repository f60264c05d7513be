//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"regexp"
	"sync/atomic"
	"testing"
)

var (
	uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	emailSeq    atomic.Int64
)

// nextEmail returns a unique address so tests never collide on the email
// uniqueness constraint.
func nextEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, emailSeq.Add(1))
}

func TestRegister(t *testing.T) {
	session := registerUser(t, nextEmail("register"), "hunter2hunter2")

	if !uuidPattern.MatchString(session.User.ID) {
		t.Errorf("user ID %q is not a valid UUID", session.User.ID)
	}
	if session.Token == "" {
		t.Error("session token is empty")
	}
	if session.User.ReferralCode == "" {
		t.Error("referral code is empty")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	email := nextEmail("dup")
	registerUser(t, email, "hunter2hunter2")

	resp := doPost(t, "/api/register", map[string]any{
		"email":    email,
		"password": "hunter2hunter2",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	resp := doPost(t, "/api/register", map[string]any{
		"email":    nextEmail("short"),
		"password": "short",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestLogin(t *testing.T) {
	email := nextEmail("login")
	registerUser(t, email, "hunter2hunter2")

	resp := doPost(t, "/api/login", map[string]any{
		"email":    email,
		"password": "hunter2hunter2",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	session := decodeJSON[sessionResponse](t, resp)
	if session.Token == "" {
		t.Error("session token is empty")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	email := nextEmail("wrongpw")
	registerUser(t, email, "hunter2hunter2")

	resp := doPost(t, "/api/login", map[string]any{
		"email":    email,
		"password": "not-the-password",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCart_RequiresAuth(t *testing.T) {
	resp := doGet(t, "/api/cart")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestCart_AddAndRemove(t *testing.T) {
	session := registerUser(t, nextEmail("cart"), "hunter2hunter2")

	listResp := doGet(t, "/api/products")
	defer listResp.Body.Close()
	products := decodeJSON[[]productResponse](t, listResp)
	if len(products) == 0 {
		t.Fatal("no products seeded")
	}

	addResp := doReq(t, http.MethodPost, "/api/cart/items", session.Token, map[string]any{
		"itemId":   products[0].ID,
		"quantity": 2,
	})
	defer addResp.Body.Close()
	if addResp.StatusCode != http.StatusOK {
		t.Fatalf("add item: expected 200, got %d", addResp.StatusCode)
	}

	cart := decodeJSON[cartResponse](t, addResp)
	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 cart line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 2 {
		t.Errorf("quantity: got %d, want 2", cart.Items[0].Quantity)
	}

	rmResp := doReq(t, http.MethodDelete, "/api/cart/items/"+products[0].ID, session.Token, nil)
	defer rmResp.Body.Close()
	if rmResp.StatusCode != http.StatusOK {
		t.Fatalf("remove item: expected 200, got %d", rmResp.StatusCode)
	}

	cart = decodeJSON[cartResponse](t, rmResp)
	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Items))
	}
}

func TestCart_AddUnknownProduct(t *testing.T) {
	session := registerUser(t, nextEmail("cart-unknown"), "hunter2hunter2")

	resp := doReq(t, http.MethodPost, "/api/cart/items", session.Token, map[string]any{
		"itemId":   "no-such-product",
		"quantity": 1,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestFavourite_SaveAndLoad(t *testing.T) {
	session := registerUser(t, nextEmail("fav"), "hunter2hunter2")

	listResp := doGet(t, "/api/products")
	defer listResp.Body.Close()
	products := decodeJSON[[]productResponse](t, listResp)
	if len(products) == 0 {
		t.Fatal("no products seeded")
	}

	addResp := doReq(t, http.MethodPost, "/api/cart/items", session.Token, map[string]any{
		"itemId":   products[0].ID,
		"quantity": 1,
	})
	addResp.Body.Close()

	saveResp := doReq(t, http.MethodPut, "/api/favourite", session.Token, nil)
	defer saveResp.Body.Close()
	if saveResp.StatusCode != http.StatusNoContent {
		t.Fatalf("save favourite: expected 204, got %d", saveResp.StatusCode)
	}

	favResp := doReq(t, http.MethodGet, "/api/favourite", session.Token, nil)
	defer favResp.Body.Close()
	fav := decodeJSON[favouriteResponse](t, favResp)
	if len(fav.Items) != 1 {
		t.Fatalf("expected 1 favourite item, got %d", len(fav.Items))
	}
	if fav.PurchaseCount != 0 {
		t.Errorf("purchase count: got %d, want 0", fav.PurchaseCount)
	}
	if fav.Discount != 0 {
		t.Errorf("discount tier: got %d, want 0", fav.Discount)
	}

	loadResp := doReq(t, http.MethodPost, "/api/favourite/load", session.Token, nil)
	defer loadResp.Body.Close()
	if loadResp.StatusCode != http.StatusOK {
		t.Fatalf("load favourite: expected 200, got %d", loadResp.StatusCode)
	}
	cart := decodeJSON[cartResponse](t, loadResp)
	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 cart line after load, got %d", len(cart.Items))
	}
}

func TestFavourite_SaveEmptyCart(t *testing.T) {
	session := registerUser(t, nextEmail("fav-empty"), "hunter2hunter2")

	resp := doReq(t, http.MethodPut, "/api/favourite", session.Token, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	session := registerUser(t, nextEmail("checkout-empty"), "hunter2hunter2")

	resp := doReq(t, http.MethodPost, "/api/checkout", session.Token, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCRM_ForbiddenForCustomer(t *testing.T) {
	session := registerUser(t, nextEmail("crm-customer"), "hunter2hunter2")

	resp := doReq(t, http.MethodGet, "/api/crm/orders", session.Token, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestCRM_RequiresAuth(t *testing.T) {
	resp := doGet(t, "/api/crm/orders")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
