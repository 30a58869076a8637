package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"labtrack/internal/database"
	"labtrack/internal/models"
)

func TestUserManagement(t *testing.T) {
	app := newTestApp(t, "development")
	admin := app.session(t, models.AdminUsername)

	w := app.post("/users/create", url.Values{
		"username":    {"lan"},
		"password":    {"secret"},
		"role":        {"user"},
		"permissions": {"receiving", "closing"},
	}, admin)
	expectRedirect(t, w, "/users")
	expectFlash(t, w, flashSuccess, "User created")

	lan, err := app.stores.Users.Get("lan")
	if err != nil {
		t.Fatal("Failed to get created user:", err)
	}
	if len(lan.Permissions) != 2 || !lan.Active {
		t.Errorf("Unexpected user: %+v", lan)
	}

	expectFlash(t, app.post("/users/create", url.Values{"username": {"lan"}, "password": {"x"}}, admin),
		flashDanger, "already exists")
	expectFlash(t, app.post("/users/create", url.Values{"username": {"hoa"}}, admin),
		flashWarning, "username and password")

	w = app.post("/users/create", url.Values{"username": {"boss"}, "password": {"x"}, "role": {"admin"}}, admin)
	expectFlash(t, w, flashSuccess, "User created")
	if boss, _ := app.stores.Users.Get("boss"); len(boss.Permissions) != len(models.DefaultSections) {
		t.Errorf("Expected admin to receive every section, got %v", boss.Permissions)
	}

	page := app.get("/users", admin).Body.String()
	if !strings.Contains(page, "lan") || !strings.Contains(page, "receiving, closing") {
		t.Error("Expected created user in the list")
	}
}

func TestDeleteUser(t *testing.T) {
	app := newTestApp(t, "development")
	admin := app.session(t, models.AdminUsername)
	lan := app.addUser(t, "lan", models.SectionReceiving)

	expectFlash(t, app.post("/users/delete/Admin", nil, admin), flashWarning, "your own account")

	if err := app.stores.Users.Create("root", "x", models.RoleAdmin, nil); err != nil {
		t.Fatal("Failed to create admin:", err)
	}
	root := app.session(t, "root")
	expectFlash(t, app.post("/users/delete/Admin", nil, root), flashDanger, "cannot be deleted")

	expectFlash(t, app.post("/users/delete/lan", nil, admin), flashSuccess, "User deleted")
	if _, err := database.ValidateSession(app.db, lan.Value, time.Hour); err == nil {
		t.Error("Expected the deleted user's sessions to be gone")
	}
	expectRedirect(t, app.get("/receiving", lan), "/login")

	expectFlash(t, app.post("/users/delete/ghost", nil, admin), flashDanger, "cannot be deleted")
}

func TestToggleUserActive(t *testing.T) {
	app := newTestApp(t, "development")
	admin := app.session(t, models.AdminUsername)
	lan := app.addUser(t, "lan", models.SectionReceiving)

	w := app.post("/users/lan/toggle-active", nil, admin)
	expectFlash(t, w, flashSuccess, "deactivated")
	if u, _ := app.stores.Users.Get("lan"); u.Active {
		t.Error("Expected lan to be inactive")
	}
	if w := app.get("/receiving", lan); w.Code != http.StatusFound {
		t.Errorf("Expected deactivated user to lose access, got %d", w.Code)
	}

	expectFlash(t, app.post("/users/lan/toggle-active", nil, admin), flashSuccess, "activated")
	if u, _ := app.stores.Users.Get("lan"); !u.Active {
		t.Error("Expected lan to be active again")
	}

	expectFlash(t, app.post("/users/Admin/toggle-active", nil, admin), flashWarning, "your own account")
	expectFlash(t, app.post("/users/ghost/toggle-active", nil, admin), flashDanger, "User not found")
}

func TestChangePassword(t *testing.T) {
	app := newTestApp(t, "development")
	lan := app.addUser(t, "lan", models.SectionReceiving)

	if w := app.get("/account", lan); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "receiving") {
		t.Errorf("Expected account page, got %d", w.Code)
	}

	change := func(current, next, confirm string) []Flash {
		w := app.post("/account/password", url.Values{
			"current_password": {current},
			"new_password":     {next},
			"confirm_password": {confirm},
		}, lan)
		expectRedirect(t, w, "/account")
		return flashesOf(t, w)
	}

	cases := []struct {
		current, next, confirm string
		category                string
	}{
		{"", "newpassword", "newpassword", flashWarning},
		{"password1", "newpassword", "other", flashWarning},
		{"password1", "short", "short", flashWarning},
		{"wrong", "newpassword", "newpassword", flashDanger},
		{"password1", "newpassword", "newpassword", flashSuccess},
	}
	for i, tc := range cases {
		flashes := change(tc.current, tc.next, tc.confirm)
		if len(flashes) != 1 || flashes[0].Category != tc.category {
			t.Errorf("Case %d: expected one %s flash, got %+v", i, tc.category, flashes)
		}
	}

	w := app.post("/login", url.Values{"username": {"lan"}, "password": {"newpassword"}}, nil)
	expectRedirect(t, w, "/")
}

func TestCustomerCRUD(t *testing.T) {
	app := newTestApp(t, "development")
	hoa := app.addUser(t, "hoa", models.SectionCustomers)

	w := app.post("/customers/create", url.Values{"name": {" ACME "}, "phone": {"0901"}}, hoa)
	expectRedirect(t, w, "/customers")
	expectFlash(t, w, flashSuccess, "Customer added")
	app.post("/customers/create", url.Values{"name": {"Beta"}}, hoa)

	if w := app.get("/customers", hoa); !strings.Contains(w.Body.String(), "ACME") {
		t.Error("Expected customer in the list")
	}

	if w := app.get("/customers/1/edit", hoa); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `value="0901"`) {
		t.Errorf("Expected edit page, got %d", w.Code)
	}
	expectFlash(t, app.get("/customers/abc/edit", hoa), flashDanger, "Customer not found")

	w = app.post("/customers/1/edit", url.Values{"name": {""}}, hoa)
	expectRedirect(t, w, "/customers/1/edit")
	expectFlash(t, w, flashWarning, "customer name")

	w = app.post("/customers/1/edit", url.Values{"name": {"ACME Ltd"}}, hoa)
	expectFlash(t, w, flashSuccess, "Customer updated")
	if c, _ := app.stores.Customers.Get(1); c.Name != "ACME Ltd" {
		t.Errorf("Expected updated name, got %q", c.Name)
	}
	expectFlash(t, app.post("/customers/7/edit", url.Values{"name": {"X"}}, hoa), flashDanger, "Update failed")

	expectFlash(t, app.post("/customers/delete/1", nil, hoa), flashSuccess, "Customer deleted")
	expectFlash(t, app.post("/customers/delete/1", nil, hoa), flashDanger, "Customer not found")

	// ids are never reused
	app.post("/customers/create", url.Values{"name": {"Gamma"}}, hoa)
	customers, _ := app.stores.Customers.List()
	if len(customers) != 2 || customers[0].ID != 2 || customers[1].ID != 3 {
		t.Errorf("Expected ids 2 and 3, got %+v", customers)
	}
}
