package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"labtrack/internal/logger"
	"labtrack/internal/models"
	"labtrack/internal/store"

	"github.com/gin-gonic/gin"
)

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func customerForm(c *gin.Context) models.Customer {
	return models.Customer{
		Name:         c.PostForm("name"),
		Organization: c.PostForm("organization"),
		Phone:        c.PostForm("phone"),
		Address:      c.PostForm("address"),
		Note:         c.PostForm("note"),
	}
}

func handleCustomers(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	customers, err := stores.Customers.List()
	if err != nil {
		logger.Error("Failed to list customers", "error", err)
		addFlash(c, flashDanger, "Failed to load customers")
		customers = []models.Customer{}
	}

	renderPage(c, http.StatusOK, "customers.html", "Customers", gin.H{
		"Customers": customers,
	})
}

func handleCreateCustomer(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	_, err := stores.Customers.Create(customerForm(c))
	var verr *store.ValidationError
	switch {
	case err == nil:
		addFlash(c, flashSuccess, "Customer added")
	case errors.As(err, &verr):
		addFlash(c, flashWarning, "Please enter the customer name")
	default:
		logger.Error("Failed to create customer", "error", err)
		addFlash(c, flashDanger, "Failed to add customer")
	}
	redirect(c, "/customers")
}

func handleDeleteCustomer(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	id, ok := idParam(c)
	if !ok {
		addFlash(c, flashDanger, "Customer not found")
		redirect(c, "/customers")
		return
	}

	deleted, err := stores.Customers.Delete(id)
	if err != nil {
		logger.Error("Failed to delete customer", "id", id, "error", err)
	}
	if err != nil || !deleted {
		addFlash(c, flashDanger, "Customer not found")
	} else {
		addFlash(c, flashSuccess, "Customer deleted")
	}
	redirect(c, "/customers")
}

func handleEditCustomerPage(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	id, ok := idParam(c)
	if !ok {
		addFlash(c, flashDanger, "Customer not found")
		redirect(c, "/customers")
		return
	}

	customer, err := stores.Customers.Get(id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.Error("Failed to load customer", "id", id, "error", err)
		}
		addFlash(c, flashDanger, "Customer not found")
		redirect(c, "/customers")
		return
	}

	renderPage(c, http.StatusOK, "customer_edit.html", "Edit customer", gin.H{
		"Customer": customer,
	})
}

func handleUpdateCustomer(c *gin.Context) {
	stores := c.MustGet("stores").(*store.Stores)

	id, ok := idParam(c)
	if !ok {
		addFlash(c, flashDanger, "Customer not found")
		redirect(c, "/customers")
		return
	}

	updated, err := stores.Customers.Update(id, customerForm(c))
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		addFlash(c, flashWarning, "Please enter the customer name")
		redirect(c, fmt.Sprintf("/customers/%d/edit", id))
		return
	case err != nil:
		logger.Error("Failed to update customer", "id", id, "error", err)
		addFlash(c, flashDanger, "Update failed")
	case !updated:
		addFlash(c, flashDanger, "Update failed")
	default:
		addFlash(c, flashSuccess, "Customer updated")
	}
	redirect(c, "/customers")
}
