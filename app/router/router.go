package router

import (
	"net/http"
	"strings"

	"salesdesk/app/controller"
)

type Controllers struct {
	Catalog *controller.CatalogController
	Cart    *controller.CartController
	Sale    *controller.SaleController
	Report  *controller.ReportController
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func SetupRoutes(mux *http.ServeMux, controllers *Controllers) {
	// Ping endpoint
	mux.HandleFunc("/ping", pingHandler)

	// Catalog routes
	mux.HandleFunc("/admin/products", controllers.Catalog.ListProducts)
	mux.HandleFunc("/admin/products/refresh", controllers.Catalog.RefreshProducts)
	mux.HandleFunc("/admin/categories", controllers.Catalog.ListCategories)

	// Client lookup by cédula
	mux.HandleFunc("/admin/clients/", controllers.Catalog.GetClient)

	// Cart routes
	// GET shows the session cart, DELETE empties it
	mux.HandleFunc("/admin/cart", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			controllers.Cart.ClearCart(w, r)
			return
		}
		controllers.Cart.GetCart(w, r)
	})
	mux.HandleFunc("/admin/cart/items", controllers.Cart.AddItem)

	// Cart line by product id - handles PUT/PATCH (quantity) and DELETE (remove)
	mux.HandleFunc("/admin/cart/items/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			controllers.Cart.RemoveItem(w, r)
			return
		}
		controllers.Cart.UpdateItem(w, r)
	})
	mux.HandleFunc("/admin/cart/client", controllers.Cart.SetClient)
	mux.HandleFunc("/admin/cart/submit", controllers.Cart.Submit)

	// Sales routes
	// List sales
	mux.HandleFunc("/admin/sales", controllers.Sale.ListSales)

	// Sale by ID - handles GET (get) and DELETE (delete)
	mux.HandleFunc("/admin/sales/", func(w http.ResponseWriter, r *http.Request) {
		if strings.Trim(strings.TrimPrefix(r.URL.Path, "/admin/sales/"), "/") == "" {
			controllers.Sale.ListSales(w, r)
			return
		}
		if r.Method == http.MethodGet {
			controllers.Sale.GetSale(w, r)
		} else if r.Method == http.MethodDelete {
			controllers.Sale.DeleteSale(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Reports and exports
	mux.HandleFunc("/admin/reports", controllers.Report.GetReport)
}
